package core

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/NethermindEth/starkcheck/core/crypto"
	"github.com/NethermindEth/starkcheck/core/felt"
	"github.com/NethermindEth/starkcheck/utils"
)

var (
	// ErrTransactionHashMismatch reports a transaction whose recomputed hash
	// differs from the hash it claims.
	ErrTransactionHashMismatch = errors.New("transaction hash mismatch")
	// ErrTransactionHashMatch reports a transaction whose recomputed hash
	// unexpectedly equals the hash it claims. Only returned by
	// [VerifyTransactionHashExpectingMismatch].
	ErrTransactionHashMatch = errors.New("transaction hash matched")
)

// EntryPointType distinguishes how a v0 invoke enters a contract. The oldest
// L1 handler transactions circulated as invokes tagged with the L1 handler
// entry point type.
type EntryPointType uint8

const (
	EntryPointTypeUnset EntryPointType = iota
	EntryPointTypeExternal
	EntryPointTypeL1Handler
)

type Transaction interface {
	Hash() *felt.Felt
	Signature() []*felt.Felt
}

var (
	_ Transaction = (*DeclareTransactionV0)(nil)
	_ Transaction = (*DeclareTransactionV1)(nil)
	_ Transaction = (*DeclareTransactionV2)(nil)
	_ Transaction = (*DeployTransaction)(nil)
	_ Transaction = (*DeployAccountTransaction)(nil)
	_ Transaction = (*InvokeTransactionV0)(nil)
	_ Transaction = (*InvokeTransactionV1)(nil)
	_ Transaction = (*L1HandlerTransaction)(nil)
)

type DeclareTransactionV0 struct {
	TransactionHash *felt.Felt
	// The hash of the class whose functionality is declared.
	ClassHash *felt.Felt
	// The address of the account initiating the transaction.
	SenderAddress *felt.Felt
	// The maximum fee that the sender is willing to pay for the transaction.
	MaxFee *felt.Felt
	// Additional information given by the sender, used to validate the transaction.
	TransactionSignature []*felt.Felt
}

func (d *DeclareTransactionV0) Hash() *felt.Felt {
	return d.TransactionHash
}

func (d *DeclareTransactionV0) Signature() []*felt.Felt {
	return d.TransactionSignature
}

type DeclareTransactionV1 struct {
	TransactionHash      *felt.Felt
	ClassHash            *felt.Felt
	SenderAddress        *felt.Felt
	MaxFee               *felt.Felt
	TransactionSignature []*felt.Felt
	// The transaction nonce.
	Nonce *felt.Felt
}

func (d *DeclareTransactionV1) Hash() *felt.Felt {
	return d.TransactionHash
}

func (d *DeclareTransactionV1) Signature() []*felt.Felt {
	return d.TransactionSignature
}

type DeclareTransactionV2 struct {
	TransactionHash      *felt.Felt
	ClassHash            *felt.Felt
	SenderAddress        *felt.Felt
	MaxFee               *felt.Felt
	TransactionSignature []*felt.Felt
	Nonce                *felt.Felt
	// The hash of the compiled (CASM) class.
	CompiledClassHash *felt.Felt
}

func (d *DeclareTransactionV2) Hash() *felt.Felt {
	return d.TransactionHash
}

func (d *DeclareTransactionV2) Signature() []*felt.Felt {
	return d.TransactionSignature
}

type DeployTransaction struct {
	TransactionHash *felt.Felt
	// A random number used to distinguish between different instances of the contract.
	ContractAddressSalt *felt.Felt
	// The address of the deployed contract.
	ContractAddress *felt.Felt
	// The hash of the class which defines the contract's functionality.
	ClassHash *felt.Felt
	// The arguments passed to the constructor during deployment.
	ConstructorCallData []*felt.Felt
	// The transaction's version.
	Version *felt.Felt
}

func (d *DeployTransaction) Hash() *felt.Felt {
	return d.TransactionHash
}

func (d *DeployTransaction) Signature() []*felt.Felt {
	return make([]*felt.Felt, 0)
}

type DeployAccountTransaction struct {
	TransactionHash      *felt.Felt
	ContractAddressSalt  *felt.Felt
	ContractAddress      *felt.Felt
	ClassHash            *felt.Felt
	ConstructorCallData  []*felt.Felt
	Version              *felt.Felt
	MaxFee               *felt.Felt
	TransactionSignature []*felt.Felt
	Nonce                *felt.Felt
}

func (d *DeployAccountTransaction) Hash() *felt.Felt {
	return d.TransactionHash
}

func (d *DeployAccountTransaction) Signature() []*felt.Felt {
	return d.TransactionSignature
}

type InvokeTransactionV0 struct {
	TransactionHash *felt.Felt
	// The address of the contract invoked by this transaction.
	SenderAddress *felt.Felt
	// The encoding of the selector for the function invoked.
	EntryPointSelector *felt.Felt
	// How the function is entered. Set only on historical transactions.
	EntryPointType EntryPointType
	// The arguments that are passed to the invoked function.
	CallData             []*felt.Felt
	MaxFee               *felt.Felt
	TransactionSignature []*felt.Felt
}

func (i *InvokeTransactionV0) Hash() *felt.Felt {
	return i.TransactionHash
}

func (i *InvokeTransactionV0) Signature() []*felt.Felt {
	return i.TransactionSignature
}

type InvokeTransactionV1 struct {
	TransactionHash      *felt.Felt
	SenderAddress        *felt.Felt
	CallData             []*felt.Felt
	MaxFee               *felt.Felt
	TransactionSignature []*felt.Felt
	Nonce                *felt.Felt
}

func (i *InvokeTransactionV1) Hash() *felt.Felt {
	return i.TransactionHash
}

func (i *InvokeTransactionV1) Signature() []*felt.Felt {
	return i.TransactionSignature
}

type L1HandlerTransaction struct {
	TransactionHash *felt.Felt
	// The address of the contract handling the message.
	ContractAddress *felt.Felt
	// The encoding of the selector for the handler invoked.
	EntryPointSelector *felt.Felt
	// The L1 to L2 message nonce. Missing on the oldest transactions.
	Nonce    *felt.Felt
	CallData []*felt.Felt
	Version  *felt.Felt
}

func (l *L1HandlerTransaction) Hash() *felt.Felt {
	return l.TransactionHash
}

func (l *L1HandlerTransaction) Signature() []*felt.Felt {
	return make([]*felt.Felt, 0)
}

// ComputedHash is the outcome of recomputing a transaction's hash. Value is
// nil only for v0 invokes flagged with the L1 handler entry point type, whose
// hash no known formula reproduces.
type ComputedHash struct {
	Value *felt.Felt
}

// Unknown reports whether no hash could be computed for the transaction.
func (c ComputedHash) Unknown() bool {
	return c.Value == nil
}

var (
	invokeFelt        = new(felt.Felt).SetBytes([]byte("invoke"))
	declareFelt       = new(felt.Felt).SetBytes([]byte("declare"))
	deployFelt        = new(felt.Felt).SetBytes([]byte("deploy"))
	l1HandlerFelt     = new(felt.Felt).SetBytes([]byte("l1_handler"))
	deployAccountFelt = new(felt.Felt).SetBytes([]byte("deploy_account"))

	feltOne = new(felt.Felt).SetUint64(1)
	feltTwo = new(felt.Felt).SetUint64(2)

	// constructorSelector is the Starknet keccak of "constructor", the entry
	// point every deploy transaction invokes.
	constructorSelector = mustStarknetKeccak([]byte("constructor"))
)

func mustStarknetKeccak(b []byte) *felt.Felt {
	selector, err := crypto.StarknetKeccak(b)
	if err != nil {
		panic(err)
	}
	return selector
}

// Blocks up to and including 21086 on goerli2 were produced while the network
// still declared goerli's chain id, so their transactions hash with the old id.
const goerli2ChainIDSwitchHeight = 21086

// EffectiveChainID maps a network and block number to the chain id that was in
// effect when the block's transactions were hashed.
func EffectiveChainID(network utils.Network, blockNumber uint64) *felt.Felt {
	if network == utils.Goerli2 && blockNumber <= goerli2ChainIDSwitchHeight {
		return utils.Goerli.ChainID()
	}
	return network.ChainID()
}

// ComputeTransactionHash applies the kind and version specific hash formula
// to the given transaction.
//
// For Deploy, Invoke v0 and L1Handler a legacy formula is used as a fallback
// whenever the current formula disagrees with the hash the transaction
// claims; the fallback's result is then authoritative. The fallback runs at
// most once, it is a compatibility seam for pre 0.8 transactions and not a
// retry.
func ComputeTransactionHash(transaction Transaction, chainID *felt.Felt) (ComputedHash, error) {
	switch t := transaction.(type) {
	case *DeclareTransactionV0:
		return declareV0Hash(t, chainID), nil
	case *DeclareTransactionV1:
		return declareV1Hash(t, chainID), nil
	case *DeclareTransactionV2:
		return declareV2Hash(t, chainID), nil
	case *DeployTransaction:
		return deployHash(t, chainID), nil
	case *DeployAccountTransaction:
		return deployAccountHash(t, chainID), nil
	case *InvokeTransactionV0:
		return invokeV0Hash(t, chainID), nil
	case *InvokeTransactionV1:
		return invokeV1Hash(t, chainID), nil
	case *L1HandlerTransaction:
		return l1HandlerHash(t, chainID), nil
	default:
		return ComputedHash{}, fmt.Errorf("unknown transaction type %T", transaction)
	}
}

// declare_v0_tx_hash = h("declare", version, sender_address,
//
//	0, h([]), 0, chain_id, class_hash)
//
// Declare v0 predates fees, so the fee position always hashes as zero no
// matter what max fee the gateway reports for the transaction.
func declareV0Hash(d *DeclareTransactionV0, chainID *felt.Felt) ComputedHash {
	return ComputedHash{Value: computeTxnHash(
		declareFelt,
		&felt.Zero,
		d.SenderAddress,
		nil,
		crypto.PedersenArray(),
		nil,
		chainID,
		d.ClassHash,
	)}
}

// declare_v1_tx_hash = h("declare", version, sender_address,
//
//	0, h([class_hash]), max_fee, chain_id, nonce)
func declareV1Hash(d *DeclareTransactionV1, chainID *felt.Felt) ComputedHash {
	return ComputedHash{Value: computeTxnHash(
		declareFelt,
		feltOne,
		d.SenderAddress,
		nil,
		crypto.PedersenArray(d.ClassHash),
		d.MaxFee,
		chainID,
		d.Nonce,
	)}
}

// declare_v2_tx_hash = h("declare", version, sender_address,
//
//	0, h([class_hash]), max_fee, chain_id, nonce, compiled_class_hash)
func declareV2Hash(d *DeclareTransactionV2, chainID *felt.Felt) ComputedHash {
	return ComputedHash{Value: computeTxnHash(
		declareFelt,
		feltTwo,
		d.SenderAddress,
		nil,
		crypto.PedersenArray(d.ClassHash),
		d.MaxFee,
		chainID,
		d.Nonce,
		d.CompiledClassHash,
	)}
}

// deploy_tx_hash = h("deploy", version, contract_address,
//
//	sn_keccak("constructor"), h(constructor_calldata), 0, chain_id)
func deployHash(d *DeployTransaction, chainID *felt.Felt) ComputedHash {
	constructorParamsHash := crypto.PedersenArray(d.ConstructorCallData...)

	hash := computeTxnHash(
		deployFelt,
		d.Version,
		d.ContractAddress,
		constructorSelector,
		constructorParamsHash,
		nil,
		chainID,
	)
	if !hash.Equal(d.TransactionHash) {
		hash = legacyTxnHash(deployFelt, d.ContractAddress, constructorSelector, constructorParamsHash, chainID)
	}
	return ComputedHash{Value: hash}
}

// deploy_account_tx_hash = h("deploy_account", version, contract_address, 0,
//
//	h(class_hash, contract_address_salt, constructor_calldata),
//	max_fee, chain_id, nonce)
func deployAccountHash(d *DeployAccountTransaction, chainID *felt.Felt) ComputedHash {
	callData := make([]*felt.Felt, 0, len(d.ConstructorCallData)+2)
	callData = append(callData, d.ClassHash, d.ContractAddressSalt)
	callData = append(callData, d.ConstructorCallData...)

	return ComputedHash{Value: computeTxnHash(
		deployAccountFelt,
		d.Version,
		d.ContractAddress,
		nil,
		crypto.PedersenArray(callData...),
		d.MaxFee,
		chainID,
		d.Nonce,
	)}
}

// invoke_v0_tx_hash = h("invoke", version, sender_address,
//
//	entry_point_selector, h(calldata), max_fee, chain_id)
func invokeV0Hash(i *InvokeTransactionV0, chainID *felt.Felt) ComputedHash {
	// Some old L1 handler transactions circulated as v0 invokes marked by the
	// entry point type. There is no known way to compute their hashes.
	if i.EntryPointType == EntryPointTypeL1Handler {
		return ComputedHash{}
	}

	callParamsHash := crypto.PedersenArray(i.CallData...)

	hash := computeTxnHash(
		invokeFelt,
		&felt.Zero,
		i.SenderAddress,
		i.EntryPointSelector,
		callParamsHash,
		i.MaxFee,
		chainID,
	)
	if !hash.Equal(i.TransactionHash) {
		hash = legacyTxnHash(invokeFelt, i.SenderAddress, i.EntryPointSelector, callParamsHash, chainID)
	}
	return ComputedHash{Value: hash}
}

// invoke_v1_tx_hash = h("invoke", version, sender_address,
//
//	0, h(calldata), max_fee, chain_id, nonce)
func invokeV1Hash(i *InvokeTransactionV1, chainID *felt.Felt) ComputedHash {
	return ComputedHash{Value: computeTxnHash(
		invokeFelt,
		feltOne,
		i.SenderAddress,
		nil,
		crypto.PedersenArray(i.CallData...),
		i.MaxFee,
		chainID,
		i.Nonce,
	)}
}

// l1_handler_tx_hash = h("l1_handler", version, contract_address,
//
//	entry_point_selector, h(calldata), 0, chain_id, nonce)
func l1HandlerHash(l *L1HandlerTransaction, chainID *felt.Felt) ComputedHash {
	callParamsHash := crypto.PedersenArray(l.CallData...)

	hash := computeTxnHash(
		l1HandlerFelt,
		l.Version,
		l.ContractAddress,
		l.EntryPointSelector,
		callParamsHash,
		nil,
		chainID,
		orZero(l.Nonce),
	)
	if !hash.Equal(l.TransactionHash) {
		// The oldest L1 handler transactions were actually invokes which were
		// later renamed, yet their hashes remain, hence the prefix.
		hash = legacyTxnHash(invokeFelt, l.ContractAddress, l.EntryPointSelector, callParamsHash, chainID)
	}
	return ComputedHash{Value: hash}
}

// computeTxnHash chains the common accumulator shared by all current
// formulas: prefix, version, address, selector, calldata hash, fee and chain
// id, followed by zero or more kind dependent trailing fields. Absent selector
// and fee hash as zero.
func computeTxnHash(prefix, version, address, entryPointSelector, listHash, maxFee, chainID *felt.Felt,
	trailing ...*felt.Felt,
) *felt.Felt {
	digest := new(crypto.PedersenDigest)
	digest.Update(prefix, version, address, orZero(entryPointSelector), listHash, orZero(maxFee), chainID)
	return digest.Update(trailing...).Finish()
}

// legacyTxnHash is the generic formula for older transactions (pre 0.8-ish):
// no version and no trailing fields.
func legacyTxnHash(prefix, address, entryPointSelector, listHash, chainID *felt.Felt) *felt.Felt {
	digest := new(crypto.PedersenDigest)
	return digest.Update(prefix, address, orZero(entryPointSelector), listHash, chainID).Finish()
}

func orZero(f *felt.Felt) *felt.Felt {
	if f == nil {
		return &felt.Zero
	}
	return f
}

// VerifyTransactionHash recomputes the hash of txn under the chain id that
// was in effect at blockNumber and compares it against the hash the
// transaction claims. The returned bool reports whether verification was
// skipped because no known formula covers the transaction; a mismatch is
// returned as an error carrying both values.
func VerifyTransactionHash(txn Transaction, network utils.Network, blockNumber uint64) (bool, error) {
	chainID := EffectiveChainID(network, blockNumber)

	computed, err := ComputeTransactionHash(txn, chainID)
	if err != nil {
		return false, fmt.Errorf("compute transaction hash: %w", err)
	}
	if computed.Unknown() {
		return true, nil
	}
	if !computed.Value.Equal(txn.Hash()) {
		return false, fmt.Errorf("%w: expected %s computed %s",
			ErrTransactionHashMismatch, txn.Hash(), computed.Value)
	}
	return false, nil
}

// VerifyTransactionHashExpectingMismatch is the scanning variant of
// [VerifyTransactionHash] used where a mismatch is the expected steady state:
// the equality branch is the failure case, deliberately inverted relative to
// VerifyTransactionHash. Chain id resolution and formula selection are shared
// with the regular variant. txnIdx is only used for diagnostic context.
func VerifyTransactionHashExpectingMismatch(txn Transaction, network utils.Network,
	blockNumber, txnIdx uint64,
) (bool, error) {
	chainID := EffectiveChainID(network, blockNumber)

	computed, err := ComputeTransactionHash(txn, chainID)
	if err != nil {
		return false, fmt.Errorf("compute hash for transaction: block %d idx %d hash %s: %w",
			blockNumber, txnIdx, txn.Hash(), err)
	}
	if computed.Unknown() {
		return true, nil
	}
	if computed.Value.Equal(txn.Hash()) {
		return false, fmt.Errorf("%w: block %d idx %d expected %s computed %s",
			ErrTransactionHashMatch, blockNumber, txnIdx, txn.Hash(), computed.Value)
	}
	return false, nil
}

// Hashes are only verifiable from protocol version 0.11.0 onwards.
var txnHashVerificationVersion = semver.MustParse("0.11.0")

// VerifyBlockTransactions checks the hash of every transaction of a block,
// skipping blocks below protocol version 0.11.0.
func VerifyBlockTransactions(txns []Transaction, network utils.Network, blockNumber uint64,
	protocolVersion string,
) error {
	blockVersion, err := ParseBlockVersion(protocolVersion)
	if err != nil {
		return err
	}
	if blockVersion.LessThan(txnHashVerificationVersion) {
		return nil
	}

	for i, txn := range txns {
		if _, err := VerifyTransactionHash(txn, network, blockNumber); err != nil {
			return fmt.Errorf("verify transaction %d of block %d: %w", i, blockNumber, err)
		}
	}
	return nil
}
