package utils

import (
	"encoding"
	"encoding/json"
	"errors"

	"github.com/NethermindEth/starkcheck/core/felt"
	"github.com/spf13/pflag"
)

var ErrUnknownNetwork = errors.New(
	"unknown network (known: mainnet, goerli, goerli2, integration, sepolia, sepolia-integration)")

type Network int

// The following are necessary for Cobra and Viper, respectively, to unmarshal
// network CLI/config parameters properly.
var (
	_ pflag.Value              = (*Network)(nil)
	_ encoding.TextUnmarshaler = (*Network)(nil)
)

const (
	Mainnet Network = iota + 1
	Goerli
	Goerli2
	Integration
	Sepolia
	SepoliaIntegration
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Goerli:
		return "goerli"
	case Goerli2:
		return "goerli2"
	case Integration:
		return "integration"
	case Sepolia:
		return "sepolia"
	case SepoliaIntegration:
		return "sepolia-integration"
	default:
		// Should not happen.
		panic(ErrUnknownNetwork)
	}
}

func (n Network) MarshalYAML() (interface{}, error) {
	return n.String(), nil
}

func (n *Network) MarshalJSON() ([]byte, error) {
	return json.RawMessage(`"` + n.String() + `"`), nil
}

func (n *Network) Set(s string) error {
	switch s {
	case "MAINNET", "mainnet":
		*n = Mainnet
	case "GOERLI", "goerli":
		*n = Goerli
	case "GOERLI2", "goerli2":
		*n = Goerli2
	case "INTEGRATION", "integration":
		*n = Integration
	case "SEPOLIA", "sepolia":
		*n = Sepolia
	case "SEPOLIA_INTEGRATION", "sepolia-integration":
		*n = SepoliaIntegration
	default:
		return ErrUnknownNetwork
	}
	return nil
}

func (n *Network) Type() string {
	return "Network"
}

func (n *Network) UnmarshalText(text []byte) error {
	return n.Set(string(text))
}

// ChainIDString returns the ASCII chain id the network declares on the wire.
func (n Network) ChainIDString() string {
	switch n {
	case Goerli, Integration:
		return "SN_GOERLI"
	case Mainnet:
		return "SN_MAIN"
	case Goerli2:
		return "SN_GOERLI2"
	case Sepolia:
		return "SN_SEPOLIA"
	case SepoliaIntegration:
		return "SN_INTEGRATION_SEPOLIA"
	default:
		// Should not happen.
		panic(ErrUnknownNetwork)
	}
}

// ChainID returns the chain id embedded as a field element, the form in which
// it enters every transaction hash.
func (n Network) ChainID() *felt.Felt {
	return new(felt.Felt).SetBytes([]byte(n.ChainIDString()))
}
