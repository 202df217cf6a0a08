package encoder

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	initialiseOnce sync.Once
)

func initModes() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	decMode, err = cbor.DecOptions{
		MaxArrayElements: 10485760, // 10MiB, headroom for large storage diffs
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Marshal returns the canonical CBOR encoding of v.
func Marshal(v any) ([]byte, error) {
	initialiseOnce.Do(initModes)
	return encMode.Marshal(v)
}

// Unmarshal decodes b into v.
func Unmarshal(b []byte, v any) error {
	initialiseOnce.Do(initModes)
	return decMode.Unmarshal(b, v)
}
