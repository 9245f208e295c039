package repositories

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode sorts map keys so identical records always produce identical bytes.
var encMode, _ = cbor.CanonicalEncOptions().EncMode()

func marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
