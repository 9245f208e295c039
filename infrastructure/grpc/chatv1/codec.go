// Package chatv1 holds the chat.v1 gRPC services: wire types, the CBOR codec
// they travel with, service descriptors, and client stubs.
package chatv1

import (
	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype of every chat.v1 call ("application/grpc+cbor").
const CodecName = "cbor"

var encMode, _ = cbor.CanonicalEncOptions().EncMode()

type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

func (Codec) Unmarshal(data []byte, v any) error { return cbor.Unmarshal(data, v) }

func (Codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(Codec{})
}
