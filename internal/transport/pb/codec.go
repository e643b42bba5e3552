// Package pb defines the wire messages and service descriptor for the
// gRPC streaming transport (spec.md §6b), hand-authored in the shape
// protoc-gen-go/protoc-gen-go-grpc would otherwise produce: this module
// has no `.proto` build pipeline to ground a codegen step on, so the
// messages are plain structs and the RPC is wired through a small JSON
// content-subtype codec instead of binary protobuf encoding (see the
// internal/transport entry of DESIGN.md for the rationale), following the codec
// registration pattern used by the pack's inprocgrpc module.
package pb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const CodecName = "highwaysim-json"

// jsonCodec implements google.golang.org/grpc/encoding.Codec for the
// plain Go structs below. Registered once at package init so the client
// stub (service.go, via grpc.CallContentSubtype(CodecName)) and the
// server in transport/grpc.go (via grpc.ForceServerCodec) can select it.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
