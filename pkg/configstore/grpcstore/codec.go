package grpcstore

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName is the content subtype used on the wire
// (application/grpc+json).
const codecName = "json"

// jsonCodec carries the service messages as JSON instead of protobuf, so
// the contract needs no generated code.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
