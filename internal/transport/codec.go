// Package transport exposes the assignment and campaign services over
// Connect RPC with JSON payloads.
package transport

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec replaces connect's protobuf JSON codec so plain structs can be
// used as messages
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// WithJSON is the codec option shared by handlers and clients
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
