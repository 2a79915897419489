// Package rpcservice exposes the storage engine and SPARQL evaluator
// as a streaming gRPC service. No protoc toolchain is available in
// this environment, so wire messages are plain Go structs serialized
// with encoding/gob through a hand-written grpc/encoding.Codec, riding
// on the real grpc-go transport, streaming, and status machinery
// rather than a generated protobuf codec; see DESIGN.md.
package rpcservice

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"

	"github.com/triplewire/quadstore/pkg/rdf"
)

func init() {
	gob.Register(&rdf.URI{})
	gob.Register(&rdf.BlankNode{})
	gob.Register(&rdf.StringLiteral{})
	gob.Register(&rdf.DatatypeLiteral{})
	encoding.RegisterCodec(Codec{})
}

// CodecName is the name this codec registers under with grpc's
// encoding registry, in place of "proto".
const CodecName = "gob"

// Codec implements grpc/encoding.Codec over encoding/gob.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("rpcservice: gob marshal: %w", err)
	}
	return buf.Bytes(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("rpcservice: gob unmarshal: %w", err)
	}
	return nil
}

func (Codec) Name() string { return CodecName }
