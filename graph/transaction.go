package graph

import "github.com/nextgraph-org/ng-core/internal/codec"

// TripleRef is a graph-less triple: the payload shape carried inside a
// GraphTransaction and a GraphPatch, where the graph name is implied by
// context (the commit applying it) rather than stored per-triple.
type TripleRef struct {
	Subject   string `cbor:"1,keyasint"`
	Predicate string `cbor:"2,keyasint"`
	Object    string `cbor:"3,keyasint"`
}

// GraphTransaction is the graph-delta half of an AsyncTransaction/
// SyncTransaction commit body (spec §4.6 "TransactionBody{graph?,
// discrete?}").
type GraphTransaction struct {
	Inserts []TripleRef `cbor:"1,keyasint,omitempty"`
	Removes []TripleRef `cbor:"2,keyasint,omitempty"`
}

// DiscreteTransaction is the discrete-CRDT half: an opaque update blob
// handed to a Combiner.
type DiscreteTransaction struct {
	Update []byte `cbor:"1,keyasint"`
}

// TransactionBody is the deserialized form of commit.AsyncTransaction/
// SyncTransaction's opaque Body bytes (spec §4.5 "AsyncTransaction(bytes):
// deserializes into TransactionBody{graph?, discrete?}").
type TransactionBody struct {
	Graph    *GraphTransaction    `cbor:"1,keyasint,omitempty"`
	Discrete *DiscreteTransaction `cbor:"2,keyasint,omitempty"`
}

// EncodeTransactionBody serializes a TransactionBody for embedding in a
// commit body's opaque Body field.
func EncodeTransactionBody(b TransactionBody) ([]byte, error) {
	return codec.Default.Marshal(b)
}

// DecodeTransactionBody parses a commit body's opaque bytes back into a
// TransactionBody.
func DecodeTransactionBody(data []byte) (TransactionBody, error) {
	var b TransactionBody
	err := codec.Default.Unmarshal(data, &b)
	return b, err
}
