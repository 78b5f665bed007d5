package graph

import (
	"github.com/nextgraph-org/ng-core/internal/codec"
)

// Combiner merges an incoming discrete-CRDT update into existing branch
// state, returning the new state to persist (spec §4.6 "Discrete update").
// This module embeds Automerge/Yjs transactions opaquely (spec §1
// Non-goals: "we embed existing Yjs/Automerge transactions opaquely"); a
// Combiner is the seam a real Yjs/Automerge binding plugs into.
type Combiner interface {
	// Apply merges update into state (nil for a fresh branch) and returns
	// the resulting state.
	Apply(state, update []byte) ([]byte, error)
}

// OpaqueCombiner treats every update as a full-state replacement: the
// simplest possible Combiner, used for CRDTNone branches and tests that
// only exercise the persistence/patch-emission path and never claim CRDT
// merge semantics.
type OpaqueCombiner struct{}

func (OpaqueCombiner) Apply(state, update []byte) ([]byte, error) {
	return append([]byte(nil), update...), nil
}

// lwwDoc is the wire shape an LWWCombiner persists: a flat map of top-level
// keys to their last-written raw value.
type lwwDoc struct {
	Values map[string][]byte `cbor:"1,keyasint"`
}

// LWWOp is one update: set or delete a single top-level key. A batch of ops
// CBOR-encodes to a slice of LWWOp, the shape LWWCombiner.Apply expects as
// its update argument.
type LWWOp struct {
	Key    string `cbor:"1,keyasint"`
	Value  []byte `cbor:"2,keyasint,omitempty"`
	Delete bool   `cbor:"3,keyasint,omitempty"`
}

// LWWCombiner is a structural last-write-wins merge over top-level keys:
// enough to exercise update_discrete's persistence and patch-emission path
// without claiming Yjs/Automerge wire compatibility (spec §4.6 "Discrete
// CRDT state" — documented in SPEC_FULL.md as a deliberate, non-hidden
// simplification of the real Yjs `load_incremental`/Automerge combiners).
type LWWCombiner struct{}

func (LWWCombiner) Apply(state, update []byte) ([]byte, error) {
	var doc lwwDoc
	if len(state) > 0 {
		if err := codec.Default.Unmarshal(state, &doc); err != nil {
			return nil, err
		}
	}
	if doc.Values == nil {
		doc.Values = make(map[string][]byte)
	}

	var ops []LWWOp
	if len(update) > 0 {
		if err := codec.Default.Unmarshal(update, &ops); err != nil {
			return nil, err
		}
	}
	for _, op := range ops {
		if op.Delete {
			delete(doc.Values, op.Key)
			continue
		}
		doc.Values[op.Key] = op.Value
	}
	return codec.Default.Marshal(doc)
}

// EncodeLWWOps is a convenience for callers constructing an update batch
// for LWWCombiner (mirrors the real `encode_update_v1` step of spec §4.6's
// frontend-originated discrete update path).
func EncodeLWWOps(ops []LWWOp) ([]byte, error) {
	return codec.Default.Marshal(ops)
}
