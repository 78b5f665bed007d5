package commit

import "github.com/nextgraph-org/ng-core/ng"

// CommitHeader holds the ids-only half of a commit's causal-past references
// (spec §4.3 "Creation"). It is saved as its own Object, separate from the
// commit body, so that a peer can learn the shape of the DAG around a
// commit without holding the keys needed to read any of those referenced
// commits.
type CommitHeader struct {
	Deps  []ng.Digest `cbor:"1,keyasint,omitempty"`
	NDeps []ng.Digest `cbor:"2,keyasint,omitempty"`
	Acks  []ng.Digest `cbor:"3,keyasint,omitempty"`
	NAcks []ng.Digest `cbor:"4,keyasint,omitempty"`
	Refs  []ng.Digest `cbor:"5,keyasint,omitempty"`
	NRefs []ng.Digest `cbor:"6,keyasint,omitempty"`
}

// IsEmpty reports whether the header carries no causal-past references at
// all, the shape of a branch's root commit.
func (h *CommitHeader) IsEmpty() bool {
	return h == nil || (len(h.Deps) == 0 && len(h.NDeps) == 0 && len(h.Acks) == 0 &&
		len(h.NAcks) == 0 && len(h.Refs) == 0 && len(h.NRefs) == 0)
}

// CommitHeaderKeys holds the keys-only half, parallel in length and order
// to the id lists of a CommitHeader, kept inside CommitContent and so
// protected by the commit's own encryption key. A zero key at index i means
// "id advertised, content not readable" (spec §4.3 "Causal-past iteration").
type CommitHeaderKeys struct {
	Deps  []ng.SymKey `cbor:"1,keyasint,omitempty"`
	NDeps []ng.SymKey `cbor:"2,keyasint,omitempty"`
	Acks  []ng.SymKey `cbor:"3,keyasint,omitempty"`
	NAcks []ng.SymKey `cbor:"4,keyasint,omitempty"`
	Refs  []ng.SymKey `cbor:"5,keyasint,omitempty"`
	NRefs []ng.SymKey `cbor:"6,keyasint,omitempty"`
}

func splitHeader(deps, ndeps, acks, nacks, refs, nrefs []ng.ObjectRef) (CommitHeader, CommitHeaderKeys) {
	var h CommitHeader
	var k CommitHeaderKeys
	split := func(refs []ng.ObjectRef) ([]ng.Digest, []ng.SymKey) {
		ids := make([]ng.Digest, len(refs))
		keys := make([]ng.SymKey, len(refs))
		for i, r := range refs {
			ids[i] = r.ID
			keys[i] = r.Key
		}
		return ids, keys
	}
	h.Deps, k.Deps = split(deps)
	h.NDeps, k.NDeps = split(ndeps)
	h.Acks, k.Acks = split(acks)
	h.NAcks, k.NAcks = split(nacks)
	h.Refs, k.Refs = split(refs)
	h.NRefs, k.NRefs = split(nrefs)
	return h, k
}
