package graph

import (
	"time"

	"github.com/nextgraph-org/ng-core/internal/idgen"
)

// pastIndexEpoch anchors the idtimestamp-shaped ordinals PastIndex assigns;
// any fixed instant works since only relative ordering between ordinals
// assigned by the same index matters.
var pastIndexEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// PastIndex answers "is graph G still observed looking backward from this
// set of head graph names" (spec §4.6 "Past/heads indexing"). It is a
// rewritten-for-purpose adaptation of the teacher's urkle package: urkle
// keys a preallocated radix trie by a strictly-increasing 64-bit ordinal so
// an append-only builder never rewrites earlier nodes. This port keeps that
// same discipline - one monotonic ordinal per recorded graph name, edges
// only added once, never revisited - but represents it as a plain Go map of
// adjacency lists rather than urkle's byte-level preallocated region: an
// in-memory verifier has no fixed-size-massif constraint to satisfy, so the
// trie's bit-navigation arithmetic buys nothing here (see DESIGN.md). The
// ordinal itself comes from internal/idgen rather than a bare incrementing
// counter.
type PastIndex struct {
	nodes map[string]*pastNode
	gen   *idgen.Generator
}

type pastNode struct {
	ordinal uint64
	past    []string
}

// NewPastIndex builds an empty index.
func NewPastIndex() *PastIndex {
	gen, err := idgen.New(pastIndexEpoch)
	if err != nil {
		// privateNodeID already falls back to a fixed node id when no
		// private IPv4 is discoverable; New only fails to construct the
		// Generator itself, which doesn't happen on that path.
		panic("graph: failed to build past-index id generator: " + err.Error())
	}
	return &PastIndex{nodes: make(map[string]*pastNode), gen: gen}
}

// Record appends name to the index with the given direct-causal-past graph
// names. Keys are assigned strictly increasing ordinals in call order,
// matching urkle's "keys are strictly increasing" append-only invariant.
// Re-recording an already-known name is a no-op (idempotent, matching the
// rest of this module's save/put semantics).
func (idx *PastIndex) Record(name string, past []string) error {
	if _, ok := idx.nodes[name]; ok {
		return nil
	}
	ordinal, err := idx.gen.NextID()
	if err != nil {
		return err
	}
	idx.nodes[name] = &pastNode{ordinal: ordinal, past: append([]string(nil), past...)}
	return nil
}

// IsAncestor reports whether ancestor is reachable from of by walking past
// edges backward, stopping early once the candidate's ordinal is smaller
// than ancestor's (past edges only ever point to strictly smaller
// ordinals, so no reachable node can have a smaller ordinal than ancestor
// once we've passed it).
func (idx *PastIndex) IsAncestor(ancestor, of string) bool {
	if ancestor == of {
		return true
	}
	target, ok := idx.nodes[ancestor]
	if !ok {
		return false
	}
	visited := map[string]bool{}
	queue := []string{of}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if cur == ancestor {
			return true
		}
		node, ok := idx.nodes[cur]
		if !ok || node.ordinal < target.ordinal {
			continue
		}
		queue = append(queue, node.past...)
	}
	return false
}

// WalkToFrontier BFS-walks backward from heads, calling visit on every
// graph name encountered (heads included) in visitation order, stopping a
// branch of the walk as soon as visit returns false (used by the quad
// "observed at heads" check in MemStore.ObservedAt to stop at the first
// graph that removed the quad).
func (idx *PastIndex) WalkToFrontier(heads []string, visit func(name string) (keepGoing bool)) {
	visited := map[string]bool{}
	queue := append([]string(nil), heads...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if !visit(cur) {
			continue
		}
		node, ok := idx.nodes[cur]
		if !ok {
			continue
		}
		queue = append(queue, node.past...)
	}
}
