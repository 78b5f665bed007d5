package graph

import (
	"context"
	"sync"

	"github.com/nextgraph-org/ng-core/internal/logging"
	"github.com/nextgraph-org/ng-core/ng"
)

// MemStore is the reference Store implementation: an in-memory quad index
// keyed by named graph, matching spec §6's "the graph store persists
// quads with a per-quad flag byte... plus auxiliary indexes for heads,
// past, tokens, and named commits/branches". One MemStore is owned by
// exactly one verifier instance (spec §5 "Graph dataset: owned by a
// single verifier").
type MemStore struct {
	mu sync.Mutex

	graphs map[string]map[Quad]Flag
	// addedAt indexes the bare (s,p,o) triple to every graph it is
	// currently recorded as added in, across all named graphs.
	addedAt map[Quad]map[string]bool

	past *PastIndex

	branchTokens map[ng.BranchID]branchToken
	heads        map[ng.TopicID][]ng.Digest
	named        map[string]string
	docInStore   map[string]string

	log logging.Logger
}

type branchToken struct {
	Overlay ng.OverlayID
	Topic   ng.TopicID
	Token   ng.Digest
}

var _ Store = (*MemStore)(nil)

// NewMemStore builds an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		graphs:       make(map[string]map[Quad]Flag),
		addedAt:      make(map[Quad]map[string]bool),
		past:         NewPastIndex(),
		branchTokens: make(map[ng.BranchID]branchToken),
		heads:        make(map[ng.TopicID][]ng.Digest),
		named:        make(map[string]string),
		docInStore:   make(map[string]string),
		log:          logging.Component("graph.MemStore"),
	}
}

// Transaction does not itself take MemStore's mutex: a MemStore is owned by
// exactly one verifier, whose cooperative single-task ingest loop is the
// only caller (spec §5 "Graph dataset: owned by a single verifier... no
// internal locking"). The mutex below exists only to let the read-side
// Store methods (ObservedAt, AddedGraphs, ...) be called safely from
// outside that single-writer loop (e.g. a read-only HTTP handler in an
// embedding application); a transaction's own closure must remain free to
// call them too, which a held lock would deadlock against.
//
// MemStore does not roll back: each Tx call takes effect on the store as
// it is made, and when fn returns an error the changes already made stay
// in place.
func (s *MemStore) Transaction(ctx context.Context, fn func(context.Context, Tx) error) error {
	tx := &memTx{store: s}
	return fn(ctx, tx)
}

// memTx is the Tx passed to a Transaction closure; it mutates the MemStore
// directly, taking the mutex per field access the same way the read-side
// methods do.
type memTx struct{ store *MemStore }

func (t *memTx) graphSet(graph string) map[Quad]Flag {
	g, ok := t.store.graphs[graph]
	if !ok {
		g = make(map[Quad]Flag)
		t.store.graphs[graph] = g
	}
	return g
}

func (t *memTx) Insert(graph string, q Quad, flag Flag, alsoIndexTopic *ng.TopicID) error {
	return t.InsertEncoded(graph, q, flag, alsoIndexTopic)
}

// InsertEncoded stores q with flag. MemStore keeps no per-topic index, so
// alsoIndexTopic is accepted and ignored.
func (t *memTx) InsertEncoded(graph string, q Quad, flag Flag, alsoIndexTopic *ng.TopicID) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	q.Graph = graph
	t.graphSet(graph)[q] = t.graphSet(graph)[q] | flag
	if flag&(AddedInMain|AddedInOther) != 0 {
		bare := q.bare()
		if t.store.addedAt[bare] == nil {
			t.store.addedAt[bare] = make(map[string]bool)
		}
		t.store.addedAt[bare][graph] = true
		t.store.log.Debugf("quad added graph=%s subject=%s predicate=%s", graph, q.Subject, q.Predicate)
	}
	return nil
}

func (t *memTx) Remove(graph string, q Quad) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	q.Graph = graph
	delete(t.graphSet(graph), q)
	if bare := q.bare(); t.store.addedAt[bare] != nil {
		delete(t.store.addedAt[bare], graph)
	}
	return nil
}

func (t *memTx) NGRemove(graph string, q Quad, commitID ng.Digest) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	q.Graph = graph
	existing := t.graphSet(graph)[q]
	// The removal flag records *where* the removal was observed; the
	// insertion-side flag tells us whether this was a main or other
	// branch, which the caller already set when it first inserted q.
	if existing&AddedInMain != 0 {
		t.graphSet(graph)[q] = existing | RemovedInMain
	} else {
		t.graphSet(graph)[q] = existing | RemovedInOther
	}
	return nil
}

func (t *memTx) UpdateBranchAndToken(overlay ng.OverlayID, branch ng.BranchID, topic ng.TopicID, token ng.Digest) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.branchTokens[branch] = branchToken{Overlay: overlay, Topic: topic, Token: token}
	return nil
}

func (t *memTx) UpdateHeads(topic ng.TopicID, overlay ng.OverlayID, commit ng.Digest, past []ng.Digest) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	heads := t.store.heads[topic]
	pastSet := make(map[ng.Digest]bool, len(past))
	for _, p := range past {
		pastSet[p] = true
	}
	kept := heads[:0]
	for _, h := range heads {
		if !pastSet[h] {
			kept = append(kept, h)
		}
	}
	t.store.heads[topic] = append(kept, commit)
	return nil
}

func (t *memTx) UpdatePast(commit ng.Digest, past []ng.Digest, skip bool) error {
	if skip {
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	pastNames := make([]string, len(past))
	for i, p := range past {
		pastNames[i] = p.String()
	}
	return t.store.past.Record(commit.String(), pastNames)
}

func (t *memTx) NamedCommitOrBranch(ovGraph, name, value string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.named[ovGraph+"|"+name] = value
	return nil
}

func (t *memTx) DocInStore(ovGraph, overlayStrHash string, remove bool) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if remove {
		delete(t.store.docInStore, ovGraph)
		return nil
	}
	t.store.docInStore[ovGraph] = overlayStrHash
	return nil
}

func (s *MemStore) Update(ctx context.Context, sparqlUpdate string, resolveTarget func(string) (string, error)) ([]Quad, []Quad, error) {
	inserted, deleted, err := EvalUpdate(sparqlUpdate, resolveTarget)
	if err != nil {
		s.log.Debugf("sparql update rejected: %v", err)
		return nil, nil, err
	}
	s.log.Debugf("sparql update evaluated inserted=%d deleted=%d", len(inserted), len(deleted))
	return inserted, deleted, nil
}

func (s *MemStore) ObservedAt(q Quad, addedGraph string, heads []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	observed := false
	s.past.WalkToFrontier(heads, func(name string) bool {
		if name == addedGraph {
			observed = true
			return false
		}
		probe := q.bare()
		probe.Graph = name
		if flag, ok := s.graphs[name][probe]; ok && flag&(RemovedInMain|RemovedInOther) != 0 {
			return false
		}
		return true
	})
	return observed
}

func (s *MemStore) AddedGraphs(subject, predicate, object string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	bare := Quad{Subject: subject, Predicate: predicate, Object: object}
	var out []string
	for g := range s.addedAt[bare] {
		out = append(out, g)
	}
	return out
}

func (s *MemStore) RepoQuads(repoGraph string) []Quad {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Quad
	for q, flag := range s.graphs[repoGraph] {
		if flag&RepoInMain != 0 {
			out = append(out, q)
		}
	}
	return out
}

func (s *MemStore) HasRepoQuad(repoGraph, subject, predicate, object string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := Quad{Graph: repoGraph, Subject: subject, Predicate: predicate, Object: object}
	flag, ok := s.graphs[repoGraph][q]
	return ok && flag&RepoInMain != 0
}
