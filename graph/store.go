package graph

import (
	"context"

	"github.com/nextgraph-org/ng-core/ng"
)

// Tx is the read-through transaction handed to the closure passed to
// Store.Transaction (spec §4.6 "ng_transaction"): insert/remove quads,
// maintain heads/past bookkeeping, and record named commits/branches and
// store membership.
type Tx interface {
	// Insert adds q, scoped to graph, tagged with flag. If alsoIndexTopic is
	// non-nil, the insertion is additionally indexed under that topic (spec:
	// "insert(quad, flag, also_index_topic)").
	Insert(graph string, q Quad, flag Flag, alsoIndexTopic *ng.TopicID) error

	// Remove deletes q from graph outright (spec: "remove(quad)").
	Remove(graph string, q Quad) error

	// NGRemove marks q as removed within graph, attributing the removal to
	// commitID rather than deleting the record outright, so later "observed
	// at past" queries can still see that it was removed at this point
	// (spec: "ng_remove(encoded_quad, commit_id)").
	NGRemove(graph string, q Quad, commitID ng.Digest) error

	// InsertEncoded is Insert for an already-tokenized quad (spec:
	// "insert_encoded(encoded_quad, flag, also_index_topic)").
	InsertEncoded(graph string, q Quad, flag Flag, alsoIndexTopic *ng.TopicID) error

	// UpdateBranchAndToken records the (overlay, branch, topic, token)
	// association used to tag graph nodes without leaking the read
	// capability (spec GLOSSARY "Token").
	UpdateBranchAndToken(overlay ng.OverlayID, branch ng.BranchID, topic ng.TopicID, token ng.Digest) error

	// UpdateHeads records commit as a new head reached via topic/overlay,
	// given its direct causal past.
	UpdateHeads(topic ng.TopicID, overlay ng.OverlayID, commit ng.Digest, past []ng.Digest) error

	// UpdatePast records commit's direct causal-past edges in the
	// PastIndex. skip suppresses the edge recording (used when the commit
	// is the branch's root and has no past to record).
	UpdatePast(commit ng.Digest, past []ng.Digest, skip bool) error

	// NamedCommitOrBranch records a human-readable name bound to a
	// commit/branch graph name within the scope of ovGraph.
	NamedCommitOrBranch(ovGraph, name, value string) error

	// DocInStore records (or, if remove is true, clears) that a document
	// (identified by ovGraph) belongs to the store identified by
	// overlayStrHash.
	DocInStore(ovGraph, overlayStrHash string, remove bool) error
}

// Store is the narrow "ng-extended" transactional triple-store interface
// this module consumes (spec §4.6 "Graph store abstraction").
type Store interface {
	// Transaction runs fn inside one atomic update; an error returned by fn
	// aborts the whole transaction (spec §7 "Graph-store errors inside
	// ng_transaction abort the transaction; state is unchanged").
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Update parses and evaluates sparqlUpdate against the scoping
	// resolveTarget provides, returning the concrete insert/remove quad
	// sets to apply via the commit pipeline - SPARQL updates never write
	// directly (spec §4.6 "ng_update").
	Update(ctx context.Context, sparqlUpdate string, resolveTarget func(pattern string) (graphName string, err error)) (inserts, removes []Quad, err error)

	// ObservedAt reports whether q is still observed looking backward from
	// heads, having been added in addedGraph (spec §4.6 "quads_for_subject_
	// predicate_object_heads"): true unless a removal for q was recorded in
	// some graph on the path from heads back to addedGraph.
	ObservedAt(q Quad, addedGraph string, heads []string) bool

	// AddedGraphs returns every graph name in which the bare triple (s,p,o)
	// is currently recorded as added (regardless of whether it was later
	// removed somewhere - callers combine this with ObservedAt).
	AddedGraphs(s, p, o string) []string

	// RepoQuads returns the repo-level materialized "current" view
	// (spec §4.6 "REPO_IN_MAIN").
	RepoQuads(repoGraph string) []Quad

	// HasRepoQuad reports whether (s,p,o) is present in the repo-level
	// materialized view.
	HasRepoQuad(repoGraph, s, p, o string) bool
}
