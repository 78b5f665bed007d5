// Package verifier implements the Verifier component (spec §4.5): the
// single-writer commit ingest loop that owns a process's repo table, the
// shared graph dataset, per-branch discrete state, and every subscriber
// fan-out table, dispatching each commit body kind to its own handler.
package verifier

import (
	"context"
	"errors"

	"github.com/nextgraph-org/ng-core/block"
	"github.com/nextgraph-org/ng-core/commit"
	"github.com/nextgraph-org/ng-core/graph"
	"github.com/nextgraph-org/ng-core/internal/logging"
	"github.com/nextgraph-org/ng-core/ng"
	"github.com/nextgraph-org/ng-core/repo"
	"lukechampine.com/blake3"
)

// Verifier owns every piece of state a single local-first peer's commit
// ingest loop touches (spec §4.5 "State"): cross-verifier isolation is by
// owning Repo ("different users => different verifier instances"), so a
// process running on behalf of several identities runs one Verifier per
// identity.
type Verifier struct {
	Repos map[ng.RepoID]*repo.Repo

	// topicToBranch indexes a pub/sub topic id to the (repo, branch) pair
	// that owns it, so an incoming commit on a topic can be routed without
	// a linear scan over every repo.
	topicToBranch map[ng.TopicID]branchRef

	// Graph is the single, unguarded quad dataset this verifier owns (spec
	// §5 "Graph dataset: owned by a single verifier").
	Graph *graph.MemStore

	// Discrete holds each transactional branch's opaque CRDT state blob,
	// keyed by branch id (spec §4.5 "per-branch discrete state blobs").
	Discrete map[ng.BranchID][]byte

	// Combiners maps a branch's CRDTType to the Combiner that merges its
	// discrete updates; CRDTNone branches default to OpaqueCombiner.
	Combiners map[repo.CRDTType]graph.Combiner

	handlers map[commit.Kind]CommitHandler
	outbox   *outbox

	log logging.Logger
}

type branchRef struct {
	RepoID   ng.RepoID
	BranchID ng.BranchID
}

// New builds an empty Verifier with every handler registered: the
// map[Kind]CommitHandler dispatch table is built once, here (spec §4.5
// "a handler trait CommitVerifier").
func New() *Verifier {
	v := &Verifier{
		Repos:         make(map[ng.RepoID]*repo.Repo),
		topicToBranch: make(map[ng.TopicID]branchRef),
		Graph:         graph.NewMemStore(),
		Discrete:      make(map[ng.BranchID][]byte),
		Combiners: map[repo.CRDTType]graph.Combiner{
			repo.CRDTNone:      graph.OpaqueCombiner{},
			repo.CRDTYMap:      graph.LWWCombiner{},
			repo.CRDTYArray:    graph.LWWCombiner{},
			repo.CRDTYText:     graph.LWWCombiner{},
			repo.CRDTYXml:      graph.LWWCombiner{},
			repo.CRDTAutomerge: graph.OpaqueCombiner{},
		},
		outbox: newOutbox(),
		log:    logging.Component("verifier.Verifier"),
	}
	v.handlers = buildHandlers()
	return v
}

// Subscribe opens an AppResponse stream for branchID; the subscription
// lives until ctx is cancelled (spec §4.7 "Graph subscription").
func (v *Verifier) Subscribe(ctx context.Context, branchID ng.BranchID, buffer int) <-chan AppResponse {
	return v.outbox.Subscribe(ctx, branchID, buffer)
}

// authorDigest derives the member-table key for a commit author's public
// key: a keyed hash, not the bare key, so the in-memory member table never
// has to carry the raw pubkey as its index (spec §4.4 "member_pubkey"
// resolves the reverse direction, digest -> pubkey, from this same table).
func authorDigest(pub ng.PubKey) ng.Digest {
	h := blake3.New(32, nil)
	h.Write(pub[:])
	var out ng.Digest
	copy(out[:], h.Sum(nil))
	return out
}

// VerifyCommit runs the full single-writer ingest pipeline for one commit
// (spec §4.5 "Ingest loop"): structural checks, permission check, handler
// dispatch, head-table update, and subscriber fan-out. branchID/repoID name
// the branch/repo the caller is applying commit to; for a Repository or
// RootBranch commit, repoID may not yet have a Repo record (Repository is a
// no-op and RootBranch is the handler that creates it).
func (v *Verifier) VerifyCommit(ctx context.Context, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*Patch, error) {
	if err := c.VerifySignature(); err != nil {
		return nil, err
	}

	body, err := c.Body(ctx, store, v.overlayFor(repoID))
	if err != nil {
		return nil, err
	}

	if err := v.verifyPermission(repoID, c.Content.Author, body); err != nil {
		return nil, err
	}

	handler, ok := v.handlers[body.Kind()]
	if !ok {
		return nil, ErrUnhandledKind
	}

	outcome, err := handler.Apply(ctx, v, c, branchID, repoID, store)
	if err != nil {
		v.log.Debugf("commit rejected id=%s kind=%d branch=%s: %v", c.ID, body.Kind(), branchID, err)
		return nil, err
	}
	v.log.Debugf("commit applied id=%s kind=%d branch=%s repo=%s", c.ID, body.Kind(), branchID, repoID)

	v.advanceHead(repoID, branchID, c)

	patch := &Patch{CommitID: c.ID}
	if outcome != nil {
		patch.Graph = outcome.Graph
		patch.Discrete = outcome.Discrete
		patch.Other = outcome.Other
		if outcome.TabInfo != nil {
			v.outbox.Publish(branchID, Header{
				Title:       outcome.TabInfo.Title,
				Description: outcome.TabInfo.Description,
			})
			return patch, nil
		}
	}
	v.outbox.Publish(branchID, *patch)
	return patch, nil
}

// verifyPermission checks the commit author against repoID's membership
// table, matching spec §4.5 step 2. A repo that does not exist yet is
// permitted through: the only commits that can legitimately target an
// unknown repo are Repository (a no-op) and RootBranch (which creates the
// Repo record and its author's Owner membership itself), and neither has
// anyone to check permission against until that record exists.
func (v *Verifier) verifyPermission(repoID ng.RepoID, author ng.PubKey, body commit.Body) error {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil
	}
	if err := r.VerifyPermission(authorDigest(author), body); err != nil {
		if errors.Is(err, repo.ErrMemberNotFound) {
			v.log.Debugf("commit rejected repo=%s kind=%d: author not a member", repoID, body.Kind())
			return ErrAuthorNotMember
		}
		v.log.Debugf("commit rejected repo=%s kind=%d: %v", repoID, body.Kind(), err)
		return err
	}
	return nil
}

// advanceHead folds commit c into branchID's current-heads table (spec
// §4.5 step 4, "update head tables"). A repo/branch that doesn't exist yet
// at this point (the Repository commit itself) has nothing to advance.
func (v *Verifier) advanceHead(repoID ng.RepoID, branchID ng.BranchID, c *commit.Commit) {
	r, ok := v.Repos[repoID]
	if !ok {
		return
	}
	past := make([]ng.Digest, 0, len(c.DirectCausalPast()))
	for _, ref := range c.DirectCausalPast() {
		past = append(past, ref.ID)
	}
	_, _ = r.UpdateBranchCurrentHeads(branchID, ng.ObjectRef{ID: c.ID, Key: c.Key}, past)
}

// overlayFor resolves the overlay a repo's objects live under. Before the
// repo's Repository/RootBranch commits have been ingested there is no Repo
// record yet to read an Overlay from; the repoID itself is used as a
// stand-in in that narrow window, which is safe because both commits are
// loaded from the same caller-supplied store regardless of overlay naming,
// and every subsequent commit resolves through the real r.Overlay.Outer.
func (v *Verifier) overlayFor(repoID ng.RepoID) ng.OverlayID {
	if r, ok := v.Repos[repoID]; ok {
		return r.Overlay.Outer
	}
	return ng.OverlayID(repoID)
}
