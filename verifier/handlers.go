package verifier

import (
	"context"

	"github.com/nextgraph-org/ng-core/block"
	"github.com/nextgraph-org/ng-core/commit"
	"github.com/nextgraph-org/ng-core/graph"
	"github.com/nextgraph-org/ng-core/ng"
	"github.com/nextgraph-org/ng-core/nuri"
	"github.com/nextgraph-org/ng-core/repo"
)

// HandlerOutcome is what a CommitHandler hands back to VerifyCommit. A
// transaction carrying both a graph and a discrete delta sets both Graph
// and Discrete; a header-branch transaction sets TabInfo instead of Graph;
// Other is set only by handlers that emit no graph or discrete patch.
type HandlerOutcome struct {
	Graph    *graph.GraphPatch
	Discrete *graph.DiscretePatch
	Other    OtherPatch
	TabInfo  *graph.TabInfo
}

// CommitHandler is the Go rendering of spec §4.5's "handler trait
// CommitVerifier": one method per registered commit.Kind, dispatched from
// the map buildHandlers returns (spec §9 design note, strategy (a)).
type CommitHandler interface {
	Apply(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error)
}

type handlerFunc func(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error)

func (f handlerFunc) Apply(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	return f(ctx, v, c, branchID, repoID, store)
}

// buildHandlers wires every commit.Kind listed in spec §4.5/§9's tagged
// union to a handler, so an unrecognized future Kind fails dispatch in
// VerifyCommit with ErrUnhandledKind rather than being silently ignored.
func buildHandlers() map[commit.Kind]CommitHandler {
	noop := handlerFunc(func(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
		return nil, nil
	})

	return map[commit.Kind]CommitHandler{
		commit.KindRepository:       handlerFunc(applyRepository),
		commit.KindRootBranch:       handlerFunc(applyRootBranch),
		commit.KindUpdateRootBranch: handlerFunc(applyRootBranch),
		commit.KindBranch:           handlerFunc(applyBranch),
		commit.KindUpdateBranch:     handlerFunc(applyBranch),
		commit.KindAddBranch:        handlerFunc(applyAddBranch),
		commit.KindRemoveBranch:     handlerFunc(applyRemoveBranch),
		commit.KindAddMember:        handlerFunc(applyAddMember),
		commit.KindRemoveMember:     handlerFunc(applyRemoveMember),
		commit.KindAddPermission:    handlerFunc(applyAddPermission),
		commit.KindRemovePermission: handlerFunc(applyRemovePermission),
		commit.KindAddSignerCap:     handlerFunc(applyAddSignerCap),
		commit.KindRemoveSignerCap:  handlerFunc(applyRemoveSignerCap),
		commit.KindAddInboxCap:      handlerFunc(applyAddInboxCap),
		commit.KindAddRepo:          noop,
		commit.KindRemoveRepo:       noop,
		commit.KindAddName:          noop,
		commit.KindRemoveName:       noop,
		commit.KindAddFile:          handlerFunc(applyAddFile),
		commit.KindRemoveFile:       noop,
		commit.KindSnapshot:         handlerFunc(applySnapshot),
		commit.KindCompact:          noop,
		commit.KindAsyncTransaction: handlerFunc(applyTransaction),
		commit.KindSyncTransaction:  handlerFunc(applyTransaction),
		commit.KindAsyncSignature:   handlerFunc(applyAsyncSignature),
		commit.KindSyncSignature:    handlerFunc(applySyncSignature),
		commit.KindStoreUpdate:      noop,
		commit.KindRootCapRefresh:   noop,
		commit.KindBranchCapRefresh: noop,
	}
}

// applyRepository is a no-op: the Repository commit exists only so its id
// can be referenced as the repo anchor (spec §4.5 "Repository: no state
// change"). The Repo record itself is created by the RootBranch handler.
func applyRepository(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	return nil, nil
}

func applyRootBranch(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	body, err := c.Body(ctx, store, v.overlayFor(repoID))
	if err != nil {
		return nil, err
	}
	rb, ok := body.(*commit.RootBranch)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}

	r, ok := v.Repos[repoID]
	if !ok {
		overlay := ng.OverlayID(repoID)
		r = repo.New(repoID, repo.Def{ID: repoID}, repo.Overlay{Outer: overlay}, store)
		v.Repos[repoID] = r
	}

	topic := ng.TopicID(branchID)
	root := &repo.BranchInfo{
		ID:           branchID,
		Type:         repo.BranchRoot,
		CRDT:         repo.CRDTNone,
		Topic:        &topic,
		CurrentHeads: []ng.ObjectRef{{ID: c.ID, Key: c.Key}},
	}
	if err := r.AddBranch(root); err == nil {
		v.topicToBranch[topic] = branchRef{RepoID: repoID, BranchID: branchID}
	}

	r.AddMember(authorDigest(c.Content.Author), c.Content.Author, commit.PermOwner)

	if rb.CertificateRef != nil {
		r.CertificateRef = rb.CertificateRef
	}
	return nil, nil
}

func applyBranch(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	br, ok := body.(*commit.Branch)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}

	commitRef := ng.ObjectRef{ID: c.ID, Key: c.Key}
	existing, err := r.Branch(branchID)
	if err == nil && existing.ReadCap != nil && existing.ReadCap.ID != commitRef.ID {
		return nil, ErrBranchReadCapMismatch
	}

	topic := ng.TopicID(branchID)
	info := &repo.BranchInfo{
		ID:           branchID,
		Type:         repo.BranchMain,
		CRDT:         repo.CRDTNone,
		Topic:        &topic,
		ReadCap:      &br.ReadCap,
		CurrentHeads: []ng.ObjectRef{commitRef},
	}
	r.Branches[branchID] = info
	v.topicToBranch[topic] = branchRef{RepoID: repoID, BranchID: branchID}
	return nil, nil
}

func applyAddBranch(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	ab, ok := body.(*commit.AddBranch)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	if repo.BranchType(ab.BranchType) == repo.BranchRoot {
		return nil, ErrBranchTypeMustNotBeRoot
	}

	info := &repo.BranchInfo{
		ID:           ab.BranchID,
		Type:         repo.BranchType(ab.BranchType),
		CRDT:         repo.CRDTType(ab.CRDT),
		Topic:        &ab.Topic,
		ReadCap:      &ab.BranchReadCap,
		ForkOf:       ab.ForkOf,
		MergedIn:     ab.MergedIn,
		CurrentHeads: nil,
	}
	if err := r.AddBranch(info); err != nil {
		return nil, err
	}
	v.topicToBranch[ab.Topic] = branchRef{RepoID: repoID, BranchID: ab.BranchID}
	return nil, nil
}

func applyRemoveBranch(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	rb, ok := body.(*commit.RemoveBranch)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	r.RemoveBranch(rb.BranchID)
	return nil, nil
}

func applyAddMember(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	am, ok := body.(*commit.AddMember)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	var userID ng.PubKey
	if existing, ok := r.Members[am.Member]; ok {
		userID = existing.UserID
	}
	r.AddMember(am.Member, userID, am.Permissions)
	return nil, nil
}

func applyRemoveMember(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	rm, ok := body.(*commit.RemoveMember)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	r.RemoveMember(rm.Member)
	return nil, nil
}

func applyAddPermission(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	ap, ok := body.(*commit.AddPermission)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	m, ok := r.Members[ap.Member]
	if !ok {
		r.AddMember(ap.Member, ng.PubKey{}, ap.Permission)
		return nil, nil
	}
	r.AddMember(ap.Member, m.UserID, m.Permissions|ap.Permission)
	return nil, nil
}

func applyRemovePermission(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	rp, ok := body.(*commit.RemovePermission)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	m, ok := r.Members[rp.Member]
	if !ok {
		return nil, nil
	}
	r.AddMember(rp.Member, m.UserID, m.Permissions&^rp.Permission)
	return nil, nil
}

func applyAddSignerCap(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	asc, ok := body.(*commit.AddSignerCap)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	r.SignerCap = asc.SignerCap
	return nil, nil
}

func applyRemoveSignerCap(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	r.SignerCap = nil
	return nil, nil
}

func applyAddInboxCap(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	aic, ok := body.(*commit.AddInboxCap)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	if len(aic.InboxCap) == len(ng.PrivKey{}) {
		var key ng.PrivKey
		copy(key[:], aic.InboxCap)
		r.InboxCap = &key
	}
	return nil, nil
}

func applyAddFile(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	af, ok := body.(*commit.AddFile)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	return &HandlerOutcome{Other: FileAddPatch{Name: af.Name, Ref: af.Ref}}, nil
}

func applySnapshot(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	sn, ok := body.(*commit.Snapshot)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	return &HandlerOutcome{Other: SnapshotPatch{SnapshotRef: sn.SnapshotRef}}, nil
}

func applyAsyncSignature(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	as, ok := body.(*commit.AsyncSignature)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	signedCommitIDs := make([]ng.Digest, 0, len(c.DirectCausalPast()))
	for _, ref := range c.DirectCausalPast() {
		signedCommitIDs = append(signedCommitIDs, ref.ID)
	}
	branchNuri := nuri.BranchName(branchID, r.Overlay.Outer)
	r.CertificateRef = &as.SignatureRef
	return &HandlerOutcome{Other: AsyncSignaturePatch{Nuri: branchNuri, SignedCommitIDs: signedCommitIDs}}, nil
}

func applySyncSignature(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}
	ss, ok := body.(*commit.SyncSignature)
	if !ok {
		return nil, commit.ErrNotACommitBody
	}
	if len(c.Header.Deps) != 1 || len(c.Header.Acks) != 1 {
		return nil, commit.ErrMalformedSyncSigDeps
	}
	loader := func(ctx context.Context, ref commit.HeaderRef) (*commit.Commit, error) {
		return commit.Load(ctx, ng.ObjectRef{ID: ref.ID, Key: ref.Key}, store, r.Overlay.Outer)
	}
	if _, err := commit.WalkSyncSignatureChain(ctx, c, loader); err != nil {
		return nil, err
	}
	r.CertificateRef = &ss.SignatureRef
	return nil, nil
}

func applyTransaction(ctx context.Context, v *Verifier, c *commit.Commit, branchID ng.BranchID, repoID ng.RepoID, store block.Storage) (*HandlerOutcome, error) {
	r, ok := v.Repos[repoID]
	if !ok {
		return nil, ErrRepoNotFound
	}
	body, err := c.Body(ctx, store, r.Overlay.Outer)
	if err != nil {
		return nil, err
	}

	var raw []byte
	switch t := body.(type) {
	case *commit.AsyncTransaction:
		raw = t.Body
	case *commit.SyncTransaction:
		raw = t.Body
	default:
		return nil, commit.ErrNotACommitBody
	}
	txn, err := graph.DecodeTransactionBody(raw)
	if err != nil {
		return nil, err
	}

	branch, err := r.Branch(branchID)
	if err != nil {
		return nil, err
	}

	outcome := &HandlerOutcome{}
	if txn.Graph != nil {
		past := make([]ng.Digest, 0, len(c.DirectCausalPast()))
		for _, ref := range c.DirectCausalPast() {
			past = append(past, ref.ID)
		}
		bc := graph.BranchContext{
			CommitID:         c.ID,
			Overlay:          r.Overlay.Outer,
			RepoID:           repoID,
			BranchID:         branchID,
			Topic:            topicOf(branch, branchID),
			IsMain:           branch.Type == repo.BranchMain,
			IsHeader:         branch.Type.IsHeader(),
			DirectCausalPast: past,
			Heads:            branch.HeadIDs(),
		}
		gp, tabInfo, err := graph.UpdateGraph(ctx, v.Graph, bc, *txn.Graph)
		if err != nil {
			return nil, err
		}
		outcome.Graph = gp
		outcome.TabInfo = tabInfo
	}
	if txn.Discrete != nil {
		combiner := v.Combiners[branch.CRDT]
		if combiner == nil {
			combiner = graph.OpaqueCombiner{}
		}
		newState, err := combiner.Apply(v.Discrete[branchID], txn.Discrete.Update)
		if err != nil {
			return nil, err
		}
		v.Discrete[branchID] = newState
		outcome.Discrete = &graph.DiscretePatch{Update: txn.Discrete.Update}
	}
	return outcome, nil
}

func topicOf(b *repo.BranchInfo, branchID ng.BranchID) ng.TopicID {
	if b.Topic != nil {
		return *b.Topic
	}
	return ng.TopicID(branchID)
}
