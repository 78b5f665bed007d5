package verifier

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/nextgraph-org/ng-core/block"
	"github.com/nextgraph-org/ng-core/commit"
	"github.com/nextgraph-org/ng-core/graph"
	"github.com/nextgraph-org/ng-core/ng"
	"github.com/nextgraph-org/ng-core/object"
	"github.com/nextgraph-org/ng-core/repo"
	"github.com/stretchr/testify/require"
)

const testBlockSize = 4096

type fixture struct {
	t           *testing.T
	store       block.Storage
	overlay     ng.OverlayID
	authorSK    ed25519.PrivateKey
	authorPK    ng.PubKey
	storeSecret ng.SymKey
	storePub    ng.PubKey
	seq         map[ng.BranchID]uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pub, sk, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	var authorPK ng.PubKey
	copy(authorPK[:], pub)

	var storeSecret ng.SymKey
	_, err = rand.Read(storeSecret[:])
	require.NoError(t, err)
	var storePub ng.PubKey
	_, err = rand.Read(storePub[:])
	require.NoError(t, err)

	return &fixture{
		t:           t,
		store:       block.NewMemStorage(64),
		authorSK:    sk,
		authorPK:    authorPK,
		storeSecret: storeSecret,
		storePub:    storePub,
		seq:         make(map[ng.BranchID]uint64),
	}
}

func randBranchID(t *testing.T) ng.BranchID {
	t.Helper()
	var id ng.BranchID
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	return id
}

// commitOn signs and saves body as the next commit on branch, chaining it
// after prior as its sole dependency (prior == nil for a branch's first
// commit).
func (f *fixture) commitOn(branch ng.BranchID, body commit.Body, prior *commit.Commit) *commit.Commit {
	f.t.Helper()
	ctx := context.Background()

	bodyBytes, err := commit.EncodeBody(body)
	require.NoError(f.t, err)
	bodyObj, err := object.New(bodyBytes, nil, testBlockSize, f.storeSecret, f.storePub)
	require.NoError(f.t, err)
	bodyRef, err := bodyObj.Save(ctx, f.store, f.overlay)
	require.NoError(f.t, err)

	var deps []ng.ObjectRef
	if prior != nil {
		deps = []ng.ObjectRef{{ID: prior.ID, Key: prior.Key}}
	}

	f.seq[branch]++
	c, err := commit.New(f.authorSK, f.authorPK, f.seq[branch], branch, commit.QuorumNone,
		deps, nil, nil, nil, nil, nil, nil, bodyRef)
	require.NoError(f.t, err)
	_, err = c.Save(ctx, f.authorSK, f.store, f.overlay, testBlockSize, f.storeSecret, f.storePub)
	require.NoError(f.t, err)
	return c
}

func TestVerifyCommitRepositoryThenRootBranchEstablishesOwner(t *testing.T) {
	f := newFixture(t)
	v := New()

	rootBranchID := randBranchID(t)
	repoID := ng.RepoID(rootBranchID)
	ctx := context.Background()

	c1 := f.commitOn(rootBranchID, commit.Repository{}, nil)
	_, err := v.VerifyCommit(ctx, c1, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	c2 := f.commitOn(rootBranchID, &commit.RootBranch{}, nil)
	_, err = v.VerifyCommit(ctx, c2, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	r, ok := v.Repos[repoID]
	require.True(t, ok)
	root, err := r.RootBranch()
	require.NoError(t, err)
	require.Equal(t, rootBranchID, root.ID)

	member, ok := r.Members[authorDigest(f.authorPK)]
	require.True(t, ok)
	require.True(t, member.Permissions.Subsumes(commit.PermOwner))
}

func TestVerifyCommitAsyncTransactionEmitsGraphPatchToSubscriber(t *testing.T) {
	f := newFixture(t)
	v := New()
	ctx := context.Background()

	rootBranchID := randBranchID(t)
	repoID := ng.RepoID(rootBranchID)

	c1 := f.commitOn(rootBranchID, commit.Repository{}, nil)
	_, err := v.VerifyCommit(ctx, c1, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	c2 := f.commitOn(rootBranchID, &commit.RootBranch{}, nil)
	_, err = v.VerifyCommit(ctx, c2, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	mainBranchID := randBranchID(t)
	topic := ng.TopicID(mainBranchID)
	c3 := f.commitOn(rootBranchID, &commit.AddBranch{
		BranchID:   mainBranchID,
		BranchType: uint8(repo.BranchMain),
		Topic:      topic,
		CRDT:       uint8(repo.CRDTGraph),
	}, c2)
	_, err = v.VerifyCommit(ctx, c3, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	responses := v.Subscribe(subCtx, mainBranchID, 4)

	txnBody, err := graph.EncodeTransactionBody(graph.TransactionBody{
		Graph: &graph.GraphTransaction{
			Inserts: []graph.TripleRef{
				{Subject: "did:ng:o:x:v:alice", Predicate: "sh:name", Object: `"Alice"`},
			},
		},
	})
	require.NoError(t, err)

	c4 := f.commitOn(mainBranchID, &commit.AsyncTransaction{Body: txnBody}, nil)
	patch, err := v.VerifyCommit(ctx, c4, mainBranchID, repoID, f.store)
	require.NoError(t, err)
	require.NotNil(t, patch.Graph)
	require.Len(t, patch.Graph.Inserts, 1)

	select {
	case resp := <-responses:
		p, ok := resp.(Patch)
		require.True(t, ok)
		require.NotNil(t, p.Graph)
		require.Equal(t, "did:ng:o:x:v:alice", p.Graph.Inserts[0].Subject)
	default:
		t.Fatal("expected a patch to be delivered to the subscriber")
	}

	r := v.Repos[repoID]
	main, err := r.MainBranch()
	require.NoError(t, err)
	require.Equal(t, uint64(1), main.CommitsNbr)
}

func TestVerifyCommitRejectsUnauthorizedAuthor(t *testing.T) {
	f := newFixture(t)
	v := New()
	ctx := context.Background()

	rootBranchID := randBranchID(t)
	repoID := ng.RepoID(rootBranchID)

	c1 := f.commitOn(rootBranchID, commit.Repository{}, nil)
	_, err := v.VerifyCommit(ctx, c1, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	c2 := f.commitOn(rootBranchID, &commit.RootBranch{}, nil)
	_, err = v.VerifyCommit(ctx, c2, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	other := newFixture(t)
	other.store = f.store
	other.storeSecret = f.storeSecret
	other.storePub = f.storePub

	c3 := other.commitOn(rootBranchID, &commit.AddMember{
		Member:      authorDigest(other.authorPK),
		Permissions: commit.PermCreate,
	}, c2)
	_, err = v.VerifyCommit(ctx, c3, rootBranchID, repoID, f.store)
	require.ErrorIs(t, err, ErrAuthorNotMember)
}

func TestVerifyCommitAddFileEmitsFilePatch(t *testing.T) {
	f := newFixture(t)
	v := New()
	ctx := context.Background()

	rootBranchID := randBranchID(t)
	repoID := ng.RepoID(rootBranchID)

	c1 := f.commitOn(rootBranchID, commit.Repository{}, nil)
	_, err := v.VerifyCommit(ctx, c1, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	c2 := f.commitOn(rootBranchID, &commit.RootBranch{}, nil)
	_, err = v.VerifyCommit(ctx, c2, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	// Every uploaded file gets a fresh name so two concurrent uploads never
	// collide, mirroring how the app layer names a FileAddPatch's entry.
	fileName := uuid.New().String()
	fileRef := ng.ObjectRef{ID: c2.ID, Key: c2.Key}
	c3 := f.commitOn(rootBranchID, &commit.AddFile{Name: fileName, Ref: fileRef}, c2)
	patch, err := v.VerifyCommit(ctx, c3, rootBranchID, repoID, f.store)
	require.NoError(t, err)

	other, ok := patch.Other.(FileAddPatch)
	require.True(t, ok)
	require.Equal(t, fileName, other.Name)
	require.Equal(t, fileRef, other.Ref)
}
