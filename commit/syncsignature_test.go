package commit

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/nextgraph-org/ng-core/block"
	"github.com/nextgraph-org/ng-core/ng"
	"github.com/stretchr/testify/require"
)

// chainFixture builds root -> mid -> tip, each with exactly one dep on the
// previous commit, the linear shape WalkSyncSignatureChain expects between a
// SyncSignature's ack and dep.
type chainFixture struct {
	sk             ed25519.PrivateKey
	authorPK       ng.PubKey
	store          block.Storage
	overlay        ng.OverlayID
	secret         ng.SymKey
	storePub       ng.PubKey
	branch         ng.BranchID
	root, mid, tip *Commit
}

func newChainFixture(t *testing.T) *chainFixture {
	t.Helper()
	pub, sk, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	var authorPK ng.PubKey
	copy(authorPK[:], pub)

	secret, storePub := testKeys(t)
	store := block.NewMemStorage(16)
	ctx := context.Background()
	var overlay ng.OverlayID
	var branch ng.BranchID

	bodyRef := saveBody(t, store, overlay, secret, storePub, Repository{})
	root, err := New(sk, authorPK, 1, branch, QuorumNone, nil, nil, nil, nil, nil, nil, nil, bodyRef)
	require.NoError(t, err)
	_, err = root.Save(ctx, sk, store, overlay, 4096, secret, storePub)
	require.NoError(t, err)

	midBody := saveBody(t, store, overlay, secret, storePub, Repository{})
	mid, err := New(sk, authorPK, 2, branch, QuorumNone,
		[]ng.ObjectRef{{ID: root.ID, Key: root.Key}}, nil, nil, nil, nil, nil, nil, midBody)
	require.NoError(t, err)
	_, err = mid.Save(ctx, sk, store, overlay, 4096, secret, storePub)
	require.NoError(t, err)

	tipBody := saveBody(t, store, overlay, secret, storePub, Repository{})
	tip, err := New(sk, authorPK, 3, branch, QuorumNone,
		[]ng.ObjectRef{{ID: mid.ID, Key: mid.Key}}, nil, nil, nil, nil, nil, nil, tipBody)
	require.NoError(t, err)
	_, err = tip.Save(ctx, sk, store, overlay, 4096, secret, storePub)
	require.NoError(t, err)

	return &chainFixture{
		sk: sk, authorPK: authorPK, store: store, overlay: overlay,
		secret: secret, storePub: storePub, branch: branch,
		root: root, mid: mid, tip: tip,
	}
}

func (f *chainFixture) loader(ctx context.Context, ref HeaderRef) (*Commit, error) {
	return Load(ctx, ng.ObjectRef{ID: ng.Digest(ref.ID), Key: ng.SymKey(ref.Key)}, f.store, f.overlay)
}

// syncSigOver builds a SyncSignature-shaped commit: a single dep on dep and
// a single ack on ack, matching what WalkSyncSignatureChain requires.
func (f *chainFixture) syncSigOver(t *testing.T, dep, ack *Commit) *Commit {
	t.Helper()
	body := saveBody(t, f.store, f.overlay, f.secret, f.storePub, Repository{})
	sig, err := New(f.sk, f.authorPK, 99, f.branch, QuorumNone,
		[]ng.ObjectRef{{ID: dep.ID, Key: dep.Key}}, nil,
		[]ng.ObjectRef{{ID: ack.ID, Key: ack.Key}}, nil, nil, nil, nil, body)
	require.NoError(t, err)
	_, err = sig.Save(context.Background(), f.sk, f.store, f.overlay, 4096, f.secret, f.storePub)
	require.NoError(t, err)
	return sig
}

func TestWalkSyncSignatureChainWalksLinearDeps(t *testing.T) {
	f := newChainFixture(t)
	sig := f.syncSigOver(t, f.tip, f.root)

	chain, err := WalkSyncSignatureChain(context.Background(), sig, f.loader)
	require.NoError(t, err)

	ids := make([]ng.Digest, len(chain))
	for i, c := range chain {
		ids[i] = c.ID
	}
	require.Equal(t, []ng.Digest{f.tip.ID, f.mid.ID, f.root.ID}, ids)
}

func TestWalkSyncSignatureChainSingleHop(t *testing.T) {
	f := newChainFixture(t)
	sig := f.syncSigOver(t, f.mid, f.root)

	chain, err := WalkSyncSignatureChain(context.Background(), sig, f.loader)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.Equal(t, f.mid.ID, chain[0].ID)
	require.Equal(t, f.root.ID, chain[1].ID)
}

func TestWalkSyncSignatureChainRejectsWrongDepCount(t *testing.T) {
	f := newChainFixture(t)
	body := saveBody(t, f.store, f.overlay, f.secret, f.storePub, Repository{})
	sig, err := New(f.sk, f.authorPK, 99, f.branch, QuorumNone,
		[]ng.ObjectRef{{ID: f.tip.ID, Key: f.tip.Key}, {ID: f.mid.ID, Key: f.mid.Key}}, nil,
		[]ng.ObjectRef{{ID: f.root.ID, Key: f.root.Key}}, nil, nil, nil, nil, body)
	require.NoError(t, err)

	_, err = WalkSyncSignatureChain(context.Background(), sig, f.loader)
	require.ErrorIs(t, err, ErrMalformedSyncSigDeps)
}

func TestWalkSyncSignatureChainRejectsBranchingIntermediary(t *testing.T) {
	f := newChainFixture(t)

	// mid2 has two deps, breaking the "exactly one dep" rule for an
	// intermediate commit in the chain.
	mid2Body := saveBody(t, f.store, f.overlay, f.secret, f.storePub, Repository{})
	mid2, err := New(f.sk, f.authorPK, 4, f.branch, QuorumNone,
		[]ng.ObjectRef{{ID: f.root.ID, Key: f.root.Key}, {ID: f.mid.ID, Key: f.mid.Key}}, nil,
		nil, nil, nil, nil, nil, mid2Body)
	require.NoError(t, err)
	_, err = mid2.Save(context.Background(), f.sk, f.store, f.overlay, 4096, f.secret, f.storePub)
	require.NoError(t, err)

	sig := f.syncSigOver(t, mid2, f.root)
	_, err = WalkSyncSignatureChain(context.Background(), sig, f.loader)
	require.ErrorIs(t, err, ErrMalformedSyncSigDeps)
}
