package repo

import (
	"crypto/rand"
	"testing"

	"github.com/nextgraph-org/ng-core/commit"
	"github.com/nextgraph-org/ng-core/ng"
	"github.com/stretchr/testify/require"
)

func randRepoID(t *testing.T) ng.RepoID {
	t.Helper()
	var id ng.RepoID
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	return id
}

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	id := randRepoID(t)
	return New(id, Def{ID: id}, Overlay{Outer: ng.OverlayID(id)}, nil)
}

func TestAddBranchRejectsSecondRootBranch(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.AddBranch(&BranchInfo{ID: randBranchID(t), Type: BranchRoot}))
	err := r.AddBranch(&BranchInfo{ID: randBranchID(t), Type: BranchRoot})
	require.ErrorIs(t, err, ErrDuplicateBranch)
}

func TestAddBranchAllowsManyTransactionalBranches(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.AddBranch(&BranchInfo{ID: randBranchID(t), Type: BranchTransactional}))
	require.NoError(t, r.AddBranch(&BranchInfo{ID: randBranchID(t), Type: BranchTransactional}))
}

func TestRemoveBranchClearsOpenedState(t *testing.T) {
	r := newTestRepo(t)
	id := randBranchID(t)
	require.NoError(t, r.AddBranch(&BranchInfo{ID: id, Type: BranchMain}))
	r.OpenedBranches[id] = true

	r.RemoveBranch(id)
	_, err := r.Branch(id)
	require.ErrorIs(t, err, ErrBranchNotFound)
	require.NotContains(t, r.OpenedBranches, id)
}

func TestTypedSingletonQueries(t *testing.T) {
	r := newTestRepo(t)
	rootID := randBranchID(t)
	require.NoError(t, r.AddBranch(&BranchInfo{ID: rootID, Type: BranchRoot}))

	_, err := r.MainBranch()
	require.ErrorIs(t, err, ErrBranchNotFound)

	root, err := r.RootBranch()
	require.NoError(t, err)
	require.Equal(t, rootID, root.ID)
}

func TestUpdateBranchCurrentHeadsOnUnknownBranch(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.UpdateBranchCurrentHeads(randBranchID(t), ng.ObjectRef{}, nil)
	require.ErrorIs(t, err, ErrBranchNotFound)
}

func TestVerifyPermissionUnknownMember(t *testing.T) {
	r := newTestRepo(t)
	var author ng.Digest
	_, err := rand.Read(author[:])
	require.NoError(t, err)

	err = r.VerifyPermission(author, commit.Repository{})
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestVerifyPermissionInsufficientPermission(t *testing.T) {
	r := newTestRepo(t)
	var author ng.Digest
	_, err := rand.Read(author[:])
	require.NoError(t, err)
	var userID ng.PubKey
	_, err = rand.Read(userID[:])
	require.NoError(t, err)

	r.AddMember(author, userID, commit.PermWriteAsync)
	err = r.VerifyPermission(author, commit.Repository{})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestVerifyPermissionOwnerSubsumesEverything(t *testing.T) {
	r := newTestRepo(t)
	var author ng.Digest
	_, err := rand.Read(author[:])
	require.NoError(t, err)
	var userID ng.PubKey
	_, err = rand.Read(userID[:])
	require.NoError(t, err)

	r.AddMember(author, userID, commit.PermOwner)
	require.NoError(t, r.VerifyPermission(author, commit.Repository{}))
	require.NoError(t, r.VerifyPermission(author, &commit.RootBranch{}))
}

func TestMemberPubkeyAndRemoveMember(t *testing.T) {
	r := newTestRepo(t)
	var author ng.Digest
	_, err := rand.Read(author[:])
	require.NoError(t, err)
	var userID ng.PubKey
	_, err = rand.Read(userID[:])
	require.NoError(t, err)

	r.AddMember(author, userID, commit.PermCreate)
	got, err := r.MemberPubkey(author)
	require.NoError(t, err)
	require.Equal(t, userID, got)

	r.RemoveMember(author)
	_, err = r.MemberPubkey(author)
	require.ErrorIs(t, err, ErrMemberNotFound)
}
