package nuri

import (
	"crypto/rand"
	"testing"

	"github.com/nextgraph-org/ng-core/ng"
	"github.com/stretchr/testify/require"
)

func randDigest(t *testing.T) ng.Digest {
	t.Helper()
	var d ng.Digest
	_, err := rand.Read(d[:])
	require.NoError(t, err)
	return d
}

func TestParseStringRoundTripCommit(t *testing.T) {
	overlay := ng.OverlayID(randDigest(t))
	commitID := randDigest(t)
	n := Nuri{Kind: KindCommit, Overlay: overlay, Commit: commitID}

	parsed, err := Parse(n.String())
	require.NoError(t, err)
	require.Equal(t, n, parsed)
}

func TestParseStringRoundTripRepo(t *testing.T) {
	overlay := ng.OverlayID(randDigest(t))
	repoID := ng.RepoID(randDigest(t))
	n := Nuri{Kind: KindRepo, Overlay: overlay, Repo: repoID}

	parsed, err := Parse(n.String())
	require.NoError(t, err)
	require.Equal(t, n, parsed)
}

func TestParseStringRoundTripBranch(t *testing.T) {
	overlay := ng.OverlayID(randDigest(t))
	branchID := ng.BranchID(randDigest(t))
	n := Nuri{Kind: KindBranch, Overlay: overlay, Branch: branchID}

	parsed, err := Parse(n.String())
	require.NoError(t, err)
	require.Equal(t, n, parsed)
}

func TestParseStringRoundTripSkolem(t *testing.T) {
	overlay := ng.OverlayID(randDigest(t))
	n := Nuri{Kind: KindSkolem, Overlay: overlay, Subject: "abc:def:ghi"}

	parsed, err := Parse(n.String())
	require.NoError(t, err)
	require.Equal(t, n, parsed)
}

func TestParseRejectsWrongScheme(t *testing.T) {
	_, err := Parse("did:other:thing")
	require.ErrorIs(t, err, ErrInvalidNuri)
}

func TestParseRejectsUnknownForm(t *testing.T) {
	overlay := ng.OverlayID(randDigest(t))
	n := Nuri{Kind: KindRepo, Overlay: overlay, Repo: ng.RepoID(randDigest(t))}
	s := n.String()
	// Swap the "v" form marker for an unrecognized one.
	broken := s[:len(s)-len(b64(n.Repo[:]))-2] + "z:" + b64(n.Repo[:])
	_, err := Parse(broken)
	require.ErrorIs(t, err, ErrUnknownForm)
}

func TestCommitGraphNameMatchesParsedNuri(t *testing.T) {
	overlay := ng.OverlayID(randDigest(t))
	commitID := randDigest(t)

	name := CommitGraphName(commitID, overlay)
	parsed, err := Parse(name)
	require.NoError(t, err)
	require.Equal(t, KindCommit, parsed.Kind)
	require.Equal(t, commitID, parsed.Commit)
	require.Equal(t, overlay, parsed.Overlay)
}

func TestRepoSkolemIsStableAcrossCalls(t *testing.T) {
	overlay := ng.OverlayID(randDigest(t))
	repoID := ng.RepoID(randDigest(t))
	var peerID ng.PubKey
	_, err := rand.Read(peerID[:])
	require.NoError(t, err)

	first := RepoSkolem(repoID, peerID, "bn1", overlay)
	second := RepoSkolem(repoID, peerID, "bn1", overlay)
	require.Equal(t, first, second)

	other := RepoSkolem(repoID, peerID, "bn2", overlay)
	require.NotEqual(t, first, other)
}
