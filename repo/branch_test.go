package repo

import (
	"crypto/rand"
	"testing"

	"github.com/nextgraph-org/ng-core/ng"
	"github.com/stretchr/testify/require"
)

func randBranchID(t *testing.T) ng.BranchID {
	t.Helper()
	var id ng.BranchID
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	return id
}

func refWithID(t *testing.T) ng.ObjectRef {
	t.Helper()
	var id ng.Digest
	_, err := rand.Read(id[:])
	require.NoError(t, err)
	return ng.ObjectRef{ID: id}
}

func TestUpdateCurrentHeadsAppendsFirstHead(t *testing.T) {
	b := &BranchInfo{}
	head := refWithID(t)

	b.UpdateCurrentHeads(head, nil)
	require.Equal(t, []ng.ObjectRef{head}, b.CurrentHeads)
	require.Equal(t, uint64(1), b.CommitsNbr)
}

func TestUpdateCurrentHeadsReplacesPastHeads(t *testing.T) {
	b := &BranchInfo{}
	first := refWithID(t)
	b.UpdateCurrentHeads(first, nil)

	second := refWithID(t)
	b.UpdateCurrentHeads(second, []ng.Digest{first.ID})

	require.Equal(t, []ng.ObjectRef{second}, b.CurrentHeads)
	require.Equal(t, uint64(2), b.CommitsNbr)
}

func TestUpdateCurrentHeadsMergeReplacesBothHeads(t *testing.T) {
	b := &BranchInfo{}
	first := refWithID(t)
	second := refWithID(t)
	b.UpdateCurrentHeads(first, nil)
	b.UpdateCurrentHeads(second, nil)
	require.Len(t, b.CurrentHeads, 2)

	// A merge commit has both prior heads in its causal past, so it replaces
	// both of them with the single new head.
	merge := refWithID(t)
	b.UpdateCurrentHeads(merge, []ng.Digest{first.ID, second.ID})
	require.Equal(t, []ng.ObjectRef{merge}, b.CurrentHeads)
}

func TestUpdateCurrentHeadsIsIdempotentOnReplay(t *testing.T) {
	b := &BranchInfo{}
	head := refWithID(t)
	b.UpdateCurrentHeads(head, nil)
	b.UpdateCurrentHeads(head, nil)

	require.Equal(t, []ng.ObjectRef{head}, b.CurrentHeads)
}

func TestHeadIDsIsSorted(t *testing.T) {
	b := &BranchInfo{}
	for i := 0; i < 5; i++ {
		b.UpdateCurrentHeads(refWithID(t), nil)
	}

	ids := b.HeadIDs()
	require.Len(t, ids, 5)
	for i := 1; i < len(ids); i++ {
		require.LessOrEqual(t, ids[i-1].String(), ids[i].String())
	}
}

func TestIsHeaderOnlyForHeaderBranch(t *testing.T) {
	require.True(t, BranchHeader.IsHeader())
	require.False(t, BranchMain.IsHeader())
}
