package graph

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/nextgraph-org/ng-core/ng"
	"github.com/nextgraph-org/ng-core/nuri"
	"github.com/stretchr/testify/require"
)

func randID(t *testing.T) ng.Digest {
	t.Helper()
	var d ng.Digest
	_, err := rand.Read(d[:])
	require.NoError(t, err)
	return d
}

func TestUpdateGraphInsertOnMainBranchAlsoUpdatesRepoGraph(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	bc := BranchContext{
		CommitID: randID(t),
		RepoID:   ng.RepoID(randID(t)),
		BranchID: ng.BranchID(randID(t)),
		IsMain:   true,
	}
	txn := GraphTransaction{
		Inserts: []TripleRef{{Subject: "<s>", Predicate: "<p>", Object: `"o"`}},
	}

	patch, tab, err := UpdateGraph(ctx, store, bc, txn)
	require.NoError(t, err)
	require.Nil(t, tab)
	require.Len(t, patch.Inserts, 1)
	repoGraph := nuri.RepoGraphName(bc.RepoID, bc.Overlay)
	require.True(t, store.HasRepoQuad(repoGraph, "<s>", "<p>", `"o"`))
}

func TestUpdateGraphRejectsRemoveOnFreshBranch(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	bc := BranchContext{
		CommitID: randID(t),
		RepoID:   ng.RepoID(randID(t)),
		BranchID: ng.BranchID(randID(t)),
		IsMain:   true,
	}
	txn := GraphTransaction{
		Removes: []TripleRef{{Subject: "<s>", Predicate: "<p>", Object: `"o"`}},
	}

	_, _, err := UpdateGraph(ctx, store, bc, txn)
	require.ErrorIs(t, err, ErrCannotRemoveTriplesWhenNewBranch)
}

func TestUpdateGraphHeaderBranchEmitsTabInfo(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	bc := BranchContext{
		CommitID: randID(t),
		RepoID:   ng.RepoID(randID(t)),
		BranchID: ng.BranchID(randID(t)),
		IsMain:   false,
		IsHeader: true,
	}
	txn := GraphTransaction{
		Inserts: []TripleRef{
			{Subject: "<repo>", Predicate: PredicateOntologyTitle, Object: `"My Doc"`},
			{Subject: "<repo>", Predicate: PredicateOntologyAbout, Object: `"A description"`},
		},
	}

	patch, tab, err := UpdateGraph(ctx, store, bc, txn)
	require.NoError(t, err)
	require.Nil(t, patch)
	require.NotNil(t, tab)
	require.Equal(t, "My Doc", tab.Title)
	require.Equal(t, "A description", tab.Description)
}

func TestUpdateGraphRemovesTripleNotObservedElsewhereClearsRepoGraph(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	repoID := ng.RepoID(randID(t))
	branchID := ng.BranchID(randID(t))

	c1 := randID(t)
	bc1 := BranchContext{CommitID: c1, RepoID: repoID, BranchID: branchID, IsMain: true}
	_, _, err := UpdateGraph(ctx, store, bc1, GraphTransaction{
		Inserts: []TripleRef{{Subject: "<s>", Predicate: "<p>", Object: `"o"`}},
	})
	require.NoError(t, err)

	c2 := randID(t)
	bc2 := BranchContext{
		CommitID:         c2,
		RepoID:           repoID,
		BranchID:         branchID,
		IsMain:           true,
		DirectCausalPast: []ng.Digest{c1},
		Heads:            []ng.Digest{c2},
	}
	patch, _, err := UpdateGraph(ctx, store, bc2, GraphTransaction{
		Removes: []TripleRef{{Subject: "<s>", Predicate: "<p>", Object: `"o"`}},
	})
	require.NoError(t, err)
	require.Len(t, patch.Removes, 1)

	repoGraph := nuri.RepoGraphName(repoID, bc2.Overlay)
	require.False(t, store.HasRepoQuad(repoGraph, "<s>", "<p>", `"o"`))
}
