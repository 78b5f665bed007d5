package orm

import (
	"testing"

	"github.com/nextgraph-org/ng-core/graph"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionApplyGraphPatchEmitsAddPatch(t *testing.T) {
	schema := personSchema()
	sub, err := NewSubscription(ShapeType{Schema: schema, Root: "sh:Person"})
	require.NoError(t, err)

	patch := &graph.GraphPatch{
		Inserts: []graph.TripleRef{
			{Subject: "did:ng:o:x:v:alice", Predicate: "sh:name", Object: `"Alice"`},
		},
	}
	patches, err := sub.ApplyGraphPatch(patch)
	require.NoError(t, err)
	require.Len(t, patches, 1)
	require.Equal(t, opAdd, patches[0].Op)
	require.Equal(t, "/did:ng:o:x:v:alice", patches[0].Path)
	require.Equal(t, "Alice", patches[0].Value.(map[string]any)["name"])
}

func TestSubscriptionApplyGraphPatchEmitsRemovePatch(t *testing.T) {
	schema := personSchema()
	sub, err := NewSubscription(ShapeType{Schema: schema, Root: "sh:Person"})
	require.NoError(t, err)

	insert := &graph.GraphPatch{
		Inserts: []graph.TripleRef{
			{Subject: "did:ng:o:x:v:alice", Predicate: "sh:name", Object: `"Alice"`},
			{Subject: "did:ng:o:x:v:alice", Predicate: "sh:nickname", Object: `"Al"`},
		},
	}
	_, err = sub.ApplyGraphPatch(insert)
	require.NoError(t, err)

	remove := &graph.GraphPatch{
		Removes: []graph.TripleRef{
			{Subject: "did:ng:o:x:v:alice", Predicate: "sh:nickname", Object: `"Al"`},
		},
	}
	patches, err := sub.ApplyGraphPatch(remove)
	require.NoError(t, err)
	require.Len(t, patches, 1)
	require.Equal(t, opRemove, patches[0].Op)
	require.Equal(t, "set", patches[0].ValType)
	require.Equal(t, "/did:ng:o:x:v:alice/nicknames", patches[0].Path)
}

func TestSubscriptionIgnoresUnrelatedPredicate(t *testing.T) {
	schema := personSchema()
	sub, err := NewSubscription(ShapeType{Schema: schema, Root: "sh:Person"})
	require.NoError(t, err)

	patch := &graph.GraphPatch{
		Inserts: []graph.TripleRef{
			{Subject: "did:ng:o:x:v:alice", Predicate: "sh:unrelated", Object: `"x"`},
		},
	}
	patches, err := sub.ApplyGraphPatch(patch)
	require.NoError(t, err)
	require.Empty(t, patches)
}
