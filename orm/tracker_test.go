package orm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func personSchema() Schema {
	return Schema{
		"sh:Person": &Shape{
			IRI: "sh:Person",
			Predicates: []Predicate{
				{
					IRI:               "sh:name",
					ReadablePredicate: "name",
					MinCardinality:    1,
					MaxCardinality:    1,
					DataTypes:         []DataType{{Kind: DataTypeString}},
				},
				{
					IRI:               "sh:nickname",
					ReadablePredicate: "nicknames",
					MinCardinality:    0,
					MaxCardinality:    -1,
					DataTypes:         []DataType{{Kind: DataTypeString}},
				},
			},
		},
	}
}

func TestTrackerTrackReusesSlot(t *testing.T) {
	tr := NewTracker(personSchema())
	ref1, sub1 := tr.Track("did:ng:o:x:v:alice", "sh:Person")
	ref2, sub2 := tr.Track("did:ng:o:x:v:alice", "sh:Person")
	require.Equal(t, ref1, ref2)
	require.Same(t, sub1, sub2)
}

func TestValidationPendingThenValid(t *testing.T) {
	tr := NewTracker(personSchema())
	shape := personSchema()["sh:Person"]
	ref, sub := tr.Track("did:ng:o:x:v:alice", "sh:Person")
	require.Equal(t, Pending, sub.Validity)

	err := tr.ApplyInsert(ref, shape, shape.Predicates[0], Value{Kind: DataTypeString, Literal: "Alice"})
	require.NoError(t, err)

	sub, err = tr.Get(ref)
	require.NoError(t, err)
	require.Equal(t, Valid, sub.Validity)
}

func TestValidationInvalidOnCardinalityViolation(t *testing.T) {
	tr := NewTracker(personSchema())
	shape := personSchema()["sh:Person"]
	ref, _ := tr.Track("did:ng:o:x:v:alice", "sh:Person")

	namePred := shape.Predicates[0]
	require.NoError(t, tr.ApplyInsert(ref, shape, namePred, Value{Kind: DataTypeString, Literal: "Alice"}))
	require.NoError(t, tr.ApplyInsert(ref, shape, namePred, Value{Kind: DataTypeString, Literal: "Alicia"}))

	sub, err := tr.Get(ref)
	require.NoError(t, err)
	require.Equal(t, Invalid, sub.Validity)
}

func TestUntrackMakesRefStale(t *testing.T) {
	tr := NewTracker(personSchema())
	ref, _ := tr.Track("did:ng:o:x:v:alice", "sh:Person")
	require.NoError(t, tr.Untrack(ref))

	_, err := tr.Get(ref)
	require.ErrorIs(t, err, ErrStaleRef)
}

func TestHasCycleDetectsSelfReference(t *testing.T) {
	schema := Schema{
		"sh:Node": &Shape{
			IRI: "sh:Node",
			Predicates: []Predicate{
				{
					IRI:               "sh:next",
					ReadablePredicate: "next",
					MinCardinality:    0,
					MaxCardinality:    1,
					DataTypes:         []DataType{{Kind: DataTypeShape, ShapeIRI: "sh:Node"}},
				},
			},
		},
	}
	tr := NewTracker(schema)
	shape := schema["sh:Node"]
	refA, _ := tr.Track("a", "sh:Node")
	refB, _ := tr.Track("b", "sh:Node")

	require.NoError(t, tr.ApplyInsert(refA, shape, shape.Predicates[0], Value{Kind: DataTypeShape, Literal: "b", ChildRef: refB}))
	require.NoError(t, tr.ApplyInsert(refB, shape, shape.Predicates[0], Value{Kind: DataTypeShape, Literal: "a", ChildRef: refA}))

	subA, err := tr.Get(refA)
	require.NoError(t, err)
	require.Equal(t, Invalid, subA.Validity)
}

func TestCompileShapeHandlesRecursiveShape(t *testing.T) {
	schema := Schema{
		"sh:Node": &Shape{
			IRI: "sh:Node",
			Predicates: []Predicate{
				{IRI: "sh:next", DataTypes: []DataType{{Kind: DataTypeShape, ShapeIRI: "sh:Node"}}},
			},
		},
	}
	query, err := CompileShape(schema, "sh:Node")
	require.NoError(t, err)
	require.Contains(t, query, "CONSTRUCT")
}

func TestCompileShapeUnknownRootFails(t *testing.T) {
	_, err := CompileShape(Schema{}, "sh:Missing")
	require.ErrorIs(t, err, ErrShapeNotFound)
}
