package orm

import (
	"strings"

	"github.com/nextgraph-org/ng-core/graph"
)

// Subscription binds one shape subscription to its Tracker arena (spec
// §4.7 "OrmSubscription{shape_type, tracker}"). A verifier holds one
// Subscription per (nuri, root shape) a session has subscribed to.
type Subscription struct {
	Shape   ShapeType
	Tracker *Tracker
}

// NewSubscription compiles shape's CONSTRUCT text (for diagnostics/
// logging — see CompileShape) and returns a ready Subscription whose
// Tracker is empty until ApplyGraphPatch is called with the subscription's
// initial CONSTRUCT result or with live commit patches.
func NewSubscription(shape ShapeType) (*Subscription, error) {
	if _, err := CompileShape(shape.Schema, shape.Root); err != nil {
		return nil, err
	}
	return &Subscription{Shape: shape, Tracker: NewTracker(shape.Schema)}, nil
}

// ApplyGraphPatch folds one commit's inserted/removed triples into the
// subscription's tracked subjects and returns the OrmPatch set to forward
// to the subscriber (spec §6 "AppResponse::OrmUpdate"), in the order the
// triples appear in patch (inserts first, then removes, matching
// graph.UpdateGraph's own insert-then-remove order).
func (s *Subscription) ApplyGraphPatch(patch *graph.GraphPatch) ([]OrmPatch, error) {
	if patch == nil {
		return nil, nil
	}
	var out []OrmPatch

	apply := func(t graph.TripleRef, remove bool) error {
		shape, pred, ok := s.resolvePredicate(t.Predicate)
		if !ok {
			return nil
		}
		ref, sub := s.Tracker.Track(t.Subject, shape.IRI)
		beforeValidity := sub.Validity
		before := Snapshot(sub)
		v := valueFor(pred, t.Object)

		var err error
		if remove {
			err = s.Tracker.ApplyRemove(ref, shape, pred, v)
		} else {
			err = s.Tracker.ApplyInsert(ref, shape, pred, v)
		}
		if err != nil {
			return err
		}

		sub, err = s.Tracker.Get(ref)
		if err != nil {
			return err
		}
		out = append(out, Diff(shape, beforeValidity, before, sub)...)
		return nil
	}

	for _, t := range patch.Inserts {
		if err := apply(t, false); err != nil {
			return out, err
		}
	}
	for _, t := range patch.Removes {
		if err := apply(t, true); err != nil {
			return out, err
		}
	}
	return out, nil
}

// resolvePredicate finds, among every shape reachable from the
// subscription's root, the one Shape/Predicate pair whose IRI matches a
// triple's predicate. A real deployment would key this off the subject's
// already-known shape rather than scanning, but the scan keeps this
// package's first cut simple and is bounded by the subscription's own
// (small, author-controlled) schema size.
func (s *Subscription) resolvePredicate(predicateIRI string) (*Shape, Predicate, bool) {
	predicateIRI = strings.Trim(predicateIRI, "<>")
	for _, shape := range s.Shape.Schema {
		for _, pred := range shape.Predicates {
			if pred.IRI == predicateIRI {
				return shape, pred, true
			}
		}
	}
	return nil, Predicate{}, false
}

// Kind reports the DataTypeKind this predicate's values are expected to
// have, defaulting to DataTypeString when DataTypes is empty (an "extra"
// open predicate with no declared type).
func (p Predicate) Kind() DataTypeKind {
	if len(p.DataTypes) == 0 {
		return DataTypeString
	}
	return p.DataTypes[0].Kind
}

func valueFor(pred Predicate, object string) Value {
	k := pred.Kind()
	if k == DataTypeShape {
		return Value{Kind: DataTypeShape, Literal: strings.Trim(object, "<>")}
	}
	return Value{Kind: k, Literal: unquoteLiteral(object)}
}

// unquoteLiteral strips a SPARQL/N-Triples literal's surrounding quotes,
// matching the lexical form graph.TripleRef.Object carries for the
// DATA-block grammar in graph/sparql.go.
func unquoteLiteral(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
