package orm

// OrmPatch is one RFC-6902-flavored change to a materialized JSON view
// (spec §4.7 "Patch materialization": "emit add/remove patches whose path
// is /<subject_iri>/<property>…"). Path always starts with the subject's
// IRI; for a subject-level transition it is exactly the subject IRI, for a
// property-level change it is `/<subject_iri>/<readablePredicate>`.
type OrmPatch struct {
	Op      string
	Path    string
	Value   any
	ValType string
}

const (
	opAdd    = "add"
	opRemove = "remove"
)

// valType tags a patch's Value shape for the client: "set" for a
// multivalued predicate and "single" otherwise (spec §4.7 "Multi-valued
// primitive predicates (maxCardinality != 1) use valType: 'set'").
func valType(pred Predicate) string {
	if pred.Multivalued() {
		return "set"
	}
	return "single"
}

func subjectPath(sub *TrackedSubject, suffix string) string {
	if suffix == "" {
		return "/" + sub.Subject
	}
	return "/" + sub.Subject + "/" + suffix
}

// Diff compares a tracked subject's Values and Validity against a prior
// snapshot taken immediately before the current commit's triples were
// folded in, and emits the patch set spec §4.7 describes:
//   - Pending/Invalid → Valid: one `add /subject` patch carrying the whole
//     materialized subject, root before per-property detail.
//   - Valid → Invalid (or the subject disappearing): a single
//     `remove /subject` patch, with no property-level detail.
//   - Valid → Valid: one add/remove patch per changed predicate value at
//     `/subject/property`.
func Diff(shape *Shape, priorValidity Validity, prior map[string][]Value, sub *TrackedSubject) []OrmPatch {
	becameValid := priorValidity != Valid && sub.Validity == Valid
	leftValid := priorValidity == Valid && sub.Validity != Valid

	if leftValid {
		return []OrmPatch{{Op: opRemove, Path: subjectPath(sub, "")}}
	}
	if becameValid {
		return []OrmPatch{{Op: opAdd, Path: subjectPath(sub, ""), Value: materialize(shape, sub)}}
	}
	if sub.Validity != Valid {
		return nil
	}
	return propertyDiff(shape, prior, sub)
}

func propertyDiff(shape *Shape, prior map[string][]Value, sub *TrackedSubject) []OrmPatch {
	var patches []OrmPatch
	predByIRI := make(map[string]Predicate, len(shape.Predicates))
	for _, p := range shape.Predicates {
		predByIRI[p.IRI] = p
	}

	for iri, curVals := range sub.Values {
		pred, ok := predByIRI[iri]
		if !ok {
			continue
		}
		prevVals := prior[iri]
		for _, v := range curVals {
			if !containsValue(prevVals, v) {
				patches = append(patches, OrmPatch{
					Op:      opAdd,
					Path:    subjectPath(sub, pred.ReadablePredicate),
					Value:   valueOut(v),
					ValType: valType(pred),
				})
			}
		}
		for _, v := range prevVals {
			if !containsValue(curVals, v) {
				patches = append(patches, OrmPatch{
					Op:      opRemove,
					Path:    subjectPath(sub, pred.ReadablePredicate),
					Value:   valueOut(v),
					ValType: valType(pred),
				})
			}
		}
	}
	for iri, prevVals := range prior {
		if _, stillPresent := sub.Values[iri]; stillPresent {
			continue
		}
		pred, ok := predByIRI[iri]
		if !ok {
			continue
		}
		for _, v := range prevVals {
			patches = append(patches, OrmPatch{
				Op:      opRemove,
				Path:    subjectPath(sub, pred.ReadablePredicate),
				Value:   valueOut(v),
				ValType: valType(pred),
			})
		}
	}
	return patches
}

// materialize renders a Valid subject's full value set as a JSON-ready map,
// keyed by readable predicate, for the `add /subject` patch emitted on a
// Pending/Invalid → Valid transition.
func materialize(shape *Shape, sub *TrackedSubject) map[string]any {
	out := map[string]any{"id": sub.Subject}
	for _, pred := range shape.Predicates {
		vals := sub.Values[pred.IRI]
		if len(vals) == 0 {
			continue
		}
		if pred.Multivalued() {
			set := make([]any, len(vals))
			for i, v := range vals {
				set[i] = valueOut(v)
			}
			out[pred.ReadablePredicate] = set
		} else {
			out[pred.ReadablePredicate] = valueOut(vals[0])
		}
	}
	return out
}

func containsValue(vals []Value, v Value) bool {
	for _, existing := range vals {
		if existing == v {
			return true
		}
	}
	return false
}

// valueOut converts a Value into the JSON-ready shape a client expects: a
// bare literal for primitive predicates, or the referenced subject's IRI
// for a DataTypeShape predicate (the nested subject materializes
// separately, as its own tracked entry).
func valueOut(v Value) any {
	return v.Literal
}

// Snapshot captures sub's current Values for use as the "prior" argument
// to a later Diff call, once this commit's patches have been emitted.
func Snapshot(sub *TrackedSubject) map[string][]Value {
	out := make(map[string][]Value, len(sub.Values))
	for k, v := range sub.Values {
		cp := make([]Value, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
