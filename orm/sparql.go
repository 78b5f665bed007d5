package orm

import "strings"

// CompileShape emits the CONSTRUCT/WHERE query text a shape subscription
// conceptually runs against the graph dataset (spec §4.7 "shape_type_to_
// sparql": "a ShapeType compiles once, at subscription time, into the
// CONSTRUCT query that re-materializes every tracked subject"). graph.Store
// here only executes the INSERT DATA/DELETE DATA subset (graph/sparql.go);
// CompileShape's output is therefore descriptive/debug text and the
// grounding for Tracker.Materialize's walk, not something executed through
// graph.Store.Update — no Go SPARQL engine with CONSTRUCT support appears
// anywhere in the retrieval pack, so the executable path is the direct
// graph.Store read API (RepoQuads/HasRepoQuad) instead.
//
// A shape that contains itself (directly, or through a union alternative)
// is a legitimate recursive structure, not an error — a "folder contains
// folders" shape is ordinary. CompileShape therefore only recurses one
// instance of each shape IRI deep along any single path and stops there;
// further levels materialize one CONSTRUCT query per commit as new
// subjects are observed, not by unrolling the whole recursive shape up
// front. A genuine cycle in the live instance graph is caught by the
// Tracker's runtime DFS over materialized subjects (validation.go), which
// marks the subjects involved Invalid rather than returning ErrCyclicShape.
func CompileShape(schema Schema, rootIRI string) (string, error) {
	var b strings.Builder
	b.WriteString("CONSTRUCT { ?s0 ?p ?o } WHERE {\n")
	visited := map[string]bool{}
	if err := compileShapeInto(&b, schema, rootIRI, 0, visited); err != nil {
		return "", err
	}
	b.WriteString("}")
	return b.String(), nil
}

func compileShapeInto(b *strings.Builder, schema Schema, shapeIRI string, depth int, visited map[string]bool) error {
	shape, ok := schema[shapeIRI]
	if !ok {
		return ErrShapeNotFound
	}
	if visited[shapeIRI] {
		return nil
	}
	visited[shapeIRI] = true
	defer delete(visited, shapeIRI)

	subj := subjectVar(depth)
	for _, pred := range shape.Predicates {
		obj := subjectVar(depth + 1)
		b.WriteString("  OPTIONAL { ")
		b.WriteString(subj)
		b.WriteString(" <")
		b.WriteString(pred.IRI)
		b.WriteString("> ")
		b.WriteString(obj)
		b.WriteString(" }\n")
		for _, dt := range pred.DataTypes {
			if dt.Kind != DataTypeShape {
				continue
			}
			if err := compileShapeInto(b, schema, dt.ShapeIRI, depth+1, visited); err != nil {
				return err
			}
		}
	}
	return nil
}

func subjectVar(depth int) string {
	if depth == 0 {
		return "?s0"
	}
	return "?s" + itoa(depth)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
