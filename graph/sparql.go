package graph

import (
	"strings"
)

// EvalUpdate parses and evaluates exactly `INSERT DATA { ... }` and
// `DELETE DATA { ... }` over N-Triples-shaped triple patterns (spec §4.6
// "A minimal SPARQL-subset executor... supports exactly INSERT DATA { ... }
// and DELETE DATA { ... }"). No Go SPARQL engine appears anywhere in the
// retrieval pack and the spec treats the full engine as an external
// collaborator (PURPOSE&SCOPE §1); this is consequently the one concern in
// this module built on nothing but the standard library (see DESIGN.md).
//
// resolveTarget, if non-nil, is called with the raw update string to decide
// which named graph the parsed triples are scoped into; if nil, triples are
// left with an empty Graph field for the caller to fill in per spec §4.6's
// bucket-by-(repo,branch) step.
func EvalUpdate(update string, resolveTarget func(string) (string, error)) ([]Quad, []Quad, error) {
	trimmed := strings.TrimSpace(update)

	var graph string
	var err error
	if resolveTarget != nil {
		graph, err = resolveTarget(update)
		if err != nil {
			return nil, nil, err
		}
	}

	switch {
	case hasKeywordBlock(trimmed, "INSERT DATA"):
		triples, err := parseDataBlock(trimmed, "INSERT DATA")
		if err != nil {
			return nil, nil, err
		}
		return toQuads(triples, graph), nil, nil
	case hasKeywordBlock(trimmed, "DELETE DATA"):
		triples, err := parseDataBlock(trimmed, "DELETE DATA")
		if err != nil {
			return nil, nil, err
		}
		return nil, toQuads(triples, graph), nil
	default:
		return nil, nil, &SparqlError{Msg: "only INSERT DATA / DELETE DATA are supported"}
	}
}

func hasKeywordBlock(s, keyword string) bool {
	return strings.HasPrefix(strings.ToUpper(s), keyword)
}

type triple struct{ S, P, O string }

// parseDataBlock extracts the `{ ... }` body following keyword and splits
// it into whitespace-separated N-Triples-shaped statements terminated by
// ".". It does not attempt full Turtle grammar (prefixes, blank-node
// shorthand, collections): exactly the literal/IRI triple-per-statement
// shape the rest of this module ever produces or consumes.
func parseDataBlock(s, keyword string) ([]triple, error) {
	rest := strings.TrimSpace(s[len(keyword):])
	open := strings.IndexByte(rest, '{')
	close := strings.LastIndexByte(rest, '}')
	if open < 0 || close < 0 || close < open {
		return nil, &SparqlError{Msg: "missing { } data block"}
	}
	body := rest[open+1 : close]

	var triples []triple
	for _, stmt := range strings.Split(body, ".") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		fields, err := tokenizeTriple(stmt)
		if err != nil {
			return nil, err
		}
		triples = append(triples, triple{S: fields[0], P: fields[1], O: fields[2]})
	}
	return triples, nil
}

// tokenizeTriple splits one statement into exactly three terms, respecting
// double-quoted literals (which may contain spaces) and <...> IRIs.
func tokenizeTriple(stmt string) ([3]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote := false
	inIRI := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for _, r := range stmt {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == '<' && !inQuote:
			inIRI = true
			cur.WriteRune(r)
		case r == '>' && !inQuote:
			inIRI = false
			cur.WriteRune(r)
		case r == ' ' && !inQuote && !inIRI:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	if len(fields) != 3 {
		return [3]string{}, &SparqlError{Msg: "expected exactly subject predicate object in: " + stmt}
	}
	return [3]string{fields[0], fields[1], fields[2]}, nil
}

func toQuads(triples []triple, graph string) []Quad {
	out := make([]Quad, len(triples))
	for i, t := range triples {
		out[i] = Quad{Graph: graph, Subject: t.S, Predicate: t.P, Object: t.O}
	}
	return out
}
