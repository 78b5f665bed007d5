package graph

import "errors"

var (
	ErrMalformedDag                     = errors.New("graph: malformed causal-past reference")
	ErrInvalidNamedGraph                = errors.New("graph: invalid named graph")
	ErrCannotRemoveTriplesWhenNewBranch = errors.New("graph: cannot remove triples on a branch with no causal past")
	ErrSparql                           = errors.New("graph: sparql error")
)

// SparqlError wraps a parse/evaluation failure from the minimal SPARQL
// subset executor (spec §7 "SparqlError(string)").
type SparqlError struct {
	Msg string
}

func (e *SparqlError) Error() string { return "graph: sparql error: " + e.Msg }
func (e *SparqlError) Unwrap() error { return ErrSparql }
