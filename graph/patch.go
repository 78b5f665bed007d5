package graph

// GraphPatch is the graph half of a verifier.AppResponse Patch (spec §4.6
// "Emit patches": "push one AppResponse::Patch{..., graph: Some(graph_
// patch), ...} per updated branch to every subscriber of that branch").
type GraphPatch struct {
	Inserts []TripleRef
	Removes []TripleRef
}

// DiscretePatch is the discrete-CRDT half of a Patch (spec §4.6 "Discrete
// update": "push AppResponse::Patch{..., discrete: Some(patch), ...}").
type DiscretePatch struct {
	Update []byte
}

// TabInfo is emitted instead of a GraphPatch when the transaction targets a
// header branch (spec §4.6 "Branch header specialization": "emit an
// AppResponse::TabInfo with derived document title/description").
type TabInfo struct {
	Title       string
	Description string
}

const (
	// PredicateOntologyTitle and PredicateOntologyAbout are the header-
	// branch predicates UpdateGraph interprets specially (spec §4.6).
	PredicateOntologyTitle = "<did:ng:x:ng#title>"
	PredicateOntologyAbout = "<did:ng:x:ng#about>"
)
