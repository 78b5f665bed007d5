package verifier

import (
	"github.com/nextgraph-org/ng-core/graph"
	"github.com/nextgraph-org/ng-core/ng"
	"github.com/nextgraph-org/ng-core/orm"
)

// AppResponse is the tagged union pushed to subscribers (spec §6): one
// struct per variant, matching the "reject unknown variants" discipline
// callers apply when switching on it. Every variant implements the marker
// method purely to close the set at compile time - there is no shared
// behaviour to factor out.
type AppResponse interface {
	appResponse()
}

// Header carries a branch's graph-derived title/description, pushed
// whenever a header-branch transaction sets the title or description
// (spec §6). Subscribing does not push one.
type Header struct {
	Nuri        string
	Title       string
	Description string
}

func (Header) appResponse() {}

// TabInfo wraps graph.TabInfo. VerifyCommit does not publish it: for a
// header-branch transaction that updates the document title/description it
// publishes a Header carrying the same values.
type TabInfo struct {
	graph.TabInfo
}

func (TabInfo) appResponse() {}

// Patch is the per-commit update pushed to every subscriber of the branch
// it touched (spec §4.6 "Emit patches"). Graph and Discrete are both set
// when the commit's transaction carried both deltas; Other is set only for
// non-transaction commits; CommitID is always set.
type Patch struct {
	CommitID ng.Digest
	Graph    *graph.GraphPatch
	Discrete *graph.DiscretePatch
	Other    OtherPatch
}

func (Patch) appResponse() {}

// OtherPatch is the closed set of non-graph, non-discrete patch payloads a
// handler can attach to a Patch (spec §4.5 handler contracts).
type OtherPatch interface {
	otherPatch()
}

// AsyncSignaturePatch reports a signature object covering signedCommitIDs,
// pushed by the AsyncSignature handler.
type AsyncSignaturePatch struct {
	Nuri            string
	SignedCommitIDs []ng.Digest
}

func (AsyncSignaturePatch) otherPatch() {}

// FileAddPatch reports a file reference added to a branch (spec §4.5
// "AddFile").
type FileAddPatch struct {
	Name string
	Ref  ng.ObjectRef
}

func (FileAddPatch) otherPatch() {}

// SnapshotPatch reports a branch snapshot (spec §4.5 "Snapshot").
type SnapshotPatch struct {
	SnapshotRef ng.ObjectRef
}

func (SnapshotPatch) otherPatch() {}

// OrmInitial is the initial materialized JSON view pushed to a fresh
// discrete-ORM subscriber (spec §4.7).
type OrmInitial struct {
	Value any
}

func (OrmInitial) appResponse() {}

// OrmUpdate is a batch of RFC-6902-style patches pushed to an ORM
// subscriber on every commit affecting its tracked subjects.
type OrmUpdate struct {
	Patches []orm.OrmPatch
}

func (OrmUpdate) appResponse() {}

// DiscreteOrmInitial and DiscreteOrmUpdate mirror OrmInitial/OrmUpdate for
// the discrete-CRDT (non-graph) ORM surface (spec §4.6 "Frontend-originated
// discrete updates").
type DiscreteOrmInitial struct {
	Value []byte
}

func (DiscreteOrmInitial) appResponse() {}

type DiscreteOrmUpdate struct {
	Update []byte
}

func (DiscreteOrmUpdate) appResponse() {}

// Error reports a failure to a subscriber without tearing down its channel.
type Error struct {
	Err error
}

func (Error) appResponse() {}

// EndOfStream signals the subscriber that no further responses follow for
// this subscription (a branch was removed, or the caller is shutting down).
type EndOfStream struct{}

func (EndOfStream) appResponse() {}

// True and False are the boolean acknowledgement variants used by
// request/response-shaped operations (e.g. "did this commit exist
// already?").
type True struct{}

func (True) appResponse() {}

type False struct{}

func (False) appResponse() {}
