// Package repo implements the Repo/Branch Model (spec §4.4): the in-memory
// representation of a repository, its branches, members and permissions,
// guarded by the owning verifier's single-writer discipline (no internal
// locking of its own, matching spec §5).
package repo

import (
	"sort"

	"github.com/nextgraph-org/ng-core/commit"
	"github.com/nextgraph-org/ng-core/ng"
)

// BranchType mirrors spec §3's branch role taxonomy.
type BranchType uint8

const (
	BranchRoot BranchType = iota + 1
	BranchMain
	BranchStore
	BranchOverlay
	BranchUser
	BranchHeader
	BranchTransactional
)

// CRDTType mirrors spec §3's discrete-CRDT kind a transactional branch
// carries.
type CRDTType uint8

const (
	CRDTNone CRDTType = iota
	CRDTGraph
	CRDTAutomerge
	CRDTYMap
	CRDTYArray
	CRDTYText
	CRDTYXml
)

// IsHeader reports whether this branch is the repo's header branch, the one
// case graph.UpdateGraph special-cases into a title/description patch
// instead of a regular graph patch (spec §4.6 "Branch header
// specialization").
func (t BranchType) IsHeader() bool { return t == BranchHeader }

// BranchInfo is the in-memory record of one branch (spec §3 "BranchInfo").
type BranchInfo struct {
	ID           ng.BranchID
	Type         BranchType
	CRDT         CRDTType
	Topic        *ng.TopicID
	TopicPrivKey *ng.PrivKey
	ReadCap      *ng.ObjectRef
	ForkOf       *ng.BranchID
	MergedIn     *ng.BranchID
	CurrentHeads []ng.ObjectRef
	CommitsNbr   uint64
}

// UpdateCurrentHeads removes every id in past from the head set and appends
// newHead if it isn't already present, then bumps CommitsNbr (spec §4.4
// "update_branch_current_heads").
func (b *BranchInfo) UpdateCurrentHeads(newHead ng.ObjectRef, past []ng.Digest) {
	pastSet := make(map[ng.Digest]bool, len(past))
	for _, id := range past {
		pastSet[id] = true
	}
	kept := b.CurrentHeads[:0]
	alreadyPresent := false
	for _, h := range b.CurrentHeads {
		if pastSet[h.ID] {
			continue
		}
		if h.ID == newHead.ID {
			alreadyPresent = true
		}
		kept = append(kept, h)
	}
	b.CurrentHeads = kept
	if !alreadyPresent {
		b.CurrentHeads = append(b.CurrentHeads, newHead)
	}
	b.CommitsNbr++
}

// HeadIDs returns the sorted ids of CurrentHeads, a convenience used
// wherever deterministic iteration order matters (spec §9 "Deterministic
// rendering").
func (b *BranchInfo) HeadIDs() []ng.Digest {
	ids := make([]ng.Digest, len(b.CurrentHeads))
	for i, h := range b.CurrentHeads {
		ids[i] = h.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Member is one entry of a Repo's membership table: the user id a commit
// author digest resolves to, and the permission set they hold.
type Member struct {
	UserID      ng.PubKey
	Permissions commit.Permission
}
