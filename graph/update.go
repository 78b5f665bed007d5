package graph

import (
	"context"

	"github.com/nextgraph-org/ng-core/ng"
	"github.com/nextgraph-org/ng-core/nuri"
)

// BranchContext bundles everything UpdateGraph needs to know about the
// commit and branch it is applying a graph transaction for (spec §4.6
// "BranchUpdateInfo", restricted to the fields UpdateGraph itself
// consumes; the bucketing/commit-construction fields `token`,
// `commit_info` and `transaction` live one layer up, in the verifier,
// which is the component that actually builds and signs commits).
type BranchContext struct {
	CommitID ng.Digest
	Overlay  ng.OverlayID
	RepoID   ng.RepoID
	BranchID ng.BranchID
	Topic    ng.TopicID

	IsMain   bool
	IsHeader bool

	// DirectCausalPast holds the commit ids this commit directly descends
	// from (empty for a branch's root commit).
	DirectCausalPast []ng.Digest

	// Heads holds the branch's current heads *after* this commit has been
	// folded in (used to decide whether a removed triple is still observed
	// anywhere reachable).
	Heads []ng.Digest
}

// UpdateGraph applies one commit's graph transaction to store, following
// spec §4.6's insert-then-remove algorithm exactly: insert path, head/past
// bookkeeping, remove path (including the new-branch hard error and the
// repo-level materialized-view removal), and the header-branch title/
// description special case. It returns either a GraphPatch to fan out to
// subscribers, or a TabInfo if bc is a header branch (never both).
func UpdateGraph(ctx context.Context, store Store, bc BranchContext, txn GraphTransaction) (*GraphPatch, *TabInfo, error) {
	if !bc.IsHeader && len(bc.DirectCausalPast) == 0 && len(txn.Removes) > 0 {
		return nil, nil, ErrCannotRemoveTriplesWhenNewBranch
	}

	commitGraph := nuri.CommitGraphName(bc.CommitID, bc.Overlay)
	repoGraph := nuri.RepoGraphName(bc.RepoID, bc.Overlay)

	insertFlag := AddedInOther
	if bc.IsMain {
		insertFlag = AddedInMain
	}

	var titleInfo TabInfo
	var sawTitleOrAbout bool

	err := store.Transaction(ctx, func(ctx context.Context, tx Tx) error {
		for _, t := range txn.Inserts {
			q := Quad{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object}
			if err := tx.Insert(commitGraph, q, insertFlag, &bc.Topic); err != nil {
				return err
			}
			if bc.IsMain {
				if err := tx.Insert(repoGraph, q, RepoInMain, nil); err != nil {
					return err
				}
			}
			if bc.IsHeader {
				switch t.Predicate {
				case PredicateOntologyTitle:
					titleInfo.Title = t.Object
					sawTitleOrAbout = true
				case PredicateOntologyAbout:
					titleInfo.Description = t.Object
					sawTitleOrAbout = true
				}
			}
		}

		if err := tx.UpdateHeads(bc.Topic, bc.Overlay, bc.CommitID, bc.DirectCausalPast); err != nil {
			return err
		}
		if len(bc.DirectCausalPast) > 0 {
			if err := tx.UpdatePast(bc.CommitID, bc.DirectCausalPast, false); err != nil {
				return err
			}
		}

		headNames := make([]string, len(bc.Heads))
		for i, h := range bc.Heads {
			headNames[i] = nuri.CommitGraphName(h, bc.Overlay)
		}

		for _, t := range txn.Removes {
			q := Quad{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object}
			addedGraphs := store.AddedGraphs(t.Subject, t.Predicate, t.Object)
			removedHere := false
			for _, priorGraph := range addedGraphs {
				if !store.ObservedAt(q, priorGraph, headNames) {
					continue
				}
				removedHere = true
				if err := tx.NGRemove(priorGraph, q, bc.CommitID); err != nil {
					return err
				}
			}
			// Every graph that still observed q at the heads has just been
			// marked removed, so q is no longer observed there and leaves
			// the repo-level view.
			if bc.IsMain && removedHere {
				if err := tx.Remove(repoGraph, q); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if bc.IsHeader {
		if sawTitleOrAbout {
			return nil, &titleInfo, nil
		}
		return nil, nil, nil
	}

	return &GraphPatch{Inserts: txn.Inserts, Removes: txn.Removes}, nil, nil
}
