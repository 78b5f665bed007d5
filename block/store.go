package block

import (
	"context"

	"github.com/nextgraph-org/ng-core/ng"
)

// Storage is the block layer's contract (spec §4.1). Ids are derived from
// the hash of the serialized block; Put is idempotent and never errors for
// a matching block already on record.
type Storage interface {
	// Put stores blk under the overlay, returning its content id. If
	// lazyRefCount is true, the backend may defer the reference-count
	// increment (e.g. batch it) rather than committing it synchronously.
	Put(ctx context.Context, overlay ng.OverlayID, blk *Block, lazyRefCount bool) (ng.Digest, error)

	// Get retrieves the block with the given id, scoped to overlay.
	// Returns ErrNotFound if absent.
	Get(ctx context.Context, overlay ng.OverlayID, id ng.Digest) (*Block, error)

	// Has reports whether id is present under overlay, without decoding it.
	Has(ctx context.Context, overlay ng.OverlayID, id ng.Digest) (bool, error)

	// Delete removes the block under overlay. Deleting an absent id is not
	// an error (idempotent, matching Put).
	Delete(ctx context.Context, overlay ng.OverlayID, id ng.Digest) error

	// IncRef increments the overlay-scoped reference count for id without
	// rewriting its content, used when a second Object refers to a block
	// already stored under a different root.
	IncRef(ctx context.Context, overlay ng.OverlayID, id ng.Digest) error
}
