package block

import (
	"context"
	"testing"

	"github.com/nextgraph-org/ng-core/ng"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := NewMemStorage(8)
	ctx := context.Background()
	var overlay ng.OverlayID
	blk := &Block{EncryptedContent: []byte("leaf content")}

	id, err := s.Put(ctx, overlay, blk, false)
	require.NoError(t, err)

	got, err := s.Get(ctx, overlay, id)
	require.NoError(t, err)
	require.Equal(t, blk.EncryptedContent, got.EncryptedContent)
}

func TestGetMissingIsErrNotFound(t *testing.T) {
	s := NewMemStorage(8)
	ctx := context.Background()
	var overlay ng.OverlayID
	var id ng.Digest
	_, err := s.Get(ctx, overlay, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutIsIdempotentUnderTwoOverlays(t *testing.T) {
	s := NewMemStorage(8)
	ctx := context.Background()
	var overlayA, overlayB ng.OverlayID
	overlayB[0] = 1
	blk := &Block{EncryptedContent: []byte("shared content")}

	idA, err := s.Put(ctx, overlayA, blk, false)
	require.NoError(t, err)
	idB, err := s.Put(ctx, overlayB, blk, false)
	require.NoError(t, err)
	require.Equal(t, idA, idB)

	require.NoError(t, s.Delete(ctx, overlayA, idA))
	got, err := s.Get(ctx, overlayB, idB)
	require.NoError(t, err)
	require.Equal(t, blk.EncryptedContent, got.EncryptedContent)
}

func TestDeleteRemovesEntryOnceLastOverlayReleases(t *testing.T) {
	s := NewMemStorage(8)
	ctx := context.Background()
	var overlay ng.OverlayID
	blk := &Block{EncryptedContent: []byte("solo overlay")}

	id, err := s.Put(ctx, overlay, blk, false)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, overlay, id))
	has, err := s.Has(ctx, overlay, id)
	require.NoError(t, err)
	require.False(t, has)
}

func TestIncRefOnMissingIDFails(t *testing.T) {
	s := NewMemStorage(8)
	ctx := context.Background()
	var overlay, id = ng.OverlayID{}, ng.Digest{}
	err := s.IncRef(ctx, overlay, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLazyRefCountPutDoesNotGrantAnOverlayRelease(t *testing.T) {
	s := NewMemStorage(8)
	ctx := context.Background()
	var overlay ng.OverlayID
	blk := &Block{EncryptedContent: []byte("lazy")}

	id, err := s.Put(ctx, overlay, blk, true)
	require.NoError(t, err)

	// No overlay ever took a refcount, so deleting it is a no-op on an
	// already-empty refcnt map, but the entry must still be gone since
	// len(refcnt) == 0 immediately.
	require.NoError(t, s.Delete(ctx, overlay, id))
	has, err := s.Has(ctx, overlay, id)
	require.NoError(t, err)
	require.False(t, has)
}
