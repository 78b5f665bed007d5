package block

import (
	"context"
	"sync"

	"github.com/nextgraph-org/ng-core/bloom"
	"github.com/nextgraph-org/ng-core/internal/keyspace"
	"github.com/nextgraph-org/ng-core/internal/logging"
	"github.com/nextgraph-org/ng-core/ng"
)

// entry is a stored block plus its overlay-scoped reference count (spec §3
// Lifecycles: "garbage-collected only when all overlays release their
// reference").
type entry struct {
	data   []byte
	refcnt map[ng.OverlayID]uint32
}

// MemStorage is the reference Storage backend: a single RWMutex-guarded map,
// matching spec §5's "many concurrent readers, one writer" policy and the
// teacher's massifs/storage split between a narrow path/index contract and a
// concrete backend. A bloom.Set is consulted first as a fast negative
// pre-check, adapted from the teacher's bloom package. Entries are indexed
// under keyspace.FamilyBlock so this backend uses the same key-prefixing
// discipline a durable KV backend would (spec §6 "Persisted state layout").
type MemStorage struct {
	mu      sync.RWMutex
	entries map[string]*entry
	present *bloom.Set
	log     logging.Logger
}

var _ Storage = (*MemStorage)(nil)

// NewMemStorage builds an empty MemStorage sized for approximately capacity
// distinct blocks.
func NewMemStorage(capacity int) *MemStorage {
	set, err := bloom.NewSet(capacity)
	if err != nil {
		// Capacity is always a small positive int from callers in this
		// module; NewSet only fails on overflow of the sizing arithmetic.
		set, _ = bloom.NewSet(1)
	}
	return &MemStorage{
		entries: make(map[string]*entry, capacity),
		present: set,
		log:     logging.Component("block.MemStorage"),
	}
}

// blockKey builds this backend's entries index key for a content-addressed
// block id. Blocks are not overlay-scoped in the index itself (two overlays
// sharing the same block content share the same stored copy); only the
// entry's refcnt map below is overlay-scoped.
func blockKey(id ng.Digest) string {
	return string(keyspace.Key(keyspace.FamilyBlock, id[:]))
}

func (s *MemStorage) Put(ctx context.Context, overlay ng.OverlayID, blk *Block, lazyRefCount bool) (ng.Digest, error) {
	data, err := Encode(blk)
	if err != nil {
		return ng.Digest{}, err
	}
	if len(data) > MaxSerializedSize {
		return ng.Digest{}, ErrBlockTooLarge
	}
	id := IDOfBytes(data)
	key := blockKey(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{data: data, refcnt: map[ng.OverlayID]uint32{}}
		s.entries[key] = e
		s.present.Add(id)
		s.log.Debugf("block stored id=%s overlay=%s size=%d", id, overlay, len(data))
	}
	// Put is idempotent: concurrent puts of the same id converge on one
	// stored copy. Each put bumps its overlay's refcount unless
	// lazyRefCount is set, in which case the count is left unchanged.
	if !lazyRefCount {
		e.refcnt[overlay]++
	}
	return id, nil
}

func (s *MemStorage) Get(ctx context.Context, overlay ng.OverlayID, id ng.Digest) (*Block, error) {
	if !s.present.MaybeContains(id) {
		return nil, ErrNotFound
	}
	s.mu.RLock()
	e, ok := s.entries[blockKey(id)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	blk, err := Decode(e.data)
	if err != nil {
		return nil, err
	}
	return blk, nil
}

func (s *MemStorage) Has(ctx context.Context, overlay ng.OverlayID, id ng.Digest) (bool, error) {
	if !s.present.MaybeContains(id) {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[blockKey(id)]
	return ok, nil
}

func (s *MemStorage) Delete(ctx context.Context, overlay ng.OverlayID, id ng.Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := blockKey(id)
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	delete(e.refcnt, overlay)
	if len(e.refcnt) == 0 {
		delete(s.entries, key)
	}
	return nil
}

func (s *MemStorage) IncRef(ctx context.Context, overlay ng.OverlayID, id ng.Digest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[blockKey(id)]
	if !ok {
		return ErrNotFound
	}
	e.refcnt[overlay]++
	return nil
}
