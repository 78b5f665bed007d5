// Package object implements the Object Assembler (spec §4.2): chunking a
// byte payload into a Merkle tree of convergently-encrypted blocks, and
// reassembling it back from a store.
package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/nextgraph-org/ng-core/block"
	"github.com/nextgraph-org/ng-core/internal/codec"
	"github.com/nextgraph-org/ng-core/ng"
)

// Object is an assembled or loaded Merkle tree: every block that makes it
// up (leaves first, root last) plus the root's own id/key and, once
// reassembled, its plaintext content.
type Object struct {
	Blocks  []*block.Block
	RootID  ng.Digest
	RootKey ng.SymKey
	Content []byte
}

// Ref returns the (id, key) pair needed to later Load this object.
func (o *Object) Ref() ng.ObjectRef {
	return ng.ObjectRef{ID: o.RootID, Key: o.RootKey}
}

// wireInternalNode is the plaintext payload of an internal node: the
// symmetric keys of its children, in the same order as the block's
// Children id list (spec §4.2 step 4).
type wireInternalNode struct {
	Keys [][32]byte `cbor:"1,keyasint"`
}

// New chunks content into a Merkle tree of blocks under maxBlockSize,
// deriving every key convergently from storeSecret and storePub so that
// two peers assembling identical content produce byte-identical blocks
// (spec §4.2 "Chunking"). headerKey, if non-nil, is attached to the root
// block only, letting the root block advertise the key to a commit's
// header object without that key ever appearing inside CommitContent.
func New(content []byte, headerKey *ng.SymKey, maxBlockSize int, storeSecret ng.SymKey, storePub ng.PubKey) (*Object, error) {
	validSize := roundUpToValidBlockSize(maxBlockSize)
	convKey := ConvergenceKey(storeSecret, storePub)
	leafSize := leafPayloadSize(validSize)
	if leafSize <= 0 {
		return nil, fmt.Errorf("object: max block size %d too small to hold any content", maxBlockSize)
	}

	if len(content) <= leafSize {
		blk, _, key, err := makeBlock(convKey, content, nil)
		if err != nil {
			return nil, err
		}
		blk.CommitHeaderKey = headerKey
		id, err := block.ID(blk)
		if err != nil {
			return nil, err
		}
		return &Object{Blocks: []*block.Block{blk}, RootID: id, RootKey: key, Content: content}, nil
	}

	var leaves []*block.Block
	var ids []ng.Digest
	var keys []ng.SymKey
	for off := 0; off < len(content); off += leafSize {
		end := off + leafSize
		if end > len(content) {
			end = len(content)
		}
		blk, id, key, err := makeBlock(convKey, content[off:end], nil)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, blk)
		ids = append(ids, id)
		keys = append(keys, key)
	}

	obj := &Object{Blocks: leaves, Content: content}
	arity := internalArity(validSize)

	for len(ids) > 1 {
		var parentIDs []ng.Digest
		var parentKeys []ng.SymKey
		for i := 0; i < len(ids); i += arity {
			end := i + arity
			if end > len(ids) {
				end = len(ids)
			}
			childIDs := append([]ng.Digest{}, ids[i:end]...)
			var wn wireInternalNode
			for _, k := range keys[i:end] {
				wn.Keys = append(wn.Keys, [32]byte(k))
			}
			payload, err := codec.Default.Marshal(wn)
			if err != nil {
				return nil, err
			}
			blk, id, key, err := makeBlock(convKey, payload, childIDs)
			if err != nil {
				return nil, err
			}
			obj.Blocks = append(obj.Blocks, blk)
			parentIDs = append(parentIDs, id)
			parentKeys = append(parentKeys, key)
		}
		ids, keys = parentIDs, parentKeys
	}

	root := obj.Blocks[len(obj.Blocks)-1]
	if headerKey != nil {
		root.CommitHeaderKey = headerKey
		id, err := block.ID(root)
		if err != nil {
			return nil, err
		}
		ids[0] = id
	}
	obj.RootID = ids[0]
	obj.RootKey = keys[0]
	return obj, nil
}

// Save persists every block of o into store under overlay, in leaves-first
// order so a concurrent reader never observes an internal node before the
// children it refers to.
func (o *Object) Save(ctx context.Context, store block.Storage, overlay ng.OverlayID) (ng.ObjectRef, error) {
	for _, blk := range o.Blocks {
		if _, err := store.Put(ctx, overlay, blk, false); err != nil {
			return ng.ObjectRef{}, err
		}
	}
	return o.Ref(), nil
}

// makeBlock derives plaintext's key under convKey, encrypts it, and builds
// the Block that stores it (spec §4.2's make_block).
func makeBlock(convKey ng.SymKey, plaintext []byte, children []ng.Digest) (*block.Block, ng.Digest, ng.SymKey, error) {
	key := blockKey(convKey, plaintext)
	enc, err := cryptBlock(key, plaintext)
	if err != nil {
		return nil, ng.Digest{}, ng.SymKey{}, err
	}
	blk := &block.Block{Children: children, EncryptedContent: enc}
	id, err := block.ID(blk)
	if err != nil {
		return nil, ng.Digest{}, ng.SymKey{}, err
	}
	return blk, id, key, nil
}

// Load reassembles the Object rooted at root, descending the tree and
// decrypting every block it can find. Missing blocks are collected across
// the whole traversal (not failed on the first one) and reported together
// as a MissingBlocksError, so a caller can fetch them all in one round
// trip and retry (spec §4.2 "Load"/"Failures"). withBody controls whether
// the decrypted content is assembled and returned, or only validated.
func Load(ctx context.Context, root ng.ObjectRef, store block.Storage, overlay ng.OverlayID, withBody bool) (*Object, error) {
	if root.ID.IsZero() {
		return nil, ErrEmptyTree
	}
	obj := &Object{RootID: root.ID, RootKey: root.Key}
	var missing []ng.Digest
	leaves, err := descend(ctx, store, overlay, root.ID, root.Key, obj, &missing)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &MissingBlocksError{IDs: missing}
	}
	if withBody {
		obj.Content = bytes.Join(leaves, nil)
	}
	return obj, nil
}

// descend visits the block at id, decrypting it with key, and recurses
// into its children in order, appending each block to obj.Blocks after its
// children so the root comes last. It returns the leaf plaintexts found under
// this subtree, left to right; errors other than "not found" abort the
// whole traversal immediately, since they indicate corrupt data rather
// than an absent block.
func descend(ctx context.Context, store block.Storage, overlay ng.OverlayID, id ng.Digest, key ng.SymKey, obj *Object, missing *[]ng.Digest) ([][]byte, error) {
	blk, err := store.Get(ctx, overlay, id)
	if errors.Is(err, block.ErrNotFound) {
		*missing = append(*missing, id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	gotID, err := block.ID(blk)
	if err != nil {
		return nil, err
	}
	if gotID != id {
		return nil, ErrInvalidBlockId
	}

	plaintext, err := cryptBlock(key, blk.EncryptedContent)
	if err != nil {
		return nil, err
	}

	if len(blk.Children) == 0 {
		obj.Blocks = append(obj.Blocks, blk)
		return [][]byte{plaintext}, nil
	}

	var wn wireInternalNode
	if err := codec.Default.Unmarshal(plaintext, &wn); err != nil {
		return nil, &block.BlockDeserializeError{Cause: err}
	}
	if len(wn.Keys) != len(blk.Children) {
		return nil, ErrInvalidKeys
	}

	var leaves [][]byte
	for i, childID := range blk.Children {
		childKey := ng.SymKey(wn.Keys[i])
		sub, err := descend(ctx, store, overlay, childID, childKey, obj, missing)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, sub...)
	}
	obj.Blocks = append(obj.Blocks, blk)
	return leaves, nil
}
