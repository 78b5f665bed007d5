// Package block implements the content-addressed, encrypted, fixed-size
// block storage layer of the commit graph (spec §4.1): the Merkle-tree leaf
// and internal-node unit, its wire format, and a concurrency-safe backend.
package block

import (
	"github.com/nextgraph-org/ng-core/internal/codec"
	"github.com/nextgraph-org/ng-core/ng"
	"lukechampine.com/blake3"
)

// MaxSerializedSize is the system-wide ceiling on a single block's
// serialized size (spec §3: "target: under 2 MiB by default").
const MaxSerializedSize = 2 << 20

// wireVersion is bumped whenever the serialized layout changes incompatibly.
const wireVersion = 1

// Block is the atomic, immutable unit of storage: a node of the Merkle tree
// that makes up an Object (spec §3).
type Block struct {
	// Children holds the ids of the immediate child blocks in the Merkle
	// tree, in tree order. Empty for a leaf block.
	Children []ng.Digest

	// CommitHeaderKey is present only when this block is the root of a
	// commit's own Object (the one Commit.Save assembles from the signed
	// content, not the body Object) and that commit has a non-trivial CommitHeader
	// object; it carries the key needed to decrypt that header object.
	CommitHeaderKey *ng.SymKey

	// EncryptedContent is this block's ciphertext payload: for a leaf, a
	// chunk of the Object's plaintext; for an internal node, the serialized
	// list of child symmetric keys (see object.wireInternalNode).
	EncryptedContent []byte
}

// wireBlock is the exact CBOR-serialized shape; kept separate from Block so
// that Block's exported shape (pointer fields, typed ids) stays idiomatic
// while the wire form stays a flat, versioned struct.
type wireBlock struct {
	Version  uint8      `cbor:"1,keyasint"`
	Children [][32]byte `cbor:"2,keyasint"`
	HdrKey   *[32]byte  `cbor:"3,keyasint,omitempty"`
	Content  []byte     `cbor:"4,keyasint"`
}

// Encode serializes b deterministically. Two independently constructed
// Blocks with equal field values always encode to equal bytes.
func Encode(b *Block) ([]byte, error) {
	w := wireBlock{
		Version:  wireVersion,
		Children: make([][32]byte, len(b.Children)),
		Content:  b.EncryptedContent,
	}
	for i, c := range b.Children {
		w.Children[i] = c
	}
	if b.CommitHeaderKey != nil {
		k := [32]byte(*b.CommitHeaderKey)
		w.HdrKey = &k
	}
	return codec.Default.Marshal(w)
}

// Decode deserializes a block previously produced by Encode, rejecting
// anything over MaxSerializedSize and any version it doesn't recognise.
func Decode(data []byte) (*Block, error) {
	if len(data) > MaxSerializedSize {
		return nil, ErrBlockTooLarge
	}
	var w wireBlock
	if err := codec.Default.Unmarshal(data, &w); err != nil {
		return nil, &BlockDeserializeError{Cause: err}
	}
	if w.Version != wireVersion {
		return nil, ErrUnsupportedBlockVersion
	}
	b := &Block{
		Children:         make([]ng.Digest, len(w.Children)),
		EncryptedContent: w.Content,
	}
	for i, c := range w.Children {
		b.Children[i] = ng.Digest(c)
	}
	if w.HdrKey != nil {
		k := ng.SymKey(*w.HdrKey)
		b.CommitHeaderKey = &k
	}
	return b, nil
}

// ID computes the content-addressed id of b: the hash of its serialized
// form. The id never covers any ephemeral decryption key held alongside the
// block (spec §3); it covers only what Encode produces.
func ID(b *Block) (ng.Digest, error) {
	data, err := Encode(b)
	if err != nil {
		return ng.Digest{}, err
	}
	return IDOfBytes(data), nil
}

// IDOfBytes hashes already-serialized block bytes.
func IDOfBytes(data []byte) ng.Digest {
	return ng.Digest(blake3.Sum256(data))
}
