// Package ng holds the identifier types shared by every layer of the commit
// graph: digests, symmetric keys, public keys and signatures. They are kept
// in their own package so that block, object, commit, repo and graph never
// need to import one another just to share a struct tag.
package ng

import "encoding/hex"

// DigestSize is the width of every content identifier in the system.
const DigestSize = 32

// SymKeySize is the width of every symmetric key in the system.
const SymKeySize = 32

// SigSize is the width of a raw Ed25519 signature.
const SigSize = 64

// Digest is a 256-bit content identifier.
type Digest [DigestSize]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d is the all-zero digest (used as "absent").
func (d Digest) IsZero() bool { return d == Digest{} }

// SymKey is a 256-bit symmetric key.
type SymKey [SymKeySize]byte

func (k SymKey) IsZero() bool { return k == SymKey{} }

// PubKey is an Ed25519 public key.
type PubKey [32]byte

func (k PubKey) String() string { return hex.EncodeToString(k[:]) }

// PrivKey is an Ed25519 private key seed (32 bytes, matching
// crypto/ed25519.PrivateKey's seed rather than its expanded 64-byte form).
type PrivKey [32]byte

// Sig is a raw 64-byte Ed25519 signature.
type Sig [SigSize]byte

// BlockId addresses a Block by the hash of its serialized form.
type BlockId = Digest

// ObjectRef is the pair (id, key): the id addresses content, the key
// decrypts it. The id alone never suffices to read an Object or Block.
type ObjectRef struct {
	ID  Digest
	Key SymKey
}

func (r ObjectRef) IsZero() bool { return r.ID.IsZero() && r.Key.IsZero() }

// BlockRef is shape-identical to ObjectRef; used when the referenced content
// is known to be exactly one block rather than a multi-block tree.
type BlockRef = ObjectRef

// OverlayID is an epoch-scoped routing identifier for a repo's outer or
// inner view.
type OverlayID Digest

func (o OverlayID) String() string { return Digest(o).String() }

// RepoID identifies a repository.
type RepoID Digest

// BranchID identifies a branch within a repository.
type BranchID Digest

// TopicID identifies the pub/sub topic a branch's commits are broadcast on.
type TopicID Digest
