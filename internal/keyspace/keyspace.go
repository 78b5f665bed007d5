// Package keyspace implements the flat key-value prefixing scheme of spec §6
// "Persisted state layout": one family byte per entity class, adapted from
// the teacher's massifs/storageschema path-prefix provider (there: one
// storage-path prefix per storage.ObjectType; here: one key-prefix byte per
// persisted entity family). A real durable KCV backend is an external
// collaborator (spec §1 Non-goals); this package defines and exercises the
// prefixing scheme against block.MemStorage's in-memory key encoding.
package keyspace

import "encoding/binary"

// Family is a one-byte discriminant for a class of persisted entity.
type Family byte

const (
	FamilyTopic Family = iota + 1
	FamilyRepoHash
	FamilyOverlay
	FamilyCommit
	FamilyInbox
	FamilyAccount
	// FamilyBlock is not in spec §6's named family list (that list enumerates
	// the per-user KV families); it is added here so block.MemStorage can use
	// the same prefixing discipline for its block ids, which it keys by id
	// alone (not by overlay).
	FamilyBlock
)

// Key builds a prefixed key: 1 family byte + the raw identifier bytes.
func Key(f Family, id []byte) []byte {
	k := make([]byte, 1+len(id))
	k[0] = byte(f)
	copy(k[1:], id)
	return k
}

// Key2 builds a prefixed key scoped under two identifiers (e.g. overlay then
// block id), matching the "Overlay" reference-counting scope of spec §4.1.
func Key2(f Family, outer, inner []byte) []byte {
	k := make([]byte, 1+len(outer)+len(inner))
	k[0] = byte(f)
	n := copy(k[1:], outer)
	copy(k[1+n:], inner)
	return k
}

// Uint32Key appends a big-endian uint32 suffix, used for author-local
// sequence numbers and massif-style index scans.
func Uint32Key(f Family, id []byte, seq uint32) []byte {
	k := make([]byte, 1+len(id)+4)
	k[0] = byte(f)
	n := copy(k[1:], id)
	binary.BigEndian.PutUint32(k[1+n:], seq)
	return k
}
