package bloom

/*

# Bloom primitives for the block store's existence pre-check

This package provides primitive building blocks for a Bloom filter backing
the "have I already seen this 32-byte digest" pre-check block.MemStorage
consults before taking its map lock (see filter.go's Set and
block/memstore.go's use of it).

It keeps the small, composable, explicit-byte-layout style of the rest of
this module:

- small, composable functions
- explicit byte layouts
- index arithmetic on byte slices
- a burden of knowledge on the caller for hot paths

## What Bloom filters are (and are not)

Bloom filters provide a *probabilistic prefilter*:

- If the filter says "definitely not present", then the element is not present.
- If the filter says "maybe present", then the element may or may not be present
  (false positives are possible).

Bloom filters are NOT cryptographic commitments and do not provide proofs of
exclusion. They are only an I/O optimization: block.MemStorage uses one to
skip a map lookup for ids it has definitely never seen.

## Region layout

Each region holds exactly one bitset, sized for the caller's expected element
count:

	+----------------------+  32B header (magic, version, params)
	| HeaderV1             |
	+----------------------+  bitset bytes
	| bitset               |
	+----------------------+

## Indexing and bit numbering

We use deterministic double-hashing and an explicit bit numbering convention.

## API versioning: why the `V1` suffix exists

Functions in this package are suffixed with a format version (for example
`InitV1`, `InsertV1`, `MaybeContainsV1`).

The suffix means: this function implements Bloom format version 1, i.e. it
assumes a specific serialized header layout (magic/version/fields), bit
numbering convention, and hashing/index-derivation rules.

This is deliberate: it allows a future incompatible change (a different hash
scheme, a different bit order, etc.) to be introduced as `V2` side-by-side,
without silently breaking previously persisted data.

*/
