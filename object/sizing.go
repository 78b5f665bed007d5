package object

// Sizing constants below mirror the accounting in the original Object
// assembler (p2p-repo/src/object.rs): a serialized empty block's overhead,
// the extra bytes a varint-length-prefixed byte field can ever need, and the
// per-entry cost of a (child id, child key) pair in an internal node's
// payload. Ids and keys are flattened to fixed 32-byte arrays in this port
// (no BARE tagged-union byte), so the per-entry cost here is 64, not the
// original's 66.
const (
	emptyBlockOverhead = 12
	dataVarintReserve  = 4
	bigVarintReserve   = 3
	blockIDSize        = 32
	blockKeySize       = 32

	// depListOverflow is the point at which direct-dependency lists stop
	// being stored inline in a commit's header and get spilled into their
	// own DepList object instead (grounded on object.rs's make_deps, which
	// switches to an ObjectDeps::DepListRef past 8 entries).
	depListOverflow = 8

	// minBlockSize is the smallest size New will round a caller-supplied
	// max block size up to.
	minBlockSize = 256
)

// roundUpToValidBlockSize snaps size up to the nearest multiple of 4096,
// floored at minBlockSize and ceilinged at MaxSerializedSize. The original
// store_valid_value_size lives in a sibling crate not present in this
// codebase's source set; this policy captures the same intent (block sizes
// are a small, predictable set of values shared convergently by every
// writer of a store) without depending on undocumented constants.
func roundUpToValidBlockSize(size int) int {
	const granule = 4096
	if size < minBlockSize {
		size = minBlockSize
	}
	rounded := ((size + granule - 1) / granule) * granule
	if rounded > maxSerializedSize {
		rounded = maxSerializedSize
	}
	return rounded
}

const maxSerializedSize = 2 << 20

// leafPayloadSize returns the maximum number of raw content bytes a leaf block of
// validBlockSize can carry.
func leafPayloadSize(validBlockSize int) int {
	n := validBlockSize - emptyBlockOverhead - dataVarintReserve
	if n < 0 {
		return 0
	}
	return n
}

// internalArity returns the maximum number of children an internal node of
// validBlockSize can reference, reserving room for the root's own deps list
// (object.rs's make_tree always leaves this headroom, even for non-root
// internal nodes, to keep the arity uniform across a tree).
func internalArity(validBlockSize int) int {
	n := (validBlockSize - emptyBlockOverhead - bigVarintReserve*2 - depListOverflow*blockIDSize) / (blockIDSize + blockKeySize)
	if n < 1 {
		return 1
	}
	return n
}
