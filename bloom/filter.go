package bloom

import "sync"

// Set is a concurrency-safe existence pre-check over 32-byte digests, built
// on the V1 single-bitset region format above.
type Set struct {
	mu     sync.Mutex
	region []byte
}

const defaultK uint8 = 4
const defaultBitsPerElement uint64 = 10

// NewSet allocates a Set sized for approximately capacity elements.
func NewSet(capacity int) (*Set, error) {
	if capacity <= 0 {
		capacity = 1
	}
	region := make([]byte, RegionBytesV1(MBitsSafeCast(MBitsV1(uint64(capacity), defaultBitsPerElement))))
	if err := InitV1(region, uint64(capacity), defaultBitsPerElement, defaultK); err != nil {
		return nil, err
	}
	return &Set{region: region}, nil
}

// Add records elem as present.
func (s *Set) Add(elem [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return InsertV1(s.region, elem[:])
}

// MaybeContains reports whether elem might have been added. false is a
// definitive "no"; true requires a fallback authoritative lookup.
func (s *Set) MaybeContains(elem [32]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := MaybeContainsV1(s.region, elem[:])
	if err != nil {
		// A malformed region is a programmer error in this package, not a
		// caller-visible failure mode; treat it as "can't rule it out".
		return true
	}
	return ok
}
