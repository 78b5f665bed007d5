// Package idgen produces the idtimestamp-shaped ordinals used by
// graph.PastIndex. It is a compact adaptation of the teacher's
// massifs/snowflakeid package: system clock milliseconds in the high bits,
// a node identifier (derived from the first private IPv4 address found, the
// same discovery the teacher uses) in the middle bits, and a per-millisecond
// counter in the low bits, so one Generator's ids strictly increase without
// coordination. Generators on the same host derive the same node id, so two
// of them can return equal ids within the same millisecond.
package idgen

import (
	"errors"
	"net"
	"sync"
	"time"
)

const (
	timeBits  = 41
	nodeBits  = 10
	seqBits   = 12
	maxNode   = (1 << nodeBits) - 1
	maxSeq    = (1 << seqBits) - 1
	nodeShift = seqBits
	timeShift = seqBits + nodeBits
)

var ErrClockRewind = errors.New("idgen: system clock moved backwards")

// Generator produces strictly increasing 64-bit ids, matching the teacher's
// nextid.go contract: NextID never returns a value <= a previously returned
// value from the same Generator.
type Generator struct {
	mu       sync.Mutex
	epochMs  int64
	node     uint64
	lastMs   int64
	seq      uint64
	nowMilli func() int64
}

// New builds a Generator. epoch is the reference instant ids are offset
// from (NextGraph rolls its own commitment epoch roughly every 17 years, as
// the teacher's massifs.MMRState.CommitmentEpoch does).
func New(epoch time.Time) (*Generator, error) {
	node, err := privateNodeID()
	if err != nil {
		return nil, err
	}
	return &Generator{
		epochMs:  epoch.UnixMilli(),
		node:     node,
		nowMilli: func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// NextID returns the next id for this generator, blocking briefly if the
// per-millisecond sequence space is exhausted.
func (g *Generator) NextID() (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.nowMilli() - g.epochMs
	if ms < g.lastMs {
		return 0, ErrClockRewind
	}
	if ms == g.lastMs {
		g.seq = (g.seq + 1) & maxSeq
		if g.seq == 0 {
			// Sequence exhausted for this millisecond; spin to the next one.
			for ms <= g.lastMs {
				ms = g.nowMilli() - g.epochMs
			}
		}
	} else {
		g.seq = 0
	}
	g.lastMs = ms

	id := (uint64(ms) << timeShift) | (g.node << nodeShift) | g.seq
	return id, nil
}

// privateNodeID derives a stable node identifier from the first private
// IPv4 address bound to this host, the same discovery strategy as the
// teacher's snowflakeid/privateip.go.
func privateNodeID() (uint64, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0, err
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil || !isPrivateIPv4(ip4) {
			continue
		}
		node := (uint64(ip4[2])<<8 | uint64(ip4[3])) & maxNode
		return node, nil
	}
	// No private IPv4 found (containers without one, CI sandboxes): fall
	// back to a fixed node id rather than failing id generation outright.
	return 1, nil
}

func isPrivateIPv4(ip net.IP) bool {
	switch {
	case ip[0] == 10:
		return true
	case ip[0] == 172 && ip[1] >= 16 && ip[1] <= 31:
		return true
	case ip[0] == 192 && ip[1] == 168:
		return true
	default:
		return false
	}
}
