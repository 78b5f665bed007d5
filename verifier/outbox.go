package verifier

import (
	"context"
	"sync"

	"github.com/nextgraph-org/ng-core/ng"
)

// subscriber is one open AppResponse stream: a bounded channel plus the
// context whose cancellation signals the subscriber has gone away.
type subscriber struct {
	ctx context.Context
	ch  chan AppResponse
}

// outbox fans AppResponse values out to every subscriber of a branch,
// adapted from the teacher's massifs/watcher tail-collation pattern: each
// subscriber owns its own bounded channel, and a sweep on every dispatch
// drops entries whose context has been cancelled instead of maintaining a
// separate unsubscribe list (spec §5 "opportunistic... on the next
// broadcast" sweep policy).
type outbox struct {
	mu       sync.Mutex
	byBranch map[ng.BranchID][]*subscriber
}

func newOutbox() *outbox {
	return &outbox{byBranch: make(map[ng.BranchID][]*subscriber)}
}

// Subscribe registers a new subscriber for branchID and returns the
// channel it should read from. The subscription is implicitly dropped once
// ctx is cancelled; the next Publish call to this branch performs the
// sweep (spec §4.7 "When the receiver channel closes, the verifier's
// subscription sweep drops the entry").
func (o *outbox) Subscribe(ctx context.Context, branchID ng.BranchID, buffer int) <-chan AppResponse {
	o.mu.Lock()
	defer o.mu.Unlock()
	sub := &subscriber{ctx: ctx, ch: make(chan AppResponse, buffer)}
	o.byBranch[branchID] = append(o.byBranch[branchID], sub)
	return sub.ch
}

// Publish delivers resp to every live subscriber of branchID, dropping
// (and closing the channel of) any subscriber whose context has since
// been cancelled. A send that would block past ctx.Done() is abandoned for
// that one subscriber rather than stalling the whole ingest loop (spec §5
// Suspension points (b): "bounded back-pressure").
func (o *outbox) Publish(branchID ng.BranchID, resp AppResponse) {
	o.mu.Lock()
	defer o.mu.Unlock()

	subs := o.byBranch[branchID]
	kept := subs[:0]
	for _, sub := range subs {
		select {
		case <-sub.ctx.Done():
			close(sub.ch)
			continue
		default:
		}
		select {
		case sub.ch <- resp:
			kept = append(kept, sub)
		case <-sub.ctx.Done():
			close(sub.ch)
		}
	}
	if len(kept) == 0 {
		delete(o.byBranch, branchID)
		return
	}
	o.byBranch[branchID] = kept
}
