package commit

import "context"

// WalkSyncSignatureChain validates and walks the linear dep chain a
// SyncSignature commit vouches for: sig has exactly one dep and one ack,
// and every intermediate commit between them has exactly one dep (spec
// §4.3 "SyncSignature chaining"). It returns every commit it walked, in
// walk order: the deps[0] commit first and the acks[0] commit last, both
// included; sig itself is not included.
func WalkSyncSignatureChain(ctx context.Context, sig *Commit, loader func(context.Context, HeaderRef) (*Commit, error)) ([]*Commit, error) {
	if sig.Header == nil || len(sig.Header.Deps) != 1 || len(sig.Header.Acks) != 1 {
		return nil, ErrMalformedSyncSigDeps
	}
	ackID := sig.Header.Acks[0]

	depKeys := sig.Content.HeaderKeys.Deps
	if len(depKeys) != 1 || depKeys[0].IsZero() {
		return nil, ErrMalformedSyncSigDeps
	}

	var chain []*Commit
	cur := HeaderRef{ID: sig.Header.Deps[0], Key: depKeys[0]}
	for {
		c, err := loader(ctx, cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
		if c.ID == ackID {
			return chain, nil
		}
		if c.Header == nil || len(c.Header.Deps) != 1 {
			return nil, ErrMalformedSyncSigDeps
		}
		keys := c.Content.HeaderKeys.Deps
		if len(keys) != 1 || keys[0].IsZero() {
			return nil, ErrMalformedSyncSigDeps
		}
		cur = HeaderRef{ID: c.Header.Deps[0], Key: keys[0]}
	}
}

// HeaderRef is a (id, key) pair addressing a commit reachable only through
// a CommitHeader id list plus the matching HeaderKeys entry - the same
// shape as ng.ObjectRef, named separately so call sites read as "a causal
// reference", not "any object".
type HeaderRef struct {
	ID  [32]byte
	Key [32]byte
}
