// Package commit implements the Commit Layer (spec §4.3): creating, signing,
// saving, loading and causal-order walking of commits, plus the permission
// model that sits on top of it. The package does not render commit history
// (there is no swimlane layout).
package commit

import (
	"context"
	"crypto/ed25519"
	"errors"
	"sort"

	"github.com/nextgraph-org/ng-core/block"
	"github.com/nextgraph-org/ng-core/internal/codec"
	"github.com/nextgraph-org/ng-core/ng"
	"github.com/nextgraph-org/ng-core/object"
)

// QuorumType mirrors the original's quorum tag on a commit: whether it
// needs no witnesses, a partial quorum, or a total one before being
// considered final.
type QuorumType uint8

const (
	QuorumNone QuorumType = iota
	QuorumPartial
	QuorumTotal
)

// wireContent is CommitContent's exact serialized shape: the part of a
// commit that gets signed.
type wireContent struct {
	Author     [32]byte         `cbor:"1,keyasint"`
	Seq        uint64           `cbor:"2,keyasint"`
	Branch     [32]byte         `cbor:"3,keyasint"`
	Quorum     uint8            `cbor:"4,keyasint"`
	HeaderID   *[32]byte        `cbor:"5,keyasint,omitempty"`
	HeaderKeys CommitHeaderKeys `cbor:"6,keyasint"`
	Metadata   []byte           `cbor:"7,keyasint,omitempty"`
	BodyID     [32]byte         `cbor:"8,keyasint"`
	BodyKey    [32]byte         `cbor:"9,keyasint"`
}

// wireCommit is the root block's plaintext: signed content plus signature.
type wireCommit struct {
	Content wireContent `cbor:"1,keyasint"`
	Sig     [64]byte    `cbor:"2,keyasint"`
}

// Content is the CommitContent structure (spec §4.3): everything that gets
// signed, including the keys (not ids) half of the causal-past split.
type Content struct {
	Author     ng.PubKey
	Seq        uint64
	Branch     ng.BranchID
	Quorum     QuorumType
	HeaderID   *ng.Digest
	HeaderKeys CommitHeaderKeys
	Metadata   []byte
	Body       ng.ObjectRef
}

// Commit is a loaded or freshly constructed commit: its signed content, its
// signature, its own (id, key) once saved or loaded, the ids-only
// CommitHeader (loaded separately, may be nil), and a lazily-loaded body.
type Commit struct {
	Content Content
	Sig     ng.Sig

	ID  ng.Digest
	Key ng.SymKey

	Header    *CommitHeader
	headerKey *ng.SymKey

	body Body
}

// New builds a commit from its causal-past reference sets, splitting each
// into the ids-only CommitHeader and the keys-only CommitHeaderKeys (spec
// §4.3 "Creation"). The returned Commit is neither signed nor saved: Save
// signs its content and assembles and persists its objects.
func New(authorSK ed25519.PrivateKey, authorPK ng.PubKey, seq uint64, branch ng.BranchID,
	quorum QuorumType, deps, ndeps, acks, nacks, refs, nrefs []ng.ObjectRef,
	metadata []byte, body ng.ObjectRef) (*Commit, error) {

	header, headerKeys := splitHeader(deps, ndeps, acks, nacks, refs, nrefs)

	content := Content{
		Author:     authorPK,
		Seq:        seq,
		Branch:     branch,
		Quorum:     quorum,
		HeaderKeys: headerKeys,
		Metadata:   metadata,
		Body:       body,
	}

	return &Commit{
		Content:   content,
		Header:    &header,
		headerKey: nil, // assigned once the header object is created in Save
	}, nil
}

func contentToWire(c Content) wireContent {
	w := wireContent{
		Author:     [32]byte(c.Author),
		Seq:        c.Seq,
		Branch:     [32]byte(c.Branch),
		Quorum:     uint8(c.Quorum),
		HeaderKeys: c.HeaderKeys,
		Metadata:   c.Metadata,
		BodyID:     [32]byte(c.Body.ID),
		BodyKey:    [32]byte(c.Body.Key),
	}
	if c.HeaderID != nil {
		id := [32]byte(*c.HeaderID)
		w.HeaderID = &id
	}
	return w
}

func wireToContent(w wireContent) Content {
	c := Content{
		Author:     ng.PubKey(w.Author),
		Seq:        w.Seq,
		Branch:     ng.BranchID(w.Branch),
		Quorum:     QuorumType(w.Quorum),
		HeaderKeys: w.HeaderKeys,
		Metadata:   w.Metadata,
		Body:       ng.ObjectRef{ID: ng.Digest(w.BodyID), Key: ng.SymKey(w.BodyKey)},
	}
	if w.HeaderID != nil {
		id := ng.Digest(*w.HeaderID)
		c.HeaderID = &id
	}
	return c
}

// Save assembles the header Object (if non-empty) and the commit Object,
// signs the content, and writes every block to store (spec §4.3 "Save":
// "Writes the commit body object, then the header object, then the commit
// root block" - the body object is expected to already be saved by the
// caller, since Body only carries its ObjectRef here).
func (c *Commit) Save(ctx context.Context, authorSK ed25519.PrivateKey, store block.Storage,
	overlay ng.OverlayID, blockSize int, storeSecret ng.SymKey, storePub ng.PubKey) (ng.ObjectRef, error) {

	var headerKey *ng.SymKey
	if !c.Header.IsEmpty() {
		headerBytes, err := codec.Default.Marshal(*c.Header)
		if err != nil {
			return ng.ObjectRef{}, err
		}
		headerObj, err := object.New(headerBytes, nil, blockSize, storeSecret, storePub)
		if err != nil {
			return ng.ObjectRef{}, err
		}
		if _, err := headerObj.Save(ctx, store, overlay); err != nil {
			return ng.ObjectRef{}, err
		}
		id := headerObj.RootID
		c.Content.HeaderID = &id
		headerKey = &headerObj.RootKey
	}
	c.headerKey = headerKey

	contentBytes, err := codec.Default.Marshal(contentToWire(c.Content))
	if err != nil {
		return ng.ObjectRef{}, err
	}
	sig := ed25519.Sign(authorSK, contentBytes)
	copy(c.Sig[:], sig)

	wc := wireCommit{Content: contentToWire(c.Content), Sig: [64]byte(c.Sig)}
	commitBytes, err := codec.Default.Marshal(wc)
	if err != nil {
		return ng.ObjectRef{}, err
	}

	obj, err := object.New(commitBytes, headerKey, blockSize, storeSecret, storePub)
	if err != nil {
		return ng.ObjectRef{}, err
	}
	ref, err := obj.Save(ctx, store, overlay)
	if err != nil {
		return ng.ObjectRef{}, err
	}
	c.ID = ref.ID
	c.Key = ref.Key
	return ref, nil
}

// Load reconstructs a Commit from its ObjectRef and, if the header object
// is reachable, loads the ids-only CommitHeader too (spec §4.3 "Load"). It
// does not check the signature; VerifySignature does that.
func Load(ctx context.Context, ref ng.ObjectRef, store block.Storage, overlay ng.OverlayID) (*Commit, error) {
	obj, err := object.Load(ctx, ref, store, overlay, true)
	if err != nil {
		return nil, err
	}
	var wc wireCommit
	if err := codec.Default.Unmarshal(obj.Content, &wc); err != nil {
		return nil, ErrNotACommit
	}

	c := &Commit{
		Content: wireToContent(wc.Content),
		Sig:     ng.Sig(wc.Sig),
		ID:      ref.ID,
		Key:     ref.Key,
	}

	root := obj.Blocks[len(obj.Blocks)-1]
	c.headerKey = root.CommitHeaderKey

	if c.Content.HeaderID != nil && c.headerKey != nil {
		headerRef := ng.ObjectRef{ID: *c.Content.HeaderID, Key: *c.headerKey}
		headerObj, err := object.Load(ctx, headerRef, store, overlay, true)
		if err != nil {
			return nil, err
		}
		var h CommitHeader
		if err := codec.Default.Unmarshal(headerObj.Content, &h); err != nil {
			return nil, err
		}
		c.Header = &h
	}

	return c, nil
}

// VerifySignature checks the Ed25519 signature over the commit's content
// against its declared author.
func (c *Commit) VerifySignature() error {
	contentBytes, err := codec.Default.Marshal(contentToWire(c.Content))
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(c.Content.Author[:]), contentBytes, c.Sig[:]) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifyPermission checks held against the body's required permissions.
func VerifyPermission(held Permission, body Body) error {
	if !held.Subsumes(body.RequiredPermissions()) {
		return ErrPermissionDenied
	}
	return nil
}

// Body returns the commit's body, loading it from store on first access.
func (c *Commit) Body(ctx context.Context, store block.Storage, overlay ng.OverlayID) (Body, error) {
	if c.body != nil {
		return c.body, nil
	}
	obj, err := object.Load(ctx, c.Content.Body, store, overlay, true)
	if err != nil {
		return nil, err
	}
	body, err := DecodeBody(obj.Content)
	if err != nil {
		return nil, err
	}
	c.body = body
	return body, nil
}

// IsRootCommitOfBranch reports whether this commit has no causal past at
// all, the shape spec §4.3 requires of a branch's opening commit.
func (c *Commit) IsRootCommitOfBranch() bool {
	return c.Header.IsEmpty()
}

// DirectCausalPast yields the ObjectRefs of every ack, nack and dep that
// also carries a key in HeaderKeys; entries with an id but no key are
// advertised-only and are skipped (spec §4.3 "Causal-past iteration").
func (c *Commit) DirectCausalPast() []ng.ObjectRef {
	if c.Header == nil {
		return nil
	}
	var out []ng.ObjectRef
	zip := func(ids []ng.Digest, keys []ng.SymKey) {
		for i, id := range ids {
			if i < len(keys) && !keys[i].IsZero() {
				out = append(out, ng.ObjectRef{ID: id, Key: keys[i]})
			}
		}
	}
	zip(c.Header.Acks, c.Content.HeaderKeys.Acks)
	zip(c.Header.NAcks, c.Content.HeaderKeys.NAcks)
	zip(c.Header.Deps, c.Content.HeaderKeys.Deps)
	return out
}

// VerifyFullObjectRefsOfBranchAtCommit BFS-walks the causal past of root,
// loading each commit's body to enforce that
// body.MustBeRootCommitInBranch() agrees with commit.IsRootCommitOfBranch(),
// and collects every block missing along the way (spec §4.3). On success it
// returns every visited commit id, sorted for determinism.
func VerifyFullObjectRefsOfBranchAtCommit(ctx context.Context, root *Commit, store block.Storage, overlay ng.OverlayID) ([]ng.Digest, error) {
	visited := map[ng.Digest]bool{}
	var missing []ng.Digest
	queue := []*Commit{root}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.ID] {
			continue
		}
		visited[cur.ID] = true

		body, err := cur.Body(ctx, store, overlay)
		if mbe, ok := asMissingBlocks(err); ok {
			missing = append(missing, mbe.IDs...)
			continue
		}
		if err != nil {
			return nil, err
		}
		if body.MustBeRootCommitInBranch() != cur.IsRootCommitOfBranch() {
			return nil, ErrBranchRootMismatch
		}

		for _, ref := range cur.DirectCausalPast() {
			child, err := Load(ctx, ref, store, overlay)
			if mbe, ok := asMissingBlocks(err); ok {
				missing = append(missing, mbe.IDs...)
				continue
			}
			if err != nil {
				return nil, err
			}
			queue = append(queue, child)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingBlocksError{IDs: missing}
	}

	ids := make([]ng.Digest, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func asMissingBlocks(err error) (*object.MissingBlocksError, bool) {
	var mbe *object.MissingBlocksError
	ok := errors.As(err, &mbe)
	return mbe, ok
}
