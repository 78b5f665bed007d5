package repo

import (
	"github.com/nextgraph-org/ng-core/block"
	"github.com/nextgraph-org/ng-core/commit"
	"github.com/nextgraph-org/ng-core/ng"
)

// Overlay is an epoch-scoped routing identifier for a repo's outer (reader)
// view and, if the repo is opened as a writer, its inner view (spec §3
// "Overlay").
type Overlay struct {
	Outer ng.OverlayID
	Inner *ng.OverlayID
}

// Def is the minimal repository definition carried since the Repository
// commit: its id plus arbitrary creator-supplied metadata (original_source's
// RepositoryV0; this port drops the unused verification_program/fork_of
// fields, which the spec's body taxonomy never references).
type Def struct {
	ID       ng.RepoID
	Metadata []byte
}

// Repo is the in-memory repository representation (spec §3 "Repository
// (in-memory)"), owned exclusively by one verifier.Verifier instance.
type Repo struct {
	ID      ng.RepoID
	Def     Def
	Overlay Overlay

	ReadCap  *ng.ObjectRef
	WriteCap *ng.SymKey

	SignerCap []byte
	InboxCap  *ng.PrivKey

	// CertificateRef records the most recent SyncSignature's signature
	// object reference, attached to the repo by the RootBranch handler and
	// updated by every subsequent SyncSignature (spec §4.5 handler
	// contracts).
	CertificateRef *ng.ObjectRef

	Members  map[ng.Digest]*Member
	Branches map[ng.BranchID]*BranchInfo

	// OpenedBranches tracks which branches this process has opened, and
	// whether as a publisher (spec §3: "opened-branches (mapping
	// BranchId -> is_publisher)").
	OpenedBranches map[ng.BranchID]bool

	Store block.Storage
}

// New builds an empty Repo ready to be populated by a RootBranch commit.
func New(id ng.RepoID, def Def, overlay Overlay, store block.Storage) *Repo {
	return &Repo{
		ID:             id,
		Def:            def,
		Overlay:        overlay,
		Members:        make(map[ng.Digest]*Member),
		Branches:       make(map[ng.BranchID]*BranchInfo),
		OpenedBranches: make(map[ng.BranchID]bool),
		Store:          store,
	}
}

// Branch looks up a branch by id.
func (r *Repo) Branch(id ng.BranchID) (*BranchInfo, error) {
	b, ok := r.Branches[id]
	if !ok {
		return nil, ErrBranchNotFound
	}
	return b, nil
}

// AddBranch records a newly created branch, rejecting a second branch of a
// type that must be a repo-wide singleton (spec §4.4 branch-type
// invariants).
func (r *Repo) AddBranch(b *BranchInfo) error {
	if singleton(b.Type) {
		if existing := r.branchOfType(b.Type); existing != nil {
			return ErrDuplicateBranch
		}
	}
	r.Branches[b.ID] = b
	return nil
}

// RemoveBranch deletes a branch record (spec §3 Lifecycles: "destroyed by
// RemoveBranch").
func (r *Repo) RemoveBranch(id ng.BranchID) {
	delete(r.Branches, id)
	delete(r.OpenedBranches, id)
}

func singleton(t BranchType) bool {
	switch t {
	case BranchRoot, BranchMain, BranchStore, BranchOverlay, BranchUser, BranchHeader:
		return true
	default:
		return false
	}
}

func (r *Repo) branchOfType(t BranchType) *BranchInfo {
	// Deterministic over map iteration: at most one match can exist for a
	// singleton type, so order never matters here.
	for _, b := range r.Branches {
		if b.Type == t {
			return b
		}
	}
	return nil
}

// RootBranch, MainBranch, StoreBranch, OverlayBranch, UserBranch and
// HeaderBranch are the typed-singleton queries of spec §4.4.
func (r *Repo) RootBranch() (*BranchInfo, error)    { return r.singletonOrErr(BranchRoot) }
func (r *Repo) MainBranch() (*BranchInfo, error)    { return r.singletonOrErr(BranchMain) }
func (r *Repo) StoreBranch() (*BranchInfo, error)   { return r.singletonOrErr(BranchStore) }
func (r *Repo) OverlayBranch() (*BranchInfo, error) { return r.singletonOrErr(BranchOverlay) }
func (r *Repo) UserBranch() (*BranchInfo, error)    { return r.singletonOrErr(BranchUser) }
func (r *Repo) HeaderBranch() (*BranchInfo, error)  { return r.singletonOrErr(BranchHeader) }

func (r *Repo) singletonOrErr(t BranchType) (*BranchInfo, error) {
	if b := r.branchOfType(t); b != nil {
		return b, nil
	}
	return nil, ErrBranchNotFound
}

// UpdateBranchCurrentHeads resolves branch and applies the current-heads
// update (spec §4.4 "update_branch_current_heads").
func (r *Repo) UpdateBranchCurrentHeads(branchID ng.BranchID, newHead ng.ObjectRef, past []ng.Digest) ([]ng.ObjectRef, error) {
	b, err := r.Branch(branchID)
	if err != nil {
		return nil, err
	}
	b.UpdateCurrentHeads(newHead, past)
	return b.CurrentHeads, nil
}

// VerifyPermission consults Members[author].Permissions against the
// commit body's required set (spec §4.4 "verify_permission").
func (r *Repo) VerifyPermission(author ng.Digest, body commit.Body) error {
	m, ok := r.Members[author]
	if !ok {
		return ErrMemberNotFound
	}
	if !m.Permissions.Subsumes(body.RequiredPermissions()) {
		return ErrPermissionDenied
	}
	return nil
}

// MemberPubkey resolves an author digest to the member's underlying user
// id (spec §4.4 "member_pubkey").
func (r *Repo) MemberPubkey(author ng.Digest) (ng.PubKey, error) {
	m, ok := r.Members[author]
	if !ok {
		return ng.PubKey{}, ErrMemberNotFound
	}
	return m.UserID, nil
}

// AddMember inserts or overwrites a member record.
func (r *Repo) AddMember(author ng.Digest, userID ng.PubKey, perms commit.Permission) {
	r.Members[author] = &Member{UserID: userID, Permissions: perms}
}

// RemoveMember deletes a member record.
func (r *Repo) RemoveMember(author ng.Digest) {
	delete(r.Members, author)
}
