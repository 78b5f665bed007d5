package commit

import (
	"github.com/nextgraph-org/ng-core/internal/codec"
	"github.com/nextgraph-org/ng-core/ng"
)

// Kind tags which CommitBody variant a commit carries, the discriminant of
// the tagged union described in spec.md §4.5/§9 "Tagged variants".
type Kind uint8

const (
	KindRepository Kind = iota + 1
	KindRootBranch
	KindUpdateRootBranch
	KindBranch
	KindUpdateBranch
	KindAddBranch
	KindRemoveBranch
	KindAddMember
	KindRemoveMember
	KindAddPermission
	KindRemovePermission
	KindAddSignerCap
	KindRemoveSignerCap
	KindAddInboxCap
	KindAddRepo
	KindRemoveRepo
	KindAddName
	KindRemoveName
	KindAddFile
	KindRemoveFile
	KindSnapshot
	KindCompact
	KindAsyncTransaction
	KindSyncTransaction
	KindAsyncSignature
	KindSyncSignature
	KindStoreUpdate
	KindRootCapRefresh
	KindBranchCapRefresh
)

// Body is the behaviour every CommitBody variant must implement: its own
// kind tag, the permissions required to author it, and whether it may only
// ever appear as a branch's root commit (spec §4.3's
// must_be_root_commit_in_branch).
type Body interface {
	Kind() Kind
	RequiredPermissions() Permission
	MustBeRootCommitInBranch() bool
}

// baseBody gives MustBeRootCommitInBranch its common false default; every
// Body variant below embeds it except the four whose root-commit rule
// differs (RootBranch, Branch, and their Update* variants, which embed or
// override it directly).
type baseBody struct{}

func (baseBody) MustBeRootCommitInBranch() bool { return false }

// Repository commit: no state change, exists only so its id can anchor the
// repo (spec §4.5 handler contracts).
type Repository struct{ baseBody }

func (Repository) Kind() Kind                      { return KindRepository }
func (Repository) RequiredPermissions() Permission { return PermCreate }

// RootBranch establishes a repo's root branch; must be the root commit of
// that branch.
type RootBranch struct {
	TopicPrivKeyCiphertext []byte
	OwnersWriteCap         []byte
	CertificateRef         *ng.ObjectRef
}

func (RootBranch) Kind() Kind                      { return KindRootBranch }
func (RootBranch) RequiredPermissions() Permission { return PermOwner }
func (RootBranch) MustBeRootCommitInBranch() bool  { return true }

type UpdateRootBranch struct {
	RootBranch
}

func (UpdateRootBranch) Kind() Kind                      { return KindUpdateRootBranch }
func (UpdateRootBranch) RequiredPermissions() Permission { return PermAdmin }

// Branch establishes a non-root branch; must be its root commit.
type Branch struct {
	RepositoryRef          ng.ObjectRef
	TopicPrivKeyCiphertext []byte
	ReadCap                ng.ObjectRef
}

func (Branch) Kind() Kind                      { return KindBranch }
func (Branch) RequiredPermissions() Permission { return PermAddBranch }
func (Branch) MustBeRootCommitInBranch() bool  { return true }

type UpdateBranch struct {
	Branch
}

func (UpdateBranch) Kind() Kind                      { return KindUpdateBranch }
func (UpdateBranch) RequiredPermissions() Permission { return PermAdmin }

type AddBranch struct {
	baseBody
	BranchID      ng.BranchID
	BranchType    uint8
	Topic         ng.TopicID
	BranchReadCap ng.ObjectRef
	ForkOf        *ng.BranchID
	MergedIn      *ng.BranchID
	CRDT          uint8
}

func (AddBranch) Kind() Kind                      { return KindAddBranch }
func (AddBranch) RequiredPermissions() Permission { return PermAddBranch }

type RemoveBranch struct {
	baseBody
	BranchID ng.BranchID
}

func (RemoveBranch) Kind() Kind                      { return KindRemoveBranch }
func (RemoveBranch) RequiredPermissions() Permission { return PermRemoveBranch }

type AddMember struct {
	baseBody
	Member      ng.Digest
	Permissions Permission
}

func (AddMember) Kind() Kind                      { return KindAddMember }
func (AddMember) RequiredPermissions() Permission { return PermAddReadMember }

type RemoveMember struct {
	baseBody
	Member ng.Digest
}

func (RemoveMember) Kind() Kind                      { return KindRemoveMember }
func (RemoveMember) RequiredPermissions() Permission { return PermRemoveMember }

type AddPermission struct {
	baseBody
	Member     ng.Digest
	Permission Permission
}

func (p AddPermission) Kind() Kind { return KindAddPermission }

// RequiredPermissions escalates with the permission being granted: granting
// Admin or Owner itself requires Owner (spec §4.3's
// "AddPermission(p) -> {Create, Admin?, AddWritePermission?} depending on p").
func (p AddPermission) RequiredPermissions() Permission {
	if p.Permission&(PermOwner|PermAdmin) != 0 {
		return PermOwner
	}
	return PermCreate | PermAddWriteMember
}

type RemovePermission struct {
	baseBody
	Member     ng.Digest
	Permission Permission
}

func (RemovePermission) Kind() Kind                      { return KindRemovePermission }
func (RemovePermission) RequiredPermissions() Permission { return PermAdmin }

type AddSignerCap struct {
	baseBody
	SignerCap []byte
}

func (AddSignerCap) Kind() Kind                      { return KindAddSignerCap }
func (AddSignerCap) RequiredPermissions() Permission { return PermSign }

type RemoveSignerCap struct{ baseBody }

func (RemoveSignerCap) Kind() Kind                      { return KindRemoveSignerCap }
func (RemoveSignerCap) RequiredPermissions() Permission { return PermAdmin }

type AddInboxCap struct {
	baseBody
	InboxCap []byte
}

func (AddInboxCap) Kind() Kind                      { return KindAddInboxCap }
func (AddInboxCap) RequiredPermissions() Permission { return PermInbox }

type AddRepo struct {
	baseBody
	RepoRef ng.ObjectRef
}

func (AddRepo) Kind() Kind                      { return KindAddRepo }
func (AddRepo) RequiredPermissions() Permission { return PermAdmin }

type RemoveRepo struct {
	baseBody
	RepoID ng.RepoID
}

func (RemoveRepo) Kind() Kind                      { return KindRemoveRepo }
func (RemoveRepo) RequiredPermissions() Permission { return PermAdmin }

type AddName struct {
	baseBody
	Name string
	Ref  ng.ObjectRef
}

func (AddName) Kind() Kind                      { return KindAddName }
func (AddName) RequiredPermissions() Permission { return PermChangeName }

type RemoveName struct {
	baseBody
	Name string
}

func (RemoveName) Kind() Kind                      { return KindRemoveName }
func (RemoveName) RequiredPermissions() Permission { return PermChangeName }

type AddFile struct {
	baseBody
	Name string
	Ref  ng.ObjectRef
}

func (AddFile) Kind() Kind                      { return KindAddFile }
func (AddFile) RequiredPermissions() Permission { return PermWriteSync }

type RemoveFile struct {
	baseBody
	Name string
}

func (RemoveFile) Kind() Kind                      { return KindRemoveFile }
func (RemoveFile) RequiredPermissions() Permission { return PermWriteSync }

type Snapshot struct {
	baseBody
	SnapshotRef ng.ObjectRef
}

func (Snapshot) Kind() Kind                      { return KindSnapshot }
func (Snapshot) RequiredPermissions() Permission { return PermWriteSync }

type Compact struct {
	baseBody
	Ref ng.ObjectRef
}

func (Compact) Kind() Kind                      { return KindCompact }
func (Compact) RequiredPermissions() Permission { return PermCompact }

// AsyncTransaction carries a serialized TransactionBody{Graph?, Discrete?}
// (spec §4.5/§4.6). The bytes are opaque at the commit layer; graph/discrete
// decode and apply them.
type AsyncTransaction struct {
	baseBody
	Body []byte
}

func (AsyncTransaction) Kind() Kind                      { return KindAsyncTransaction }
func (AsyncTransaction) RequiredPermissions() Permission { return PermWriteAsync }

type SyncTransaction struct {
	baseBody
	Body []byte
}

func (SyncTransaction) Kind() Kind                      { return KindSyncTransaction }
func (SyncTransaction) RequiredPermissions() Permission { return PermWriteSync }

// AsyncSignature carries a reference to a "signature object" (a COSE_Sign1
// envelope, see signature.go) confirming a set of already-applied commits.
type AsyncSignature struct {
	baseBody
	SignatureRef ng.ObjectRef
}

func (AsyncSignature) Kind() Kind                      { return KindAsyncSignature }
func (AsyncSignature) RequiredPermissions() Permission { return PermSign }

// SyncSignature is the same, but its commit has exactly one dep and one ack
// and stands for the whole chain between them (spec §4.3 "SyncSignature
// chaining").
type SyncSignature struct {
	baseBody
	SignatureRef ng.ObjectRef
}

func (SyncSignature) Kind() Kind                      { return KindSyncSignature }
func (SyncSignature) RequiredPermissions() Permission { return PermSign }

type StoreUpdate struct {
	baseBody
	Body []byte
}

func (StoreUpdate) Kind() Kind                      { return KindStoreUpdate }
func (StoreUpdate) RequiredPermissions() Permission { return PermAdmin }

type RootCapRefresh struct {
	baseBody
	NewCap []byte
}

func (RootCapRefresh) Kind() Kind                      { return KindRootCapRefresh }
func (RootCapRefresh) RequiredPermissions() Permission { return PermRefreshCap }

type BranchCapRefresh struct {
	baseBody
	NewCap []byte
}

func (BranchCapRefresh) Kind() Kind                      { return KindBranchCapRefresh }
func (BranchCapRefresh) RequiredPermissions() Permission { return PermRefreshCap }

// wireBody is the CBOR envelope around a concrete Body: a kind tag plus the
// kind-specific payload, serialized independently so decoding doesn't need
// reflection over an open interface.
type wireBody struct {
	Kind    uint8  `cbor:"1,keyasint"`
	Payload []byte `cbor:"2,keyasint"`
}

// EncodeBody serializes any Body implementation into its wire envelope.
func EncodeBody(b Body) ([]byte, error) {
	payload, err := codec.Default.Marshal(b)
	if err != nil {
		return nil, err
	}
	return codec.Default.Marshal(wireBody{Kind: uint8(b.Kind()), Payload: payload})
}

// DecodeBody parses a wire envelope back into its concrete Body.
func DecodeBody(data []byte) (Body, error) {
	var w wireBody
	if err := codec.Default.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	ctor, ok := bodyConstructors[Kind(w.Kind)]
	if !ok {
		return nil, ErrUnknownBodyKind
	}
	return ctor(w.Payload)
}

var bodyConstructors = map[Kind]func([]byte) (Body, error){
	KindRepository:       decodeInto(func() Body { return &Repository{} }),
	KindRootBranch:       decodeInto(func() Body { return &RootBranch{} }),
	KindUpdateRootBranch: decodeInto(func() Body { return &UpdateRootBranch{} }),
	KindBranch:           decodeInto(func() Body { return &Branch{} }),
	KindUpdateBranch:     decodeInto(func() Body { return &UpdateBranch{} }),
	KindAddBranch:        decodeInto(func() Body { return &AddBranch{} }),
	KindRemoveBranch:     decodeInto(func() Body { return &RemoveBranch{} }),
	KindAddMember:        decodeInto(func() Body { return &AddMember{} }),
	KindRemoveMember:     decodeInto(func() Body { return &RemoveMember{} }),
	KindAddPermission:    decodeInto(func() Body { return &AddPermission{} }),
	KindRemovePermission: decodeInto(func() Body { return &RemovePermission{} }),
	KindAddSignerCap:     decodeInto(func() Body { return &AddSignerCap{} }),
	KindRemoveSignerCap:  decodeInto(func() Body { return &RemoveSignerCap{} }),
	KindAddInboxCap:      decodeInto(func() Body { return &AddInboxCap{} }),
	KindAddRepo:          decodeInto(func() Body { return &AddRepo{} }),
	KindRemoveRepo:       decodeInto(func() Body { return &RemoveRepo{} }),
	KindAddName:          decodeInto(func() Body { return &AddName{} }),
	KindRemoveName:       decodeInto(func() Body { return &RemoveName{} }),
	KindAddFile:          decodeInto(func() Body { return &AddFile{} }),
	KindRemoveFile:       decodeInto(func() Body { return &RemoveFile{} }),
	KindSnapshot:         decodeInto(func() Body { return &Snapshot{} }),
	KindCompact:          decodeInto(func() Body { return &Compact{} }),
	KindAsyncTransaction: decodeInto(func() Body { return &AsyncTransaction{} }),
	KindSyncTransaction:  decodeInto(func() Body { return &SyncTransaction{} }),
	KindAsyncSignature:   decodeInto(func() Body { return &AsyncSignature{} }),
	KindSyncSignature:    decodeInto(func() Body { return &SyncSignature{} }),
	KindStoreUpdate:      decodeInto(func() Body { return &StoreUpdate{} }),
	KindRootCapRefresh:   decodeInto(func() Body { return &RootCapRefresh{} }),
	KindBranchCapRefresh: decodeInto(func() Body { return &BranchCapRefresh{} }),
}

// decodeInto builds a bodyConstructors entry from a zero-value factory,
// handling both the value-receiver (no-field) bodies and pointer-receiver
// ones uniformly via a CBOR round trip into the concrete type.
func decodeInto(zero func() Body) func([]byte) (Body, error) {
	return func(payload []byte) (Body, error) {
		v := zero()
		if len(payload) == 0 {
			return v, nil
		}
		if err := codec.Default.Unmarshal(payload, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
