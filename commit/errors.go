package commit

import (
	"errors"

	"github.com/nextgraph-org/ng-core/ng"
)

var (
	ErrNotACommit           = errors.New("commit: object content is not a commit")
	ErrNotACommitBody       = errors.New("commit: object content is not a commit body")
	ErrInvalidSignature     = errors.New("commit: signature does not verify")
	ErrPermissionDenied     = errors.New("commit: author lacks a required permission")
	ErrBranchRootMismatch   = errors.New("commit: must_be_root_commit_in_branch disagrees with is_root_commit_of_branch")
	ErrMalformedSyncSigDeps = errors.New("commit: broken SyncSignature dependency chain")
	ErrUnknownBodyKind      = errors.New("commit: unrecognized commit body kind")
)

// MissingBlocksError mirrors object.MissingBlocksError at the commit layer,
// collected across a whole causal-past walk rather than failing on the
// first absent block.
type MissingBlocksError struct {
	IDs []ng.Digest
}

func (e *MissingBlocksError) Error() string { return "commit: missing blocks in causal past" }
