package verifier

import "errors"

var (
	// ErrRepoNotFound is returned when a commit names a repo the verifier
	// has no record of yet (and the commit is not itself a Repository/
	// RootBranch commit, which are allowed to create one).
	ErrRepoNotFound = errors.New("verifier: repo not found")
	// ErrAuthorNotMember is returned by verify_permission when the commit's
	// author digest has no membership entry on the target repo.
	ErrAuthorNotMember = errors.New("verifier: author is not a member of this repo")
	// ErrUnhandledKind is returned when a commit body's Kind has no
	// registered CommitHandler, matching spec §9's "reject unknown
	// variants" discipline for the handler dispatch table.
	ErrUnhandledKind = errors.New("verifier: no handler registered for commit kind")
	// ErrBranchTypeMustNotBeRoot is returned by the AddBranch handler when
	// asked to add a second root branch (spec §4.5 "AddBranch(v0): rejects
	// BranchType::Root").
	ErrBranchTypeMustNotBeRoot = errors.New("verifier: AddBranch must not create a root branch")
	// ErrBranchReadCapMismatch is returned by the Branch handler when the
	// existing branch's read cap disagrees with the commit's own reference
	// (spec §4.5 "rejects if the existing branch_info.read_cap !=
	// commit.reference()").
	ErrBranchReadCapMismatch = errors.New("verifier: branch read cap does not match commit reference")
)
