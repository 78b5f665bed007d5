package repo

import "errors"

var (
	ErrBranchNotFound   = errors.New("repo: branch not found")
	ErrRepoNotFound     = errors.New("repo: repository not found")
	ErrPermissionDenied = errors.New("repo: author lacks a required permission")
	ErrMemberNotFound   = errors.New("repo: member not found")
	ErrDuplicateBranch  = errors.New("repo: a branch of this singleton type already exists")
	ErrInvalidBranch    = errors.New("repo: branch state is invalid for this operation")
)
