package object

import (
	"errors"

	"github.com/nextgraph-org/ng-core/ng"
)

// Structural errors produced while assembling or loading an Object
// (spec §4.2 "Failures").
var (
	ErrInvalidBlockId = errors.New("object: block id does not match hash of its content")
	ErrInvalidKeys    = errors.New("object: internal node child-key count does not match child count")
	ErrEmptyTree      = errors.New("object: object has no blocks")
)

// MissingBlocksError is returned - never panicked - when Load cannot
// complete a breadth-first descent because one or more blocks are absent
// from the store. Callers request exactly these ids over the network and
// retry Load with the same root.
type MissingBlocksError struct {
	IDs []ng.Digest
}

func (e *MissingBlocksError) Error() string {
	return "object: missing blocks"
}
