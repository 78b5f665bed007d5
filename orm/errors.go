package orm

import "errors"

var (
	// ErrShapeNotFound is returned when a ShapeType or a nested DataType
	// names a shape IRI absent from its Schema.
	ErrShapeNotFound = errors.New("orm: shape not found in schema")
	// ErrCyclicShape names a shape that reaches itself through a chain of
	// DataTypeShape predicates. Nothing in this package returns it:
	// CompileShape treats a recursive shape as legitimate, and the Tracker's
	// cycle check marks a subject on a cycle Invalid instead of failing.
	ErrCyclicShape = errors.New("orm: cyclic shape reference")
	// ErrStaleRef is returned when dereferencing a weakRef whose generation
	// no longer matches the arena slot it points at (the slot was freed and
	// possibly reused).
	ErrStaleRef = errors.New("orm: stale tracked-subject reference")
	// ErrNotTracked is returned when looking up a subject the Tracker has
	// never seen.
	ErrNotTracked = errors.New("orm: subject not tracked")
)
