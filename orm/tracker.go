package orm

import "sync"

// Validity is a TrackedSubject's current validation state (spec §4.7
// "tracked subjects move between Pending/Valid/Invalid as predicates
// accumulate").
type Validity uint8

const (
	Pending Validity = iota
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "pending"
	}
}

// weakRef is a generation-checked index handle into a Tracker's arena: the
// Go-idiomatic substitute for the original's Rust `Weak<RefCell<...>>`
// back-references (spec §4.7's note that parents are held weakly so a
// subject's removal doesn't require walking every other subject to drop
// references to it — here, instead, a freed slot's generation bump makes
// every existing weakRef into it resolve to ErrStaleRef on next use,
// exactly like a generational arena / slotmap).
type weakRef struct {
	idx int
	gen uint64
}

// Valid reports whether this handle was ever initialized.
func (r weakRef) Valid() bool { return r.gen != 0 }

// Value is one predicate's materialized value: either a primitive literal
// or a reference to a nested TrackedSubject (DataTypeShape predicates).
type Value struct {
	Kind     DataTypeKind
	Literal  string
	ChildRef weakRef
}

// TrackedSubject is one instance materialized against a Shape: spec §4.7's
// per-subject tracking record, holding every predicate value observed so
// far plus back-references to the subjects that point at it.
type TrackedSubject struct {
	self     weakRef
	Subject  string
	ShapeIRI string
	Validity Validity

	// Values maps predicate IRI to the values observed for it so far.
	// Cardinality bounds (Predicate.MinCardinality/MaxCardinality) are
	// checked against len(Values[iri]) by the validation pipeline.
	Values map[string][]Value

	// Parents holds every TrackedSubject known to reference this one
	// through one of its own shape predicates, so that removing a value
	// can fix up the corresponding back-reference without a full arena
	// scan.
	Parents []weakRef
}

type trackedSlot struct {
	gen     uint64
	live    bool
	subject *TrackedSubject
}

// Tracker is the per-subscription arena of TrackedSubjects (spec §4.7
// "OrmSubscription owns one Tracker per shape subscription"). It is not
// safe for concurrent use from more than one verifier ingest loop at a
// time by design (spec §5's single-writer model), but guards its own
// state with a mutex so a read-only snapshot call from another goroutine
// (e.g. an initial-state HTTP handler) can't race a concurrent mutation.
type Tracker struct {
	mu    sync.Mutex
	slots []trackedSlot
	free  []int
	// bySubject indexes (subject IRI, shape IRI) pairs already tracked, so
	// re-observing the same subject under the same shape reuses its slot
	// instead of creating a duplicate.
	bySubject map[string]weakRef
	schema    Schema
}

// NewTracker builds an empty Tracker bound to schema.
func NewTracker(schema Schema) *Tracker {
	return &Tracker{
		bySubject: make(map[string]weakRef),
		schema:    schema,
	}
}

func trackerKey(subject, shapeIRI string) string { return shapeIRI + "\x00" + subject }

// Track returns the TrackedSubject for (subject, shapeIRI), creating it
// (in Pending state) if this is the first time it has been observed.
func (t *Tracker) Track(subject, shapeIRI string) (weakRef, *TrackedSubject) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey(subject, shapeIRI)
	if ref, ok := t.bySubject[key]; ok {
		return ref, t.slots[ref.idx].subject
	}

	ts := &TrackedSubject{
		Subject:  subject,
		ShapeIRI: shapeIRI,
		Validity: Pending,
		Values:   make(map[string][]Value),
	}

	var idx int
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[idx].gen++
		t.slots[idx].live = true
		t.slots[idx].subject = ts
	} else {
		idx = len(t.slots)
		t.slots = append(t.slots, trackedSlot{gen: 1, live: true, subject: ts})
	}
	ref := weakRef{idx: idx, gen: t.slots[idx].gen}
	ts.self = ref
	t.bySubject[key] = ref
	return ref, ts
}

// Get dereferences ref, failing with ErrStaleRef if the slot has since
// been freed (and possibly reused by an unrelated subject) and with
// ErrNotTracked if ref was never initialized.
func (t *Tracker) Get(ref weakRef) (*TrackedSubject, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(ref)
}

func (t *Tracker) get(ref weakRef) (*TrackedSubject, error) {
	if !ref.Valid() {
		return nil, ErrNotTracked
	}
	if ref.idx < 0 || ref.idx >= len(t.slots) {
		return nil, ErrStaleRef
	}
	slot := t.slots[ref.idx]
	if !slot.live || slot.gen != ref.gen {
		return nil, ErrStaleRef
	}
	return slot.subject, nil
}

// Untrack frees ref's slot, bumping its generation so any other weakRef
// still pointing at it resolves to ErrStaleRef rather than a reused
// subject, and drops the (subject, shape) index entry.
func (t *Tracker) Untrack(ref weakRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	sub, err := t.get(ref)
	if err != nil {
		return err
	}
	delete(t.bySubject, trackerKey(sub.Subject, sub.ShapeIRI))
	t.slots[ref.idx].live = false
	t.slots[ref.idx].subject = nil
	t.free = append(t.free, ref.idx)
	return nil
}

// AddParent records that parent references child through one of parent's
// shape predicates.
func (t *Tracker) AddParent(child, parent weakRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	sub, err := t.get(child)
	if err != nil {
		return err
	}
	for _, p := range sub.Parents {
		if p == parent {
			return nil
		}
	}
	sub.Parents = append(sub.Parents, parent)
	return nil
}

// All returns every live TrackedSubject, for snapshotting an initial ORM
// state (spec §6 "AppResponse::OrmInitial").
func (t *Tracker) All() []*TrackedSubject {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*TrackedSubject, 0, len(t.slots)-len(t.free))
	for _, s := range t.slots {
		if s.live {
			out = append(out, s.subject)
		}
	}
	return out
}
