package orm

// ApplyInsert records one (predicate, value) observation on a tracked
// subject and re-validates it against its shape (spec §4.7 "as triples for
// a tracked subject's predicates arrive, move it through Pending/Valid/
// Invalid"). shape must be the Shape ts.ShapeIRI names. When v is a shape
// value that closes a cycle, the child it points at is marked Invalid too;
// subjects further along a longer cycle keep their state until they are
// themselves re-validated.
func (t *Tracker) ApplyInsert(ref weakRef, shape *Shape, pred Predicate, v Value) error {
	t.mu.Lock()
	sub, err := t.get(ref)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	sub.Values[pred.IRI] = append(sub.Values[pred.IRI], v)
	t.mu.Unlock()
	if err := t.revalidate(ref, shape); err != nil {
		return err
	}
	// A shape value can close a cycle through the child it points at, so
	// that child is marked Invalid as well when it now lies on a cycle.
	if child, err := t.Get(v.ChildRef); err == nil && t.hasCycle(v.ChildRef) {
		t.mu.Lock()
		child.Validity = Invalid
		t.mu.Unlock()
	}
	return nil
}

// ApplyRemove undoes one prior observation (spec §4.6's remove path
// reaching into the ORM layer: "a removed triple that was backing a
// tracked predicate value demotes the subject the same way a missing
// required predicate would").
func (t *Tracker) ApplyRemove(ref weakRef, shape *Shape, pred Predicate, v Value) error {
	t.mu.Lock()
	sub, err := t.get(ref)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	vals := sub.Values[pred.IRI]
	for i, existing := range vals {
		if existing == v {
			sub.Values[pred.IRI] = append(vals[:i], vals[i+1:]...)
			break
		}
	}
	t.mu.Unlock()
	return t.revalidate(ref, shape)
}

// revalidate recomputes ref's Validity from its current Values against
// shape's cardinality constraints, then runs the cycle check: a tracked
// subject that is its own transitive child reference can never reach
// Valid (spec §4.7 "cyclic instance data is rejected, not infinite-looped
// over"), so it is forced to Invalid regardless of cardinality.
func (t *Tracker) revalidate(ref weakRef, shape *Shape) error {
	t.mu.Lock()
	sub, err := t.get(ref)
	if err != nil {
		t.mu.Unlock()
		return err
	}

	valid := true
	for _, pred := range shape.Predicates {
		n := len(sub.Values[pred.IRI])
		if n < pred.MinCardinality {
			valid = false
		}
		if pred.MaxCardinality >= 0 && n > pred.MaxCardinality {
			valid = false
		}
		if pred.DataTypes != nil && n > 0 {
			if !valuesMatchDataTypes(sub.Values[pred.IRI], pred.DataTypes) {
				valid = false
			}
		}
	}
	t.mu.Unlock()

	if t.hasCycle(ref) {
		valid = false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	sub, err = t.get(ref)
	if err != nil {
		return err
	}
	if valid {
		sub.Validity = Valid
	} else if len(sub.Values) == 0 {
		sub.Validity = Pending
	} else {
		sub.Validity = Invalid
	}
	return nil
}

func valuesMatchDataTypes(vals []Value, dts []DataType) bool {
	for _, v := range vals {
		ok := false
		for _, dt := range dts {
			if v.Kind != dt.Kind {
				continue
			}
			if dt.Kind == DataTypeLiteral && len(dt.Values) > 0 {
				for _, allowed := range dt.Values {
					if v.Literal == allowed {
						ok = true
						break
					}
				}
			} else {
				ok = true
			}
			if ok {
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// hasCycle reports whether start is reachable from itself by following
// ChildRef edges out of its own Values (a DFS with an explicit
// visited/on-stack set, per the task's cycle-detection-via-DFS design —
// matching the original's validator, which rejects cyclic instance data
// rather than materializing it as an infinite tree).
func (t *Tracker) hasCycle(start weakRef) bool {
	onStack := map[weakRef]bool{}
	var visit func(ref weakRef) bool
	visit = func(ref weakRef) bool {
		if onStack[ref] {
			return true
		}
		onStack[ref] = true
		defer delete(onStack, ref)

		sub, err := t.Get(ref)
		if err != nil {
			return false
		}
		for _, vals := range sub.Values {
			for _, v := range vals {
				if v.Kind != DataTypeShape || !v.ChildRef.Valid() {
					continue
				}
				if visit(v.ChildRef) {
					return true
				}
			}
		}
		return false
	}
	return visit(start)
}
