package chain

// Traces maps program locations (stack positions, local variables,
// parameters or methods) to the aggregated provenance of the value held
// there. Keys are kept in insertion order so that iteration is deterministic.
type Traces[K comparable, O Origin] struct {
	keys    []K
	entries map[K]*Aggregate[O]
	frozen  bool
}

func NewTraces[K comparable, O Origin]() *Traces[K, O] {
	return &Traces[K, O]{entries: make(map[K]*Aggregate[O])}
}

// Get returns the aggregate stored for k, or nil.
func (t *Traces[K, O]) Get(k K) *Aggregate[O] {
	if t == nil {
		return nil
	}
	return t.entries[k]
}

func (t *Traces[K, O]) entry(k K) (*Aggregate[O], bool) {
	if t.frozen {
		panic(invariantf("Traces", "mutation of frozen traces"))
	}
	a, found := t.entries[k]
	if !found {
		a = NewAggregate[O]()
		t.entries[k] = a
		t.keys = append(t.keys, k)
	}
	return a, !found
}

// Merge unions a into the aggregate stored for k and reports whether
// anything changed. Merging a nil aggregate is a no-op; merging a present but
// empty aggregate creates the entry.
func (t *Traces[K, O]) Merge(k K, a *Aggregate[O]) bool {
	if a == nil {
		return false
	}
	entry, created := t.entry(k)
	return entry.Merge(a) || created
}

// AddChain adds c to the aggregate stored for k.
func (t *Traces[K, O]) AddChain(k K, c Chain[O]) bool {
	entry, created := t.entry(k)
	return entry.AddChain(c) || created
}

// Keys returns the keys in insertion order.
func (t *Traces[K, O]) Keys() []K {
	if t == nil {
		return nil
	}
	return append([]K(nil), t.keys...)
}

// Len returns the number of keys.
func (t *Traces[K, O]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Size returns the total number of chains over all keys.
func (t *Traces[K, O]) Size() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, a := range t.entries {
		n += a.Len()
	}
	return n
}

// Clone returns a mutable deep copy of t.
func (t *Traces[K, O]) Clone() *Traces[K, O] {
	res := NewTraces[K, O]()
	if t == nil {
		return res
	}
	for _, k := range t.keys {
		res.keys = append(res.keys, k)
		res.entries[k] = t.entries[k].Clone()
	}
	return res
}

// Freeze makes t and every aggregate in it read-only.
func (t *Traces[K, O]) Freeze() {
	t.frozen = true
	for _, a := range t.entries {
		a.Freeze()
	}
}
