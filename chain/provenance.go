package chain

import (
	"fmt"
	"strings"
)

// Provenance is the de-duplicated set of chains through which one origin
// reaches a value. One origin may reach a value through several chains, e.g.
// when two fields of an object hold different parts of the same parameter.
// Chains are kept in insertion order.
type Provenance[O Origin] struct {
	origin O
	chains []Chain[O]
	index  map[uint64][]int
	frozen bool
}

// NewProvenance returns an empty provenance for origin.
func NewProvenance[O Origin](origin O) *Provenance[O] {
	return &Provenance[O]{origin: origin, index: make(map[uint64][]int)}
}

func (p *Provenance[O]) Origin() O { return p.origin }

// Len returns the number of chains.
func (p *Provenance[O]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.chains)
}

// Chains returns the chains in insertion order.
func (p *Provenance[O]) Chains() []Chain[O] {
	if p == nil {
		return nil
	}
	return append([]Chain[O](nil), p.chains...)
}

// Contains reports whether an equal chain is in the set.
func (p *Provenance[O]) Contains(c Chain[O]) bool {
	if p == nil {
		return false
	}
	for _, i := range p.index[c.hash] {
		if p.chains[i].Equal(c) {
			return true
		}
	}
	return false
}

// Add inserts c and reports whether the set changed.
func (p *Provenance[O]) Add(c Chain[O]) bool {
	if p.frozen {
		panic(invariantf("Provenance.Add", "provenance of %v is frozen", p.origin))
	}
	if c.origin != p.origin {
		panic(invariantf("Provenance.Add", "chain %v added to provenance of %v", c, p.origin))
	}
	if p.Contains(c) {
		return false
	}

	p.index[c.hash] = append(p.index[c.hash], len(p.chains))
	p.chains = append(p.chains, c)
	return true
}

// Merge adds every chain of o and reports whether the set changed.
func (p *Provenance[O]) Merge(o *Provenance[O]) bool {
	changed := false
	for _, c := range o.Chains() {
		changed = p.Add(c) || changed
	}
	return changed
}

func (p *Provenance[O]) clone() *Provenance[O] {
	res := NewProvenance(p.origin)
	for _, c := range p.chains {
		res.Add(c)
	}
	return res
}

func (p *Provenance[O]) String() string {
	parts := make([]string, len(p.chains))
	for i, c := range p.chains {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%v: {%s}", p.origin, strings.Join(parts, ", "))
}

// Aggregate describes the full ancestry of one value: the provenance of every
// origin that reaches it.
//
// A nil *Aggregate means that no provenance was established. A non-nil
// aggregate without chains is still present, but uninformative. The read
// methods accept a nil receiver.
type Aggregate[O Origin] struct {
	origins  []O
	byOrigin map[O]*Provenance[O]
	frozen   bool
}

// NewAggregate returns an empty, present aggregate.
func NewAggregate[O Origin]() *Aggregate[O] {
	return &Aggregate[O]{byOrigin: make(map[O]*Provenance[O])}
}

// Of returns a present aggregate containing the given chains.
func Of[O Origin](chains ...Chain[O]) *Aggregate[O] {
	a := NewAggregate[O]()
	for _, c := range chains {
		a.AddChain(c)
	}
	return a
}

func (a *Aggregate[O]) checkMutable(op string) {
	if a.frozen {
		panic(invariantf(op, "aggregate is frozen"))
	}
}

func (a *Aggregate[O]) provenance(origin O) (*Provenance[O], bool) {
	p, found := a.byOrigin[origin]
	if !found {
		p = NewProvenance(origin)
		a.byOrigin[origin] = p
		a.origins = append(a.origins, origin)
	}
	return p, !found
}

// AddChain adds c to the provenance of its origin and reports whether the
// aggregate changed.
func (a *Aggregate[O]) AddChain(c Chain[O]) bool {
	a.checkMutable("Aggregate.AddChain")
	p, created := a.provenance(c.origin)
	return p.Add(c) || created
}

// Merge unions the chain sets of from into a, origin by origin. Origins only
// present in from are copied in wholesale, even when they have no chains.
func (a *Aggregate[O]) Merge(from *Aggregate[O]) bool {
	if from == nil {
		return false
	}
	a.checkMutable("Aggregate.Merge")

	changed := false
	for _, origin := range from.origins {
		p, created := a.provenance(origin)
		changed = p.Merge(from.byOrigin[origin]) || created || changed
	}
	return changed
}

// Lookup returns the provenance of origin, if any.
func (a *Aggregate[O]) Lookup(origin O) (*Provenance[O], bool) {
	if a == nil {
		return nil, false
	}
	p, ok := a.byOrigin[origin]
	return p, ok
}

// Origins returns the origins in insertion order.
func (a *Aggregate[O]) Origins() []O {
	if a == nil {
		return nil
	}
	return append([]O(nil), a.origins...)
}

// Len returns the total number of chains.
func (a *Aggregate[O]) Len() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, p := range a.byOrigin {
		n += p.Len()
	}
	return n
}

// Chains returns every chain, grouped by origin in insertion order.
func (a *Aggregate[O]) Chains() []Chain[O] {
	if a == nil {
		return nil
	}
	var res []Chain[O]
	for _, origin := range a.origins {
		res = append(res, a.byOrigin[origin].chains...)
	}
	return res
}

// Without returns a copy of a without the origins that occur in drop.
func (a *Aggregate[O]) Without(drop *Aggregate[O]) *Aggregate[O] {
	if a == nil {
		return nil
	}
	res := NewAggregate[O]()
	for _, origin := range a.origins {
		if _, found := drop.Lookup(origin); found {
			continue
		}
		res.Merge(&Aggregate[O]{
			origins:  []O{origin},
			byOrigin: map[O]*Provenance[O]{origin: a.byOrigin[origin]},
		})
	}
	return res
}

// Rebuild transforms every chain individually with f. Origins for which every
// transform fails are dropped. When a has at least one chain and every
// transform fails, the result is nil (absent) rather than an empty aggregate.
func (a *Aggregate[O]) Rebuild(f func(Chain[O]) (Chain[O], bool)) *Aggregate[O] {
	if a == nil {
		return nil
	}

	res := NewAggregate[O]()
	attempted := false
	for _, origin := range a.origins {
		for _, c := range a.byOrigin[origin].chains {
			attempted = true
			if nc, ok := f(c); ok {
				res.AddChain(nc)
			}
		}
	}

	if attempted && len(res.origins) == 0 {
		return nil
	}
	return res
}

// Prepend wraps every chain one level deeper under s.
func (a *Aggregate[O]) Prepend(s Step) *Aggregate[O] {
	return a.Rebuild(func(c Chain[O]) (Chain[O], bool) {
		return c.Prepend(s), true
	})
}

// Unwrap unwraps every chain by s; see [Chain.Unwrap].
func (a *Aggregate[O]) Unwrap(s Step) *Aggregate[O] {
	return a.Rebuild(func(c Chain[O]) (Chain[O], bool) {
		return c.Unwrap(s)
	})
}

// WrapInEnumerator wraps every chain in an enumerator; see
// [Chain.WrapInEnumerator].
func (a *Aggregate[O]) WrapInEnumerator() *Aggregate[O] {
	return a.Rebuild(Chain[O].WrapInEnumerator)
}

// UnwrapEnumeratorCurrent yields the current element of every enumerator
// chain; see [Chain.UnwrapEnumeratorCurrent].
func (a *Aggregate[O]) UnwrapEnumeratorCurrent() *Aggregate[O] {
	return a.Rebuild(Chain[O].UnwrapEnumeratorCurrent)
}

// Clone returns a mutable deep copy of a.
func (a *Aggregate[O]) Clone() *Aggregate[O] {
	if a == nil {
		return nil
	}
	res := NewAggregate[O]()
	for _, origin := range a.origins {
		res.origins = append(res.origins, origin)
		res.byOrigin[origin] = a.byOrigin[origin].clone()
	}
	return res
}

// Freeze makes a read-only. Subsequent mutation panics.
func (a *Aggregate[O]) Freeze() {
	if a == nil {
		return
	}
	a.frozen = true
	for _, p := range a.byOrigin {
		p.frozen = true
	}
}

func (a *Aggregate[O]) String() string {
	if a == nil {
		return "Ø"
	}
	parts := make([]string, len(a.origins))
	for i, origin := range a.origins {
		parts[i] = a.byOrigin[origin].String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
