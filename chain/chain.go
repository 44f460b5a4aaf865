// Package chain implements access chains: the algebra describing how a value
// is reachable from an origin (a parameter or a static field) through member,
// array element, collection element and enumerator accesses, together with
// the set-like containers used to accumulate chains during analysis.
//
// A chain consists of an encapsulation hierarchy, describing how containers
// wrap the origin and consumed from the outside in, and a component access
// path, describing how the origin's own internals are reached. The component
// path only changes while the hierarchy is empty.
package chain

import (
	"fmt"
)

// Origin is the root value whose propagation is tracked. Origins are compared
// by identity and displayed with String.
type Origin interface {
	comparable
	fmt.Stringer
}

// Chain is an immutable access chain rooted at an origin.
type Chain[O Origin] struct {
	origin    O
	hierarchy []Step
	path      []Step
	hash      uint64
}

// Root returns the zero-length chain of origin: the origin value itself.
func Root[O Origin](origin O) Chain[O] {
	return build(origin, nil, nil)
}

// New returns the chain with the given hierarchy and component path. The
// slices are copied.
func New[O Origin](origin O, hierarchy, path []Step) Chain[O] {
	return build(origin, concat(hierarchy, nil), concat(path, nil))
}

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

func hashSteps(h uint64, steps []Step) uint64 {
	for _, s := range steps {
		h ^= uint64(s.kind)<<32 | uint64(s.layer)
		h *= fnvPrime
	}
	return h
}

// build assumes ownership of hierarchy and path; they are never modified.
func build[O Origin](origin O, hierarchy, path []Step) Chain[O] {
	for i, s := range hierarchy {
		if s.kind == EnumeratorStep && (i+1 >= len(hierarchy) || !hierarchy[i+1].IsElement()) {
			panic(invariantf("build", "enumerator step at %d of %s is not followed by an element step",
				i, Render(hierarchy)))
		}
	}

	h := hashSteps(fnvOffset, hierarchy)
	h = (h ^ 0xff) * fnvPrime
	h = hashSteps(h, path)

	if len(hierarchy) == 0 {
		hierarchy = nil
	}
	if len(path) == 0 {
		path = nil
	}
	return Chain[O]{origin: origin, hierarchy: hierarchy, path: path, hash: h}
}

// concat returns a freshly allocated a ++ b, so that chains never share
// backing arrays that could be appended to.
func concat(a, b []Step) []Step {
	if len(a)+len(b) == 0 {
		return nil
	}
	res := make([]Step, 0, len(a)+len(b))
	res = append(res, a...)
	return append(res, b...)
}

func (c Chain[O]) Origin() O { return c.origin }

// Hierarchy returns a copy of the encapsulation hierarchy, outermost first.
func (c Chain[O]) Hierarchy() []Step { return concat(c.hierarchy, nil) }

// Path returns a copy of the component access path, outermost first.
func (c Chain[O]) Path() []Step { return concat(c.path, nil) }

// Len is the total number of steps in the chain.
func (c Chain[O]) Len() int { return len(c.hierarchy) + len(c.path) }

// Depth is the number of containers wrapping the origin.
func (c Chain[O]) Depth() int { return len(c.hierarchy) }

// IsRoot reports whether c is a zero-length chain.
func (c Chain[O]) IsRoot() bool { return c.Len() == 0 }

// Hash is a structural hash of the steps of the chain. It does not depend on
// the origin.
func (c Chain[O]) Hash() uint64 { return c.hash }

func sameLayers(a, b []Step) bool {
	if len(a) != len(b) {
		return false
	}
	for i, s := range a {
		if !s.SameLayer(b[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether c and o have the same origin and the same layers in
// both the hierarchy and the component path.
func (c Chain[O]) Equal(o Chain[O]) bool {
	return c.hash == o.hash &&
		c.origin == o.origin &&
		sameLayers(c.hierarchy, o.hierarchy) &&
		sameLayers(c.path, o.path)
}

func (c Chain[O]) String() string {
	return fmt.Sprintf("%v⟨%s|%s⟩", c.origin, Render(c.hierarchy), Render(c.path))
}

// Prepend wraps the value described by c one level deeper: the container
// reached through s now encapsulates the origin.
func (c Chain[O]) Prepend(s Step) Chain[O] {
	if s.kind == EnumeratorStep {
		panic(invariantf("Prepend", "enumerator steps are only introduced by WrapInEnumerator (chain %v)", c))
	}
	return build(c.origin, concat([]Step{s}, c.hierarchy), c.path)
}

// Unwrap loads back out of a container through s. When the hierarchy is
// non-empty its head must be in the same layer as s and is removed. When the
// hierarchy is empty, s is appended to the component path unless it reaches a
// value type, in which case no provenance can be established.
func (c Chain[O]) Unwrap(s Step) (Chain[O], bool) {
	if len(c.hierarchy) == 0 {
		if s.value || s.kind == EnumeratorStep {
			return Chain[O]{}, false
		}
		return build(c.origin, nil, concat(c.path, []Step{s})), true
	}

	if !c.hierarchy[0].SameLayer(s) {
		return Chain[O]{}, false
	}
	return build(c.origin, c.hierarchy[1:], c.path), true
}

// WrapInEnumerator describes an enumerator over the collection described by
// c. It succeeds when the head of the hierarchy is an element step, or is
// already an enumerator, in which case c is returned unchanged.
func (c Chain[O]) WrapInEnumerator() (Chain[O], bool) {
	if len(c.hierarchy) == 0 {
		return Chain[O]{}, false
	}

	switch head := c.hierarchy[0]; head.kind {
	case EnumeratorStep:
		return c, true
	case ArrayElementStep, CollectionElementStep:
		return build(c.origin, concat([]Step{enumeratorOf(head)}, c.hierarchy), c.path), true
	default:
		return Chain[O]{}, false
	}
}

// UnwrapEnumeratorCurrent describes the current element of the enumerator
// described by c, removing the enumerator step and the element step that
// follows it. Chains whose hierarchy does not start with an enumerator step
// yield no provenance. An enumerator step followed by anything but an element
// step panics with an *InvariantError.
func (c Chain[O]) UnwrapEnumeratorCurrent() (Chain[O], bool) {
	if len(c.hierarchy) == 0 || c.hierarchy[0].kind != EnumeratorStep {
		return Chain[O]{}, false
	}

	if len(c.hierarchy) < 2 || !c.hierarchy[1].IsElement() {
		panic(invariantf("UnwrapEnumeratorCurrent",
			"enumerator step is not followed by an element step in %v", c))
	}
	return build(c.origin, c.hierarchy[2:], c.path), true
}

// Combine substitutes inner, a chain relative to a callee's formal parameter,
// into outer, the chain of the value passed for that parameter at a call
// site. The result is relative to outer's origin.
//
// The component path of inner must agree layer by layer with the hierarchy of
// outer up to the shorter of the two; the surplus of whichever is longer is
// kept.
func Combine[O Origin](outer, inner Chain[O]) (Chain[O], bool) {
	n, k := len(outer.hierarchy), len(inner.path)
	m := k
	if n < m {
		m = n
	}

	for i := 0; i < m; i++ {
		if !inner.path[i].SameLayer(outer.hierarchy[i]) {
			return Chain[O]{}, false
		}
	}

	if k <= n {
		return build(outer.origin,
			concat(inner.hierarchy, outer.hierarchy[k:]),
			outer.path), true
	}

	return build(outer.origin,
		inner.hierarchy,
		concat(outer.path, inner.path[n:])), true
}
