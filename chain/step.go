package chain

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/types/typeutil"
)

// StepKind enumerates the closed set of access step variants.
type StepKind uint8

const (
	// MemberStep accesses a named member (field) of a value.
	MemberStep StepKind = iota
	// ArrayElementStep accesses an element of an array or slice.
	ArrayElementStep
	// CollectionElementStep accesses an element of a map, channel or a
	// recognised collection type.
	CollectionElementStep
	// EnumeratorStep represents an enumerator over an array or collection.
	EnumeratorStep
)

func (k StepKind) String() string {
	switch k {
	case MemberStep:
		return "Member"
	case ArrayElementStep:
		return "ArrayElement"
	case CollectionElementStep:
		return "CollectionElement"
	case EnumeratorStep:
		return "Enumerator"
	default:
		return fmt.Sprintf("StepKind(%d)", uint8(k))
	}
}

// Step is a single typed layer of access. Two steps are in the same layer
// when they have the same kind and the same interned layer identity, which is
// independent of the concrete value being accessed.
//
// Steps are created through a [Layers] table.
type Step struct {
	kind  StepKind
	layer uint32
	// Type of the value reached by taking the step.
	typ types.Type
	// Declaring type for members, the array/collection type for element and
	// enumerator steps.
	container types.Type
	name      string
	value     bool
}

func (s Step) Kind() StepKind { return s.kind }

// Type returns the type of the value reached by the step.
func (s Step) Type() types.Type { return s.typ }

// Container returns the declaring type of a member step, or the array or
// collection type of an element or enumerator step.
func (s Step) Container() types.Type { return s.container }

// Name returns the member name for member steps and "" otherwise.
func (s Step) Name() string { return s.name }

// ValueTyped reports whether the step reaches a value that cannot carry
// references.
func (s Step) ValueTyped() bool { return s.value }

// SameLayer reports whether s and o access the same layer.
func (s Step) SameLayer(o Step) bool {
	return s.kind == o.kind && s.layer == o.layer
}

// IsElement reports whether s is an array or collection element step.
func (s Step) IsElement() bool {
	return s.kind == ArrayElementStep || s.kind == CollectionElementStep
}

func (s Step) String() string {
	switch s.kind {
	case MemberStep:
		return "." + s.name
	case ArrayElementStep:
		return "[*]"
	case CollectionElementStep:
		return "{*}"
	case EnumeratorStep:
		return "<iter>"
	default:
		return "?"
	}
}

// Render returns the access path notation of a sequence of steps, e.g.
// ".x[*].y".
func Render(steps []Step) string {
	var buf []byte
	for _, s := range steps {
		buf = append(buf, s.String()...)
	}
	return string(buf)
}

func enumeratorOf(elem Step) Step {
	return Step{
		kind:      EnumeratorStep,
		layer:     elem.layer,
		typ:       elem.container,
		container: elem.container,
	}
}

type layerKey struct {
	kind StepKind
	a, b uint32
	name string
}

// Layers interns layer identities for access steps. Types are canonicalised
// modulo types.Identical, so that steps constructed from structurally
// identical types are in the same layer.
//
// A Layers table is owned by a single analysis and is not safe for concurrent
// use.
type Layers struct {
	isValue func(types.Type) bool
	types   typeutil.Map
	layers  map[layerKey]uint32
}

// NewLayers creates an empty table. isValue decides whether values of a type
// can carry references; it is consulted once per constructed step.
func NewLayers(isValue func(types.Type) bool) *Layers {
	return &Layers{
		isValue: isValue,
		layers:  make(map[layerKey]uint32),
	}
}

func (l *Layers) typeID(t types.Type) uint32 {
	if t == nil {
		return 0
	}
	if id, ok := l.types.At(t).(uint32); ok {
		return id
	}
	id := uint32(l.types.Len()) + 1
	l.types.Set(t, id)
	return id
}

func (l *Layers) intern(key layerKey) uint32 {
	if id, ok := l.layers[key]; ok {
		return id
	}
	id := uint32(len(l.layers)) + 1
	l.layers[key] = id
	return id
}

func (l *Layers) valueTyped(t types.Type) bool {
	return t != nil && l.isValue != nil && l.isValue(t)
}

// Member returns the step accessing member name of owner, whose type is typ.
func (l *Layers) Member(owner types.Type, name string, typ types.Type) Step {
	return Step{
		kind:      MemberStep,
		layer:     l.intern(layerKey{kind: MemberStep, a: l.typeID(owner), name: name}),
		typ:       typ,
		container: owner,
		name:      name,
		value:     l.valueTyped(typ),
	}
}

// ArrayElement returns the step accessing an element of type elem of the
// array or slice type container.
func (l *Layers) ArrayElement(container, elem types.Type) Step {
	return Step{
		kind:      ArrayElementStep,
		layer:     l.intern(layerKey{kind: ArrayElementStep, a: l.typeID(elem)}),
		typ:       elem,
		container: container,
		value:     l.valueTyped(elem),
	}
}

// CollectionElement returns the step accessing an element of type elem of
// the collection type collection.
func (l *Layers) CollectionElement(collection, elem types.Type) Step {
	return Step{
		kind: CollectionElementStep,
		layer: l.intern(layerKey{
			kind: CollectionElementStep,
			a:    l.typeID(collection),
			b:    l.typeID(elem),
		}),
		typ:       elem,
		container: collection,
		value:     l.valueTyped(elem),
	}
}
