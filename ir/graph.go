package ir

import (
	"go/types"

	"github.com/BarrensZeppelin/provenance/slices"
)

// CallGraph resolves call sites to the methods they may invoke.
type CallGraph interface {
	// Callers returns the methods containing a call that may invoke m.
	Callers(m *Method) []*Method
	// Callees returns the implementations a call instruction may invoke.
	Callees(site *Instruction) []*Method
}

// Graph is a CallGraph built from explicit edges.
type Graph struct {
	callers map[*Method][]*Method
	callees map[*Instruction][]*Method
}

func NewGraph() *Graph {
	return &Graph{
		callers: make(map[*Method][]*Method),
		callees: make(map[*Instruction][]*Method),
	}
}

// StaticGraph returns the graph of statically declared call targets in prog.
func StaticGraph(prog *Program) *Graph {
	g := NewGraph()
	for _, m := range prog.Methods {
		for _, instr := range m.Body {
			if instr.Op == OpCall && instr.Call.Callee != nil {
				g.AddEdge(instr, instr.Call.Callee)
			}
		}
	}
	return g
}

// AddEdge records that site may invoke callee. Duplicate edges are ignored.
func (g *Graph) AddEdge(site *Instruction, callee *Method) {
	if slices.Contains(g.callees[site], callee) {
		return
	}
	g.callees[site] = append(g.callees[site], callee)

	if caller := site.Method; !slices.Contains(g.callers[callee], caller) {
		g.callers[callee] = append(g.callers[callee], caller)
	}
}

func (g *Graph) Callers(m *Method) []*Method { return g.callers[m] }

func (g *Graph) Callees(site *Instruction) []*Method { return g.callees[site] }

// AccessorKind classifies calls with built-in element semantics.
type AccessorKind uint8

const (
	NoAccessor AccessorKind = iota
	// ArrayGet reads an element of the receiver.
	ArrayGet
	// ArraySet writes the last argument as an element of the receiver.
	ArraySet
	CollectionGet
	CollectionSet
	// EnumeratorAcquire produces an enumerator over the receiver.
	EnumeratorAcquire
	// EnumeratorCurrent reads the current element of the receiver enumerator.
	EnumeratorCurrent
)

// Accessor describes the element semantics of a call.
type Accessor struct {
	Kind    AccessorKind
	Element Element
}

// TypeGraph answers type-level questions about the analysed program.
type TypeGraph interface {
	IsValueType(t types.Type) bool
	IsEnumeratorType(t types.Type) bool
	// Accessor reports whether calls to site have element semantics.
	Accessor(site *CallSite) (Accessor, bool)
}

// Types is a TypeGraph over explicitly registered enumerator types and
// accessor call sites.
type Types struct {
	Enumerators []types.Type
	Accessors   map[*CallSite]Accessor
}

func (*Types) IsValueType(t types.Type) bool { return IsValueType(t) }

func (ts *Types) IsEnumeratorType(t types.Type) bool {
	if t == nil {
		return false
	}
	for _, e := range ts.Enumerators {
		if types.Identical(e, t) {
			return true
		}
	}
	return false
}

func (ts *Types) Accessor(site *CallSite) (Accessor, bool) {
	a, ok := ts.Accessors[site]
	return a, ok && a.Kind != NoAccessor
}
