package provenance

import (
	"go/types"

	"github.com/BarrensZeppelin/provenance/internal/maps"
	"github.com/BarrensZeppelin/provenance/ir"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/types/typeutil"
)

// Accessors names the methods that are recognised as element accessors of
// collection types. Getters must return an element, setters must take an
// element as their last parameter and iterators must return an enumerator.
type Accessors struct {
	Getters   []string
	Setters   []string
	Iterators []string
}

// DefaultAccessors are always recognised.
var DefaultAccessors = Accessors{
	Getters:   []string{"Get", "At", "Load", "Index"},
	Setters:   []string{"Set", "Store", "Put"},
	Iterators: []string{"Iter", "Iterator", "All", "Enumerator"},
}

// typeGraph recognises the collection and enumerator shapes of Go types.
type typeGraph struct {
	msets typeutil.MethodSetCache
	// Memoised IsEnumeratorType results.
	enumerators typeutil.Map

	getters, setters, iterators map[string]struct{}

	accessors map[*ir.CallSite]ir.Accessor
}

func newTypeGraph(extra Accessors) *typeGraph {
	names := func(a, b []string) map[string]struct{} {
		return maps.FromKeys(append(append([]string(nil), a...), b...))
	}
	return &typeGraph{
		getters:   names(DefaultAccessors.Getters, extra.Getters),
		setters:   names(DefaultAccessors.Setters, extra.Setters),
		iterators: names(DefaultAccessors.Iterators, extra.Iterators),
		accessors: make(map[*ir.CallSite]ir.Accessor),
	}
}

func (*typeGraph) IsValueType(t types.Type) bool { return ir.IsValueType(t) }

// IsEnumeratorType reports whether t (or a pointer to it) has a
// Next() bool method together with a Value or Current method returning the
// current element.
func (g *typeGraph) IsEnumeratorType(t types.Type) bool {
	if t == nil {
		return false
	}
	if res, ok := g.enumerators.At(t).(bool); ok {
		return res
	}

	res := g.hasEnumeratorMethods(t)
	if _, isPtr := t.Underlying().(*types.Pointer); !res && !isPtr && !types.IsInterface(t) {
		res = g.hasEnumeratorMethods(types.NewPointer(t))
	}
	g.enumerators.Set(t, res)
	return res
}

func (g *typeGraph) hasEnumeratorMethods(t types.Type) bool {
	mset := g.msets.MethodSet(t)
	next, current := false, false
	for i := 0; i < mset.Len(); i++ {
		fn, ok := mset.At(i).Obj().(*types.Func)
		if !ok {
			continue
		}
		sig := fn.Type().(*types.Signature)
		switch fn.Name() {
		case "Next":
			next = sig.Params().Len() == 0 && sig.Results().Len() == 1 &&
				types.Identical(sig.Results().At(0).Type().Underlying(), types.Typ[types.Bool])
		case "Value", "Current":
			current = current || (sig.Params().Len() == 0 && sig.Results().Len() >= 1)
		}
	}
	return next && current
}

func (g *typeGraph) Accessor(site *ir.CallSite) (ir.Accessor, bool) {
	acc, ok := g.accessors[site]
	return acc, ok
}

// intrinsic registers an accessor for a frontend operation modelled as a
// call.
func (g *typeGraph) intrinsic(name string, acc ir.Accessor) *ir.CallSite {
	site := &ir.CallSite{Name: name, Intrinsic: name, Static: true}
	g.accessors[site] = acc
	return site
}

// classify records the accessor semantics of a method call, if any.
func (g *typeGraph) classify(common *ssa.CallCommon, site *ir.CallSite) {
	var (
		recv types.Type
		name string
		sig  *types.Signature
	)
	if common.IsInvoke() {
		recv, name = common.Value.Type(), common.Method.Name()
		sig = common.Method.Type().(*types.Signature)
	} else if fn := common.StaticCallee(); fn != nil && fn.Signature.Recv() != nil {
		// Instances of generic methods are named after their type arguments.
		recv, name, sig = fn.Signature.Recv().Type(), fn.Name(), fn.Signature
		if obj := fn.Object(); obj != nil {
			name = obj.Name()
		}
	} else {
		return
	}

	if acc, ok := g.shape(recv, name, sig); ok {
		g.accessors[site] = acc
	}
}

func (g *typeGraph) shape(recv types.Type, name string, sig *types.Signature) (ir.Accessor, bool) {
	params, results := sig.Params(), sig.Results()

	if _, ok := g.getters[name]; ok && results.Len() >= 1 {
		if elem := results.At(0).Type(); g.isElementOf(recv, elem) {
			return ir.Accessor{Kind: g.kind(recv, ir.ArrayGet, ir.CollectionGet),
				Element: g.element(recv, elem)}, true
		}
	}

	if _, ok := g.setters[name]; ok && params.Len() >= 1 {
		if elem := params.At(params.Len() - 1).Type(); g.isElementOf(recv, elem) {
			return ir.Accessor{Kind: g.kind(recv, ir.ArraySet, ir.CollectionSet),
				Element: g.element(recv, elem)}, true
		}
	}

	if _, ok := g.iterators[name]; ok && results.Len() == 1 &&
		g.IsEnumeratorType(results.At(0).Type()) {
		return ir.Accessor{Kind: ir.EnumeratorAcquire,
			Element: ir.Element{Kind: ir.CollectionElement, Container: deref(recv)}}, true
	}

	if (name == "Value" || name == "Current") && results.Len() >= 1 && g.IsEnumeratorType(recv) {
		return ir.Accessor{Kind: ir.EnumeratorCurrent,
			Element: ir.Element{Kind: ir.CollectionElement, Container: deref(recv), Type: results.At(0).Type()}}, true
	}

	return ir.Accessor{}, false
}

// isElementOf reports whether elem is a type argument of the receiver type,
// or its element type when the receiver is a named slice, array or map.
func (g *typeGraph) isElementOf(recv, elem types.Type) bool {
	t := deref(recv)
	if named, ok := t.(*types.Named); ok {
		targs := named.TypeArgs()
		for i := 0; i < targs.Len(); i++ {
			if types.Identical(targs.At(i), elem) {
				return true
			}
		}
	}

	switch u := t.Underlying().(type) {
	case *types.Slice:
		return types.Identical(u.Elem(), elem)
	case *types.Array:
		return types.Identical(u.Elem(), elem)
	case *types.Map:
		return types.Identical(u.Elem(), elem)
	}
	return false
}

func (g *typeGraph) kind(recv types.Type, array, collection ir.AccessorKind) ir.AccessorKind {
	switch deref(recv).Underlying().(type) {
	case *types.Slice, *types.Array:
		return array
	default:
		return collection
	}
}

func (g *typeGraph) element(recv, elem types.Type) ir.Element {
	kind := ir.CollectionElement
	if g.kind(recv, ir.ArrayGet, ir.CollectionGet) == ir.ArrayGet {
		kind = ir.ArrayElement
	}
	return ir.Element{Kind: kind, Container: deref(recv), Type: elem}
}

func deref(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}
