package ir

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pkg = types.NewPackage("example.com/p", "p")

func named(name string, under types.Type) *types.Named {
	return types.NewNamed(types.NewTypeName(token.NoPos, pkg, name, nil), under, nil)
}

func structOf(fields map[string]types.Type, order ...string) *types.Struct {
	vars := make([]*types.Var, len(order))
	for i, name := range order {
		vars[i] = types.NewField(token.NoPos, pkg, name, fields[name], false)
	}
	return types.NewStruct(vars, nil)
}

func TestIsValueType(t *testing.T) {
	intT := types.Typ[types.Int]
	foo := named("Foo", structOf(map[string]types.Type{"a": intT}, "a"))
	ptr := types.NewPointer(foo)
	holder := named("Holder", structOf(map[string]types.Type{"a": intT, "p": ptr}, "a", "p"))

	for _, tc := range []struct {
		typ   types.Type
		value bool
	}{
		{intT, true},
		{types.Typ[types.String], true},
		{types.Typ[types.UnsafePointer], false},
		{foo, true},
		{types.NewArray(foo, 4), true},
		{ptr, false},
		{holder, false},
		{types.NewArray(ptr, 2), false},
		{types.NewSlice(intT), false},
		{types.NewMap(intT, intT), false},
		{types.NewInterfaceType(nil, nil), false},
		{nil, true},
	} {
		assert.Equal(t, tc.value, IsValueType(tc.typ), "%v", tc.typ)
	}

	assert.True(t, PointerLike(ptr))
	assert.False(t, PointerLike(foo))
}

func TestKeyOf(t *testing.T) {
	foo := named("Foo", structOf(nil))
	ptr := types.NewPointer(foo)

	m := NewMethod("F", true)
	p := m.AddParam("p", ptr)
	l := m.AddLocal("", ptr)
	f := NewField(foo, "x", ptr, false)

	lp1, lp2 := m.LoadParam(p), m.LoadParam(p)
	assert.Equal(t, KeyOf(lp1), KeyOf(lp2), "loads of one parameter share a key")
	assert.Equal(t, ParamKey, KeyOf(lp1).Kind)

	ll := m.LoadLocal(l)
	assert.Equal(t, LocalKey, KeyOf(ll).Kind)
	assert.Equal(t, "local local0", KeyOf(ll).String())

	lf1 := m.LoadField(f, lp1)
	lf2 := m.LoadField(NewField(foo, "x", ptr, false), lp2)
	assert.Equal(t, KeyOf(lf1), KeyOf(lf2), "fields are keyed structurally")
	assert.Equal(t, FieldKey, KeyOf(lf1).Kind)
	assert.Equal(t, "field example.com/p.Foo.x of param p", KeyOf(lf1).String())

	o1, o2 := m.Other(ptr), m.Other(ptr)
	assert.NotEqual(t, KeyOf(o1), KeyOf(o2))
	assert.Equal(t, OtherKey, KeyOf(o1).Kind)

	g := NewField(nil, "G", ptr, true)
	lg1, lg2 := m.LoadField(g, nil), m.LoadField(g, nil)
	assert.Equal(t, KeyOf(lg1), KeyOf(lg2))
	assert.Equal(t, "field G", KeyOf(lg1).String())
	assert.Equal(t, "field G, example.com/p.Foo.x", KeyOf(m.LoadField(f, lg2)).String())
}

func TestKeyOfFieldBase(t *testing.T) {
	foo := named("Foo", structOf(nil))
	ptr := types.NewPointer(foo)
	x := NewField(foo, "x", ptr, false)
	y := NewField(foo, "y", ptr, false)

	m := NewMethod("F", true)
	a, b := m.AddParam("a", ptr), m.AddParam("b", ptr)
	la, lb := m.LoadParam(a), m.LoadParam(b)

	ax, bx := m.LoadField(x, la), m.LoadField(x, lb)
	assert.NotEqual(t, KeyOf(ax), KeyOf(bx), "loads from different objects")
	assert.Equal(t, KeyOf(ax), KeyOf(m.LoadField(x, m.Join(ptr, la))))

	axy := m.LoadField(y, m.Join(ptr, ax))
	assert.Equal(t, "field example.com/p.Foo.x, example.com/p.Foo.y of param a", KeyOf(axy).String())
	assert.NotEqual(t, KeyOf(axy), KeyOf(m.LoadField(y, bx)))
	assert.NotEqual(t, KeyOf(axy), KeyOf(m.LoadField(y, la)))

	// Several possible instances.
	either := m.LoadField(x, m.Join(ptr, la, lb))
	assert.Equal(t, OtherKey, KeyOf(either).Kind)
	assert.Equal(t, either.Index, KeyOf(either).Index)

	unknown := m.LoadField(x, nil)
	assert.NotEqual(t, KeyOf(unknown), KeyOf(m.LoadField(x, nil)))

	// A load whose instance is, through a cyclic join, itself.
	phi := m.Join(ptr, nil)
	cyclic := m.LoadField(x, phi)
	phi.Operands[0] = cyclic
	assert.Equal(t, OtherKey, KeyOf(cyclic).Kind)
}

func TestMethod(t *testing.T) {
	m := NewMethod("T.M", false)
	this := m.AddParam("t", nil)
	p := m.AddParam("p", nil)
	assert.True(t, this.This)
	assert.False(t, p.This)
	assert.Equal(t, this, m.This())
	assert.Equal(t, 1, p.Index)

	assert.False(t, m.HasBody())
	r := m.Return(m.LoadParam(p))
	assert.True(t, m.HasBody())
	assert.Equal(t, 1, r.Index)
	assert.Equal(t, "1: Return #0", r.String())

	s := NewMethod("S", true)
	s.AddParam("a", nil)
	assert.Nil(t, s.This())
	assert.Equal(t, "Op(42)", Op(42).String())
}

func TestOracle(t *testing.T) {
	m := NewMethod("F", true)
	a, b := m.AddParam("a", nil), m.AddParam("b", nil)

	la, lb := m.LoadParam(a), m.LoadParam(b)
	phi := m.Join(nil, la, nil)
	phi2 := m.Join(nil, phi, lb)
	// Cyclic join, as produced by loops.
	phi.Operands[1] = phi2
	ret := m.Return(phi2)
	call := m.Call(&CallSite{Name: "g", Static: true}, nil, la, nil)

	o := NewOracle()
	assert.ElementsMatch(t, []*Instruction{la, lb}, o.Producers(m, ret, 0))
	assert.Equal(t, []*Instruction{la}, o.Producers(m, call, 0))
	assert.Empty(t, o.Producers(m, call, 1), "unknown producer")
	assert.Empty(t, o.Producers(m, call, 2), "out of range")

	assert.ElementsMatch(t, []*Instruction{ret, call}, o.Consumers(m, la))
	assert.Equal(t, []*Instruction{ret}, o.Consumers(m, lb))
	assert.Empty(t, o.Consumers(m, ret))

	// Cached answers are stable.
	assert.Equal(t, o.Consumers(m, la), o.Consumers(m, la))
}

func TestStaticGraph(t *testing.T) {
	prog := &Program{}
	callee := prog.Add(NewMethod("callee", true))
	callee.Return()

	caller := prog.Add(NewMethod("caller", true))
	site := &CallSite{Callee: callee, Static: true}
	c1 := caller.Call(site, nil)
	c2 := caller.Call(site, nil)
	dyn := caller.Call(&CallSite{Name: "dynamic"}, nil)

	g := StaticGraph(prog)
	assert.Equal(t, []*Method{callee}, g.Callees(c1))
	assert.Equal(t, []*Method{callee}, g.Callees(c2))
	assert.Empty(t, g.Callees(dyn))
	assert.Equal(t, []*Method{caller}, g.Callers(callee), "callers are distinct")

	g.AddEdge(dyn, caller)
	assert.Equal(t, []*Method{caller}, g.Callers(caller))
}

func TestTypes(t *testing.T) {
	iter := named("Iter", structOf(nil))
	site := &CallSite{Name: "Get"}
	ts := &Types{
		Enumerators: []types.Type{iter},
		Accessors: map[*CallSite]Accessor{
			site: {Kind: CollectionGet},
		},
	}

	assert.True(t, ts.IsEnumeratorType(iter))
	assert.False(t, ts.IsEnumeratorType(types.NewPointer(iter)))
	assert.False(t, ts.IsEnumeratorType(nil))

	acc, ok := ts.Accessor(site)
	require.True(t, ok)
	assert.Equal(t, CollectionGet, acc.Kind)
	_, ok = ts.Accessor(&CallSite{Name: "Get"})
	assert.False(t, ok)
}
