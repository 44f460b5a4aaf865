package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvenance(t *testing.T) {
	f := newFixture()
	p := param("p")

	prov := NewProvenance(p)
	assert.True(t, prov.Add(Root(p).Prepend(f.x)))
	assert.False(t, prov.Add(New(p, []Step{f.x}, nil)), "structurally equal chain")
	assert.True(t, prov.Add(Root(p)))
	assert.Equal(t, 2, prov.Len())
	assert.True(t, prov.Contains(Root(p)))

	err := catchInvariant(func() { prov.Add(Root(param("q"))) })
	require.NotNil(t, err, "chains of other origins are rejected")
}

func TestAggregate(t *testing.T) {
	f := newFixture()
	p, q := param("p"), param("q")

	t.Run("AddAndMerge", func(t *testing.T) {
		a := NewAggregate[param]()
		assert.True(t, a.AddChain(Root(p)))
		assert.False(t, a.AddChain(Root(p)))

		b := Of(Root(p), Root(q).Prepend(f.x))
		assert.True(t, a.Merge(b))
		assert.False(t, a.Merge(b), "merge is idempotent")
		assert.False(t, a.Merge(nil))

		assert.Equal(t, []param{p, q}, a.Origins())
		assert.Equal(t, 2, a.Len())

		prov, ok := a.Lookup(q)
		require.True(t, ok)
		assert.Equal(t, ".x", Render(prov.Chains()[0].Hierarchy()))

		_, ok = a.Lookup(param("r"))
		assert.False(t, ok)
	})

	t.Run("MergeCopiesEmptyOrigins", func(t *testing.T) {
		// An origin without chains is still information.
		withEmpty := NewAggregate[param]()
		withEmpty.provenance(q)

		a := NewAggregate[param]()
		assert.True(t, a.Merge(withEmpty))
		assert.False(t, a.Merge(withEmpty))
		_, ok := a.Lookup(q)
		assert.True(t, ok)
		assert.Equal(t, 0, a.Len())
	})

	t.Run("RebuildAbsence", func(t *testing.T) {
		a := Of(Root(p), Root(q))
		assert.Nil(t, a.WrapInEnumerator(), "all chains failed")
		assert.Nil(t, a.Unwrap(f.n))

		partial := Of(Root(p).Prepend(f.elem), Root(q))
		wrapped := partial.WrapInEnumerator()
		require.NotNil(t, wrapped)
		assert.Equal(t, []param{p}, wrapped.Origins(), "failed origins are dropped")

		empty := NewAggregate[param]()
		res := empty.Prepend(f.x)
		require.NotNil(t, res, "present but empty stays present")
		assert.Equal(t, 0, res.Len())

		var absent *Aggregate[param]
		assert.Nil(t, absent.Prepend(f.x))
		assert.Equal(t, 0, absent.Len())
		assert.Equal(t, "Ø", absent.String())
	})

	t.Run("Without", func(t *testing.T) {
		a := Of(Root(p), Root(q).Prepend(f.x))
		res := a.Without(Of(Root(p).Prepend(f.y)))
		assert.Equal(t, []param{q}, res.Origins())
		assert.Equal(t, 2, a.Len(), "receiver is unchanged")

		all := a.Without(a)
		require.NotNil(t, all)
		assert.Equal(t, 0, all.Len())
	})

	t.Run("Freeze", func(t *testing.T) {
		a := Of(Root(p))
		c := a.Clone()
		a.Freeze()

		assert.NotNil(t, catchInvariant(func() { a.AddChain(Root(q)) }))
		assert.NotNil(t, catchInvariant(func() { a.Merge(c) }))
		assert.True(t, c.AddChain(Root(q)), "clones are mutable")
	})
}

func TestTraces(t *testing.T) {
	f := newFixture()
	p := param("p")

	tr := NewTraces[string, param]()
	assert.False(t, tr.Merge("a", nil))
	assert.Equal(t, 0, tr.Len())

	assert.True(t, tr.Merge("a", NewAggregate[param]()), "present but empty creates the entry")
	assert.False(t, tr.Merge("a", NewAggregate[param]()))
	assert.NotNil(t, tr.Get("a"))
	assert.Nil(t, tr.Get("b"))

	assert.True(t, tr.AddChain("b", Root(p).Prepend(f.x)))
	assert.False(t, tr.AddChain("b", Root(p).Prepend(f.x)))
	assert.Equal(t, []string{"a", "b"}, tr.Keys())
	assert.Equal(t, 1, tr.Size())

	clone := tr.Clone()
	tr.Freeze()
	assert.NotNil(t, catchInvariant(func() { tr.AddChain("c", Root(p)) }))
	assert.True(t, clone.AddChain("c", Root(p)))
	assert.Equal(t, 2, tr.Len())
}
