package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BarrensZeppelin/provenance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		c, err := Decode(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, Default(), c)
	})

	t.Run("Full", func(t *testing.T) {
		c, err := Decode(strings.NewReader(`
packages: [./...]
dir: /src
tests: true
callgraph: vta
max_chain_length: 8
verbose: true
accessors:
  getters: [Peek]
  setters: [Push]
  iterators: [Walk]
`))
		require.NoError(t, err)
		assert.Equal(t, []string{"./..."}, c.Packages)
		assert.Equal(t, "/src", c.Dir)
		assert.True(t, c.Tests)

		ac, err := c.AnalysisConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, provenance.CallGraphVTA, ac.CallGraph)
		assert.Equal(t, 8, ac.MaxChainLength)
		assert.True(t, ac.Verbose)
		assert.Equal(t, []string{"Peek"}, ac.Accessors.Getters)
		assert.Equal(t, []string{"Push"}, ac.Accessors.Setters)
		assert.Equal(t, []string{"Walk"}, ac.Accessors.Iterators)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := Decode(strings.NewReader("max_chain: 3\n"))
		assert.Error(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := Decode(strings.NewReader("callgraph: rta\n"))
		assert.ErrorIs(t, err, provenance.ErrUnknownCallGraph)

		_, err = Decode(strings.NewReader("max_chain_length: -1\n"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provenance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("callgraph: static\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "static", c.CallGraph)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
