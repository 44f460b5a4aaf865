package provenance_test

import (
	"os"
	"os/exec"
	"path"
	"strings"
	"testing"

	"github.com/BarrensZeppelin/provenance"
	"github.com/BarrensZeppelin/provenance/engine"
	"github.com/BarrensZeppelin/provenance/pkgutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// TestGoPointerTestdata analyses the test programs of
// golang.org/x/tools/go/pointer, which exercise most SSA instructions, and
// checks that the summaries are well formed.
func TestGoPointerTestdata(t *testing.T) {
	cmd := exec.Command("go", "list", "-f", "{{.Dir}}", "golang.org/x/tools/go/pointer/testdata")
	var out strings.Builder
	cmd.Stdout = &out

	err := cmd.Run()
	require.NoError(t, err)

	testdataPath := strings.TrimRight(out.String(), "\n")
	testfiles, err := os.ReadDir(testdataPath)
	require.NoError(t, err)

	for _, entry := range testfiles {
		fullpath := path.Join(testdataPath, entry.Name())

		config := &packages.Config{
			Mode:  pkgutil.LoadMode,
			Tests: true,
		}

		entry := entry
		t.Run(entry.Name(), func(t *testing.T) {
			t.Parallel()

			pkgs, err := pkgutil.LoadPackagesWithConfig(config, fullpath)
			require.NoError(t, err)

			prog, _ := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
			prog.Build()

			for _, kind := range [...]provenance.CallGraphKind{
				provenance.CallGraphStatic,
				provenance.CallGraphCHA,
			} {
				res, err := provenance.Analyze(provenance.AnalysisConfig{
					Program:   prog,
					CallGraph: kind,
				})
				require.NoError(t, err)
				checkSummaries(t, res)
			}
		})
	}
}

// checkSummaries asserts that every chain of a summary originates in a
// parameter of the summarised function and respects the length bound.
func checkSummaries(t *testing.T, res *provenance.Result) {
	t.Helper()
	for _, fn := range res.Functions() {
		s := res.Summary(fn)
		m := res.Methods[fn]
		require.Equal(t, m, s.Method)

		chains := append([]engine.Chain(nil), s.Return().Chains()...)
		for _, p := range s.Params().Keys() {
			assert.Equal(t, m, p.Method, "parameter %v of %v", p, fn)
			chains = append(chains, s.Params().Get(p).Chains()...)
		}

		for _, c := range chains {
			assert.Equal(t, m, c.Origin().Method, "origin of %v in %v", c, fn)
			assert.LessOrEqual(t, c.Len(), engine.DefaultMaxChainLength)
		}
	}
}
