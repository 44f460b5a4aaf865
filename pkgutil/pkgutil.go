// Package pkgutil loads Go packages for analysis.
package pkgutil

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/packages"
)

// Should be equivalent to packages.LoadAllSyntax (which is deprecated)
const LoadMode = packages.NeedSyntax | packages.NeedTypesInfo | packages.NeedTypes |
	packages.NeedTypesSizes | packages.NeedImports | packages.NeedName |
	packages.NeedFiles | packages.NeedCompiledGoFiles | packages.NeedDeps

// LoadPackagesFromSource loads a single main package with the given source
// outside of any module.
func LoadPackagesFromSource(source string) ([]*packages.Package, error) {
	// We use the Overlay mechanism to allow the tool to load a non-existent file.
	config := &packages.Config{
		Mode:  LoadMode,
		Tests: false,
		Dir:   "",
		Env:   append(os.Environ(), "GO111MODULE=off", "GOPATH=/fake"),
		Overlay: map[string][]byte{
			"/fake/testpackage/main.go": []byte(source),
		},
	}

	return LoadPackagesWithConfig(config, "/fake/testpackage/main.go")
}

// LoadPackagesWithConfig loads the packages matching queries. Packages with
// errors are printed to stderr and reported as an error, but are still
// returned.
func LoadPackagesWithConfig(config *packages.Config, queries ...string) ([]*packages.Package, error) {
	pkgs, err := packages.Load(config, queries...)
	switch {
	case err != nil:
		return nil, errors.Wrap(err, "loading packages")
	case len(pkgs) == 0:
		return nil, errors.Errorf("no packages match %q", queries)
	default:
		if n := packages.PrintErrors(pkgs); n > 0 {
			return pkgs, errors.Errorf("%d errors encountered while loading packages", n)
		}
		return pkgs, nil
	}
}
