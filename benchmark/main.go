package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/BarrensZeppelin/provenance"
	"github.com/BarrensZeppelin/provenance/pkgutil"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

var benchmarks = []repo{
	{"grpc/grpc-go", "23ac72b6454a2bcac32e19ccf501ca3a070f517c"},
	{"gin-gonic/gin", "dc9cff732e27ce4ac21b25772a83c462a28b8b80"},
	{"fatedier/frp", "f1454e91f56508603e4c2e3c7bf37ccb534458c2"},
	// kubernetes takes a long time to analyze...
	// {"kubernetes/kubernetes", "2a5fd3076aee14c1be51c703a7e5b447d638387d"},
	// {"gohugoio/hugo", "2ae4786ca1e4b912fabc8a6be503772374fed5d6"},
	// {"grafana/grafana", "85a207fcebb5acffe6474b97fef91f611f1989ee"},
	{"junegunn/fzf", "58835e40f35fd1007de9bf607e06d555f085354c"},
	// {"syncthing/syncthing", "95b3c26da724aff5b9aae88daf0783d866e95fda"},
	{"caddyserver/caddy", "1b73e3862d312ac2057265bf2a5fd95760dbe9da"},
}

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var maxChain = flag.Int("max-chain", 0, "maximum number of steps of a tracked access chain")

var dir = "."

type repo struct{ name, commit string }

func (r repo) install() string {
	repodir := filepath.Join(dir, "_benchfiles", strings.ReplaceAll(r.name, "/", "#"))
	if _, err := os.Stat(repodir); err != nil {
		if !os.IsNotExist(err) {
			log.Fatal(err)
		}

		log.Printf("Installing %s @ %s", r.name, r.commit)

		os.MkdirAll(repodir, 0750)

		cmd := exec.Command("sh", "-c",
			fmt.Sprintf(`git init && \
	git config advice.detachedHead false && \
	git remote add origin https://github.com/%s.git && \
	git fetch --depth 1 origin %s && \
	git checkout FETCH_HEAD`, r.name, r.commit))
		cmd.Dir = repodir
		if err := cmd.Run(); err != nil {
			log.Fatal(err)
		}
	}

	return repodir
}

func main() {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Fatal("Failed to close", f)
			}
		}()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	dirs := make([]string, len(benchmarks))
	for i, repo := range benchmarks {
		dirs[i] = repo.install()
	}

	dataFile, err := os.Create(filepath.Join(dir, "data.jsonl"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := dataFile.Close(); err != nil {
			log.Fatalf("Failed to close: %v %v", dataFile, err)
		}
	}()

	dataEncoder := json.NewEncoder(dataFile)

	for i, dir := range dirs {
		var modules []string
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if filepath.Base(path) == "go.mod" {
				modules = append(modules, path)
			}
			return nil
		})
		if err != nil {
			log.Fatal(err)
		}

		println()
		log.Printf("Found %d modules for %s", len(modules), benchmarks[i].name)

		for _, mod := range modules {
			gopath, err := filepath.Abs(filepath.Dir(dir))
			if err != nil {
				log.Fatal(err)
			}

			println()
			moddir := filepath.Dir(mod)
			pkgs, err := pkgutil.LoadPackagesWithConfig(&packages.Config{
				Mode:  pkgutil.LoadMode | packages.NeedModule,
				Tests: true,
				Dir:   moddir,
				Env:   append(os.Environ(), "GO111MODULE=on", "GOPATH="+gopath),
			}, "./...")
			if err != nil {
				log.Print(moddir, err)
				continue
			}

			modulePath := pkgs[0].Module.Path
			log.Printf("Loaded %d packages for %s", len(pkgs), modulePath)

			prog, _ := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
			prog.Build()

			log.Print("SSA construction complete")
			hasMains := len(ssautil.MainPackages(prog.AllPackages())) > 0

			data := map[string]any{
				"module":   modulePath,
				"packages": len(pkgs),
			}

			for _, kind := range [...]provenance.CallGraphKind{
				provenance.CallGraphStatic,
				provenance.CallGraphCHA,
				provenance.CallGraphVTA,
				provenance.CallGraphPointer,
			} {
				if kind == provenance.CallGraphPointer && !hasMains {
					log.Print("Skipping pointer call graph due to no main packages")
					continue
				}

				start := time.Now()
				res, err := provenance.Analyze(provenance.AnalysisConfig{
					Program:        prog,
					CallGraph:      kind,
					MaxChainLength: *maxChain,
				})
				if err != nil {
					log.Printf("%s analysis failed: %v", kind, err)
					continue
				}
				analysisDuration := time.Since(start)

				st := summaryStats(res)
				log.Printf(`%s analysis completed in %v
Functions: %d, with provenance: %d
Rounds: %d, visits: %d
Return chains: %d, parameter chains: %d`,
					kind, analysisDuration,
					len(res.Methods), st.functions,
					res.Rounds, res.Visits,
					st.returnChains, st.paramChains)

				data[string(kind)] = map[string]any{
					"analysisDuration": analysisDuration.Milliseconds(),
					"functions":        len(res.Methods),
					"summaries":        st.functions,
					"rounds":           res.Rounds,
					"visits":           res.Visits,
					"returnChains":     st.returnChains,
					"paramChains":      st.paramChains,
					"longestChain":     st.longest,
				}
			}

			dataEncoder.Encode(data)
		}
	}
}

type stats struct {
	functions    int
	returnChains int
	paramChains  int
	longest      int
}

func summaryStats(res *provenance.Result) (st stats) {
	for _, fn := range res.Functions() {
		s := res.Summary(fn)
		st.functions++
		st.returnChains += s.Return().Len()
		st.paramChains += s.Params().Size()

		for _, c := range s.Return().Chains() {
			if c.Len() > st.longest {
				st.longest = c.Len()
			}
		}
		for _, p := range s.Params().Keys() {
			for _, c := range s.Params().Get(p).Chains() {
				if c.Len() > st.longest {
					st.longest = c.Len()
				}
			}
		}
	}
	return
}
