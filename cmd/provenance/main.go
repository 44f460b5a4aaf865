package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/BarrensZeppelin/provenance"
	"github.com/BarrensZeppelin/provenance/internal/config"
	"github.com/BarrensZeppelin/provenance/pkgutil"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

var (
	configFile = flag.String("config", "", "read configuration from YAML `file`")
	callGraph  = flag.String("callgraph", "", "call graph `algorithm` (static, cha, vta or pointer)")
	maxChain   = flag.Int("max-chain", 0, "maximum number of steps of a tracked access chain")
	verbose    = flag.Bool("v", false, "log analysis progress")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
	dir        = flag.String("dir", "", "alternative directory to run the go build tool in")
	tests      = flag.Bool("tests", false, "include test packages")
)

func main() {
	flag.Parse()

	conf := config.Default()
	if *configFile != "" {
		var err error
		if conf, err = config.Load(*configFile); err != nil {
			log.Fatal(err)
		}
	}

	// Flags override the configuration file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "callgraph":
			conf.CallGraph = *callGraph
		case "max-chain":
			conf.MaxChainLength = *maxChain
		case "v":
			conf.Verbose = *verbose
		case "dir":
			conf.Dir = *dir
		case "tests":
			conf.Tests = *tests
		}
	})
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}

	queries := flag.Args()
	if len(queries) == 0 {
		queries = conf.Packages
	}
	if len(queries) == 0 {
		log.Fatal("Specify a package query on the command line")
	}

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

	pkgs, err := pkgutil.LoadPackagesWithConfig(&packages.Config{
		Mode:  pkgutil.LoadMode,
		Tests: conf.Tests,
		Dir:   conf.Dir,
	}, queries...)

	if err != nil {
		log.Fatalf("Loading packages failed: %v", err)
	}

	log.Printf("Loaded %d packages", len(pkgs))

	prog, _ := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	log.Println("Built packages")

	aconf, err := conf.AnalysisConfig(prog)
	if err != nil {
		log.Fatal(err)
	}
	res, err := provenance.Analyze(aconf)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	log.Printf("%d functions with provenance", len(res.Functions()))
	res.Fprint(os.Stdout)
}
