// Package provenance computes, for every function of a Go program, which of
// its parameters flow into its return value and into its other parameters,
// and along which access chains (fields, slice, array and map elements,
// enumerators).
//
// Functions are lowered from SSA form to the ir program model and analysed by
// the engine to a fixpoint over a call graph built with one of the algorithms
// of golang.org/x/tools/go/callgraph.
package provenance

import (
	"log"
	"sort"

	"github.com/BarrensZeppelin/provenance/engine"
	"github.com/BarrensZeppelin/provenance/internal/maps"
	"github.com/BarrensZeppelin/provenance/ir"
	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}

var ErrNoProgram = errors.New("no program to analyse")

type AnalysisConfig struct {
	Program *ssa.Program

	// CallGraph selects how dynamic calls are resolved. Defaults to CHA.
	CallGraph CallGraphKind

	// Method names recognised as element accessors in addition to
	// DefaultAccessors.
	Accessors Accessors

	// Chains with more steps are not tracked. Defaults to
	// engine.DefaultMaxChainLength.
	MaxChainLength int

	Verbose bool
}

// Analyze lowers every function of config.Program and computes their
// provenance summaries.
func Analyze(config AnalysisConfig) (*Result, error) {
	prog := config.Program
	if prog == nil {
		return nil, ErrNoProgram
	}

	cg, err := buildCallGraph(prog, config.CallGraph)
	if err != nil {
		return nil, errors.Wrap(err, "building call graph")
	}

	funcs := maps.Keys(ssautil.AllFunctions(prog))
	sort.Slice(funcs, func(i, j int) bool {
		return funcs[i].String() < funcs[j].String()
	})

	tg := newTypeGraph(config.Accessors)
	l := newLowerer(tg)
	irProg := &ir.Program{}
	for _, fn := range funcs {
		irProg.Add(l.declare(fn))
	}
	for _, fn := range funcs {
		l.lower(fn)
	}

	if config.Verbose {
		log.Printf("Lowered %d functions", len(funcs))
	}

	res := engine.Analyze(engine.Config{
		Program:        irProg,
		CallGraph:      l.graph(cg),
		Types:          tg,
		MaxChainLength: config.MaxChainLength,
		Verbose:        config.Verbose,
	})

	return &Result{
		Program:   irProg,
		CallGraph: cg,
		Methods:   l.methods,
		Rounds:    res.Rounds,
		Visits:    res.Visits,
		res:       res,
		params:    l.params,
		values:    l.values,
	}, nil
}
