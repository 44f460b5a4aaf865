// Package engine implements the interprocedural parameter-provenance
// analysis over the ir program model.
//
// Each method is interpreted to a local fixpoint, propagating access chains
// rooted at its parameters through locals, fields, array and collection
// elements, enumerators and calls. A worklist over the call graph re-runs the
// callers of every method whose externally visible summary (return value or
// parameter traces) grew, until no summary changes.
package engine

import (
	"log"

	"github.com/BarrensZeppelin/provenance/chain"
	"github.com/BarrensZeppelin/provenance/internal/queue"
	"github.com/BarrensZeppelin/provenance/ir"
)

// DefaultMaxChainLength bounds the number of steps of a tracked chain when
// Config.MaxChainLength is not set.
const DefaultMaxChainLength = 16

type (
	Chain     = chain.Chain[*ir.Param]
	Aggregate = chain.Aggregate[*ir.Param]
)

type Config struct {
	Program *ir.Program

	// Oracle resolves operand producers. Defaults to ir.NewOracle().
	Oracle ir.Oracle
	// CallGraph defaults to the statically declared call targets.
	CallGraph ir.CallGraph
	// Types defaults to an ir.Types without enumerators or accessors.
	Types ir.TypeGraph

	// Chains with more steps than MaxChainLength are dropped.
	MaxChainLength int

	// Log per-round worklist statistics.
	Verbose bool
}

type state struct {
	method *ir.Method
	stack  *chain.Traces[ir.LocationKey, *ir.Param]
	locals *chain.Traces[*ir.Local, *ir.Param]
	// params maps a parameter to the provenance of what has been stored
	// into it, i.e. which parameters end up contained in it and how.
	params *chain.Traces[*ir.Param, *ir.Param]
	passes int
}

type analysis struct {
	config Config
	layers *chain.Layers
	// Shared return summary of every method.
	returns *chain.Traces[*ir.Method, *ir.Param]
	states  map[*ir.Method]*state

	rounds int
	visits int

	// Called after every intraprocedural pass.
	afterPass func(*state)
}

func newAnalysis(config Config) *analysis {
	if config.Program == nil {
		config.Program = &ir.Program{}
	}
	if config.Oracle == nil {
		config.Oracle = ir.NewOracle()
	}
	if config.CallGraph == nil {
		config.CallGraph = ir.StaticGraph(config.Program)
	}
	if config.Types == nil {
		config.Types = &ir.Types{}
	}
	if config.MaxChainLength <= 0 {
		config.MaxChainLength = DefaultMaxChainLength
	}

	return &analysis{
		config:  config,
		layers:  chain.NewLayers(config.Types.IsValueType),
		returns: chain.NewTraces[*ir.Method, *ir.Param](),
		states:  make(map[*ir.Method]*state),
	}
}

// Analyze runs the analysis on config.Program to a global fixpoint.
func Analyze(config Config) *Result {
	a := newAnalysis(config)
	a.solve()
	return a.result()
}

func (a *analysis) state(m *ir.Method) *state {
	st, ok := a.states[m]
	if !ok {
		st = &state{
			method: m,
			stack:  chain.NewTraces[ir.LocationKey, *ir.Param](),
			locals: chain.NewTraces[*ir.Local, *ir.Param](),
			params: chain.NewTraces[*ir.Param, *ir.Param](),
		}
		a.states[m] = st
	}
	return st
}

// solve processes the worklist in rounds. A round processes the methods that
// were pending when it started; callers enqueued during a round are
// processed in the next.
func (a *analysis) solve() {
	wl := queue.NewWorklist[*ir.Method]()
	for _, m := range a.config.Program.Methods {
		if m.HasBody() {
			wl.Push(m)
		}
	}

	for !wl.Empty() {
		a.rounds++
		batch, changed := wl.Len(), 0
		for i := 0; i < batch; i++ {
			m := wl.Pop()
			a.visits++
			if !a.process(m) {
				continue
			}

			changed++
			for _, caller := range a.config.CallGraph.Callers(m) {
				if caller.HasBody() {
					wl.Push(caller)
				}
			}
		}

		if a.config.Verbose {
			log.Printf("Round %d: %d methods, %d summaries changed, %d pending",
				a.rounds, batch, changed, wl.Len())
		}
	}
}

// process interprets m until a pass makes no internal change and reports
// whether its return or parameter summaries grew.
func (a *analysis) process(m *ir.Method) (external bool) {
	in := &interp{analysis: a, state: a.state(m), method: m}
	for {
		in.internal, in.external = false, false
		for _, instr := range m.Body {
			in.visit(instr)
		}

		in.state.passes++
		if a.afterPass != nil {
			a.afterPass(in.state)
		}

		external = external || in.external
		if !in.internal {
			return external
		}
	}
}

// bound drops chains that are longer than the configured maximum.
func (a *analysis) bound(agg *Aggregate) *Aggregate {
	limit := a.config.MaxChainLength
	return agg.Rebuild(func(c Chain) (Chain, bool) {
		return c, c.Len() <= limit
	})
}
