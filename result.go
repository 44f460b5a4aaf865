package provenance

import (
	"fmt"
	"io"

	"github.com/BarrensZeppelin/provenance/chain"
	"github.com/BarrensZeppelin/provenance/engine"
	"github.com/BarrensZeppelin/provenance/ir"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"
)

type Result struct {
	Program   *ir.Program
	CallGraph *callgraph.Graph
	// Methods maps every lowered function to its ir method.
	Methods map[*ssa.Function]*ir.Method

	// Worklist rounds and function visits until the fixpoint.
	Rounds int
	Visits int

	res    *engine.Result
	params map[*ssa.Parameter]*ir.Param
	values map[ssa.Value]*ir.Instruction
}

// Summary returns the summary of fn, or nil if no provenance was found in it.
func (r *Result) Summary(fn *ssa.Function) *engine.Summary {
	m, ok := r.Methods[fn]
	if !ok {
		return nil
	}
	return r.res.Summary(m)
}

// Param returns the ir parameter p was lowered to.
func (r *Result) Param(p *ssa.Parameter) *ir.Param {
	return r.params[p]
}

// Provenance returns the provenance of the value v in its function, or nil.
func (r *Result) Provenance(v ssa.Value) *engine.Aggregate {
	instr, ok := r.values[v]
	if !ok {
		return nil
	}

	var res *engine.Aggregate
	for _, src := range ir.Sources(instr) {
		s := r.res.Summary(src.Method)
		if s == nil {
			continue
		}
		if agg := s.Stack().Get(ir.KeyOf(src)); agg != nil {
			if res == nil {
				res = chain.NewAggregate[*ir.Param]()
			}
			res.Merge(agg)
		}
	}
	return res
}

// Functions returns the functions with a summary in program order.
func (r *Result) Functions() []*ssa.Function {
	var res []*ssa.Function
	for _, m := range r.res.Methods {
		if fn, ok := m.Source.(*ssa.Function); ok {
			res = append(res, fn)
		}
	}
	return res
}

// Fprint writes the return and parameter summaries of every function that
// has one.
func (r *Result) Fprint(w io.Writer) {
	for _, m := range r.res.Methods {
		s := r.res.Summary(m)
		if s.Return() == nil && s.Params().Len() == 0 {
			continue
		}
		s.Fprint(w)
	}
	fmt.Fprintf(w, "%d functions, %d rounds, %d visits\n",
		len(r.Methods), r.Rounds, r.Visits)
}
