package engine

import (
	"fmt"
	"io"

	"github.com/BarrensZeppelin/provenance/chain"
	"github.com/BarrensZeppelin/provenance/ir"
)

// Summary is the frozen provenance information of one method.
type Summary struct {
	Method *ir.Method

	ret    *Aggregate
	params *chain.Traces[*ir.Param, *ir.Param]
	locals *chain.Traces[*ir.Local, *ir.Param]
	stack  *chain.Traces[ir.LocationKey, *ir.Param]
}

// Return is the provenance of the values returned by the method, or nil.
func (s *Summary) Return() *Aggregate { return s.ret }

// Params maps each parameter to the provenance of the values stored into it.
func (s *Summary) Params() *chain.Traces[*ir.Param, *ir.Param] { return s.params }

func (s *Summary) Locals() *chain.Traces[*ir.Local, *ir.Param] { return s.locals }

func (s *Summary) Stack() *chain.Traces[ir.LocationKey, *ir.Param] { return s.stack }

// ParamChains returns the chains along which origin is stored into any
// parameter of the method.
func (s *Summary) ParamChains(origin *ir.Param) []Chain {
	var res []Chain
	for _, container := range s.params.Keys() {
		if p, ok := s.params.Get(container).Lookup(origin); ok {
			res = append(res, p.Chains()...)
		}
	}
	return res
}

func (s *Summary) empty() bool {
	return s.ret.Len() == 0 && s.params.Size() == 0 &&
		s.locals.Size() == 0 && s.stack.Size() == 0
}

// Fprint writes the return and parameter summaries of s to w.
func (s *Summary) Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s:\n", s.Method)
	if s.ret != nil {
		fmt.Fprintf(w, "\treturn: %v\n", s.ret)
	}
	for _, p := range s.params.Keys() {
		fmt.Fprintf(w, "\t%s ⊇ %v\n", p, s.params.Get(p))
	}
}

// Result holds the summaries of every method with provenance.
type Result struct {
	// Methods with a summary, in program order.
	Methods   []*ir.Method
	summaries map[*ir.Method]*Summary

	// Worklist rounds and method visits until the fixpoint.
	Rounds int
	Visits int
}

// Summary returns the summary of m, or nil if nothing was found for it.
func (r *Result) Summary(m *ir.Method) *Summary {
	return r.summaries[m]
}

func (a *analysis) result() *Result {
	res := &Result{
		summaries: make(map[*ir.Method]*Summary),
		Rounds:    a.rounds,
		Visits:    a.visits,
	}

	for _, m := range a.config.Program.Methods {
		st, ok := a.states[m]
		if !ok {
			continue
		}

		s := &Summary{
			Method: m,
			ret:    a.returns.Get(m).Clone(),
			params: st.params.Clone(),
			locals: st.locals.Clone(),
			stack:  st.stack.Clone(),
		}
		if s.empty() {
			continue
		}

		s.ret.Freeze()
		s.params.Freeze()
		s.locals.Freeze()
		s.stack.Freeze()
		res.Methods = append(res.Methods, m)
		res.summaries[m] = s
	}
	return res
}
