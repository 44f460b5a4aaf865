package engine

import (
	"github.com/BarrensZeppelin/provenance/chain"
	"github.com/BarrensZeppelin/provenance/ir"
)

// formalIndex maps the argument at position arg of a call through site to
// the index of the corresponding formal parameter of impl. The result may be
// out of range, e.g. for the receiver of a call dispatched to a static
// implementation.
func formalIndex(site *ir.CallSite, impl *ir.Method, arg int) int {
	switch {
	case site.NewObject:
		return arg + 1
	case !site.Static && impl.Static:
		return arg - 1
	case site.Static && !impl.Static:
		return arg + 1
	default:
		return arg
	}
}

// argIndex is the inverse of formalIndex.
func argIndex(site *ir.CallSite, impl *ir.Method, formal int) int {
	switch {
	case site.NewObject:
		return formal - 1
	case !site.Static && impl.Static:
		return formal + 1
	case site.Static && !impl.Static:
		return formal - 1
	default:
		return formal
	}
}

// combine substitutes every inner chain into every outer chain.
func (in *interp) combine(outer *Aggregate, inner []Chain) *Aggregate {
	var res *Aggregate
	for _, o := range outer.Chains() {
		for _, i := range inner {
			if c, ok := chain.Combine(o, i); ok && c.Len() <= in.config.MaxChainLength {
				if res == nil {
					res = chain.NewAggregate[*ir.Param]()
				}
				res.AddChain(c)
			}
		}
	}
	return res
}

// call substitutes the summaries of every implementation the call may
// dispatch to into the provenance of the call result and of its arguments.
func (in *interp) call(instr *ir.Instruction) {
	site := instr.Call
	if site.Static && !site.NewObject && len(instr.Operands) == 0 {
		return
	}

	consumed := instr.Type != nil && !in.config.Types.IsValueType(instr.Type) &&
		len(in.config.Oracle.Consumers(in.method, instr)) > 0

	for _, impl := range in.config.CallGraph.Callees(instr) {
		if consumed {
			in.substituteReturn(instr, impl)
		}
		in.substituteParams(instr, impl)
	}
}

// substituteReturn adds to the call result the provenance the callee returns
// for each formal, expressed relative to the corresponding argument.
func (in *interp) substituteReturn(instr *ir.Instruction, impl *ir.Method) {
	ret := in.returns.Get(impl)
	if ret == nil {
		return
	}

	for arg := range instr.Operands {
		fi := formalIndex(instr.Call, impl, arg)
		if fi < 0 || fi >= len(impl.Params) {
			continue
		}
		inner, ok := ret.Lookup(impl.Params[fi])
		if !ok {
			continue
		}
		if outer := in.operand(instr, arg); outer != nil {
			in.push(instr, in.combine(outer, inner.Chains()))
		}
	}
}

// substituteParams replays the stores the callee performs into its
// parameters on the arguments passed for them.
func (in *interp) substituteParams(instr *ir.Instruction, impl *ir.Method) {
	callee, ok := in.states[impl]
	if !ok {
		return
	}

	site := instr.Call
	for _, container := range callee.params.Keys() {
		ci := argIndex(site, impl, container.Index)
		if ci < 0 || ci >= len(instr.Operands) {
			continue
		}
		instance := derived(in.operand(instr, ci))

		var res *Aggregate
		for _, inner := range callee.params.Get(container).Chains() {
			origin := inner.Origin()
			if origin == container || origin.Method != impl {
				continue
			}
			oi := argIndex(site, impl, origin.Index)
			if oi < 0 || oi >= len(instr.Operands) {
				continue
			}
			outer := in.operand(instr, oi)
			if outer == nil {
				continue
			}
			if agg := in.combine(outer.Without(instance), []Chain{inner}); agg != nil {
				if res == nil {
					res = agg
				} else {
					res.Merge(agg)
				}
			}
		}

		if res == nil {
			continue
		}
		for _, p := range in.config.Oracle.Producers(in.method, instr, ci) {
			in.publish(p, res)
		}
	}
}
