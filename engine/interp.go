package engine

import (
	"github.com/BarrensZeppelin/provenance/chain"
	"github.com/BarrensZeppelin/provenance/ir"
)

// interp runs single passes over the body of one method.
type interp struct {
	*analysis
	state  *state
	method *ir.Method

	// Set when a pass grows the stack or local traces of the method.
	internal bool
	// Set when a pass grows the return or parameter summaries.
	external bool
}

func (in *interp) visit(instr *ir.Instruction) {
	types := in.config.Types
	switch instr.Op {
	case ir.OpReturn:
		in.ret(instr)

	case ir.OpLoadParam:
		if !types.IsValueType(instr.Param.Type) {
			in.push(instr, chain.Of(chain.Root(instr.Param)))
		}

	case ir.OpLoadLocal:
		if l := instr.Local; !types.IsValueType(l.Type) {
			in.push(instr, in.state.locals.Get(l))
		}

	case ir.OpStoreLocal:
		if l := instr.Local; !types.IsValueType(l.Type) {
			if in.state.locals.Merge(l, in.bound(in.operand(instr, 0))) {
				in.internal = true
			}
		}

	case ir.OpLoadField:
		f := instr.Field
		if f.Static || types.IsValueType(f.Type) {
			return
		}
		step := in.layers.Member(f.Owner, f.Name, f.Type)
		in.push(instr, in.operand(instr, 0).Unwrap(step))

	case ir.OpStoreField:
		f := instr.Field
		if f.Static {
			return
		}
		if types.IsEnumeratorType(f.Owner) {
			in.store(instr, 0, 1, (*Aggregate).WrapInEnumerator)
		} else {
			step := in.layers.Member(f.Owner, f.Name, f.Type)
			in.store(instr, 0, 1, func(agg *Aggregate) *Aggregate { return agg.Prepend(step) })
		}

	case ir.OpLoadElem:
		in.loadElem(instr, instr.Element)

	case ir.OpStoreElem:
		in.storeElem(instr, instr.Element, 1)

	case ir.OpCall:
		if acc, ok := types.Accessor(instr.Call); ok {
			in.accessor(instr, acc)
		} else {
			in.call(instr)
		}
	}
}

// operand returns the union of the stack provenance of every producer of the
// given operand, or nil if none has provenance.
func (in *interp) operand(instr *ir.Instruction, operand int) *Aggregate {
	var res *Aggregate
	for _, p := range in.config.Oracle.Producers(in.method, instr, operand) {
		if agg := in.state.stack.Get(ir.KeyOf(p)); agg != nil {
			if res == nil {
				res = chain.NewAggregate[*ir.Param]()
			}
			res.Merge(agg)
		}
	}
	return res
}

// push merges agg into the stack provenance of the value pushed by instr.
func (in *interp) push(instr *ir.Instruction, agg *Aggregate) {
	if in.state.stack.Merge(ir.KeyOf(instr), in.bound(agg)) {
		in.internal = true
	}
}

// publish pushes agg as provenance of the instance produced by instr. When
// the instance is a parameter the summaries are updated as well: the
// receiver of a constructor is returned, other parameters record what was
// stored into them.
func (in *interp) publish(instr *ir.Instruction, agg *Aggregate) {
	agg = in.bound(agg)
	if agg == nil {
		return
	}
	in.push(instr, agg)

	if instr.Op != ir.OpLoadParam {
		return
	}
	if p := instr.Param; p.This && in.method.Constructor {
		if in.returns.Merge(in.method, agg) {
			in.external = true
		}
	} else if in.state.params.Merge(p, agg) {
		in.external = true
	}
}

func (in *interp) ret(instr *ir.Instruction) {
	if in.config.Types.IsValueType(in.method.Result) {
		return
	}

	for i := range instr.Operands {
		if agg := in.bound(in.operand(instr, i)); agg != nil {
			if in.returns.Merge(in.method, agg) {
				in.external = true
			}
		}
	}
}

// derived returns the provenance of the chains along which a value is itself
// derived from its origins, as opposed to holding them inside a container.
func derived(agg *Aggregate) *Aggregate {
	return agg.Rebuild(func(c Chain) (Chain, bool) {
		return c, c.Depth() == 0
	})
}

// store wraps the provenance of the value operand with wrap and publishes it
// on every producer of the instance operand. Origins the instance is itself
// derived from are not wrapped into it.
func (in *interp) store(instr *ir.Instruction, instance, value int, wrap func(*Aggregate) *Aggregate) {
	val := in.operand(instr, value)
	if val == nil {
		return
	}

	// Only origins the instance is derived from at depth 0 are removed, not
	// those it merely holds in a container.
	wrapped := wrap(val.Without(derived(in.operand(instr, instance))))
	if wrapped.Len() == 0 {
		return
	}
	for _, p := range in.config.Oracle.Producers(in.method, instr, instance) {
		in.publish(p, wrapped)
	}
}

func (in *interp) elementStep(e ir.Element) chain.Step {
	if e.Kind == ir.CollectionElement {
		return in.layers.CollectionElement(e.Container, e.Type)
	}
	return in.layers.ArrayElement(e.Container, e.Type)
}

func (in *interp) loadElem(instr *ir.Instruction, e ir.Element) {
	if in.config.Types.IsValueType(e.Type) {
		return
	}
	in.push(instr, in.operand(instr, 0).Unwrap(in.elementStep(e)))
}

func (in *interp) storeElem(instr *ir.Instruction, e ir.Element, value int) {
	if value < 1 {
		return
	}
	step := in.elementStep(e)
	in.store(instr, 0, value, func(agg *Aggregate) *Aggregate { return agg.Prepend(step) })
}

// accessor handles calls with element or enumerator semantics. The
// container or enumerator is the first argument.
func (in *interp) accessor(instr *ir.Instruction, acc ir.Accessor) {
	switch acc.Kind {
	case ir.ArrayGet, ir.CollectionGet:
		in.loadElem(instr, acc.Element)
	case ir.ArraySet, ir.CollectionSet:
		in.storeElem(instr, acc.Element, len(instr.Operands)-1)
	case ir.EnumeratorAcquire:
		in.push(instr, in.operand(instr, 0).WrapInEnumerator())
	case ir.EnumeratorCurrent:
		if !in.config.Types.IsValueType(instr.Type) {
			in.push(instr, in.operand(instr, 0).UnwrapEnumeratorCurrent())
		}
	}
}
