package provenance

import (
	"go/token"
	"go/types"
	"log"

	"github.com/BarrensZeppelin/provenance/ir"
	"golang.org/x/tools/go/ssa"
)

// lowerer translates SSA functions to ir methods. Every function is declared
// before any body is lowered, so that call sites can refer to their callees.
type lowerer struct {
	tg *typeGraph

	methods map[*ssa.Function]*ir.Method
	params  map[*ssa.Parameter]*ir.Param
	values  map[ssa.Value]*ir.Instruction
	sites   map[ssa.CallInstruction]*ir.Instruction
	globals map[*ssa.Global]*ir.Field
}

func newLowerer(tg *typeGraph) *lowerer {
	return &lowerer{
		tg:      tg,
		methods: make(map[*ssa.Function]*ir.Method),
		params:  make(map[*ssa.Parameter]*ir.Param),
		values:  make(map[ssa.Value]*ir.Instruction),
		sites:   make(map[ssa.CallInstruction]*ir.Instruction),
		globals: make(map[*ssa.Global]*ir.Field),
	}
}

func (l *lowerer) declare(fn *ssa.Function) *ir.Method {
	sig := fn.Signature
	m := ir.NewMethod(fn.String(), sig.Recv() == nil)
	m.Source = fn
	if recv := sig.Recv(); recv != nil {
		m.Owner = recv.Type()
	}

	switch res := sig.Results(); res.Len() {
	case 0:
	case 1:
		m.Result = res.At(0).Type()
	default:
		m.Result = res
	}

	if fn.Blocks != nil {
		// Params include the receiver of methods.
		for _, p := range fn.Params {
			l.params[p] = m.AddParam(p.Name(), p.Type())
		}
	} else {
		if recv := sig.Recv(); recv != nil {
			m.AddParam(recv.Name(), recv.Type())
		}
		for i := 0; i < sig.Params().Len(); i++ {
			v := sig.Params().At(i)
			m.AddParam(v.Name(), v.Type())
		}
	}

	l.methods[fn] = m
	return m
}

func (l *lowerer) global(g *ssa.Global) *ir.Field {
	f, ok := l.globals[g]
	if !ok {
		f = ir.NewField(nil, g.String(), deref(g.Type()), true)
		l.globals[g] = f
	}
	return f
}

// field returns the field at index of the struct type t points to (or is).
func (l *lowerer) field(t types.Type, index int) *ir.Field {
	owner := deref(t)
	st, ok := owner.Underlying().(*types.Struct)
	if !ok {
		return nil
	}
	v := st.Field(index)
	return ir.NewField(owner, v.Name(), v.Type(), false)
}

type fixup struct {
	instr  *ir.Instruction
	values []ssa.Value
}

// body holds the state of lowering a single function.
type body struct {
	*lowerer
	fn     *ssa.Function
	m      *ir.Method
	locals map[*ssa.Alloc]*ir.Local
	// Operands are resolved once every instruction has been emitted, since
	// phis refer to values defined later in block order.
	fixups []fixup
}

func (l *lowerer) lower(fn *ssa.Function) {
	if fn.Blocks == nil {
		return
	}

	b := &body{
		lowerer: l,
		fn:      fn,
		m:       l.methods[fn],
		locals:  make(map[*ssa.Alloc]*ir.Local),
	}

	for _, p := range fn.Params {
		b.emit(&ir.Instruction{Op: ir.OpLoadParam, Type: p.Type(), Param: l.params[p]}, p)
	}
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			if alloc, ok := instr.(*ssa.Alloc); ok {
				b.locals[alloc] = b.m.AddLocal(alloc.Comment, deref(alloc.Type()))
			}
		}
	}
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			b.instr(instr)
		}
	}

	for _, f := range b.fixups {
		for i, v := range f.values {
			if v != nil {
				f.instr.Operands[i] = l.values[v]
			}
		}
	}
}

// emit appends instr to the method body. The instruction defines val, if
// not nil, and its operands are the instructions defining operands.
func (b *body) emit(instr *ir.Instruction, val ssa.Value, operands ...ssa.Value) *ir.Instruction {
	if val != nil {
		instr.Source = val
		b.values[val] = instr
	}
	instr.Operands = make([]*ir.Instruction, len(operands))
	if len(operands) > 0 {
		b.fixups = append(b.fixups, fixup{instr, operands})
	}
	return b.m.Emit(instr)
}

func (b *body) join(val ssa.Value, inputs ...ssa.Value) {
	b.emit(&ir.Instruction{Op: ir.OpJoin, Type: val.Type()}, val, inputs...)
}

// other lowers a value without provenance.
func (b *body) other(val ssa.Value) {
	b.emit(&ir.Instruction{Op: ir.OpOther, Type: val.Type()}, val)
}

// move lowers a value that carries the provenance of x unless it is a value
// type.
func (b *body) move(val, x ssa.Value) {
	if b.tg.IsValueType(val.Type()) {
		b.other(val)
	} else {
		b.join(val, x)
	}
}

func (b *body) loadElem(val ssa.Value, e ir.Element, container ssa.Value) {
	b.emit(&ir.Instruction{Op: ir.OpLoadElem, Type: val.Type(), Element: e}, val, container)
}

func (b *body) storeElem(e ir.Element, container, v ssa.Value) {
	b.emit(&ir.Instruction{Op: ir.OpStoreElem, Element: e}, nil, container, v)
}

func arrayElement(container types.Type, elem types.Type) ir.Element {
	return ir.Element{Kind: ir.ArrayElement, Container: container, Type: elem}
}

func collectionElement(container types.Type, elem types.Type) ir.Element {
	return ir.Element{Kind: ir.CollectionElement, Container: container, Type: elem}
}

func (b *body) instr(instr ssa.Instruction) {
	switch i := instr.(type) {
	case *ssa.Alloc:
		local, ok := b.locals[i]
		if !ok {
			log.Panicf("Alloc %v of %v was not declared", i, b.fn)
		}
		b.emit(&ir.Instruction{Op: ir.OpLoadLocal, Type: local.Type, Local: local}, i)

	case *ssa.Store:
		b.store(i)

	case *ssa.FieldAddr:
		if f := b.field(i.X.Type(), i.Field); f != nil {
			b.emit(&ir.Instruction{Op: ir.OpLoadField, Type: f.Type, Field: f}, i, i.X)
		} else {
			b.other(i)
		}

	case *ssa.Field:
		if f := b.field(i.X.Type(), i.Field); f != nil {
			b.emit(&ir.Instruction{Op: ir.OpLoadField, Type: f.Type, Field: f}, i, i.X)
		} else {
			b.other(i)
		}

	case *ssa.IndexAddr:
		b.loadElem(i, arrayElement(i.X.Type(), deref(i.Type())), i.X)

	case *ssa.Index:
		if _, isArray := i.X.Type().Underlying().(*types.Array); isArray {
			b.loadElem(i, arrayElement(i.X.Type(), i.Type()), i.X)
		} else {
			b.other(i)
		}

	case *ssa.Lookup:
		if m, ok := i.X.Type().Underlying().(*types.Map); ok {
			b.loadElem(i, collectionElement(i.X.Type(), m.Elem()), i.X)
		} else {
			b.other(i)
		}

	case *ssa.MapUpdate:
		if m, ok := i.Map.Type().Underlying().(*types.Map); ok {
			b.storeElem(collectionElement(i.Map.Type(), m.Elem()), i.Map, i.Value)
		}

	case *ssa.Send:
		if ch, ok := i.Chan.Type().Underlying().(*types.Chan); ok {
			b.storeElem(collectionElement(i.Chan.Type(), ch.Elem()), i.Chan, i.X)
		}

	case *ssa.UnOp:
		b.unop(i)

	case *ssa.Phi:
		b.join(i, i.Edges...)

	case *ssa.ChangeType:
		b.join(i, i.X)
	case *ssa.ChangeInterface:
		b.join(i, i.X)
	case *ssa.MakeInterface:
		b.move(i, i.X)
	case *ssa.Slice:
		b.join(i, i.X)
	case *ssa.SliceToArrayPointer:
		b.join(i, i.X)
	case *ssa.TypeAssert:
		b.move(i, i.X)
	case *ssa.Convert:
		b.move(i, i.X)
	case *ssa.Extract:
		b.move(i, i.Tuple)

	case *ssa.Range:
		if m, ok := i.X.Type().Underlying().(*types.Map); ok {
			site := b.tg.intrinsic("range", ir.Accessor{
				Kind:    ir.EnumeratorAcquire,
				Element: collectionElement(i.X.Type(), m.Elem()),
			})
			b.emit(&ir.Instruction{Op: ir.OpCall, Type: i.Type(), Call: site}, i, i.X)
		} else {
			b.other(i)
		}

	case *ssa.Next:
		if i.IsString {
			b.other(i)
			break
		}
		site := b.tg.intrinsic("next", ir.Accessor{Kind: ir.EnumeratorCurrent})
		b.emit(&ir.Instruction{Op: ir.OpCall, Type: i.Type(), Call: site}, i, i.Iter)

	case ssa.CallInstruction:
		b.call(i)

	case *ssa.Return:
		b.emit(&ir.Instruction{Op: ir.OpReturn}, nil, i.Results...)

	case ssa.Value:
		b.other(i)
	}
}

func (b *body) store(i *ssa.Store) {
	switch addr := i.Addr.(type) {
	case *ssa.Alloc:
		b.emit(&ir.Instruction{Op: ir.OpStoreLocal, Local: b.locals[addr]}, nil, i.Val)
		return

	case *ssa.FieldAddr:
		if f := b.field(addr.X.Type(), addr.Field); f != nil {
			b.emit(&ir.Instruction{Op: ir.OpStoreField, Field: f}, nil, addr.X, i.Val)
			return
		}

	case *ssa.IndexAddr:
		b.storeElem(arrayElement(addr.X.Type(), deref(addr.Type())), addr.X, i.Val)
		return

	case *ssa.Global:
		b.emit(&ir.Instruction{Op: ir.OpStoreField, Field: b.global(addr)}, nil, i.Val)
		return
	}

	// Stores through other pointers are not tracked.
	b.emit(&ir.Instruction{Op: ir.OpOther}, nil, i.Addr, i.Val)
}

func (b *body) unop(i *ssa.UnOp) {
	switch i.Op {
	case token.ARROW:
		if ch, ok := i.X.Type().Underlying().(*types.Chan); ok {
			b.loadElem(i, collectionElement(i.X.Type(), ch.Elem()), i.X)
		} else {
			// Receive from a type parameter with a channel core type.
			b.other(i)
		}

	case token.MUL:
		switch x := i.X.(type) {
		case *ssa.Alloc:
			local := b.locals[x]
			b.emit(&ir.Instruction{Op: ir.OpLoadLocal, Type: local.Type, Local: local}, i)
		case *ssa.Global:
			f := b.global(x)
			b.emit(&ir.Instruction{Op: ir.OpLoadField, Type: f.Type, Field: f}, i)
		default:
			b.move(i, i.X)
		}

	default:
		b.other(i)
	}
}

func (b *body) call(i ssa.CallInstruction) {
	common := i.Common()
	var val ssa.Value
	var typ types.Type
	if v := i.Value(); v != nil {
		val, typ = v, v.Type()
	}

	if builtin, ok := common.Value.(*ssa.Builtin); ok {
		switch {
		case val == nil:
		case builtin.Name() == "append":
			b.join(val, common.Args...)
		default:
			b.other(val)
		}
		return
	}

	site := &ir.CallSite{Source: i}
	var args []ssa.Value
	if common.IsInvoke() {
		site.Name = common.Method.FullName()
		args = append([]ssa.Value{common.Value}, common.Args...)
	} else {
		site.Static = true
		site.Name = common.Value.Name()
		if fn := common.StaticCallee(); fn != nil {
			site.Callee = b.methods[fn]
			site.Name = fn.String()
			site.Static = fn.Signature.Recv() == nil
		}
		args = common.Args
	}
	b.tg.classify(common, site)

	b.sites[i] = b.emit(&ir.Instruction{Op: ir.OpCall, Type: typ, Call: site}, val, args...)
}
