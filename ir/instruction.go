package ir

import (
	"fmt"
	"go/types"
	"strings"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type=Op -trimprefix=Op

// Op classifies instructions by their effect on provenance.
type Op uint8

const (
	// OpOther pushes a value without provenance, if any.
	OpOther Op = iota
	// OpLoadParam pushes a formal parameter.
	OpLoadParam
	// OpLoadLocal pushes a local variable.
	OpLoadLocal
	// OpStoreLocal stores Operands[0] into a local variable.
	OpStoreLocal
	// OpLoadField pushes a field of Operands[0]. Static fields have no operand.
	OpLoadField
	// OpStoreField stores Operands[1] into a field of Operands[0]. Static
	// fields only have the value operand.
	OpStoreField
	// OpLoadElem pushes an element of the array or collection Operands[0].
	OpLoadElem
	// OpStoreElem stores Operands[1] as an element of Operands[0].
	OpStoreElem
	// OpCall calls a method with the operands as arguments.
	OpCall
	// OpReturn returns the operands.
	OpReturn
	// OpJoin pushes one of its operands; it models control-flow joins and
	// value-preserving moves, and is resolved away by the oracle.
	OpJoin
)

// ElementKind distinguishes array from collection elements.
type ElementKind uint8

const (
	ArrayElement ElementKind = iota
	CollectionElement
)

// Element describes an element access on an array or collection.
type Element struct {
	Kind      ElementKind
	Container types.Type
	Type      types.Type
}

// Instruction is a single instruction of a method body. Operands refer to the
// instructions that pushed them; nil operands have no known producer.
type Instruction struct {
	Method   *Method
	Index    int
	Op       Op
	Operands []*Instruction
	// Type of the pushed value, nil if nothing is pushed.
	Type types.Type

	Param   *Param
	Local   *Local
	Field   *Field
	Element Element
	Call    *CallSite

	Source any
}

func (i *Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: %v", i.Index, i.Op)
	switch {
	case i.Param != nil:
		fmt.Fprintf(&b, " %v", i.Param)
	case i.Local != nil:
		fmt.Fprintf(&b, " %v", i.Local)
	case i.Field != nil:
		fmt.Fprintf(&b, " %v", i.Field)
	case i.Call != nil:
		fmt.Fprintf(&b, " %v", i.Call)
	}
	for _, o := range i.Operands {
		if o == nil {
			b.WriteString(" _")
		} else {
			fmt.Fprintf(&b, " #%d", o.Index)
		}
	}
	return b.String()
}

// Emit appends instr to the body of m.
func (m *Method) Emit(instr *Instruction) *Instruction {
	instr.Method = m
	instr.Index = len(m.Body)
	if m.Body == nil {
		m.Body = make([]*Instruction, 0, 8)
	}
	m.Body = append(m.Body, instr)
	return instr
}

func (m *Method) LoadParam(p *Param) *Instruction {
	return m.Emit(&Instruction{Op: OpLoadParam, Type: p.Type, Param: p})
}

func (m *Method) LoadLocal(l *Local) *Instruction {
	return m.Emit(&Instruction{Op: OpLoadLocal, Type: l.Type, Local: l})
}

func (m *Method) StoreLocal(l *Local, v *Instruction) *Instruction {
	return m.Emit(&Instruction{Op: OpStoreLocal, Local: l, Operands: []*Instruction{v}})
}

// LoadField loads f from inst. inst is ignored for static fields.
func (m *Method) LoadField(f *Field, inst *Instruction) *Instruction {
	instr := &Instruction{Op: OpLoadField, Type: f.Type, Field: f}
	if !f.Static {
		instr.Operands = []*Instruction{inst}
	}
	return m.Emit(instr)
}

// StoreField stores v into f of inst. inst is ignored for static fields.
func (m *Method) StoreField(f *Field, inst, v *Instruction) *Instruction {
	instr := &Instruction{Op: OpStoreField, Field: f}
	if f.Static {
		instr.Operands = []*Instruction{v}
	} else {
		instr.Operands = []*Instruction{inst, v}
	}
	return m.Emit(instr)
}

func (m *Method) LoadElem(e Element, container *Instruction) *Instruction {
	return m.Emit(&Instruction{Op: OpLoadElem, Type: e.Type, Element: e,
		Operands: []*Instruction{container}})
}

func (m *Method) StoreElem(e Element, container, v *Instruction) *Instruction {
	return m.Emit(&Instruction{Op: OpStoreElem, Element: e,
		Operands: []*Instruction{container, v}})
}

// Call emits a call; typ is the result type or nil.
func (m *Method) Call(site *CallSite, typ types.Type, args ...*Instruction) *Instruction {
	return m.Emit(&Instruction{Op: OpCall, Type: typ, Call: site, Operands: args})
}

func (m *Method) Return(results ...*Instruction) *Instruction {
	return m.Emit(&Instruction{Op: OpReturn, Operands: results})
}

func (m *Method) Join(typ types.Type, inputs ...*Instruction) *Instruction {
	return m.Emit(&Instruction{Op: OpJoin, Type: typ, Operands: inputs})
}

func (m *Method) Other(typ types.Type, operands ...*Instruction) *Instruction {
	return m.Emit(&Instruction{Op: OpOther, Type: typ, Operands: operands})
}
