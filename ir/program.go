// Package ir defines the program model consumed by the provenance engine:
// methods with stack-style instruction bodies, their parameters, locals and
// the fields they access, together with the interfaces of the collaborators
// the engine relies on (operand oracle, call graph and type graph).
package ir

import (
	"fmt"
	"go/types"
)

// Program is the set of analysable methods.
type Program struct {
	Methods []*Method
}

// Add appends m to the program and returns it.
func (p *Program) Add(m *Method) *Method {
	p.Methods = append(p.Methods, m)
	return m
}

// Method is an analysable unit. Body is nil for methods without a body.
type Method struct {
	ID string
	// Declaring type, nil for package-level functions.
	Owner types.Type
	// Static methods have no implicit receiver parameter.
	Static bool
	// Constructors return their fully built receiver.
	Constructor bool

	Params []*Param
	Locals []*Local
	// Result is nil for methods without a result.
	Result types.Type
	Body   []*Instruction

	// Source is the frontend object the method was lowered from.
	Source any
}

// NewMethod returns a method without parameters or body.
func NewMethod(id string, static bool) *Method {
	return &Method{ID: id, Static: static}
}

// AddParam appends a formal parameter. The first parameter of a non-static
// method is its implicit receiver.
func (m *Method) AddParam(name string, typ types.Type) *Param {
	p := &Param{
		Method: m,
		Name:   name,
		Index:  len(m.Params),
		Type:   typ,
		This:   !m.Static && len(m.Params) == 0,
	}
	m.Params = append(m.Params, p)
	return p
}

// AddLocal appends a local variable slot.
func (m *Method) AddLocal(name string, typ types.Type) *Local {
	l := &Local{Method: m, Slot: len(m.Locals), Name: name, Type: typ}
	m.Locals = append(m.Locals, l)
	return l
}

// This returns the implicit receiver parameter, or nil.
func (m *Method) This() *Param {
	if m.Static || len(m.Params) == 0 {
		return nil
	}
	return m.Params[0]
}

func (m *Method) HasBody() bool { return m.Body != nil }

func (m *Method) String() string { return m.ID }

// Param is a formal parameter, identified by its method and name.
type Param struct {
	Method *Method
	Name   string
	Index  int
	Type   types.Type
	// This marks the implicit receiver.
	This bool
}

func (p *Param) String() string { return p.Name }

// Local is a local variable slot.
type Local struct {
	Method *Method
	Slot   int
	Name   string
	Type   types.Type
}

func (l *Local) String() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("local%d", l.Slot)
}

// Field is a member of a type, identified by its declaring type and name.
type Field struct {
	Owner  types.Type
	Name   string
	Type   types.Type
	Static bool

	id string
}

func NewField(owner types.Type, name string, typ types.Type, static bool) *Field {
	id := name
	if owner != nil {
		id = types.TypeString(owner, nil) + "." + name
	}
	return &Field{Owner: owner, Name: name, Type: typ, Static: static, id: id}
}

// ID is the structural identity of the field: its declaring type and name.
func (f *Field) ID() string { return f.id }

func (f *Field) String() string { return f.id }

// CallSite describes the statically declared target of a call.
type CallSite struct {
	// Declared target, nil for dynamic calls and intrinsics.
	Callee *Method
	Name   string
	// Static call sites do not pass an implicit receiver.
	Static bool
	// NewObject call sites allocate the receiver and pass it implicitly to
	// the constructor; the arguments exclude it and the call produces it.
	NewObject bool
	// Intrinsic names frontend operations modelled as calls, e.g. "range".
	Intrinsic string
	Source    any
}

func (s *CallSite) String() string {
	if s.Callee != nil {
		return s.Callee.ID
	}
	return s.Name
}
