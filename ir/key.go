package ir

import (
	"fmt"
	"strings"
)

// KeyKind is the kind of program point a LocationKey denotes.
type KeyKind uint8

const (
	FieldKey KeyKind = iota
	ParamKey
	LocalKey
	OtherKey
)

// LocationKey identifies the value produced at a program point. Instructions
// with the same semantic source have equal keys: every load of a parameter
// or of a local within one method shares a key, and so does every load of
// the same field path from the same parameter, local or instruction. Other
// instructions are keyed by their position.
type LocationKey struct {
	Kind   KeyKind
	Method *Method
	Param  *Param
	Local  *Local
	Index  int

	// Field keys only. Root is the kind of the value the path starts from,
	// given by Param, Local or Index above. Static fields are roots of kind
	// FieldKey. Field holds the IDs of the loaded fields separated by spaces.
	Root  KeyKind
	Field string
}

// KeyOf returns the location key of the value pushed by instr.
func KeyOf(instr *Instruction) LocationKey {
	if instr.Op == OpLoadField && !instr.Field.Static {
		return fieldKey(instr)
	}
	return rootKey(instr)
}

func rootKey(instr *Instruction) LocationKey {
	switch instr.Op {
	case OpLoadParam:
		return LocationKey{Kind: ParamKey, Method: instr.Method, Param: instr.Param}
	case OpLoadLocal:
		return LocationKey{Kind: LocalKey, Method: instr.Method, Local: instr.Local}
	case OpLoadField:
		return LocationKey{Kind: FieldKey, Method: instr.Method, Root: FieldKey, Field: instr.Field.ID()}
	default:
		return LocationKey{Kind: OtherKey, Method: instr.Method, Index: instr.Index}
	}
}

// fieldKey walks the instance operands of a chain of field loads back to
// the value they start from. Loads whose instance has several possible
// producers, or none, are keyed by their position.
func fieldKey(instr *Instruction) LocationKey {
	var path []string
	seen := map[*Instruction]bool{}
	cur := instr
	for cur.Op == OpLoadField && !cur.Field.Static {
		var srcs []*Instruction
		if len(cur.Operands) > 0 {
			srcs = Sources(cur.Operands[0])
		}
		if seen[cur] || len(srcs) != 1 {
			return LocationKey{Kind: OtherKey, Method: instr.Method, Index: instr.Index}
		}
		seen[cur] = true
		path = append(path, cur.Field.ID())
		cur = srcs[0]
	}

	k := rootKey(cur)
	k.Root, k.Kind = k.Kind, FieldKey
	for i := len(path) - 1; i >= 0; i-- {
		if k.Field != "" {
			k.Field += " "
		}
		k.Field += path[i]
	}
	return k
}

func (k LocationKey) String() string {
	switch k.Kind {
	case ParamKey:
		return "param " + k.Param.Name
	case LocalKey:
		return "local " + k.Local.String()
	case FieldKey:
		path := "field " + strings.ReplaceAll(k.Field, " ", ", ")
		if k.Root == FieldKey {
			return path
		}
		return path + " of " + LocationKey{Kind: k.Root, Param: k.Param, Local: k.Local, Index: k.Index}.String()
	default:
		return fmt.Sprintf("#%d", k.Index)
	}
}
