package ir

import "go/types"

// PointerLike reports whether values of type t are references.
func PointerLike(t types.Type) bool {
	switch t := t.(type) {
	case *types.Pointer,
		*types.Map,
		*types.Chan,
		*types.Slice,
		*types.Interface,
		*types.Signature,
		*types.TypeParam:
		return true
	case *types.Basic:
		return t.Kind() == types.UnsafePointer
	case *types.Named:
		return PointerLike(t.Underlying())
	default:
		return false
	}
}

// IsValueType reports whether values of type t are copied on assignment and
// cannot carry a reference to a parameter. Aggregates are value types when
// all their components are.
func IsValueType(t types.Type) bool {
	if t == nil {
		return true
	}
	if PointerLike(t) {
		return false
	}
	switch t := t.Underlying().(type) {
	case *types.Basic:
		return t.Kind() != types.UntypedNil
	case *types.Array:
		return IsValueType(t.Elem())
	case *types.Struct:
		for i := 0; i < t.NumFields(); i++ {
			if !IsValueType(t.Field(i).Type()) {
				return false
			}
		}
		return true
	case *types.Tuple:
		for i := 0; i < t.Len(); i++ {
			if !IsValueType(t.At(i).Type()) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
