package typelib

import (
	"fmt"
	"strings"
)

// VarType matches the COM VARENUM values the importer understands, plus
// VTByRef which this model uses as a decoration tag like VTPtr.
type VarType uint16

const (
	VTEmpty    VarType = 0
	VTNull     VarType = 1
	VTI2       VarType = 2
	VTI4       VarType = 3
	VTR4       VarType = 4
	VTR8       VarType = 5
	VTCy       VarType = 6
	VTDate     VarType = 7
	VTBStr     VarType = 8
	VTDispatch VarType = 9
	VTError    VarType = 10
	VTBool     VarType = 11
	VTVariant  VarType = 12
	VTUnknown  VarType = 13
	VTDecimal  VarType = 14
	VTI1       VarType = 16
	VTUI1      VarType = 17
	VTUI2      VarType = 18
	VTUI4      VarType = 19
	VTI8       VarType = 20
	VTUI8      VarType = 21
	VTInt      VarType = 22
	VTUInt     VarType = 23
	VTVoid     VarType = 24
	VTHResult  VarType = 25
	VTPtr      VarType = 26
	VTSafeArray VarType = 27
	VTCArray   VarType = 28
	VTUserDefined VarType = 29
	VTLPStr    VarType = 30
	VTLPWStr   VarType = 31
	VTRecord   VarType = 36

	// VTByRef decorates exactly like VTPtr but may appear at most once on
	// any path from the root of a descriptor.
	VTByRef VarType = 0x4000
)

var vtNames = map[VarType]string{
	VTEmpty: "empty", VTNull: "null", VTI2: "i2", VTI4: "i4", VTR4: "r4",
	VTR8: "r8", VTCy: "cy", VTDate: "date", VTBStr: "bstr",
	VTDispatch: "dispatch", VTError: "error", VTBool: "bool",
	VTVariant: "variant", VTUnknown: "unknown", VTDecimal: "decimal",
	VTI1: "i1", VTUI1: "ui1", VTUI2: "ui2", VTUI4: "ui4", VTI8: "i8",
	VTUI8: "ui8", VTInt: "int", VTUInt: "uint", VTVoid: "void",
	VTHResult: "hresult", VTPtr: "ptr", VTSafeArray: "safearray",
	VTCArray: "carray", VTUserDefined: "userdefined", VTLPStr: "lpstr",
	VTLPWStr: "lpwstr", VTRecord: "record", VTByRef: "byref",
}

func (vt VarType) String() string {
	if s, ok := vtNames[vt]; ok {
		return s
	}
	return fmt.Sprintf("vt(%d)", uint16(vt))
}

// Bound is one dimension of a fixed C-style array.
type Bound struct {
	Count  uint32
	LBound int32
}

// TypeDesc is the recursive tagged descriptor over VarType.
// Elem is set for VTPtr, VTByRef, VTSafeArray and VTCArray; Ref for
// VTUserDefined; Dims for VTCArray.
type TypeDesc struct {
	VT   VarType
	Elem *TypeDesc
	Ref  RefID
	Dims []Bound
}

// TD builds a leaf descriptor.
func TD(vt VarType) TypeDesc { return TypeDesc{VT: vt} }

// Ptr wraps a descriptor in one level of native pointer.
func Ptr(inner TypeDesc) TypeDesc { return TypeDesc{VT: VTPtr, Elem: &inner} }

// ByRef wraps a descriptor in the byref decoration.
func ByRef(inner TypeDesc) TypeDesc { return TypeDesc{VT: VTByRef, Elem: &inner} }

// UD builds a user-defined reference descriptor.
func UD(ref RefID) TypeDesc { return TypeDesc{VT: VTUserDefined, Ref: ref} }

// SafeArrayOf builds a safearray descriptor over elem.
func SafeArrayOf(elem TypeDesc) TypeDesc { return TypeDesc{VT: VTSafeArray, Elem: &elem} }

// CArrayOf builds a fixed array descriptor over elem.
func CArrayOf(elem TypeDesc, dims ...Bound) TypeDesc {
	return TypeDesc{VT: VTCArray, Elem: &elem, Dims: dims}
}

// ElemCount returns the flattened element count of a fixed array.
func (t TypeDesc) ElemCount() uint32 {
	if t.VT != VTCArray {
		return 0
	}
	n := uint32(1)
	for _, d := range t.Dims {
		n *= d.Count
	}
	return n
}

// Indirection strips the pointer run and the optional byref decoration,
// returning the leaf descriptor and the native indirection count. The walk
// is iterative so degenerate chains cannot exhaust the stack. A second
// byref on the path is a malformed descriptor.
func (t TypeDesc) Indirection() (leaf TypeDesc, depth int, byref bool, err error) {
	cur := t
	for {
		switch cur.VT {
		case VTPtr:
			if cur.Elem == nil {
				return cur, depth, byref, fmt.Errorf("typelib: pointer with no element")
			}
			depth++
			cur = *cur.Elem
		case VTByRef:
			if cur.Elem == nil {
				return cur, depth, byref, fmt.Errorf("typelib: byref with no element")
			}
			if byref {
				return cur, depth, byref, fmt.Errorf("typelib: byref applied twice")
			}
			byref = true
			depth++
			cur = *cur.Elem
		default:
			return cur, depth, byref, nil
		}
	}
}

// String renders the descriptor for diagnostics, innermost last:
// ptr(ptr(i4)) prints "i4**", byref prints a leading "&".
func (t TypeDesc) String() string {
	leaf, depth, byref, err := t.Indirection()
	if err != nil {
		return "<malformed>"
	}
	var b strings.Builder
	if byref {
		b.WriteByte('&')
		depth--
	}
	switch leaf.VT {
	case VTSafeArray:
		if leaf.Elem != nil {
			b.WriteString("safearray(" + leaf.Elem.String() + ")")
		} else {
			b.WriteString("safearray")
		}
	case VTCArray:
		if leaf.Elem != nil {
			fmt.Fprintf(&b, "%s[%d]", leaf.Elem.String(), leaf.ElemCount())
		} else {
			b.WriteString("carray")
		}
	case VTUserDefined:
		fmt.Fprintf(&b, "ref#%d", leaf.Ref)
	default:
		b.WriteString(leaf.VT.String())
	}
	for i := 0; i < depth; i++ {
		b.WriteByte('*')
	}
	return b.String()
}
