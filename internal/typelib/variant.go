package typelib

import (
	"fmt"
	"strconv"
)

// Variant is the small tagged value holder used for constant values,
// parameter defaults and custom data payloads.
type Variant struct {
	VT   VarType
	Bool bool
	I64  int64
	U64  uint64
	F64  float64
	Str  string
}

// VarBool builds a VT_BOOL variant.
func VarBool(v bool) Variant { return Variant{VT: VTBool, Bool: v} }

// VarI4 builds a VT_I4 variant.
func VarI4(v int32) Variant { return Variant{VT: VTI4, I64: int64(v)} }

// VarI8 builds a VT_I8 variant.
func VarI8(v int64) Variant { return Variant{VT: VTI8, I64: v} }

// VarUI4 builds a VT_UI4 variant.
func VarUI4(v uint32) Variant { return Variant{VT: VTUI4, U64: uint64(v)} }

// VarR8 builds a VT_R8 variant.
func VarR8(v float64) Variant { return Variant{VT: VTR8, F64: v} }

// VarStr builds a VT_BSTR variant.
func VarStr(s string) Variant { return Variant{VT: VTBStr, Str: s} }

// IsString reports whether the payload is textual.
func (v Variant) IsString() bool {
	return v.VT == VTBStr || v.VT == VTLPStr || v.VT == VTLPWStr
}

// Int returns the integral payload regardless of signedness tag.
func (v Variant) Int() int64 {
	if v.VT == VTUI1 || v.VT == VTUI2 || v.VT == VTUI4 || v.VT == VTUI8 || v.VT == VTUInt {
		return int64(v.U64)
	}
	return v.I64
}

func (v Variant) String() string {
	switch {
	case v.IsString():
		return v.Str
	case v.VT == VTBool:
		return strconv.FormatBool(v.Bool)
	case v.VT == VTR4 || v.VT == VTR8:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case v.VT == VTEmpty || v.VT == VTNull:
		return "<" + v.VT.String() + ">"
	default:
		return fmt.Sprintf("%d", v.Int())
	}
}
