package metadata

import (
	"fmt"
	"strconv"
)

// ConstKind tags a Constant payload.
type ConstKind uint8

const (
	ConstNil ConstKind = iota
	ConstBool
	ConstInt
	ConstReal
	ConstString
)

// Constant is a compile-time value: a literal field's value or a
// parameter default.
type Constant struct {
	Kind ConstKind
	Bool bool
	Int  int64
	Real float64
	Str  string
}

func ConstOfBool(v bool) *Constant    { return &Constant{Kind: ConstBool, Bool: v} }
func ConstOfInt(v int64) *Constant    { return &Constant{Kind: ConstInt, Int: v} }
func ConstOfReal(v float64) *Constant { return &Constant{Kind: ConstReal, Real: v} }
func ConstOfString(v string) *Constant {
	return &Constant{Kind: ConstString, Str: v}
}

func (c *Constant) String() string {
	if c == nil {
		return "<none>"
	}
	switch c.Kind {
	case ConstNil:
		return "null"
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstReal:
		return strconv.FormatFloat(c.Real, 'g', -1, 64)
	case ConstString:
		return strconv.Quote(c.Str)
	}
	return fmt.Sprintf("const(%d)", c.Kind)
}
