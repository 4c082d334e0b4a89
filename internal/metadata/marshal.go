package metadata

import (
	"fmt"
	"strings"
)

// UnmanagedType names the native representation a member marshals to.
type UnmanagedType uint8

const (
	UTNone UnmanagedType = iota
	UTVariantBool
	UTError
	UTBStr
	UTLPStr
	UTLPWStr
	UTIUnknown
	UTIDispatch
	UTStruct
	UTInterface
	UTSafeArray
	UTByValArray
	UTLPArray
	UTLPStruct
	UTCurrency
	UTCustomMarshaler
)

var utNames = map[UnmanagedType]string{
	UTNone: "none", UTVariantBool: "VariantBool", UTError: "Error",
	UTBStr: "BStr", UTLPStr: "LPStr", UTLPWStr: "LPWStr",
	UTIUnknown: "IUnknown", UTIDispatch: "IDispatch", UTStruct: "Struct",
	UTInterface: "Interface", UTSafeArray: "SafeArray",
	UTByValArray: "ByValArray", UTLPArray: "LPArray", UTLPStruct: "LPStruct",
	UTCurrency: "Currency", UTCustomMarshaler: "CustomMarshaler",
}

func (u UnmanagedType) String() string {
	if s, ok := utNames[u]; ok {
		return s
	}
	return fmt.Sprintf("ut(%d)", uint8(u))
}

// MarshalInfo is the marshalling directive attached to a parameter, return
// or field. The zero value means "no directive".
type MarshalInfo struct {
	Kind UnmanagedType
	// SafeArrayVT is the element variant tag for UTSafeArray.
	SafeArrayVT uint16
	// SafeArraySub names the user-defined element type for UTSafeArray,
	// "" for builtin elements.
	SafeArraySub string
	// ArraySize is the fixed element count for UTByValArray.
	ArraySize uint32
	// Custom and Cookie configure UTCustomMarshaler.
	Custom string
	Cookie string
}

// Marshal builds a plain directive.
func Marshal(kind UnmanagedType) *MarshalInfo { return &MarshalInfo{Kind: kind} }

// MarshalSafeArray builds a safearray directive over an element tag.
func MarshalSafeArray(vt uint16, subType string) *MarshalInfo {
	return &MarshalInfo{Kind: UTSafeArray, SafeArrayVT: vt, SafeArraySub: subType}
}

// MarshalByValArray builds a fixed-size inline array directive.
func MarshalByValArray(size uint32) *MarshalInfo {
	return &MarshalInfo{Kind: UTByValArray, ArraySize: size}
}

// MarshalCustom builds a custom-marshaler directive.
func MarshalCustom(marshaler, cookie string) *MarshalInfo {
	return &MarshalInfo{Kind: UTCustomMarshaler, Custom: marshaler, Cookie: cookie}
}

func (m *MarshalInfo) String() string {
	if m == nil || m.Kind == UTNone {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.Kind.String())
	switch m.Kind {
	case UTSafeArray:
		fmt.Fprintf(&b, "(vt=%d", m.SafeArrayVT)
		if m.SafeArraySub != "" {
			fmt.Fprintf(&b, ", %s", m.SafeArraySub)
		}
		b.WriteByte(')')
	case UTByValArray:
		fmt.Fprintf(&b, "(%d)", m.ArraySize)
	case UTCustomMarshaler:
		fmt.Fprintf(&b, "(%s)", m.Custom)
	}
	return b.String()
}
