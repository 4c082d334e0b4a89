package metadata

import "strings"

// TypeAttrs carries the definition-level flags of a managed type.
type TypeAttrs uint16

const (
	TypePublic TypeAttrs = 1 << iota
	TypeInterface
	TypeAbstract
	TypeSealed
	// TypeImport marks a type as COM-imported.
	TypeImport
	TypeSerializable
	TypeSequentialLayout
	TypeExplicitLayout
)

func (a TypeAttrs) Has(f TypeAttrs) bool { return a&f != 0 }

func (a TypeAttrs) String() string {
	names := []struct {
		f TypeAttrs
		s string
	}{
		{TypePublic, "public"}, {TypeInterface, "interface"},
		{TypeAbstract, "abstract"}, {TypeSealed, "sealed"},
		{TypeImport, "import"}, {TypeSerializable, "serializable"},
		{TypeSequentialLayout, "sequential"}, {TypeExplicitLayout, "explicit"},
	}
	var out []string
	for _, n := range names {
		if a.Has(n.f) {
			out = append(out, n.s)
		}
	}
	return strings.Join(out, " ")
}

// MethodAttrs carries managed method flags.
type MethodAttrs uint16

const (
	MethodPublic MethodAttrs = 1 << iota
	MethodAbstract
	MethodVirtual
	MethodStatic
	MethodSpecialName
	MethodRTSpecialName
	MethodNewSlot
)

func (a MethodAttrs) Has(f MethodAttrs) bool { return a&f != 0 }

// MethodImpl carries implementation flags.
type MethodImpl uint8

const (
	// ImplPreserveSig keeps the native signature instead of HRESULT-to-
	// exception transformation.
	ImplPreserveSig MethodImpl = 1 << iota
	// ImplRuntime marks runtime-provided bodies (delegate ctor/Invoke).
	ImplRuntime
)

func (a MethodImpl) Has(f MethodImpl) bool { return a&f != 0 }

// FieldAttrs carries managed field flags.
type FieldAttrs uint16

const (
	FieldPublic FieldAttrs = 1 << iota
	FieldStatic
	// FieldLiteral marks compile-time constants.
	FieldLiteral
)

func (a FieldAttrs) Has(f FieldAttrs) bool { return a&f != 0 }

func (a FieldAttrs) String() string {
	names := []struct {
		f FieldAttrs
		s string
	}{
		{FieldPublic, "public"}, {FieldStatic, "static"}, {FieldLiteral, "literal"},
	}
	var out []string
	for _, n := range names {
		if a.Has(n.f) {
			out = append(out, n.s)
		}
	}
	return strings.Join(out, " ")
}

// ParamAttrs carries parameter flags.
type ParamAttrs uint16

const (
	ParamIn ParamAttrs = 1 << iota
	ParamOut
	ParamOptional
	ParamHasDefault
	ParamRetval
	ParamLCID
)

func (a ParamAttrs) Has(f ParamAttrs) bool { return a&f != 0 }

func (a ParamAttrs) String() string {
	names := []struct {
		f ParamAttrs
		s string
	}{
		{ParamIn, "in"}, {ParamOut, "out"}, {ParamOptional, "optional"},
		{ParamHasDefault, "hasdefault"}, {ParamRetval, "retval"}, {ParamLCID, "lcid"},
	}
	var out []string
	for _, n := range names {
		if a.Has(n.f) {
			out = append(out, n.s)
		}
	}
	return strings.Join(out, ",")
}
