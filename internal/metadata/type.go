// Package metadata models the managed assembly the importer builds: type
// definitions, members, marshalling descriptors and custom attributes,
// plus the .imx snapshot format that lets a built assembly serve as a
// reference for later imports.
package metadata

import "strings"

// Shape classifies how a managed type behaves in signatures.
type Shape uint8

const (
	ShapeVoid Shape = iota
	ShapeValue
	ShapeReference
)

func (s Shape) String() string {
	switch s {
	case ShapeVoid:
		return "void"
	case ShapeValue:
		return "value"
	case ShapeReference:
		return "reference"
	}
	return "shape?"
}

// Type is a reference to a managed type. Assembly "" means the assembly
// under construction; nested type names use a '+' separator.
type Type struct {
	Assembly string
	Name     string
	Shape    Shape
	ByRef    bool
	Array    bool
	Elem     *Type
}

// Ref builds a plain type reference.
func Ref(assembly, name string, shape Shape) Type {
	return Type{Assembly: assembly, Name: name, Shape: shape}
}

// MakeByRef returns the byref form of the type.
func (t Type) MakeByRef() Type {
	t.ByRef = true
	return t
}

// MakeArray returns a single-dimensional array of the type. Arrays are
// reference-shaped regardless of the element.
func (t Type) MakeArray() Type {
	elem := t
	return Type{Assembly: t.Assembly, Name: t.Name, Shape: ShapeReference, Array: true, Elem: &elem}
}

// IsVoid reports whether the type is the void return shape.
func (t Type) IsVoid() bool { return t.Shape == ShapeVoid && !t.Array && !t.ByRef }

// Equal compares types structurally.
func (t Type) Equal(other Type) bool {
	if t.Assembly != other.Assembly || t.Name != other.Name ||
		t.Shape != other.Shape || t.ByRef != other.ByRef || t.Array != other.Array {
		return false
	}
	switch {
	case t.Elem == nil && other.Elem == nil:
		return true
	case t.Elem == nil || other.Elem == nil:
		return false
	}
	return t.Elem.Equal(*other.Elem)
}

// ShortName returns the name without its namespace qualifier.
func (t Type) ShortName() string {
	name := t.Name
	if i := strings.LastIndexByte(name, '+'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// String renders the reference for diagnostics: "System.Int32",
// "Lib.Colors[]", "&Lib.POINT".
func (t Type) String() string {
	var b strings.Builder
	if t.ByRef {
		b.WriteByte('&')
	}
	b.WriteString(t.Name)
	if t.Array {
		b.WriteString("[]")
	}
	return b.String()
}
