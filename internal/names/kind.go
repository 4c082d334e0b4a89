// Package names implements the name table: the single authority that
// assigns globally unique managed names to converted types before any
// type is defined.
package names

import (
	"tlbimp/internal/guid"
	"tlbimp/internal/typelib"
)

// Kind discriminates the conversion a name is reserved for. One TypeInfo
// can own several names: a coclass reserves both its class-interface name
// and its forged class name.
type Kind uint8

const (
	KindInterface Kind = iota
	KindClassInterface
	KindEventInterface
	KindCoClass
	KindStruct
	KindUnion
	KindEnum
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindClassInterface:
		return "classinterface"
	case KindEventInterface:
		return "eventinterface"
	case KindCoClass:
		return "coclass"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindModule:
		return "module"
	}
	return "kind?"
}

// Forged reports whether names of this kind are synthesized rather than
// user-authored, so collisions uniquify instead of failing.
func (k Kind) Forged() bool {
	return k == KindCoClass || k == KindEventInterface
}

// NaturalKind maps a source type kind to the conversion kind its name is
// reserved under. Coclasses reserve the class-interface name first; the
// coclass itself is forged separately.
func NaturalKind(tk typelib.TypeKind) (Kind, bool) {
	switch tk {
	case typelib.TKindInterface, typelib.TKindDispatch:
		return KindInterface, true
	case typelib.TKindCoClass:
		return KindClassInterface, true
	case typelib.TKindRecord:
		return KindStruct, true
	case typelib.TKindUnion:
		return KindUnion, true
	case typelib.TKindEnum:
		return KindEnum, true
	case typelib.TKindModule:
		return KindModule, true
	}
	return 0, false
}

// Key identifies one (type info, conversion kind) pair. The doc name is
// part of the key because minor types frequently carry GUID_NULL.
type Key struct {
	Lib  guid.GUID
	Type guid.GUID
	Doc  string
	Kind Kind
}

// KeyOf derives the identity key of a type info under a conversion kind.
func KeyOf(ti typelib.TypeInfo, kind Kind) (Key, error) {
	attr, err := ti.Attr()
	if err != nil {
		return Key{}, err
	}
	return Key{
		Lib:  ti.Lib().Attr().GUID,
		Type: attr.GUID,
		Doc:  ti.Name(),
		Kind: kind,
	}, nil
}
