// Package typelib models COM type libraries: the variant-typed descriptors,
// type information records and library attributes the importer consumes.
//
// The reader surface is abstract (TypeLibrary / TypeInfo); the package also
// ships the in-memory implementation backing .tlbx snapshots and tests.
package typelib

import (
	"tlbimp/internal/guid"
)

// MemberID identifies a member inside a type info. Dispatch ids are signed.
type MemberID int32

// RefID is a handle to a referenced type, scoped to one TypeInfo.
type RefID uint32

// TypeLibrary is the abstract source of type descriptions.
type TypeLibrary interface {
	// Name returns the library doc name.
	Name() string
	// Path returns the location the library was loaded from, "" if in-memory.
	Path() string
	// Attr returns the library-level attributes.
	Attr() LibAttr
	// TypeInfoCount returns the number of top-level types.
	TypeInfoCount() int
	// TypeInfo returns the i-th top-level type.
	TypeInfo(i int) (TypeInfo, error)
	// CustomData returns library-level custom data for the key, if present.
	CustomData(key guid.GUID) (Variant, bool)
}

// TypeInfo is an opaque handle to one COM type definition.
type TypeInfo interface {
	// Lib returns the defining library.
	Lib() TypeLibrary
	// Name returns the doc name.
	Name() string
	// Attr returns the type attributes.
	Attr() (TypeAttr, error)
	// FuncDesc returns the i-th function descriptor.
	FuncDesc(i int) (FuncDesc, error)
	// VarDesc returns the i-th variable descriptor.
	VarDesc(i int) (VarDesc, error)
	// ImplType returns the i-th implemented type and its flags.
	ImplType(i int) (TypeInfo, ImplTypeFlags, error)
	// RefTypeInfo resolves a RefID from a descriptor to the referenced type.
	// Failure here is the "cannot load library" condition surfaced per
	// parameter by the member planner.
	RefTypeInfo(ref RefID) (TypeInfo, error)
	// Names returns the names bound to a member id: for a function, the
	// function name followed by parameter names; for a variable, its name.
	// At most max entries are returned; max <= 0 means all.
	Names(memid MemberID, max int) []string
	// CustomData returns type-level custom data for the key.
	CustomData(key guid.GUID) (Variant, bool)
	// FuncCustomData returns custom data attached to the fn-th function.
	FuncCustomData(fn int, key guid.GUID) (Variant, bool)
	// ParamCustomData returns custom data attached to a parameter.
	ParamCustomData(fn, param int, key guid.GUID) (Variant, bool)
	// VarCustomData returns custom data attached to the v-th variable.
	VarCustomData(v int, key guid.GUID) (Variant, bool)
}

// LibAttr mirrors the library attribute block.
type LibAttr struct {
	GUID    guid.GUID
	Major   uint16
	Minor   uint16
	LCID    uint32
	SysKind SysKind
	Flags   LibFlags
}

// PtrSize returns the native pointer size implied by the system kind.
func (a LibAttr) PtrSize() int {
	if a.SysKind == SysWin64 {
		return 8
	}
	return 4
}

// TypeAttr mirrors the per-type attribute block.
type TypeAttr struct {
	GUID         guid.GUID
	Kind         TypeKind
	Flags        TypeFlags
	Funcs        int
	Vars         int
	Impls        int
	VTableSize   uint32
	InstanceSize uint32
	Alignment    uint16
	// Alias is the aliased descriptor for TKindAlias types, nil otherwise.
	Alias *TypeDesc
}

// FuncDesc describes one function of a type info.
type FuncDesc struct {
	MemberID     MemberID
	Invoke       InvokeKind
	Flags        FuncFlags
	VTableOffset int
	// OptParams counts trailing optional parameters; -1 encodes a trailing
	// vararg parameter.
	OptParams int
	Return    TypeDesc
	Params    []ParamDesc
}

// IsVararg reports whether the last parameter is a vararg array.
func (f FuncDesc) IsVararg() bool { return f.OptParams == -1 }

// ParamDesc describes one parameter.
type ParamDesc struct {
	Type    TypeDesc
	Flags   ParamFlags
	Default *Variant
}

// VarDesc describes one variable: a struct field, module constant or
// dispatch property, depending on Kind.
type VarDesc struct {
	MemberID MemberID
	Kind     VarKind
	Flags    VarFlags
	Type     TypeDesc
	// Value holds the constant value for VarConst variables.
	Value *Variant
}

// ReadOnly reports whether the variable carries the readonly flag.
func (v VarDesc) ReadOnly() bool { return v.Flags&VarFlagReadOnly != 0 }
