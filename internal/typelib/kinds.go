package typelib

// TypeKind matches the COM TYPEKIND ordering.
type TypeKind uint8

const (
	TKindEnum TypeKind = iota
	TKindRecord
	TKindModule
	TKindInterface
	TKindDispatch
	TKindCoClass
	TKindAlias
	TKindUnion
)

func (k TypeKind) String() string {
	switch k {
	case TKindEnum:
		return "enum"
	case TKindRecord:
		return "record"
	case TKindModule:
		return "module"
	case TKindInterface:
		return "interface"
	case TKindDispatch:
		return "dispinterface"
	case TKindCoClass:
		return "coclass"
	case TKindAlias:
		return "alias"
	case TKindUnion:
		return "union"
	}
	return "unknown"
}

// TypeFlags matches COM TYPEFLAGS.
type TypeFlags uint16

const (
	TypeFlagAppObject     TypeFlags = 0x0001
	TypeFlagCanCreate     TypeFlags = 0x0002
	TypeFlagLicensed      TypeFlags = 0x0004
	TypeFlagPreDeclID     TypeFlags = 0x0008
	TypeFlagHidden        TypeFlags = 0x0010
	TypeFlagControl       TypeFlags = 0x0020
	TypeFlagDual          TypeFlags = 0x0040
	TypeFlagNonExtensible TypeFlags = 0x0080
	TypeFlagOleAutomation TypeFlags = 0x0100
	TypeFlagRestricted    TypeFlags = 0x0200
	TypeFlagAggregatable  TypeFlags = 0x0400
	TypeFlagReplaceable   TypeFlags = 0x0800
	TypeFlagDispatchable  TypeFlags = 0x1000
	TypeFlagReverseBind   TypeFlags = 0x2000
	TypeFlagProxy         TypeFlags = 0x4000
)

// ImplTypeFlags matches COM IMPLTYPEFLAGS.
type ImplTypeFlags uint8

const (
	ImplFlagDefault       ImplTypeFlags = 0x1
	ImplFlagSource        ImplTypeFlags = 0x2
	ImplFlagRestricted    ImplTypeFlags = 0x4
	ImplFlagDefaultVTable ImplTypeFlags = 0x8
)

// InvokeKind matches COM INVOKEKIND.
type InvokeKind uint8

const (
	InvokeFunc       InvokeKind = 1
	InvokePropGet    InvokeKind = 2
	InvokePropPut    InvokeKind = 4
	InvokePropPutRef InvokeKind = 8
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeFunc:
		return "func"
	case InvokePropGet:
		return "propget"
	case InvokePropPut:
		return "propput"
	case InvokePropPutRef:
		return "propputref"
	}
	return "invoke?"
}

// FuncFlags matches COM FUNCFLAGS.
type FuncFlags uint16

const (
	FuncFlagRestricted       FuncFlags = 0x0001
	FuncFlagSource           FuncFlags = 0x0002
	FuncFlagBindable         FuncFlags = 0x0004
	FuncFlagRequestEdit      FuncFlags = 0x0008
	FuncFlagDisplayBind      FuncFlags = 0x0010
	FuncFlagDefaultBind      FuncFlags = 0x0020
	FuncFlagHidden           FuncFlags = 0x0040
	FuncFlagUsesGetLastError FuncFlags = 0x0080
	FuncFlagDefaultCollelem  FuncFlags = 0x0100
	FuncFlagUIDefault        FuncFlags = 0x0200
	FuncFlagNonBrowsable     FuncFlags = 0x0400
	FuncFlagReplaceable      FuncFlags = 0x0800
	FuncFlagImmediateBind    FuncFlags = 0x1000
)

// ParamFlags matches COM PARAMFLAG.
type ParamFlags uint16

const (
	ParamFlagIn         ParamFlags = 0x01
	ParamFlagOut        ParamFlags = 0x02
	ParamFlagLCID       ParamFlags = 0x04
	ParamFlagRetval     ParamFlags = 0x08
	ParamFlagOpt        ParamFlags = 0x10
	ParamFlagHasDefault ParamFlags = 0x20
	ParamFlagHasCustom  ParamFlags = 0x40
)

// In reports an [in] (or unannotated, which COM treats as in) parameter.
func (f ParamFlags) In() bool { return f&ParamFlagIn != 0 || f&(ParamFlagIn|ParamFlagOut) == 0 }

// Out reports an [out] parameter.
func (f ParamFlags) Out() bool { return f&ParamFlagOut != 0 }

// Retval reports an [out, retval] parameter.
func (f ParamFlags) Retval() bool { return f&ParamFlagRetval != 0 }

// VarFlags matches COM VARFLAGS.
type VarFlags uint16

const (
	VarFlagReadOnly        VarFlags = 0x0001
	VarFlagSource          VarFlags = 0x0002
	VarFlagBindable        VarFlags = 0x0004
	VarFlagRequestEdit     VarFlags = 0x0008
	VarFlagDisplayBind     VarFlags = 0x0010
	VarFlagDefaultBind     VarFlags = 0x0020
	VarFlagHidden          VarFlags = 0x0040
	VarFlagRestricted      VarFlags = 0x0080
	VarFlagDefaultCollelem VarFlags = 0x0100
	VarFlagUIDefault       VarFlags = 0x0200
	VarFlagNonBrowsable    VarFlags = 0x0400
	VarFlagReplaceable     VarFlags = 0x0800
	VarFlagImmediateBind   VarFlags = 0x1000
)

// VarKind matches COM VARKIND.
type VarKind uint8

const (
	VarPerInstance VarKind = iota
	VarStatic
	VarConst
	VarDispatch
)

// SysKind matches COM SYSKIND.
type SysKind uint8

const (
	SysWin16 SysKind = iota
	SysWin32
	SysMac
	SysWin64
)

func (s SysKind) String() string {
	switch s {
	case SysWin16:
		return "win16"
	case SysWin32:
		return "win32"
	case SysMac:
		return "mac"
	case SysWin64:
		return "win64"
	}
	return "sys?"
}

// LibFlags matches COM LIBFLAGS.
type LibFlags uint16

const (
	LibFlagRestricted   LibFlags = 0x1
	LibFlagControl      LibFlags = 0x2
	LibFlagHidden       LibFlags = 0x4
	LibFlagHasDiskImage LibFlags = 0x8
)
