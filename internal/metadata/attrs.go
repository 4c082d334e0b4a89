package metadata

import (
	"fmt"
	"strings"

	"tlbimp/internal/guid"
)

// CustomAttr is a custom attribute application: the attribute type's full
// name plus rendered constructor arguments.
type CustomAttr struct {
	Type string
	Args []string
}

func (a CustomAttr) String() string {
	short := a.Type
	if i := strings.LastIndexByte(short, '.'); i >= 0 {
		short = short[i+1:]
	}
	short = strings.TrimSuffix(short, "Attribute")
	if len(a.Args) == 0 {
		return "[" + short + "]"
	}
	return "[" + short + "(" + strings.Join(a.Args, ", ") + ")]"
}

// ComInterfaceType mirrors System.Runtime.InteropServices.ComInterfaceType.
type ComInterfaceType int

const (
	InterfaceIsDual      ComInterfaceType = 0
	InterfaceIsIUnknown  ComInterfaceType = 1
	InterfaceIsIDispatch ComInterfaceType = 2
)

func (c ComInterfaceType) String() string {
	switch c {
	case InterfaceIsDual:
		return "InterfaceIsDual"
	case InterfaceIsIUnknown:
		return "InterfaceIsIUnknown"
	case InterfaceIsIDispatch:
		return "InterfaceIsIDispatch"
	}
	return fmt.Sprintf("ComInterfaceType(%d)", int(c))
}

// AttrGuid renders the identity attribute. The attribute argument carries
// the GUID without braces.
func AttrGuid(g guid.GUID) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.GuidAttribute",
		Args: []string{fmt.Sprintf("%q", g.Bare())},
	}
}

// AttrInterfaceType records the COM interface flavor.
func AttrInterfaceType(kind ComInterfaceType) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.InterfaceTypeAttribute",
		Args: []string{kind.String()},
	}
}

// AttrDispID records the dispatch id of a member.
func AttrDispID(id int32) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.DispIdAttribute",
		Args: []string{fmt.Sprintf("%d", id)},
	}
}

// AttrCoClass names the coclass backing a default interface.
func AttrCoClass(className string) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.CoClassAttribute",
		Args: []string{"typeof(" + className + ")"},
	}
}

// AttrClassInterfaceNone suppresses the auto-generated class interface.
func AttrClassInterfaceNone() CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.ClassInterfaceAttribute",
		Args: []string{"ClassInterfaceType.None"},
	}
}

// AttrComSourceInterfaces lists the event source interfaces of a coclass.
func AttrComSourceInterfaces(names []string) CustomAttr {
	args := make([]string, len(names))
	for i, n := range names {
		args[i] = "typeof(" + n + ")"
	}
	return CustomAttr{
		Type: "System.Runtime.InteropServices.ComSourceInterfacesAttribute",
		Args: args,
	}
}

// AttrComEventInterface ties an event interface to its source interface
// and provider class.
func AttrComEventInterface(source, provider string) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.ComEventInterfaceAttribute",
		Args: []string{"typeof(" + source + ")", "typeof(" + provider + ")"},
	}
}

// AttrComConversionLoss marks a type whose signatures lost fidelity.
func AttrComConversionLoss() CustomAttr {
	return CustomAttr{Type: "System.Runtime.InteropServices.ComConversionLossAttribute"}
}

// AttrComAliasName preserves the unmanaged alias name on a site.
func AttrComAliasName(alias string) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.ComAliasNameAttribute",
		Args: []string{fmt.Sprintf("%q", alias)},
	}
}

// AttrParamArray marks the trailing vararg parameter.
func AttrParamArray() CustomAttr {
	return CustomAttr{Type: "System.ParamArrayAttribute"}
}

// AttrTypeLibType preserves the original TYPEFLAGS.
func AttrTypeLibType(flags uint16) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.TypeLibTypeAttribute",
		Args: []string{fmt.Sprintf("%d", flags)},
	}
}

// AttrTypeLibFunc preserves the original FUNCFLAGS.
func AttrTypeLibFunc(flags uint16) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.TypeLibFuncAttribute",
		Args: []string{fmt.Sprintf("%d", flags)},
	}
}

// AttrTypeLibVar preserves the original VARFLAGS.
func AttrTypeLibVar(flags uint16) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.TypeLibVarAttribute",
		Args: []string{fmt.Sprintf("%d", flags)},
	}
}

// AttrImportedFromTypeLib records the source library name on the assembly.
func AttrImportedFromTypeLib(libName string) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.ImportedFromTypeLibAttribute",
		Args: []string{fmt.Sprintf("%q", libName)},
	}
}

// AttrTypeLibVersion records the source library version on the assembly.
func AttrTypeLibVersion(major, minor uint16) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.TypeLibVersionAttribute",
		Args: []string{fmt.Sprintf("%d", major), fmt.Sprintf("%d", minor)},
	}
}

// AttrPrimaryInteropAssembly marks the assembly as the primary interop
// assembly for its library version.
func AttrPrimaryInteropAssembly(major, minor uint16) CustomAttr {
	return CustomAttr{
		Type: "System.Runtime.InteropServices.PrimaryInteropAssemblyAttribute",
		Args: []string{fmt.Sprintf("%d", major), fmt.Sprintf("%d", minor)},
	}
}

// AttrSuppressUnmanagedCodeSecurity skips the stack walk on native calls.
func AttrSuppressUnmanagedCodeSecurity() CustomAttr {
	return CustomAttr{Type: "System.Security.SuppressUnmanagedCodeSecurityAttribute"}
}

// AttrSerializable marks a type serializable.
func AttrSerializable() CustomAttr {
	return CustomAttr{Type: "System.SerializableAttribute"}
}
