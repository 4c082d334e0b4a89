// Package convert implements the importer core: the symbol table over
// per-type converters, the descriptor-to-managed type converter, the
// member planner, the per-kind conversion pipelines and the two-phase
// driver that turns a type library into an assembly model.
package convert

import (
	"fmt"

	"tlbimp/internal/typelib"
)

// Arch is the target architecture recorded on the output assembly and
// validated against the library's system kind.
type Arch uint8

const (
	ArchDefault Arch = iota
	ArchAgnostic
	ArchX86
	ArchX64
	ArchItanium
	ArchARM
)

func (a Arch) String() string {
	switch a {
	case ArchDefault:
		return "default"
	case ArchAgnostic:
		return "agnostic"
	case ArchX86:
		return "x86"
	case ArchX64:
		return "x64"
	case ArchItanium:
		return "itanium"
	case ArchARM:
		return "arm"
	}
	return "arch?"
}

// ParseArch accepts the spelling used on the command line.
func ParseArch(s string) (Arch, error) {
	switch s {
	case "", "default":
		return ArchDefault, nil
	case "agnostic":
		return ArchAgnostic, nil
	case "x86":
		return ArchX86, nil
	case "x64":
		return ArchX64, nil
	case "itanium":
		return ArchItanium, nil
	case "arm":
		return ArchARM, nil
	}
	return ArchDefault, fmt.Errorf("unknown architecture %q", s)
}

// Compatible reports whether the architecture can import a library built
// for the given system kind. Agnostic and default accept anything; 64-bit
// architectures reject win32-only libraries and vice versa.
func (a Arch) Compatible(sys typelib.SysKind) bool {
	switch a {
	case ArchDefault, ArchAgnostic:
		return true
	case ArchX86, ArchARM:
		return sys != typelib.SysWin64
	case ArchX64, ArchItanium:
		return sys != typelib.SysWin16
	}
	return true
}

// Options carries the host configuration for one import.
type Options struct {
	// AssemblyName and AssemblyVersion identify the output; when empty the
	// driver derives them from the library name and version.
	AssemblyName    string
	AssemblyVersion string
	// Namespace overrides a missing library-level managed-name namespace.
	Namespace string

	PrimaryInterop           bool
	UnsafeInterfaces         bool
	SafeArrayAsUniversal     bool
	TransformDispRetvals     bool
	PreventClassMembers      bool
	SerializableValueClasses bool
	VariantBoolFieldToBool   bool
	LegacyQuirks             bool
	// StrictRef makes an unresolvable foreign reference fatal instead of
	// warn-and-skip.
	StrictRef bool

	TargetArch Arch
}
