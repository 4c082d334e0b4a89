package typelib

import "tlbimp/internal/guid"

// Interface and library identifiers the importer recognizes verbatim.
var (
	IIDIUnknown     = guid.MustParse("{00000000-0000-0000-C000-000000000046}")
	IIDIDispatch    = guid.MustParse("{00020400-0000-0000-C000-000000000046}")
	IIDITypeInfo    = guid.MustParse("{00020401-0000-0000-C000-000000000046}")
	IIDIEnumVariant = guid.MustParse("{00020404-0000-0000-C000-000000000046}")
	IIDIDispatchEx  = guid.MustParse("{A6EF9860-C720-11D0-9337-00A0C90DCAA9}")

	// IIDIEnumerable is the IID of the managed System.Collections.IEnumerable
	// as exposed through the runtime's class interface machinery.
	IIDIEnumerable = guid.MustParse("{496B0ABE-CDEE-11D3-88E8-00902754C43A}")

	// TypeLibIDStdOle is the library id of stdole2; the GUID record type it
	// defines converts to the native managed Guid value type.
	TypeLibIDStdOle = guid.MustParse("{00020430-0000-0000-C000-000000000046}")
)

// Custom data keys consumed during conversion.
var (
	// CDManagedName overrides the managed name of a library, type or member.
	CDManagedName = guid.MustParse("{0F21F359-AB84-41E8-9A78-36D110E6D2F9}")
	// CDExportedFromComPlus marks a library that was produced from managed
	// code; importing such a library back is a circular import.
	CDExportedFromComPlus = guid.MustParse("{90883F05-3D28-11D2-8F17-00A0C9A6186D}")
	// CDForceIEnumerable makes a member qualify as the enumerator accessor
	// even without DISPID_NEWENUM.
	CDForceIEnumerable = guid.MustParse("{B64784EB-D8D4-4D9B-9ACD-0E30806426F7}")
	// CDDispIDOverride replaces a member's dispatch id before grouping.
	CDDispIDOverride = guid.MustParse("{CD2BC5C9-F452-4326-B714-F9C539D4DA58}")
	// CDPropGet and CDPropPut force accessor roles on plain functions.
	CDPropGet = guid.MustParse("{2941FF83-88D8-4F73-B6A9-BDF8712D000D}")
	CDPropPut = guid.MustParse("{29533527-3683-4364-ABC0-DB1ADD822FA2}")
	// CDFunction2Getter forces the get-accessor naming rule on a function.
	CDFunction2Getter = guid.MustParse("{54FC8F55-38DE-4703-9C4E-250351302B1C}")
)

// Well-known dispatch ids.
const (
	DispIDNewEnum MemberID = -4
	DispIDValue   MemberID = 0
)

// StdOleGUIDTypeName is the record in stdole that rewrites to the managed
// Guid value type.
const StdOleGUIDTypeName = "GUID"

func customString(v Variant, ok bool) (string, bool) {
	if !ok || !v.IsString() || v.Str == "" {
		return "", false
	}
	return v.Str, true
}

// ManagedNameOverride returns the CDManagedName value on a type, if any.
func ManagedNameOverride(ti TypeInfo) (string, bool) {
	return customString(ti.CustomData(CDManagedName))
}

// LibraryManagedName returns the CDManagedName value on a library, if any.
func LibraryManagedName(lib TypeLibrary) (string, bool) {
	return customString(lib.CustomData(CDManagedName))
}
