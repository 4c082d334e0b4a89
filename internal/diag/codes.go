package diag

import (
	"fmt"
)

type Code uint16

const (
	// Unknown failure, kept for completeness
	UnknownCode Code = 0

	// Loading and input libraries
	LoadInfo            Code = 1000
	LoadOpenFailed      Code = 1001
	LoadNotALibrary     Code = 1002
	LoadCircularImport  Code = 1003
	LoadRefLibrary      Code = 1004
	LoadBadDescriptor   Code = 1005
	LoadBadCustomData   Code = 1006

	// Naming and namespaces
	NameInfo               Code = 2000
	NameDuplicateTypeName  Code = 2001
	NameInvalidNamespace   Code = 2002
	NameInvalidManagedName Code = 2003

	// Type conversion
	ConvInfo               Code = 3000
	ConvBadVtType          Code = 3001
	ConvUnconvertableField Code = 3002
	ConvUnconvertableArgs  Code = 3003
	ConvParamErrorNamed    Code = 3004
	ConvParamErrorUnnamed  Code = 3005
	ConvLossyConversion    Code = 3006

	// Members and interfaces
	MemInfo                 Code = 4000
	MemBadVTable            Code = 4001
	MemAmbiguousReturn      Code = 4002
	MemMultipleLcids        Code = 4003
	MemPropgetWithoutReturn Code = 4004
	MemMultiNewEnum         Code = 4005
	MemIEnumOnIUnknown      Code = 4006
	MemPropertyDemoted      Code = 4007
	MemMethodsDropped       Code = 4008

	// Classes and events
	ClsInfo              Code = 5000
	ClsNoPropsInEvents   Code = 5001
	ClsEventWithNewEnum  Code = 5002
	ClsNotIUnknown       Code = 5003
	ClsDualNotDispatch   Code = 5004
	ClsOverrideMissing   Code = 5005
	ClsSetConstantFailed Code = 5006

	// External references
	RefInfo               Code = 6000
	RefUnresolved         Code = 6001
	RefAssemblyUnreadable Code = 6002
	RefSkippedType        Code = 6003

	// Driver and configuration
	DrvInfo          Code = 7000
	DrvTimings       Code = 7001
	DrvBadArch       Code = 7002
	DrvConfigInvalid Code = 7003
	DrvBadVersion    Code = 7004
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LoadInfo:           "Load information",
	LoadOpenFailed:     "Cannot open input library",
	LoadNotALibrary:    "Input is not a type library snapshot",
	LoadCircularImport: "Library was exported from a managed assembly",
	LoadRefLibrary:     "Cannot load referenced library",
	LoadBadDescriptor:  "Malformed type descriptor",
	LoadBadCustomData:  "Malformed custom data value",

	NameInfo:               "Naming information",
	NameDuplicateTypeName:  "Duplicate managed type name",
	NameInvalidNamespace:   "Library name is not usable as a namespace",
	NameInvalidManagedName: "Invalid managed name override",

	ConvInfo:               "Conversion information",
	ConvBadVtType:          "Variant type has no managed equivalent",
	ConvUnconvertableField: "Field type cannot be converted",
	ConvUnconvertableArgs:  "Signature contains unconvertable argument types",
	ConvParamErrorNamed:    "Parameter cannot be converted",
	ConvParamErrorUnnamed:  "Unnamed parameter cannot be converted",
	ConvLossyConversion:    "Type converted with loss of information",

	MemInfo:                 "Member information",
	MemBadVTable:            "Virtual table offset regresses",
	MemAmbiguousReturn:      "More than one parameter is marked retval",
	MemMultipleLcids:        "More than one parameter is marked lcid",
	MemPropgetWithoutReturn: "Property getter has no return value",
	MemMultiNewEnum:         "More than one enumerator member",
	MemIEnumOnIUnknown:      "Enumerator custom data on an interface not derived from IDispatch",
	MemPropertyDemoted:      "Property accessors demoted to plain methods",
	MemMethodsDropped:       "Module methods are not imported",

	ClsInfo:              "Class information",
	ClsNoPropsInEvents:   "Source interface declares properties",
	ClsEventWithNewEnum:  "Source interface declares an enumerator",
	ClsNotIUnknown:       "Interface does not derive from IUnknown",
	ClsDualNotDispatch:   "Dual interface does not derive from IDispatch",
	ClsOverrideMissing:   "Cannot find the interface method to override",
	ClsSetConstantFailed: "Constant value could not be set",

	RefInfo:               "Reference information",
	RefUnresolved:         "Referenced type not found in any reference assembly",
	RefAssemblyUnreadable: "Cannot read reference assembly",
	RefSkippedType:        "Type skipped and not imported",

	DrvInfo:          "Driver information",
	DrvTimings:       "Phase timings",
	DrvBadArch:       "Unsupported target architecture",
	DrvConfigInvalid: "Invalid manifest",
	DrvBadVersion:    "Invalid assembly version",
}

// ID returns the stable rendered identifier, e.g. "TI4001".
func (c Code) ID() string {
	ic := uint16(c)
	if ic >= 1000 && ic < 8000 {
		return fmt.Sprintf("TI%04d", ic)
	}
	return "TI0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
