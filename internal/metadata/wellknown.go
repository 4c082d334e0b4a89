package metadata

// Assembly names for the references every import produces.
const (
	Mscorlib         = "mscorlib"
	CustomMarshalers = "CustomMarshalers"
)

// References into mscorlib. Value/reference shape follows the runtime.
var (
	Void = Type{Assembly: Mscorlib, Name: "System.Void", Shape: ShapeVoid}

	Bool    = Ref(Mscorlib, "System.Boolean", ShapeValue)
	Char    = Ref(Mscorlib, "System.Char", ShapeValue)
	SByte   = Ref(Mscorlib, "System.SByte", ShapeValue)
	Byte    = Ref(Mscorlib, "System.Byte", ShapeValue)
	Int16   = Ref(Mscorlib, "System.Int16", ShapeValue)
	UInt16  = Ref(Mscorlib, "System.UInt16", ShapeValue)
	Int32   = Ref(Mscorlib, "System.Int32", ShapeValue)
	UInt32  = Ref(Mscorlib, "System.UInt32", ShapeValue)
	Int64   = Ref(Mscorlib, "System.Int64", ShapeValue)
	UInt64  = Ref(Mscorlib, "System.UInt64", ShapeValue)
	Single  = Ref(Mscorlib, "System.Single", ShapeValue)
	Double  = Ref(Mscorlib, "System.Double", ShapeValue)
	IntPtr  = Ref(Mscorlib, "System.IntPtr", ShapeValue)
	Decimal = Ref(Mscorlib, "System.Decimal", ShapeValue)
	Date    = Ref(Mscorlib, "System.DateTime", ShapeValue)
	GuidVal = Ref(Mscorlib, "System.Guid", ShapeValue)

	String        = Ref(Mscorlib, "System.String", ShapeReference)
	Object        = Ref(Mscorlib, "System.Object", ShapeReference)
	StringBuilder = Ref(Mscorlib, "System.Text.StringBuilder", ShapeReference)
	ArrayBase     = Ref(Mscorlib, "System.Array", ShapeReference)

	// Bases the importer parents generated types on.
	ValueType         = Ref(Mscorlib, "System.ValueType", ShapeReference)
	EnumBase          = Ref(Mscorlib, "System.Enum", ShapeReference)
	MulticastDelegate = Ref(Mscorlib, "System.MulticastDelegate", ShapeReference)

	IEnumerable = Ref(Mscorlib, "System.Collections.IEnumerable", ShapeReference)
	IEnumerator = Ref(Mscorlib, "System.Collections.IEnumerator", ShapeReference)
)

// EnumeratorMarshaler is the custom marshaler that adapts IEnumVARIANT to
// IEnumerator on promoted enumerator methods.
const EnumeratorMarshaler = "System.Runtime.InteropServices.CustomMarshalers.EnumeratorToEnumVariantMarshaler"
