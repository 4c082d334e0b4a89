package convert

import (
	"errors"
	"fmt"
	"testing"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/typelib"
)

func implNames(td *metadata.TypeDef) []string {
	out := make([]string, len(td.Impls))
	for i, r := range td.Impls {
		out[i] = r.Name
	}
	return out
}

func mustField(t *testing.T, td *metadata.TypeDef, name string) *metadata.Field {
	t.Helper()
	for _, f := range td.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %s not on %s", name, td.Name)
	return nil
}

func mustProp(t *testing.T, td *metadata.TypeDef, name string) *metadata.Property {
	t.Helper()
	for _, p := range td.Props {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("property %s not on %s", name, td.Name)
	return nil
}

func TestImportInterface(t *testing.T) {
	f := newFixture()
	foo := f.iface("IFoo", iidFoo, typelib.TKindInterface, 0, f.iunk)
	foo.AddFunc("Echo", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
		Params: []typelib.ParamDesc{
			{Type: typelib.TD(typelib.VTBStr), Flags: typelib.ParamFlagIn},
			{Type: typelib.Ptr(typelib.TD(typelib.VTBStr)), Flags: typelib.ParamFlagOut | typelib.ParamFlagRetval},
		},
		Return: typelib.TD(typelib.VTHResult),
	}, "msg", "reply")
	foo.AddFunc("RawPing", typelib.FuncDesc{
		MemberID: 2, Invoke: typelib.InvokeFunc, VTableOffset: 16,
		Return: typelib.TD(typelib.VTI4),
	})
	foo.AddFunc("Value", typelib.FuncDesc{
		MemberID: 10, Invoke: typelib.InvokePropGet, VTableOffset: 20,
		Params: []typelib.ParamDesc{{Type: typelib.Ptr(typelib.TD(typelib.VTBStr)), Flags: typelib.ParamFlagOut | typelib.ParamFlagRetval}},
		Return: typelib.TD(typelib.VTHResult),
	}, "v")
	foo.AddFunc("Value", typelib.FuncDesc{
		MemberID: 10, Invoke: typelib.InvokePropPut, VTableOffset: 24,
		Params: []typelib.ParamDesc{{Type: typelib.TD(typelib.VTBStr), Flags: typelib.ParamFlagIn}},
		Return: typelib.TD(typelib.VTHResult),
	}, "v")

	res, _ := f.convert(t, Options{})
	if res.Types != len(res.Assembly.Types()) {
		t.Fatalf("Types = %d, assembly holds %d", res.Types, len(res.Assembly.Types()))
	}
	td := mustType(t, res.Assembly, "TestLib.IFoo")
	wantAttrs := metadata.TypePublic | metadata.TypeInterface | metadata.TypeAbstract | metadata.TypeImport
	if td.Attrs != wantAttrs {
		t.Fatalf("type attrs = %v", td.Attrs)
	}
	g := wantAttr(t, td.CustomAttrs, "GuidAttribute")
	if g.Args[0] != fmt.Sprintf("%q", iidFoo.Bare()) {
		t.Fatalf("guid attr = %v", g.Args)
	}
	it := wantAttr(t, td.CustomAttrs, "InterfaceTypeAttribute")
	if it.Args[0] != "InterfaceIsIUnknown" {
		t.Fatalf("interface type = %v", it.Args)
	}

	echo := mustMethod(t, td, "Echo")
	wantM := metadata.MethodPublic | metadata.MethodVirtual | metadata.MethodAbstract | metadata.MethodNewSlot
	if echo.Attrs != wantM {
		t.Fatalf("Echo attrs = %v", echo.Attrs)
	}
	if echo.Impl != 0 {
		t.Fatalf("Echo impl = %v, want the promoted signature", echo.Impl)
	}
	if !echo.Return.Type.Equal(metadata.String) {
		t.Fatalf("Echo return = %v", echo.Return.Type)
	}
	if len(echo.Params) != 1 || echo.Params[0].Name != "msg" || !echo.Params[0].Type.Equal(metadata.String) {
		t.Fatalf("Echo params = %+v", echo.Params)
	}
	if echo.DispID == nil || *echo.DispID != 1 {
		t.Fatalf("Echo dispid = %v", echo.DispID)
	}
	wantAttr(t, echo.CustomAttrs, "DispIdAttribute")

	raw := mustMethod(t, td, "RawPing")
	if raw.Impl != metadata.ImplPreserveSig {
		t.Fatalf("RawPing impl = %v, want PreserveSig", raw.Impl)
	}
	if !raw.Return.Type.Equal(metadata.Int32) {
		t.Fatalf("RawPing return = %v", raw.Return.Type)
	}

	get := mustMethod(t, td, "get_Value")
	if !get.Attrs.Has(metadata.MethodSpecialName) {
		t.Fatalf("get_Value attrs = %v", get.Attrs)
	}
	prop := mustProp(t, td, "Value")
	if !prop.Type.Equal(metadata.String) {
		t.Fatalf("property type = %v", prop.Type)
	}
	if prop.Getter != get || prop.Setter != mustMethod(t, td, "set_Value") {
		t.Fatal("property accessors not wired to the emitted methods")
	}
	if prop.DispID == nil || *prop.DispID != 10 {
		t.Fatalf("property dispid = %v", prop.DispID)
	}
}

func TestImportInterfaceInheritance(t *testing.T) {
	f := newFixture()
	base := f.iface("IBase", iidBar, typelib.TKindInterface, 0, f.iunk)
	base.AddFunc("Ping", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
		Return: typelib.TD(typelib.VTVoid),
	})
	derived := f.iface("IDerived", iidFoo, typelib.TKindInterface, 0, base)
	derived.AddFunc("Pong", typelib.FuncDesc{
		MemberID: 2, Invoke: typelib.InvokeFunc, VTableOffset: 16,
		Return: typelib.TD(typelib.VTVoid),
	})

	res, _ := f.convert(t, Options{})
	td := mustType(t, res.Assembly, "TestLib.IDerived")
	impls := implNames(td)
	if len(impls) != 1 || impls[0] != "TestLib.IBase" {
		t.Fatalf("impls = %v", impls)
	}
	// inherited slots surface on the derived view too
	if _, ok := td.Method("Ping"); !ok {
		t.Fatalf("inherited member missing; have %v", memberNamesOf(td))
	}
	mustMethod(t, td, "Pong")
	mustType(t, res.Assembly, "TestLib.IBase")
}

func memberNamesOf(td *metadata.TypeDef) []string {
	out := make([]string, len(td.Methods))
	for i, m := range td.Methods {
		out[i] = m.Name
	}
	return out
}

func TestImportDualDispatchUsesPartner(t *testing.T) {
	f := newFixture()
	vtbl := f.iface("IDualVtbl", iidBar, typelib.TKindInterface, typelib.TypeFlagDual, f.iunk)
	vtbl.AddFunc("Speed", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
		Return: typelib.TD(typelib.VTR8),
	})
	f.iface("IDual", iidFoo, typelib.TKindDispatch, typelib.TypeFlagDual, vtbl)

	res, _ := f.convert(t, Options{})
	td := mustType(t, res.Assembly, "TestLib.IDual")
	it := wantAttr(t, td.CustomAttrs, "InterfaceTypeAttribute")
	if it.Args[0] != "InterfaceIsDual" {
		t.Fatalf("interface type = %v", it.Args)
	}
	m := mustMethod(t, td, "Speed")
	if m.Impl != metadata.ImplPreserveSig || !m.Return.Type.Equal(metadata.Double) {
		t.Fatalf("partner method = impl %v return %v", m.Impl, m.Return.Type)
	}
}

func TestImportNewEnumCollection(t *testing.T) {
	f := newFixture()
	coll := f.iface("IItems", iidFoo, typelib.TKindInterface, 0, f.iunk)
	enumRef := coll.AddRef(f.ienum)
	coll.AddFunc("_NewEnum", typelib.FuncDesc{
		MemberID: typelib.DispIDNewEnum, Invoke: typelib.InvokePropGet, VTableOffset: 12,
		Params: []typelib.ParamDesc{{
			Type:  typelib.Ptr(typelib.Ptr(typelib.UD(enumRef))),
			Flags: typelib.ParamFlagOut | typelib.ParamFlagRetval,
		}},
		Return: typelib.TD(typelib.VTHResult),
	}, "ppEnum")

	res, _ := f.convert(t, Options{})
	td := mustType(t, res.Assembly, "TestLib.IItems")
	impls := implNames(td)
	if len(impls) != 1 || impls[0] != metadata.IEnumerable.Name {
		t.Fatalf("impls = %v, want IEnumerable", impls)
	}
	ge := mustMethod(t, td, "GetEnumerator")
	if !ge.Return.Type.Equal(metadata.IEnumerator) {
		t.Fatalf("GetEnumerator return = %v", ge.Return.Type)
	}
	if ge.Return.Marshal == nil || ge.Return.Marshal.Custom != metadata.EnumeratorMarshaler {
		t.Fatalf("GetEnumerator marshal = %v", ge.Return.Marshal)
	}
}

func TestImportEnum(t *testing.T) {
	f := newFixture()
	suit := f.lib.AddType("Suit", typelib.TypeAttr{Kind: typelib.TKindEnum})
	suit.AddVar("Hearts", typelib.VarDesc{
		MemberID: 1, Kind: typelib.VarConst,
		Type: typelib.TD(typelib.VTI4), Value: ptrVariant(typelib.VarI4(0)),
	})
	suit.AddVar("Spades", typelib.VarDesc{
		MemberID: 2, Kind: typelib.VarConst,
		Type: typelib.TD(typelib.VTI4), Value: ptrVariant(typelib.VarI4(3)),
	})

	res, _ := f.convert(t, Options{})
	td := mustType(t, res.Assembly, "TestLib.Suit")
	if td.Parent == nil || td.Parent.Name != metadata.EnumBase.Name {
		t.Fatalf("parent = %v", td.Parent)
	}
	if td.Attrs != metadata.TypePublic|metadata.TypeSealed {
		t.Fatalf("attrs = %v", td.Attrs)
	}
	sentinel := mustField(t, td, "value__")
	if !sentinel.Type.Equal(metadata.Int32) || sentinel.Attrs != metadata.FieldPublic {
		t.Fatalf("value__ = %v %v", sentinel.Type, sentinel.Attrs)
	}
	spades := mustField(t, td, "Spades")
	wantF := metadata.FieldPublic | metadata.FieldStatic | metadata.FieldLiteral
	if spades.Attrs != wantF {
		t.Fatalf("literal attrs = %v", spades.Attrs)
	}
	if spades.Type.Name != "TestLib.Suit" {
		t.Fatalf("literal type = %v", spades.Type)
	}
	if spades.Const == nil || spades.Const.Int != 3 {
		t.Fatalf("literal value = %+v", spades.Const)
	}
}

func TestImportRecord(t *testing.T) {
	f := newFixture()
	point := f.lib.AddType("POINT", typelib.TypeAttr{
		GUID: recGUID, Kind: typelib.TKindRecord, Alignment: 4,
	})
	point.AddVar("x", typelib.VarDesc{MemberID: 0, Kind: typelib.VarPerInstance, Type: typelib.TD(typelib.VTI4)})
	point.AddVar("y", typelib.VarDesc{MemberID: 1, Kind: typelib.VarPerInstance, Type: typelib.TD(typelib.VTI4)})
	bad := point.AddBrokenRef(errors.New("descriptor damaged"))
	point.AddVar("cursed", typelib.VarDesc{MemberID: 2, Kind: typelib.VarPerInstance, Type: typelib.UD(bad)})

	res, bag := f.convert(t, Options{})
	td := mustType(t, res.Assembly, "TestLib.POINT")
	if !td.Attrs.Has(metadata.TypeSequentialLayout) || td.Pack != 4 {
		t.Fatalf("layout = %v pack=%d", td.Attrs, td.Pack)
	}
	if td.Parent == nil || td.Parent.Name != metadata.ValueType.Name {
		t.Fatalf("parent = %v", td.Parent)
	}
	if !mustField(t, td, "x").Type.Equal(metadata.Int32) {
		t.Fatal("plain field did not convert")
	}
	cursed := mustField(t, td, "cursed")
	if !cursed.Type.Equal(metadata.IntPtr) {
		t.Fatalf("broken field type = %v, want opaque IntPtr", cursed.Type)
	}
	wantAttr(t, cursed.CustomAttrs, "ComConversionLossAttribute")
	wantAttr(t, td.CustomAttrs, "ComConversionLossAttribute")
	if !hasCode(bag, diag.ConvUnconvertableField) {
		t.Fatalf("missing ConvUnconvertableField: %v", bag.Items())
	}
}

func TestImportUnion(t *testing.T) {
	f := newFixture()
	u := f.lib.AddType("Slot", typelib.TypeAttr{Kind: typelib.TKindUnion})
	u.AddVar("n", typelib.VarDesc{MemberID: 0, Kind: typelib.VarPerInstance, Type: typelib.TD(typelib.VTI4)})
	u.AddVar("s", typelib.VarDesc{MemberID: 1, Kind: typelib.VarPerInstance, Type: typelib.TD(typelib.VTBStr)})

	res, bag := f.convert(t, Options{})
	td := mustType(t, res.Assembly, "TestLib.Slot")
	if !td.Attrs.Has(metadata.TypeExplicitLayout) {
		t.Fatalf("attrs = %v", td.Attrs)
	}
	n := mustField(t, td, "n")
	if n.Offset == nil || *n.Offset != 0 {
		t.Fatalf("offset of n = %v", n.Offset)
	}
	s := mustField(t, td, "s")
	if !s.Type.Equal(metadata.IntPtr) {
		t.Fatalf("reference arm = %v, want IntPtr", s.Type)
	}
	if s.Offset == nil || *s.Offset != 0 {
		t.Fatalf("offset of s = %v", s.Offset)
	}
	if !hasCode(bag, diag.ConvLossyConversion) {
		t.Fatalf("missing ConvLossyConversion: %v", bag.Items())
	}
}

func TestImportModule(t *testing.T) {
	f := newFixture()
	mod := f.lib.AddType("Constants", typelib.TypeAttr{Kind: typelib.TKindModule})
	mod.AddFunc("EntryPoint", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, Return: typelib.TD(typelib.VTVoid),
	})
	mod.AddVar("Pi", typelib.VarDesc{
		MemberID: 2, Kind: typelib.VarConst,
		Type: typelib.TD(typelib.VTR8), Value: ptrVariant(typelib.VarR8(3.14)),
	})
	mod.AddVar("Greeting", typelib.VarDesc{
		MemberID: 3, Kind: typelib.VarConst,
		Type: typelib.TD(typelib.VTBStr), Value: ptrVariant(typelib.VarStr("hello")),
	})

	res, bag := f.convert(t, Options{})
	td := mustType(t, res.Assembly, "TestLib.Constants")
	if !hasCode(bag, diag.MemMethodsDropped) {
		t.Fatalf("missing MemMethodsDropped: %v", bag.Items())
	}
	if len(td.Methods) != 0 {
		t.Fatalf("module kept methods: %v", memberNamesOf(td))
	}
	pi := mustField(t, td, "Pi")
	if !pi.Type.Equal(metadata.Double) || pi.Const == nil || pi.Const.Real != 3.14 {
		t.Fatalf("Pi = %v %+v", pi.Type, pi.Const)
	}
	hi := mustField(t, td, "Greeting")
	if !hi.Type.Equal(metadata.String) || hi.Const == nil || hi.Const.Str != "hello" {
		t.Fatalf("Greeting = %v %+v", hi.Type, hi.Const)
	}
}

func TestImportVararg(t *testing.T) {
	f := newFixture()
	foo := f.iface("ILogger", iidFoo, typelib.TKindInterface, 0, f.iunk)
	foo.AddFunc("Log", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12, OptParams: -1,
		Params: []typelib.ParamDesc{
			{Type: typelib.TD(typelib.VTBStr), Flags: typelib.ParamFlagIn},
			{Type: typelib.SafeArrayOf(typelib.TD(typelib.VTVariant)), Flags: typelib.ParamFlagIn},
		},
		Return: typelib.TD(typelib.VTHResult),
	}, "format", "args")

	res, _ := f.convert(t, Options{})
	td := mustType(t, res.Assembly, "TestLib.ILogger")
	m := mustMethod(t, td, "Log")
	last := m.Params[len(m.Params)-1]
	if _, ok := attrNamed(last.CustomAttrs, "ParamArrayAttribute"); !ok {
		t.Fatalf("vararg attrs = %v", last.CustomAttrs)
	}
	if !last.Type.Array || !last.Type.Elem.Equal(metadata.Object) {
		t.Fatalf("vararg type = %v", last.Type)
	}
}

func TestImportAssemblyIdentity(t *testing.T) {
	f := newFixture()
	f.iface("IFoo", iidFoo, typelib.TKindInterface, 0, f.iunk)

	t.Run("derived from library", func(t *testing.T) {
		res, _ := f.convert(t, Options{})
		asm := res.Assembly
		if asm.Name != "TestLib" || asm.Version != "3.5.0.0" {
			t.Fatalf("identity = %s %s", asm.Name, asm.Version)
		}
		if asm.LibID != testLibID || asm.TypeLibMajor != 3 || asm.TypeLibMinor != 5 {
			t.Fatalf("library echo = %v %d.%d", asm.LibID, asm.TypeLibMajor, asm.TypeLibMinor)
		}
		wantAttr(t, asm.CustomAttrs, "ImportedFromTypeLibAttribute")
		wantAttr(t, asm.CustomAttrs, "GuidAttribute")
		wantAttr(t, asm.CustomAttrs, "TypeLibVersionAttribute")
		wantNoAttr(t, asm.CustomAttrs, "PrimaryInteropAssemblyAttribute")
	})

	t.Run("overridden", func(t *testing.T) {
		res, _ := f.convert(t, Options{
			AssemblyName:    "Acme.Interop",
			AssemblyVersion: "7.1.2.9",
			Namespace:       "Acme",
			PrimaryInterop:  true,
		})
		asm := res.Assembly
		if asm.Name != "Acme.Interop" || asm.Version != "7.1.2.9" {
			t.Fatalf("identity = %s %s", asm.Name, asm.Version)
		}
		if !asm.Primary {
			t.Fatal("primary flag not set")
		}
		wantAttr(t, asm.CustomAttrs, "PrimaryInteropAssemblyAttribute")
		mustType(t, asm, "Acme.IFoo")
	})
}

func TestImportBadVersion(t *testing.T) {
	f := newFixture()
	f.iface("IFoo", iidFoo, typelib.TKindInterface, 0, f.iunk)
	for _, v := range []string{"banana", "1", "1.2.3.4.5", "1.-2", "70000.0"} {
		bag := diag.NewBag(256)
		_, err := Import(f.lib, Options{AssemblyVersion: v}, nil, diag.BagReporter{Bag: bag})
		if err == nil {
			t.Fatalf("version %q accepted", v)
		}
		if !hasCode(bag, diag.DrvBadVersion) {
			t.Fatalf("version %q: missing DrvBadVersion: %v", v, bag.Items())
		}
	}
}

func TestImportArchMismatch(t *testing.T) {
	f := newFixture()
	f.lib.LibA.SysKind = typelib.SysWin64
	f.iface("IFoo", iidFoo, typelib.TKindInterface, 0, f.iunk)

	bag := diag.NewBag(256)
	_, err := Import(f.lib, Options{TargetArch: ArchX86}, nil, diag.BagReporter{Bag: bag})
	if err == nil {
		t.Fatal("x86 import of a win64 library succeeded")
	}
	if !hasCode(bag, diag.DrvBadArch) {
		t.Fatalf("missing DrvBadArch: %v", bag.Items())
	}

	if _, err := Import(f.lib, Options{TargetArch: ArchX64}, nil, diag.BagReporter{Bag: diag.NewBag(256)}); err != nil {
		t.Fatalf("x64 import of a win64 library failed: %v", err)
	}
}

func TestImportRejectsManagedExport(t *testing.T) {
	f := newFixture()
	f.lib.SetCustom(typelib.CDExportedFromComPlus, typelib.VarStr("mscoree.dll"))
	f.iface("IFoo", iidFoo, typelib.TKindInterface, 0, f.iunk)

	bag := diag.NewBag(256)
	_, err := Import(f.lib, Options{}, nil, diag.BagReporter{Bag: bag})
	if err == nil {
		t.Fatal("import of a re-exported managed library succeeded")
	}
	if !hasCode(bag, diag.LoadCircularImport) {
		t.Fatalf("missing LoadCircularImport: %v", bag.Items())
	}
}

func TestImportSkipsBrokenType(t *testing.T) {
	f := newFixture()
	broken := f.iface("IBroken", iidBar, typelib.TKindInterface, 0, f.iunk)
	broken.AddFunc("Bad", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 13,
		Return: typelib.TD(typelib.VTVoid),
	})
	good := f.iface("IGood", iidFoo, typelib.TKindInterface, 0, f.iunk)
	good.AddFunc("Fine", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
		Return: typelib.TD(typelib.VTVoid),
	})

	res, bag := f.convert(t, Options{})
	if len(res.Skipped) != 1 || res.Skipped[0] != "TestLib.IBroken" {
		t.Fatalf("skipped = %v", res.Skipped)
	}
	if !hasCode(bag, diag.RefSkippedType) {
		t.Fatalf("missing RefSkippedType: %v", bag.Items())
	}
	if _, ok := res.Assembly.Type("TestLib.IBroken"); ok {
		t.Fatal("broken type still landed in the assembly")
	}
	mustType(t, res.Assembly, "TestLib.IGood")
	if !hasCode(bag, diag.DrvTimings) {
		t.Fatalf("missing phase timing info: %v", bag.Items())
	}
}

// otherLibrary builds a second library plus the interop assembly a
// resolver would hand back for it.
func otherLibrary() (*typelib.Library, *metadata.Assembly) {
	other := typelib.NewLibrary("OtherLib", typelib.LibAttr{
		GUID: otherLibID, Major: 1, SysKind: typelib.SysWin32,
	})
	asm := metadata.NewAssembly("OtherLib.Interop", "1.0.0.0")
	return other, asm
}

func TestImportExternalReference(t *testing.T) {
	f := newFixture()
	other, ext := otherLibrary()
	bar := other.AddType("IBar", typelib.TypeAttr{GUID: iidBar, Kind: typelib.TKindInterface})
	bar.AddImpl(bar.AddRef(f.iunk), 0)
	extBar, err := ext.DefineType("OtherLib.IBar",
		metadata.TypePublic|metadata.TypeInterface|metadata.TypeAbstract|metadata.TypeImport, nil, nil)
	if err != nil {
		t.Fatalf("DefineType: %v", err)
	}
	if err := extBar.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	foo := f.iface("IFoo", iidFoo, typelib.TKindInterface, 0, f.iunk)
	barRef := foo.AddRef(bar)
	foo.AddFunc("Link", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
		Params: []typelib.ParamDesc{{Type: typelib.Ptr(typelib.UD(barRef)), Flags: typelib.ParamFlagIn}},
		Return: typelib.TD(typelib.VTVoid),
	}, "peer")

	resolved := 0
	resolver := ResolverFunc(func(lib typelib.TypeLibrary) (*metadata.Assembly, error) {
		resolved++
		if lib.Attr().GUID != otherLibID {
			return nil, fmt.Errorf("unexpected library %s", lib.Name())
		}
		return ext, nil
	})

	bag := diag.NewBag(256)
	res, err := Import(f.lib, Options{}, resolver, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("Import: %v\n%v", err, bag.Items())
	}
	td := mustType(t, res.Assembly, "TestLib.IFoo")
	m := mustMethod(t, td, "Link")
	pt := m.Params[0].Type
	if pt.Name != "OtherLib.IBar" || pt.Assembly != "OtherLib.Interop" {
		t.Fatalf("external param = %+v", pt)
	}
	if resolved != 1 {
		t.Fatalf("resolver asked %d times, want once", resolved)
	}
	if _, ok := res.Assembly.Type("OtherLib.IBar"); ok {
		t.Fatal("external type was emitted locally")
	}
}

func TestImportExternalNestedSpelling(t *testing.T) {
	f := newFixture()
	other, ext := otherLibrary()
	nested := other.AddType("INested", typelib.TypeAttr{GUID: iidBaz, Kind: typelib.TKindInterface})
	nested.AddImpl(nested.AddRef(f.iunk), 0)
	td, err := ext.DefineType("OtherLib+INested",
		metadata.TypePublic|metadata.TypeInterface|metadata.TypeAbstract|metadata.TypeImport, nil, nil)
	if err != nil {
		t.Fatalf("DefineType: %v", err)
	}
	if err := td.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	foo := f.iface("IFoo", iidFoo, typelib.TKindInterface, 0, f.iunk)
	ref := foo.AddRef(nested)
	foo.AddFunc("Use", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
		Params: []typelib.ParamDesc{{Type: typelib.Ptr(typelib.UD(ref)), Flags: typelib.ParamFlagIn}},
		Return: typelib.TD(typelib.VTVoid),
	}, "n")

	resolver := ResolverFunc(func(typelib.TypeLibrary) (*metadata.Assembly, error) { return ext, nil })
	bag := diag.NewBag(256)
	res, err := Import(f.lib, Options{}, resolver, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("Import: %v\n%v", err, bag.Items())
	}
	m := mustMethod(t, mustType(t, res.Assembly, "TestLib.IFoo"), "Use")
	if m.Params[0].Type.Name != "OtherLib+INested" {
		t.Fatalf("nested param = %+v", m.Params[0].Type)
	}
}

func TestImportUnresolvedReference(t *testing.T) {
	build := func() *typelib.Library {
		f := newFixture()
		other, _ := otherLibrary()
		bar := other.AddType("IBar", typelib.TypeAttr{GUID: iidBar, Kind: typelib.TKindInterface})
		bar.AddImpl(bar.AddRef(f.iunk), 0)
		foo := f.iface("IFoo", iidFoo, typelib.TKindInterface, 0, f.iunk)
		ref := foo.AddRef(bar)
		foo.AddFunc("Link", typelib.FuncDesc{
			MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
			Params: []typelib.ParamDesc{{Type: typelib.Ptr(typelib.UD(ref)), Flags: typelib.ParamFlagIn}},
			Return: typelib.TD(typelib.VTVoid),
		}, "peer")
		return f.lib
	}

	t.Run("skips by default", func(t *testing.T) {
		bag := diag.NewBag(256)
		res, err := Import(build(), Options{}, nil, diag.BagReporter{Bag: bag})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if len(res.Skipped) != 1 || res.Skipped[0] != "TestLib.IFoo" {
			t.Fatalf("skipped = %v", res.Skipped)
		}
		if !hasCode(bag, diag.RefUnresolved) || !hasCode(bag, diag.RefSkippedType) {
			t.Fatalf("diagnostics = %v", bag.Items())
		}
	})

	t.Run("fatal under strict references", func(t *testing.T) {
		bag := diag.NewBag(256)
		_, err := Import(build(), Options{StrictRef: true}, nil, diag.BagReporter{Bag: bag})
		if !errors.Is(err, ErrRefUnresolved) {
			t.Fatalf("err = %v, want ErrRefUnresolved", err)
		}
	})

	t.Run("resolver failure reported", func(t *testing.T) {
		bag := diag.NewBag(256)
		resolver := ResolverFunc(func(typelib.TypeLibrary) (*metadata.Assembly, error) {
			return nil, errors.New("disk on fire")
		})
		res, err := Import(build(), Options{}, resolver, diag.BagReporter{Bag: bag})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if !hasCode(bag, diag.RefAssemblyUnreadable) {
			t.Fatalf("diagnostics = %v", bag.Items())
		}
		if len(res.Skipped) != 1 {
			t.Fatalf("skipped = %v", res.Skipped)
		}
	})
}

func TestImportAliasAdvertisedOnParams(t *testing.T) {
	f := newFixture()
	money := typelib.TD(typelib.VTI8)
	mon := f.lib.AddType("MONEY", typelib.TypeAttr{Kind: typelib.TKindAlias, Alias: &money})
	foo := f.iface("IPay", iidFoo, typelib.TKindInterface, 0, f.iunk)
	ref := foo.AddRef(mon)
	foo.AddFunc("Charge", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
		Params: []typelib.ParamDesc{{Type: typelib.UD(ref), Flags: typelib.ParamFlagIn}},
		Return: typelib.TD(typelib.VTVoid),
	}, "amount")

	res, _ := f.convert(t, Options{})
	m := mustMethod(t, mustType(t, res.Assembly, "TestLib.IPay"), "Charge")
	p := m.Params[0]
	if !p.Type.Equal(metadata.Int64) {
		t.Fatalf("aliased param = %v", p.Type)
	}
	a := wantAttr(t, p.CustomAttrs, "ComAliasNameAttribute")
	if a.Args[0] != `"TestLib.MONEY"` {
		t.Fatalf("alias attr = %v", a.Args)
	}
}
