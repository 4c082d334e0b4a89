package metafmt

import (
	"strings"
	"testing"

	"tlbimp/internal/guid"
	"tlbimp/internal/metadata"
)

func TestDumpGolden(t *testing.T) {
	a := metadata.NewAssembly("WidgetLib", "1.0.0.0")
	a.LibID = guid.MustParse("{10000000-0000-0000-0000-000000000001}")
	a.TypeLibMajor, a.TypeLibMinor = 1, 0
	a.Arch = "x86"
	a.SetCustomAttribute(metadata.AttrImportedFromTypeLib("WidgetLib"))

	iface, err := a.DefineType("WidgetLib.IWidget",
		metadata.TypePublic|metadata.TypeInterface|metadata.TypeAbstract|metadata.TypeImport, nil, nil)
	if err != nil {
		t.Fatalf("define interface: %v", err)
	}
	paint, err := iface.DefineMethod("Paint",
		metadata.MethodPublic|metadata.MethodVirtual|metadata.MethodAbstract|metadata.MethodNewSlot,
		metadata.ImplPreserveSig,
		metadata.Param{Type: metadata.Int32, Marshal: metadata.Marshal(metadata.UTError)},
		[]metadata.Param{{Name: "hue", Type: metadata.Int32, Attrs: metadata.ParamIn}})
	if err != nil {
		t.Fatalf("define Paint: %v", err)
	}
	paint.SetDispID(1)
	paint.Slot = 7

	getter, err := iface.DefineMethod("get_Name",
		metadata.MethodPublic|metadata.MethodVirtual|metadata.MethodAbstract|metadata.MethodSpecialName,
		0,
		metadata.Param{Type: metadata.String, Marshal: metadata.Marshal(metadata.UTBStr)}, nil)
	if err != nil {
		t.Fatalf("define get_Name: %v", err)
	}
	getter.SetDispID(2)
	getter.Slot = 8
	prop, err := iface.DefineProperty("Name", metadata.String)
	if err != nil {
		t.Fatalf("define property: %v", err)
	}
	prop.Getter = getter
	prop.SetDispID(2)

	eb := metadata.EnumBase
	enum, err := a.DefineType("WidgetLib.Colors", metadata.TypePublic|metadata.TypeSealed, &eb, nil)
	if err != nil {
		t.Fatalf("define enum: %v", err)
	}
	red, err := enum.DefineField("Red", metadata.Int32,
		metadata.FieldPublic|metadata.FieldStatic|metadata.FieldLiteral)
	if err != nil {
		t.Fatalf("define enum member: %v", err)
	}
	if err := red.SetConstant(metadata.ConstOfInt(0)); err != nil {
		t.Fatalf("set constant: %v", err)
	}

	var sb strings.Builder
	if err := Dump(&sb, a); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	want := strings.Join([]string{
		"assembly WidgetLib v1.0.0.0",
		"libid {10000000-0000-0000-0000-000000000001} typelib 1.0 arch x86",
		`attr [ImportedFromTypeLib("WidgetLib")]`,
		"",
		"type WidgetLib.IWidget <public interface abstract import>",
		"  fn Paint(hue: System.Int32 [in]) -> System.Int32 {Error} (slot=7, dispid=1) [preservesig]",
		"  fn get_Name() -> System.String {BStr} (slot=8, dispid=2) [specialname]",
		"  prop Name: System.String (dispid=2) get=get_Name",
		"",
		"type WidgetLib.Colors <public sealed> : System.Enum",
		"  field Red: System.Int32 <public static literal> = 0",
		"",
	}, "\n")
	if got := sb.String(); got != want {
		t.Fatalf("dump mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestTypeString(t *testing.T) {
	a := metadata.NewAssembly("WidgetLib", "1.0.0.0")
	obj := metadata.Object
	def, err := a.DefineType("WidgetLib.WidgetClass", metadata.TypePublic, &obj, nil)
	if err != nil {
		t.Fatalf("DefineType: %v", err)
	}
	got := TypeString(def)
	want := "WidgetLib.WidgetClass <public> : System.Object"
	if got != want {
		t.Fatalf("TypeString = %q, want %q", got, want)
	}
}
