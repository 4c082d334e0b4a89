package convert

import (
	"strings"
	"testing"

	"tlbimp/internal/diag"
	"tlbimp/internal/guid"
	"tlbimp/internal/metadata"
	"tlbimp/internal/testkit"
	"tlbimp/internal/typelib"
)

var (
	testLibID  = guid.MustParse("{AAAA0001-0000-0000-C000-000000000046}")
	otherLibID = guid.MustParse("{AAAA0002-0000-0000-C000-000000000046}")
	iidFoo     = guid.MustParse("{BBBB0001-0000-0000-C000-000000000046}")
	iidBar     = guid.MustParse("{BBBB0002-0000-0000-C000-000000000046}")
	iidBaz     = guid.MustParse("{BBBB0003-0000-0000-C000-000000000046}")
	iidEvents  = guid.MustParse("{BBBB0004-0000-0000-C000-000000000046}")
	clsidFoo   = guid.MustParse("{CCCC0001-0000-0000-C000-000000000046}")
	clsidBar   = guid.MustParse("{CCCC0002-0000-0000-C000-000000000046}")
	recGUID    = guid.MustParse("{DDDD0001-0000-0000-C000-000000000046}")
)

// fixture assembles a library under test next to a miniature stdole so
// inheritance chains can reach the well-known roots.
type fixture struct {
	lib   *typelib.Library
	std   *typelib.Library
	iunk  *typelib.Entry
	idisp *typelib.Entry
	ienum *typelib.Entry
	grec  *typelib.Entry
}

func newFixture() *fixture {
	std := typelib.NewLibrary("stdole", typelib.LibAttr{
		GUID: typelib.TypeLibIDStdOle, Major: 2, SysKind: typelib.SysWin32,
	})
	iunk := std.AddType("IUnknown", typelib.TypeAttr{
		GUID: typelib.IIDIUnknown, Kind: typelib.TKindInterface,
	})
	idisp := std.AddType("IDispatch", typelib.TypeAttr{
		GUID: typelib.IIDIDispatch, Kind: typelib.TKindInterface,
	})
	idisp.AddImpl(idisp.AddRef(iunk), 0)
	ienum := std.AddType("IEnumVARIANT", typelib.TypeAttr{
		GUID: typelib.IIDIEnumVariant, Kind: typelib.TKindInterface,
	})
	ienum.AddImpl(ienum.AddRef(iunk), 0)
	grec := std.AddType(typelib.StdOleGUIDTypeName, typelib.TypeAttr{
		Kind: typelib.TKindRecord,
	})
	lib := typelib.NewLibrary("TestLib", typelib.LibAttr{
		GUID: testLibID, Major: 3, Minor: 5, SysKind: typelib.SysWin32,
	})
	return &fixture{lib: lib, std: std, iunk: iunk, idisp: idisp, ienum: ienum, grec: grec}
}

// iface adds an interface to the library under test, derived from root.
func (f *fixture) iface(name string, iid guid.GUID, kind typelib.TypeKind, flags typelib.TypeFlags, root typelib.TypeInfo) *typelib.Entry {
	e := f.lib.AddType(name, typelib.TypeAttr{GUID: iid, Kind: kind, Flags: flags})
	e.AddImpl(e.AddRef(root), 0)
	return e
}

// convert runs the driver and fails the test on a fatal import error or
// an assembly invariant violation.
func (f *fixture) convert(t *testing.T, opts Options) (*Result, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(256)
	res, err := Import(f.lib, opts, nil, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("Import: %v\ndiagnostics: %v", err, bag.Items())
	}
	if err := testkit.CheckAssemblyInvariants(res.Assembly); err != nil {
		t.Fatalf("assembly invariants: %v", err)
	}
	return res, bag
}

// context builds a bare conversion context for descriptor-level tests.
func (f *fixture) context(opts Options) (*Context, *diag.Bag) {
	bag := diag.NewBag(256)
	asm := metadata.NewAssembly("TestLib", "1.0.0.0")
	return newContext(f.lib, opts, nil, asm, nil, diag.BagReporter{Bag: bag}), bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func mustType(t *testing.T, asm *metadata.Assembly, name string) *metadata.TypeDef {
	t.Helper()
	td, ok := asm.Type(name)
	if !ok {
		var have []string
		for _, d := range asm.Types() {
			have = append(have, d.Name)
		}
		t.Fatalf("type %s not in assembly; have %s", name, strings.Join(have, ", "))
	}
	return td
}

func mustMethod(t *testing.T, td *metadata.TypeDef, name string) *metadata.Method {
	t.Helper()
	m, ok := td.Method(name)
	if !ok {
		var have []string
		for _, mm := range td.Methods {
			have = append(have, mm.Name)
		}
		t.Fatalf("method %s not on %s; have %s", name, td.Name, strings.Join(have, ", "))
	}
	return m
}

func attrNamed(attrs []metadata.CustomAttr, typeName string) (metadata.CustomAttr, bool) {
	for _, a := range attrs {
		if strings.HasSuffix(a.Type, typeName) {
			return a, true
		}
	}
	return metadata.CustomAttr{}, false
}

func wantAttr(t *testing.T, attrs []metadata.CustomAttr, typeName string) metadata.CustomAttr {
	t.Helper()
	a, ok := attrNamed(attrs, typeName)
	if !ok {
		t.Fatalf("attribute %s missing; have %v", typeName, attrs)
	}
	return a
}

func wantNoAttr(t *testing.T, attrs []metadata.CustomAttr, typeName string) {
	t.Helper()
	if a, ok := attrNamed(attrs, typeName); ok {
		t.Fatalf("unexpected attribute %v", a)
	}
}
