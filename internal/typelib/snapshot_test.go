package typelib

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"tlbimp/internal/guid"
)

func buildSampleLib() *Library {
	lib := NewLibrary("SampleLib", LibAttr{
		GUID:    guid.MustParse("{D0D0D0D0-0000-0000-0000-000000000001}"),
		Major:   3,
		Minor:   2,
		LCID:    1033,
		SysKind: SysWin64,
	})
	lib.SetCustom(CDManagedName, VarStr("Acme.Sample.dll"))

	colors := lib.AddType("Colors", TypeAttr{
		Kind: TKindEnum,
		GUID: guid.MustParse("{D0D0D0D0-0000-0000-0000-000000000002}"),
	})
	colors.AddVar("Red", VarDesc{Kind: VarConst, Type: TD(VTI4), Value: &Variant{VT: VTI4, I64: 1}})
	colors.AddVar("Blue", VarDesc{Kind: VarConst, Type: TD(VTI4), Value: &Variant{VT: VTI4, I64: 2}})

	itf := lib.AddType("IWidget", TypeAttr{
		Kind:       TKindInterface,
		GUID:       guid.MustParse("{D0D0D0D0-0000-0000-0000-000000000003}"),
		Flags:      TypeFlagDual | TypeFlagOleAutomation,
		VTableSize: 64,
	})
	colorRef := itf.AddRef(colors)
	fn := itf.AddFunc("Paint", FuncDesc{
		MemberID:     10,
		Invoke:       InvokeFunc,
		VTableOffset: 56,
		Return:       TD(VTHResult),
		Params: []ParamDesc{
			{Type: UD(colorRef), Flags: ParamFlagIn | ParamFlagHasDefault, Default: &Variant{VT: VTI4, I64: 2}},
		},
	}, "color")
	fn.SetParamCustom(0, CDManagedName, VarStr("shade"))

	return lib
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.tlbx")
	if err := Save(path, buildSampleLib()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	lib, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lib.Name() != "SampleLib" || lib.TypeInfoCount() != 2 {
		t.Fatalf("loaded %s with %d types, want SampleLib with 2", lib.Name(), lib.TypeInfoCount())
	}
	if lib.Attr().SysKind != SysWin64 || lib.Attr().LCID != 1033 {
		t.Fatalf("lib attr did not survive: %+v", lib.Attr())
	}
	if v, ok := lib.CustomData(CDManagedName); !ok || v.Str != "Acme.Sample.dll" {
		t.Fatalf("library custom data lost: %v/%v", v, ok)
	}

	itf, err := lib.TypeInfo(1)
	if err != nil {
		t.Fatalf("TypeInfo(1): %v", err)
	}
	attr, _ := itf.Attr()
	if attr.Kind != TKindInterface || attr.Flags&TypeFlagDual == 0 || attr.VTableSize != 64 {
		t.Fatalf("interface attr did not survive: %+v", attr)
	}
	fd, err := itf.FuncDesc(0)
	if err != nil {
		t.Fatalf("FuncDesc: %v", err)
	}
	if fd.VTableOffset != 56 || len(fd.Params) != 1 {
		t.Fatalf("func desc did not survive: %+v", fd)
	}
	if fd.Params[0].Default == nil || fd.Params[0].Default.I64 != 2 {
		t.Fatalf("param default lost: %+v", fd.Params[0])
	}
	if v, ok := itf.ParamCustomData(0, 0, CDManagedName); !ok || v.Str != "shade" {
		t.Fatalf("param custom data lost: %v/%v", v, ok)
	}

	ref, err := itf.RefTypeInfo(fd.Params[0].Type.Ref)
	if err != nil {
		t.Fatalf("RefTypeInfo: %v", err)
	}
	if ref.Name() != "Colors" {
		t.Fatalf("local ref resolved to %s, want Colors", ref.Name())
	}

	enum, _ := lib.TypeInfo(0)
	vd, err := enum.VarDesc(1)
	if err != nil {
		t.Fatalf("VarDesc: %v", err)
	}
	if vd.Kind != VarConst || vd.Value == nil || vd.Value.I64 != 2 {
		t.Fatalf("enum constant did not survive: %+v", vd)
	}
}

func TestSnapshotExternalRef(t *testing.T) {
	dir := t.TempDir()

	base := NewLibrary("BaseLib", LibAttr{
		GUID:    guid.MustParse("{E0E0E0E0-0000-0000-0000-000000000001}"),
		SysKind: SysWin32,
	})
	base.AddType("IShared", TypeAttr{
		Kind: TKindInterface,
		GUID: guid.MustParse("{E0E0E0E0-0000-0000-0000-000000000002}"),
	})
	basePath := filepath.Join(dir, "base.tlbx")
	if err := Save(basePath, base); err != nil {
		t.Fatalf("Save base: %v", err)
	}
	base.LibPath = "base.tlbx"

	user := NewLibrary("UserLib", LibAttr{
		GUID:    guid.MustParse("{E0E0E0E0-0000-0000-0000-000000000003}"),
		SysKind: SysWin32,
	})
	itf := user.AddType("IUser", TypeAttr{Kind: TKindInterface})
	shared, _ := base.TypeInfo(0)
	itf.AddImpl(itf.AddRef(shared), ImplFlagDefault)
	userPath := filepath.Join(dir, "user.tlbx")
	if err := Save(userPath, user); err != nil {
		t.Fatalf("Save user: %v", err)
	}

	loaded, err := Load(userPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ti, _ := loaded.TypeInfo(0)
	impl, _, err := ti.ImplType(0)
	if err != nil {
		t.Fatalf("ImplType: %v", err)
	}
	if impl.Name() != "IShared" || impl.Lib().Name() != "BaseLib" {
		t.Fatalf("external ref resolved to %s in %s", impl.Name(), impl.Lib().Name())
	}
}

func TestSnapshotMissingExternalBecomesBrokenRef(t *testing.T) {
	dir := t.TempDir()

	gone := NewLibrary("GoneLib", LibAttr{
		GUID:    guid.MustParse("{E0E0E0E0-0000-0000-0000-0000000000AA}"),
		SysKind: SysWin32,
	})
	gone.LibPath = "gone.tlbx"
	missing := gone.AddType("IMissing", TypeAttr{Kind: TKindInterface})

	user := NewLibrary("UserLib", LibAttr{
		GUID:    guid.MustParse("{E0E0E0E0-0000-0000-0000-0000000000BB}"),
		SysKind: SysWin32,
	})
	itf := user.AddType("IUser", TypeAttr{Kind: TKindInterface})
	ref := itf.AddRef(missing)
	userPath := filepath.Join(dir, "user.tlbx")
	if err := Save(userPath, user); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(userPath)
	if err != nil {
		t.Fatalf("Load should tolerate a missing referenced library, got %v", err)
	}
	ti, _ := loaded.TypeInfo(0)
	if _, err := ti.RefTypeInfo(ref); err == nil || !strings.Contains(err.Error(), "cannot load referenced library") {
		t.Fatalf("RefTypeInfo error = %v, want cannot-load", err)
	}
}

func TestSnapshotRejectsUnknownSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.tlbx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := msgpack.NewEncoder(f).Encode(&snapFile{Schema: "tlbx/999"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("Load error = %v, want schema mismatch", err)
	}
}

func TestSnapshotDecodesWideStrings(t *testing.T) {
	wide := func(s string) []byte {
		var b []byte
		for _, r := range s {
			b = append(b, byte(r), byte(r>>8))
		}
		return b
	}

	file := &snapFile{
		Schema: SnapshotSchema,
		Name:   "WideLib",
		Attr:   snapLibAttr{GUID: "{F0F0F0F0-0000-0000-0000-000000000001}", SysKind: uint8(SysWin32)},
		Custom: []snapCustom{{
			Key: CDManagedName.String(),
			Val: snapVariant{VT: uint16(VTBStr), W: wide("Acme.Wide.dll")},
		}},
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.tlbx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := msgpack.NewEncoder(f).Encode(file); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lib, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v, ok := lib.CustomData(CDManagedName); !ok || v.Str != "Acme.Wide.dll" {
		t.Fatalf("wide custom data = %q/%v, want Acme.Wide.dll", v.Str, ok)
	}
}
