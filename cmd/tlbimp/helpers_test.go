package main

import (
	"testing"

	"tlbimp/internal/convert"
	"tlbimp/internal/typelib"
)

func TestKindBreakdown(t *testing.T) {
	lib := typelib.NewLibrary("L", typelib.LibAttr{})
	lib.AddType("IFoo", typelib.TypeAttr{Kind: typelib.TKindInterface})
	lib.AddType("IBar", typelib.TypeAttr{Kind: typelib.TKindInterface})
	lib.AddType("Colors", typelib.TypeAttr{Kind: typelib.TKindEnum})
	if got, want := kindBreakdown(lib), "2 interface, 1 enum"; got != want {
		t.Fatalf("kindBreakdown = %q, want %q", got, want)
	}
	if got := kindBreakdown(typelib.NewLibrary("E", typelib.LibAttr{})); got != "empty" {
		t.Fatalf("empty breakdown = %q", got)
	}
}

func TestKnownKindName(t *testing.T) {
	for _, name := range []string{"interface", "dispinterface", "coclass", "enum", "record", "union", "alias", "module"} {
		if !knownKindName(name) {
			t.Errorf("knownKindName(%q) = false", name)
		}
	}
	if knownKindName("leaflet") {
		t.Error("knownKindName accepted junk")
	}
}

func TestApplyImportFlags(t *testing.T) {
	opts := convert.Options{Namespace: "FromManifest", StrictRef: true}
	for flag, value := range map[string]string{
		"name":          "Acme.Interop",
		"asmversion":    "2.1",
		"arch":          "x64",
		"legacy-quirks": "true",
	} {
		if err := importCmd.Flags().Set(flag, value); err != nil {
			t.Fatalf("set %s: %v", flag, err)
		}
	}
	if err := applyImportFlags(importCmd, &opts); err != nil {
		t.Fatalf("applyImportFlags: %v", err)
	}
	if opts.AssemblyName != "Acme.Interop" || opts.AssemblyVersion != "2.1" || !opts.LegacyQuirks {
		t.Fatalf("flags not applied: %+v", opts)
	}
	if opts.TargetArch != convert.ArchX64 {
		t.Fatalf("arch = %v, want x64", opts.TargetArch)
	}
	// flags never set keep their manifest values
	if opts.Namespace != "FromManifest" || !opts.StrictRef {
		t.Fatalf("unset flags clobbered manifest settings: %+v", opts)
	}
}
