package fuzztests

import (
	"os"
	"path/filepath"
	"testing"

	"tlbimp/internal/metadata"
	"tlbimp/internal/typelib"
)

const maxFuzzInput = 1 << 16 // 64 KiB

// FuzzLibrarySnapshot feeds arbitrary bytes to the .tlbx decoder. A loaded
// library may hold broken references, which Save refuses to encode, so the
// harness walks every accessor instead of round-tripping.
func FuzzLibrarySnapshot(f *testing.F) {
	addSnapshotSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = append([]byte(nil), input[:maxFuzzInput]...)
		} else {
			input = append([]byte(nil), input...)
		}

		path := filepath.Join(t.TempDir(), "input.tlbx")
		if err := os.WriteFile(path, input, 0o600); err != nil {
			t.Fatalf("write input: %v", err)
		}

		lib, err := typelib.Load(path)
		if err != nil {
			// rejected input is fine, panics are not
			return
		}
		walkLibrary(lib)
	})
}

// walkLibrary touches every reader accessor of a loaded library. Errors are
// expected on hostile input; the walk only has to come back.
func walkLibrary(lib typelib.TypeLibrary) {
	_ = lib.Name()
	_ = lib.Attr()
	for i := 0; i < lib.TypeInfoCount(); i++ {
		ti, err := lib.TypeInfo(i)
		if err != nil {
			continue
		}
		_ = ti.Name()
		attr, err := ti.Attr()
		if err != nil {
			continue
		}
		walkDesc(ti, attr.Alias)
		for fi := 0; fi < attr.Funcs; fi++ {
			fd, err := ti.FuncDesc(fi)
			if err != nil {
				continue
			}
			_ = ti.Names(fd.MemberID, 0)
			ret := fd.Return
			walkDesc(ti, &ret)
			for pi := range fd.Params {
				walkDesc(ti, &fd.Params[pi].Type)
			}
		}
		for vi := 0; vi < attr.Vars; vi++ {
			vd, err := ti.VarDesc(vi)
			if err != nil {
				continue
			}
			_ = ti.Names(vd.MemberID, 0)
			vt := vd.Type
			walkDesc(ti, &vt)
		}
		for ii := 0; ii < attr.Impls; ii++ {
			_, _, _ = ti.ImplType(ii)
		}
	}
}

func walkDesc(ti typelib.TypeInfo, d *typelib.TypeDesc) {
	for d != nil {
		if d.VT == typelib.VTUserDefined {
			_, _ = ti.RefTypeInfo(d.Ref)
		}
		d = d.Elem
	}
}

// FuzzAssemblySnapshot does the same for the .imx decoder. Assembly
// references are self-contained, so anything the decoder accepts must also
// survive a save/load round trip.
func FuzzAssemblySnapshot(f *testing.F) {
	addSnapshotSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = append([]byte(nil), input[:maxFuzzInput]...)
		} else {
			input = append([]byte(nil), input...)
		}

		dir := t.TempDir()
		path := filepath.Join(dir, "input.imx")
		if err := os.WriteFile(path, input, 0o600); err != nil {
			t.Fatalf("write input: %v", err)
		}

		asm, err := metadata.Load(path)
		if err != nil {
			return
		}

		again := filepath.Join(dir, "again.imx")
		if err := metadata.Save(again, asm); err != nil {
			t.Fatalf("re-save accepted assembly: %v", err)
		}
		if _, err := metadata.Load(again); err != nil {
			t.Fatalf("re-load saved assembly: %v", err)
		}
	})
}
