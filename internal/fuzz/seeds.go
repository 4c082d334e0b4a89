package fuzztests

import (
	"os"
	"path/filepath"
	"testing"

	"tlbimp/internal/guid"
	"tlbimp/internal/metadata"
	"tlbimp/internal/typelib"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB cap for the seed corpus
)

func addSnapshotSeeds(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte("not a snapshot"))
	// msgpack headers with nothing behind them
	f.Add([]byte{0x91})
	f.Add([]byte{0x81, 0xa4})

	if seed := librarySeed(f); seed != nil {
		f.Add(seed)
		// a truncated snapshot exercises the mid-stream error paths
		f.Add(clampSeed(seed[:len(seed)/2]))
	}
	if seed := assemblySeed(f); seed != nil {
		f.Add(seed)
		f.Add(clampSeed(seed[:len(seed)/2]))
	}
}

// librarySeed saves a small in-memory library and returns its snapshot bytes.
func librarySeed(f *testing.F) []byte {
	lib := typelib.NewLibrary("FuzzLib", typelib.LibAttr{Major: 1, SysKind: typelib.SysWin32})
	iface := lib.AddType("IFuzz", typelib.TypeAttr{
		GUID:  guid.MustParse("{FEED0001-0000-0000-C000-000000000046}"),
		Kind:  typelib.TKindInterface,
		Flags: typelib.TypeFlagDual,
	})
	iface.AddFunc("Poke", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
		Params: []typelib.ParamDesc{{Type: typelib.TD(typelib.VTI4), Flags: typelib.ParamFlagIn}},
		Return: typelib.TD(typelib.VTHResult),
	}, "level")
	hues := lib.AddType("Hue", typelib.TypeAttr{Kind: typelib.TKindEnum})
	red := typelib.VarI4(1)
	hues.AddVar("Red", typelib.VarDesc{Kind: typelib.VarConst, Type: typelib.TD(typelib.VTI4), Value: &red})

	path := filepath.Join(f.TempDir(), "seed.tlbx")
	if err := typelib.Save(path, lib); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return clampSeed(data)
}

// assemblySeed does the same for an assembly snapshot.
func assemblySeed(f *testing.F) []byte {
	a := metadata.NewAssembly("FuzzLib", "1.0.0.0")
	a.LibID = guid.MustParse("{FEED0002-0000-0000-C000-000000000046}")
	iface, err := a.DefineType("FuzzLib.IFuzz",
		metadata.TypePublic|metadata.TypeInterface|metadata.TypeAbstract|metadata.TypeImport, nil, nil)
	if err != nil {
		return nil
	}
	_, err = iface.DefineMethod("Poke",
		metadata.MethodPublic|metadata.MethodVirtual|metadata.MethodAbstract|metadata.MethodNewSlot,
		metadata.ImplPreserveSig,
		metadata.Param{Type: metadata.Int32},
		[]metadata.Param{{Name: "level", Type: metadata.Int32, Attrs: metadata.ParamIn}})
	if err != nil {
		return nil
	}
	if err := iface.Create(); err != nil {
		return nil
	}

	path := filepath.Join(f.TempDir(), "seed.imx")
	if err := metadata.Save(path, a); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return clampSeed(data)
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
