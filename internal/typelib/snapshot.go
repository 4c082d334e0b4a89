package typelib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/encoding/unicode"

	"tlbimp/internal/guid"
)

// SnapshotSchema names the .tlbx wire format. Bump when the payload
// structs change shape.
const SnapshotSchema = "tlbx/1"

// .tlbx payload structs. GUIDs travel as registry-format strings so the
// files stay inspectable with generic msgpack tooling. String payloads
// captured from BSTR storage may arrive as raw little-endian UTF-16 in W
// instead of UTF-8 in S.

type snapFile struct {
	Schema string
	Name   string
	Attr   snapLibAttr
	Custom []snapCustom
	Types  []snapType
}

type snapLibAttr struct {
	GUID    string
	Major   uint16
	Minor   uint16
	LCID    uint32
	SysKind uint8
	Flags   uint16
}

type snapType struct {
	Name   string
	Attr   snapTypeAttr
	Funcs  []snapFunc
	Vars   []snapVar
	Impls  []snapImpl
	Refs   []snapRef
	Custom []snapCustom
}

type snapTypeAttr struct {
	GUID         string
	Kind         uint8
	Flags        uint16
	VTableSize   uint32
	InstanceSize uint32
	Alignment    uint16
	Alias        *snapTypeDesc
}

type snapTypeDesc struct {
	VT   uint16
	Elem *snapTypeDesc
	Ref  uint32
	Dims []snapBound
}

type snapBound struct {
	Count  uint32
	LBound int32
}

type snapVariant struct {
	VT   uint16
	Bool bool
	I64  int64
	U64  uint64
	F64  float64
	S    string
	W    []byte
}

type snapCustom struct {
	Key string
	Val snapVariant
}

type snapFunc struct {
	Name       string
	ParamNames []string
	MemberID   int32
	Invoke     uint16
	Flags      uint16
	VTableOff  int32
	OptParams  int32
	Return     snapParam
	Params     []snapParam
	Custom     []snapCustom
	ParamCust  [][]snapCustom
}

type snapParam struct {
	Type    snapTypeDesc
	Flags   uint16
	Default *snapVariant
}

type snapVar struct {
	Name     string
	MemberID int32
	Kind     uint8
	Flags    uint16
	Type     snapTypeDesc
	Value    *snapVariant
	Custom   []snapCustom
}

type snapImpl struct {
	Ref   uint32
	Flags uint16
}

// snapRef is one referenced type: Local indexes this file's Types when
// >= 0, otherwise Lib/Type point into another snapshot.
type snapRef struct {
	Local int32
	Lib   string
	Type  string
}

// Save writes the library as a .tlbx snapshot, replacing path atomically.
func Save(path string, lib *Library) error {
	f, err := libToSnap(lib)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "tlbx-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc := msgpack.NewEncoder(tmp)
	if err := enc.Encode(f); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Loader reads .tlbx snapshots, following external references to other
// snapshot files. Each file loads once; reference cycles between
// libraries resolve against the partially wired cache entry.
type Loader struct {
	cache map[string]*Library
}

// NewLoader returns an empty loader.
func NewLoader() *Loader {
	return &Loader{cache: make(map[string]*Library)}
}

// Load reads one snapshot with a fresh loader.
func Load(path string) (*Library, error) {
	return NewLoader().Load(path)
}

// Load reads the snapshot at path, reusing already loaded libraries for
// external references.
func (l *Loader) Load(path string) (*Library, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	if lib, ok := l.cache[key]; ok {
		return lib, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var file snapFile
	if err := msgpack.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("typelib: decode %s: %w", path, err)
	}
	if file.Schema != SnapshotSchema {
		return nil, fmt.Errorf("typelib: %s: unsupported snapshot schema %q (want %q)", path, file.Schema, SnapshotSchema)
	}

	lib, err := snapToLib(&file, key)
	if err != nil {
		return nil, fmt.Errorf("typelib: %s: %w", path, err)
	}
	// Cache before wiring refs so cyclic references find this library.
	l.cache[key] = lib

	dir := filepath.Dir(key)
	for i, st := range file.Types {
		e := lib.Entries[i]
		for _, r := range st.Refs {
			switch {
			case r.Local >= 0:
				if int(r.Local) >= len(lib.Entries) {
					return nil, fmt.Errorf("typelib: %s: type %s references out-of-range local index %d", path, e.EntryName, r.Local)
				}
				e.AddRef(lib.Entries[r.Local])
			default:
				e.addExternalRef(l, dir, r.Lib, r.Type)
			}
		}
	}
	return lib, nil
}

// addExternalRef resolves a cross-library reference. Failures become
// broken refs so the importer can report them at the use site instead of
// refusing the whole snapshot.
func (e *Entry) addExternalRef(l *Loader, dir, libPath, typeName string) {
	p := libPath
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	ext, err := l.Load(p)
	if err != nil {
		e.AddBrokenRef(fmt.Errorf("cannot load referenced library %s: %w", libPath, err))
		return
	}
	for _, t := range ext.Entries {
		if t.EntryName == typeName {
			e.AddRef(t)
			return
		}
	}
	e.AddBrokenRef(fmt.Errorf("referenced library %s has no type %s", libPath, typeName))
}

func libToSnap(lib *Library) (*snapFile, error) {
	f := &snapFile{
		Schema: SnapshotSchema,
		Name:   lib.LibName,
		Attr: snapLibAttr{
			GUID:    lib.LibA.GUID.String(),
			Major:   lib.LibA.Major,
			Minor:   lib.LibA.Minor,
			LCID:    lib.LibA.LCID,
			SysKind: uint8(lib.LibA.SysKind),
			Flags:   uint16(lib.LibA.Flags),
		},
		Custom: customToSnap(lib.Custom),
	}
	index := make(map[*Entry]int32, len(lib.Entries))
	for i, e := range lib.Entries {
		idx, err := safecast.Conv[int32](i)
		if err != nil {
			return nil, err
		}
		index[e] = idx
	}
	for _, e := range lib.Entries {
		st, err := entryToSnap(e, index)
		if err != nil {
			return nil, err
		}
		f.Types = append(f.Types, st)
	}
	return f, nil
}

func entryToSnap(e *Entry, index map[*Entry]int32) (snapType, error) {
	st := snapType{
		Name: e.EntryName,
		Attr: snapTypeAttr{
			GUID:         e.TypeA.GUID.String(),
			Kind:         uint8(e.TypeA.Kind),
			Flags:        uint16(e.TypeA.Flags),
			VTableSize:   e.TypeA.VTableSize,
			InstanceSize: e.TypeA.InstanceSize,
			Alignment:    e.TypeA.Alignment,
			Alias:        descToSnap(e.TypeA.Alias),
		},
		Custom: customToSnap(e.Custom),
	}
	for _, fn := range e.Funcs {
		vtOff, err := safecast.Conv[int32](fn.Desc.VTableOffset)
		if err != nil {
			return snapType{}, fmt.Errorf("func %s: vtable offset: %w", fn.Name, err)
		}
		opt, err := safecast.Conv[int32](fn.Desc.OptParams)
		if err != nil {
			return snapType{}, fmt.Errorf("func %s: opt params: %w", fn.Name, err)
		}
		sf := snapFunc{
			Name:       fn.Name,
			ParamNames: fn.ParamNames,
			MemberID:   int32(fn.Desc.MemberID),
			Invoke:     uint16(fn.Desc.Invoke),
			Flags:      uint16(fn.Desc.Flags),
			VTableOff:  vtOff,
			OptParams:  opt,
			Return:     snapParam{Type: *descToSnap(&fn.Desc.Return)},
			Custom:     customToSnap(fn.Custom),
		}
		for _, p := range fn.Desc.Params {
			sf.Params = append(sf.Params, snapParam{
				Type:    *descToSnap(&p.Type),
				Flags:   uint16(p.Flags),
				Default: variantToSnap(p.Default),
			})
		}
		for _, pc := range fn.ParamCust {
			sf.ParamCust = append(sf.ParamCust, customToSnap(pc))
		}
		st.Funcs = append(st.Funcs, sf)
	}
	for _, v := range e.Vars {
		st.Vars = append(st.Vars, snapVar{
			Name:     v.Name,
			MemberID: int32(v.Desc.MemberID),
			Kind:     uint8(v.Desc.Kind),
			Flags:    uint16(v.Desc.Flags),
			Type:     *descToSnap(&v.Desc.Type),
			Value:    variantToSnap(v.Desc.Value),
			Custom:   customToSnap(v.Custom),
		})
	}
	for _, im := range e.Impls {
		st.Impls = append(st.Impls, snapImpl{Ref: uint32(im.Ref), Flags: uint16(im.Flags)})
	}
	for _, slot := range e.refs {
		sr, err := refToSnap(e, slot, index)
		if err != nil {
			return snapType{}, err
		}
		st.Refs = append(st.Refs, sr)
	}
	return st, nil
}

func refToSnap(e *Entry, slot refSlot, index map[*Entry]int32) (snapRef, error) {
	if slot.err != nil {
		return snapRef{}, fmt.Errorf("type %s: cannot snapshot broken reference: %w", e.EntryName, slot.err)
	}
	if target, ok := slot.ti.(*Entry); ok {
		if idx, local := index[target]; local {
			return snapRef{Local: idx}, nil
		}
		libPath := target.lib.LibPath
		if libPath == "" {
			libPath = target.lib.LibName + ".tlbx"
		}
		return snapRef{Local: -1, Lib: libPath, Type: target.EntryName}, nil
	}
	libPath := slot.ti.Lib().Path()
	if libPath == "" {
		libPath = slot.ti.Lib().Name() + ".tlbx"
	}
	return snapRef{Local: -1, Lib: libPath, Type: slot.ti.Name()}, nil
}

func snapToLib(f *snapFile, path string) (*Library, error) {
	libGUID, err := guid.Parse(f.Attr.GUID)
	if err != nil {
		return nil, fmt.Errorf("library guid: %w", err)
	}
	lib := &Library{
		LibName: f.Name,
		LibPath: path,
		LibA: LibAttr{
			GUID:    libGUID,
			Major:   f.Attr.Major,
			Minor:   f.Attr.Minor,
			LCID:    f.Attr.LCID,
			SysKind: SysKind(f.Attr.SysKind),
			Flags:   LibFlags(f.Attr.Flags),
		},
	}
	if lib.Custom, err = snapToCustom(f.Custom); err != nil {
		return nil, err
	}
	for _, st := range f.Types {
		e, err := snapToEntry(lib, st)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", st.Name, err)
		}
		lib.Entries = append(lib.Entries, e)
	}
	return lib, nil
}

func snapToEntry(lib *Library, st snapType) (*Entry, error) {
	tGUID, err := guid.Parse(st.Attr.GUID)
	if err != nil {
		return nil, fmt.Errorf("guid: %w", err)
	}
	e := &Entry{
		lib:       lib,
		EntryName: st.Name,
		TypeA: TypeAttr{
			GUID:         tGUID,
			Kind:         TypeKind(st.Attr.Kind),
			Flags:        TypeFlags(st.Attr.Flags),
			VTableSize:   st.Attr.VTableSize,
			InstanceSize: st.Attr.InstanceSize,
			Alignment:    st.Attr.Alignment,
			Alias:        snapToDesc(st.Attr.Alias),
		},
	}
	if e.Custom, err = snapToCustom(st.Custom); err != nil {
		return nil, err
	}
	for _, sf := range st.Funcs {
		fe := FuncEntry{
			Name:       sf.Name,
			ParamNames: sf.ParamNames,
			Desc: FuncDesc{
				MemberID:     MemberID(sf.MemberID),
				Invoke:       InvokeKind(sf.Invoke),
				Flags:        FuncFlags(sf.Flags),
				VTableOffset: int(sf.VTableOff),
				OptParams:    int(sf.OptParams),
				Return:       *snapToDesc(&sf.Return.Type),
			},
		}
		for _, sp := range sf.Params {
			dflt, err := snapToVariant(sp.Default)
			if err != nil {
				return nil, fmt.Errorf("func %s: %w", sf.Name, err)
			}
			fe.Desc.Params = append(fe.Desc.Params, ParamDesc{
				Type:    *snapToDesc(&sp.Type),
				Flags:   ParamFlags(sp.Flags),
				Default: dflt,
			})
		}
		if fe.Custom, err = snapToCustom(sf.Custom); err != nil {
			return nil, fmt.Errorf("func %s: %w", sf.Name, err)
		}
		fe.ParamCust = make([][]CustomItem, len(fe.Desc.Params))
		for i, pc := range sf.ParamCust {
			if i >= len(fe.ParamCust) {
				break
			}
			if fe.ParamCust[i], err = snapToCustom(pc); err != nil {
				return nil, fmt.Errorf("func %s: %w", sf.Name, err)
			}
		}
		e.Funcs = append(e.Funcs, fe)
	}
	for _, sv := range st.Vars {
		val, err := snapToVariant(sv.Value)
		if err != nil {
			return nil, fmt.Errorf("var %s: %w", sv.Name, err)
		}
		ve := VarEntry{
			Name: sv.Name,
			Desc: VarDesc{
				MemberID: MemberID(sv.MemberID),
				Kind:     VarKind(sv.Kind),
				Flags:    VarFlags(sv.Flags),
				Type:     *snapToDesc(&sv.Type),
				Value:    val,
			},
		}
		if ve.Custom, err = snapToCustom(sv.Custom); err != nil {
			return nil, fmt.Errorf("var %s: %w", sv.Name, err)
		}
		e.Vars = append(e.Vars, ve)
	}
	for _, im := range st.Impls {
		e.Impls = append(e.Impls, ImplEntry{Ref: RefID(im.Ref), Flags: ImplTypeFlags(im.Flags)})
	}
	return e, nil
}

func descToSnap(d *TypeDesc) *snapTypeDesc {
	if d == nil {
		return nil
	}
	s := &snapTypeDesc{
		VT:   uint16(d.VT),
		Elem: descToSnap(d.Elem),
		Ref:  uint32(d.Ref),
	}
	for _, b := range d.Dims {
		s.Dims = append(s.Dims, snapBound{Count: b.Count, LBound: b.LBound})
	}
	return s
}

func snapToDesc(s *snapTypeDesc) *TypeDesc {
	if s == nil {
		return nil
	}
	d := &TypeDesc{
		VT:   VarType(s.VT),
		Elem: snapToDesc(s.Elem),
		Ref:  RefID(s.Ref),
	}
	for _, b := range s.Dims {
		d.Dims = append(d.Dims, Bound{Count: b.Count, LBound: b.LBound})
	}
	return d
}

func variantToSnap(v *Variant) *snapVariant {
	if v == nil {
		return nil
	}
	return &snapVariant{
		VT:   uint16(v.VT),
		Bool: v.Bool,
		I64:  v.I64,
		U64:  v.U64,
		F64:  v.F64,
		S:    v.Str,
	}
}

func snapToVariant(s *snapVariant) (*Variant, error) {
	if s == nil {
		return nil, nil
	}
	str := s.S
	if str == "" && len(s.W) > 0 {
		var err error
		if str, err = decodeWide(s.W); err != nil {
			return nil, fmt.Errorf("wide string payload: %w", err)
		}
	}
	return &Variant{
		VT:   VarType(s.VT),
		Bool: s.Bool,
		I64:  s.I64,
		U64:  s.U64,
		F64:  s.F64,
		Str:  str,
	}, nil
}

func customToSnap(items []CustomItem) []snapCustom {
	var out []snapCustom
	for _, it := range items {
		out = append(out, snapCustom{Key: it.Key.String(), Val: *variantToSnap(&it.Value)})
	}
	return out
}

func snapToCustom(items []snapCustom) ([]CustomItem, error) {
	var out []CustomItem
	for _, it := range items {
		key, err := guid.Parse(it.Key)
		if err != nil {
			return nil, fmt.Errorf("custom data key: %w", err)
		}
		v, err := snapToVariant(&it.Val)
		if err != nil {
			return nil, err
		}
		out = append(out, CustomItem{Key: key, Value: *v})
	}
	return out, nil
}

// decodeWide converts a raw little-endian UTF-16 payload to a Go string.
func decodeWide(w []byte) (string, error) {
	if len(w)%2 != 0 {
		return "", errors.New("odd-length utf-16 payload")
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(w)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
