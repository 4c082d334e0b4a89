package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"tlbimp/internal/guid"
)

// SnapshotSchema is the .imx format tag. Bump it whenever the wire
// structs change shape.
const SnapshotSchema = "imx/1"

type snapFile struct {
	Schema       string     `msgpack:"schema"`
	Name         string     `msgpack:"name"`
	Version      string     `msgpack:"version"`
	LibID        string     `msgpack:"libid"`
	TypeLibMajor uint16     `msgpack:"tlmajor"`
	TypeLibMinor uint16     `msgpack:"tlminor"`
	ImportedFrom string     `msgpack:"from"`
	Arch         string     `msgpack:"arch"`
	Primary      bool       `msgpack:"primary"`
	Attrs        []snapAttr `msgpack:"attrs"`
	Types        []snapDef  `msgpack:"types"`
}

type snapAttr struct {
	Type string   `msgpack:"type"`
	Args []string `msgpack:"args"`
}

type snapRef struct {
	Assembly string   `msgpack:"asm"`
	Name     string   `msgpack:"name"`
	Shape    uint8    `msgpack:"shape"`
	ByRef    bool     `msgpack:"byref"`
	Array    bool     `msgpack:"array"`
	Elem     *snapRef `msgpack:"elem,omitempty"`
}

type snapDef struct {
	Name      string         `msgpack:"name"`
	Attrs     uint16         `msgpack:"attrs"`
	Parent    *snapRef       `msgpack:"parent,omitempty"`
	Impls     []snapRef      `msgpack:"impls"`
	Pack      uint16         `msgpack:"pack"`
	Methods   []snapMethod   `msgpack:"methods"`
	Fields    []snapField    `msgpack:"fields"`
	Props     []snapProp     `msgpack:"props"`
	Events    []snapEvent    `msgpack:"events"`
	Overrides []snapOverride `msgpack:"overrides"`
	CAttrs    []snapAttr     `msgpack:"cattrs"`
}

type snapMethod struct {
	Name   string      `msgpack:"name"`
	Attrs  uint16      `msgpack:"attrs"`
	Impl   uint8       `msgpack:"impl"`
	Return snapParam   `msgpack:"ret"`
	Params []snapParam `msgpack:"params"`
	DispID *int32      `msgpack:"dispid,omitempty"`
	Slot   int32       `msgpack:"slot"`
	Ctor   bool        `msgpack:"ctor"`
	CAttrs []snapAttr  `msgpack:"cattrs"`
}

type snapParam struct {
	Name    string        `msgpack:"name"`
	Type    snapRef       `msgpack:"type"`
	Attrs   uint16        `msgpack:"attrs"`
	Marshal *snapMarshal  `msgpack:"marshal,omitempty"`
	Default *snapConstant `msgpack:"default,omitempty"`
	CAttrs  []snapAttr    `msgpack:"cattrs,omitempty"`
}

type snapMarshal struct {
	Kind         uint8  `msgpack:"kind"`
	SafeArrayVT  uint16 `msgpack:"savt"`
	SafeArraySub string `msgpack:"sasub"`
	ArraySize    uint32 `msgpack:"size"`
	Custom       string `msgpack:"custom"`
	Cookie       string `msgpack:"cookie"`
}

type snapConstant struct {
	Kind uint8   `msgpack:"kind"`
	Bool bool    `msgpack:"bool"`
	Int  int64   `msgpack:"int"`
	Real float64 `msgpack:"real"`
	Str  string  `msgpack:"str"`
}

type snapField struct {
	Name    string        `msgpack:"name"`
	Type    snapRef       `msgpack:"type"`
	Attrs   uint16        `msgpack:"attrs"`
	Marshal *snapMarshal  `msgpack:"marshal,omitempty"`
	Const   *snapConstant `msgpack:"const,omitempty"`
	Offset  *uint32       `msgpack:"offset,omitempty"`
	CAttrs  []snapAttr    `msgpack:"cattrs"`
}

type snapProp struct {
	Name   string     `msgpack:"name"`
	Type   snapRef    `msgpack:"type"`
	DispID *int32     `msgpack:"dispid,omitempty"`
	Getter int32      `msgpack:"getter"`
	Setter int32      `msgpack:"setter"`
	CAttrs []snapAttr `msgpack:"cattrs"`
}

type snapEvent struct {
	Name   string     `msgpack:"name"`
	Type   snapRef    `msgpack:"type"`
	DispID *int32     `msgpack:"dispid,omitempty"`
	Add    int32      `msgpack:"add"`
	Remove int32      `msgpack:"remove"`
	CAttrs []snapAttr `msgpack:"cattrs"`
}

type snapOverride struct {
	Body int32   `msgpack:"body"`
	Decl snapRef `msgpack:"decl"`
	Name string  `msgpack:"name"`
}

// Save writes the assembly model as an .imx snapshot. The write goes to a
// temp file first so a crash never leaves a torn snapshot behind.
func Save(path string, a *Assembly) error {
	file, err := asmToSnap(a)
	if err != nil {
		return err
	}
	payload, err := msgpack.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode assembly snapshot: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".imx-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Load reads an .imx snapshot back into an assembly model. Every loaded
// type comes back in the created state.
func Load(path string) (*Assembly, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assembly snapshot: %w", err)
	}
	var file snapFile
	if err := msgpack.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("decode assembly snapshot %s: %w", path, err)
	}
	if file.Schema != SnapshotSchema {
		return nil, fmt.Errorf("unsupported assembly snapshot schema %q in %s", file.Schema, path)
	}
	return snapToAsm(&file, path)
}

func asmToSnap(a *Assembly) (*snapFile, error) {
	file := &snapFile{
		Schema:       SnapshotSchema,
		Name:         a.Name,
		Version:      a.Version,
		LibID:        a.LibID.String(),
		TypeLibMajor: a.TypeLibMajor,
		TypeLibMinor: a.TypeLibMinor,
		ImportedFrom: a.ImportedFrom,
		Arch:         a.Arch,
		Primary:      a.Primary,
		Attrs:        attrsToSnap(a.CustomAttrs),
	}
	for _, t := range a.types {
		def, err := defToSnap(t)
		if err != nil {
			return nil, err
		}
		file.Types = append(file.Types, def)
	}
	return file, nil
}

func defToSnap(t *TypeDef) (snapDef, error) {
	def := snapDef{
		Name:   t.Name,
		Attrs:  uint16(t.Attrs),
		Parent: refToSnapPtr(t.Parent),
		Pack:   t.Pack,
		CAttrs: attrsToSnap(t.CustomAttrs),
	}
	for _, impl := range t.Impls {
		def.Impls = append(def.Impls, refToSnap(impl))
	}
	index := make(map[*Method]int32, len(t.Methods))
	for i, m := range t.Methods {
		mi, err := safecast.Conv[int32](i)
		if err != nil {
			return def, fmt.Errorf("method index overflow in %s: %w", t.Name, err)
		}
		index[m] = mi
		sm := snapMethod{
			Name:   m.Name,
			Attrs:  uint16(m.Attrs),
			Impl:   uint8(m.Impl),
			Return: paramToSnap(m.Return),
			DispID: m.DispID,
			Ctor:   m.Ctor,
			CAttrs: attrsToSnap(m.CustomAttrs),
		}
		slot, err := safecast.Conv[int32](m.Slot)
		if err != nil {
			return def, fmt.Errorf("slot overflow on %s.%s: %w", t.Name, m.Name, err)
		}
		sm.Slot = slot
		for _, p := range m.Params {
			sm.Params = append(sm.Params, paramToSnap(p))
		}
		def.Methods = append(def.Methods, sm)
	}
	for _, f := range t.Fields {
		def.Fields = append(def.Fields, snapField{
			Name:    f.Name,
			Type:    refToSnap(f.Type),
			Attrs:   uint16(f.Attrs),
			Marshal: marshalToSnap(f.Marshal),
			Const:   constToSnap(f.Const),
			Offset:  f.Offset,
			CAttrs:  attrsToSnap(f.CustomAttrs),
		})
	}
	for _, p := range t.Props {
		def.Props = append(def.Props, snapProp{
			Name:   p.Name,
			Type:   refToSnap(p.Type),
			DispID: p.DispID,
			Getter: methodIndex(index, p.Getter),
			Setter: methodIndex(index, p.Setter),
			CAttrs: attrsToSnap(p.CustomAttrs),
		})
	}
	for _, e := range t.Events {
		def.Events = append(def.Events, snapEvent{
			Name:   e.Name,
			Type:   refToSnap(e.Type),
			DispID: e.DispID,
			Add:    methodIndex(index, e.Add),
			Remove: methodIndex(index, e.Remove),
			CAttrs: attrsToSnap(e.CustomAttrs),
		})
	}
	for _, o := range t.Overrides {
		body, ok := index[o.Body]
		if !ok {
			return def, fmt.Errorf("override body %s not among methods of %s", o.Name, t.Name)
		}
		def.Overrides = append(def.Overrides, snapOverride{
			Body: body,
			Decl: refToSnap(o.Decl),
			Name: o.Name,
		})
	}
	return def, nil
}

func methodIndex(index map[*Method]int32, m *Method) int32 {
	if m == nil {
		return -1
	}
	if i, ok := index[m]; ok {
		return i
	}
	return -1
}

func attrsToSnap(attrs []CustomAttr) []snapAttr {
	out := make([]snapAttr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, snapAttr{Type: a.Type, Args: a.Args})
	}
	return out
}

func snapToAttrs(attrs []snapAttr) []CustomAttr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]CustomAttr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, CustomAttr{Type: a.Type, Args: a.Args})
	}
	return out
}

func refToSnap(t Type) snapRef {
	r := snapRef{
		Assembly: t.Assembly,
		Name:     t.Name,
		Shape:    uint8(t.Shape),
		ByRef:    t.ByRef,
		Array:    t.Array,
	}
	if t.Elem != nil {
		elem := refToSnap(*t.Elem)
		r.Elem = &elem
	}
	return r
}

func refToSnapPtr(t *Type) *snapRef {
	if t == nil {
		return nil
	}
	r := refToSnap(*t)
	return &r
}

func snapToRef(r snapRef) Type {
	t := Type{
		Assembly: r.Assembly,
		Name:     r.Name,
		Shape:    Shape(r.Shape),
		ByRef:    r.ByRef,
		Array:    r.Array,
	}
	if r.Elem != nil {
		elem := snapToRef(*r.Elem)
		t.Elem = &elem
	}
	return t
}

func snapToRefPtr(r *snapRef) *Type {
	if r == nil {
		return nil
	}
	t := snapToRef(*r)
	return &t
}

func paramToSnap(p Param) snapParam {
	return snapParam{
		Name:    p.Name,
		Type:    refToSnap(p.Type),
		Attrs:   uint16(p.Attrs),
		Marshal: marshalToSnap(p.Marshal),
		Default: constToSnap(p.Default),
		CAttrs:  attrsToSnap(p.CustomAttrs),
	}
}

func snapToParam(p snapParam) Param {
	return Param{
		Name:        p.Name,
		Type:        snapToRef(p.Type),
		Attrs:       ParamAttrs(p.Attrs),
		Marshal:     snapToMarshal(p.Marshal),
		Default:     snapToConst(p.Default),
		CustomAttrs: snapToAttrs(p.CAttrs),
	}
}

func marshalToSnap(m *MarshalInfo) *snapMarshal {
	if m == nil {
		return nil
	}
	return &snapMarshal{
		Kind:         uint8(m.Kind),
		SafeArrayVT:  m.SafeArrayVT,
		SafeArraySub: m.SafeArraySub,
		ArraySize:    m.ArraySize,
		Custom:       m.Custom,
		Cookie:       m.Cookie,
	}
}

func snapToMarshal(m *snapMarshal) *MarshalInfo {
	if m == nil {
		return nil
	}
	return &MarshalInfo{
		Kind:         UnmanagedType(m.Kind),
		SafeArrayVT:  m.SafeArrayVT,
		SafeArraySub: m.SafeArraySub,
		ArraySize:    m.ArraySize,
		Custom:       m.Custom,
		Cookie:       m.Cookie,
	}
}

func constToSnap(c *Constant) *snapConstant {
	if c == nil {
		return nil
	}
	return &snapConstant{
		Kind: uint8(c.Kind),
		Bool: c.Bool,
		Int:  c.Int,
		Real: c.Real,
		Str:  c.Str,
	}
}

func snapToConst(c *snapConstant) *Constant {
	if c == nil {
		return nil
	}
	return &Constant{
		Kind: ConstKind(c.Kind),
		Bool: c.Bool,
		Int:  c.Int,
		Real: c.Real,
		Str:  c.Str,
	}
}

func snapToAsm(file *snapFile, path string) (*Assembly, error) {
	libID, err := guid.Parse(file.LibID)
	if err != nil {
		return nil, fmt.Errorf("bad libid in %s: %w", path, err)
	}
	a := NewAssembly(file.Name, file.Version)
	a.LibID = libID
	a.TypeLibMajor = file.TypeLibMajor
	a.TypeLibMinor = file.TypeLibMinor
	a.ImportedFrom = file.ImportedFrom
	a.Arch = file.Arch
	a.Primary = file.Primary
	a.CustomAttrs = snapToAttrs(file.Attrs)
	for _, def := range file.Types {
		t, err := snapToDef(a, def)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", path, err)
		}
		t.state = StateCreated
	}
	return a, nil
}

func snapToDef(a *Assembly, def snapDef) (*TypeDef, error) {
	var impls []Type
	for _, impl := range def.Impls {
		impls = append(impls, snapToRef(impl))
	}
	t, err := a.DefineType(def.Name, TypeAttrs(def.Attrs), snapToRefPtr(def.Parent), impls)
	if err != nil {
		return nil, err
	}
	t.Pack = def.Pack
	t.CustomAttrs = snapToAttrs(def.CAttrs)
	for _, sm := range def.Methods {
		m := &Method{
			Name:   sm.Name,
			Attrs:  MethodAttrs(sm.Attrs),
			Impl:   MethodImpl(sm.Impl),
			Return: snapToParam(sm.Return),
			DispID: sm.DispID,
			Slot:   int(sm.Slot),
			Ctor:   sm.Ctor,
		}
		m.CustomAttrs = snapToAttrs(sm.CAttrs)
		for _, p := range sm.Params {
			m.Params = append(m.Params, snapToParam(p))
		}
		t.Methods = append(t.Methods, m)
	}
	for _, sf := range def.Fields {
		t.Fields = append(t.Fields, &Field{
			Name:        sf.Name,
			Type:        snapToRef(sf.Type),
			Attrs:       FieldAttrs(sf.Attrs),
			Marshal:     snapToMarshal(sf.Marshal),
			Const:       snapToConst(sf.Const),
			Offset:      sf.Offset,
			CustomAttrs: snapToAttrs(sf.CAttrs),
		})
	}
	for _, sp := range def.Props {
		t.Props = append(t.Props, &Property{
			Name:        sp.Name,
			Type:        snapToRef(sp.Type),
			DispID:      sp.DispID,
			Getter:      methodAt(t, sp.Getter),
			Setter:      methodAt(t, sp.Setter),
			CustomAttrs: snapToAttrs(sp.CAttrs),
		})
	}
	for _, se := range def.Events {
		t.Events = append(t.Events, &Event{
			Name:        se.Name,
			Type:        snapToRef(se.Type),
			DispID:      se.DispID,
			Add:         methodAt(t, se.Add),
			Remove:      methodAt(t, se.Remove),
			CustomAttrs: snapToAttrs(se.CAttrs),
		})
	}
	for _, so := range def.Overrides {
		body := methodAt(t, so.Body)
		if body == nil {
			return nil, fmt.Errorf("override body index %d out of range in %s", so.Body, t.Name)
		}
		t.Overrides = append(t.Overrides, Override{
			Body: body,
			Decl: snapToRef(so.Decl),
			Name: so.Name,
		})
	}
	return t, nil
}

func methodAt(t *TypeDef, i int32) *Method {
	if i < 0 || int(i) >= len(t.Methods) {
		return nil
	}
	return t.Methods[i]
}
