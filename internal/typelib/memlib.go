package typelib

import (
	"fmt"

	"tlbimp/internal/guid"
)

// CustomItem is one custom data entry.
type CustomItem struct {
	Key   guid.GUID
	Value Variant
}

func findCustom(items []CustomItem, key guid.GUID) (Variant, bool) {
	for _, it := range items {
		if it.Key == key {
			return it.Value, true
		}
	}
	return Variant{}, false
}

// Library is the in-memory TypeLibrary behind .tlbx snapshots and tests.
type Library struct {
	LibName string
	LibPath string
	LibA    LibAttr
	Custom  []CustomItem
	Entries []*Entry
}

// NewLibrary builds an empty library.
func NewLibrary(name string, attr LibAttr) *Library {
	return &Library{LibName: name, LibA: attr}
}

func (l *Library) Name() string       { return l.LibName }
func (l *Library) Path() string       { return l.LibPath }
func (l *Library) Attr() LibAttr      { return l.LibA }
func (l *Library) TypeInfoCount() int { return len(l.Entries) }

func (l *Library) TypeInfo(i int) (TypeInfo, error) {
	if i < 0 || i >= len(l.Entries) {
		return nil, fmt.Errorf("typelib: type index %d out of range in %s", i, l.LibName)
	}
	return l.Entries[i], nil
}

func (l *Library) CustomData(key guid.GUID) (Variant, bool) {
	return findCustom(l.Custom, key)
}

// SetCustom attaches library-level custom data.
func (l *Library) SetCustom(key guid.GUID, v Variant) *Library {
	l.Custom = append(l.Custom, CustomItem{Key: key, Value: v})
	return l
}

// AddType appends a top-level type and returns its entry.
func (l *Library) AddType(name string, attr TypeAttr) *Entry {
	e := &Entry{lib: l, EntryName: name, TypeA: attr}
	l.Entries = append(l.Entries, e)
	return e
}

// refSlot lets tests model GetRefTypeInfo failures per reference.
type refSlot struct {
	ti  TypeInfo
	err error
}

// Entry is the in-memory TypeInfo.
type Entry struct {
	lib       *Library
	EntryName string
	TypeA     TypeAttr
	Funcs     []FuncEntry
	Vars      []VarEntry
	Impls     []ImplEntry
	Custom    []CustomItem
	refs      []refSlot
}

// FuncEntry pairs a descriptor with its names and custom data.
type FuncEntry struct {
	Name       string
	ParamNames []string
	Desc       FuncDesc
	Custom     []CustomItem
	ParamCust  [][]CustomItem
}

// VarEntry pairs a variable descriptor with its name and custom data.
type VarEntry struct {
	Name   string
	Desc   VarDesc
	Custom []CustomItem
}

// ImplEntry records one implemented type reference.
type ImplEntry struct {
	Ref   RefID
	Flags ImplTypeFlags
}

func (e *Entry) Lib() TypeLibrary { return e.lib }
func (e *Entry) Name() string     { return e.EntryName }

func (e *Entry) Attr() (TypeAttr, error) {
	a := e.TypeA
	a.Funcs = len(e.Funcs)
	a.Vars = len(e.Vars)
	a.Impls = len(e.Impls)
	return a, nil
}

func (e *Entry) FuncDesc(i int) (FuncDesc, error) {
	if i < 0 || i >= len(e.Funcs) {
		return FuncDesc{}, fmt.Errorf("typelib: func index %d out of range in %s", i, e.EntryName)
	}
	return e.Funcs[i].Desc, nil
}

func (e *Entry) VarDesc(i int) (VarDesc, error) {
	if i < 0 || i >= len(e.Vars) {
		return VarDesc{}, fmt.Errorf("typelib: var index %d out of range in %s", i, e.EntryName)
	}
	return e.Vars[i].Desc, nil
}

func (e *Entry) ImplType(i int) (TypeInfo, ImplTypeFlags, error) {
	if i < 0 || i >= len(e.Impls) {
		return nil, 0, fmt.Errorf("typelib: impl index %d out of range in %s", i, e.EntryName)
	}
	impl := e.Impls[i]
	ti, err := e.RefTypeInfo(impl.Ref)
	if err != nil {
		return nil, 0, err
	}
	return ti, impl.Flags, nil
}

func (e *Entry) RefTypeInfo(ref RefID) (TypeInfo, error) {
	if int(ref) >= len(e.refs) {
		return nil, fmt.Errorf("typelib: ref %d out of range in %s", ref, e.EntryName)
	}
	slot := e.refs[ref]
	if slot.err != nil {
		return nil, slot.err
	}
	return slot.ti, nil
}

func (e *Entry) Names(memid MemberID, max int) []string {
	for _, f := range e.Funcs {
		if f.Desc.MemberID != memid {
			continue
		}
		out := append([]string{f.Name}, f.ParamNames...)
		if max > 0 && len(out) > max {
			out = out[:max]
		}
		return out
	}
	for _, v := range e.Vars {
		if v.Desc.MemberID == memid {
			return []string{v.Name}
		}
	}
	return nil
}

func (e *Entry) CustomData(key guid.GUID) (Variant, bool) {
	return findCustom(e.Custom, key)
}

func (e *Entry) FuncCustomData(fn int, key guid.GUID) (Variant, bool) {
	if fn < 0 || fn >= len(e.Funcs) {
		return Variant{}, false
	}
	return findCustom(e.Funcs[fn].Custom, key)
}

func (e *Entry) ParamCustomData(fn, param int, key guid.GUID) (Variant, bool) {
	if fn < 0 || fn >= len(e.Funcs) {
		return Variant{}, false
	}
	pc := e.Funcs[fn].ParamCust
	if param < 0 || param >= len(pc) {
		return Variant{}, false
	}
	return findCustom(pc[param], key)
}

func (e *Entry) VarCustomData(v int, key guid.GUID) (Variant, bool) {
	if v < 0 || v >= len(e.Vars) {
		return Variant{}, false
	}
	return findCustom(e.Vars[v].Custom, key)
}

// SetCustom attaches type-level custom data.
func (e *Entry) SetCustom(key guid.GUID, v Variant) *Entry {
	e.Custom = append(e.Custom, CustomItem{Key: key, Value: v})
	return e
}

// AddRef registers a referenced type and returns its handle.
func (e *Entry) AddRef(ti TypeInfo) RefID {
	e.refs = append(e.refs, refSlot{ti: ti})
	return RefID(len(e.refs) - 1)
}

// AddBrokenRef registers a reference whose resolution fails with err.
func (e *Entry) AddBrokenRef(err error) RefID {
	e.refs = append(e.refs, refSlot{err: err})
	return RefID(len(e.refs) - 1)
}

// AddFunc appends a function with its name and parameter names.
func (e *Entry) AddFunc(name string, desc FuncDesc, paramNames ...string) *FuncEntry {
	e.Funcs = append(e.Funcs, FuncEntry{
		Name:       name,
		ParamNames: paramNames,
		Desc:       desc,
		ParamCust:  make([][]CustomItem, len(desc.Params)),
	})
	return &e.Funcs[len(e.Funcs)-1]
}

// AddVar appends a variable.
func (e *Entry) AddVar(name string, desc VarDesc) *VarEntry {
	e.Vars = append(e.Vars, VarEntry{Name: name, Desc: desc})
	return &e.Vars[len(e.Vars)-1]
}

// AddImpl appends an implemented type reference.
func (e *Entry) AddImpl(ref RefID, flags ImplTypeFlags) {
	e.Impls = append(e.Impls, ImplEntry{Ref: ref, Flags: flags})
}

// SetCustom attaches function-level custom data.
func (f *FuncEntry) SetCustom(key guid.GUID, v Variant) *FuncEntry {
	f.Custom = append(f.Custom, CustomItem{Key: key, Value: v})
	return f
}

// SetParamCustom attaches custom data to the i-th parameter.
func (f *FuncEntry) SetParamCustom(i int, key guid.GUID, v Variant) *FuncEntry {
	if i >= 0 && i < len(f.ParamCust) {
		f.ParamCust[i] = append(f.ParamCust[i], CustomItem{Key: key, Value: v})
	}
	return f
}

// SetCustom attaches variable-level custom data.
func (v *VarEntry) SetCustom(key guid.GUID, val Variant) *VarEntry {
	v.Custom = append(v.Custom, CustomItem{Key: key, Value: val})
	return v
}
