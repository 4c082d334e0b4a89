package convert

import (
	"tlbimp/internal/guid"
	"tlbimp/internal/typelib"
)

// classKey identifies a default interface in the class interface map.
// The modern key pairs the interface id with its doc name; the legacy
// quirk keys by the re-fetched doc name alone, which makes same-named
// interfaces from different scopes collide the way the old importer did.
type classKey struct {
	g   guid.GUID
	doc string
}

type classEntry struct {
	owner     *converter
	exclusive bool
}

// classInterfaceMap records which coclass claims which default interface.
// An interface claimed by exactly one coclass is exclusive to it, and
// signature references to the interface rewrite to the class interface.
type classInterfaceMap struct {
	legacy  bool
	entries map[classKey]*classEntry
}

func newClassInterfaceMap(legacy bool) *classInterfaceMap {
	return &classInterfaceMap{legacy: legacy, entries: make(map[classKey]*classEntry)}
}

func (m *classInterfaceMap) key(ti typelib.TypeInfo, attr typelib.TypeAttr) classKey {
	if m.legacy {
		return classKey{doc: ti.Name()}
	}
	return classKey{g: attr.GUID, doc: ti.Name()}
}

// claim records that a coclass uses iface as its default interface. The
// first claim is exclusive; any further claim clears exclusivity.
func (m *classInterfaceMap) claim(iface typelib.TypeInfo, attr typelib.TypeAttr, owner *converter) {
	k := m.key(iface, attr)
	if e, ok := m.entries[k]; ok {
		e.exclusive = false
		return
	}
	m.entries[k] = &classEntry{owner: owner, exclusive: true}
}

// exclusiveOwner returns the class interface converter that exclusively
// owns iface as its default interface, or nil.
func (m *classInterfaceMap) exclusiveOwner(iface typelib.TypeInfo, attr typelib.TypeAttr) *converter {
	e, ok := m.entries[m.key(iface, attr)]
	if !ok || !e.exclusive {
		return nil
	}
	return e.owner
}
