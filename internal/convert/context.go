package convert

import (
	"tlbimp/internal/diag"
	"tlbimp/internal/guid"
	"tlbimp/internal/metadata"
	"tlbimp/internal/names"
	"tlbimp/internal/typelib"
)

// Resolver supplies already-imported interop assemblies for libraries
// referenced by the one being converted. Implementations typically load
// snapshots from disk or import the referenced library on the fly.
type Resolver interface {
	// ResolveRef returns the interop assembly for a referenced library.
	// An error means the reference cannot be satisfied at all.
	ResolveRef(lib typelib.TypeLibrary) (*metadata.Assembly, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(lib typelib.TypeLibrary) (*metadata.Assembly, error)

func (f ResolverFunc) ResolveRef(lib typelib.TypeLibrary) (*metadata.Assembly, error) {
	return f(lib)
}

// Context carries the whole state of one import run: the source library,
// the options, the name table, the output assembly and the converter
// records for every type touched so far. It is self-contained, two
// contexts never share state.
type Context struct {
	Lib      typelib.TypeLibrary
	Opts     Options
	Names    *names.Table
	Reporter diag.Reporter
	Asm      *metadata.Assembly

	resolver Resolver
	syms     *symtab
	classMap *classInterfaceMap
	external map[guid.GUID]*metadata.Assembly
	ptrSize  int
}

func newContext(lib typelib.TypeLibrary, opts Options, nt *names.Table, asm *metadata.Assembly, resolver Resolver, reporter diag.Reporter) *Context {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	if nt == nil {
		nt = names.NewTable(lib, opts.Namespace, reporter)
	}
	return &Context{
		Lib:      lib,
		Opts:     opts,
		Names:    nt,
		Reporter: reporter,
		Asm:      asm,
		resolver: resolver,
		syms:     newSymtab(),
		classMap: newClassInterfaceMap(opts.LegacyQuirks),
		external: make(map[guid.GUID]*metadata.Assembly),
		ptrSize:  lib.Attr().PtrSize(),
	}
}

// converterFor returns the converter responsible for (ti, kind),
// registering one on first sight. Types living in a different library
// are routed through the external resolver.
func (cx *Context) converterFor(ti typelib.TypeInfo, kind names.Kind) (*converter, error) {
	key, err := names.KeyOf(ti, kind)
	if err != nil {
		return nil, err
	}
	if c, ok := cx.syms.get(key); ok {
		return c, nil
	}
	// Event interfaces always land in the assembly under construction,
	// even when the source interface is foreign.
	if kind != names.KindEventInterface && ti.Lib().Attr().GUID != cx.Lib.Attr().GUID {
		return cx.registerExternal(ti, kind, key)
	}
	return cx.registerLocal(ti, kind, key)
}

func (cx *Context) registerLocal(ti typelib.TypeInfo, kind names.Kind, key names.Key) (*converter, error) {
	name, err := cx.Names.Reserve(ti, kind)
	if err != nil {
		return nil, err
	}
	c := &converter{kind: kind, name: name, ti: ti}
	cx.syms.put(key, c)
	return c, nil
}
