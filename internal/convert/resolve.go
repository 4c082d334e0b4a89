package convert

import (
	"fmt"
	"strings"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/names"
	"tlbimp/internal/typelib"
)

// registerExternal satisfies a reference into another library by looking
// the type up in that library's interop assembly. External converters are
// born created: their definition already exists elsewhere, nothing is
// emitted for them here.
func (cx *Context) registerExternal(ti typelib.TypeInfo, kind names.Kind, key names.Key) (*converter, error) {
	flib := ti.Lib()
	asm, err := cx.externalAssembly(flib)
	if err != nil {
		return nil, err
	}
	name, err := cx.Names.Recommend(ti, kind)
	if err != nil {
		return nil, err
	}
	td, ok := lookupExternal(asm, name)
	if !ok {
		diag.ReportWarning(cx.Reporter, diag.RefUnresolved, diag.Type(flib.Name(), ti.Name()),
			fmt.Sprintf("type %s not found in assembly %s", name, asm.Name)).Emit()
		return nil, fmt.Errorf("type %s not found in assembly %s: %w", name, asm.Name, ErrRefUnresolved)
	}
	r := td.Ref()
	r.Assembly = asm.Name
	c := &converter{
		kind:     kind,
		name:     name,
		ti:       ti,
		external: true,
		st:       stateCreated,
		extDef:   td,
		ext:      r,
	}
	cx.syms.put(key, c)
	return c, nil
}

// lookupExternal finds a type by its recommended name, retrying with '+'
// in place of dots for nested spellings.
func lookupExternal(asm *metadata.Assembly, name string) (*metadata.TypeDef, bool) {
	if td, ok := asm.Type(name); ok {
		return td, true
	}
	probe := name
	for {
		i := strings.LastIndexByte(probe, '.')
		if i < 0 {
			return nil, false
		}
		probe = probe[:i] + "+" + probe[i+1:]
		if td, ok := asm.Type(probe); ok {
			return td, true
		}
	}
}

// externalAssembly resolves and caches the interop assembly for a foreign
// library. Failures are cached too so the resolver is asked once per
// library, however many types reference it.
func (cx *Context) externalAssembly(flib typelib.TypeLibrary) (*metadata.Assembly, error) {
	g := flib.Attr().GUID
	if asm, hit := cx.external[g]; hit {
		if asm == nil {
			return nil, fmt.Errorf("library %s: %w", flib.Name(), ErrRefUnresolved)
		}
		return asm, nil
	}
	if cx.resolver == nil {
		cx.external[g] = nil
		diag.ReportWarning(cx.Reporter, diag.RefUnresolved, diag.Lib(flib.Name()),
			fmt.Sprintf("no reference assembly for library %s", flib.Name())).Emit()
		return nil, fmt.Errorf("no resolver for library %s: %w", flib.Name(), ErrRefUnresolved)
	}
	asm, err := cx.resolver.ResolveRef(flib)
	if err != nil || asm == nil {
		cx.external[g] = nil
		if err != nil {
			diag.ReportWarning(cx.Reporter, diag.RefAssemblyUnreadable, diag.Lib(flib.Name()),
				fmt.Sprintf("reference assembly for library %s: %v", flib.Name(), err)).Emit()
		} else {
			diag.ReportWarning(cx.Reporter, diag.RefUnresolved, diag.Lib(flib.Name()),
				fmt.Sprintf("no reference assembly for library %s", flib.Name())).Emit()
		}
		return nil, fmt.Errorf("resolving library %s: %w", flib.Name(), ErrRefUnresolved)
	}
	cx.external[g] = asm
	return asm, nil
}
