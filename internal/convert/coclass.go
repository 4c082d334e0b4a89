package convert

import (
	"fmt"

	"tlbimp/internal/diag"
	"tlbimp/internal/guid"
	"tlbimp/internal/metadata"
	"tlbimp/internal/names"
	"tlbimp/internal/typelib"
)

// A coclass becomes a creatable class: object-parented, runtime-provided
// constructor, and a copy of every member of every implemented interface
// so clients can call through the class without casting. The interface
// list keeps a fixed order: default interface, class interface, the other
// direct interfaces, then the event interfaces of the source interfaces.

func defineCoClass(cx *Context, c *converter) error {
	attr, err := c.ti.Attr()
	if err != nil {
		return err
	}

	var (
		impls []metadata.Type
		convs []*converter
	)
	seenConv := make(map[*converter]bool)
	seenIID := make(map[guid.GUID]bool)
	add := func(conv *converter, iid guid.GUID) error {
		if conv == nil || seenConv[conv] {
			return nil
		}
		if !iid.IsZero() && seenIID[iid] {
			return nil
		}
		if err := conv.define(cx); err != nil {
			return err
		}
		r, err := conv.ref()
		if err != nil {
			return err
		}
		seenConv[conv] = true
		if !iid.IsZero() {
			seenIID[iid] = true
		}
		impls = append(impls, r)
		convs = append(convs, conv)
		return nil
	}

	if d := c.defaultIface; d != nil {
		var iid guid.GUID
		if a, err := d.ti.Attr(); err == nil {
			iid = a.GUID
		}
		if err := add(d, iid); err != nil {
			return err
		}
	}
	if err := add(c.classIface, guid.Zero); err != nil {
		return err
	}
	for i := 0; i < attr.Impls; i++ {
		ti, flags, err := c.ti.ImplType(i)
		if err != nil {
			continue
		}
		if flags&(typelib.ImplFlagRestricted|typelib.ImplFlagSource) != 0 {
			continue
		}
		ia, err := ti.Attr()
		if err != nil {
			continue
		}
		conv, err := cx.converterFor(ti, names.KindInterface)
		if err != nil {
			return err
		}
		if err := add(conv, ia.GUID); err != nil {
			return err
		}
	}
	var sources []string
	for _, s := range c.sourceFaces {
		sc, err := cx.converterFor(s, names.KindInterface)
		if err != nil {
			return err
		}
		sources = append(sources, sc.name)
		ev, err := cx.converterFor(s, names.KindEventInterface)
		if err != nil {
			return err
		}
		if err := add(ev, guid.Zero); err != nil {
			return err
		}
	}

	parent := metadata.Object
	def, err := cx.Asm.DefineType(c.name, metadata.TypePublic|metadata.TypeImport, &parent, impls)
	if err != nil {
		return err
	}
	c.def = def
	c.implConvs = convs
	def.SetCustomAttribute(metadata.AttrGuid(attr.GUID))
	def.SetCustomAttribute(metadata.AttrClassInterfaceNone())
	if len(sources) > 0 {
		def.SetCustomAttribute(metadata.AttrComSourceInterfaces(sources))
	}
	if attr.Flags != 0 {
		def.SetCustomAttribute(metadata.AttrTypeLibType(uint16(attr.Flags)))
	}
	return nil
}

func createCoClass(cx *Context, c *converter) error {
	if _, err := c.def.DefineConstructor(metadata.MethodPublic, metadata.ImplRuntime, nil); err != nil {
		return err
	}
	if !cx.Opts.PreventClassMembers {
		for _, ic := range c.implConvs {
			if err := ic.ensureCreated(cx); err != nil {
				return err
			}
			src := ic.def
			if ic.external {
				src = ic.extDef
			}
			if src == nil {
				return internalf("no definition behind implemented interface %s", ic.name)
			}
			decl, err := ic.ref()
			if err != nil {
				return err
			}
			bodies, err := implementMembers(c.def, decl, src)
			if err != nil {
				return err
			}
			if err := attachAccessors(cx, c.def, src, bodies); err != nil {
				return err
			}
		}
	}
	return c.def.Create()
}

// implementMembers copies an interface's method declarations onto cls as
// public runtime-provided bodies with explicit overrides. The returned
// map links each declaration to its body so accessors can be re-attached.
func implementMembers(cls *metadata.TypeDef, decl metadata.Type, src *metadata.TypeDef) (map[*metadata.Method]*metadata.Method, error) {
	bodies := make(map[*metadata.Method]*metadata.Method, len(src.Methods))
	for _, m := range src.Methods {
		if m.Ctor {
			continue
		}
		attrs := metadata.MethodPublic | metadata.MethodVirtual
		if m.Attrs.Has(metadata.MethodSpecialName) {
			attrs |= metadata.MethodSpecialName
		}
		body, err := cls.DefineMethod(m.Name, attrs, m.Impl|metadata.ImplRuntime, m.Return, m.Params)
		if err != nil {
			return nil, err
		}
		if m.DispID != nil {
			body.SetDispID(*m.DispID)
			body.SetCustomAttribute(metadata.AttrDispID(*m.DispID))
		}
		if err := cls.DefineOverride(body, decl, m.Name); err != nil {
			return nil, err
		}
		bodies[m] = body
	}
	return bodies, nil
}

// attachAccessors mirrors the interface's properties and events onto the
// class, rewired to the copied method bodies.
func attachAccessors(cx *Context, cls *metadata.TypeDef, src *metadata.TypeDef, bodies map[*metadata.Method]*metadata.Method) error {
	pick := func(m *metadata.Method, what, owner string) (*metadata.Method, error) {
		if m == nil {
			return nil, nil
		}
		b, ok := bodies[m]
		if !ok {
			diag.ReportError(cx.Reporter, diag.ClsOverrideMissing, diag.Type(cx.Lib.Name(), cls.Name),
				fmt.Sprintf("no class body for %s of %s", what, owner)).Emit()
			return nil, fmt.Errorf("no class body for %s of %s", what, owner)
		}
		return b, nil
	}
	for _, p := range src.Props {
		np, err := cls.DefineProperty(p.Name, p.Type)
		if err != nil {
			return err
		}
		if p.DispID != nil {
			np.SetDispID(*p.DispID)
			np.SetCustomAttribute(metadata.AttrDispID(*p.DispID))
		}
		if np.Getter, err = pick(p.Getter, "getter", p.Name); err != nil {
			return err
		}
		if np.Setter, err = pick(p.Setter, "setter", p.Name); err != nil {
			return err
		}
	}
	for _, e := range src.Events {
		ne, err := cls.DefineEvent(e.Name, e.Type)
		if err != nil {
			return err
		}
		if e.DispID != nil {
			ne.SetDispID(*e.DispID)
			ne.SetCustomAttribute(metadata.AttrDispID(*e.DispID))
		}
		if ne.Add, err = pick(e.Add, "add accessor", e.Name); err != nil {
			return err
		}
		if ne.Remove, err = pick(e.Remove, "remove accessor", e.Name); err != nil {
			return err
		}
	}
	return nil
}
