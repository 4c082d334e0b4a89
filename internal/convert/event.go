package convert

import (
	"errors"
	"fmt"
	"strings"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/names"
)

// A source interface becomes an event interface: one delegate type and
// one event per method. Properties and enumerators have no event shape
// and are dropped with a warning. A sealed provider class rides along as
// the concrete registration point named by ComEventInterface.

func defineEventInterface(cx *Context, c *converter) error {
	origin := diag.Type(cx.Lib.Name(), c.name)
	c.face = c.ti
	plan, err := planMembers(cx, c)
	if err != nil {
		if errors.Is(err, errBadChain) {
			diag.ReportWarning(cx.Reporter, diag.ClsNotIUnknown, origin,
				fmt.Sprintf("%s does not derive from IUnknown and cannot be imported", c.ti.Name())).Emit()
		}
		return err
	}

	var members []plannedMember
	var propsDropped, enumDropped bool
	for _, m := range plan.members {
		switch {
		case m.kind == mkGap:
		case m.enum:
			enumDropped = true
		case m.kind == mkMethod:
			members = append(members, m)
		default:
			propsDropped = true
		}
	}
	if propsDropped {
		diag.ReportWarning(cx.Reporter, diag.ClsNoPropsInEvents, origin,
			fmt.Sprintf("source interface %s declares properties; they do not become events", c.ti.Name())).Emit()
	}
	if enumDropped {
		diag.ReportWarning(cx.Reporter, diag.ClsEventWithNewEnum, origin,
			fmt.Sprintf("source interface %s declares an enumerator; it does not become an event", c.ti.Name())).Emit()
	}
	plan.members = members
	plan.props = nil
	plan.newEnum = false
	c.plan = plan

	def, err := cx.Asm.DefineType(c.name,
		metadata.TypePublic|metadata.TypeInterface|metadata.TypeAbstract|metadata.TypeImport,
		nil, nil)
	if err != nil {
		return err
	}
	c.def = def

	rec, err := cx.Names.Recommend(c.ti, names.KindEventInterface)
	if err != nil {
		return err
	}
	c.provider = cx.Names.ReserveForged(strings.TrimSuffix(rec, "_Event") + "_EventProvider")
	srcConv, err := cx.converterFor(c.ti, names.KindInterface)
	if err != nil {
		return err
	}
	def.SetCustomAttribute(metadata.AttrComEventInterface(srcConv.name, c.provider))
	return nil
}

func createEventInterface(cx *Context, c *converter) error {
	if c.plan == nil {
		return internalf("create before define of %s", c.name)
	}
	ns := ""
	if i := strings.LastIndexByte(c.name, '.'); i >= 0 {
		ns = c.name[:i]
	}
	srcConv, err := cx.converterFor(c.ti, names.KindInterface)
	if err != nil {
		return err
	}
	srcShort := srcConv.name
	if i := strings.LastIndexByte(srcShort, '.'); i >= 0 {
		srcShort = srcShort[i+1:]
	}

	delegateParent := metadata.MulticastDelegate
	for i := range c.plan.members {
		m := &c.plan.members[i]
		sig, err := cx.convertMemberSignature(c, c.plan, m)
		if err != nil {
			return err
		}

		// Delegate names carry the source interface name as a scope. The
		// legacy importer scoped them by the declaring type's doc name
		// instead, which collides across interfaces sharing method names.
		scope := srcShort
		if cx.Opts.LegacyQuirks {
			scope = m.declaring.Name()
		}
		base := scope + "_" + m.base + "EventHandler"
		if ns != "" {
			base = ns + "." + base
		}
		dname := cx.Names.ReserveForged(base)
		dd, err := cx.Asm.DefineType(dname, metadata.TypePublic|metadata.TypeSealed, &delegateParent, nil)
		if err != nil {
			return err
		}
		if _, err := dd.DefineConstructor(metadata.MethodPublic, metadata.ImplRuntime, []metadata.Param{
			{Name: "object", Type: metadata.Object},
			{Name: "method", Type: metadata.IntPtr},
		}); err != nil {
			return err
		}
		if _, err := dd.DefineMethod("Invoke",
			metadata.MethodPublic|metadata.MethodVirtual|metadata.MethodNewSlot,
			metadata.ImplRuntime, sig.ret, sig.params); err != nil {
			return err
		}
		if err := dd.Create(); err != nil {
			return err
		}

		dref := dd.Ref()
		accessor := metadata.MethodPublic | metadata.MethodVirtual | metadata.MethodAbstract |
			metadata.MethodNewSlot | metadata.MethodSpecialName
		handler := []metadata.Param{{Name: "handler", Type: dref, Attrs: metadata.ParamIn}}
		addM, err := c.def.DefineMethod("add_"+m.base, accessor, 0, metadata.Param{Type: metadata.Void}, handler)
		if err != nil {
			return err
		}
		remM, err := c.def.DefineMethod("remove_"+m.base, accessor, 0, metadata.Param{Type: metadata.Void}, handler)
		if err != nil {
			return err
		}
		ev, err := c.def.DefineEvent(m.base, dref)
		if err != nil {
			return err
		}
		for _, acc := range []*metadata.Method{addM, remM} {
			acc.SetDispID(m.dispid)
			acc.SetCustomAttribute(metadata.AttrDispID(m.dispid))
		}
		ev.Add, ev.Remove = addM, remM
		ev.SetDispID(m.dispid)
		ev.SetCustomAttribute(metadata.AttrDispID(m.dispid))
	}
	if err := c.def.Create(); err != nil {
		return err
	}

	objParent := metadata.Object
	pd, err := cx.Asm.DefineType(c.provider, metadata.TypePublic|metadata.TypeSealed,
		&objParent, []metadata.Type{c.def.Ref()})
	if err != nil {
		return err
	}
	if _, err := pd.DefineConstructor(metadata.MethodPublic, metadata.ImplRuntime,
		[]metadata.Param{{Name: "target", Type: metadata.Object}}); err != nil {
		return err
	}
	bodies, err := implementMembers(pd, c.def.Ref(), c.def)
	if err != nil {
		return err
	}
	if err := attachAccessors(cx, pd, c.def, bodies); err != nil {
		return err
	}
	return pd.Create()
}
