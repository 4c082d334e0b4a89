package convert

import (
	"errors"
	"fmt"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/names"
	"tlbimp/internal/typelib"
)

// defineInterface emits the interface skeleton: the managed name, the
// parent and well-known implements list, and the identity attributes.
// The member plan is computed here because an enumerator member changes
// the implements list; the members themselves wait for create.
func defineInterface(cx *Context, c *converter) error {
	attr, err := c.ti.Attr()
	if err != nil {
		return err
	}
	dual := attr.Flags&typelib.TypeFlagDual != 0

	// The dispatch half of a dual interface is only a projection; members
	// come from the v-table partner when one is on record.
	c.face = c.ti
	if attr.Kind == typelib.TKindDispatch && dual {
		if partner, _, perr := c.ti.ImplType(0); perr == nil {
			if pattr, paerr := partner.Attr(); paerr == nil && pattr.Kind == typelib.TKindInterface {
				c.face = partner
			}
		}
	}

	origin := diag.Type(cx.Lib.Name(), c.name)
	plan, err := planMembers(cx, c)
	if err != nil {
		if errors.Is(err, errBadChain) {
			diag.ReportWarning(cx.Reporter, diag.ClsNotIUnknown, origin,
				fmt.Sprintf("%s does not derive from IUnknown and cannot be imported", c.ti.Name())).Emit()
		}
		return err
	}
	c.plan = plan

	switch {
	case dual:
		c.flavor = metadata.InterfaceIsDual
	case attr.Kind == typelib.TKindDispatch:
		c.flavor = metadata.InterfaceIsIDispatch
	case plan.root == rootIDispatch:
		c.flavor = metadata.InterfaceIsDual
	default:
		c.flavor = metadata.InterfaceIsIUnknown
	}
	if dual && plan.root == rootIUnknown {
		diag.ReportWarning(cx.Reporter, diag.ClsDualNotDispatch, origin,
			fmt.Sprintf("dual interface %s does not derive from IDispatch", c.ti.Name())).Emit()
	}

	var impls []metadata.Type
	chain, _, err := interfaceChain(c.face)
	if err != nil {
		return err
	}
	if len(chain) >= 2 {
		parent := chain[len(chain)-2]
		pconv, err := cx.converterFor(parent, names.KindInterface)
		if err != nil {
			return err
		}
		if err := pconv.define(cx); err != nil {
			return err
		}
		pref, err := pconv.ref()
		if err != nil {
			return err
		}
		impls = append(impls, pref)
	}
	if plan.newEnum {
		impls = append(impls, metadata.IEnumerable)
	}

	def, err := cx.Asm.DefineType(c.name,
		metadata.TypePublic|metadata.TypeInterface|metadata.TypeAbstract|metadata.TypeImport,
		nil, impls)
	if err != nil {
		return err
	}
	c.def = def
	def.SetCustomAttribute(metadata.AttrGuid(attr.GUID))
	def.SetCustomAttribute(metadata.AttrInterfaceType(c.flavor))
	if attr.Flags != 0 {
		def.SetCustomAttribute(metadata.AttrTypeLibType(uint16(attr.Flags)))
	}
	if cx.Opts.UnsafeInterfaces {
		def.SetCustomAttribute(metadata.AttrSuppressUnmanagedCodeSecurity())
	}
	return nil
}

// createInterface emits the planned members and seals the type.
// Property groups resolve their managed type first; a group that cannot
// be typed demotes its accessors to plain methods before anything is
// emitted.
func createInterface(cx *Context, c *converter) error {
	plan := c.plan
	if plan == nil {
		return internalf("interface %s has no member plan", c.name)
	}
	origin := diag.Type(cx.Lib.Name(), c.name)

	ptypes := make(map[int]metadata.Type)
	demoted := make(map[int]bool)
	for pi := range plan.props {
		pp := &plan.props[pi]
		best := bestAccessor(plan, pp)
		typ, ok, err := cx.propertyType(c, plan, best)
		if err != nil {
			return err
		}
		if !ok {
			code := diag.MemPropertyDemoted
			if best.kind == mkGet {
				code = diag.MemPropgetWithoutReturn
			}
			diag.ReportWarning(cx.Reporter, code, origin.In(pp.base),
				fmt.Sprintf("no usable type for property %s, accessors become plain methods", pp.base)).Emit()
			for _, mi := range pp.members {
				demoted[mi] = true
			}
			continue
		}
		ptypes[pi] = typ
	}

	emitted := make([]*metadata.Method, len(plan.members))
	for mi := range plan.members {
		m := &plan.members[mi]
		if m.kind == mkGap {
			gap, err := c.def.DefineMethod(m.name,
				metadata.MethodPublic|metadata.MethodVirtual|metadata.MethodAbstract|metadata.MethodNewSlot,
				metadata.ImplPreserveSig, metadata.Param{Type: metadata.Void}, nil)
			if err != nil {
				return err
			}
			gap.Slot = m.slot
			continue
		}

		name := m.name
		accessor := m.kind != mkMethod
		if demoted[mi] {
			name = m.base
			accessor = false
		}
		sig, err := cx.convertMemberSignature(c, plan, m)
		if err != nil {
			return err
		}
		attrs := metadata.MethodPublic | metadata.MethodVirtual | metadata.MethodAbstract | metadata.MethodNewSlot
		if accessor {
			attrs |= metadata.MethodSpecialName
		}
		method, err := c.def.DefineMethod(name, attrs, sig.impl, sig.ret, sig.params)
		if err != nil {
			return err
		}
		method.Slot = m.slot
		method.SetDispID(m.dispid)
		method.SetCustomAttribute(metadata.AttrDispID(m.dispid))
		if sig.loss {
			diag.ReportWarning(cx.Reporter, diag.ConvUnconvertableArgs, origin.In(name),
				fmt.Sprintf("signature of %s lost native information", name)).Emit()
			method.SetCustomAttribute(metadata.AttrComConversionLoss())
			c.markLoss()
		}
		emitted[mi] = method
	}

	for pi := range plan.props {
		pp := &plan.props[pi]
		typ, ok := ptypes[pi]
		if !ok {
			continue
		}
		prop, err := c.def.DefineProperty(pp.base, typ)
		if err != nil {
			return err
		}
		prop.SetDispID(pp.dispid)
		prop.SetCustomAttribute(metadata.AttrDispID(pp.dispid))
		for _, mi := range pp.members {
			if demoted[mi] || emitted[mi] == nil {
				continue
			}
			switch plan.members[mi].kind {
			case mkGet, mkVarGet:
				if prop.Getter == nil {
					prop.Getter = emitted[mi]
				}
			case mkPutRef:
				prop.Setter = emitted[mi]
			case mkPut, mkVarSet:
				if prop.Setter == nil {
					prop.Setter = emitted[mi]
				}
			}
		}
	}

	return c.def.Create()
}

// bestAccessor picks the member that decides a property's managed type:
// a getter wins over a put, a put over a putref.
func bestAccessor(plan *memberPlan, pp *plannedProperty) *plannedMember {
	rank := func(k memberKind) int {
		switch k {
		case mkGet, mkVarGet:
			return 0
		case mkPut, mkVarSet:
			return 1
		default:
			return 2
		}
	}
	best := pp.members[0]
	for _, mi := range pp.members[1:] {
		if rank(plan.members[mi].kind) < rank(plan.members[best].kind) {
			best = mi
		}
	}
	return &plan.members[best]
}

// propertyType resolves the managed type of a property from its deciding
// accessor. ok is false when the accessor has no usable value: a getter
// without return or retval, a put without parameters.
func (cx *Context) propertyType(c *converter, plan *memberPlan, m *plannedMember) (metadata.Type, bool, error) {
	origin := diag.Member(cx.Lib.Name(), c.name, m.base)

	if m.varIndex >= 0 {
		vc, err := cx.convertType(m.vdesc.Type, convReq{declaring: m.declaring, origin: origin, site: siteReturn})
		if err != nil {
			return metadata.Type{}, false, err
		}
		return vc.typ, true, nil
	}

	fd := m.desc
	switch m.kind {
	case mkGet:
		for i := len(fd.Params) - 1; i >= 0; i-- {
			if !fd.Params[i].Flags.Retval() {
				continue
			}
			rc, err := cx.convertType(fd.Params[i].Type,
				convReq{declaring: m.declaring, origin: origin, site: siteRetValParam, flags: fd.Params[i].Flags})
			if err != nil {
				return metadata.Type{}, false, err
			}
			return rc.typ, true, nil
		}
		leaf, depth, _, err := fd.Return.Indirection()
		if err != nil {
			return metadata.Type{}, false, err
		}
		if depth == 0 && (leaf.VT == typelib.VTVoid || leaf.VT == typelib.VTHResult || leaf.VT == typelib.VTError) {
			return metadata.Type{}, false, nil
		}
		rc, err := cx.convertType(fd.Return, convReq{declaring: m.declaring, origin: origin, site: siteReturn})
		if err != nil {
			return metadata.Type{}, false, err
		}
		return rc.typ, true, nil
	case mkPut, mkPutRef:
		if len(fd.Params) == 0 {
			return metadata.Type{}, false, nil
		}
		pd := fd.Params[len(fd.Params)-1]
		pc, err := cx.convertType(pd.Type,
			convReq{declaring: m.declaring, origin: origin, site: siteParameter, flags: pd.Flags})
		if err != nil {
			return metadata.Type{}, false, err
		}
		typ := pc.typ
		typ.ByRef = false
		return typ, true, nil
	}
	return metadata.Type{}, false, nil
}
