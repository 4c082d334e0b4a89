package convert

import (
	"fmt"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/typelib"
)

// signature is one member's managed shape, ready for DefineMethod.
type signature struct {
	ret    metadata.Param
	params []metadata.Param
	impl   metadata.MethodImpl
	loss   bool
}

// convertMemberSignature converts a planned member into its managed
// signature: parameter conversion per site, [out, retval] promotion, the
// HRESULT swallow and the lcid strip on pure dispatch interfaces.
func (cx *Context) convertMemberSignature(c *converter, plan *memberPlan, m *plannedMember) (signature, error) {
	origin := diag.Member(cx.Lib.Name(), c.name, m.name)
	if m.varIndex >= 0 {
		return cx.convertVarAccessor(m, origin)
	}

	fd := m.desc
	allNames := m.declaring.Names(fd.MemberID, 1+len(fd.Params))
	pname := func(i int) string {
		if i+1 < len(allNames) {
			return allNames[i+1]
		}
		return ""
	}

	retLeaf, retDepth, _, err := fd.Return.Indirection()
	if err != nil {
		return signature{}, err
	}
	hresLike := retLeaf.VT == typelib.VTHResult || retLeaf.VT == typelib.VTError
	promotable := retDepth == 0 && (hresLike || retLeaf.VT == typelib.VTVoid)

	retvalIdx := -1
	if promotable && (!plan.dispatch || cx.Opts.TransformDispRetvals) {
		for i, p := range fd.Params {
			if p.Flags.Retval() {
				retvalIdx = i
				break
			}
		}
	}

	var sig signature
	for i, pd := range fd.Params {
		if i == retvalIdx {
			continue
		}
		if plan.dispatch && pd.Flags&typelib.ParamFlagLCID != 0 {
			continue
		}
		preq := convReq{declaring: m.declaring, origin: origin, site: siteParameter, flags: pd.Flags}
		vararg := fd.IsVararg() && i == len(fd.Params)-1
		if vararg {
			preq.site = siteVarArg
		}
		pc, err := cx.convertType(pd.Type, preq)
		if err != nil {
			reportParamError(cx, origin, pname(i), i, err)
			return signature{}, err
		}
		param := metadata.Param{
			Name:    pname(i),
			Type:    pc.typ,
			Attrs:   paramAttrs(pd.Flags),
			Marshal: pc.marshal,
		}
		if pc.alias != "" {
			param.AddCustomAttribute(metadata.AttrComAliasName(pc.alias))
		}
		if vararg {
			param.AddCustomAttribute(metadata.AttrParamArray())
		}
		if pd.Default != nil {
			param.Default = cx.constantFor(origin, pc.typ, *pd.Default)
		}
		sig.loss = sig.loss || pc.loss
		sig.params = append(sig.params, param)
	}

	switch {
	case retvalIdx >= 0:
		pd := fd.Params[retvalIdx]
		rreq := convReq{declaring: m.declaring, origin: origin, site: siteRetValParam, flags: pd.Flags, newEnum: m.enum}
		rc, err := cx.convertType(pd.Type, rreq)
		if err != nil {
			reportParamError(cx, origin, pname(retvalIdx), retvalIdx, err)
			return signature{}, err
		}
		sig.ret = metadata.Param{Type: rc.typ, Marshal: rc.marshal}
		if rc.alias != "" {
			sig.ret.AddCustomAttribute(metadata.AttrComAliasName(rc.alias))
		}
		sig.loss = sig.loss || rc.loss
	case promotable:
		sig.ret = metadata.Param{Type: metadata.Void}
	default:
		rreq := convReq{declaring: m.declaring, origin: origin, site: siteReturn, newEnum: m.enum}
		rc, err := cx.convertType(fd.Return, rreq)
		if err != nil {
			reportParamError(cx, origin, "", -1, err)
			return signature{}, err
		}
		sig.ret = metadata.Param{Type: rc.typ, Marshal: rc.marshal}
		if rc.alias != "" {
			sig.ret.AddCustomAttribute(metadata.AttrComAliasName(rc.alias))
		}
		sig.loss = sig.loss || rc.loss
		if !plan.dispatch {
			sig.impl = metadata.ImplPreserveSig
		}
	}
	return sig, nil
}

// convertVarAccessor builds the synthesized accessor signatures for a
// dispatch variable.
func (cx *Context) convertVarAccessor(m *plannedMember, origin diag.Origin) (signature, error) {
	var sig signature
	if m.kind == mkVarSet {
		sreq := convReq{declaring: m.declaring, origin: origin, site: siteParameter, flags: typelib.ParamFlagIn}
		sc, err := cx.convertType(m.vdesc.Type, sreq)
		if err != nil {
			reportParamError(cx, origin, m.base, 0, err)
			return signature{}, err
		}
		sig.ret = metadata.Param{Type: metadata.Void}
		sig.params = []metadata.Param{{
			Name: "value", Type: sc.typ, Attrs: metadata.ParamIn, Marshal: sc.marshal,
		}}
		sig.loss = sc.loss
		return sig, nil
	}
	greq := convReq{declaring: m.declaring, origin: origin, site: siteReturn, newEnum: m.enum}
	gc, err := cx.convertType(m.vdesc.Type, greq)
	if err != nil {
		reportParamError(cx, origin, m.base, 0, err)
		return signature{}, err
	}
	sig.ret = metadata.Param{Type: gc.typ, Marshal: gc.marshal}
	sig.loss = gc.loss
	return sig, nil
}

func paramAttrs(f typelib.ParamFlags) metadata.ParamAttrs {
	var a metadata.ParamAttrs
	if f&typelib.ParamFlagIn != 0 {
		a |= metadata.ParamIn
	}
	if f.Out() {
		a |= metadata.ParamOut
	}
	if f&typelib.ParamFlagOpt != 0 {
		a |= metadata.ParamOptional
	}
	if f&typelib.ParamFlagHasDefault != 0 {
		a |= metadata.ParamHasDefault
	}
	if f.Retval() {
		a |= metadata.ParamRetval
	}
	if f&typelib.ParamFlagLCID != 0 {
		a |= metadata.ParamLCID
	}
	return a
}

func reportParamError(cx *Context, origin diag.Origin, name string, idx int, err error) {
	switch {
	case name != "":
		diag.ReportWarning(cx.Reporter, diag.ConvParamErrorNamed, origin,
			fmt.Sprintf("parameter %s cannot be converted: %v", name, err)).Emit()
	case idx >= 0:
		diag.ReportWarning(cx.Reporter, diag.ConvParamErrorUnnamed, origin,
			fmt.Sprintf("parameter %d cannot be converted: %v", idx+1, err)).Emit()
	default:
		diag.ReportWarning(cx.Reporter, diag.ConvParamErrorUnnamed, origin,
			fmt.Sprintf("return value cannot be converted: %v", err)).Emit()
	}
}

// variantConst maps a variant payload to a metadata constant.
func variantConst(v typelib.Variant) *metadata.Constant {
	switch {
	case v.IsString():
		return metadata.ConstOfString(v.Str)
	case v.VT == typelib.VTBool:
		return metadata.ConstOfBool(v.Bool)
	case v.VT == typelib.VTR4 || v.VT == typelib.VTR8:
		return metadata.ConstOfReal(v.F64)
	case v.VT == typelib.VTEmpty || v.VT == typelib.VTNull:
		return &metadata.Constant{Kind: metadata.ConstNil}
	default:
		return metadata.ConstOfInt(v.Int())
	}
}

// constantFor converts a default or constant value, dropping values that
// cannot sit on the converted type. The drop is silent except for an
// info diagnostic.
func (cx *Context) constantFor(origin diag.Origin, typ metadata.Type, v typelib.Variant) *metadata.Constant {
	k := variantConst(v)
	mismatch := (typ.Shape == metadata.ShapeValue && k.Kind == metadata.ConstString) ||
		(typ.Shape == metadata.ShapeReference && k.Kind != metadata.ConstString && k.Kind != metadata.ConstNil)
	if mismatch {
		diag.ReportInfo(cx.Reporter, diag.ClsSetConstantFailed, origin,
			fmt.Sprintf("default value %s does not fit %s and was dropped", v, typ)).Emit()
		return nil
	}
	return k
}
