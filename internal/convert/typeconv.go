package convert

import (
	"fmt"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/names"
	"tlbimp/internal/typelib"
)

// site distinguishes where a converted type lands. The indirection policy
// differs per site: a pointer that reads as byref on a parameter has no
// spelling on a field.
type site uint8

const (
	siteParameter site = iota
	siteVarArg
	siteRetValParam
	siteField
	siteReturn
	siteElement
)

func (s site) String() string {
	switch s {
	case siteParameter:
		return "parameter"
	case siteVarArg:
		return "vararg"
	case siteRetValParam:
		return "retval"
	case siteField:
		return "field"
	case siteReturn:
		return "return"
	case siteElement:
		return "element"
	}
	return "site?"
}

// convReq carries the context of one descriptor conversion.
type convReq struct {
	declaring typelib.TypeInfo // resolves RefIDs in the descriptor
	origin    diag.Origin
	site      site
	flags     typelib.ParamFlags
	newEnum   bool // the use is a promoted enumerator accessor
	aliasHops int
}

// converted is the outcome of one conversion: the managed type, its
// marshalling, whether native information was lost on the way, and the
// alias name to advertise when the source spelled an alias.
type converted struct {
	typ     metadata.Type
	marshal *metadata.MarshalInfo
	loss    bool
	alias   string
}

// convertType maps one native descriptor to its managed shape.
func (cx *Context) convertType(td typelib.TypeDesc, req convReq) (converted, error) {
	leaf, depth, _, err := td.Indirection()
	if err != nil {
		return converted{}, err
	}
	return cx.convertLeaf(leaf, depth, req)
}

// convertLeaf converts a stripped descriptor whose pointer run is depth
// levels deep. Pointer-like leaves bump the count: a BSTR already is a
// pointer natively, so a bare bstr leaf arrives at the policy as one
// level of indirection.
func (cx *Context) convertLeaf(leaf typelib.TypeDesc, depth int, req convReq) (converted, error) {
	native := depth
	var c converted
	guidLike := false

	switch leaf.VT {
	case typelib.VTI1:
		c.typ = metadata.SByte
	case typelib.VTUI1:
		c.typ = metadata.Byte
	case typelib.VTI2:
		c.typ = metadata.Int16
	case typelib.VTUI2:
		c.typ = metadata.UInt16
	case typelib.VTI4, typelib.VTInt:
		c.typ = metadata.Int32
	case typelib.VTUI4, typelib.VTUInt:
		c.typ = metadata.UInt32
	case typelib.VTI8:
		c.typ = metadata.Int64
	case typelib.VTUI8:
		c.typ = metadata.UInt64
	case typelib.VTR4:
		c.typ = metadata.Single
	case typelib.VTR8:
		c.typ = metadata.Double
	case typelib.VTDate:
		c.typ = metadata.Date
	case typelib.VTBool:
		if req.site == siteField && !cx.Opts.VariantBoolFieldToBool {
			c.typ = metadata.Int16
		} else {
			c.typ = metadata.Bool
			c.marshal = metadata.Marshal(metadata.UTVariantBool)
		}
	case typelib.VTCy:
		c.typ = metadata.Decimal
		c.marshal = metadata.Marshal(metadata.UTCurrency)
	case typelib.VTDecimal:
		c.typ = metadata.Decimal
		guidLike = true
	case typelib.VTHResult, typelib.VTError:
		c.typ = metadata.Int32
		c.marshal = metadata.Marshal(metadata.UTError)
	case typelib.VTVoid:
		if native == 0 {
			return converted{typ: metadata.Void}, nil
		}
		return converted{typ: metadata.IntPtr, loss: native > 1}, nil
	case typelib.VTBStr, typelib.VTLPStr, typelib.VTLPWStr:
		return cx.convertString(leaf.VT, native+1, req), nil
	case typelib.VTUnknown:
		c = enumeratorOr(req, metadata.Object, metadata.Marshal(metadata.UTIUnknown))
		native++
	case typelib.VTDispatch:
		c = enumeratorOr(req, metadata.Object, metadata.Marshal(metadata.UTIDispatch))
		native++
	case typelib.VTVariant:
		c.typ = metadata.Object
		c.marshal = metadata.Marshal(metadata.UTStruct)
		native++
	case typelib.VTSafeArray:
		return cx.convertSafeArray(leaf, native+1, req)
	case typelib.VTCArray:
		return cx.convertCArray(leaf, native, req)
	case typelib.VTUserDefined:
		return cx.convertUserDefined(leaf.Ref, native, req)
	default:
		diag.ReportWarning(cx.Reporter, diag.ConvBadVtType, req.origin,
			fmt.Sprintf("variant type %s has no managed equivalent, using IntPtr", leaf.VT)).Emit()
		return converted{typ: metadata.IntPtr, loss: true}, nil
	}

	return applyIndirection(c, native, req, guidLike), nil
}

func enumeratorOr(req convReq, typ metadata.Type, m *metadata.MarshalInfo) converted {
	if req.newEnum {
		return converted{
			typ:     metadata.IEnumerator,
			marshal: metadata.MarshalCustom(metadata.EnumeratorMarshaler, ""),
		}
	}
	return converted{typ: typ, marshal: m}
}

// convertString handles the three native string flavors. native already
// counts the pointer the string itself is.
func (cx *Context) convertString(vt typelib.VarType, native int, req convReq) converted {
	c := converted{typ: metadata.String}
	switch vt {
	case typelib.VTBStr:
		c.marshal = metadata.Marshal(metadata.UTBStr)
	case typelib.VTLPStr:
		c.marshal = metadata.Marshal(metadata.UTLPStr)
	case typelib.VTLPWStr:
		c.marshal = metadata.Marshal(metadata.UTLPWStr)
	}

	// Mutable buffers: an out character pointer is a StringBuilder; an
	// out BSTR by value, or an in-out BSTR pointer, cannot be expressed.
	if (req.site == siteParameter || req.site == siteVarArg) && req.flags.Out() {
		switch {
		case vt != typelib.VTBStr && native == 1:
			c.typ = metadata.StringBuilder
		case vt == typelib.VTBStr && native == 1:
			return converted{typ: metadata.IntPtr, loss: true}
		case vt == typelib.VTBStr && native == 2 && req.flags&typelib.ParamFlagIn != 0:
			return converted{typ: metadata.IntPtr, loss: true}
		}
	}
	return applyIndirection(c, native, req, false)
}

func (cx *Context) convertSafeArray(leaf typelib.TypeDesc, native int, req convReq) (converted, error) {
	if cx.Opts.SafeArrayAsUniversal && req.site != siteVarArg {
		c := converted{typ: metadata.ArrayBase, marshal: metadata.Marshal(metadata.UTSafeArray)}
		return applyIndirection(c, native, req, false), nil
	}
	if leaf.Elem == nil {
		return converted{}, fmt.Errorf("safearray with no element type")
	}
	elemReq := req
	elemReq.site = siteElement
	elemReq.flags = 0
	elemReq.newEnum = false
	ec, err := cx.convertType(*leaf.Elem, elemReq)
	if err != nil {
		return converted{}, err
	}
	vt, sub, err := cx.safeArrayElemVT(*leaf.Elem, ec, req.declaring)
	if err != nil {
		return converted{}, err
	}
	c := converted{
		typ:     ec.typ.MakeArray(),
		marshal: metadata.MarshalSafeArray(vt, sub),
		loss:    ec.loss,
	}
	return applyIndirection(c, native, req, false), nil
}

// safeArrayElemVT decides the VARENUM the safearray marshal records for
// its elements. Builtins keep their own tag; enums collapse to i4 with no
// subtype; other user-defined elements name their managed type.
func (cx *Context) safeArrayElemVT(elem typelib.TypeDesc, ec converted, declaring typelib.TypeInfo) (uint16, string, error) {
	leaf, _, _, err := elem.Indirection()
	if err != nil {
		return 0, "", err
	}
	if leaf.VT != typelib.VTUserDefined {
		return uint16(leaf.VT), "", nil
	}
	ti, err := declaring.RefTypeInfo(leaf.Ref)
	if err != nil {
		return 0, "", err
	}
	for hops := 0; ; hops++ {
		if hops > maxAliasHops {
			return 0, "", fmt.Errorf("alias chain too deep at %s", ti.Name())
		}
		attr, err := ti.Attr()
		if err != nil {
			return 0, "", err
		}
		switch attr.Kind {
		case typelib.TKindAlias:
			if attr.Alias == nil {
				return 0, "", fmt.Errorf("alias %s has no target descriptor", ti.Name())
			}
			aleaf, _, _, err := attr.Alias.Indirection()
			if err != nil {
				return 0, "", err
			}
			if aleaf.VT != typelib.VTUserDefined {
				return uint16(aleaf.VT), "", nil
			}
			ti, err = ti.RefTypeInfo(aleaf.Ref)
			if err != nil {
				return 0, "", err
			}
		case typelib.TKindEnum:
			return uint16(typelib.VTI4), "", nil
		case typelib.TKindRecord, typelib.TKindUnion:
			return uint16(typelib.VTRecord), ec.typ.Elem.Name, nil
		case typelib.TKindDispatch:
			return uint16(typelib.VTDispatch), ec.typ.Elem.Name, nil
		default:
			return uint16(typelib.VTUnknown), ec.typ.Elem.Name, nil
		}
	}
}

func (cx *Context) convertCArray(leaf typelib.TypeDesc, native int, req convReq) (converted, error) {
	if leaf.Elem == nil {
		return converted{}, fmt.Errorf("fixed array with no element type")
	}
	elemReq := req
	elemReq.site = siteElement
	elemReq.flags = 0
	elemReq.newEnum = false
	ec, err := cx.convertType(*leaf.Elem, elemReq)
	if err != nil {
		return converted{}, err
	}
	c := converted{typ: ec.typ.MakeArray(), loss: ec.loss}
	if req.site == siteField {
		c.marshal = metadata.MarshalByValArray(leaf.ElemCount())
	} else {
		c.marshal = metadata.Marshal(metadata.UTLPArray)
	}
	return applyIndirection(c, native, req, false), nil
}

func (cx *Context) convertUserDefined(ref typelib.RefID, native int, req convReq) (converted, error) {
	ti, err := req.declaring.RefTypeInfo(ref)
	if err != nil {
		return converted{}, err
	}
	return cx.convertNamed(ti, native, req)
}

// convertNamed converts a use of a named type. The well-known identities
// (IUnknown, IDispatch, the stdole GUID record) rewrite structurally;
// everything else goes through a converter.
func (cx *Context) convertNamed(ti typelib.TypeInfo, native int, req convReq) (converted, error) {
	attr, err := ti.Attr()
	if err != nil {
		return converted{}, err
	}

	switch attr.GUID {
	case typelib.IIDIUnknown:
		c := enumeratorOr(req, metadata.Object, metadata.Marshal(metadata.UTIUnknown))
		return applyIndirection(c, native, req, false), nil
	case typelib.IIDIDispatch:
		c := enumeratorOr(req, metadata.Object, metadata.Marshal(metadata.UTIDispatch))
		return applyIndirection(c, native, req, false), nil
	case typelib.IIDIEnumVariant:
		if req.newEnum {
			c := converted{
				typ:     metadata.IEnumerator,
				marshal: metadata.MarshalCustom(metadata.EnumeratorMarshaler, ""),
			}
			return applyIndirection(c, native, req, false), nil
		}
	}

	if attr.Kind == typelib.TKindRecord &&
		ti.Lib().Attr().GUID == typelib.TypeLibIDStdOle &&
		ti.Name() == typelib.StdOleGUIDTypeName {
		return applyIndirection(converted{typ: metadata.GuidVal}, native, req, true), nil
	}

	switch attr.Kind {
	case typelib.TKindAlias:
		return cx.convertAlias(ti, attr, native, req)
	case typelib.TKindCoClass:
		return cx.convertCoClassUse(ti, native, req)
	case typelib.TKindInterface, typelib.TKindDispatch:
		conv, err := cx.converterFor(ti, names.KindInterface)
		if err != nil {
			return converted{}, err
		}
		if !conv.external {
			if owner := cx.classMap.exclusiveOwner(ti, attr); owner != nil {
				conv = owner
			}
		}
		return cx.converterUse(conv, native, req, false)
	case typelib.TKindEnum:
		conv, err := cx.converterFor(ti, names.KindEnum)
		if err != nil {
			return converted{}, err
		}
		return cx.converterUse(conv, native, req, true)
	case typelib.TKindRecord:
		conv, err := cx.converterFor(ti, names.KindStruct)
		if err != nil {
			return converted{}, err
		}
		return cx.converterUse(conv, native, req, true)
	case typelib.TKindUnion:
		conv, err := cx.converterFor(ti, names.KindUnion)
		if err != nil {
			return converted{}, err
		}
		return cx.converterUse(conv, native, req, true)
	}
	return converted{}, fmt.Errorf("%s %s cannot be used as a type", attr.Kind, ti.Name())
}

// converterUse turns a converter into a signature reference. Value types
// referenced without indirection from a field must finish creating first
// so the containing layout is complete.
func (cx *Context) converterUse(conv *converter, native int, req convReq, valueKind bool) (converted, error) {
	if err := conv.define(cx); err != nil {
		return converted{}, err
	}
	if valueKind && req.site == siteField && native == 0 && !conv.external {
		if err := conv.ensureCreated(cx); err != nil {
			return converted{}, err
		}
	}
	r, err := conv.ref()
	if err != nil {
		return converted{}, err
	}
	return applyIndirection(converted{typ: r}, native, req, false), nil
}

// convertCoClassUse substitutes a coclass spelled in a signature. Local
// classes read as their default interface (which exclusivity may further
// rewrite to the class interface); classes with no default collapse to
// object. Foreign classes read as their external class interface.
func (cx *Context) convertCoClassUse(ti typelib.TypeInfo, native int, req convReq) (converted, error) {
	ci, err := cx.converterFor(ti, names.KindClassInterface)
	if err != nil {
		return converted{}, err
	}
	if ci.external {
		return cx.converterUse(ci, native, req, false)
	}
	d := ci.defaultIface
	if d == nil {
		c := converted{typ: metadata.Object, marshal: metadata.Marshal(metadata.UTIUnknown)}
		return applyIndirection(c, native, req, false), nil
	}
	if dti := d.ti; dti != nil {
		if dattr, aerr := dti.Attr(); aerr == nil {
			if owner := cx.classMap.exclusiveOwner(dti, dattr); owner != nil {
				return cx.converterUse(owner, native, req, false)
			}
		}
	}
	return cx.converterUse(d, native, req, false)
}

// applyIndirection folds the remaining native pointers into the managed
// shape. native counts every native pointer including the one implied by
// pointer-like leaves. guidLike marks the two OLE structs (GUID, DECIMAL)
// that survive one extra level as LPStruct.
func applyIndirection(c converted, native int, req convReq, guidLike bool) converted {
	st := req.site
	if st == siteRetValParam {
		// the retval out-pointer itself vanishes in the promotion
		if native > 0 {
			native--
		}
		st = siteReturn
	}
	if c.typ.Shape == metadata.ShapeValue {
		return valueIndirection(c, native, st, guidLike)
	}
	return referenceIndirection(c, native, st)
}

func valueIndirection(c converted, native int, st site, guidLike bool) converted {
	switch {
	case native == 0:
		return c
	case st == siteParameter || st == siteVarArg:
		if native == 1 {
			c.typ = c.typ.MakeByRef()
			return c
		}
		if native == 2 && guidLike {
			c.typ = c.typ.MakeByRef()
			c.marshal = metadata.Marshal(metadata.UTLPStruct)
			return c
		}
	case st == siteField:
		if native == 1 && guidLike {
			c.marshal = metadata.Marshal(metadata.UTLPStruct)
			return c
		}
	}
	return converted{typ: metadata.IntPtr, loss: true, alias: c.alias}
}

func referenceIndirection(c converted, native int, st site) converted {
	switch st {
	case siteParameter, siteVarArg:
		switch {
		case native <= 1:
			return c
		case native == 2:
			c.typ = c.typ.MakeByRef()
			return c
		}
	default:
		if native <= 1 {
			return c
		}
	}
	return converted{typ: metadata.IntPtr, loss: true, alias: c.alias}
}
