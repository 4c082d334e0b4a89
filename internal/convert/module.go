package convert

import (
	"fmt"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/typelib"
)

func defineModule(cx *Context, c *converter) error {
	attr, err := c.ti.Attr()
	if err != nil {
		return err
	}
	parent := metadata.Object
	def, err := cx.Asm.DefineType(c.name, metadata.TypePublic|metadata.TypeSealed, &parent, nil)
	if err != nil {
		return err
	}
	c.def = def
	if !attr.GUID.IsZero() {
		def.SetCustomAttribute(metadata.AttrGuid(attr.GUID))
	}
	if attr.Flags != 0 {
		def.SetCustomAttribute(metadata.AttrTypeLibType(uint16(attr.Flags)))
	}
	return nil
}

// createModule lifts module constants into literal static fields. Module
// entry points have no managed equivalent without a DLL to bind them to,
// so functions are announced once and dropped.
func createModule(cx *Context, c *converter) error {
	attr, err := c.ti.Attr()
	if err != nil {
		return err
	}
	origin := diag.Type(cx.Lib.Name(), c.name)
	if attr.Funcs > 0 {
		diag.ReportWarning(cx.Reporter, diag.MemMethodsDropped, origin,
			fmt.Sprintf("%d module functions were not imported", attr.Funcs)).Emit()
	}
	for i := 0; i < attr.Vars; i++ {
		vd, err := c.ti.VarDesc(i)
		if err != nil {
			return err
		}
		if vd.Kind != typelib.VarConst {
			continue
		}
		name := varName(c.ti, i, vd)
		fc, cerr := cx.convertType(vd.Type,
			convReq{declaring: c.ti, origin: origin.In(name), site: siteReturn})
		if cerr != nil {
			diag.ReportWarning(cx.Reporter, diag.ConvUnconvertableField, origin.In(name),
				fmt.Sprintf("constant %s cannot be converted: %v", name, cerr)).Emit()
			continue
		}
		f, err := c.def.DefineField(name, fc.typ, metadata.FieldPublic|metadata.FieldStatic|metadata.FieldLiteral)
		if err != nil {
			return err
		}
		f.Marshal = fc.marshal
		if fc.alias != "" {
			f.SetCustomAttribute(metadata.AttrComAliasName(fc.alias))
		}
		if vd.Value == nil {
			continue
		}
		k := cx.constantFor(origin.In(name), fc.typ, *vd.Value)
		if k == nil {
			continue
		}
		if err := f.SetConstant(k); err != nil {
			diag.ReportInfo(cx.Reporter, diag.ClsSetConstantFailed, origin.In(name),
				fmt.Sprintf("value of %s could not be applied: %v", name, err)).Emit()
		}
	}
	return c.def.Create()
}
