package convert

import (
	"fmt"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/typelib"
)

func defineEnum(cx *Context, c *converter) error {
	attr, err := c.ti.Attr()
	if err != nil {
		return err
	}
	parent := metadata.EnumBase
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

func createEnum(cx *Context, c *converter) error {
	attr, err := c.ti.Attr()
	if err != nil {
		return err
	}
	if _, err := c.def.DefineField("value__", metadata.Int32, metadata.FieldPublic); err != nil {
		return err
	}
	origin := diag.Type(cx.Lib.Name(), c.name)
	self := c.def.Ref()
	for i := 0; i < attr.Vars; i++ {
		vd, err := c.ti.VarDesc(i)
		if err != nil {
			return err
		}
		if vd.Kind != typelib.VarConst {
			continue
		}
		name := varName(c.ti, i, vd)
		f, err := c.def.DefineField(name, self, metadata.FieldPublic|metadata.FieldStatic|metadata.FieldLiteral)
		if err != nil {
			return err
		}
		val := int64(0)
		if vd.Value != nil {
			if vd.Value.IsString() {
				diag.ReportInfo(cx.Reporter, diag.ClsSetConstantFailed, origin.In(name),
					fmt.Sprintf("value of %s is not integral and was dropped", name)).Emit()
				continue
			}
			val = vd.Value.Int()
		}
		if err := f.SetConstant(metadata.ConstOfInt(val)); err != nil {
			diag.ReportInfo(cx.Reporter, diag.ClsSetConstantFailed, origin.In(name),
				fmt.Sprintf("value of %s could not be applied: %v", name, err)).Emit()
		}
	}
	return c.def.Create()
}
