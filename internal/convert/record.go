package convert

import (
	"fmt"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/typelib"
)

func defineRecord(cx *Context, c *converter) error {
	attr, err := c.ti.Attr()
	if err != nil {
		return err
	}
	tattrs := metadata.TypePublic | metadata.TypeSealed | metadata.TypeSequentialLayout
	if cx.Opts.SerializableValueClasses {
		tattrs |= metadata.TypeSerializable
	}
	parent := metadata.ValueType
	def, err := cx.Asm.DefineType(c.name, tattrs, &parent, nil)
	if err != nil {
		return err
	}
	c.def = def
	def.Pack = attr.Alignment
	if !attr.GUID.IsZero() {
		def.SetCustomAttribute(metadata.AttrGuid(attr.GUID))
	}
	if attr.Flags != 0 {
		def.SetCustomAttribute(metadata.AttrTypeLibType(uint16(attr.Flags)))
	}
	if cx.Opts.SerializableValueClasses {
		def.SetCustomAttribute(metadata.AttrSerializable())
	}
	return nil
}

func createRecord(cx *Context, c *converter) error {
	attr, err := c.ti.Attr()
	if err != nil {
		return err
	}
	origin := diag.Type(cx.Lib.Name(), c.name)
	for i := 0; i < attr.Vars; i++ {
		vd, err := c.ti.VarDesc(i)
		if err != nil {
			return err
		}
		if vd.Kind != typelib.VarPerInstance {
			continue
		}
		name := varName(c.ti, i, vd)
		fc, cerr := cx.convertType(vd.Type,
			convReq{declaring: c.ti, origin: origin.In(name), site: siteField})
		if cerr != nil {
			// the layout must stay intact, so the slot goes opaque
			diag.ReportWarning(cx.Reporter, diag.ConvUnconvertableField, origin.In(name),
				fmt.Sprintf("field %s cannot be converted: %v", name, cerr)).Emit()
			fc = converted{typ: metadata.IntPtr, loss: true}
		}
		f, err := c.def.DefineField(name, fc.typ, metadata.FieldPublic)
		if err != nil {
			return err
		}
		f.Marshal = fc.marshal
		if fc.alias != "" {
			f.SetCustomAttribute(metadata.AttrComAliasName(fc.alias))
		}
		if fc.loss {
			if cerr == nil {
				diag.ReportWarning(cx.Reporter, diag.ConvLossyConversion, origin.In(name),
					fmt.Sprintf("field %s converted with loss of information", name)).Emit()
			}
			f.SetCustomAttribute(metadata.AttrComConversionLoss())
			c.markLoss()
		}
	}
	return c.def.Create()
}
