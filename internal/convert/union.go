package convert

import (
	"fmt"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/typelib"
)

func defineUnion(cx *Context, c *converter) error {
	attr, err := c.ti.Attr()
	if err != nil {
		return err
	}
	tattrs := metadata.TypePublic | metadata.TypeSealed | metadata.TypeExplicitLayout
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

// createUnion overlays every arm at offset zero. Reference-shaped arms
// have no verifiable overlapped layout and collapse to IntPtr.
func createUnion(cx *Context, c *converter) error {
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
			diag.ReportWarning(cx.Reporter, diag.ConvUnconvertableField, origin.In(name),
				fmt.Sprintf("field %s cannot be converted: %v", name, cerr)).Emit()
			fc = converted{typ: metadata.IntPtr, loss: true}
		}
		if fc.typ.Shape == metadata.ShapeReference {
			diag.ReportWarning(cx.Reporter, diag.ConvLossyConversion, origin.In(name),
				fmt.Sprintf("union arm %s is not a value type and was replaced by IntPtr", name)).Emit()
			fc = converted{typ: metadata.IntPtr, loss: true, alias: fc.alias}
		}
		f, err := c.def.DefineField(name, fc.typ, metadata.FieldPublic)
		if err != nil {
			return err
		}
		f.Marshal = fc.marshal
		f.SetOffset(0)
		if fc.alias != "" {
			f.SetCustomAttribute(metadata.AttrComAliasName(fc.alias))
		}
		if fc.loss {
			f.SetCustomAttribute(metadata.AttrComConversionLoss())
			c.markLoss()
		}
	}
	return c.def.Create()
}
