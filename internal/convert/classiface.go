package convert

import (
	"tlbimp/internal/metadata"
	"tlbimp/internal/names"
)

// The class interface is the empty managed interface carrying a coclass's
// doc name. It extends the default interface (and the default source's
// event interface, when there is one) so late-bound clients reach every
// member through the class name alone.

func defineClassInterface(cx *Context, c *converter) error {
	var impls []metadata.Type
	if d := c.defaultIface; d != nil {
		if err := d.define(cx); err != nil {
			return err
		}
		r, err := d.ref()
		if err != nil {
			return err
		}
		impls = append(impls, r)
	}
	if s := c.defaultSource; s != nil {
		ev, err := cx.converterFor(s, names.KindEventInterface)
		if err != nil {
			return err
		}
		if err := ev.define(cx); err != nil {
			return err
		}
		r, err := ev.ref()
		if err != nil {
			return err
		}
		impls = append(impls, r)
	}
	def, err := cx.Asm.DefineType(c.name,
		metadata.TypePublic|metadata.TypeInterface|metadata.TypeAbstract|metadata.TypeImport,
		nil, impls)
	if err != nil {
		return err
	}
	c.def = def
	if c.coclass != nil {
		def.SetCustomAttribute(metadata.AttrCoClass(c.coclass.name))
	}
	return nil
}

func createClassInterface(cx *Context, c *converter) error {
	return c.def.Create()
}
