package convert

import (
	"tlbimp/internal/metadata"
	"tlbimp/internal/names"
	"tlbimp/internal/typelib"
)

// convState tracks how far a converter has progressed. A type is first
// registered (name reserved), then defined (skeleton emitted), then
// created (members emitted and the definition sealed). External types
// are born created since their assembly already exists.
type convState uint8

const (
	stateRegistered convState = iota
	stateDefined
	stateCreating
	stateCreated
	stateFailed
)

func (s convState) String() string {
	switch s {
	case stateRegistered:
		return "registered"
	case stateDefined:
		return "defined"
	case stateCreating:
		return "creating"
	case stateCreated:
		return "created"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// converter is the per-type record of the import. One source type can
// own several converters (a coclass owns the class kind and the class
// interface kind), each emitting one managed type.
type converter struct {
	kind     names.Kind
	name     string
	ti       typelib.TypeInfo
	external bool
	st       convState

	def    *metadata.TypeDef // local converters, once defined
	ext    metadata.Type     // external converters
	extDef *metadata.TypeDef // the definition inside the external assembly

	// interfaces
	face   typelib.TypeInfo // v-table face when ti is the dispatch half of a dual
	flavor metadata.ComInterfaceType
	plan   *memberPlan

	// class interfaces and coclasses
	coclass       *converter
	classIface    *converter
	defaultIface  *converter
	defaultSource typelib.TypeInfo
	sourceFaces   []typelib.TypeInfo
	implConvs     []*converter

	// event interfaces
	provider string
}

// ref returns the type reference used in signatures. Valid once the
// converter is defined.
func (c *converter) ref() (metadata.Type, error) {
	if c.external {
		return c.ext, nil
	}
	if c.def == nil {
		return metadata.Type{}, internalf("type %s referenced before definition", c.name)
	}
	return c.def.Ref(), nil
}

// define emits the type skeleton. Idempotent.
func (c *converter) define(cx *Context) error {
	if c.external {
		return nil
	}
	switch c.st {
	case stateDefined, stateCreating, stateCreated:
		return nil
	case stateFailed:
		return skipType(c.name, errSkipped)
	}
	var err error
	switch c.kind {
	case names.KindInterface:
		err = defineInterface(cx, c)
	case names.KindClassInterface:
		err = defineClassInterface(cx, c)
	case names.KindEventInterface:
		err = defineEventInterface(cx, c)
	case names.KindCoClass:
		err = defineCoClass(cx, c)
	case names.KindStruct:
		err = defineRecord(cx, c)
	case names.KindUnion:
		err = defineUnion(cx, c)
	case names.KindEnum:
		err = defineEnum(cx, c)
	case names.KindModule:
		err = defineModule(cx, c)
	default:
		err = internalf("no define step for kind %s", c.kind)
	}
	if err != nil {
		c.st = stateFailed
		return skipType(c.name, err)
	}
	c.st = stateDefined
	return nil
}

// create emits the members and seals the managed type. Recursion into a
// type that is mid-create means the dependency walk is broken, which is
// a bug rather than bad input.
func (c *converter) create(cx *Context) error {
	if c.external {
		return nil
	}
	switch c.st {
	case stateCreated:
		return nil
	case stateCreating:
		return internalf("recursive creation of %s", c.name)
	case stateFailed:
		return skipType(c.name, errSkipped)
	case stateRegistered:
		if err := c.define(cx); err != nil {
			return err
		}
	}
	c.st = stateCreating
	var err error
	switch c.kind {
	case names.KindInterface:
		err = createInterface(cx, c)
	case names.KindClassInterface:
		err = createClassInterface(cx, c)
	case names.KindEventInterface:
		err = createEventInterface(cx, c)
	case names.KindCoClass:
		err = createCoClass(cx, c)
	case names.KindStruct:
		err = createRecord(cx, c)
	case names.KindUnion:
		err = createUnion(cx, c)
	case names.KindEnum:
		err = createEnum(cx, c)
	case names.KindModule:
		err = createModule(cx, c)
	default:
		err = internalf("no create step for kind %s", c.kind)
	}
	if err != nil {
		c.st = stateFailed
		return skipType(c.name, err)
	}
	c.st = stateCreated
	return nil
}

// ensureCreated finishes a dependency in place. Fields of value type
// need their definition complete before the containing record can seal.
func (c *converter) ensureCreated(cx *Context) error {
	return c.create(cx)
}

// markLoss stamps the conversion-loss attribute on the managed type,
// once.
func (c *converter) markLoss() {
	if c.def == nil || c.lossMarked() {
		return
	}
	c.def.SetCustomAttribute(metadata.AttrComConversionLoss())
}

func (c *converter) lossMarked() bool {
	for _, a := range c.def.CustomAttrs {
		if a.Type == "System.Runtime.InteropServices.ComConversionLossAttribute" {
			return true
		}
	}
	return false
}
