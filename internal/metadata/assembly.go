package metadata

import (
	"fmt"

	"tlbimp/internal/guid"
)

// TypeState tracks the define/create lifecycle of a TypeDef.
type TypeState uint8

const (
	// StateDefined means the skeleton exists; members may still be added
	// and the type is referencable by name.
	StateDefined TypeState = iota
	// StateCreated means the body is final; further definition is an error.
	StateCreated
)

func (s TypeState) String() string {
	if s == StateCreated {
		return "created"
	}
	return "defined"
}

// Assembly is the metadata model under construction. Definition is eager:
// a type is referencable by name as soon as DefineType returns, before its
// body is created.
type Assembly struct {
	Name    string
	Version string
	// LibID and the typelib version echo the source library identity.
	LibID        guid.GUID
	TypeLibMajor uint16
	TypeLibMinor uint16
	ImportedFrom string
	Arch         string
	Primary      bool
	CustomAttrs  []CustomAttr

	types  []*TypeDef
	byName map[string]*TypeDef
}

// NewAssembly starts an empty assembly model.
func NewAssembly(name, version string) *Assembly {
	return &Assembly{
		Name:    name,
		Version: version,
		byName:  make(map[string]*TypeDef),
	}
}

// DefineType adds a type skeleton. parent is nil for interfaces; impls
// lists implemented interface references in declaration order.
func (a *Assembly) DefineType(name string, attrs TypeAttrs, parent *Type, impls []Type) (*TypeDef, error) {
	if name == "" {
		return nil, fmt.Errorf("metadata: empty type name")
	}
	if _, exists := a.byName[name]; exists {
		return nil, fmt.Errorf("metadata: type %s defined twice", name)
	}
	t := &TypeDef{
		asm:    a,
		Name:   name,
		Attrs:  attrs,
		Parent: parent,
		Impls:  impls,
	}
	a.types = append(a.types, t)
	a.byName[name] = t
	return t, nil
}

// Type looks up a defined type by full name; nested names use '+'.
func (a *Assembly) Type(fullName string) (*TypeDef, bool) {
	t, ok := a.byName[fullName]
	return t, ok
}

// Types returns the definitions in definition order.
func (a *Assembly) Types() []*TypeDef { return a.types }

// SetCustomAttribute attaches an assembly-level attribute.
func (a *Assembly) SetCustomAttribute(attr CustomAttr) {
	a.CustomAttrs = append(a.CustomAttrs, attr)
}

// Param is one parameter (or the return slot) of a method.
type Param struct {
	Name        string
	Type        Type
	Attrs       ParamAttrs
	Marshal     *MarshalInfo
	Default     *Constant
	CustomAttrs []CustomAttr
}

// AddCustomAttribute appends an attribute; Param is a value type, so the
// caller mutates its own copy before handing it to a define call.
func (p *Param) AddCustomAttribute(a CustomAttr) {
	p.CustomAttrs = append(p.CustomAttrs, a)
}

// Method is a defined managed method.
type Method struct {
	Name   string
	Attrs  MethodAttrs
	Impl   MethodImpl
	Return Param
	Params []Param
	// DispID is the attached dispatch id, nil when none.
	DispID *int32
	// Slot is the v-table slot, -1 when the method is not slot-addressed.
	Slot        int
	Ctor        bool
	CustomAttrs []CustomAttr
}

// SetCustomAttribute attaches an attribute to the method.
func (m *Method) SetCustomAttribute(attr CustomAttr) {
	m.CustomAttrs = append(m.CustomAttrs, attr)
}

// SetDispID attaches a dispatch id.
func (m *Method) SetDispID(id int32) { m.DispID = &id }

// Field is a defined managed field.
type Field struct {
	Name    string
	Type    Type
	Attrs   FieldAttrs
	Marshal *MarshalInfo
	Const   *Constant
	// Offset is the explicit layout offset, nil for sequential layout.
	Offset      *uint32
	CustomAttrs []CustomAttr
}

// SetCustomAttribute attaches an attribute to the field.
func (f *Field) SetCustomAttribute(attr CustomAttr) {
	f.CustomAttrs = append(f.CustomAttrs, attr)
}

// SetOffset pins the field at an explicit layout offset.
func (f *Field) SetOffset(off uint32) { f.Offset = &off }

// SetConstant records the literal value. Failures surface to the caller
// so it can decide whether the loss is tolerable.
func (f *Field) SetConstant(c *Constant) error {
	if c == nil {
		return fmt.Errorf("metadata: nil constant for field %s", f.Name)
	}
	if !f.Attrs.Has(FieldLiteral) {
		return fmt.Errorf("metadata: field %s is not literal", f.Name)
	}
	f.Const = c
	return nil
}

// Property groups accessors under one name.
type Property struct {
	Name        string
	Type        Type
	DispID      *int32
	Getter      *Method
	Setter      *Method
	CustomAttrs []CustomAttr
}

// SetCustomAttribute attaches an attribute to the property.
func (p *Property) SetCustomAttribute(attr CustomAttr) {
	p.CustomAttrs = append(p.CustomAttrs, attr)
}

// SetDispID attaches a dispatch id.
func (p *Property) SetDispID(id int32) { p.DispID = &id }

// Event pairs a delegate type with its add/remove accessors.
type Event struct {
	Name        string
	Type        Type
	Add         *Method
	Remove      *Method
	DispID      *int32
	CustomAttrs []CustomAttr
}

// SetCustomAttribute attaches an attribute to the event.
func (e *Event) SetCustomAttribute(attr CustomAttr) {
	e.CustomAttrs = append(e.CustomAttrs, attr)
}

// SetDispID attaches a dispatch id.
func (e *Event) SetDispID(id int32) { e.DispID = &id }

// Override records that a method body implements a declaration from an
// implemented interface.
type Override struct {
	Body *Method
	Decl Type
	Name string
}

// TypeDef is one managed type under construction.
type TypeDef struct {
	asm    *Assembly
	Name   string
	Attrs  TypeAttrs
	Parent *Type
	Impls  []Type
	// Pack is the struct packing, 0 for default.
	Pack        uint16
	Methods     []*Method
	Fields      []*Field
	Props       []*Property
	Events      []*Event
	Overrides   []Override
	CustomAttrs []CustomAttr

	state TypeState
}

// State returns the lifecycle state.
func (t *TypeDef) State() TypeState { return t.state }

// Ref returns a reference to this definition, with the shape implied by
// the definition flags and parent.
func (t *TypeDef) Ref() Type {
	return Type{Name: t.Name, Shape: t.shape()}
}

func (t *TypeDef) shape() Shape {
	if t.Attrs.Has(TypeInterface) {
		return ShapeReference
	}
	if p := t.Parent; p != nil {
		if p.Name == ValueType.Name || p.Name == EnumBase.Name {
			return ShapeValue
		}
	}
	return ShapeReference
}

// IsValueType reports whether the definition derives from System.ValueType
// or System.Enum.
func (t *TypeDef) IsValueType() bool { return t.shape() == ShapeValue }

func (t *TypeDef) mutable(op string) error {
	if t.state == StateCreated {
		return fmt.Errorf("metadata: %s on created type %s", op, t.Name)
	}
	return nil
}

// DefineMethod adds a method to the skeleton.
func (t *TypeDef) DefineMethod(name string, attrs MethodAttrs, impl MethodImpl, ret Param, params []Param) (*Method, error) {
	if err := t.mutable("DefineMethod"); err != nil {
		return nil, err
	}
	m := &Method{
		Name:   name,
		Attrs:  attrs,
		Impl:   impl,
		Return: ret,
		Params: params,
		Slot:   -1,
	}
	t.Methods = append(t.Methods, m)
	return m, nil
}

// DefineConstructor adds a constructor.
func (t *TypeDef) DefineConstructor(attrs MethodAttrs, impl MethodImpl, params []Param) (*Method, error) {
	if err := t.mutable("DefineConstructor"); err != nil {
		return nil, err
	}
	m := &Method{
		Name:   ".ctor",
		Attrs:  attrs | MethodSpecialName | MethodRTSpecialName,
		Impl:   impl,
		Return: Param{Type: Void},
		Params: params,
		Slot:   -1,
		Ctor:   true,
	}
	t.Methods = append(t.Methods, m)
	return m, nil
}

// DefineField adds a field.
func (t *TypeDef) DefineField(name string, typ Type, attrs FieldAttrs) (*Field, error) {
	if err := t.mutable("DefineField"); err != nil {
		return nil, err
	}
	f := &Field{Name: name, Type: typ, Attrs: attrs}
	t.Fields = append(t.Fields, f)
	return f, nil
}

// DefineProperty adds a property; accessors attach afterwards.
func (t *TypeDef) DefineProperty(name string, typ Type) (*Property, error) {
	if err := t.mutable("DefineProperty"); err != nil {
		return nil, err
	}
	p := &Property{Name: name, Type: typ}
	t.Props = append(t.Props, p)
	return p, nil
}

// DefineEvent adds an event of the given delegate type.
func (t *TypeDef) DefineEvent(name string, typ Type) (*Event, error) {
	if err := t.mutable("DefineEvent"); err != nil {
		return nil, err
	}
	e := &Event{Name: name, Type: typ}
	t.Events = append(t.Events, e)
	return e, nil
}

// DefineOverride records that body implements decl's method name.
func (t *TypeDef) DefineOverride(body *Method, decl Type, name string) error {
	if err := t.mutable("DefineOverride"); err != nil {
		return err
	}
	if body == nil {
		return fmt.Errorf("metadata: nil override body on %s", t.Name)
	}
	t.Overrides = append(t.Overrides, Override{Body: body, Decl: decl, Name: name})
	return nil
}

// SetCustomAttribute attaches an attribute to the type.
func (t *TypeDef) SetCustomAttribute(attr CustomAttr) {
	t.CustomAttrs = append(t.CustomAttrs, attr)
}

// FindMethod locates a method by name and exact parameter types.
func (t *TypeDef) FindMethod(name string, params []Type) (*Method, bool) {
	for _, m := range t.Methods {
		if m.Name != name || len(m.Params) != len(params) {
			continue
		}
		match := true
		for i := range params {
			if !m.Params[i].Type.Equal(params[i]) {
				match = false
				break
			}
		}
		if match {
			return m, true
		}
	}
	return nil, false
}

// Method locates a method by name alone, first match wins.
func (t *TypeDef) Method(name string) (*Method, bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Create finalizes the type. The parent, when it lives in this assembly,
// must itself be defined; creating twice is an error.
func (t *TypeDef) Create() error {
	if t.state == StateCreated {
		return fmt.Errorf("metadata: type %s created twice", t.Name)
	}
	if p := t.Parent; p != nil && p.Assembly == "" {
		if _, ok := t.asm.byName[p.Name]; !ok {
			return fmt.Errorf("metadata: parent %s of %s is not defined", p.Name, t.Name)
		}
	}
	t.state = StateCreated
	return nil
}
