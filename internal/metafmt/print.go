// Package metafmt renders an assembly model as text for the dump command
// and for golden tests.
package metafmt

import (
	"fmt"
	"io"
	"strings"

	"tlbimp/internal/metadata"
)

// Printer dumps assembly metadata to text format.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a printer over w.
func NewPrinter(w io.Writer) *Printer { return &Printer{w: w} }

// Dump writes the whole assembly to w.
func Dump(w io.Writer, a *metadata.Assembly) error {
	return NewPrinter(w).PrintAssembly(a)
}

// PrintAssembly prints the assembly header and every type definition.
func (p *Printer) PrintAssembly(a *metadata.Assembly) error {
	p.printf("assembly %s v%s\n", a.Name, a.Version)
	p.printf("libid %s typelib %d.%d", a.LibID, a.TypeLibMajor, a.TypeLibMinor)
	if a.Arch != "" {
		p.printf(" arch %s", a.Arch)
	}
	if a.Primary {
		p.printf(" primary")
	}
	p.printf("\n")
	if a.ImportedFrom != "" {
		p.printf("source %s\n", a.ImportedFrom)
	}
	for _, attr := range a.CustomAttrs {
		p.printf("attr %s\n", attr)
	}
	for _, t := range a.Types() {
		p.printf("\n")
		p.PrintType(t)
	}
	return nil
}

// PrintType prints one type definition with members.
func (p *Printer) PrintType(t *metadata.TypeDef) {
	p.printf("type %s <%s>", t.Name, t.Attrs)
	if t.Parent != nil {
		p.printf(" : %s", t.Parent.Name)
	}
	for i, impl := range t.Impls {
		if i == 0 {
			p.printf(" impl ")
		} else {
			p.printf(", ")
		}
		p.printf("%s", impl.Name)
	}
	if t.Pack != 0 {
		p.printf(" (pack=%d)", t.Pack)
	}
	p.printf("\n")
	for _, attr := range t.CustomAttrs {
		p.printf("  attr %s\n", attr)
	}
	for _, f := range t.Fields {
		p.printField(f)
	}
	for _, m := range t.Methods {
		p.printMethod(m)
	}
	for _, prop := range t.Props {
		p.printProp(prop)
	}
	for _, ev := range t.Events {
		p.printEvent(ev)
	}
	for _, o := range t.Overrides {
		p.printf("  override %s -> %s.%s\n", o.Body.Name, o.Decl.Name, o.Name)
	}
}

func (p *Printer) printField(f *metadata.Field) {
	p.printf("  field %s: %s", f.Name, f.Type)
	if s := f.Attrs.String(); s != "" {
		p.printf(" <%s>", s)
	}
	if f.Const != nil {
		p.printf(" = %s", f.Const)
	}
	if f.Offset != nil {
		p.printf(" @%d", *f.Offset)
	}
	if f.Marshal != nil {
		p.printf(" {%s}", f.Marshal)
	}
	for _, attr := range f.CustomAttrs {
		p.printf(" %s", attr)
	}
	p.printf("\n")
}

func (p *Printer) printMethod(m *metadata.Method) {
	p.printf("  fn %s(", m.Name)
	for i, arg := range m.Params {
		if i > 0 {
			p.printf(", ")
		}
		p.printParam(arg)
	}
	p.printf(")")
	if !m.Return.Type.IsVoid() {
		p.printf(" -> %s", m.Return.Type)
		if m.Return.Marshal != nil {
			p.printf(" {%s}", m.Return.Marshal)
		}
	}
	var marks []string
	if m.Slot >= 0 {
		marks = append(marks, fmt.Sprintf("slot=%d", m.Slot))
	}
	if m.DispID != nil {
		marks = append(marks, fmt.Sprintf("dispid=%d", *m.DispID))
	}
	if len(marks) > 0 {
		p.printf(" (%s)", strings.Join(marks, ", "))
	}
	if s := methodFlags(m); s != "" {
		p.printf(" [%s]", s)
	}
	for _, attr := range m.CustomAttrs {
		p.printf(" %s", attr)
	}
	p.printf("\n")
}

func (p *Printer) printParam(arg metadata.Param) {
	if arg.Name != "" {
		p.printf("%s: ", arg.Name)
	}
	p.printf("%s", arg.Type)
	if s := arg.Attrs.String(); s != "" {
		p.printf(" [%s]", s)
	}
	if arg.Marshal != nil {
		p.printf(" {%s}", arg.Marshal)
	}
	if arg.Default != nil {
		p.printf(" = %s", arg.Default)
	}
}

func (p *Printer) printProp(prop *metadata.Property) {
	p.printf("  prop %s: %s", prop.Name, prop.Type)
	if prop.DispID != nil {
		p.printf(" (dispid=%d)", *prop.DispID)
	}
	if prop.Getter != nil {
		p.printf(" get=%s", prop.Getter.Name)
	}
	if prop.Setter != nil {
		p.printf(" set=%s", prop.Setter.Name)
	}
	for _, attr := range prop.CustomAttrs {
		p.printf(" %s", attr)
	}
	p.printf("\n")
}

func (p *Printer) printEvent(ev *metadata.Event) {
	p.printf("  event %s: %s", ev.Name, ev.Type.Name)
	if ev.Add != nil {
		p.printf(" add=%s", ev.Add.Name)
	}
	if ev.Remove != nil {
		p.printf(" remove=%s", ev.Remove.Name)
	}
	p.printf("\n")
}

func methodFlags(m *metadata.Method) string {
	var out []string
	if m.Attrs.Has(metadata.MethodStatic) {
		out = append(out, "static")
	}
	if m.Attrs.Has(metadata.MethodSpecialName) {
		out = append(out, "specialname")
	}
	if m.Impl.Has(metadata.ImplPreserveSig) {
		out = append(out, "preservesig")
	}
	if m.Impl.Has(metadata.ImplRuntime) {
		out = append(out, "runtime")
	}
	return strings.Join(out, " ")
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// TypeString returns the one-line header of a definition, for listings.
func TypeString(t *metadata.TypeDef) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <%s>", t.Name, t.Attrs)
	if t.Parent != nil {
		fmt.Fprintf(&sb, " : %s", t.Parent.Name)
	}
	return sb.String()
}
