package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"tlbimp/internal/typelib"
)

type browseModel struct {
	lib    typelib.TypeLibrary
	all    []typeItem
	items  []typeItem
	cursor int
	top    int
	filter string
	detail viewport.Model
	width  int
	height int
	ready  bool
}

type typeItem struct {
	name string
	kind typelib.TypeKind
	info typelib.TypeInfo
	err  error
}

// NewBrowseModel returns a Bubble Tea model that walks a type library:
// the type list on the left, the selected type's members on the right.
func NewBrowseModel(lib typelib.TypeLibrary) tea.Model {
	all := make([]typeItem, 0, lib.TypeInfoCount())
	for i := 0; i < lib.TypeInfoCount(); i++ {
		ti, err := lib.TypeInfo(i)
		if err != nil {
			all = append(all, typeItem{name: fmt.Sprintf("type #%d", i), err: err})
			continue
		}
		it := typeItem{name: ti.Name(), info: ti}
		if attr, err := ti.Attr(); err == nil {
			it.kind = attr.Kind
		} else {
			it.err = err
		}
		all = append(all, it)
	}
	return &browseModel{lib: lib, all: all, items: all}
}

// Browse runs the interactive browser over lib in the alternate screen.
func Browse(lib typelib.TypeLibrary) error {
	_, err := tea.NewProgram(NewBrowseModel(lib), tea.WithAltScreen()).Run()
	return err
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.detail = viewport.New(m.detailWidth(), m.bodyHeight())
			// Arrows drive the type list; the detail pane only takes the
			// paging keys.
			m.detail.KeyMap = viewport.KeyMap{
				PageUp:       key.NewBinding(key.WithKeys("pgup")),
				PageDown:     key.NewBinding(key.WithKeys("pgdown")),
				HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
				HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
			}
			m.ready = true
			m.refreshDetail()
		} else {
			m.detail.Width = m.detailWidth()
			m.detail.Height = m.bodyHeight()
		}
		m.clamp()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.filter != "" {
				m.filter = ""
				m.refilter()
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
			return m, nil
		case tea.KeyDown:
			m.move(1)
			return m, nil
		case tea.KeyHome:
			m.moveTo(0)
			return m, nil
		case tea.KeyEnd:
			m.moveTo(len(m.items) - 1)
			return m, nil
		case tea.KeyBackspace:
			if m.filter != "" {
				r := []rune(m.filter)
				m.filter = string(r[:len(r)-1])
				m.refilter()
			}
			return m, nil
		case tea.KeyRunes:
			if !msg.Alt {
				m.filter += string(msg.Runes)
				m.refilter()
			}
			return m, nil
		}
	}
	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *browseModel) View() string {
	if !m.ready {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	attr := m.lib.Attr()
	header := titleStyle.Render(m.lib.Name()) + " " + dimStyle.Render(fmt.Sprintf(
		"v%d.%d %s, %d types", attr.Major, attr.Minor, attr.SysKind, len(m.all)))

	rows := m.bodyHeight()
	lw := m.listWidth()
	selStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	var list strings.Builder
	for row := 0; row < rows; row++ {
		if row > 0 {
			list.WriteByte('\n')
		}
		i := m.top + row
		if i >= len(m.items) {
			continue
		}
		it := m.items[i]
		tag := kindTag(it.kind)
		if it.err != nil {
			tag = "!"
		}
		line := truncate(tag+" "+it.name, lw-2)
		if i == m.cursor {
			list.WriteString(selStyle.Render("> " + line))
		} else {
			list.WriteString("  " + line)
		}
	}
	listPane := lipgloss.NewStyle().Width(lw).Render(list.String())

	detailStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(lipgloss.Color("8")).
		PaddingLeft(1)
	body := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailStyle.Render(m.detail.View()))

	status := fmt.Sprintf("%d/%d", len(m.items), len(m.all))
	if m.filter != "" {
		status = fmt.Sprintf("filter: %s (%s)", m.filter, status)
	}
	hints := "up/down select   pgup/pgdn scroll   type to filter   esc quit"

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(status + "   " + hints))
	return b.String()
}

func (m *browseModel) move(delta int) {
	m.moveTo(m.cursor + delta)
}

func (m *browseModel) moveTo(i int) {
	if len(m.items) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i > len(m.items)-1 {
		i = len(m.items) - 1
	}
	if i == m.cursor {
		return
	}
	m.cursor = i
	m.clamp()
	m.refreshDetail()
}

// clamp keeps the cursor inside the visible window of the list pane.
func (m *browseModel) clamp() {
	rows := m.bodyHeight()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+rows {
		m.top = m.cursor - rows + 1
	}
	if m.top < 0 {
		m.top = 0
	}
}

func (m *browseModel) refilter() {
	needle := strings.ToLower(m.filter)
	if needle == "" {
		m.items = m.all
	} else {
		items := make([]typeItem, 0, len(m.all))
		for _, it := range m.all {
			if strings.Contains(strings.ToLower(it.name), needle) {
				items = append(items, it)
			}
		}
		m.items = items
	}
	m.cursor, m.top = 0, 0
	m.refreshDetail()
}

func (m *browseModel) refreshDetail() {
	if !m.ready {
		return
	}
	if len(m.items) == 0 {
		m.detail.SetContent("no types match")
	} else {
		m.detail.SetContent(m.renderDetail(m.items[m.cursor]))
	}
	m.detail.GotoTop()
}

func (m *browseModel) listWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	if w > 40 {
		w = 40
	}
	return w
}

func (m *browseModel) detailWidth() int {
	w := m.width - m.listWidth() - 3
	if w < 20 {
		w = 20
	}
	return w
}

func (m *browseModel) bodyHeight() int {
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	return h
}

func (m *browseModel) renderDetail(it typeItem) string {
	if it.err != nil {
		return fmt.Sprintf("%s\n\nunreadable: %v", it.name, it.err)
	}
	attr, err := it.info.Attr()
	if err != nil {
		return fmt.Sprintf("%s\n\nunreadable: %v", it.name, err)
	}
	headStyle := lipgloss.NewStyle().Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", headStyle.Render(it.name), attr.Kind)
	b.WriteString(dimStyle.Render(attr.GUID.String()) + "\n")
	if tags := typeTags(attr.Flags); tags != "" {
		fmt.Fprintf(&b, "flags %s\n", tags)
	}
	if attr.Kind == typelib.TKindAlias && attr.Alias != nil {
		fmt.Fprintf(&b, "alias of %s\n", descString(it.info, *attr.Alias))
	}
	if attr.VTableSize > 0 {
		fmt.Fprintf(&b, "vtable %d bytes, instance %d, align %d\n",
			attr.VTableSize, attr.InstanceSize, attr.Alignment)
	}

	if attr.Impls > 0 {
		b.WriteString("\nimplements\n")
		for i := 0; i < attr.Impls; i++ {
			ti, flags, err := it.info.ImplType(i)
			if err != nil {
				fmt.Fprintf(&b, "  #%d unresolved: %v\n", i, err)
				continue
			}
			line := "  " + ti.Name()
			if tags := implTags(flags); tags != "" {
				line += " " + dimStyle.Render("["+tags+"]")
			}
			b.WriteString(line + "\n")
		}
	}

	if attr.Funcs > 0 {
		b.WriteString("\nfunctions\n")
		for fn := 0; fn < attr.Funcs; fn++ {
			fd, err := it.info.FuncDesc(fn)
			if err != nil {
				fmt.Fprintf(&b, "  #%d unreadable: %v\n", fn, err)
				continue
			}
			b.WriteString("  " + funcLine(it.info, fd) + "\n")
		}
	}

	if attr.Vars > 0 {
		b.WriteString("\nvariables\n")
		for v := 0; v < attr.Vars; v++ {
			vd, err := it.info.VarDesc(v)
			if err != nil {
				fmt.Fprintf(&b, "  #%d unreadable: %v\n", v, err)
				continue
			}
			b.WriteString("  " + varLine(it.info, vd) + "\n")
		}
	}
	return b.String()
}

func funcLine(ti typelib.TypeInfo, fd typelib.FuncDesc) string {
	names := ti.Names(fd.MemberID, 0)
	name := "?"
	if len(names) > 0 {
		name = names[0]
	}
	params := make([]string, 0, len(fd.Params))
	for i, p := range fd.Params {
		pname := fmt.Sprintf("arg%d", i)
		if i+1 < len(names) {
			pname = names[i+1]
		}
		s := descString(ti, p.Type) + " " + pname
		if tags := paramTags(p.Flags); tags != "" {
			s = tags + " " + s
		}
		params = append(params, s)
	}
	if fd.IsVararg() && len(params) > 0 {
		params[len(params)-1] += " ..."
	}
	line := fmt.Sprintf("%s %s(%s)", fd.Invoke, name, strings.Join(params, ", "))
	if fd.Return.VT != typelib.VTVoid {
		line += " -> " + descString(ti, fd.Return)
	}
	line += fmt.Sprintf("  [id %d", fd.MemberID)
	if fd.VTableOffset > 0 {
		line += fmt.Sprintf(", vtbl %d", fd.VTableOffset)
	}
	return line + "]"
}

func varLine(ti typelib.TypeInfo, vd typelib.VarDesc) string {
	names := ti.Names(vd.MemberID, 1)
	name := "?"
	if len(names) > 0 {
		name = names[0]
	}
	if vd.Kind == typelib.VarConst {
		line := fmt.Sprintf("const %s %s", name, descString(ti, vd.Type))
		if vd.Value != nil {
			line += " = " + vd.Value.String()
		}
		return line
	}
	line := fmt.Sprintf("%s %s  [id %d]", name, descString(ti, vd.Type), vd.MemberID)
	if vd.ReadOnly() {
		line += " readonly"
	}
	return line
}

// descString renders a descriptor with referenced type names resolved,
// falling back to the raw ref id when the reference is broken.
func descString(ti typelib.TypeInfo, d typelib.TypeDesc) string {
	switch d.VT {
	case typelib.VTPtr, typelib.VTByRef:
		inner := "?"
		if d.Elem != nil {
			inner = descString(ti, *d.Elem)
		}
		if d.VT == typelib.VTByRef {
			return "byref(" + inner + ")"
		}
		return "ptr(" + inner + ")"
	case typelib.VTSafeArray:
		if d.Elem == nil {
			return "safearray"
		}
		return "safearray(" + descString(ti, *d.Elem) + ")"
	case typelib.VTCArray:
		if d.Elem == nil {
			return "carray"
		}
		return fmt.Sprintf("%s[%d]", descString(ti, *d.Elem), d.ElemCount())
	case typelib.VTUserDefined:
		ref, err := ti.RefTypeInfo(d.Ref)
		if err != nil {
			return fmt.Sprintf("ref#%d?", d.Ref)
		}
		return ref.Name()
	default:
		return d.VT.String()
	}
}

func kindTag(k typelib.TypeKind) string {
	switch k {
	case typelib.TKindEnum:
		return "e"
	case typelib.TKindRecord:
		return "r"
	case typelib.TKindModule:
		return "m"
	case typelib.TKindInterface:
		return "i"
	case typelib.TKindDispatch:
		return "d"
	case typelib.TKindCoClass:
		return "c"
	case typelib.TKindAlias:
		return "a"
	case typelib.TKindUnion:
		return "u"
	}
	return "?"
}

var typeFlagNames = []struct {
	flag typelib.TypeFlags
	name string
}{
	{typelib.TypeFlagAppObject, "appobject"},
	{typelib.TypeFlagCanCreate, "cancreate"},
	{typelib.TypeFlagLicensed, "licensed"},
	{typelib.TypeFlagPreDeclID, "predeclid"},
	{typelib.TypeFlagHidden, "hidden"},
	{typelib.TypeFlagControl, "control"},
	{typelib.TypeFlagDual, "dual"},
	{typelib.TypeFlagNonExtensible, "nonextensible"},
	{typelib.TypeFlagOleAutomation, "oleautomation"},
	{typelib.TypeFlagRestricted, "restricted"},
	{typelib.TypeFlagAggregatable, "aggregatable"},
	{typelib.TypeFlagReplaceable, "replaceable"},
	{typelib.TypeFlagDispatchable, "dispatchable"},
	{typelib.TypeFlagReverseBind, "reversebind"},
	{typelib.TypeFlagProxy, "proxy"},
}

func typeTags(f typelib.TypeFlags) string {
	var tags []string
	for _, fl := range typeFlagNames {
		if f&fl.flag != 0 {
			tags = append(tags, fl.name)
		}
	}
	return strings.Join(tags, " ")
}

func implTags(f typelib.ImplTypeFlags) string {
	var tags []string
	if f&typelib.ImplFlagDefault != 0 {
		tags = append(tags, "default")
	}
	if f&typelib.ImplFlagSource != 0 {
		tags = append(tags, "source")
	}
	if f&typelib.ImplFlagRestricted != 0 {
		tags = append(tags, "restricted")
	}
	if f&typelib.ImplFlagDefaultVTable != 0 {
		tags = append(tags, "defaultvtable")
	}
	return strings.Join(tags, " ")
}

func paramTags(f typelib.ParamFlags) string {
	var tags []string
	if f&typelib.ParamFlagIn != 0 {
		tags = append(tags, "in")
	}
	if f&typelib.ParamFlagOut != 0 {
		tags = append(tags, "out")
	}
	if f&typelib.ParamFlagRetval != 0 {
		tags = append(tags, "retval")
	}
	if f&typelib.ParamFlagLCID != 0 {
		tags = append(tags, "lcid")
	}
	if f&typelib.ParamFlagOpt != 0 {
		tags = append(tags, "optional")
	}
	return strings.Join(tags, " ")
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
