package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"tlbimp/internal/guid"
	"tlbimp/internal/typelib"
)

func browseLibrary() *typelib.Library {
	lib := typelib.NewLibrary("DemoLib", typelib.LibAttr{Major: 1, Minor: 2, SysKind: typelib.SysWin32})
	foo := lib.AddType("IFoo", typelib.TypeAttr{
		GUID:  guid.MustParse("{DDDD0001-0000-0000-C000-000000000046}"),
		Kind:  typelib.TKindInterface,
		Flags: typelib.TypeFlagDual,
	})
	foo.AddFunc("Echo", typelib.FuncDesc{
		MemberID: 1, Invoke: typelib.InvokeFunc, VTableOffset: 12,
		Params: []typelib.ParamDesc{
			{Type: typelib.TD(typelib.VTBStr), Flags: typelib.ParamFlagIn},
			{Type: typelib.Ptr(typelib.TD(typelib.VTBStr)), Flags: typelib.ParamFlagOut | typelib.ParamFlagRetval},
		},
		Return: typelib.TD(typelib.VTHResult),
	}, "text", "reply")
	colors := lib.AddType("Colors", typelib.TypeAttr{
		GUID: guid.MustParse("{DDDD0002-0000-0000-C000-000000000046}"),
		Kind: typelib.TKindEnum,
	})
	red := typelib.VarI4(1)
	colors.AddVar("Red", typelib.VarDesc{
		Kind: typelib.VarConst, Type: typelib.TD(typelib.VTI4), Value: &red,
	})
	return lib
}

func sized(t *testing.T, lib typelib.TypeLibrary) *browseModel {
	t.Helper()
	m, ok := NewBrowseModel(lib).(*browseModel)
	if !ok {
		t.Fatal("NewBrowseModel: unexpected model type")
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestBrowseView(t *testing.T) {
	m := sized(t, browseLibrary())
	view := m.View()
	for _, want := range []string{"DemoLib", "v1.2 win32, 2 types", "IFoo", "Colors", "esc quit"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if !strings.Contains(view, "Echo") {
		t.Fatalf("detail pane missing selected type's members:\n%s", view)
	}
}

func TestBrowseNavigation(t *testing.T) {
	m := sized(t, browseLibrary())
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("cursor = %d after down, want 1", m.cursor)
	}
	if view := m.View(); !strings.Contains(view, "const Red i4 = 1") {
		t.Fatalf("detail did not follow the cursor:\n%s", view)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want clamp at last item", m.cursor)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyHome})
	if m.cursor != 0 {
		t.Fatalf("cursor = %d after home, want 0", m.cursor)
	}
}

func TestBrowseFilter(t *testing.T) {
	m := sized(t, browseLibrary())
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("col")})
	if len(m.items) != 1 || m.items[0].name != "Colors" {
		t.Fatalf("filtered items = %+v", m.items)
	}
	if view := m.View(); !strings.Contains(view, "filter: col (1/2)") {
		t.Fatalf("view missing filter status:\n%s", view)
	}

	// first esc clears the filter, second one quits
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filter != "" || len(m.items) != 2 {
		t.Fatalf("filter = %q items = %d after esc", m.filter, len(m.items))
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("second esc produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("second esc = %T, want tea.QuitMsg", cmd())
	}
}

func TestFuncLine(t *testing.T) {
	lib := browseLibrary()
	ti, err := lib.TypeInfo(0)
	if err != nil {
		t.Fatalf("TypeInfo: %v", err)
	}
	fd, err := ti.FuncDesc(0)
	if err != nil {
		t.Fatalf("FuncDesc: %v", err)
	}
	got := funcLine(ti, fd)
	want := "func Echo(in bstr text, out retval ptr(bstr) reply) -> hresult  [id 1, vtbl 12]"
	if got != want {
		t.Fatalf("funcLine = %q, want %q", got, want)
	}
}

func TestDescString(t *testing.T) {
	lib := browseLibrary()
	foo := lib.Entries[0]
	bar := lib.AddType("IBar", typelib.TypeAttr{Kind: typelib.TKindInterface})
	ref := foo.AddRef(bar)
	broken := foo.AddBrokenRef(errLoad{})

	cases := []struct {
		desc typelib.TypeDesc
		want string
	}{
		{typelib.TD(typelib.VTI4), "i4"},
		{typelib.Ptr(typelib.TD(typelib.VTBStr)), "ptr(bstr)"},
		{typelib.ByRef(typelib.TD(typelib.VTVariant)), "byref(variant)"},
		{typelib.SafeArrayOf(typelib.TD(typelib.VTI2)), "safearray(i2)"},
		{typelib.Ptr(typelib.UD(ref)), "ptr(IBar)"},
		{typelib.UD(broken), "ref#1?"},
	}
	for _, tc := range cases {
		if got := descString(foo, tc.desc); got != tc.want {
			t.Errorf("descString(%v) = %q, want %q", tc.desc, got, tc.want)
		}
	}
}

type errLoad struct{}

func (errLoad) Error() string { return "library not loadable" }
