package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"tlbimp/internal/diag"
)

func testBag() *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.RefUnresolved, diag.Type("WidgetLib", "IWidget"), "referenced type Helper not found"))
	bag.Add(diag.NewWarning(diag.MemAmbiguousReturn, diag.Member("WidgetLib", "IWidget", "Paint"), "two retval parameters").
		WithNote(diag.Member("WidgetLib", "IWidget", "Paint"), "first retval used"))
	bag.Sort()
	return bag
}

func TestPrettyShape(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, testBag(), PrettyOpts{})
	out := buf.String()

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "WidgetLib.IWidget") || !strings.Contains(lines[0], ": error TI6001: referenced type Helper not found") {
		t.Fatalf("error line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "warning TI4002: two retval parameters") {
		t.Fatalf("warning line = %q", lines[1])
	}
	// Origins pad to the same column, so both code labels start together.
	if strings.Index(lines[0], " : ") != strings.Index(lines[1], " : ") {
		t.Fatalf("origin columns not aligned:\n%s", out)
	}
}

func TestPrettyNotes(t *testing.T) {
	var buf bytes.Buffer
	Pretty(&buf, testBag(), PrettyOpts{ShowNotes: true})
	if !strings.Contains(buf.String(), "note: WidgetLib.IWidget.Paint: first retval used") {
		t.Fatalf("missing note:\n%s", buf.String())
	}
}

func TestPrettyEmptyOriginUsesToolName(t *testing.T) {
	bag := diag.NewBag(2)
	bag.Add(diag.NewError(diag.DrvBadArch, diag.Origin{}, "unsupported architecture arm32"))

	var buf bytes.Buffer
	Pretty(&buf, bag, PrettyOpts{})
	if !strings.HasPrefix(buf.String(), "tlbimp ") {
		t.Fatalf("output = %q, want tlbimp origin", buf.String())
	}
}

func TestShort(t *testing.T) {
	got := Short(testBag(), true)
	want := "error TI6001 WidgetLib.IWidget: referenced type Helper not found\n" +
		"warning TI4002 WidgetLib.IWidget.Paint: two retval parameters\n" +
		"  note WidgetLib.IWidget.Paint: first retval used"
	if got != want {
		t.Fatalf("Short output:\n%s\nwant:\n%s", got, want)
	}
	if Short(diag.NewBag(1), false) != "" {
		t.Fatalf("empty bag should render empty string")
	}
}
