package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"tlbimp/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.Faint)
)

func sevColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	}
	return infoColor
}

// Pretty renders diagnostics one per line in the shape
//
//	<origin> : <severity> TInnnn: <message>
//
// walking bag.Items() in order (call bag.Sort() beforehand). Origins are
// padded to a common column so codes line up. Severity and code take the
// severity color when Color is on.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	tool := opts.ToolName
	if tool == "" {
		tool = "tlbimp"
	}

	items := bag.Items()
	width := 0
	origins := make([]string, len(items))
	for i, d := range items {
		o := d.Origin.String()
		if o == "" {
			o = tool
		}
		origins[i] = o
		if ow := runewidth.StringWidth(o); ow > width {
			width = ow
		}
	}

	for i, d := range items {
		label := fmt.Sprintf("%s %s", d.Severity, d.Code.ID())
		if opts.Color {
			label = sevColor(d.Severity).Sprint(label)
		}
		fmt.Fprintf(w, "%s : %s: %s\n", runewidth.FillRight(origins[i], width), label, d.Message)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			line := fmt.Sprintf("    note: %s: %s", n.Origin, n.Msg)
			if opts.Color {
				line = noteColor.Sprint(line)
			}
			fmt.Fprintln(w, line)
		}
	}
}
