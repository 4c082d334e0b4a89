package diagfmt

import (
	"fmt"
	"strings"

	"tlbimp/internal/diag"
)

// Short renders diagnostics into a stable single-line-per-entry string, one
// "<severity> <code> <origin>: <message>" per line, suitable for golden
// comparisons in tests. Returns "" when the bag is empty.
func Short(bag *diag.Bag, includeNotes bool) string {
	items := bag.Items()
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, d := range items {
		origin := d.Origin.String()
		if origin == "" {
			origin = "-"
		}
		fmt.Fprintf(&b, "%s %s %s: %s\n", d.Severity, d.Code.ID(), origin, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "  note %s: %s\n", n.Origin, n.Msg)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
