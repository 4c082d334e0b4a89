package diagfmt

import (
	"encoding/json"
	"io"

	"tlbimp/internal/diag"
)

// OriginJSON carries the diagnostic location for JSON output.
type OriginJSON struct {
	Library string `json:"library,omitempty"`
	Type    string `json:"type,omitempty"`
	Member  string `json:"member,omitempty"`
}

// NoteJSON represents an attached note for JSON output.
type NoteJSON struct {
	Message string     `json:"message"`
	Origin  OriginJSON `json:"origin"`
}

// DiagnosticJSON represents one diagnostic in JSON form.
type DiagnosticJSON struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Origin   OriginJSON `json:"origin"`
	Notes    []NoteJSON `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root structure of the JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeOrigin(o diag.Origin) OriginJSON {
	return OriginJSON{Library: o.Library, Type: o.Type, Member: o.Member}
}

// BuildDiagnosticsOutput assembles the JSON structure without serialising.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	diagnostics := make([]DiagnosticJSON, 0, maxItems)
	for i := 0; i < maxItems; i++ {
		d := items[i]
		diagJSON := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Origin:   makeOrigin(d.Origin),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			diagJSON.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				diagJSON.Notes[j] = NoteJSON{
					Message: note.Msg,
					Origin:  makeOrigin(note.Origin),
				}
			}
		}
		diagnostics = append(diagnostics, diagJSON)
	}

	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
	}
}

// JSON writes diagnostics as indented JSON.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	output := BuildDiagnosticsOutput(bag, opts)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
