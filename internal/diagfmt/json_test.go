package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, testBag(), JSONOpts{IncludeNotes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 {
		t.Fatalf("count = %d, diagnostics = %d", out.Count, len(out.Diagnostics))
	}
	first := out.Diagnostics[0]
	if first.Severity != "error" || first.Code != "TI6001" {
		t.Fatalf("first = %+v", first)
	}
	if first.Origin.Library != "WidgetLib" || first.Origin.Type != "IWidget" || first.Origin.Member != "" {
		t.Fatalf("origin = %+v", first.Origin)
	}
	second := out.Diagnostics[1]
	if len(second.Notes) != 1 || second.Notes[0].Message != "first retval used" {
		t.Fatalf("notes = %+v", second.Notes)
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, testBag(), JSONOpts{Max: 1}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("truncation failed: %+v", out)
	}
	if len(out.Diagnostics[0].Notes) != 0 {
		t.Fatalf("notes included without IncludeNotes: %+v", out.Diagnostics[0])
	}
}
