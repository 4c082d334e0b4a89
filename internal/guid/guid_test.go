package guid

import "testing"

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"{00000000-0000-0000-C000-000000000046}",
		"{00020400-0000-0000-C000-000000000046}",
		"{0F21F359-AB84-41E8-9A78-36D110E6D2F9}",
	}
	for _, want := range cases {
		g, err := Parse(want)
		if err != nil {
			t.Fatalf("Parse(%q): %v", want, err)
		}
		if got := g.String(); got != want {
			t.Fatalf("round trip: got %q want %q", got, want)
		}
	}
}

func TestParseForgivesBracesAndCase(t *testing.T) {
	a := MustParse("00020404-0000-0000-c000-000000000046")
	b := MustParse("{00020404-0000-0000-C000-000000000046}")
	if a != b {
		t.Fatalf("brace/case variants parsed differently: %s vs %s", a, b)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "not-a-guid", "{1234}", "{00000000-0000-0000-C000-0000000000}", "{0000000Z-0000-0000-C000-000000000046}"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) unexpectedly succeeded", s)
		}
	}
}

func TestZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatal("Zero.IsZero() = false")
	}
	g := MustParse("{00000000-0000-0000-C000-000000000046}")
	if g.IsZero() {
		t.Fatal("IID_IUnknown reported as zero")
	}
}
