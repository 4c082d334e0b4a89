package diag

import "testing"

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(10)
	b := ReportWarning(BagReporter{Bag: bag}, MemAmbiguousReturn, Member("L", "I", "M"), "two retvals").
		WithNote(Member("L", "I", "M"), "first retval used")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("Len = %d, want 1", bag.Len())
	}
	got := bag.Items()[0]
	if got.Code != MemAmbiguousReturn || len(got.Notes) != 1 {
		t.Fatalf("unexpected diagnostic %+v", got)
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	o := Member("L", "I", "M")
	r.Report(ConvLossyConversion, SevWarning, o, "lossy", nil)
	r.Report(ConvLossyConversion, SevWarning, o, "lossy", nil)
	r.Report(ConvLossyConversion, SevWarning, o, "other", nil)
	if bag.Len() != 2 {
		t.Fatalf("Len = %d, want 2", bag.Len())
	}
}

func TestSilenceReporterRejectsConflictingModes(t *testing.T) {
	if _, err := NewSilenceReporter(NopReporter{}, true, []Code{MemBadVTable}); err == nil {
		t.Fatalf("expected error for silence-all combined with per-code list")
	}
}

func TestSilenceReporterPerCode(t *testing.T) {
	bag := NewBag(10)
	r, err := NewSilenceReporter(BagReporter{Bag: bag}, false, []Code{ClsNoPropsInEvents})
	if err != nil {
		t.Fatalf("NewSilenceReporter: %v", err)
	}
	r.Report(ClsNoPropsInEvents, SevWarning, Lib("L"), "silenced", nil)
	r.Report(MemBadVTable, SevWarning, Lib("L"), "kept", nil)
	if bag.Len() != 1 || bag.Items()[0].Code != MemBadVTable {
		t.Fatalf("per-code silencing failed: %+v", bag.Items())
	}
}

func TestSilenceReporterNeverDropsErrors(t *testing.T) {
	bag := NewBag(10)
	r, err := NewSilenceReporter(BagReporter{Bag: bag}, true, nil)
	if err != nil {
		t.Fatalf("NewSilenceReporter: %v", err)
	}
	r.Report(ClsNoPropsInEvents, SevWarning, Lib("L"), "silenced", nil)
	r.Report(ClsNoPropsInEvents, SevInfo, Lib("L"), "silenced", nil)
	r.Report(RefUnresolved, SevError, Lib("L"), "kept", nil)
	if bag.Len() != 1 || bag.Items()[0].Severity != SevError {
		t.Fatalf("silence-all dropped an error or kept a warning: %+v", bag.Items())
	}
}
