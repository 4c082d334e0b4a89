package diag

import "errors"

// SilenceReporter wraps another Reporter and drops warnings and infos the
// host asked to suppress, either everything or a fixed set of codes.
// Errors always pass through.
type SilenceReporter struct {
	next  Reporter
	all   bool
	codes map[Code]struct{}
}

// NewSilenceReporter builds the silencing wrapper. Silencing everything and
// silencing specific codes are mutually exclusive.
func NewSilenceReporter(next Reporter, all bool, codes []Code) (*SilenceReporter, error) {
	if all && len(codes) > 0 {
		return nil, errors.New("diag: silence-all cannot be combined with per-code silencing")
	}
	r := &SilenceReporter{next: next, all: all}
	if len(codes) > 0 {
		r.codes = make(map[Code]struct{}, len(codes))
		for _, c := range codes {
			r.codes[c] = struct{}{}
		}
	}
	return r, nil
}

func (r *SilenceReporter) Report(code Code, sev Severity, origin Origin, msg string, notes []Note) {
	if r == nil {
		return
	}
	if sev < SevError {
		if r.all {
			return
		}
		if _, ok := r.codes[code]; ok {
			return
		}
	}
	if r.next != nil {
		r.next.Report(code, sev, origin, msg, notes)
	}
}
