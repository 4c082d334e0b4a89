package diag

// Note attaches secondary context to a diagnostic, e.g. the site a
// conflicting name was first reserved at.
type Note struct {
	Origin Origin
	Msg    string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Origin   Origin
	Notes    []Note
}

func New(sev Severity, code Code, origin Origin, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Origin:   origin,
		Message:  msg,
	}
}

func NewError(code Code, origin Origin, msg string) Diagnostic {
	return New(SevError, code, origin, msg)
}

func NewWarning(code Code, origin Origin, msg string) Diagnostic {
	return New(SevWarning, code, origin, msg)
}

func (d Diagnostic) WithNote(origin Origin, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Origin: origin, Msg: msg})
	return d
}
