package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for recoverable conversion losses and skipped entities.
	SevWarning
	// SevError is for failures that make the imported assembly unusable.
	SevError
)

// String returns the lowercase form used when rendering diagnostics.
func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}
