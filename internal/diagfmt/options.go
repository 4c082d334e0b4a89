package diagfmt

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
	// ToolName replaces an empty origin; defaults to "tlbimp".
	ToolName string
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	Max          int // output truncation, does not touch the Bag
	IncludeNotes bool
}
