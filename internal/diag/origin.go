package diag

import "strings"

// Origin locates a diagnostic inside the library being imported. The span
// narrows left to right; any suffix may be empty. A zero Origin means the
// diagnostic concerns the run as a whole.
type Origin struct {
	Library string
	Type    string
	Member  string
}

// Lib builds a library-level origin.
func Lib(library string) Origin { return Origin{Library: library} }

// Type builds a type-level origin.
func Type(library, typeName string) Origin {
	return Origin{Library: library, Type: typeName}
}

// Member builds a member-level origin.
func Member(library, typeName, member string) Origin {
	return Origin{Library: library, Type: typeName, Member: member}
}

// In returns the origin narrowed to a member of the same type.
func (o Origin) In(member string) Origin {
	o.Member = member
	return o
}

// IsZero reports whether the origin carries no location at all.
func (o Origin) IsZero() bool {
	return o.Library == "" && o.Type == "" && o.Member == ""
}

// String joins the non-empty components with dots: "Lib.IWidget.Paint".
func (o Origin) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{o.Library, o.Type, o.Member} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// compare orders origins lexicographically by component for stable output.
func (o Origin) compare(other Origin) int {
	if c := strings.Compare(o.Library, other.Library); c != 0 {
		return c
	}
	if c := strings.Compare(o.Type, other.Type); c != 0 {
		return c
	}
	return strings.Compare(o.Member, other.Member)
}
