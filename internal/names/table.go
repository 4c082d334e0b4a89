package names

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tlbimp/internal/diag"
	"tlbimp/internal/typelib"
)

// Sentinel errors callers branch on; both mean "skip this conversion".
var (
	ErrDuplicate    = errors.New("duplicate managed name")
	ErrBadNamespace = errors.New("invalid namespace")
)

// Table assigns unique managed names. It is populated by a pre-pass over
// every top-level type before any type is defined, because forged names
// (coclass class names, event interfaces) must exist before the bodies
// that reference them.
type Table struct {
	importing  typelib.TypeLibrary
	nsOverride string
	reporter   diag.Reporter

	reserved map[Key]string
	used     map[string]struct{}
}

// NewTable builds a table scoped to one compilation. importing is the
// library being imported; nsOverride, when non-empty, replaces a missing
// library-level managed-name namespace.
func NewTable(importing typelib.TypeLibrary, nsOverride string, reporter diag.Reporter) *Table {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Table{
		importing:  importing,
		nsOverride: nsOverride,
		reporter:   reporter,
		reserved:   make(map[Key]string),
		used:       make(map[string]struct{}),
	}
}

// Namespace resolves the managed namespace of a library: its managed-name
// custom data stripped of .dll/.exe, else the compilation override (for
// the importing library only), else the validated library doc name.
func (t *Table) Namespace(lib typelib.TypeLibrary) (string, error) {
	if ns, ok := typelib.LibraryManagedName(lib); ok {
		lower := strings.ToLower(ns)
		if strings.HasSuffix(lower, ".dll") || strings.HasSuffix(lower, ".exe") {
			ns = ns[:len(ns)-4]
		}
		return ns, nil
	}
	if t.nsOverride != "" && lib.Attr().GUID == t.importing.Attr().GUID {
		return t.nsOverride, nil
	}
	doc := lib.Name()
	if strings.ContainsAny(doc, `/\`) {
		t.reporter.Report(diag.NameInvalidNamespace, diag.SevWarning, diag.Lib(doc),
			fmt.Sprintf("library name %q is not a valid namespace and no namespace override was given", doc), nil)
		return "", fmt.Errorf("library name %q: %w", doc, ErrBadNamespace)
	}
	return doc, nil
}

// Recommend computes the managed name for the pair without reserving it.
func (t *Table) Recommend(ti typelib.TypeInfo, kind Kind) (string, error) {
	base := ti.Name()
	nsFromOverride := ""
	if o, ok := typelib.ManagedNameOverride(ti); ok {
		if i := strings.LastIndexByte(o, '.'); i >= 0 {
			nsFromOverride, base = o[:i], o[i+1:]
		} else {
			base = o
		}
	}
	switch kind {
	case KindCoClass:
		base += "Class"
	case KindEventInterface:
		base += "_Event"
	}

	var ns string
	var err error
	switch {
	case kind == KindEventInterface:
		// Event interfaces live in the importing library's namespace even
		// when the source interface is foreign.
		ns, err = t.Namespace(t.importing)
	case nsFromOverride != "":
		ns = nsFromOverride
	default:
		ns, err = t.Namespace(ti.Lib())
	}
	if err != nil {
		return "", err
	}
	if ns == "" {
		return base, nil
	}
	return ns + "." + base, nil
}

// Reserve assigns the managed name for the pair. It is idempotent: the
// second call with the same pair returns the first reservation. Forged
// kinds uniquify collisions with a numeric suffix; user-authored kinds
// fail the conversion with a duplicate-name warning.
func (t *Table) Reserve(ti typelib.TypeInfo, kind Kind) (string, error) {
	key, err := KeyOf(ti, kind)
	if err != nil {
		return "", err
	}
	if name, ok := t.reserved[key]; ok {
		return name, nil
	}
	name, err := t.Recommend(ti, kind)
	if err != nil {
		return "", err
	}
	if _, taken := t.used[name]; taken {
		if !kind.Forged() {
			t.reporter.Report(diag.NameDuplicateTypeName, diag.SevWarning,
				diag.Type(ti.Lib().Name(), ti.Name()),
				fmt.Sprintf("managed name %s is already taken; the type is skipped", name), nil)
			return "", fmt.Errorf("managed name %s: %w", name, ErrDuplicate)
		}
		name = t.uniquify(name)
	}
	t.reserved[key] = name
	t.used[name] = struct{}{}
	return name, nil
}

// ReserveForged hands out a unique name derived from base, for synthetic
// types with no backing TypeInfo (event delegates, provider helpers).
func (t *Table) ReserveForged(base string) string {
	name := base
	if _, taken := t.used[name]; taken {
		name = t.uniquify(name)
	}
	t.used[name] = struct{}{}
	return name
}

// Reserved returns the name previously assigned to the pair.
func (t *Table) Reserved(ti typelib.TypeInfo, kind Kind) (string, bool) {
	key, err := KeyOf(ti, kind)
	if err != nil {
		return "", false
	}
	name, ok := t.reserved[key]
	return name, ok
}

func (t *Table) uniquify(base string) string {
	for n := 2; ; n++ {
		candidate := base + "_" + strconv.Itoa(n)
		if _, taken := t.used[candidate]; !taken {
			return candidate
		}
	}
}
