package convert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tlbimp/internal/diag"
	"tlbimp/internal/metadata"
	"tlbimp/internal/names"
	"tlbimp/internal/typelib"
)

// Result is what an import run produces besides diagnostics.
type Result struct {
	Assembly *metadata.Assembly
	Types    int
	Skipped  []string
}

// Import converts a type library into an assembly model. The walk is
// phased over one symbol table: every top-level type reserves its managed
// name before anything is defined, coclasses are surveyed for default and
// source interfaces, then skeletons, then bodies. A failed type is
// skipped with a warning and the rest of the library still imports;
// unresolvable foreign references abort instead when StrictRef is set.
func Import(lib typelib.TypeLibrary, opts Options, resolver Resolver, reporter diag.Reporter) (*Result, error) {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	libOrigin := diag.Lib(lib.Name())
	attr := lib.Attr()

	if _, ok := lib.CustomData(typelib.CDExportedFromComPlus); ok {
		msg := fmt.Sprintf("library %s was exported from a managed assembly; import the original assembly instead", lib.Name())
		diag.ReportError(reporter, diag.LoadCircularImport, libOrigin, msg).Emit()
		return nil, errors.New(msg)
	}
	if !opts.TargetArch.Compatible(attr.SysKind) {
		msg := fmt.Sprintf("library %s targets %s, incompatible with %s", lib.Name(), attr.SysKind, opts.TargetArch)
		diag.ReportError(reporter, diag.DrvBadArch, libOrigin, msg).Emit()
		return nil, errors.New(msg)
	}
	version := opts.AssemblyVersion
	if version == "" {
		version = fmt.Sprintf("%d.%d.0.0", attr.Major, attr.Minor)
	} else if err := checkVersion(version); err != nil {
		diag.ReportError(reporter, diag.DrvBadVersion, libOrigin, err.Error()).Emit()
		return nil, err
	}

	nt := names.NewTable(lib, opts.Namespace, reporter)
	ns, err := nt.Namespace(lib)
	if err != nil {
		return nil, err
	}
	name := opts.AssemblyName
	if name == "" {
		name = ns
	}
	asm := metadata.NewAssembly(name, version)
	asm.LibID = attr.GUID
	asm.TypeLibMajor = attr.Major
	asm.TypeLibMinor = attr.Minor
	asm.ImportedFrom = lib.Path()
	asm.Arch = opts.TargetArch.String()
	asm.Primary = opts.PrimaryInterop
	asm.SetCustomAttribute(metadata.AttrImportedFromTypeLib(lib.Name()))
	asm.SetCustomAttribute(metadata.AttrGuid(attr.GUID))
	asm.SetCustomAttribute(metadata.AttrTypeLibVersion(attr.Major, attr.Minor))
	if opts.PrimaryInterop {
		asm.SetCustomAttribute(metadata.AttrPrimaryInteropAssembly(attr.Major, attr.Minor))
	}

	cx := newContext(lib, opts, nt, asm, resolver, reporter)

	var skipped []string
	noted := make(map[string]bool)
	skip := func(name string, err error) error {
		if errors.Is(err, ErrInternal) {
			return err
		}
		if opts.StrictRef && errors.Is(err, ErrRefUnresolved) {
			return err
		}
		if !noted[name] {
			noted[name] = true
			diag.ReportWarning(reporter, diag.RefSkippedType, libOrigin,
				fmt.Sprintf("type %s skipped: %v", name, err)).Emit()
			skipped = append(skipped, name)
		}
		return nil
	}

	// phase zero: reserve every top-level managed name
	started := time.Now()
	var top []*converter
	for i := 0; i < lib.TypeInfoCount(); i++ {
		ti, err := lib.TypeInfo(i)
		if err != nil {
			diag.ReportWarning(reporter, diag.LoadBadDescriptor, libOrigin,
				fmt.Sprintf("cannot read type %d: %v", i, err)).Emit()
			continue
		}
		ta, err := ti.Attr()
		if err != nil {
			diag.ReportWarning(reporter, diag.LoadBadDescriptor, diag.Type(lib.Name(), ti.Name()),
				fmt.Sprintf("cannot read attributes of %s: %v", ti.Name(), err)).Emit()
			continue
		}
		kind, ok := names.NaturalKind(ta.Kind)
		if !ok {
			// aliases surface through the types that use them
			continue
		}
		conv, err := cx.converterFor(ti, kind)
		if err != nil {
			if err := skip(ti.Name(), err); err != nil {
				return nil, err
			}
			continue
		}
		top = append(top, conv)
		if ta.Kind == typelib.TKindCoClass {
			co, err := cx.converterFor(ti, names.KindCoClass)
			if err != nil {
				if err := skip(ti.Name(), err); err != nil {
					return nil, err
				}
				continue
			}
			co.classIface = conv
			conv.coclass = co
			top = append(top, co)
		}
	}
	named := time.Now()

	// phase one: survey coclasses, wiring default interfaces into the
	// class interface map and registering event interfaces
	for _, co := range top {
		if co.kind != names.KindCoClass {
			continue
		}
		if err := surveyCoClass(cx, co); err != nil {
			if err := skip(co.name, err); err != nil {
				return nil, err
			}
		}
	}
	surveyed := time.Now()

	// phase two: define skeletons for everything but the coclasses, which
	// want their interfaces defined first
	notCoClass := func(c *converter) bool { return c.kind != names.KindCoClass }
	if err := sweep(cx, skip, notCoClass, func(c *converter) error { return c.define(cx) }); err != nil {
		return nil, err
	}
	defined := time.Now()

	// phase three: create bodies until the table stops growing; signature
	// conversion keeps registering referenced types mid-sweep
	if err := sweep(cx, skip, nil, func(c *converter) error { return c.create(cx) }); err != nil {
		return nil, err
	}
	created := time.Now()

	diag.ReportInfo(reporter, diag.DrvTimings, libOrigin, fmt.Sprintf(
		"naming %s, survey %s, define %s, create %s",
		named.Sub(started).Round(time.Microsecond),
		surveyed.Sub(named).Round(time.Microsecond),
		defined.Sub(surveyed).Round(time.Microsecond),
		created.Sub(defined).Round(time.Microsecond))).Emit()

	return &Result{Assembly: asm, Types: len(asm.Types()), Skipped: skipped}, nil
}

// sweep applies step to every registered local converter, re-snapshotting
// until no new registrations appear.
func sweep(cx *Context, skip func(string, error) error, want func(*converter) bool, step func(*converter) error) error {
	done := 0
	for {
		convs := cx.syms.snapshot()
		if done >= len(convs) {
			return nil
		}
		batch := convs[done:]
		done = len(convs)
		for _, c := range batch {
			if c.external || (want != nil && !want(c)) {
				continue
			}
			if err := step(c); err != nil {
				if err := skip(c.name, err); err != nil {
					return err
				}
			}
		}
	}
}

// surveyCoClass walks a coclass's implemented interfaces before anything
// is defined: the default interface claims the class interface map slot,
// source interfaces register their event shapes. A coclass with no
// flagged default treats its first plain interface as the default.
func surveyCoClass(cx *Context, co *converter) error {
	ta, err := co.ti.Attr()
	if err != nil {
		return err
	}
	ci := co.classIface
	var defIface, firstIface typelib.TypeInfo
	for i := 0; i < ta.Impls; i++ {
		ti, flags, err := co.ti.ImplType(i)
		if err != nil {
			diag.ReportWarning(cx.Reporter, diag.LoadRefLibrary, diag.Type(cx.Lib.Name(), co.ti.Name()),
				fmt.Sprintf("cannot load interface %d of %s: %v", i, co.ti.Name(), err)).Emit()
			continue
		}
		if flags&typelib.ImplFlagRestricted != 0 {
			continue
		}
		if flags&typelib.ImplFlagSource != 0 {
			co.sourceFaces = append(co.sourceFaces, ti)
			if flags&typelib.ImplFlagDefault != 0 && ci.defaultSource == nil {
				ci.defaultSource = ti
			}
			if _, err := cx.converterFor(ti, names.KindInterface); err != nil {
				return err
			}
			if _, err := cx.converterFor(ti, names.KindEventInterface); err != nil {
				return err
			}
			continue
		}
		if firstIface == nil {
			firstIface = ti
		}
		if flags&typelib.ImplFlagDefault != 0 && defIface == nil {
			defIface = ti
		}
	}
	if defIface == nil {
		defIface = firstIface
	}
	if defIface == nil {
		return nil
	}
	da, err := defIface.Attr()
	if err != nil {
		return err
	}
	dconv, err := cx.converterFor(defIface, names.KindInterface)
	if err != nil {
		return err
	}
	co.defaultIface = dconv
	ci.defaultIface = dconv
	cx.classMap.claim(defIface, da, ci)
	return nil
}

func checkVersion(v string) error {
	parts := strings.Split(v, ".")
	if len(parts) < 2 || len(parts) > 4 {
		return fmt.Errorf("assembly version %q is not major.minor[.build[.revision]]", v)
	}
	for _, p := range parts {
		if _, err := strconv.ParseUint(p, 10, 16); err != nil {
			return fmt.Errorf("assembly version %q is not major.minor[.build[.revision]]", v)
		}
	}
	return nil
}
