// Package pipeline orchestrates one import end to end: load the library
// snapshot, wire reference assemblies, run the conversion, save the
// assembly snapshot.
package pipeline

import (
	"fmt"
	"path/filepath"

	"tlbimp/internal/convert"
	"tlbimp/internal/diag"
	"tlbimp/internal/guid"
	"tlbimp/internal/metadata"
	"tlbimp/internal/observ"
	"tlbimp/internal/typelib"
)

// Request configures one import run.
type Request struct {
	LibraryPath string
	// OutputPath is where the assembly snapshot lands; empty derives
	// <assembly name>.imx next to the library.
	OutputPath string
	Options    convert.Options
	// References are assembly snapshots consulted for foreign types.
	References []string
	Reporter   diag.Reporter
	Timer      *observ.Timer
	// SkipSave leaves the assembly in memory only.
	SkipSave bool
}

// Result captures the run's artifacts.
type Result struct {
	Library    *typelib.Library
	Assembly   *metadata.Assembly
	OutputPath string
	Types      int
	Skipped    []string
}

// Run executes the import pipeline for one library.
func Run(req *Request) (Result, error) {
	var result Result
	if req == nil {
		return result, fmt.Errorf("missing import request")
	}
	timer := req.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}

	idx := timer.Begin("load")
	lib, err := typelib.Load(req.LibraryPath)
	if err != nil {
		timer.End(idx, "")
		return result, fmt.Errorf("load %s: %w", req.LibraryPath, err)
	}
	timer.End(idx, fmt.Sprintf("%d types", len(lib.Entries)))
	result.Library = lib

	var resolver convert.Resolver
	if len(req.References) > 0 {
		idx = timer.Begin("references")
		snaps, err := LoadReferences(req.References)
		if err != nil {
			timer.End(idx, "")
			return result, err
		}
		timer.End(idx, fmt.Sprintf("%d assemblies", snaps.Len()))
		resolver = snaps
	}

	idx = timer.Begin("import")
	res, err := convert.Import(lib, req.Options, resolver, req.Reporter)
	if err != nil {
		timer.End(idx, "")
		return result, err
	}
	timer.End(idx, fmt.Sprintf("%d types, %d skipped", res.Types, len(res.Skipped)))
	result.Assembly = res.Assembly
	result.Types = res.Types
	result.Skipped = res.Skipped

	if req.SkipSave {
		return result, nil
	}
	out := req.OutputPath
	if out == "" {
		out = filepath.Join(filepath.Dir(req.LibraryPath), res.Assembly.Name+".imx")
	}
	idx = timer.Begin("save")
	if err := metadata.Save(out, res.Assembly); err != nil {
		timer.End(idx, "")
		return result, fmt.Errorf("save %s: %w", out, err)
	}
	timer.End(idx, filepath.Base(out))
	result.OutputPath = out
	return result, nil
}

// SnapshotResolver satisfies foreign references from assembly snapshots,
// indexed by source library id with a name fallback for snapshots that
// predate library ids.
type SnapshotResolver struct {
	byLib  map[guid.GUID]*metadata.Assembly
	byName map[string]*metadata.Assembly
	loaded int
}

// LoadReferences reads every snapshot up front so a broken reference file
// fails the run before any conversion work happens.
func LoadReferences(paths []string) (*SnapshotResolver, error) {
	r := &SnapshotResolver{
		byLib:  make(map[guid.GUID]*metadata.Assembly, len(paths)),
		byName: make(map[string]*metadata.Assembly, len(paths)),
	}
	for _, p := range paths {
		asm, err := metadata.Load(p)
		if err != nil {
			return nil, fmt.Errorf("reference %s: %w", p, err)
		}
		r.Add(asm)
	}
	return r, nil
}

// Add registers an assembly with the resolver.
func (r *SnapshotResolver) Add(asm *metadata.Assembly) {
	if asm == nil {
		return
	}
	if !asm.LibID.IsZero() {
		r.byLib[asm.LibID] = asm
	}
	r.byName[asm.Name] = asm
	r.loaded++
}

// Len reports how many assemblies the resolver holds.
func (r *SnapshotResolver) Len() int { return r.loaded }

// ResolveRef implements convert.Resolver.
func (r *SnapshotResolver) ResolveRef(lib typelib.TypeLibrary) (*metadata.Assembly, error) {
	if asm, ok := r.byLib[lib.Attr().GUID]; ok {
		return asm, nil
	}
	if asm, ok := r.byName[lib.Name()]; ok {
		return asm, nil
	}
	return nil, nil
}
