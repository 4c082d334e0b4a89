package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tlbimp/internal/typelib"
)

var infoCmd = &cobra.Command{
	Use:   "info [flags] <library.tlbx...>",
	Short: "Summarize type library snapshots",
	Long:  "Load one or more type library snapshots in parallel and print their identity and type counts.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().Int("jobs", 0, "max parallel library loads (0=auto)")
}

type libInfo struct {
	path string
	lib  *typelib.Library
	err  error
}

func runInfo(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]libInfo, len(args))
	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(jobs, len(args)))
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			lib, err := typelib.Load(path)
			results[i] = libInfo{path: path, lib: lib, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed, printed := 0, 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.path, r.err)
			continue
		}
		if printed > 0 {
			fmt.Fprintln(os.Stdout)
		}
		printed++
		printLibInfo(os.Stdout, r)
	}
	if failed > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d libraries failed to load", failed, len(args))
	}
	return nil
}

func printLibInfo(w io.Writer, r libInfo) {
	attr := r.lib.Attr()
	fmt.Fprintf(w, "%s (%s)\n", r.lib.Name(), r.path)
	fmt.Fprintf(w, "  guid     %s\n", attr.GUID)
	fmt.Fprintf(w, "  version  %d.%d\n", attr.Major, attr.Minor)
	fmt.Fprintf(w, "  system   %s, lcid %d\n", attr.SysKind, attr.LCID)
	fmt.Fprintf(w, "  types    %d (%s)\n", r.lib.TypeInfoCount(), kindBreakdown(r.lib))
}

func kindBreakdown(lib typelib.TypeLibrary) string {
	counts := make(map[typelib.TypeKind]int)
	for i := 0; i < lib.TypeInfoCount(); i++ {
		ti, err := lib.TypeInfo(i)
		if err != nil {
			continue
		}
		attr, err := ti.Attr()
		if err != nil {
			continue
		}
		counts[attr.Kind]++
	}
	order := []typelib.TypeKind{
		typelib.TKindInterface, typelib.TKindDispatch, typelib.TKindCoClass,
		typelib.TKindEnum, typelib.TKindRecord, typelib.TKindUnion,
		typelib.TKindAlias, typelib.TKindModule,
	}
	var parts []string
	for _, k := range order {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ", ")
}
