package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tlbimp/internal/config"
	"tlbimp/internal/convert"
	"tlbimp/internal/diag"
	"tlbimp/internal/diagfmt"
	"tlbimp/internal/observ"
	"tlbimp/internal/pipeline"
)

var importCmd = &cobra.Command{
	Use:   "import [flags] <library.tlbx>",
	Short: "Import a type library into an interop assembly snapshot",
	Long: `Import a COM type library snapshot (.tlbx) into a managed interop assembly
snapshot (.imx). Foreign references resolve through previously imported
assemblies passed with --reference. Settings come from tlbimp.toml when one
is found in the working directory or above; explicit flags override it.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringP("out", "o", "", "output path for the assembly snapshot")
	importCmd.Flags().StringSliceP("reference", "r", nil, "reference assembly snapshot (repeatable)")
	importCmd.Flags().String("name", "", "assembly name override")
	importCmd.Flags().String("namespace", "", "managed namespace override")
	importCmd.Flags().String("asmversion", "", "assembly version override (major.minor[.build[.revision]])")
	importCmd.Flags().String("arch", "", "target architecture (default|agnostic|x86|x64|itanium|arm)")
	importCmd.Flags().Bool("primary", false, "emit a primary interop assembly")
	importCmd.Flags().Bool("unsafe", false, "emit interfaces without runtime security checks")
	importCmd.Flags().Bool("sys-array", false, "import SAFEARRAY parameters as System.Array")
	importCmd.Flags().Bool("transform-disp-retvals", false, "turn [out, retval] dispatch parameters into return values")
	importCmd.Flags().Bool("no-class-members", false, "do not mirror interface members onto coclasses")
	importCmd.Flags().Bool("serializable-value-classes", false, "mark imported value classes serializable")
	importCmd.Flags().Bool("variant-bool-field", false, "import VARIANT_BOOL record fields as bool")
	importCmd.Flags().Bool("legacy-quirks", false, "reproduce legacy importer quirks")
	importCmd.Flags().Bool("strict-ref", false, "fail on unresolvable foreign references")
	importCmd.Flags().Bool("dry-run", false, "convert without writing the snapshot")
	importCmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json|short)")
	importCmd.Flags().IntSlice("silence", nil, "diagnostic codes to suppress (repeatable)")
	importCmd.Flags().Bool("silent", false, "suppress all warnings")
}

func runImport(cmd *cobra.Command, args []string) error {
	libPath := args[0]

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json", "short":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	// Manifest settings come first; explicitly set flags override them.
	var (
		opts    convert.Options
		refs    []string
		silence []diag.Code
		silent  bool
	)
	manifestPath, found, err := config.Find(".")
	if err != nil {
		return err
	}
	if found {
		m, err := config.Load(manifestPath)
		if err != nil {
			return err
		}
		if opts, err = m.ConvertOptions(); err != nil {
			return fmt.Errorf("%s: %w", manifestPath, err)
		}
		refs = m.ReferencePaths()
		silence = m.SilenceCodes()
		silent = m.Diagnostics.Silent
		if m.Diagnostics.Max > 0 && !cmd.Root().PersistentFlags().Changed("max-diagnostics") {
			maxDiagnostics = m.Diagnostics.Max
		}
	}
	if err := applyImportFlags(cmd, &opts); err != nil {
		return err
	}
	if cmd.Flags().Changed("reference") {
		if refs, err = cmd.Flags().GetStringSlice("reference"); err != nil {
			return fmt.Errorf("failed to get reference flag: %w", err)
		}
	}
	if cmd.Flags().Changed("silence") {
		raw, err := cmd.Flags().GetIntSlice("silence")
		if err != nil {
			return fmt.Errorf("failed to get silence flag: %w", err)
		}
		silence = nil
		for _, c := range raw {
			if c <= 0 || c > 65535 {
				return fmt.Errorf("invalid diagnostic code %d", c)
			}
			silence = append(silence, diag.Code(c))
		}
	}
	if cmd.Flags().Changed("silent") {
		if silent, err = cmd.Flags().GetBool("silent"); err != nil {
			return fmt.Errorf("failed to get silent flag: %w", err)
		}
	}

	bag := diag.NewBag(maxDiagnostics)
	// Dedup sits closest to the bag so repeated per-use reports of the
	// same failure count against the limit once.
	var reporter diag.Reporter = diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	if silent || len(silence) > 0 {
		sr, err := diag.NewSilenceReporter(reporter, silent, silence)
		if err != nil {
			return err
		}
		reporter = sr
	}

	timer := observ.NewTimer()
	res, runErr := pipeline.Run(&pipeline.Request{
		LibraryPath: libPath,
		OutputPath:  outPath,
		Options:     opts,
		References:  refs,
		Reporter:    reporter,
		Timer:       timer,
		SkipSave:    dryRun,
	})

	if err := printImportDiagnostics(format, bag, colored, quiet, maxDiagnostics); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if bag.HasErrors() {
		// Suppress cobra usage output, the diagnostics are already printed.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}

	if !quiet && format != "json" {
		target := res.OutputPath
		if dryRun {
			target = "(not saved)"
		}
		fmt.Fprintf(os.Stdout, "imported %d types (%d skipped) from %s -> %s\n",
			res.Types, len(res.Skipped), filepath.Base(libPath), target)
	}
	if showTimings {
		fmt.Fprintln(os.Stdout, timer.Summary())
	}
	return nil
}

// applyImportFlags overlays explicitly set import flags onto opts.
func applyImportFlags(cmd *cobra.Command, opts *convert.Options) error {
	f := cmd.Flags()
	str := func(name string, dst *string) error {
		if !f.Changed(name) {
			return nil
		}
		v, err := f.GetString(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
		return nil
	}
	boolean := func(name string, dst *bool) error {
		if !f.Changed(name) {
			return nil
		}
		v, err := f.GetBool(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		*dst = v
		return nil
	}

	if err := str("name", &opts.AssemblyName); err != nil {
		return err
	}
	if err := str("namespace", &opts.Namespace); err != nil {
		return err
	}
	if err := str("asmversion", &opts.AssemblyVersion); err != nil {
		return err
	}
	if err := boolean("primary", &opts.PrimaryInterop); err != nil {
		return err
	}
	if err := boolean("unsafe", &opts.UnsafeInterfaces); err != nil {
		return err
	}
	if err := boolean("sys-array", &opts.SafeArrayAsUniversal); err != nil {
		return err
	}
	if err := boolean("transform-disp-retvals", &opts.TransformDispRetvals); err != nil {
		return err
	}
	if err := boolean("no-class-members", &opts.PreventClassMembers); err != nil {
		return err
	}
	if err := boolean("serializable-value-classes", &opts.SerializableValueClasses); err != nil {
		return err
	}
	if err := boolean("variant-bool-field", &opts.VariantBoolFieldToBool); err != nil {
		return err
	}
	if err := boolean("legacy-quirks", &opts.LegacyQuirks); err != nil {
		return err
	}
	if err := boolean("strict-ref", &opts.StrictRef); err != nil {
		return err
	}
	if f.Changed("arch") {
		v, err := f.GetString("arch")
		if err != nil {
			return fmt.Errorf("failed to get arch flag: %w", err)
		}
		arch, err := convert.ParseArch(v)
		if err != nil {
			return err
		}
		opts.TargetArch = arch
	}
	return nil
}

func printImportDiagnostics(format string, bag *diag.Bag, colored, quiet bool, max int) error {
	if bag.Len() == 0 {
		return nil
	}
	if quiet && !bag.HasErrors() {
		return nil
	}
	bag.Sort()
	switch format {
	case "pretty":
		diagfmt.Pretty(os.Stdout, bag, diagfmt.PrettyOpts{Color: colored, ShowNotes: true})
	case "short":
		if out := diagfmt.Short(bag, false); out != "" {
			fmt.Fprintln(os.Stdout, out)
		}
	case "json":
		if err := diagfmt.JSON(os.Stdout, bag, diagfmt.JSONOpts{Max: max, IncludeNotes: true}); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	}
	return nil
}
