package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tlbimp/internal/metadata"
	"tlbimp/internal/metafmt"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <assembly.imx>",
	Short: "Print an imported assembly snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().String("type", "", "dump only the named type (full name)")
	dumpCmd.Flags().Bool("list", false, "print one-line type headers instead of full definitions")
}

func runDump(cmd *cobra.Command, args []string) error {
	typeName, err := cmd.Flags().GetString("type")
	if err != nil {
		return fmt.Errorf("failed to get type flag: %w", err)
	}
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return fmt.Errorf("failed to get list flag: %w", err)
	}

	asm, err := metadata.Load(args[0])
	if err != nil {
		return err
	}
	if typeName != "" {
		td, ok := asm.Type(typeName)
		if !ok {
			return fmt.Errorf("type %q not found in %s", typeName, asm.Name)
		}
		metafmt.NewPrinter(os.Stdout).PrintType(td)
		return nil
	}
	if list {
		for _, td := range asm.Types() {
			fmt.Fprintln(os.Stdout, metafmt.TypeString(td))
		}
		return nil
	}
	return metafmt.Dump(os.Stdout, asm)
}
