package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tlbimp/internal/typelib"
	"tlbimp/internal/ui"
)

var browseCmd = &cobra.Command{
	Use:   "browse <library.tlbx>",
	Short: "Browse a type library interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdout) {
		return fmt.Errorf("browse needs a terminal; use types or dump for plain output")
	}
	lib, err := typelib.Load(args[0])
	if err != nil {
		return err
	}
	return ui.Browse(lib)
}
