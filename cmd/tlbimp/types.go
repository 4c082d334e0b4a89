package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tlbimp/internal/typelib"
)

var typesCmd = &cobra.Command{
	Use:   "types [flags] <library.tlbx>",
	Short: "List the types in a library snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runTypes,
}

func init() {
	typesCmd.Flags().String("kind", "", "only list types of this kind (interface|dispinterface|coclass|enum|record|union|alias|module)")
	typesCmd.Flags().Bool("guids", false, "include type GUIDs")
}

func runTypes(cmd *cobra.Command, args []string) error {
	kindFilter, err := cmd.Flags().GetString("kind")
	if err != nil {
		return fmt.Errorf("failed to get kind flag: %w", err)
	}
	if kindFilter != "" && !knownKindName(kindFilter) {
		return fmt.Errorf("unknown type kind: %s", kindFilter)
	}
	showGUIDs, err := cmd.Flags().GetBool("guids")
	if err != nil {
		return fmt.Errorf("failed to get guids flag: %w", err)
	}

	lib, err := typelib.Load(args[0])
	if err != nil {
		return err
	}
	for i := 0; i < lib.TypeInfoCount(); i++ {
		ti, err := lib.TypeInfo(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "type #%d: %v\n", i, err)
			continue
		}
		attr, err := ti.Attr()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", ti.Name(), err)
			continue
		}
		if kindFilter != "" && attr.Kind.String() != kindFilter {
			continue
		}
		if showGUIDs {
			fmt.Fprintf(os.Stdout, "%-13s %-32s %s\n", attr.Kind, ti.Name(), attr.GUID)
		} else {
			fmt.Fprintf(os.Stdout, "%-13s %s\n", attr.Kind, ti.Name())
		}
	}
	return nil
}

func knownKindName(name string) bool {
	for k := typelib.TKindEnum; k <= typelib.TKindUnion; k++ {
		if k.String() == name {
			return true
		}
	}
	return false
}
