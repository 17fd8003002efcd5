// cmd/tools/onboardctl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	wizardID    string
	stepID      string
	count       int
	catalogPath string

	rootCmd = &cobra.Command{
		Use:           "onboardctl",
		Short:         "Operator tooling for the Opulanz onboarding wizards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	validateCmd = &cobra.Command{
		Use:   "validate [draft.json]",
		Short: "Validate a saved draft against one step or the whole wizard",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	refcodeCmd = &cobra.Command{
		Use:   "refcode",
		Short: "Generate reference codes in a wizard's format",
		RunE:  runRefcode,
	}

	accesscodeCmd = &cobra.Command{
		Use:   "accesscode",
		Short: "Generate SPV customer access codes",
		RunE:  runAccesscode,
	}

	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "Export or check the wizard catalog",
	}
	catalogExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write the wizard and worker catalog as JSON",
		RunE:  runCatalogExport,
	}
	catalogValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Check a catalog file for duplicate ids and step gaps",
		RunE:  runCatalogValidate,
	}
)

func init() {
	validateCmd.Flags().StringVarP(&wizardID, "wizard", "w", "", "wizard id (required)")
	validateCmd.Flags().StringVarP(&stepID, "step", "s", "", "step id; all steps when empty")
	_ = validateCmd.MarkFlagRequired("wizard")

	refcodeCmd.Flags().StringVarP(&wizardID, "wizard", "w", "", "wizard id (required)")
	refcodeCmd.Flags().IntVarP(&count, "count", "n", 1, "how many codes")
	_ = refcodeCmd.MarkFlagRequired("wizard")

	accesscodeCmd.Flags().IntVarP(&count, "count", "n", 1, "how many codes")

	catalogCmd.PersistentFlags().StringVarP(&catalogPath, "path", "p", "configs/wizard-catalog.json", "catalog file")
	catalogCmd.AddCommand(catalogExportCmd, catalogValidateCmd)

	rootCmd.AddCommand(validateCmd, refcodeCmd, accesscodeCmd, catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
