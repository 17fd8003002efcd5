// cmd/tools/onboardctl/commands.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"opulanz-onboarding/internal/admin"
	"opulanz-onboarding/internal/forms"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"
	"opulanz-onboarding/pkg/registry"

	"github.com/spf13/cobra"
)

// errInvalidDraft makes the process exit non-zero after the report is printed.
var errInvalidDraft = errors.New("draft is not valid")

func findDefinition(id string) (*wizard.Definition, error) {
	for _, def := range forms.All() {
		if def.ID == id {
			return def, nil
		}
	}
	return nil, fmt.Errorf("unknown wizard %q", id)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runValidate(cmd *cobra.Command, args []string) error {
	def, err := findDefinition(wizardID)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var draft wizard.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return fmt.Errorf("parse draft: %w", err)
	}

	v := wizard.NewValidator(def)
	if stepID != "" {
		res := v.Validate(draft, stepID)
		if w := v.Warnings(draft, stepID); w != "" {
			res.Warnings = append(res.Warnings, w)
		}
		if err := printJSON(cmd, res); err != nil {
			return err
		}
		if !res.Valid {
			return errInvalidDraft
		}
		return nil
	}

	report := v.ValidateAll(draft)
	if err := printJSON(cmd, report); err != nil {
		return err
	}
	if !report.Valid {
		return errInvalidDraft
	}
	return nil
}

func runRefcode(cmd *cobra.Command, args []string) error {
	def, err := findDefinition(wizardID)
	if err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	gen := submission.NewReferenceGenerator()
	for i := 0; i < count; i++ {
		fmt.Fprintln(cmd.OutOrStdout(), gen.Generate(def.Submission.Format))
	}
	return nil
}

func runAccesscode(cmd *cobra.Command, args []string) error {
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	seen := make(map[string]bool, count)
	for len(seen) < count {
		code := admin.RandomAccessCode()
		if seen[code] {
			continue
		}
		seen[code] = true
		fmt.Fprintln(cmd.OutOrStdout(), code)
	}
	return nil
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	c, err := buildCatalog(forms.All())
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := registry.SaveCatalog(catalogPath, c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d wizards and %d activities to %s\n", len(c.Wizards), len(c.Activities), catalogPath)
	return nil
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	c, err := registry.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Catalog OK: %d wizards, %d activities\n", len(c.Wizards), len(c.Activities))
	return nil
}
