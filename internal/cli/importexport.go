package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		format       string
		output       string
		withVersions bool
	)
	cmd := &cobra.Command{
		Use:   "export [id...]",
		Short: "Export prompts; without ids everything is exported",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"format":           format,
				"prompt_ids":       args,
				"include_versions": withVersions,
			}
			data, err := NewClient().doRaw("POST", "/prompts/export", body)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %d bytes to %s\n", len(data), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json, yaml, csv or markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; - for stdout")
	cmd.Flags().BoolVar(&withVersions, "versions", false, "include version history")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		format          string
		defaultCategory string
		updateExisting  bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import prompts from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}

			body := map[string]any{
				"format":           format,
				"data":             string(data),
				"default_category": defaultCategory,
				"update_existing":  updateExisting,
			}
			var result struct {
				Imported []json.RawMessage `json:"imported"`
				Skipped  int               `json:"skipped"`
				Errors   []string          `json:"errors"`
			}
			if err := NewClient().do("POST", "/prompts/import", body, &result); err != nil {
				return err
			}

			fmt.Printf("imported %d, skipped %d duplicates\n", len(result.Imported), result.Skipped)
			for _, e := range result.Errors {
				fmt.Fprintln(os.Stderr, "error:", e)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d prompts failed to import", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json, yaml, csv, markdown or fabric")
	cmd.Flags().StringVar(&defaultCategory, "category", "", "default category for prompts that name none")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "update prompts whose content already exists")
	return cmd
}
