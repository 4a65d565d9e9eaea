package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"prombank/internal/domain"
)

func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Work with categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			var body struct {
				Categories []domain.Category `json:"categories"`
			}
			if err := NewClient().do("GET", "/categories/", nil, &body); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, c := range body.Categories {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Description)
			}
			return w.Flush()
		},
	})

	var description, color string
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"name":        args[0],
				"description": description,
				"color":       color,
			}
			var c domain.Category
			if err := NewClient().do("POST", "/categories/", body, &c); err != nil {
				return err
			}
			fmt.Printf("created category %s (%s)\n", c.Name, c.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&description, "description", "", "category description")
	createCmd.Flags().StringVar(&color, "color", "", "display color, e.g. #0ea5e9")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category; its prompts become uncategorized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NewClient().do("DELETE", "/categories/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	})
	return cmd
}
