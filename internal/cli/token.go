package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"prombank/internal/domain"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create an API token; the secret is printed once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var created domain.NewAPIToken
			if err := NewClient().do("POST", "/api-tokens/", map[string]any{"name": args[0]}, &created); err != nil {
				return err
			}
			fmt.Printf("created token %q\n\n", created.Name)
			fmt.Println("  " + created.Secret)
			fmt.Println("\nStore it now; it cannot be recovered later.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active API tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			var body struct {
				Tokens []domain.APIToken `json:"tokens"`
			}
			if err := NewClient().do("GET", "/api-tokens/", nil, &body); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPREFIX\tCREATED\tLAST USED")
			for _, t := range body.Tokens {
				lastUsed := "never"
				if t.LastUsedAt != nil {
					lastUsed = t.LastUsedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\tpb_%s…\t%s\t%s\n",
					t.ID, t.Name, t.Prefix, t.CreatedAt.Format("2006-01-02"), lastUsed)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NewClient().do("DELETE", "/api-tokens/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Println("revoked", args[0])
			return nil
		},
	})
	return cmd
}
