package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"prombank/internal/domain"
)

func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Work with tags",
	}

	var popular bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the tag vocabulary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if popular {
				var body struct {
					Tags []domain.TagUsage `json:"tags"`
				}
				if err := NewClient().do("GET", "/tags/popular", nil, &body); err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tPROMPTS")
				for _, t := range body.Tags {
					fmt.Fprintf(w, "%s\t%d\n", t.Name, t.UsageCount)
				}
				return w.Flush()
			}

			var body struct {
				Tags []domain.Tag `json:"tags"`
			}
			if err := NewClient().do("GET", "/tags/", nil, &body); err != nil {
				return err
			}
			for _, t := range body.Tags {
				fmt.Println(t.Name)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&popular, "popular", false, "show the most used tags with counts")
	cmd.AddCommand(listCmd)
	return cmd
}
