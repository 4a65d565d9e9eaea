package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"prombank/internal/domain"
)

func newPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Work with prompts",
	}
	cmd.AddCommand(newPromptListCmd())
	cmd.AddCommand(newPromptGetCmd())
	cmd.AddCommand(newPromptCreateCmd())
	cmd.AddCommand(newPromptUpdateCmd())
	cmd.AddCommand(newPromptDeleteCmd())
	cmd.AddCommand(newPromptUseCmd())
	return cmd
}

func newPromptListCmd() *cobra.Command {
	var (
		search string
		tags   string
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("search", search)
			q.Set("tags", tags)
			q.Set("status", status)
			q.Set("limit", fmt.Sprint(limit))
			path := "/prompts/?" + q.Encode()

			var body struct {
				Prompts []domain.Prompt `json:"prompts"`
				Total   int             `json:"total"`
			}
			if err := NewClient().do("GET", path, nil, &body); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tTYPE\tSTATUS\tVERSION\tUSED")
			for _, p := range body.Prompts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					p.ID, p.Title, p.PromptType, p.Status, p.Version, p.UsageCount)
			}
			w.Flush()
			fmt.Printf("\n%d of %d prompts\n", len(body.Prompts), body.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "substring to search for")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags, all must match")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}

func newPromptGetCmd() *cobra.Command {
	var withVersions bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one prompt as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/prompts/" + args[0]
			if withVersions {
				path += "?include_versions=true"
			}
			var p json.RawMessage
			if err := NewClient().do("GET", path, nil, &p); err != nil {
				return err
			}
			return printJSON(p)
		},
	}
	cmd.Flags().BoolVar(&withVersions, "versions", false, "include version history")
	return cmd
}

func newPromptCreateCmd() *cobra.Command {
	var (
		description string
		promptType  string
		tags        string
		contentFile string
		public      bool
	)
	cmd := &cobra.Command{
		Use:   "create <title> [content]",
		Short: "Create a prompt; content comes from the argument or --file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := ""
			if len(args) == 2 {
				content = args[1]
			}
			if contentFile != "" {
				data, err := os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("read content file: %w", err)
				}
				content = string(data)
			}

			body := map[string]any{
				"title":       args[0],
				"content":     content,
				"description": description,
				"prompt_type": promptType,
				"is_public":   public,
				"tags":        splitList(tags),
			}
			var p json.RawMessage
			if err := NewClient().do("POST", "/prompts/", body, &p); err != nil {
				return err
			}
			return printJSON(p)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "short description")
	cmd.Flags().StringVar(&promptType, "type", "user", "prompt type")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tag names")
	cmd.Flags().StringVar(&contentFile, "file", "", "read content from this file")
	cmd.Flags().BoolVar(&public, "public", false, "make the prompt public")
	return cmd
}

func newPromptUpdateCmd() *cobra.Command {
	var (
		title       string
		content     string
		contentFile string
		comment     string
		major       bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a prompt; unset flags leave fields unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{}
			if cmd.Flags().Changed("title") {
				body["title"] = title
			}
			if contentFile != "" {
				data, err := os.ReadFile(contentFile)
				if err != nil {
					return fmt.Errorf("read content file: %w", err)
				}
				body["content"] = string(data)
			} else if cmd.Flags().Changed("content") {
				body["content"] = content
			}
			if major {
				body["create_version"] = true
			}
			if comment != "" {
				body["version_comment"] = comment
			}
			if len(body) == 0 {
				return fmt.Errorf("nothing to update")
			}

			var p json.RawMessage
			if err := NewClient().do("PATCH", "/prompts/"+args[0], body, &p); err != nil {
				return err
			}
			return printJSON(p)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVar(&contentFile, "file", "", "read new content from this file")
	cmd.Flags().StringVar(&comment, "comment", "", "change log entry")
	cmd.Flags().BoolVar(&major, "major", false, "record a major version bump")
	return cmd
}

func newPromptDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a prompt and its version history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NewClient().do("DELETE", "/prompts/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	}
}

func newPromptUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Print a prompt's content and record the usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p domain.Prompt
			if err := NewClient().do("POST", "/prompts/"+args[0]+"/use", nil, &p); err != nil {
				return err
			}
			fmt.Println(p.Content)
			return nil
		},
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
