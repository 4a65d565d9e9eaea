// Package cli implements the prombank command line client. It talks to a
// running server over the REST API, authenticating with an API token from
// PROMBANK_TOKEN.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "prombank",
	Short: "Manage your prompt library from the terminal",
	Long: `prombank is a client for the Prombank prompt management server.

Set PROMBANK_SERVER to the server address (default http://localhost:8000)
and PROMBANK_TOKEN to an API token created via the web UI or
"prombank token create".`,
	SilenceUsage: true,
}

// SetVersion injects the build version into the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the CLI and returns the command error, if any.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(newPromptCmd())
	rootCmd.AddCommand(newCategoryCmd())
	rootCmd.AddCommand(newTagCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
}
