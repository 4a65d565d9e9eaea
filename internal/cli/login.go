package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a browser login and print the authorization URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient()

		var body struct {
			AuthorizationURL string `json:"authorization_url"`
		}
		if err := client.do("GET", "/auth/login/start", nil, &body); err != nil {
			return err
		}

		fmt.Println("Open this URL in your browser to sign in:")
		fmt.Println()
		fmt.Println("  " + body.AuthorizationURL)
		fmt.Println()
		fmt.Println("After signing in, create an API token in the web UI and set:")
		fmt.Println()
		fmt.Println("  export PROMBANK_TOKEN=pb_...")
		return nil
	},
}
