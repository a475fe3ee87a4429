package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"idctl/internal/cli"
	"idctl/internal/identity"
)

// discoverCmd queries the identity service for its advertised API versions.
// It is explicitly unauthenticated: it must work with no username, password
// or token configured at all.
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover API versions of the identity service",
	RunE: func(c *cobra.Command, args []string) error {
		if globalOpts.authURL == "" {
			return cli.Errorf("you must provide an identity service URL via either --auth-url or env[OS_AUTH_URL]")
		}

		versions, err := identity.Discover(c.Context(), newUnauthSession(), globalOpts.authURL)
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(versions))
		for _, v := range versions {
			href := ""
			for _, link := range v.Links {
				if link.Rel == "self" {
					href = link.Href
					break
				}
			}
			rows = append(rows, []string{v.ID, v.Status, href})
		}
		cli.RenderTable(os.Stdout, []string{"VERSION", "STATUS", "URL"}, rows)
		return nil
	},
}

func init() {
	markUnauthenticated(discoverCmd)
	rootCmd.AddCommand(discoverCmd)
}
