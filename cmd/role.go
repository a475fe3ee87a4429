package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"idctl/internal/cli"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles",
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles",
	RunE: func(c *cobra.Command, args []string) error {
		client, err := newIdentityClient(c.Context())
		if err != nil {
			return err
		}
		roles, err := client.ListRoles(c.Context())
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(roles))
		for _, r := range roles {
			rows = append(rows, []string{r.ID, r.Name})
		}
		cli.RenderTable(os.Stdout, []string{"ID", "NAME"}, rows)
		return nil
	},
}

func init() {
	roleCmd.AddCommand(roleListCmd)
	rootCmd.AddCommand(roleCmd)
}
