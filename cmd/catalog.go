package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"idctl/internal/cli"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the service catalog of the current token",
	RunE: func(c *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return err
		}
		if _, err := sess.Token(c.Context()); err != nil {
			return err
		}

		a := currentAccess(sess.Plugin())
		if a == nil || len(a.Catalog) == 0 {
			return cli.Errorf("current authentication carries no service catalog")
		}

		var rows [][]string
		for _, svc := range a.Catalog {
			for _, ep := range svc.Endpoints {
				rows = append(rows, []string{svc.Type, svc.Name, ep.Region, ep.PublicURL, ep.AdminURL})
			}
		}
		cli.RenderTable(os.Stdout, []string{"TYPE", "NAME", "REGION", "PUBLIC URL", "ADMIN URL"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
