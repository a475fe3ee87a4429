package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"idctl/internal/cli"
	"idctl/internal/identity"
)

var (
	tenantDescription string
	tenantEnabled     bool
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	RunE: func(c *cobra.Command, args []string) error {
		client, err := newIdentityClient(c.Context())
		if err != nil {
			return err
		}
		tenants, err := client.ListTenants(c.Context())
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(tenants))
		for _, t := range tenants {
			rows = append(rows, []string{t.ID, t.Name, t.Description, fmt.Sprintf("%t", t.Enabled)})
		}
		cli.RenderTable(os.Stdout, []string{"ID", "NAME", "DESCRIPTION", "ENABLED"}, rows)
		return nil
	},
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		client, err := newIdentityClient(c.Context())
		if err != nil {
			return err
		}
		t, err := client.CreateTenant(c.Context(), identity.Tenant{
			Name:        args[0],
			Description: tenantDescription,
			Enabled:     tenantEnabled,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created tenant %s (%s)\n", t.Name, t.ID)
		return nil
	},
}

var tenantDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		client, err := newIdentityClient(c.Context())
		if err != nil {
			return err
		}
		return client.DeleteTenant(c.Context(), args[0])
	},
}

func init() {
	tenantCreateCmd.Flags().StringVar(&tenantDescription, "description", "", "Tenant description")
	tenantCreateCmd.Flags().BoolVar(&tenantEnabled, "enabled", true, "Whether the tenant is enabled")

	tenantCmd.AddCommand(tenantListCmd)
	tenantCmd.AddCommand(tenantCreateCmd)
	tenantCmd.AddCommand(tenantDeleteCmd)
	rootCmd.AddCommand(tenantCmd)
}
