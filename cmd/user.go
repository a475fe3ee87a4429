package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"idctl/internal/cli"
	"idctl/internal/identity"
)

var (
	userEmail    string
	userPassword string
	userTenantID string
	userEnabled  bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(c *cobra.Command, args []string) error {
		client, err := newIdentityClient(c.Context())
		if err != nil {
			return err
		}
		users, err := client.ListUsers(c.Context())
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{u.ID, u.Name, u.Email, fmt.Sprintf("%t", u.Enabled)})
		}
		cli.RenderTable(os.Stdout, []string{"ID", "NAME", "EMAIL", "ENABLED"}, rows)
		return nil
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		client, err := newIdentityClient(c.Context())
		if err != nil {
			return err
		}
		u, err := client.CreateUser(c.Context(), identity.User{
			Name:     args[0],
			Email:    userEmail,
			Enabled:  userEnabled,
			TenantID: userTenantID,
		}, userPassword)
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s (%s)\n", u.Name, u.ID)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		client, err := newIdentityClient(c.Context())
		if err != nil {
			return err
		}
		return client.DeleteUser(c.Context(), args[0])
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	userCreateCmd.Flags().StringVar(&userPassword, "pass", "", "Initial password")
	userCreateCmd.Flags().StringVar(&userTenantID, "user-tenant-id", "", "Tenant to create the user in")
	userCreateCmd.Flags().BoolVar(&userEnabled, "enabled", true, "Whether the user is enabled")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}
