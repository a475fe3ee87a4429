package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd creates the Cobra command for displaying the application version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of idctl",
		Long:  `All software has versions. This is idctl's.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "idctl version %s\n", rootCmd.Version)
		},
	}
}

func init() {
	rootCmd.AddCommand(markUnauthenticated(newVersionCmd()))
}
