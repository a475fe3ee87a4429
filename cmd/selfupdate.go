package cmd

import (
	"fmt"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the GitHub repository releases are published to.
const githubRepoSlug = "idctl/idctl"

var updateCheckOnly bool

var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Update idctl to the latest release",
	Long: `Check the GitHub releases of idctl for a newer version and replace the
current binary with it. With --check the command only reports whether an
update is available and changes nothing.`,
	RunE: runSelfUpdate,
}

func runSelfUpdate(c *cobra.Command, args []string) error {
	current := rootCmd.Version
	// Development builds do not correspond to a release and have no
	// version to compare against.
	if current == "" || current == "dev" {
		return fmt.Errorf("cannot self-update a development build")
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(c.Context(), selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("failed to check %s for releases: %w", githubRepoSlug, err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", githubRepoSlug)
	}

	if !latest.GreaterThan(current) {
		fmt.Printf("idctl %s is up to date.\n", current)
		return nil
	}

	fmt.Printf("Update available: %s -> %s (published %s)\n", current, latest.Version(), latest.PublishedAt)
	if notes := strings.TrimSpace(latest.ReleaseNotes); notes != "" {
		fmt.Printf("\n%s\n\n", notes)
	}
	if updateCheckOnly {
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate the running binary: %w", err)
	}
	if err := updater.UpdateTo(c.Context(), latest, exe); err != nil {
		return fmt.Errorf("update to %s failed: %w", latest.Version(), err)
	}

	fmt.Printf("Updated %s to %s\n", exe, latest.Version())
	return nil
}

func init() {
	selfUpdateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "Only check for a newer release, do not install it")
	rootCmd.AddCommand(markUnauthenticated(selfUpdateCmd))
}
