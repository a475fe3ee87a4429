package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"idctl/internal/access"
	"idctl/internal/auth"
	"idctl/internal/cache"
	"idctl/internal/cli"
)

var (
	logoutAll   bool
	authQuiet   bool
	statusWatch bool
)

// authCmd groups the token lifecycle commands.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication for idctl",
	Long: `Manage authentication for idctl commands.

Examples:
  idctl auth login          # Exchange credentials for a token and cache it
  idctl auth status         # Show the cached token and its expiry
  idctl auth logout         # Drop the cached token for the auth URL
  idctl auth logout --all   # Drop all cached tokens`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and cache the resulting token",
	Long: `Perform a credential exchange with the identity service and persist the
resulting token in the cache, so later commands run without credentials
until the token expires.`,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached authentication state",
	Long: `Show the cached token for the configured auth URL and its expiry.

With --watch the command keeps running and re-renders whenever another
process changes the token cache, e.g. "idctl auth login" or "idctl auth
logout" in a second terminal.`,
	RunE: runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear cached tokens",
	RunE:  runAuthLogout,
}

func runAuthLogin(c *cobra.Command, args []string) error {
	ctx := c.Context()

	sess, err := newSession()
	if err != nil {
		return err
	}

	var spin *spinner.Spinner
	if !authQuiet && isatty.IsTerminal(os.Stderr.Fd()) {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = " Authenticating..."
		spin.Start()
	}

	_, err = sess.Token(ctx)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	a := currentAccess(sess.Plugin())
	if authQuiet {
		return nil
	}
	if a == nil {
		fmt.Println("Authenticated.")
		return nil
	}

	fmt.Printf("Authenticated as %s", a.Username)
	if a.Scoped {
		fmt.Printf(" (tenant %s)", a.TenantName)
	}
	fmt.Println()
	if !a.Expiry.IsZero() {
		fmt.Printf("Token expires %s\n", a.Expiry.Format(time.RFC3339))
	}
	return nil
}

func runAuthStatus(c *cobra.Command, args []string) error {
	store, err := tokenStore()
	if err != nil {
		return err
	}

	if globalOpts.authURL == "" {
		return cli.Errorf("no auth URL configured; set --auth-url or env[OS_AUTH_URL]")
	}

	renderAuthStatus(store)
	if !statusWatch {
		return nil
	}

	watcher, err := cache.WatchStore(store)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-watcher.Changes():
			if !ok {
				return nil
			}
			renderAuthStatus(store)
		}
	}
}

// renderAuthStatus prints the cached state for the configured auth URL.
func renderAuthStatus(store *cache.Store) {
	a := store.Get(globalOpts.authURL)
	if a == nil {
		fmt.Printf("Not authenticated to %s\n", globalOpts.authURL)
		return
	}

	expiry := "unknown"
	if !a.Expiry.IsZero() {
		expiry = fmt.Sprintf("%s (%s)", a.Expiry.Format(time.RFC3339), formatExpiry(a.Expiry))
	}
	rows := [][]string{{
		globalOpts.authURL,
		a.Username,
		fmt.Sprintf("%t", a.Scoped),
		a.TenantName,
		expiry,
	}}
	cli.RenderTable(os.Stdout, []string{"AUTH URL", "USER", "SCOPED", "TENANT", "EXPIRES"}, rows)
}

func runAuthLogout(c *cobra.Command, args []string) error {
	store, err := tokenStore()
	if err != nil {
		return err
	}

	if logoutAll {
		if err := store.Clear(); err != nil {
			return err
		}
		if !authQuiet {
			fmt.Println("Cleared all cached tokens.")
		}
		return nil
	}

	if globalOpts.authURL == "" {
		return cli.Errorf("no auth URL configured; set --auth-url or use --all")
	}
	if err := store.Delete(globalOpts.authURL); err != nil {
		return err
	}
	if !authQuiet {
		fmt.Printf("Logged out from %s\n", globalOpts.authURL)
	}
	return nil
}

// currentAccess pulls the cached Access out of plugins that expose one.
func currentAccess(p auth.Plugin) *access.Access {
	holder, ok := p.(interface{ Access() *access.Access })
	if !ok {
		return nil
	}
	return holder.Access()
}

// formatExpiry renders the remaining lifetime of a token.
func formatExpiry(t time.Time) string {
	d := time.Until(t)
	if d <= 0 {
		return "expired"
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("in %ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("in %dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("in %dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func init() {
	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "Suppress informational output")
	authStatusCmd.Flags().BoolVar(&statusWatch, "watch", false, "Keep running and re-render on token cache changes")
	authLogoutCmd.Flags().BoolVar(&logoutAll, "all", false, "Clear all cached tokens")

	// status and logout only read or drop local cache state.
	markUnauthenticated(authStatusCmd)
	markUnauthenticated(authLogoutCmd)

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}
