package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"idctl/internal/cli"
	"idctl/internal/config"
	"idctl/pkg/logging"
)

// annotationNoAuth marks commands that must run without any credential
// gating, e.g. discover and version.
const annotationNoAuth = "idctl.noauth"

// globalOptions are the persistent credential and connection flags. Each
// defaults to its environment variable when the flag is omitted.
type globalOptions struct {
	username   string
	password   string
	tenantName string
	tenantID   string
	authURL    string
	region     string
	token      string
	endpoint   string
	pluginName string
	configPath string
	debug      bool
}

var globalOpts globalOptions

// cfg is the file configuration, loaded once before any command runs.
var cfg config.Config

// rootCmd is the base command for idctl.
var rootCmd = &cobra.Command{
	Use:   "idctl",
	Short: "Command-line client for the identity service",
	Long: `idctl manages tenants, users and roles on an identity service.

Authentication is pluggable: the default password plugin exchanges a
username and password for a token, the token plugin passes a pre-obtained
token straight through, and further plugins can be selected with
--os-auth-plugin. Tokens are cached on disk and reused until they expire.`,
	// SilenceUsage keeps handled errors from dumping the usage text; the
	// user gets one concise line on stderr instead.
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupAndGate,
}

// SetVersion sets the version for the root command. Called from main with
// the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the CLI. Errors print as a single line on stderr and map to
// semantic exit codes; --debug switches to the full error detail.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "idctl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if globalOpts.debug {
		fmt.Fprintf(os.Stderr, "ERROR: %+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}

// markUnauthenticated flags a command as runnable without credentials.
func markUnauthenticated(c *cobra.Command) *cobra.Command {
	if c.Annotations == nil {
		c.Annotations = map[string]string{}
	}
	c.Annotations[annotationNoAuth] = "true"
	return c
}

// isUnauthenticated reports whether c or any of its parents carries the
// no-auth annotation.
func isUnauthenticated(c *cobra.Command) bool {
	for ; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoAuth] == "true" {
			return true
		}
	}
	return false
}

// setupAndGate initializes logging and configuration, then enforces
// credential presence for commands that require authentication. The checks
// run before any network interaction so a missing password fails fast.
func setupAndGate(c *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if globalOpts.debug {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stderr)

	configPath := globalOpts.configPath
	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = p
	}
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	applyConfigDefaults()

	if isUnauthenticated(c) || c.Name() == "help" || c.Name() == "completion" {
		return nil
	}

	return checkCredentials()
}

// applyConfigDefaults fills flag values that were neither given on the
// command line nor through the environment from the config file.
func applyConfigDefaults() {
	if globalOpts.authURL == "" {
		globalOpts.authURL = cfg.AuthURL
	}
	if globalOpts.endpoint == "" {
		globalOpts.endpoint = cfg.Endpoint
	}
	if globalOpts.region == "" {
		globalOpts.region = cfg.Region
	}
	if globalOpts.pluginName == "" {
		globalOpts.pluginName = cfg.AuthPlugin
	}
}

// checkCredentials validates that enough options are present to build an
// authenticated session. A pre-obtained token plus endpoint bypasses the
// credential checks entirely, as does a still-valid cached token.
func checkCredentials() error {
	if globalOpts.token != "" && globalOpts.endpoint != "" {
		return nil
	}

	if globalOpts.pluginName != "" && globalOpts.pluginName != "password" {
		// Non-default plugins validate their own options at construction.
		return nil
	}

	if hasCachedAccess() {
		return nil
	}

	if globalOpts.username == "" {
		return &cli.MissingCredentialsError{Flag: "username", Env: "OS_USERNAME"}
	}
	if globalOpts.password == "" {
		return &cli.MissingCredentialsError{Flag: "password", Env: "OS_PASSWORD"}
	}
	if globalOpts.authURL == "" {
		return &cli.MissingCredentialsError{Flag: "auth-url", Env: "OS_AUTH_URL"}
	}
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalOpts.username, "username", cli.FirstEnv("OS_USERNAME"),
		"User name. Defaults to env[OS_USERNAME]")
	pf.StringVar(&globalOpts.password, "password", cli.FirstEnv("OS_PASSWORD"),
		"Password. Defaults to env[OS_PASSWORD]")
	pf.StringVar(&globalOpts.tenantName, "tenant-name", cli.FirstEnv("OS_TENANT_NAME"),
		"Tenant name. Defaults to env[OS_TENANT_NAME]")
	pf.StringVar(&globalOpts.tenantID, "tenant-id", cli.FirstEnv("OS_TENANT_ID"),
		"Tenant id. Defaults to env[OS_TENANT_ID]")
	pf.StringVar(&globalOpts.authURL, "auth-url", cli.FirstEnv("OS_AUTH_URL"),
		"Identity service URL. Defaults to env[OS_AUTH_URL]")
	pf.StringVar(&globalOpts.region, "region", cli.FirstEnv("OS_REGION_NAME"),
		"Region name. Defaults to env[OS_REGION_NAME]")
	pf.StringVar(&globalOpts.token, "token", cli.FirstEnv("SERVICE_TOKEN"),
		"Pre-obtained token. Defaults to env[SERVICE_TOKEN]")
	pf.StringVar(&globalOpts.endpoint, "endpoint", cli.FirstEnv("SERVICE_ENDPOINT"),
		"Service endpoint. Defaults to env[SERVICE_ENDPOINT]")
	pf.StringVar(&globalOpts.pluginName, "os-auth-plugin", cli.FirstEnv("OS_AUTH_PLUGIN"),
		"Authentication plugin to use. Defaults to env[OS_AUTH_PLUGIN]")
	pf.StringVar(&globalOpts.configPath, "config", "",
		"Config directory (default is $HOME/.config/idctl)")
	pf.BoolVar(&globalOpts.debug, "debug", false,
		"Enable debug logging and full error detail")
}
