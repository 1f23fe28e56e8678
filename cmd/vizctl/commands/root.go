package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// globalOptions are the connection flags shared by every command
type globalOptions struct {
	server       string
	token        string
	issuer       string
	tokenURL     string
	clientID     string
	clientSecret string
	scopes       []string
	timeout      time.Duration
	output       string
}

// NewRootCmd builds the vizctl command tree
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "vizctl",
		Short:         "Command line client for the Vizflow task board",
		Long:          "Manage tasks, read the dashboard and ask the advisor from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("VIZCTL_SERVER", "http://localhost:8080"), "API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("VIZCTL_TOKEN"), "Bearer token")
	flags.StringVar(&opts.issuer, "issuer", os.Getenv("VIZCTL_ISSUER"), "OIDC issuer used to discover the token endpoint")
	flags.StringVar(&opts.tokenURL, "token-url", os.Getenv("VIZCTL_TOKEN_URL"), "OAuth2 token endpoint for client credentials")
	flags.StringVar(&opts.clientID, "client-id", os.Getenv("VIZCTL_CLIENT_ID"), "OAuth2 client id")
	flags.StringVar(&opts.clientSecret, "client-secret", os.Getenv("VIZCTL_CLIENT_SECRET"), "OAuth2 client secret")
	flags.StringSliceVar(&opts.scopes, "scope", nil, "OAuth2 scopes to request")
	flags.DurationVar(&opts.timeout, "timeout", 60*time.Second, "Request timeout")
	flags.StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")

	rootCmd.AddCommand(newTasksCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newBoardCmd(opts))
	rootCmd.AddCommand(newSuggestCmd(opts))
	rootCmd.AddCommand(newReportCmd(opts))
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newCheckCmd(opts))

	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
