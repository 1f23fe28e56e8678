package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/benvon/vizflow/internal/handlers"
	"github.com/benvon/vizflow/internal/services/oidc"
	"github.com/spf13/cobra"
)

// newCheckCmd verifies the server and, when an issuer is given, its OIDC endpoints
func newCheckCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check server health and auth configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client, err := newClient(cmd.Context(), &globalOptions{server: opts.server, timeout: opts.timeout})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Checking server: %s\n", opts.server)
			status, raw, err := client.getRaw(cmd.Context(), "/healthz?mode=extended")
			if err != nil {
				return fmt.Errorf("failed to reach server: %w", err)
			}
			var health handlers.HealthResponse
			if err := json.Unmarshal(raw, &health); err != nil {
				return fmt.Errorf("unexpected health response (%d)", status)
			}
			names := make([]string, 0, len(health.Checks))
			for name := range health.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %s: %s\n", name, health.Checks[name])
			}
			if status != http.StatusOK {
				return fmt.Errorf("server is %s", health.Status)
			}
			fmt.Fprintln(out, "✓ Server is healthy")

			if opts.issuer == "" {
				return nil
			}
			fmt.Fprintf(out, "\nChecking issuer: %s\n", opts.issuer)
			doc, err := oidc.Discover(cmd.Context(), opts.issuer)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "✓ Discovery document is accessible")

			if _, err := oidc.NewKeyCache(oidc.DefaultJWKSTTL).Keys(cmd.Context(), doc.JWKSURI); err != nil {
				return fmt.Errorf("failed to load JWKS: %w", err)
			}
			fmt.Fprintf(out, "✓ JWKS endpoint is accessible (%s)\n", doc.JWKSURI)
			if doc.TokenEndpoint != "" {
				fmt.Fprintf(out, "  token endpoint: %s\n", doc.TokenEndpoint)
			}
			return nil
		},
	}
}
