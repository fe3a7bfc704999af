package cmd

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/panelkit/panelkit/internal/config"
)

// addServerFlag registers --server on commands that talk to a running
// panelkit instance.
func addServerFlag(cmd *cobra.Command) {
	cmd.Flags().String("server", "", "panelkit server URL (defaults to http://server.host:server.port)")
}

// serverURL resolves the base URL of the running server.
func serverURL(cmd *cobra.Command, cfg *config.Config) (string, error) {
	raw, _ := cmd.Flags().GetString("server")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		host := cfg.Server.Host
		if host == "" || host == "0.0.0.0" || host == "::" {
			host = "localhost"
		}
		return "http://" + net.JoinHostPort(host, fmt.Sprint(cfg.Server.Port)), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("--server: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("--server %q must be an absolute http(s) URL", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}
