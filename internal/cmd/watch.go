package cmd

import (
	"github.com/spf13/cobra"

	errwrap "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/fetch"
	"github.com/panelkit/panelkit/internal/loader"
	"github.com/panelkit/panelkit/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a running server's loading state in the terminal",
	Long: `Open a terminal view of a running server: a spinner while any guarded
request is in flight, the current notification, and the navigation tree.

Keys: d dismisses the notification, r refreshes, q quits.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("interval", tui.DefaultInterval, "polling interval")
	addServerFlag(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := serverURL(cmd, cfg)
	if err != nil {
		return errwrap.WrapInvalidInput(cmd.Context(), err, "invalid server URL")
	}

	// The watcher's own polls get a private loader so they never show up
	// as busy on the screen they feed.
	client := fetch.New(loader.New(loader.PolicyCounted), fetch.WithUserAgent(cfg.Fetch.UserAgent))
	return tui.Run(cmd.Context(), tui.NewHTTPSource(base, client), base, interval)
}
