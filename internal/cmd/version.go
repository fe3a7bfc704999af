package cmd

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/panelkit/panelkit/internal/server/handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		extended, _ := cmd.Flags().GetBool("extended")

		handlers.SetVersionInfo(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
		fmt.Fprint(cmd.OutOrStdout(), formatVersion(handlers.CurrentVersion(), extended))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("extended", "e", false, "show extended version information")
}

func formatVersion(v handlers.VersionResponse, extended bool) string {
	if !extended {
		return fmt.Sprintf("%s %s\n", v.App.Name, v.App.Version)
	}

	lines := []string{
		fmt.Sprintf("%s %s", v.App.Name, v.App.Version),
		"",
		fmt.Sprintf("Commit: %s", v.App.Commit),
		fmt.Sprintf("Built: %s", v.App.BuildDate),
		fmt.Sprintf("Go: %s", v.App.GoVersion),
		fmt.Sprintf("Platform: %s", v.Runtime.Platform),
		"",
		fmt.Sprintf("Gofulmen: %s", v.Dependencies.Gofulmen),
		fmt.Sprintf("Crucible: %s", v.Dependencies.Crucible),
	}
	return ascii.DrawBox(strings.Join(lines, "\n"), 0)
}
