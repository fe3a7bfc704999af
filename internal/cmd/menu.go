package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	errwrap "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/menu"
	"github.com/panelkit/panelkit/internal/output"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Render the navigation tree",
	Long: `Render the navigation tree. "text" draws the tree, "json" prints the typed
node array served at /v1/menu, and "table" or "markdown" list every link
with its location.`,
	Args: cobra.NoArgs,
	RunE: runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)

	menuCmd.Flags().String("format", "text", "Output format: text, json, table, markdown")
	menuCmd.Flags().String("file", "", "menu YAML file (defaults to menu.path, then the built-in menu)")
}

func runMenu(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	path, _ := cmd.Flags().GetString("file")

	if strings.TrimSpace(path) == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Menu.Path
	}

	tree, err := resolveMenu(path)
	if err != nil {
		return errwrap.WrapConfigInvalid(cmd.Context(), err, "menu could not be loaded")
	}

	rendered, err := renderMenu(tree, format)
	if err != nil {
		return errwrap.WrapInvalidInput(cmd.Context(), err, "invalid menu format")
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}

func resolveMenu(path string) (*menu.Tree, error) {
	if strings.TrimSpace(path) == "" {
		return menu.Default()
	}
	return menu.Load(path)
}

func renderMenu(tree *menu.Tree, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return menu.Render(tree), nil
	case "json":
		data, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	parsed, err := output.ParseFormat(format)
	if err != nil {
		return "", err
	}
	return output.NewFormatter(parsed).FormatLinks(tree.Links())
}
