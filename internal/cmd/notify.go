package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/panelkit/panelkit/internal/app"
	errwrap "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/fetch"
	"github.com/panelkit/panelkit/internal/notify"
	"github.com/panelkit/panelkit/internal/server/handlers"
)

var notifyCmd = &cobra.Command{
	Use:   "notify [message]",
	Short: "Show or dismiss the toast on a running server",
	Long: `Show a message in the running server's notification slot, replacing
whatever is there. With --dismiss the current toast is hidden instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringP("kind", "k", string(notify.KindSuccess), "notification kind: success, error, warning, info")
	notifyCmd.Flags().Bool("dismiss", false, "hide the current notification")
	addServerFlag(notifyCmd)
}

func runNotify(cmd *cobra.Command, args []string) error {
	dismiss, _ := cmd.Flags().GetBool("dismiss")
	kindValue, _ := cmd.Flags().GetString("kind")

	var message string
	if len(args) > 0 {
		message = strings.TrimSpace(args[0])
	}

	kind, err := notify.ParseKind(kindValue)
	if err != nil {
		return errwrap.WrapInvalidInput(cmd.Context(), err, "invalid notification kind")
	}
	if !dismiss && message == "" {
		return errwrap.NewInvalidInputError("a message is required unless --dismiss is set")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := serverURL(cmd, cfg)
	if err != nil {
		return errwrap.WrapInvalidInput(cmd.Context(), err, "invalid server URL")
	}
	appCtx, err := app.New(cfg)
	if err != nil {
		return errwrap.WrapConfigInvalid(cmd.Context(), err, "application setup failed")
	}

	opts := fetch.Options{Method: http.MethodDelete}
	if !dismiss {
		payload, err := json.Marshal(handlers.ShowNotificationRequest{Message: message, Kind: string(kind)})
		if err != nil {
			return err
		}
		opts = fetch.Options{
			Method: http.MethodPost,
			Header: http.Header{"Content-Type": {"application/json"}},
			Body:   bytes.NewReader(payload),
		}
	}

	resp, err := appCtx.Fetch.Execute(cmd.Context(), base+"/v1/notification", opts)
	if err != nil {
		return errwrap.FromFetchError(cmd.Context(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	var state notify.Notification
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return errwrap.WrapExternalService(cmd.Context(), err, "unexpected notification response")
	}

	fmt.Fprintln(cmd.OutOrStdout(), describeNotification(state))
	return nil
}

func describeNotification(n notify.Notification) string {
	if !n.Visible {
		return "notification hidden"
	}
	return fmt.Sprintf("[%s] %s", n.Kind, n.Message)
}
