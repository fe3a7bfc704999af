package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panelkit/panelkit/internal/app"
	errwrap "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/fetch"
	"github.com/panelkit/panelkit/internal/observability"
	"github.com/panelkit/panelkit/internal/output"
)

// maxShownBody caps how much of a response body --show-body prints.
const maxShownBody = 64 << 10

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Perform one guarded request and summarize it",
	Long: `Perform one guarded request. The loading state is busy for exactly the
duration of the request; with --verbose each transition is logged.

A non-2xx response or a transport failure exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringP("method", "X", http.MethodGet, "HTTP method")
	fetchCmd.Flags().StringArrayP("header", "H", nil, "request header as key=value or 'Key: value' (repeatable)")
	fetchCmd.Flags().StringP("data", "d", "", "request body; @file reads it from a file")
	fetchCmd.Flags().String("credentials", "", "credentials mode: include, same-origin, omit")
	fetchCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	fetchCmd.Flags().Bool("show-body", false, "print the response body after the summary")
}

// fetchRequest is the parsed form of the fetch flags.
type fetchRequest struct {
	Target      string
	Method      string
	Header      http.Header
	Body        string
	Credentials fetch.Credentials
	ShowBody    bool
}

func runFetch(cmd *cobra.Command, args []string) error {
	req, format, err := parseFetchFlags(cmd, args[0])
	if err != nil {
		return errwrap.WrapInvalidInput(cmd.Context(), err, "invalid fetch arguments")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appCtx, err := app.New(cfg)
	if err != nil {
		return errwrap.WrapConfigInvalid(cmd.Context(), err, "application setup failed")
	}

	result, fetchErr := executeFetch(cmd.Context(), appCtx.Fetch, req)

	rendered, err := output.NewFormatter(format).FormatFetch(result)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	if req.ShowBody && result.Body != "" && format != output.FormatJSON {
		fmt.Fprintln(cmd.OutOrStdout(), result.Body)
	}

	if fetchErr != nil {
		return errwrap.FromFetchError(cmd.Context(), fetchErr)
	}
	return nil
}

func parseFetchFlags(cmd *cobra.Command, target string) (fetchRequest, output.Format, error) {
	req := fetchRequest{Target: strings.TrimSpace(target)}
	if req.Target == "" {
		return req, "", fmt.Errorf("url is required")
	}

	method, _ := cmd.Flags().GetString("method")
	req.Method = strings.ToUpper(strings.TrimSpace(method))

	rawHeaders, _ := cmd.Flags().GetStringArray("header")
	header, err := parseHeaders(rawHeaders)
	if err != nil {
		return req, "", err
	}
	req.Header = header

	data, _ := cmd.Flags().GetString("data")
	if req.Body, err = readData(data); err != nil {
		return req, "", err
	}

	credentials, _ := cmd.Flags().GetString("credentials")
	if req.Credentials, err = fetch.ParseCredentials(credentials); err != nil {
		return req, "", err
	}

	req.ShowBody, _ = cmd.Flags().GetBool("show-body")

	formatValue, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return req, "", err
	}
	return req, format, nil
}

// parseHeaders accepts both key=value and curl-style "Key: value".
func parseHeaders(values []string) (http.Header, error) {
	header := make(http.Header)
	for _, raw := range values {
		idx := strings.IndexAny(raw, ":=")
		if idx <= 0 {
			return nil, fmt.Errorf("malformed header %q (want key=value)", raw)
		}
		key := strings.TrimSpace(raw[:idx])
		if key == "" {
			return nil, fmt.Errorf("malformed header %q (empty name)", raw)
		}
		header.Add(key, strings.TrimSpace(raw[idx+1:]))
	}
	return header, nil
}

func readData(value string) (string, error) {
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(value, "@"))
	if err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}
	return string(data), nil
}

// executeFetch runs one guarded request and records the loader transitions
// it caused. The returned result is always non-nil.
func executeFetch(ctx context.Context, client *fetch.Client, req fetchRequest) (*output.FetchResult, error) {
	var (
		mu          sync.Mutex
		transitions []string
	)
	cancel := client.Loader().Subscribe(func(active bool) {
		label := "idle"
		if active {
			label = "busy"
		}
		if logger := observability.CLILogger; logger != nil {
			logger.Debug("Loader transition", zap.String("state", label))
		}
		mu.Lock()
		transitions = append(transitions, label)
		mu.Unlock()
	})
	defer cancel()

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	result := &output.FetchResult{Method: method, URL: req.Target}

	start := time.Now()
	resp, err := client.Execute(ctx, req.Target, fetch.Options{
		Method:      method,
		Header:      req.Header,
		Body:        body,
		Credentials: req.Credentials,
	})
	if err == nil {
		result.StatusCode = resp.StatusCode
		result.Status = resp.Status
		result.Header = resp.Header
		result.BodyBytes, result.Body, err = readBody(resp.Body, req.ShowBody)
		_ = resp.Body.Close()
	}
	result.Duration = time.Since(start)

	if err != nil {
		if statusErr, ok := fetch.AsStatusError(err); ok {
			result.StatusCode = statusErr.StatusCode
			result.Status = statusErr.Status
		}
		result.Error = err.Error()
	}

	mu.Lock()
	result.Transitions = append([]string(nil), transitions...)
	mu.Unlock()
	return result, err
}

func readBody(r io.Reader, keep bool) (int64, string, error) {
	if !keep {
		n, err := io.Copy(io.Discard, r)
		return n, "", err
	}

	var sb strings.Builder
	n, err := io.Copy(&sb, io.LimitReader(r, maxShownBody))
	if err != nil {
		return n, sb.String(), err
	}
	rest, err := io.Copy(io.Discard, r)
	return n + rest, sb.String(), err
}
