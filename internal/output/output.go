// Package output renders fetch results and menu listings for the CLI.
package output

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/panelkit/panelkit/internal/menu"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders CLI results.
type Formatter interface {
	FormatFetch(result *FetchResult) (string, error)
	FormatLinks(links []menu.LinkRef) (string, error)
}

// FetchResult summarizes one guarded request.
type FetchResult struct {
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	StatusCode  int           `json:"status_code,omitempty"`
	Status      string        `json:"status,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
	Header      http.Header   `json:"headers,omitempty"`
	BodyBytes   int64         `json:"body_bytes"`
	Body        string        `json:"body,omitempty"`
	Error       string        `json:"error,omitempty"`
	Transitions []string      `json:"loader_transitions,omitempty"`
}

// OK reports whether the request produced a 2xx response.
func (r *FetchResult) OK() bool {
	return r != nil && r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 300
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

func statusLabel(r *FetchResult) string {
	switch {
	case r.Error != "" && r.StatusCode == 0:
		return "error"
	case r.Status != "":
		return r.Status
	default:
		return fmt.Sprint(r.StatusCode)
	}
}

func sortedHeaderNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func routeLabel(r menu.Route) string {
	if r.Name != "" {
		return "@" + r.Name
	}
	return r.Path
}

func breadcrumb(ref menu.LinkRef) string {
	parts := make([]string, 0, len(ref.Breadcrumb)+1)
	if ref.Section != "" {
		parts = append(parts, ref.Section)
	}
	parts = append(parts, ref.Breadcrumb...)
	return strings.Join(parts, " / ")
}
