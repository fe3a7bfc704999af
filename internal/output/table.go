package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/panelkit/panelkit/internal/menu"
)

// TableFormatter renders results as rounded ASCII tables.
type TableFormatter struct{}

// FormatFetch renders the request summary followed by response headers.
func (f *TableFormatter) FormatFetch(result *FetchResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Request", result.Method + " " + result.URL})
	t.AppendRow(table.Row{"Status", statusLabel(result)})
	t.AppendRow(table.Row{"Duration", result.Duration.Round(1e6).String()})
	if result.StatusCode != 0 {
		t.AppendRow(table.Row{"Body", fmt.Sprintf("%d bytes", result.BodyBytes)})
	}
	if len(result.Transitions) > 0 {
		t.AppendRow(table.Row{"Loader", strings.Join(result.Transitions, " → ")})
	}
	if result.Error != "" {
		t.AppendRow(table.Row{"Error", result.Error})
	}

	rendered := t.Render()
	if len(result.Header) == 0 {
		return rendered, nil
	}

	h := table.NewWriter()
	h.SetStyle(table.StyleRounded)
	h.AppendHeader(table.Row{"Header", "Value"})
	for _, name := range sortedHeaderNames(result.Header) {
		h.AppendRow(table.Row{name, strings.Join(result.Header[name], ", ")})
	}
	return rendered + "\n" + h.Render(), nil
}

// FormatLinks renders one row per navigable entry.
func (f *TableFormatter) FormatLinks(links []menu.LinkRef) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Title", "Route", "Location"})
	for _, ref := range links {
		t.AppendRow(table.Row{ref.Title, routeLabel(ref.To), breadcrumb(ref)})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d entries", len(links))})
	return t.Render(), nil
}
