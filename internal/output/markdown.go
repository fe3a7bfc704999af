package output

import (
	"fmt"
	"strings"

	"github.com/panelkit/panelkit/internal/menu"
)

// MarkdownFormatter renders results as Markdown tables.
type MarkdownFormatter struct{}

// FormatFetch renders a fetch result as Markdown.
func (f *MarkdownFormatter) FormatFetch(result *FetchResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s %s\n\n", escapeMarkdownCell(result.Method), escapeMarkdownCell(result.URL))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	fmt.Fprintf(&sb, "| Status | %s |\n", escapeMarkdownCell(statusLabel(result)))
	fmt.Fprintf(&sb, "| Duration | %s |\n", result.Duration.Round(1e6))
	if result.Error != "" {
		fmt.Fprintf(&sb, "| Error | %s |\n", escapeMarkdownCell(result.Error))
	}

	if len(result.Header) > 0 {
		sb.WriteString("\n| Header | Value |\n")
		sb.WriteString("|--------|-------|\n")
		for _, name := range sortedHeaderNames(result.Header) {
			fmt.Fprintf(&sb, "| %s | %s |\n",
				escapeMarkdownCell(name),
				escapeMarkdownCell(strings.Join(result.Header[name], ", ")))
		}
	}
	return sb.String(), nil
}

// FormatLinks renders the flattened menu as a Markdown table.
func (f *MarkdownFormatter) FormatLinks(links []menu.LinkRef) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Title | Route | Location |\n")
	sb.WriteString("|-------|-------|----------|\n")
	for _, ref := range links {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n",
			escapeMarkdownCell(ref.Title),
			escapeMarkdownCell(routeLabel(ref.To)),
			escapeMarkdownCell(breadcrumb(ref)))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
