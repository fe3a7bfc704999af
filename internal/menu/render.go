package menu

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
)

// Render draws the tree as an indented list for terminals.
func Render(t *Tree) string {
	if t == nil || len(t.Nodes) == 0 {
		return ""
	}

	w := list.NewWriter()
	w.SetStyle(list.StyleConnectedRounded)
	appendNodes(w, t.Nodes)
	return w.Render()
}

func appendNodes(w list.Writer, nodes []Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case Heading:
			w.AppendItem(strings.ToUpper(v.Title))
		case Link:
			w.AppendItem(fmt.Sprintf("%s → %s", v.Title, describeRoute(v.To)))
		case Group:
			w.AppendItem(v.Title)
			w.Indent()
			appendNodes(w, v.Children)
			w.UnIndent()
		}
	}
}

func describeRoute(r Route) string {
	if r.Name != "" {
		return "@" + r.Name
	}
	return "/" + strings.TrimPrefix(r.Path, "/")
}
