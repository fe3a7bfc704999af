// Package menu models the dashboard's vertical navigation as a tagged-union
// tree: section headings, links to routes, and groups of nested entries.
package menu

import (
	"errors"
	"fmt"
	"strings"
)

// Kind discriminates tree nodes in encoded form.
type Kind string

const (
	KindHeading Kind = "heading"
	KindLink    Kind = "link"
	KindGroup   Kind = "group"
)

// Node is one entry of the tree. It is implemented by Heading, Link and
// Group only.
type Node interface {
	Kind() Kind
	Label() string
}

// Heading separates sections of the menu.
type Heading struct {
	Title string
}

// Link navigates to a route.
type Link struct {
	Title string `json:"title"`
	To    Route  `json:"to"`
	Icon  string `json:"icon,omitempty"`
}

// Group nests entries under a collapsible title.
type Group struct {
	Title    string
	Icon     string
	Children []Node
}

func (Heading) Kind() Kind { return KindHeading }
func (Link) Kind() Kind { return KindLink }
func (Group) Kind() Kind { return KindGroup }

func (h Heading) Label() string { return h.Title }
func (l Link) Label() string { return l.Title }
func (g Group) Label() string { return g.Title }

// Route is either a named route or a plain path.
type Route struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// IsZero reports whether the route points nowhere.
func (r Route) IsZero() bool {
	return strings.TrimSpace(r.Name) == "" && strings.TrimSpace(r.Path) == ""
}

func (r Route) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Path
}

// Tree is the ordered top level of the menu.
type Tree struct {
	Nodes []Node
}

// ErrStop ends a Walk early without reporting an error.
var ErrStop = errors.New("stop walk")

// WalkFunc receives every node with the titles of its ancestor groups.
type WalkFunc func(parents []string, n Node) error

// Walk visits nodes depth-first in declaration order.
func (t *Tree) Walk(fn WalkFunc) error {
	if t == nil {
		return nil
	}
	err := walk(nil, t.Nodes, fn)
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func walk(parents []string, nodes []Node, fn WalkFunc) error {
	for _, n := range nodes {
		if err := fn(parents, n); err != nil {
			return err
		}
		if g, ok := n.(Group); ok {
			next := append(append([]string(nil), parents...), g.Title)
			if err := walk(next, g.Children, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// LinkRef is a leaf together with its breadcrumb.
type LinkRef struct {
	Link
	Section    string   `json:"section,omitempty"`
	Breadcrumb []string `json:"breadcrumb,omitempty"`
}

// Links flattens the tree into its leaves. Section is the nearest heading
// above the link at the top level.
func (t *Tree) Links() []LinkRef {
	var (
		out     []LinkRef
		section string
	)
	_ = t.Walk(func(parents []string, n Node) error {
		switch v := n.(type) {
		case Heading:
			if len(parents) == 0 {
				section = v.Title
			}
		case Link:
			out = append(out, LinkRef{
				Link:       v,
				Section:    section,
				Breadcrumb: append([]string(nil), parents...),
			})
		}
		return nil
	})
	return out
}

// FindRoute returns the first link whose route matches name or path.
func (t *Tree) FindRoute(route string) (LinkRef, bool) {
	for _, ref := range t.Links() {
		if ref.To.Name == route || ref.To.Path == route {
			return ref, true
		}
	}
	return LinkRef{}, false
}

// Validate checks the structural rules of every node.
func (t *Tree) Validate() error {
	if t == nil || len(t.Nodes) == 0 {
		return errors.New("menu is empty")
	}
	return validate("menu", t.Nodes)
}

func validate(path string, nodes []Node) error {
	for i, n := range nodes {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch v := n.(type) {
		case Heading:
			if strings.TrimSpace(v.Title) == "" {
				return fmt.Errorf("%s: heading requires a title", at)
			}
		case Link:
			if strings.TrimSpace(v.Title) == "" {
				return fmt.Errorf("%s: link requires a title", at)
			}
			if v.To.IsZero() {
				return fmt.Errorf("%s: link %q requires a route", at, v.Title)
			}
		case Group:
			if strings.TrimSpace(v.Title) == "" {
				return fmt.Errorf("%s: group requires a title", at)
			}
			if len(v.Children) == 0 {
				return fmt.Errorf("%s: group %q has no children", at, v.Title)
			}
			if err := validate(at+".children", v.Children); err != nil {
				return err
			}
		case nil:
			return fmt.Errorf("%s: empty entry", at)
		default:
			return fmt.Errorf("%s: unsupported entry %T", at, n)
		}
	}
	return nil
}
