package menu

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in navigation tree.
func Default() (*Tree, error) {
	return Parse(defaultYAML)
}

// Load reads a YAML menu file.
func Load(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading menu: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML menu.
//
// Each entry is exactly one of:
//
//	- heading: Accesos
//	- title: Usuarios
//	  to: {name: users}     # or a plain path: to: second-page
//	  icon: ri-group-line   # or {icon: ri-group-line}
//	- title: Configuraciones
//	  children: [...]
func Parse(data []byte) (*Tree, error) {
	var raw []rawNode
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing menu: %w", err)
	}

	nodes, err := convert("menu", raw)
	if err != nil {
		return nil, err
	}

	tree := &Tree{Nodes: nodes}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	return tree, nil
}

type rawNode struct {
	Heading  string    `yaml:"heading"`
	Title    string    `yaml:"title"`
	To       *rawRoute `yaml:"to"`
	Icon     rawIcon   `yaml:"icon"`
	Children []rawNode `yaml:"children"`
}

type rawRoute Route

func (r *rawRoute) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		r.Path = strings.TrimSpace(value.Value)
		return nil
	case yaml.MappingNode:
		var named Route
		if err := value.Decode(&named); err != nil {
			return err
		}
		*r = rawRoute(named)
		return nil
	default:
		return fmt.Errorf("line %d: route must be a path or a {name: ...} mapping", value.Line)
	}
}

type rawIcon string

func (i *rawIcon) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*i = rawIcon(strings.TrimSpace(value.Value))
		return nil
	case yaml.MappingNode:
		var wrapped struct {
			Icon string `yaml:"icon"`
		}
		if err := value.Decode(&wrapped); err != nil {
			return err
		}
		*i = rawIcon(strings.TrimSpace(wrapped.Icon))
		return nil
	default:
		return fmt.Errorf("line %d: icon must be a name or an {icon: ...} mapping", value.Line)
	}
}

func convert(path string, raw []rawNode) ([]Node, error) {
	nodes := make([]Node, 0, len(raw))
	for i, r := range raw {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch {
		case r.Heading != "":
			if r.Title != "" || r.To != nil || len(r.Children) > 0 {
				return nil, fmt.Errorf("%s: heading %q cannot also be a link or group", at, r.Heading)
			}
			nodes = append(nodes, Heading{Title: r.Heading})
		case len(r.Children) > 0:
			if r.To != nil {
				return nil, fmt.Errorf("%s: group %q cannot also have a route", at, r.Title)
			}
			children, err := convert(at+".children", r.Children)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Group{Title: r.Title, Icon: string(r.Icon), Children: children})
		case r.To != nil:
			nodes = append(nodes, Link{Title: r.Title, To: Route(*r.To), Icon: string(r.Icon)})
		default:
			return nil, fmt.Errorf("%s: entry %q needs a heading, a route or children", at, r.Title)
		}
	}
	return nodes, nil
}

type jsonNode struct {
	Type     Kind       `json:"type"`
	Title    string     `json:"title"`
	To       *Route     `json:"to,omitempty"`
	Icon     string     `json:"icon,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

// MarshalJSON encodes the tree as an array of typed nodes.
func (t Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(t.Nodes))
}

// UnmarshalJSON decodes and validates the array form produced by
// MarshalJSON. The receiver is left untouched on error.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw []jsonNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	nodes, err := fromJSON("menu", raw)
	if err != nil {
		return err
	}
	decoded := Tree{Nodes: nodes}
	if err := decoded.Validate(); err != nil {
		return err
	}
	t.Nodes = decoded.Nodes
	return nil
}

func toJSON(nodes []Node) []jsonNode {
	out := make([]jsonNode, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case Heading:
			out = append(out, jsonNode{Type: KindHeading, Title: v.Title})
		case Link:
			to := v.To
			out = append(out, jsonNode{Type: KindLink, Title: v.Title, To: &to, Icon: v.Icon})
		case Group:
			out = append(out, jsonNode{Type: KindGroup, Title: v.Title, Icon: v.Icon, Children: toJSON(v.Children)})
		}
	}
	return out
}

func fromJSON(path string, raw []jsonNode) ([]Node, error) {
	nodes := make([]Node, 0, len(raw))
	for i, r := range raw {
		switch r.Type {
		case KindHeading:
			nodes = append(nodes, Heading{Title: r.Title})
		case KindLink:
			var to Route
			if r.To != nil {
				to = *r.To
			}
			nodes = append(nodes, Link{Title: r.Title, To: to, Icon: r.Icon})
		case KindGroup:
			children, err := fromJSON(fmt.Sprintf("%s[%d].children", path, i), r.Children)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Group{Title: r.Title, Icon: r.Icon, Children: children})
		default:
			return nil, fmt.Errorf("%s[%d]: unknown node type %q", path, i, r.Type)
		}
	}
	return nodes, nil
}
