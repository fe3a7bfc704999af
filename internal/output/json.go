package output

import (
	"encoding/json"

	"github.com/panelkit/panelkit/internal/menu"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatFetch renders a fetch result as JSON.
func (f *JSONFormatter) FormatFetch(result *FetchResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return f.marshal(result)
}

// FormatLinks renders the flattened menu as a JSON array.
func (f *JSONFormatter) FormatLinks(links []menu.LinkRef) (string, error) {
	if links == nil {
		links = []menu.LinkRef{}
	}
	return f.marshal(links)
}

func (f *JSONFormatter) marshal(v interface{}) (string, error) {
	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
