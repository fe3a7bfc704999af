package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/panelkit/panelkit/internal/fetch"
	"github.com/panelkit/panelkit/internal/loader"
	"github.com/panelkit/panelkit/internal/menu"
	"github.com/panelkit/panelkit/internal/notify"
)

// Status is one poll of a running server.
type Status struct {
	Loading loader.Snapshot
	Toast   notify.Notification
}

// Source is where the watcher reads dashboard state from.
type Source interface {
	Status(ctx context.Context) (Status, error)
	Menu(ctx context.Context) (*menu.Tree, error)
	Dismiss(ctx context.Context) error
}

// HTTPSource reads a panelkit server's /v1 endpoints.
type HTTPSource struct {
	base   string
	client *fetch.Client
}

// NewHTTPSource polls the server at base using client.
func NewHTTPSource(base string, client *fetch.Client) *HTTPSource {
	return &HTTPSource{base: strings.TrimRight(base, "/"), client: client}
}

// Status fetches the loading flag and the toast.
func (s *HTTPSource) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := s.getJSON(ctx, "/v1/loading", &st.Loading); err != nil {
		return Status{}, err
	}
	if err := s.getJSON(ctx, "/v1/notification", &st.Toast); err != nil {
		return Status{}, err
	}
	return st, nil
}

// Menu fetches the navigation tree.
func (s *HTTPSource) Menu(ctx context.Context) (*menu.Tree, error) {
	tree := &menu.Tree{}
	if err := s.getJSON(ctx, "/v1/menu", tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// Dismiss hides the server's toast.
func (s *HTTPSource) Dismiss(ctx context.Context) error {
	resp, err := s.client.Execute(ctx, s.base+"/v1/notification", fetch.Options{Method: http.MethodDelete})
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (s *HTTPSource) getJSON(ctx context.Context, path string, v interface{}) error {
	resp, err := s.client.Execute(ctx, s.base+path, fetch.Options{
		Header: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
