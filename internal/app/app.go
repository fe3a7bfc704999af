// Package app wires the dashboard's shared state into one explicitly owned
// context. It is built once at startup and handed to the server and
// commands by reference; tests build their own.
package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/panelkit/panelkit/internal/config"
	"github.com/panelkit/panelkit/internal/fetch"
	"github.com/panelkit/panelkit/internal/loader"
	"github.com/panelkit/panelkit/internal/menu"
	"github.com/panelkit/panelkit/internal/notify"
)

// Context owns the loading state, the toast slot, the navigation tree and
// the guarded fetch client bound to the loading state.
type Context struct {
	Loader        *loader.State
	Notifications *notify.Center
	Menu          *menu.Tree
	Fetch         *fetch.Client

	// UpstreamBaseURL is the API the server proxies through Fetch. Empty
	// disables the proxy.
	UpstreamBaseURL string

	// NotifyOnError routes proxy failures into the toast slot.
	NotifyOnError bool
}

// New builds a Context from configuration.
func New(cfg *config.Config) (*Context, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	policy, err := loader.ParsePolicy(cfg.Loader.Policy)
	if err != nil {
		return nil, err
	}

	tree, err := loadMenu(cfg.Menu.Path)
	if err != nil {
		return nil, err
	}

	state := loader.New(policy)
	client := fetch.New(state,
		fetch.WithDoer(&http.Client{Timeout: cfg.Fetch.Timeout}),
		fetch.WithRateLimit(cfg.Fetch.RateLimit, cfg.Fetch.Burst),
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
	)

	return &Context{
		Loader:          state,
		Notifications:   notify.NewCenter(),
		Menu:            tree,
		Fetch:           client,
		UpstreamBaseURL: strings.TrimRight(strings.TrimSpace(cfg.Upstream.BaseURL), "/"),
		NotifyOnError:   cfg.Upstream.NotifyOnError,
	}, nil
}

func loadMenu(path string) (*menu.Tree, error) {
	if strings.TrimSpace(path) == "" {
		tree, err := menu.Default()
		if err != nil {
			return nil, fmt.Errorf("built-in menu: %w", err)
		}
		return tree, nil
	}
	return menu.Load(path)
}
