package tui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/fetch"
	"github.com/panelkit/panelkit/internal/loader"
	"github.com/panelkit/panelkit/internal/menu"
	"github.com/panelkit/panelkit/internal/notify"
)

type fakeSource struct {
	status    Status
	tree      *menu.Tree
	err       error
	dismissed int
}

func (f *fakeSource) Status(context.Context) (Status, error) { return f.status, f.err }
func (f *fakeSource) Menu(context.Context) (*menu.Tree, error) { return f.tree, f.err }
func (f *fakeSource) Dismiss(context.Context) error {
	f.dismissed++
	f.status.Toast.Visible = false
	return f.err
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestViewBeforeFirstPoll(t *testing.T) {
	m := New(context.Background(), &fakeSource{}, "http://localhost:8080", 0)
	assert.Contains(t, m.View(), "connecting")
	assert.Equal(t, DefaultInterval, m.interval)
}

func TestViewShowsBusyAndToast(t *testing.T) {
	src := &fakeSource{status: Status{
		Loading: loader.Snapshot{Active: true, InFlight: 2},
		Toast:   notify.Notification{Visible: true, Kind: notify.KindError, Message: "Request failed: 404 Not Found"},
	}}
	m := New(context.Background(), src, "srv", 0)

	m, cmd := apply(t, m, m.pollStatus())
	assert.NotNil(t, cmd, "next poll is scheduled")

	view := m.View()
	assert.Contains(t, view, "Loading (2 in flight)")
	assert.Contains(t, view, "[error] Request failed: 404 Not Found")
}

func TestViewShowsIdle(t *testing.T) {
	m := New(context.Background(), &fakeSource{}, "srv", 0)
	m, _ = apply(t, m, statusMsg{status: Status{}})

	view := m.View()
	assert.Contains(t, view, "Idle")
	assert.Contains(t, view, "no notification")
}

func TestPollErrorKeepsLastStatus(t *testing.T) {
	m := New(context.Background(), &fakeSource{}, "srv", 0)
	m, _ = apply(t, m, statusMsg{status: Status{Loading: loader.Snapshot{Active: true, InFlight: 1}}})
	m, cmd := apply(t, m, statusMsg{err: errors.New("connection refused")})

	assert.NotNil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "poll failed: connection refused")
	assert.Contains(t, view, "Loading (1 in flight)")
}

func TestMenuSidebar(t *testing.T) {
	tree, err := menu.Default()
	require.NoError(t, err)

	m := New(context.Background(), &fakeSource{}, "srv", 0)
	m, _ = apply(t, m, menuMsg{tree: tree})

	view := m.View()
	assert.Contains(t, view, "Dashboard")
	assert.Contains(t, view, "ACCESOS")
	assert.Contains(t, view, "▸ Configuraciones")
}

func TestKeys(t *testing.T) {
	src := &fakeSource{status: Status{Toast: notify.Notification{Visible: true, Message: "hi"}}}
	m := New(context.Background(), src, "srv", 0)

	_, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	require.NotNil(t, cmd)
	msg, ok := cmd().(statusMsg)
	require.True(t, ok)
	assert.Equal(t, 1, src.dismissed)
	assert.False(t, msg.status.Toast.Visible)
}

func TestHTTPSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/loading", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"active":true,"in_flight":3,"policy":"counted"}`))
	})
	mux.HandleFunc("/v1/notification", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write([]byte(`{"visible":true,"message":"Saved","kind":"success"}`))
	})
	mux.HandleFunc("/v1/menu", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"type":"heading","title":"Accesos"},{"type":"link","title":"Usuarios","to":{"name":"users"}}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	state := loader.New(loader.PolicyCounted)
	src := NewHTTPSource(srv.URL+"/", fetch.New(state))

	st, err := src.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Loading.Active)
	assert.Equal(t, 3, st.Loading.InFlight)
	assert.Equal(t, "Saved", st.Toast.Message)

	tree, err := src.Menu(context.Background())
	require.NoError(t, err)
	require.Len(t, tree.Nodes, 2)

	require.NoError(t, src.Dismiss(context.Background()))
	assert.False(t, state.Active())
}

func TestHTTPSourceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, fetch.New(loader.New(loader.PolicyCounted))).Status(context.Background())
	statusErr, ok := fetch.AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestHTTPSourceRejectsInvalidMenu(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"type":"link","title":"Orphan"}]`))
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, fetch.New(loader.New(loader.PolicyCounted))).Menu(context.Background())
	assert.Error(t, err)
}
