package fetch

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkit/panelkit/internal/loader"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestTransportReleasesOnBodyClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	state := loader.New(loader.PolicyCounted)
	client := &http.Client{Transport: &Transport{Base: server.Client().Transport, Loader: state}}

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	assert.True(t, state.Active(), "busy until the body is closed")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	require.NoError(t, resp.Body.Close())
	assert.False(t, state.Active())

	_ = resp.Body.Close()
	assert.Equal(t, 0, state.InFlight())
}

func TestTransportDoesNotClassifyStatus(t *testing.T) {
	state := loader.New(loader.PolicyCounted)
	rt := &Transport{
		Loader: state,
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusTeapot, Body: io.NopCloser(strings.NewReader("x"))}, nil
		}),
	}

	req := httptestRequest(t)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
	assert.False(t, state.Active())
}

func TestTransportReleasesOnError(t *testing.T) {
	state := loader.New(loader.PolicyCounted)
	boom := errors.New("boom")
	rt := &Transport{
		Loader: state,
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return nil, boom
		}),
	}

	_, err := rt.RoundTrip(httptestRequest(t))
	assert.ErrorIs(t, err, boom)
	assert.False(t, state.Active())
}

func TestTransportReleasesOnEmptyBody(t *testing.T) {
	state := loader.New(loader.PolicyCounted)
	rt := &Transport{
		Loader: state,
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody}, nil
		}),
	}

	_, err := rt.RoundTrip(httptestRequest(t))
	require.NoError(t, err)
	assert.False(t, state.Active())
}

func httptestRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://example.test/", nil)
	require.NoError(t, err)
	return req
}

func TestTransportReleasesWhenBasePanics(t *testing.T) {
	state := loader.New(loader.PolicyCounted)
	rt := &Transport{
		Loader: state,
		Base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			panic("base transport exploded")
		}),
	}

	assert.Panics(t, func() {
		_, _ = rt.RoundTrip(httptestRequest(t))
	})
	assert.False(t, state.Active())
	assert.Equal(t, 0, state.InFlight())
}
