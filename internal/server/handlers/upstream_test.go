package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamPath(t *testing.T) {
	cases := map[string]string{
		"":                "/",
		"items":           "/items",
		"/items/new":      "/items/new",
		"items/":          "/items/",
		"items//7":        "/items/7",
		"items/./7":       "/items/7",
		"a%20b/c":         "/a%20b/c",
		"reports/q1%2F24": "/reports/q1/24",
	}
	for in, want := range cases {
		got, err := upstreamPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"..", "../x", "items/../../x", "%2e%2e/x", "%2E%2E", "%zz"} {
		_, err := upstreamPath(bad)
		assert.Error(t, err, bad)
	}
}
