package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/fetch"
	"github.com/panelkit/panelkit/internal/metrics"
	"github.com/panelkit/panelkit/internal/observability"
)

// CredentialsHeader lets a caller pick the credentials mode of the
// proxied request. It is consumed here and never forwarded.
const CredentialsHeader = "X-Panelkit-Credentials"

// UpstreamHandler forwards /v1/upstream/* to the configured API through the
// guarded fetch client, so every proxied call shows on the loading state.
// Failures are answered with an error envelope and, when enabled, routed
// into the toast slot.
func (a *API) UpstreamHandler(w http.ResponseWriter, r *http.Request) {
	if a.app.UpstreamBaseURL == "" {
		respondWithError(w, r, apperrors.NewNotFoundError("upstream proxy is not configured"))
		return
	}

	credentials, err := fetch.ParseCredentials(r.Header.Get(CredentialsHeader))
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid credentials mode"))
		return
	}

	rest, err := upstreamPath(chi.URLParam(r, "*"))
	if err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid upstream path"))
		return
	}
	target := a.app.UpstreamBaseURL + rest
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	header := make(http.Header, len(r.Header))
	copyEndToEnd(header, r.Header)
	header.Del(CredentialsHeader)
	header.Del("Host")

	var body io.Reader
	if r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0 {
		body = r.Body
	}

	resp, err := a.app.Fetch.Execute(r.Context(), target, fetch.Options{
		Method:      r.Method,
		Header:      header,
		Body:        body,
		Credentials: credentials,
	})
	if err != nil {
		a.upstreamFailed(w, r, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	copyEndToEnd(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		if logger := observability.Logger(); logger != nil {
			logger.Warn("Upstream body copy interrupted",
				zap.String("target", target),
				zap.Error(err))
		}
	}
}

func (a *API) upstreamFailed(w http.ResponseWriter, r *http.Request, err error) {
	status := 0
	if statusErr, ok := fetch.AsStatusError(err); ok {
		status = statusErr.StatusCode
	}
	metrics.RecordUpstreamError(status)

	if a.app.NotifyOnError {
		a.app.Notifications.ShowError(err)
	}
	respondWithError(w, r, apperrors.FromFetchError(r.Context(), err))
}

// upstreamPath cleans the wildcard part of a proxied request into an
// escaped, rooted path. Dot-dot segments, raw or percent-encoded, are
// rejected so a request cannot leave the upstream base path.
func upstreamPath(param string) (string, error) {
	unescaped, err := url.PathUnescape(param)
	if err != nil {
		return "", err
	}
	for _, segment := range strings.Split(unescaped, "/") {
		if segment == ".." {
			return "", fmt.Errorf("path %q escapes the upstream base", param)
		}
	}

	cleaned := path.Clean("/" + unescaped)
	if strings.HasSuffix(unescaped, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return (&url.URL{Path: cleaned}).EscapedPath(), nil
}
