package handlers

import (
	"net/http"
	"strings"
)

// hopByHopHeaders are connection-scoped and never forwarded in either
// direction.
var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Proxy-Connection":    {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// copyEndToEnd copies src into dst, skipping hop-by-hop headers and any
// header named in src's Connection list.
func copyEndToEnd(dst, src http.Header) {
	named := make(map[string]struct{})
	for _, value := range src.Values("Connection") {
		for _, token := range strings.Split(value, ",") {
			if token = strings.TrimSpace(token); token != "" {
				named[http.CanonicalHeaderKey(token)] = struct{}{}
			}
		}
	}

	for key, values := range src {
		canonical := http.CanonicalHeaderKey(key)
		if _, skip := hopByHopHeaders[canonical]; skip {
			continue
		}
		if _, skip := named[canonical]; skip {
			continue
		}
		for _, v := range values {
			dst.Add(canonical, v)
		}
	}
}
