package fetch

import (
	"io"
	"net/http"
	"sync"

	"github.com/panelkit/panelkit/internal/loader"
)

// Transport marks the loader busy for the lifetime of each round trip made
// through it. Work ends when the response body is closed, or immediately if
// the round trip fails. It does not classify status codes.
type Transport struct {
	Base   http.RoundTripper
	Loader *loader.State
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Loader == nil {
		return base.RoundTrip(req)
	}

	release := t.Loader.Acquire()
	handedOff := false
	defer func() {
		if !handedOff {
			release()
		}
	}()

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	resp.Body = &releasingBody{ReadCloser: resp.Body, release: release}
	handedOff = true
	return resp, nil
}

type releasingBody struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}
