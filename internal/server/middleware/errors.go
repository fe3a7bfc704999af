package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/panelkit/panelkit/internal/metrics"
	"github.com/panelkit/panelkit/internal/observability"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR envelope. The
// stack goes to the log, never to the caller.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			requestID := GetRequestID(r.Context())
			metrics.RecordPanic()
			if logger := observability.Logger(); logger != nil {
				logger.Error("Recovered from handler panic",
					zap.String("panic", fmt.Sprint(recovered)),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestID),
					zap.String("stack", string(debug.Stack())))
			}

			envelope := errors.NewErrorEnvelope("INTERNAL_ERROR", "internal server error").
				WithCorrelationID(requestID)
			envelope, _ = envelope.WithSeverity(errors.SeverityCritical)
			writeEnvelope(w, envelope, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

type panicResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// writeEnvelope mirrors the internal/errors response shape; that package
// imports this one, so it cannot be called from here.
func writeEnvelope(w http.ResponseWriter, envelope *errors.ErrorEnvelope, statusCode int) {
	var body panicResponse
	body.Error.Code = envelope.Code
	body.Error.Message = envelope.Message
	body.Error.RequestID = envelope.CorrelationID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
