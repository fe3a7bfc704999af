package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/panelkit/panelkit/internal/errors"
	"github.com/panelkit/panelkit/internal/menu"
	"github.com/panelkit/panelkit/internal/notify"
)

// maxNotificationBody bounds POST /v1/notification payloads.
const maxNotificationBody = 16 << 10

// LoadingHandler reports whether any guarded request is in flight.
func (a *API) LoadingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.app.Loader.Snapshot())
}

// NotificationHandler returns the current toast.
func (a *API) NotificationHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.app.Notifications.Snapshot())
}

// ShowNotificationRequest is the body of POST /v1/notification.
type ShowNotificationRequest struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// ShowNotificationHandler replaces the toast and makes it visible. An
// omitted kind means success.
func (a *API) ShowNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var body ShowNotificationRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxNotificationBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty request body")
		}
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid notification body"))
		return
	}

	if strings.TrimSpace(body.Message) == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("notification message is required"))
		return
	}

	kind, err := notify.ParseKind(body.Kind)
	if err != nil {
		envelope := apperrors.WrapInvalidInput(r.Context(), err, "invalid notification kind")
		envelope = envelope.WithDetails(map[string]interface{}{
			"kind":    body.Kind,
			"allowed": notify.Kinds,
		})
		respondWithError(w, r, envelope)
		return
	}

	writeJSON(w, http.StatusOK, a.app.Notifications.Show(body.Message, kind))
}

// DismissNotificationHandler hides the toast, keeping its last message.
func (a *API) DismissNotificationHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.app.Notifications.Dismiss())
}

// MenuHandler returns the navigation tree.
func (a *API) MenuHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.app.Menu)
}

// MenuLinksHandler returns every leaf with its section and breadcrumb.
func (a *API) MenuLinksHandler(w http.ResponseWriter, r *http.Request) {
	links := a.app.Menu.Links()
	if links == nil {
		links = []menu.LinkRef{}
	}
	writeJSON(w, http.StatusOK, links)
}
