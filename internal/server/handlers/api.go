package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/panelkit/panelkit/internal/app"
	apperrors "github.com/panelkit/panelkit/internal/errors"
)

// API serves the /v1 endpoints from a shared application context.
type API struct {
	app *app.Context
}

// NewAPI binds the /v1 handlers to appCtx.
func NewAPI(appCtx *app.Context) *API {
	return &API{app: appCtx}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
