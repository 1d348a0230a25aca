package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pazaauto.id/internal/audit"
	"pazaauto.id/internal/auth"
)

// AccountActivator enables and disables login accounts.
type AccountActivator interface {
	SetActive(ctx context.Context, username string, active bool) error
}

type accountActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (a *API) handleSetAccountActive(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		writeError(w, r, http.StatusBadRequest, "username is required")
		return
	}
	var req accountActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}
	if caller, _ := auth.UsernameFromContext(r.Context()); caller == username && !*req.Active {
		writeError(w, r, http.StatusBadRequest, "cannot deactivate your own account")
		return
	}
	if err := a.opts.Accounts.SetActive(r.Context(), username, *req.Active); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "account not found")
			return
		}
		a.log.Error("set account active failed", "request_id", RequestIDFromContext(r.Context()), "error", err.Error())
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "accounts.set_active", map[string]any{"username": username, "active": *req.Active})
	writeData(w, http.StatusOK, map[string]any{"username": username, "active": *req.Active})
}
