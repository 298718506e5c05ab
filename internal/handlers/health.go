package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vaughan-dsouza/lmsauth/internal/apperr"
	"github.com/vaughan-dsouza/lmsauth/internal/logging"
	"github.com/vaughan-dsouza/lmsauth/internal/utils"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db  Pinger
	log logging.Logger
}

func NewHealthHandler(db Pinger, log logging.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn(r.Context(), "health check failed", "error", err)
		utils.JSONError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var errRouteNotFound = apperr.NewNotFound("Not found")

func NotFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, errRouteNotFound)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
