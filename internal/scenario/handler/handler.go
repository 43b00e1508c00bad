// Package handler serves the read-only scenario catalog so clients can
// render the document checklist for each procedural variant.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"simkah/internal/platform/middleware"
	"simkah/internal/scenario"
	"simkah/internal/transport/http/shared"
	dErrors "simkah/pkg/domain-errors"
)

// Handler handles the scenario catalog endpoints.
type Handler struct {
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

func New(logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{logger: logger, jwtValidator: jwtValidator}
}

// Register registers the scenario routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	sr := chi.NewRouter()
	sr.Use(middleware.Recovery(h.logger))
	sr.Use(middleware.RequestID)
	sr.Use(middleware.Logger(h.logger))
	sr.Use(middleware.Timeout(10 * time.Second))
	sr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	sr.Get("/", h.handleList)
	sr.Get("/{scenarioID}", h.handleGet)

	r.Mount("/scenarios", sr)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]any{"scenarios": scenario.List()})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	scenarioID, err := strconv.Atoi(chi.URLParam(r, "scenarioID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "scenario id must be an integer"))
		return
	}
	def, err := scenario.Get(scenarioID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, def)
}
