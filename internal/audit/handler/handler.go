// Package handler exposes the read-only audit feed consumed by monitors.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"simkah/internal/audit"
	"simkah/internal/platform/middleware"
	"simkah/internal/transport/http/shared"
	id "simkah/pkg/domain"
	dErrors "simkah/pkg/domain-errors"
	"simkah/pkg/requestcontext"
)

// Service defines the audit read operations the handler delegates to.
type Service interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
	ListBySubmission(ctx context.Context, submissionID id.SubmissionID) ([]audit.Event, error)
}

// Handler handles the monitor audit endpoints.
type Handler struct {
	logger       *slog.Logger
	audit        Service
	jwtValidator middleware.JWTValidator
}

func New(auditSvc Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		audit:        auditSvc,
		jwtValidator: jwtValidator,
	}
}

// Register registers the monitor routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	mr := chi.NewRouter()
	mr.Use(middleware.Recovery(h.logger))
	mr.Use(middleware.RequestID)
	mr.Use(middleware.Logger(h.logger))
	mr.Use(middleware.Timeout(15 * time.Second))
	mr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	mr.Use(middleware.RequireRole(h.logger, id.RoleMonitor, id.RoleOperator, id.RoleVerifier))

	mr.Get("/audit", h.handleRecent)
	mr.Get("/audit/{submissionID}", h.handleBySubmission)

	r.Mount("/monitor", mr)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	events, err := h.audit.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleBySubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	submissionID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	events, err := h.audit.ListBySubmission(ctx, submissionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"submission_id", submissionID.String(),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
