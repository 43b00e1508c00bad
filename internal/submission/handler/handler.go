// Package handler exposes the submission lifecycle over HTTP. It stays thin:
// decode, validate, delegate to the service, render.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"simkah/internal/domain"
	"simkah/internal/platform/metrics"
	"simkah/internal/platform/middleware"
	"simkah/internal/submission/service"
	"simkah/internal/transport/http/shared"
	id "simkah/pkg/domain"
	dErrors "simkah/pkg/domain-errors"
	"simkah/pkg/requestcontext"
)

// Service defines the submission operations the handler delegates to.
type Service interface {
	Create(ctx context.Context, actor service.Actor, input service.MarriageInput, docs []domain.Document) (*domain.Submission, error)
	Update(ctx context.Context, actor service.Actor, submissionID id.SubmissionID, input service.MarriageInput, docs []domain.Document) (*domain.Submission, error)
	Submit(ctx context.Context, actor service.Actor, submissionID id.SubmissionID, notes string) (*domain.Submission, error)
	Claim(ctx context.Context, actor service.Actor, submissionID id.SubmissionID) (*domain.Submission, error)
	ReturnForRevision(ctx context.Context, actor service.Actor, submissionID id.SubmissionID, notes string) (*domain.Submission, error)
	SendToVerification(ctx context.Context, actor service.Actor, submissionID id.SubmissionID, notes string) (*domain.Submission, error)
	Decide(ctx context.Context, actor service.Actor, submissionID id.SubmissionID, decision domain.Status, notes string) (*domain.Submission, error)
	Get(ctx context.Context, actor service.Actor, submissionID id.SubmissionID) (*domain.Submission, error)
	Queue(ctx context.Context, actor service.Actor, filter service.QueueFilter) ([]*domain.Submission, error)
	History(ctx context.Context, actor service.Actor, submissionID id.SubmissionID) ([]domain.StatusLogEntry, error)
}

// Handler handles submission endpoints.
type Handler struct {
	logger       *slog.Logger
	submissions  Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new submission Handler.
func New(
	submissions Service,
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		submissions:  submissions,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the submission routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	sr := chi.NewRouter()
	sr.Use(middleware.Recovery(h.logger))
	sr.Use(middleware.RequestID)
	sr.Use(middleware.RequestTime)
	sr.Use(middleware.Logger(h.logger))
	sr.Use(middleware.Timeout(30 * time.Second))
	sr.Use(middleware.ContentTypeJSON)
	sr.Use(middleware.Latency(h.metrics))
	sr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	sr.Post("/", h.handleCreate)
	sr.Get("/", h.handleQueue)
	sr.Get("/{submissionID}", h.handleGet)
	sr.Put("/{submissionID}", h.handleUpdate)
	sr.Get("/{submissionID}/history", h.handleHistory)
	sr.Post("/{submissionID}/submit", h.handleSubmit)
	sr.Post("/{submissionID}/claim", h.handleClaim)
	sr.Post("/{submissionID}/return", h.handleReturn)
	sr.Post("/{submissionID}/forward", h.handleForward)
	sr.Post("/{submissionID}/decide", h.handleDecide)

	r.Mount("/submissions", sr)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmissionContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	input, docs, err := req.Validate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	sub, err := h.submissions.Create(ctx, actorFrom(ctx), input, docs)
	if err != nil {
		h.logFailure(ctx, "failed to create submission", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	submissionID, err := pathSubmissionID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req SubmissionContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	input, docs, err := req.Validate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	sub, err := h.submissions.Update(ctx, actorFrom(ctx), submissionID, input, docs)
	if err != nil {
		h.logFailure(ctx, "failed to update submission", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.handleNotesTransition(w, r, "failed to submit submission", h.submissions.Submit)
}

func (h *Handler) handleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	submissionID, err := pathSubmissionID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	sub, err := h.submissions.Claim(ctx, actorFrom(ctx), submissionID)
	if err != nil {
		h.logFailure(ctx, "failed to claim submission", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	h.handleNotesTransition(w, r, "failed to return submission", h.submissions.ReturnForRevision)
}

func (h *Handler) handleForward(w http.ResponseWriter, r *http.Request) {
	h.handleNotesTransition(w, r, "failed to forward submission", h.submissions.SendToVerification)
}

// handleNotesTransition covers the transitions whose body is just notes.
func (h *Handler) handleNotesTransition(
	w http.ResponseWriter,
	r *http.Request,
	failureMsg string,
	op func(context.Context, service.Actor, id.SubmissionID, string) (*domain.Submission, error),
) {
	ctx := r.Context()
	submissionID, err := pathSubmissionID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req NotesRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			shared.WriteError(w, err)
			return
		}
	}

	sub, err := op(ctx, actorFrom(ctx), submissionID, req.Notes)
	if err != nil {
		h.logFailure(ctx, failureMsg, err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	submissionID, err := pathSubmissionID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req DecideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	decision, err := req.Validate()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	sub, err := h.submissions.Decide(ctx, actorFrom(ctx), submissionID, decision, req.Notes)
	if err != nil {
		h.logFailure(ctx, "failed to decide submission", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	submissionID, err := pathSubmissionID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	sub, err := h.submissions.Get(ctx, actorFrom(ctx), submissionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := service.QueueFilter{}
	if status := r.URL.Query().Get("status"); status != "" {
		parsed, err := domain.ParseStatus(status)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		filter.Status = parsed
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		filter.Limit = n
	}

	subs, err := h.submissions.Queue(ctx, actorFrom(ctx), filter)
	if err != nil {
		h.logFailure(ctx, "failed to list submissions", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	submissionID, err := pathSubmissionID(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	log, err := h.submissions.History(ctx, actorFrom(ctx), submissionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"history": log})
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	logFn := h.logger.WarnContext
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		logFn = h.logger.ErrorContext
	}
	logFn(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}

func actorFrom(ctx context.Context) service.Actor {
	return service.Actor{
		ID:   requestcontext.ActorID(ctx),
		Role: requestcontext.Role(ctx),
	}
}

func pathSubmissionID(r *http.Request) (id.SubmissionID, error) {
	return id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
}
