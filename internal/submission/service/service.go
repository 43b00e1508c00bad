// Package service orchestrates the submission lifecycle: creation, editing,
// the two submission gates, the claim protocol, and verifier decisions.
// Transition legality lives in internal/workflow; atomicity lives in the
// store; this package sequences them and translates store sentinels into
// domain errors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"simkah/internal/audit"
	"simkah/internal/domain"
	"simkah/internal/gate"
	"simkah/internal/platform/metrics"
	"simkah/internal/scenario"
	"simkah/internal/submission/store"
	"simkah/internal/ticket"
	"simkah/internal/workflow"
	id "simkah/pkg/domain"
	dErrors "simkah/pkg/domain-errors"
	"simkah/pkg/platform/sentinel"
	"simkah/pkg/requestcontext"
)

// Actor is the authenticated caller, as supplied by the identity middleware.
// The service trusts it without re-validating credentials.
type Actor struct {
	ID   id.ActorID
	Role id.Role
}

// AuditPublisher receives workflow events after a mutation commits. Failures
// are logged, never propagated: the submission's own status log is the
// authoritative trail and is written atomically by the store.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service coordinates submission lifecycle operations.
type Service struct {
	store   store.Store
	tickets *ticket.Allocator
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// New constructs a Service.
func New(st store.Store, tickets *ticket.Allocator, opts ...Option) *Service {
	s := &Service{
		store:   st,
		tickets: tickets,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarriageInput is the validated marriage payload for create/update.
type MarriageInput struct {
	HusbandNIK   string
	HusbandName  string
	WifeNIK      string
	WifeName     string
	MarriageDate time.Time
	ScenarioID   int
}

// Create opens a new DRAFT submission for the originating clerk.
func (s *Service) Create(ctx context.Context, actor Actor, input MarriageInput, docs []domain.Document) (*domain.Submission, error) {
	if actor.Role != id.RoleClerk {
		return nil, dErrors.New(dErrors.CodeForbidden, "only clerks create submissions")
	}

	marriage, err := buildMarriageData(input)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	ticketNumber, err := s.tickets.Allocate(ctx, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate ticket number")
	}

	sub, err := domain.NewSubmission(id.SubmissionID(uuid.New()), ticketNumber, actor.ID, marriage, docs, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create submission")
	}

	s.metrics.IncSubmissionsCreated()
	s.emitAudit(ctx, actor, sub, audit.ActionSubmissionCreated, "", "")
	return sub, nil
}

// Update replaces the dossier content while it is editable. Gates are not
// run here: completeness is checked at submit time, not on every save.
func (s *Service) Update(ctx context.Context, actor Actor, submissionID id.SubmissionID, input MarriageInput, docs []domain.Document) (*domain.Submission, error) {
	sub, err := s.find(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := sub.CanEdit(actor.ID); err != nil {
		return nil, err
	}

	marriage, err := buildMarriageData(input)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.ReplaceContent(ctx, submissionID, marriage, docs, requestcontext.Now(ctx))
	if err != nil {
		// The editable check above passed on a stale read; the store guard
		// caught a concurrent submit.
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeConflict, "submission is no longer editable")
		}
		return nil, s.translate(err, "failed to update submission")
	}

	s.emitAudit(ctx, actor, updated, audit.ActionSubmissionUpdated, "", "")
	return updated, nil
}

// Submit runs both gates and moves an editable dossier into the shared work
// queue. Gate failures short-circuit: the transition is never attempted.
func (s *Service) Submit(ctx context.Context, actor Actor, submissionID id.SubmissionID, notes string) (*domain.Submission, error) {
	sub, err := s.find(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Creator != actor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the creator may submit a submission")
	}

	now := requestcontext.Now(ctx)
	if err := gate.ValidateDocuments(sub.Marriage.ScenarioID, sub.DocTypes()); err != nil {
		s.metrics.IncGateFailure("documents")
		return nil, err
	}
	if err := gate.ValidateLeadTime(sub.Marriage.MarriageDate, now); err != nil {
		s.metrics.IncGateFailure("lead_time")
		return nil, err
	}
	if err := workflow.ValidateTransition(sub.Status, domain.StatusSubmitted, actor.Role); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, sub, store.TransitionParams{
		SubmissionID: submissionID,
		Expected:     sub.Status,
		Target:       domain.StatusSubmitted,
		Actor:        actor.ID,
		Notes:        notes,
		Now:          now,
	}, audit.ActionSubmissionSubmitted)
}

// Claim takes the exclusive processing lock. The conditional update in the
// store decides races; a re-claim by the current assignee is a no-op success.
func (s *Service) Claim(ctx context.Context, actor Actor, submissionID id.SubmissionID) (*domain.Submission, error) {
	if !actor.Role.IsStaff() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only operators and verifiers claim submissions")
	}

	now := requestcontext.Now(ctx)
	updated, err := s.store.Transition(ctx, store.TransitionParams{
		SubmissionID:   submissionID,
		Expected:       domain.StatusSubmitted,
		Target:         domain.StatusProcessing,
		Actor:          actor.ID,
		GuardUnclaimed: true,
		Assign:         true,
		Now:            now,
	})
	if err == nil {
		s.metrics.IncTransition(domain.StatusProcessing)
		s.emitAudit(ctx, actor, updated, audit.ActionSubmissionClaimed, domain.StatusSubmitted, domain.StatusProcessing)
		return updated, nil
	}

	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
	case errors.Is(err, sentinel.ErrConflict):
		s.metrics.IncClaimConflict()
		return nil, dErrors.New(dErrors.CodeAlreadyClaimed, "submission already claimed by another actor")
	case errors.Is(err, sentinel.ErrInvalidState):
		return s.claimMissed(ctx, actor, submissionID)
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to claim submission")
	}
}

// claimMissed re-reads after a status-guard miss to distinguish the
// idempotent self re-claim from a genuine conflict or illegal state.
func (s *Service) claimMissed(ctx context.Context, actor Actor, submissionID id.SubmissionID) (*domain.Submission, error) {
	sub, err := s.find(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.StatusProcessing {
		if sub.CurrentAssignee != nil && *sub.CurrentAssignee == actor.ID {
			return sub, nil
		}
		s.metrics.IncClaimConflict()
		return nil, dErrors.New(dErrors.CodeAlreadyClaimed, "submission already claimed by another actor")
	}
	return nil, workflow.ValidateTransition(sub.Status, domain.StatusProcessing, actor.Role)
}

// ReturnForRevision hands the dossier back to the clerk. From the queue
// (SUBMITTED) any staff member may return it; from PROCESSING only the
// assignee may.
func (s *Service) ReturnForRevision(ctx context.Context, actor Actor, submissionID id.SubmissionID, notes string) (*domain.Submission, error) {
	if !actor.Role.IsStaff() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only operators and verifiers return submissions")
	}
	if strings.TrimSpace(notes) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "revision notes are required")
	}

	sub, err := s.find(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.StatusProcessing {
		if err := sub.RequireAssignee(actor.ID); err != nil {
			return nil, err
		}
	}
	if err := workflow.ValidateTransition(sub.Status, domain.StatusNeedsRevision, actor.Role); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, sub, store.TransitionParams{
		SubmissionID:  submissionID,
		Expected:      sub.Status,
		Target:        domain.StatusNeedsRevision,
		Actor:         actor.ID,
		GuardAssignee: sub.Status == domain.StatusProcessing,
		Notes:         notes,
		Now:           requestcontext.Now(ctx),
	}, audit.ActionSubmissionReturned)
}

// SendToVerification forwards a processed dossier to the verifier stage and
// releases the claim in the same update.
func (s *Service) SendToVerification(ctx context.Context, actor Actor, submissionID id.SubmissionID, notes string) (*domain.Submission, error) {
	if !actor.Role.IsStaff() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only operators and verifiers forward submissions")
	}

	sub, err := s.find(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := sub.RequireAssignee(actor.ID); err != nil {
		return nil, err
	}
	if err := workflow.ValidateTransition(sub.Status, domain.StatusPendingVerification, actor.Role); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, sub, store.TransitionParams{
		SubmissionID:  submissionID,
		Expected:      sub.Status,
		Target:        domain.StatusPendingVerification,
		Actor:         actor.ID,
		GuardAssignee: true,
		Notes:         notes,
		Now:           requestcontext.Now(ctx),
	}, audit.ActionSubmissionForwarded)
}

// Decide records the verifier's final outcome and clears any held claim in
// the same atomic update. A dossier claimed by another actor cannot be
// decided out from under them.
func (s *Service) Decide(ctx context.Context, actor Actor, submissionID id.SubmissionID, decision domain.Status, notes string) (*domain.Submission, error) {
	if actor.Role != id.RoleVerifier {
		return nil, dErrors.New(dErrors.CodeForbidden, "only verifiers decide submissions")
	}
	if decision != domain.StatusApproved && decision != domain.StatusRejected {
		return nil, dErrors.New(dErrors.CodeValidation, "decision must be APPROVED or REJECTED")
	}

	sub, err := s.find(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.CurrentAssignee != nil && *sub.CurrentAssignee != actor.ID {
		return nil, dErrors.New(dErrors.CodeNotAssignee, "submission is assigned to another actor")
	}
	if err := workflow.ValidateTransition(sub.Status, decision, actor.Role); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, sub, store.TransitionParams{
		SubmissionID:   submissionID,
		Expected:       sub.Status,
		Target:         decision,
		Actor:          actor.ID,
		GuardUnclaimed: true,
		Notes:          notes,
		Now:            requestcontext.Now(ctx),
	}, audit.ActionSubmissionDecided)
}

// Get returns the aggregate with its status log. Clerks see their own
// submissions; staff and monitors see all.
func (s *Service) Get(ctx context.Context, actor Actor, submissionID id.SubmissionID) (*domain.Submission, error) {
	sub, err := s.find(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if actor.Role == id.RoleClerk && sub.Creator != actor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "submission belongs to another clerk")
	}
	return sub, nil
}

// QueueFilter selects which slice of submissions to list.
type QueueFilter struct {
	Status domain.Status
	Limit  int
}

// Queue lists submissions by status. Active queues come back oldest-first so
// operators work in arrival order; historical views come back newest-first.
// Clerks get their own submissions regardless of filter.
func (s *Service) Queue(ctx context.Context, actor Actor, filter QueueFilter) ([]*domain.Submission, error) {
	if actor.Role == id.RoleClerk {
		subs, err := s.store.ListByCreator(ctx, actor.ID, filter.Limit)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
		}
		return subs, nil
	}

	if !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid status filter is required")
	}
	oldestFirst := !filter.Status.IsTerminal()
	subs, err := s.store.ListByStatus(ctx, filter.Status, oldestFirst, filter.Limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}

// History returns the append-only status log in transition order, with the
// same visibility rule as Get.
func (s *Service) History(ctx context.Context, actor Actor, submissionID id.SubmissionID) ([]domain.StatusLogEntry, error) {
	if _, err := s.Get(ctx, actor, submissionID); err != nil {
		return nil, err
	}
	log, err := s.store.History(ctx, submissionID)
	if err != nil {
		return nil, s.translate(err, "failed to load status history")
	}
	return log, nil
}

// transition runs one guarded status update and emits the audit event after
// it commits. A same-status move is a no-op: no update, no log entry.
func (s *Service) transition(ctx context.Context, actor Actor, sub *domain.Submission, p store.TransitionParams, action audit.Action) (*domain.Submission, error) {
	if sub.Status == p.Target {
		return sub, nil
	}

	updated, err := s.store.Transition(ctx, p)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeNotAssignee, "submission is assigned to another actor")
		case errors.Is(err, sentinel.ErrInvalidState):
			// The pre-read validated against a stale status; report the
			// conflict rather than an internal error.
			return nil, dErrors.New(dErrors.CodeConflict, "submission changed concurrently, re-query and retry")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update submission status")
		}
	}

	s.metrics.IncTransition(p.Target)
	s.emitAudit(ctx, actor, updated, action, p.Expected, p.Target)
	return updated, nil
}

func (s *Service) find(ctx context.Context, submissionID id.SubmissionID) (*domain.Submission, error) {
	sub, err := s.store.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission")
	}
	return sub, nil
}

func (s *Service) translate(err error, fallback string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, fallback)
}

func (s *Service) emitAudit(ctx context.Context, actor Actor, sub *domain.Submission, action audit.Action, previous, next domain.Status) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Timestamp:      requestcontext.Now(ctx),
		SubmissionID:   sub.ID,
		ActorID:        actor.ID,
		ActorRole:      actor.Role.String(),
		Action:         action,
		PreviousStatus: previous.String(),
		NewStatus:      next.String(),
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"submission_id", sub.ID.String(),
			"action", string(action),
			"error", err.Error(),
		)
	}
}

// buildMarriageData validates the scenario and copies its policy flags onto
// the payload so reads never need a catalog lookup.
func buildMarriageData(input MarriageInput) (domain.MarriageData, error) {
	def, err := scenario.Get(input.ScenarioID)
	if err != nil {
		return domain.MarriageData{}, err
	}
	return domain.MarriageData{
		HusbandNIK:       input.HusbandNIK,
		HusbandName:      input.HusbandName,
		WifeNIK:          input.WifeNIK,
		WifeName:         input.WifeName,
		MarriageDate:     input.MarriageDate,
		ScenarioID:       def.ID,
		OutsideDistrict:  def.OutsideDistrict,
		KKOption:         def.KKOption,
		HasBiodataChange: def.HasBiodataChange,
	}, nil
}
