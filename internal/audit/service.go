package audit

import (
	"context"
	"time"

	id "simkah/pkg/domain"
)

// Service captures structured audit events. It is append-only and delegates
// persistence to the store so tests can swap sinks easily.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return s.store.Append(ctx, event)
}

func (s *Service) ListBySubmission(ctx context.Context, submissionID id.SubmissionID) ([]Event, error) {
	return s.store.ListBySubmission(ctx, submissionID)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return s.store.ListRecent(ctx, limit)
}
