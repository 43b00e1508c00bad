// Package memory is the in-memory submission store for tests/dev. A single
// mutex makes every guarded update atomic, mirroring what the postgres store
// achieves with conditional updates.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"simkah/internal/domain"
	"simkah/internal/submission/store"
	id "simkah/pkg/domain"
	"simkah/pkg/platform/sentinel"
)

type Store struct {
	mu          sync.RWMutex
	submissions map[id.SubmissionID]*domain.Submission
}

func New() *Store {
	return &Store{submissions: make(map[id.SubmissionID]*domain.Submission)}
}

func (s *Store) Create(_ context.Context, sub *domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[sub.ID]; exists {
		return fmt.Errorf("submission %s already exists: %w", sub.ID, sentinel.ErrConflict)
	}
	s.submissions[sub.ID] = clone(sub)
	return nil
}

func (s *Store) FindByID(_ context.Context, submissionID id.SubmissionID) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
	}
	return clone(sub), nil
}

func (s *Store) ReplaceContent(_ context.Context, submissionID id.SubmissionID, marriage domain.MarriageData, docs []domain.Document, now time.Time) (*domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
	}
	if !sub.Status.IsEditable() {
		return nil, fmt.Errorf("submission is %s: %w", sub.Status, sentinel.ErrInvalidState)
	}
	sub.ApplyEdit(marriage, docs, now)
	return clone(sub), nil
}

// Transition applies the conditional status update under the store lock; the
// guard checks and the log append are one atomic unit.
func (s *Store) Transition(_ context.Context, p store.TransitionParams) (*domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[p.SubmissionID]
	if !ok {
		return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
	}
	if sub.Status != p.Expected {
		return nil, fmt.Errorf("submission is %s, expected %s: %w", sub.Status, p.Expected, sentinel.ErrInvalidState)
	}
	if p.GuardUnclaimed && sub.CurrentAssignee != nil && *sub.CurrentAssignee != p.Actor {
		return nil, fmt.Errorf("submission claimed by another actor: %w", sentinel.ErrConflict)
	}
	if p.GuardAssignee && (sub.CurrentAssignee == nil || *sub.CurrentAssignee != p.Actor) {
		return nil, fmt.Errorf("submission assigned to another actor: %w", sentinel.ErrConflict)
	}

	previous := sub.Status
	if p.Assign {
		sub.ApplyClaim(p.Actor, p.Now)
	} else {
		sub.ApplyTransition(p.Target, p.Now)
	}
	sub.AppendLog(p.Actor, previous, p.Target, p.Notes, p.Now)

	return clone(sub), nil
}

func (s *Store) ListByStatus(_ context.Context, status domain.Status, oldestFirst bool, limit int) ([]*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Submission
	for _, sub := range s.submissions {
		if sub.Status == status {
			out = append(out, clone(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if oldestFirst {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return truncate(out, limit), nil
}

func (s *Store) ListByCreator(_ context.Context, creator id.ActorID, limit int) ([]*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Submission
	for _, sub := range s.submissions {
		if sub.Creator == creator {
			out = append(out, clone(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

func (s *Store) History(_ context.Context, submissionID id.SubmissionID) ([]domain.StatusLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
	}
	return append([]domain.StatusLogEntry{}, sub.StatusLog...), nil
}

func truncate(subs []*domain.Submission, limit int) []*domain.Submission {
	if limit > 0 && len(subs) > limit {
		return subs[:limit]
	}
	return subs
}

// clone deep-copies an aggregate so callers cannot mutate stored state
// outside the lock.
func clone(sub *domain.Submission) *domain.Submission {
	out := *sub
	if sub.CurrentAssignee != nil {
		assignee := *sub.CurrentAssignee
		out.CurrentAssignee = &assignee
	}
	out.Documents = append([]domain.Document{}, sub.Documents...)
	out.StatusLog = append([]domain.StatusLogEntry{}, sub.StatusLog...)
	return &out
}
