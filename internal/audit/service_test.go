package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "simkah/pkg/domain"
)

func TestEmitStampsTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store)
	subID := id.SubmissionID(uuid.New())

	err := svc.Emit(context.Background(), Event{
		SubmissionID: subID,
		ActorID:      id.ActorID(uuid.New()),
		Action:       ActionSubmissionCreated,
	})
	require.NoError(t, err)

	events, err := svc.ListBySubmission(context.Background(), subID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestListRecentIsNewestFirst(t *testing.T) {
	store := NewInMemoryStore()
	svc := NewService(store)
	base := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := svc.Emit(context.Background(), Event{
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			SubmissionID: id.SubmissionID(uuid.New()),
			Action:       ActionSubmissionSubmitted,
		})
		require.NoError(t, err)
	}

	events, err := svc.ListRecent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, base.Add(4*time.Minute), events[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Minute), events[2].Timestamp)
}

func TestWorkerDrainsInbox(t *testing.T) {
	store := NewInMemoryStore()
	inbox := make(chan Event, 2)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	subID := id.SubmissionID(uuid.New())
	inbox <- Event{SubmissionID: subID, Action: ActionSubmissionClaimed, Timestamp: time.Now()}

	assert.Eventually(t, func() bool {
		events, err := store.ListBySubmission(context.Background(), subID)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
