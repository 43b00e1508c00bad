//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "simkah/pkg/domain"
	txcontext "simkah/pkg/platform/tx"
	"simkah/pkg/testutil/containers"
)

func TestPostgresAuditStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pg := containers.NewPostgresContainer(t)
	store := NewPostgres(pg.DB)
	ctx := context.Background()

	event := func(submissionID id.SubmissionID, action Action, at time.Time) Event {
		return Event{
			Timestamp:      at,
			SubmissionID:   submissionID,
			ActorID:        id.ActorID(uuid.New()),
			ActorRole:      "operator",
			Action:         action,
			PreviousStatus: "SUBMITTED",
			NewStatus:      "PROCESSING",
			Notes:          "claimed from queue",
		}
	}

	t.Run("append and list by submission", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx, "audit_events"))

		submissionID := id.SubmissionID(uuid.New())
		base := time.Now().UTC().Truncate(time.Microsecond)
		require.NoError(t, store.Append(ctx, event(submissionID, ActionSubmissionSubmitted, base)))
		require.NoError(t, store.Append(ctx, event(submissionID, ActionSubmissionClaimed, base.Add(time.Second))))
		require.NoError(t, store.Append(ctx, event(id.SubmissionID(uuid.New()), ActionSubmissionCreated, base)))

		events, err := store.ListBySubmission(ctx, submissionID)
		require.NoError(t, err)
		require.Len(t, events, 2)
		require.Equal(t, ActionSubmissionSubmitted, events[0].Action)
		require.Equal(t, ActionSubmissionClaimed, events[1].Action)
	})

	t.Run("recent events come back newest first", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx, "audit_events"))

		base := time.Now().UTC().Truncate(time.Microsecond)
		for i := 0; i < 5; i++ {
			require.NoError(t, store.Append(ctx,
				event(id.SubmissionID(uuid.New()), ActionSubmissionCreated, base.Add(time.Duration(i)*time.Second))))
		}

		events, err := store.ListRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, events, 3)
		require.True(t, events[0].Timestamp.After(events[1].Timestamp))
		require.True(t, events[1].Timestamp.After(events[2].Timestamp))
	})

	t.Run("append joins a caller transaction", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx, "audit_events"))

		submissionID := id.SubmissionID(uuid.New())

		tx, err := pg.DB.BeginTx(ctx, nil)
		require.NoError(t, err)
		txCtx := txcontext.WithTx(ctx, tx)
		require.NoError(t, store.Append(txCtx, event(submissionID, ActionSubmissionClaimed, time.Now().UTC())))
		require.NoError(t, tx.Rollback())

		events, err := store.ListBySubmission(ctx, submissionID)
		require.NoError(t, err)
		require.Empty(t, events, "rolled back append must not persist")

		tx, err = pg.DB.BeginTx(ctx, nil)
		require.NoError(t, err)
		txCtx = txcontext.WithTx(ctx, tx)
		require.NoError(t, store.Append(txCtx, event(submissionID, ActionSubmissionClaimed, time.Now().UTC())))
		require.NoError(t, tx.Commit())

		events, err = store.ListBySubmission(ctx, submissionID)
		require.NoError(t, err)
		require.Len(t, events, 1)
	})
}
