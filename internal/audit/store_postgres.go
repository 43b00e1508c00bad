package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "simkah/pkg/domain"
	txcontext "simkah/pkg/platform/tx"
)

// PostgresStore persists the audit feed. When the context carries a SQL
// transaction (see pkg/platform/tx) the append joins it, so an event written
// as part of a transition commits or rolls back with that transition.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (
			id, timestamp, submission_id, actor_id, actor_role,
			action, previous_status, new_status, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		uuid.UUID(event.SubmissionID),
		uuid.UUID(event.ActorID),
		event.ActorRole,
		string(event.Action),
		event.PreviousStatus,
		event.NewStatus,
		event.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubmission(ctx context.Context, submissionID id.SubmissionID) ([]Event, error) {
	query := `
		SELECT timestamp, submission_id, actor_id, actor_role,
		       action, previous_status, new_status, notes
		FROM audit_events
		WHERE submission_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(submissionID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT timestamp, submission_id, actor_id, actor_role,
		       action, previous_status, new_status, notes
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event        Event
			submissionID uuid.UUID
			actorID      uuid.UUID
			action       string
		)
		err := rows.Scan(
			&event.Timestamp,
			&submissionID,
			&actorID,
			&event.ActorRole,
			&action,
			&event.PreviousStatus,
			&event.NewStatus,
			&event.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.SubmissionID = id.SubmissionID(submissionID)
		event.ActorID = id.ActorID(actorID)
		event.Action = Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
