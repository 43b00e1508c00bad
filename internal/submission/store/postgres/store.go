// Package postgres persists submission aggregates. Every transition is a
// single conditional UPDATE keyed on the submission id and its last-known
// status/assignee, so N concurrent claims resolve to exactly one winner
// without relying on a specific isolation level.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"simkah/internal/domain"
	"simkah/internal/submission/store"
	id "simkah/pkg/domain"
	"simkah/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, sub *domain.Submission) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions (
			id, ticket_number, status, current_assignee, creator,
			husband_nik, husband_name, wife_nik, wife_name, marriage_date,
			scenario_id, outside_district, kk_option, has_biodata_change,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		uuid.UUID(sub.ID),
		sub.TicketNumber,
		string(sub.Status),
		assigneeArg(sub.CurrentAssignee),
		uuid.UUID(sub.Creator),
		sub.Marriage.HusbandNIK,
		sub.Marriage.HusbandName,
		sub.Marriage.WifeNIK,
		sub.Marriage.WifeName,
		sub.Marriage.MarriageDate,
		sub.Marriage.ScenarioID,
		sub.Marriage.OutsideDistrict,
		sub.Marriage.KKOption,
		sub.Marriage.HasBiodataChange,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	if err := insertDocuments(ctx, tx, sub.ID, sub.Documents); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create tx: %w", err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, submissionID id.SubmissionID) (*domain.Submission, error) {
	sub, err := s.scanSubmission(ctx, s.db.QueryRowContext(ctx, selectSubmission+` WHERE id = $1`, uuid.UUID(submissionID)))
	if err != nil {
		return nil, err
	}
	if err := s.loadDocuments(ctx, sub); err != nil {
		return nil, err
	}
	log, err := s.History(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.StatusLog = log
	return sub, nil
}

func (s *Store) ReplaceContent(ctx context.Context, submissionID id.SubmissionID, marriage domain.MarriageData, docs []domain.Document, now time.Time) (*domain.Submission, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin edit tx: %w", err)
	}
	defer tx.Rollback()

	// The status guard in the WHERE clause closes the race with a
	// concurrent submit or claim.
	res, err := tx.ExecContext(ctx, `
		UPDATE submissions SET
			husband_nik = $2, husband_name = $3, wife_nik = $4, wife_name = $5,
			marriage_date = $6, scenario_id = $7, outside_district = $8,
			kk_option = $9, has_biodata_change = $10, updated_at = $11
		WHERE id = $1 AND status IN ('DRAFT', 'REJECTED', 'NEEDS_REVISION')
	`,
		uuid.UUID(submissionID),
		marriage.HusbandNIK, marriage.HusbandName, marriage.WifeNIK, marriage.WifeName,
		marriage.MarriageDate, marriage.ScenarioID, marriage.OutsideDistrict,
		marriage.KKOption, marriage.HasBiodataChange, now,
	)
	if err != nil {
		return nil, fmt.Errorf("update submission content: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, s.classifyMiss(ctx, submissionID, "")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM submission_documents WHERE submission_id = $1`, uuid.UUID(submissionID)); err != nil {
		return nil, fmt.Errorf("clear submission documents: %w", err)
	}
	if err := insertDocuments(ctx, tx, submissionID, docs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit edit tx: %w", err)
	}
	return s.FindByID(ctx, submissionID)
}

// Transition performs the conditional check-and-set and appends the status
// log entry in the same transaction. The caller's audit feed can join the
// transaction through pkg/platform/tx if it needs to.
func (s *Store) Transition(ctx context.Context, p store.TransitionParams) (*domain.Submission, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE submissions
		SET status = $3, current_assignee = $4, updated_at = $5
		WHERE id = $1 AND status = $2
	`
	var newAssignee any
	if p.Assign {
		newAssignee = uuid.UUID(p.Actor)
	} else if p.Target == domain.StatusProcessing {
		newAssignee = uuid.UUID(p.Actor) // keep the claim on self-targeted updates
	} else {
		newAssignee = nil
	}

	args := []any{uuid.UUID(p.SubmissionID), string(p.Expected), string(p.Target), newAssignee, p.Now}
	switch {
	case p.GuardUnclaimed:
		query += ` AND (current_assignee IS NULL OR current_assignee = $6)`
		args = append(args, uuid.UUID(p.Actor))
	case p.GuardAssignee:
		query += ` AND current_assignee = $6`
		args = append(args, uuid.UUID(p.Actor))
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conditional status update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		// Lost the CAS. Classify outside the transaction; the read is only
		// for the error message, correctness rests on the zero row count.
		return nil, s.classifyMiss(ctx, p.SubmissionID, p.Expected)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submission_status_log (
			id, submission_id, actor_id, previous_status, new_status, notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.New(),
		uuid.UUID(p.SubmissionID),
		uuid.UUID(p.Actor),
		string(p.Expected),
		string(p.Target),
		p.Notes,
		p.Now,
	)
	if err != nil {
		return nil, fmt.Errorf("append status log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition tx: %w", err)
	}
	return s.FindByID(ctx, p.SubmissionID)
}

// classifyMiss explains why a conditional update matched zero rows.
func (s *Store) classifyMiss(ctx context.Context, submissionID id.SubmissionID, expected domain.Status) error {
	var status string
	var assignee *uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT status, current_assignee FROM submissions WHERE id = $1`,
		uuid.UUID(submissionID),
	).Scan(&status, &assignee)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("classify conditional update miss: %w", err)
	}
	if expected != "" && domain.Status(status) == expected && assignee != nil {
		return fmt.Errorf("submission claimed by another actor: %w", sentinel.ErrConflict)
	}
	return fmt.Errorf("submission is %s: %w", status, sentinel.ErrInvalidState)
}

func (s *Store) ListByStatus(ctx context.Context, status domain.Status, oldestFirst bool, limit int) ([]*domain.Submission, error) {
	order := "DESC"
	if oldestFirst {
		order = "ASC"
	}
	query := selectSubmission + ` WHERE status = $1 ORDER BY created_at ` + order + ` LIMIT $2`
	return s.querySubmissions(ctx, query, string(status), listLimit(limit))
}

func (s *Store) ListByCreator(ctx context.Context, creator id.ActorID, limit int) ([]*domain.Submission, error) {
	query := selectSubmission + ` WHERE creator = $1 ORDER BY created_at DESC LIMIT $2`
	return s.querySubmissions(ctx, query, uuid.UUID(creator), listLimit(limit))
}

func (s *Store) History(ctx context.Context, submissionID id.SubmissionID) ([]domain.StatusLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT submission_id, actor_id, previous_status, new_status, notes, created_at
		FROM submission_status_log
		WHERE submission_id = $1
		ORDER BY created_at ASC
	`, uuid.UUID(submissionID))
	if err != nil {
		return nil, fmt.Errorf("query status log: %w", err)
	}
	defer rows.Close()

	var log []domain.StatusLogEntry
	for rows.Next() {
		var (
			entry    domain.StatusLogEntry
			subID    uuid.UUID
			actorID  uuid.UUID
			previous string
			next     string
		)
		if err := rows.Scan(&subID, &actorID, &previous, &next, &entry.Notes, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status log entry: %w", err)
		}
		entry.SubmissionID = id.SubmissionID(subID)
		entry.ActorID = id.ActorID(actorID)
		entry.PreviousStatus = domain.Status(previous)
		entry.NewStatus = domain.Status(next)
		log = append(log, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status log: %w", err)
	}
	return log, nil
}

const selectSubmission = `
	SELECT id, ticket_number, status, current_assignee, creator,
	       husband_nik, husband_name, wife_nik, wife_name, marriage_date,
	       scenario_id, outside_district, kk_option, has_biodata_change,
	       created_at, updated_at
	FROM submissions`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSubmission(_ context.Context, row rowScanner) (*domain.Submission, error) {
	var (
		sub      domain.Submission
		subID    uuid.UUID
		status   string
		assignee *uuid.UUID
		creator  uuid.UUID
	)
	err := row.Scan(
		&subID, &sub.TicketNumber, &status, &assignee, &creator,
		&sub.Marriage.HusbandNIK, &sub.Marriage.HusbandName,
		&sub.Marriage.WifeNIK, &sub.Marriage.WifeName, &sub.Marriage.MarriageDate,
		&sub.Marriage.ScenarioID, &sub.Marriage.OutsideDistrict,
		&sub.Marriage.KKOption, &sub.Marriage.HasBiodataChange,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	sub.ID = id.SubmissionID(subID)
	sub.Status = domain.Status(status)
	sub.Creator = id.ActorID(creator)
	if assignee != nil {
		a := id.ActorID(*assignee)
		sub.CurrentAssignee = &a
	}
	return &sub, nil
}

func (s *Store) querySubmissions(ctx context.Context, query string, args ...any) ([]*domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		sub, err := s.scanSubmission(ctx, rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	for _, sub := range subs {
		if err := s.loadDocuments(ctx, sub); err != nil {
			return nil, err
		}
	}
	return subs, nil
}

func (s *Store) loadDocuments(ctx context.Context, sub *domain.Submission) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_type, file_ref, filename, mime_type, size
		FROM submission_documents
		WHERE submission_id = $1
		ORDER BY doc_type
	`, uuid.UUID(sub.ID))
	if err != nil {
		return fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doc domain.Document
		var docType string
		if err := rows.Scan(&docType, &doc.FileRef, &doc.Filename, &doc.MimeType, &doc.Size); err != nil {
			return fmt.Errorf("scan document: %w", err)
		}
		doc.Type = domain.DocType(docType)
		sub.Documents = append(sub.Documents, doc)
	}
	return rows.Err()
}

func insertDocuments(ctx context.Context, tx *sql.Tx, submissionID id.SubmissionID, docs []domain.Document) error {
	for _, doc := range docs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO submission_documents (
				id, submission_id, doc_type, file_ref, filename, mime_type, size
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			uuid.New(), uuid.UUID(submissionID), string(doc.Type),
			doc.FileRef, doc.Filename, doc.MimeType, doc.Size,
		)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", doc.Type, err)
		}
	}
	return nil
}

func assigneeArg(assignee *id.ActorID) any {
	if assignee == nil {
		return nil
	}
	return uuid.UUID(*assignee)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
