package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/models"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound    = errors.New("RECORD_NOT_FOUND")
	ErrDuplicateRecord   = errors.New("DUPLICATE_SUBMISSION")
	ErrInvalidTransition = errors.New("INVALID_STATUS_TRANSITION")
)

// pq error code for unique_violation.
const uniqueViolation = "23505"

// RecordStore keeps submission records in the Postgres submissions table.
type RecordStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRecordStore(db *sql.DB, log logger.Logger) *RecordStore {
	return &RecordStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "record_store"}),
	}
}

func (s *RecordStore) Save(ctx context.Context, r *models.SubmissionRecord) error {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (
			id, reference, wizard_id, type, status, user_ref, server_id, payload, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.Reference, r.WizardID, r.Type, string(r.Status), r.UserRef,
		sql.NullString{String: r.ServerID, Valid: r.ServerID != ""},
		payload, r.SubmittedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("%w: reference %s", ErrDuplicateRecord, r.Reference)
		}
		return fmt.Errorf("insert submission: %w", err)
	}

	s.logger.Debug("submission recorded", map[string]interface{}{"id": r.ID, "reference": r.Reference})
	return nil
}

const selectColumns = `id, reference, wizard_id, type, status, user_ref, server_id, payload, submitted_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.SubmissionRecord, error) {
	var (
		r        models.SubmissionRecord
		status   string
		serverID sql.NullString
		payload  []byte
	)
	if err := row.Scan(&r.ID, &r.Reference, &r.WizardID, &r.Type, &status, &r.UserRef, &serverID, &payload, &r.SubmittedAt); err != nil {
		return nil, err
	}
	r.Status = models.SubmissionStatus(status)
	r.ServerID = serverID.String
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &r.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	return &r, nil
}

func (s *RecordStore) Get(ctx context.Context, id string) (*models.SubmissionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM submissions WHERE id = $1`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return r, nil
}

// ListByUser returns the newest records first.
func (s *RecordStore) ListByUser(ctx context.Context, userRef string, limit int) ([]*models.SubmissionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM submissions WHERE user_ref = $1 ORDER BY submitted_at DESC LIMIT $2`,
		userRef, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.SubmissionRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateStatus is the only mutation a record allows.
func (s *RecordStore) UpdateStatus(ctx context.Context, id string, to models.SubmissionStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var from string
	err = tx.QueryRowContext(ctx, `SELECT status FROM submissions WHERE id = $1 FOR UPDATE`, id).Scan(&from)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	if !models.CanTransition(models.SubmissionStatus(from), to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE submissions SET status = $1 WHERE id = $2`, string(to), id); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("submission status changed", map[string]interface{}{"id": id, "from": from, "to": string(to)})
	return nil
}
