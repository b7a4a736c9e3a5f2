package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/resumeforge/resume-builder-backend/internal/migration/domain"
)

//go:embed schema.sql
var auditSchema string

// AuditRepository records one row per migration run in PostgreSQL
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureSchema creates the audit table when it does not exist yet.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("failed to apply audit schema: %w", err)
	}
	return nil
}

// Start inserts the row for a run that is about to execute
func (r *AuditRepository) Start(ctx context.Context, rec *domain.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO guest_migrations (id, run_id, guest_id, origin, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING started_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rec.ID,
		rec.RunID,
		rec.GuestID,
		string(rec.Origin),
		rec.Status,
	).Scan(&rec.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert migration audit: %w", err)
	}
	return nil
}

// Finish stores the outcome of a run
func (r *AuditRepository) Finish(ctx context.Context, rec *domain.AuditRecord) error {
	sections, err := json.Marshal(rec.Sections)
	if err != nil || rec.Sections == nil {
		sections = []byte("[]")
	}

	query := `
		UPDATE guest_migrations
		SET status = $2, resume_id = $3, error = $4, rollback_error = $5,
		    sections = $6, finished_at = NOW()
		WHERE run_id = $1
		RETURNING finished_at
	`

	var finishedAt time.Time
	err = r.db.QueryRowContext(ctx, query,
		rec.RunID,
		rec.Status,
		nullString(rec.ResumeID),
		nullString(rec.Error),
		nullString(rec.RollbackError),
		sections,
	).Scan(&finishedAt)
	if err == sql.ErrNoRows {
		return domain.ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to finish migration audit: %w", err)
	}

	rec.FinishedAt = &finishedAt
	return nil
}

// GetByRunID loads the audit row of one run
func (r *AuditRepository) GetByRunID(ctx context.Context, runID string) (*domain.AuditRecord, error) {
	query := `
		SELECT id, run_id, guest_id, origin, status, resume_id, error,
		       rollback_error, sections, started_at, finished_at
		FROM guest_migrations
		WHERE run_id = $1
	`

	var (
		rec                                domain.AuditRecord
		origin                             string
		resumeID, errText, rollbackErrText sql.NullString
		sections                           []byte
		finishedAt                         sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, runID).Scan(
		&rec.ID,
		&rec.RunID,
		&rec.GuestID,
		&origin,
		&rec.Status,
		&resumeID,
		&errText,
		&rollbackErrText,
		&sections,
		&rec.StartedAt,
		&finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get migration audit: %w", err)
	}

	rec.Origin = domain.Origin(origin)
	rec.ResumeID = resumeID.String
	rec.Error = errText.String
	rec.RollbackError = rollbackErrText.String
	if finishedAt.Valid {
		t := finishedAt.Time
		rec.FinishedAt = &t
	}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &rec.Sections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit sections: %w", err)
		}
	}
	return &rec, nil
}

// PurgeBefore deletes finished rows older than cutoff and returns how many
func (r *AuditRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM guest_migrations WHERE finished_at IS NOT NULL AND started_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge migration audit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged rows: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
