package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/resumeforge/resume-builder-backend/internal/migration/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuditRepo(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuditRepository(db), mock
}

func TestAuditRepository_Start(t *testing.T) {
	repo, mock := setupAuditRepo(t)
	ctx := context.Background()

	t.Run("inserts row", func(t *testing.T) {
		started := time.Now()
		rec := &domain.AuditRecord{RunID: "run-1", GuestID: "g", Origin: domain.OriginSignup, Status: domain.StatusRunning}

		mock.ExpectQuery(`INSERT INTO guest_migrations`).
			WithArgs(sqlmock.AnyArg(), "run-1", "g", "signup", domain.StatusRunning).
			WillReturnRows(sqlmock.NewRows([]string{"started_at"}).AddRow(started))

		require.NoError(t, repo.Start(ctx, rec))
		assert.NotEmpty(t, rec.ID)
		assert.WithinDuration(t, started, rec.StartedAt, time.Second)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO guest_migrations`).
			WillReturnError(errors.New("connection reset"))

		err := repo.Start(ctx, &domain.AuditRecord{RunID: "run-2"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert migration audit")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditRepository_Finish(t *testing.T) {
	repo, mock := setupAuditRepo(t)
	ctx := context.Background()

	t.Run("stores outcome", func(t *testing.T) {
		rec := &domain.AuditRecord{
			RunID:    "run-1",
			Status:   domain.StatusCompleted,
			ResumeID: "res-1",
			Sections: []domain.SectionReport{{Section: "skills", Created: 2}},
		}

		mock.ExpectQuery(`UPDATE guest_migrations`).
			WithArgs(
				"run-1",
				domain.StatusCompleted,
				sql.NullString{String: "res-1", Valid: true},
				sql.NullString{},
				sql.NullString{},
				[]byte(`[{"section":"skills","created":2}]`),
			).
			WillReturnRows(sqlmock.NewRows([]string{"finished_at"}).AddRow(time.Now()))

		require.NoError(t, repo.Finish(ctx, rec))
		require.NotNil(t, rec.FinishedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown run", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE guest_migrations`).
			WillReturnRows(sqlmock.NewRows([]string{"finished_at"}))

		err := repo.Finish(ctx, &domain.AuditRecord{RunID: "missing", Status: domain.StatusFailed})
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditRepository_GetByRunID(t *testing.T) {
	repo, mock := setupAuditRepo(t)
	ctx := context.Background()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "run_id", "guest_id", "origin", "status", "resume_id", "error",
		"rollback_error", "sections", "started_at", "finished_at",
	}).AddRow("a-1", "run-1", "g", "login", domain.StatusFailed, "res-9", "boom",
		nil, []byte(`[{"section":"experiences","created":1,"dropped":2}]`), now, now)

	mock.ExpectQuery(`SELECT .* FROM guest_migrations WHERE run_id = \$1`).
		WithArgs("run-1").
		WillReturnRows(rows)

	rec, err := repo.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OriginLogin, rec.Origin)
	assert.Equal(t, "res-9", rec.ResumeID)
	assert.Equal(t, "boom", rec.Error)
	assert.Empty(t, rec.RollbackError)
	assert.Equal(t, []domain.SectionReport{{Section: "experiences", Created: 1, Dropped: 2}}, rec.Sections)
	require.NotNil(t, rec.FinishedAt)

	mock.ExpectQuery(`SELECT .* FROM guest_migrations`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByRunID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_PurgeBefore(t *testing.T) {
	repo, mock := setupAuditRepo(t)
	cutoff := time.Now().Add(-90 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM guest_migrations WHERE finished_at IS NOT NULL AND started_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.PurgeBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_EnsureSchema(t *testing.T) {
	repo, mock := setupAuditRepo(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS guest_migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
