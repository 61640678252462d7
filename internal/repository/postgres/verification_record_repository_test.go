package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfanzaky/proofanchor/internal/domain"
)

func newMockRepo(t *testing.T) (domain.VerificationRecordStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewVerificationRecordRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "saved_parlay_id", "data_hash", "status", "last_error", "tx_digest",
		"proof_object_id", "created_at", "updated_at",
	}).AddRow("r1", nil, "ab", domain.VerificationStatusPending, nil, nil, nil, now, now)
	mock.ExpectQuery(`SELECT .* FROM verification_records WHERE id = \$1`).
		WithArgs("r1").
		WillReturnRows(rows)

	record, err := repo.GetByID(context.Background(), "r1")

	require.NoError(t, err)
	assert.Equal(t, "r1", record.ID)
	assert.Nil(t, record.SavedParlayID)
	assert.Equal(t, domain.VerificationStatusPending, record.Status)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT .* FROM verification_records`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestMarkConfirmed(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE verification_records SET`).
		WithArgs("r1", domain.VerificationStatusConfirmed, "digest", "0xproof").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkConfirmed(context.Background(), "r1", "digest", "0xproof"))
}

func TestMarkFailed_NeverDowngradesConfirmed(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`WHERE id = \$1 AND status <> \$4`).
		WithArgs("r1", domain.VerificationStatusFailed, "rpc timeout", domain.VerificationStatusConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.MarkFailed(context.Background(), "r1", "rpc timeout"))
}

func TestSetLastError_PropagatesDatabaseErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE verification_records SET last_error`).
		WithArgs("r1", "boom").
		WillReturnError(sql.ErrConnDone)

	err := repo.SetLastError(context.Background(), "r1", "boom")

	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestCountByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM verification_records GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(domain.VerificationStatusPending, 4).
			AddRow(domain.VerificationStatusConfirmed, 9))

	counts, err := repo.CountByStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"pending": 4, "confirmed": 9}, counts)
}
