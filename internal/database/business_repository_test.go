package database

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBusinessRepoTest(t *testing.T, maxRetries int) (*BusinessRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	repo := NewBusinessRepository(sqlxDB, nil, maxRetries)
	return repo, mock, func() { sqlxDB.Close() }
}

func repoBusinessRows(t *testing.T, id uuid.UUID, name string, q models.Queue) *sqlmock.Rows {
	queueJSON, err := json.Marshal(q)
	require.NoError(t, err)
	hoursJSON, err := json.Marshal(models.BusinessHours{})
	require.NoError(t, err)

	return sqlmock.NewRows([]string{"id", "name", "timezone", "average_wait_time", "hours", "queue", "created_at", "updated_at"}).
		AddRow(id.String(), name, "UTC", 5, hoursJSON, queueJSON, time.Now(), time.Now())
}

func TestGetByName_NotFound(t *testing.T) {
	repo, mock, cleanup := newBusinessRepoTest(t, 3)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1`).
		WithArgs("Nowhere").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByName("Nowhere")
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestWithQueue_CommitsMutatedQueue(t *testing.T) {
	repo, mock, cleanup := newBusinessRepoTest(t, 3)
	defer cleanup()

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1 FOR UPDATE`).
		WithArgs("Corner Cafe").
		WillReturnRows(repoBusinessRows(t, id, "Corner Cafe", models.Queue{IsActive: true}))
	mock.ExpectExec(`UPDATE businesses SET queue`).
		WithArgs(id.String(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	q, err := repo.WithQueue("Corner Cafe", func(tx *sqlx.Tx, b *models.Business) error {
		b.Queue.Slots = append(b.Queue.Slots, models.QueueSlot{Customer: "alice@example.com"})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, q.Slots, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithQueue_MutatorErrorRollsBackWithoutRetry(t *testing.T) {
	repo, mock, cleanup := newBusinessRepoTest(t, 3)
	defer cleanup()

	sentinel := errors.New("precondition failed")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1 FOR UPDATE`).
		WithArgs("Corner Cafe").
		WillReturnRows(repoBusinessRows(t, uuid.New(), "Corner Cafe", models.Queue{}))
	mock.ExpectRollback()

	calls := 0
	_, err := repo.WithQueue("Corner Cafe", func(tx *sqlx.Tx, b *models.Business) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls, "precondition failures must not be re-run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithQueue_RetriesSerializationFailure(t *testing.T) {
	repo, mock, cleanup := newBusinessRepoTest(t, 3)
	defer cleanup()

	id := uuid.New()

	// First attempt hits a serialization failure on the write
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1 FOR UPDATE`).
		WithArgs("Corner Cafe").
		WillReturnRows(repoBusinessRows(t, id, "Corner Cafe", models.Queue{IsActive: true}))
	mock.ExpectExec(`UPDATE businesses SET queue`).
		WithArgs(id.String(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "40001"})
	mock.ExpectRollback()

	// Second attempt succeeds
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1 FOR UPDATE`).
		WithArgs("Corner Cafe").
		WillReturnRows(repoBusinessRows(t, id, "Corner Cafe", models.Queue{IsActive: true}))
	mock.ExpectExec(`UPDATE businesses SET queue`).
		WithArgs(id.String(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	calls := 0
	_, err := repo.WithQueue("Corner Cafe", func(tx *sqlx.Tx, b *models.Business) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithQueue_RetriesExhausted(t *testing.T) {
	repo, mock, cleanup := newBusinessRepoTest(t, 2)
	defer cleanup()

	id := uuid.New()
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1 FOR UPDATE`).
			WithArgs("Corner Cafe").
			WillReturnRows(repoBusinessRows(t, id, "Corner Cafe", models.Queue{}))
		mock.ExpectExec(`UPDATE businesses SET queue`).
			WithArgs(id.String(), sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "40P01"})
		mock.ExpectRollback()
	}

	_, err := repo.WithQueue("Corner Cafe", func(tx *sqlx.Tx, b *models.Business) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrTxConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithQueue_BusinessNotFound(t *testing.T) {
	repo, mock, cleanup := newBusinessRepoTest(t, 3)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM businesses WHERE name = \$1 FOR UPDATE`).
		WithArgs("Nowhere").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.WithQueue("Nowhere", func(tx *sqlx.Tx, b *models.Business) error {
		t.Fatal("mutator must not run for a missing business")
		return nil
	})
	assert.ErrorIs(t, err, ErrBusinessNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
