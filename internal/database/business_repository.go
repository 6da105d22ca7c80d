package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/q-up/queue-backend/internal/search"
)

// ErrBusinessNotFound is returned when no business matches the given name.
var ErrBusinessNotFound = errors.New("business not found")

// ErrTxConflict is returned when a queue transaction keeps conflicting after
// the bounded retry budget is spent. Callers surface it as a storage failure.
var ErrTxConflict = errors.New("queue transaction conflict: retries exhausted")

const businessColumns = `id, name, timezone, average_wait_time, hours, queue, created_at, updated_at`

// QueueMutator mutates the loaded business's queue inside the transaction.
// It may use tx for coupled writes (customer currentQueue pointers) that must
// commit atomically with the queue document. Returning an error aborts the
// transaction without retry: precondition failures must not be re-run.
type QueueMutator func(tx *sqlx.Tx, business *models.Business) error

// BusinessRepository owns the authoritative queue state per business. All
// queue mutations go through WithQueue, which guarantees per-business
// serializability: the business row is locked for the duration of the
// read-modify-write, so concurrent mutators on the same business cannot
// interleave, while different businesses proceed independently.
type BusinessRepository struct {
	db         *sqlx.DB
	indexer    search.Indexer
	maxRetries int
}

// NewBusinessRepository creates a new BusinessRepository. indexer may be nil
// when no search collaborator is configured. maxRetries bounds the retry loop
// for conflicting transactions; values below 1 are clamped to 1.
func NewBusinessRepository(db *sqlx.DB, indexer search.Indexer, maxRetries int) *BusinessRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &BusinessRepository{db: db, indexer: indexer, maxRetries: maxRetries}
}

// GetByName retrieves a business by its unique name without locking. Used by
// read-only views; mutations must go through WithQueue.
func (r *BusinessRepository) GetByName(name string) (*models.Business, error) {
	business := &models.Business{}
	query := fmt.Sprintf(`SELECT %s FROM businesses WHERE name = $1`, businessColumns)

	if err := r.db.Get(business, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to load business %q: %w", name, err)
	}
	return business, nil
}

// WithQueue loads the business by unique name, locks its row, invokes the
// mutator on the loaded record and persists the queue document in the same
// transaction. The whole read-modify-write is retried a bounded number of
// times on serialization or deadlock failures; any other error aborts
// immediately. On success the updated queue is returned and a copy of the
// business record is handed to the search indexer, fire-and-forget.
func (r *BusinessRepository) WithQueue(name string, mutate QueueMutator) (*models.Queue, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		queue, err := r.runQueueTx(name, mutate)
		if err == nil {
			return queue, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}

	return nil, fmt.Errorf("%w: %v", ErrTxConflict, lastErr)
}

func (r *BusinessRepository) runQueueTx(name string, mutate QueueMutator) (*models.Queue, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	business := &models.Business{}
	query := fmt.Sprintf(`SELECT %s FROM businesses WHERE name = $1 FOR UPDATE`, businessColumns)
	if err := tx.Get(business, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to lock business %q: %w", name, err)
	}

	if err := mutate(tx, business); err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`UPDATE businesses SET queue = $2, updated_at = NOW() WHERE id = $1`,
		business.ID, business.Queue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to persist queue for %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit queue transaction: %w", err)
	}

	if r.indexer != nil {
		go r.indexer.SaveBusiness(*business)
	}

	return &business.Queue, nil
}

// isRetryable reports whether the error is a Postgres serialization or
// deadlock failure worth re-running the transaction for.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
