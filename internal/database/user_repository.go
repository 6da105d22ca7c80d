package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/q-up/queue-backend/internal/models"
)

// ErrUserNotFound is returned when no user matches the given email.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, email, user_type, business_name, current_queue, favorite_businesses, created_at, updated_at`

// UserRepository handles database operations for user accounts. Methods with
// a Tx suffix run against a caller-owned transaction so customer pointer
// updates commit atomically with the queue document they refer to.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	if err := r.db.Get(user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %q: %w", email, err)
	}
	return user, nil
}

// GetByEmailTx retrieves a user inside the given transaction, locking the row
// so the currentQueue pointer cannot change under the queue mutation. Row
// lock order is always business first, then user, to keep mutators
// deadlock-free.
func (r *UserRepository) GetByEmailTx(tx *sqlx.Tx, email string) (*models.User, error) {
	user := &models.User{}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 FOR UPDATE`, userColumns)

	if err := tx.Get(user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user %q: %w", email, err)
	}
	return user, nil
}

// SetCurrentQueueTx points the customer at the named queue, or clears the
// pointer when businessName is nil. Must run in the same transaction as the
// queue document write it corresponds to.
func (r *UserRepository) SetCurrentQueueTx(tx *sqlx.Tx, email string, businessName *string) error {
	result, err := tx.Exec(
		`UPDATE users SET current_queue = $2, updated_at = NOW() WHERE email = $1`,
		email, businessName,
	)
	if err != nil {
		return fmt.Errorf("failed to update current queue for %q: %w", email, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearCurrentQueueTx clears the pointer without failing on a missing user.
// Deactivation clears every occupant's pointer best-effort inside one
// transaction; an already-deleted account must not abort it.
func (r *UserRepository) ClearCurrentQueueTx(tx *sqlx.Tx, email string) error {
	_, err := tx.Exec(
		`UPDATE users SET current_queue = NULL, updated_at = NOW() WHERE email = $1`,
		email,
	)
	if err != nil {
		return fmt.Errorf("failed to clear current queue for %q: %w", email, err)
	}
	return nil
}

// AddFavourite adds a business to the customer's favourites with set
// semantics: adding an existing member is a no-op.
func (r *UserRepository) AddFavourite(email, businessName string) error {
	_, err := r.db.Exec(`
		UPDATE users
		SET favorite_businesses = array_append(favorite_businesses, $2),
		    updated_at = NOW()
		WHERE email = $1
		  AND NOT ($2 = ANY(favorite_businesses))`,
		email, businessName,
	)
	if err != nil {
		return fmt.Errorf("failed to add favourite for %q: %w", email, err)
	}
	return nil
}

// RemoveFavourite removes a business from the customer's favourites.
func (r *UserRepository) RemoveFavourite(email, businessName string) error {
	_, err := r.db.Exec(`
		UPDATE users
		SET favorite_businesses = array_remove(favorite_businesses, $2),
		    updated_at = NOW()
		WHERE email = $1`,
		email, businessName,
	)
	if err != nil {
		return fmt.Errorf("failed to remove favourite for %q: %w", email, err)
	}
	return nil
}

// ListEmployees returns the emails of all employee accounts bound to the
// business. The roster is the base set for presence lookups.
func (r *UserRepository) ListEmployees(businessName string) ([]string, error) {
	var emails []string
	err := r.db.Select(&emails,
		`SELECT email FROM users WHERE user_type = 'employee' AND business_name = $1 ORDER BY email`,
		businessName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees of %q: %w", businessName, err)
	}
	return emails, nil
}
