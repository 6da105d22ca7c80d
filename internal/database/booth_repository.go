package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/q-up/queue-backend/internal/models"
)

// ErrBoothNotFound is returned when no booth matches the given id.
var ErrBoothNotFound = errors.New("booth not found")

// BoothRepository handles database operations for kiosk booths.
type BoothRepository struct {
	db *sqlx.DB
}

// NewBoothRepository creates a new BoothRepository
func NewBoothRepository(db *sqlx.DB) *BoothRepository {
	return &BoothRepository{db: db}
}

// Create inserts a new booth record
func (r *BoothRepository) Create(booth *models.Booth) error {
	if booth.ID == uuid.Nil {
		booth.ID = uuid.New()
	}

	err := r.db.QueryRow(`
		INSERT INTO booths (id, business_name, name, api_key_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		booth.ID, booth.BusinessName, booth.Name, booth.APIKeyHash,
	).Scan(&booth.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booth: %w", err)
	}
	return nil
}

// GetByID retrieves a booth by id
func (r *BoothRepository) GetByID(id uuid.UUID) (*models.Booth, error) {
	booth := &models.Booth{}
	err := r.db.Get(booth,
		`SELECT id, business_name, name, api_key_hash, created_at FROM booths WHERE id = $1`,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBoothNotFound
		}
		return nil, fmt.Errorf("failed to load booth %s: %w", id, err)
	}
	return booth, nil
}
