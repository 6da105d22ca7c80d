package models

import (
	"time"

	"github.com/google/uuid"
)

// Booth is a physical kiosk registered to a business. Walk-in customers
// without an account join the queue through it. APIKeyHash is the bcrypt
// hash of the key handed out once at registration.
type Booth struct {
	ID           uuid.UUID `json:"id" db:"id"`
	BusinessName string    `json:"business_name" db:"business_name"`
	Name         string    `json:"name" db:"name"`
	APIKeyHash   string    `json:"-" db:"api_key_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
