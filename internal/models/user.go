package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// User represents an account in the system: a customer, an employee or a
// manager. Staff accounts (employee/manager) are bound to a business via
// BusinessName. CurrentQueue is the customer's single-queue-membership
// pointer: nullable, and must only ever name a queue the customer actually
// holds a slot in.
type User struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	Email              string         `json:"email" db:"email"`
	UserType           Role           `json:"user_type" db:"user_type"`
	BusinessName       NullString     `json:"business_name,omitempty" db:"business_name"`
	CurrentQueue       NullString     `json:"current_queue,omitempty" db:"current_queue"`
	FavoriteBusinesses pq.StringArray `json:"favorite_businesses" db:"favorite_businesses"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// IsFavourite reports whether the business is in the user's favourites.
func (u *User) IsFavourite(businessName string) bool {
	for _, name := range u.FavoriteBusinesses {
		if name == businessName {
			return true
		}
	}
	return false
}
