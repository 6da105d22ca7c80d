// Package queue holds the pure pieces of the queue domain: slot creation,
// wait-time estimation and the operating-hours gate. Nothing here touches
// storage; the state machine in internal/services composes these.
package queue

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/q-up/queue-backend/internal/models"
)

// SlotFactory builds queue-slot records: ticket numbering, credential
// generation and VIP identities.
type SlotFactory struct {
	passwordLength int
}

// NewSlotFactory creates a slot factory issuing passwords of the given
// length. Lengths below 4 are clamped to 4.
func NewSlotFactory(passwordLength int) *SlotFactory {
	if passwordLength < 4 {
		passwordLength = 4
	}
	return &SlotFactory{passwordLength: passwordLength}
}

// CreateQueueSlot builds a regular slot for a registered customer. The caller
// supplies the ticket number (last ticket + 1, or 0 for an empty queue).
func (f *SlotFactory) CreateQueueSlot(customerID string, ticketNumber int) (models.QueueSlot, error) {
	password, err := f.generatePassword()
	if err != nil {
		return models.QueueSlot{}, err
	}

	return models.QueueSlot{
		Customer:     customerID,
		TicketNumber: ticketNumber,
		Password:     password,
		JoinedAt:     time.Now().UTC(),
	}, nil
}

// CreateVIPSlot builds a VIP slot with a synthetic customer identity. VIPs
// have no account, so the identity only needs to be unique enough for staff
// to call out. The ticket number comes from the queue's own VIP series.
func (f *SlotFactory) CreateVIPSlot(ticketNumber int) (models.QueueSlot, error) {
	password, err := f.generatePassword()
	if err != nil {
		return models.QueueSlot{}, err
	}

	return models.QueueSlot{
		Customer:     "VIP-" + strings.Split(uuid.New().String(), "-")[0],
		TicketNumber: ticketNumber,
		Password:     password,
		IsVIP:        true,
		JoinedAt:     time.Now().UTC(),
	}, nil
}

// CreateBoothSlot builds a slot for a walk-in customer entering through a
// kiosk, identified by phone number. Booth slots draw from the regular
// ticket series but carry no account bookkeeping.
func (f *SlotFactory) CreateBoothSlot(phoneNumber string, ticketNumber int) (models.QueueSlot, error) {
	password, err := f.generatePassword()
	if err != nil {
		return models.QueueSlot{}, err
	}

	return models.QueueSlot{
		Customer:     phoneNumber,
		TicketNumber: ticketNumber,
		Password:     password,
		FromBooth:    true,
		JoinedAt:     time.Now().UTC(),
	}, nil
}

// generatePassword returns a fixed-length opaque token the customer presents
// to staff at the counter.
func (f *SlotFactory) generatePassword() (string, error) {
	buf := make([]byte, (f.passwordLength+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate slot password: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf))[:f.passwordLength], nil
}
