package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/q-up/queue-backend/internal/database"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/q-up/queue-backend/internal/monitoring"
	"github.com/q-up/queue-backend/internal/queue"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// boothKeyBytes is the entropy of a booth API key before hex encoding.
const boothKeyBytes = 24

// BoothService manages kiosk booths: registration by a manager and walk-in
// queue entry for customers without an account. The API key is shown exactly
// once at registration; only its bcrypt hash is stored.
type BoothService struct {
	booths     *database.BoothRepository
	businesses *database.BusinessRepository
	factory    *queue.SlotFactory
	bcryptCost int
	logger     *logrus.Logger
}

// NewBoothService creates a new booth service
func NewBoothService(
	booths *database.BoothRepository,
	businesses *database.BusinessRepository,
	factory *queue.SlotFactory,
	bcryptCost int,
	logger *logrus.Logger,
) *BoothService {
	return &BoothService{
		booths:     booths,
		businesses: businesses,
		factory:    factory,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// CreateBooth registers a kiosk for the manager's business and returns the
// booth together with its plaintext API key.
func (s *BoothService) CreateBooth(ctx context.Context, actor models.Actor, name string) (*models.Booth, string, error) {
	if actor.Role != models.RoleManager {
		return nil, "", ErrUnauthorized
	}

	keyBuf := make([]byte, boothKeyBytes)
	if _, err := rand.Read(keyBuf); err != nil {
		return nil, "", fmt.Errorf("failed to generate booth key: %w", err)
	}
	apiKey := hex.EncodeToString(keyBuf)

	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash booth key: %w", err)
	}

	booth := &models.Booth{
		BusinessName: actor.BusinessName,
		Name:         name,
		APIKeyHash:   string(hash),
	}
	if err := s.booths.Create(booth); err != nil {
		s.logger.WithError(err).Error("failed to create booth")
		return nil, "", ErrStorageFailure
	}

	s.logger.WithFields(logrus.Fields{
		"business": actor.BusinessName,
		"booth":    booth.ID,
	}).Info("booth registered")

	return booth, apiKey, nil
}

// EnterQueue enters a walk-in customer, identified by phone number, into the
// booth's business queue. The slot draws from the regular ticket series but
// carries no account bookkeeping. A phone number already waiting cannot
// enter twice.
func (s *BoothService) EnterQueue(ctx context.Context, boothID uuid.UUID, apiKey, phoneNumber string) (entered *models.QueueSlot, err error) {
	booth, err := s.booths.GetByID(boothID)
	if err != nil {
		if errors.Is(err, database.ErrBoothNotFound) {
			return nil, ErrNotFound
		}
		s.logger.WithError(err).Error("failed to load booth")
		return nil, ErrStorageFailure
	}
	defer func() { monitoring.RecordOperation("booth_enter", booth.BusinessName, err) }()

	if bcrypt.CompareHashAndPassword([]byte(booth.APIKeyHash), []byte(apiKey)) != nil {
		return nil, ErrInvalidCredentials
	}

	var created models.QueueSlot
	q, err := s.businesses.WithQueue(booth.BusinessName, func(tx *sqlx.Tx, b *models.Business) error {
		if !b.Queue.IsActive {
			return ErrQueueInactive
		}
		if b.Queue.FindSlot(phoneNumber) != -1 {
			return ErrAlreadyQueued
		}

		slot, err := s.factory.CreateBoothSlot(phoneNumber, b.Queue.NextTicketNumber())
		if err != nil {
			return err
		}
		b.Queue.Slots = append(b.Queue.Slots, slot)
		created = slot
		return nil
	})
	if err != nil {
		if expectedOutcome(err) {
			return nil, err
		}
		if errors.Is(err, database.ErrBusinessNotFound) {
			return nil, ErrNotFound
		}
		s.logger.WithError(err).WithField("booth", boothID).
			Error("booth queue entry failed")
		return nil, ErrStorageFailure
	}

	monitoring.SetQueueState(booth.BusinessName, len(q.Slots), q.IsActive)
	s.logger.WithFields(logrus.Fields{
		"business": booth.BusinessName,
		"booth":    boothID,
		"ticket":   created.TicketNumber,
	}).Info("walk-in customer entered through booth")

	return &created, nil
}
