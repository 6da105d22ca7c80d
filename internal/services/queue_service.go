package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/q-up/queue-backend/internal/database"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/q-up/queue-backend/internal/monitoring"
	"github.com/q-up/queue-backend/internal/queue"
	"github.com/sirupsen/logrus"
)

// QueueService is the queue state machine. Every mutation validates the
// actor's role and the operation's preconditions, then performs a single
// atomically-guarded read-modify-write through the business repository.
// Customer pointer updates ride in the same transaction as the queue
// document, so a committed queue never disagrees with the pointers it
// implies.
type QueueService struct {
	businesses *database.BusinessRepository
	users      *database.UserRepository
	factory    *queue.SlotFactory
	presence   *PresenceService
	logger     *logrus.Logger
}

// NewQueueService creates a new queue service
func NewQueueService(
	businesses *database.BusinessRepository,
	users *database.UserRepository,
	factory *queue.SlotFactory,
	presence *PresenceService,
	logger *logrus.Logger,
) *QueueService {
	return &QueueService{
		businesses: businesses,
		users:      users,
		factory:    factory,
		presence:   presence,
		logger:     logger,
	}
}

// Enter appends the customer to the business's queue. Preconditions: the
// actor is a customer, is not enrolled anywhere, and the queue is active.
// The new slot's ticket number continues the regular series (last + 1, or 0
// for an empty queue).
func (s *QueueService) Enter(ctx context.Context, actor models.Actor, businessName string) (snapshot *models.QueueSnapshot, err error) {
	defer func() { monitoring.RecordOperation("enter", businessName, err) }()

	if actor.Role != models.RoleCustomer {
		return nil, ErrUnauthorized
	}

	var avgWait int
	q, err := s.businesses.WithQueue(businessName, func(tx *sqlx.Tx, b *models.Business) error {
		avgWait = b.AverageWaitTime

		user, err := s.users.GetByEmailTx(tx, actor.Email)
		if err != nil {
			return err
		}
		if user.CurrentQueue.Valid {
			return ErrAlreadyQueued
		}
		if !b.Queue.IsActive {
			return ErrQueueInactive
		}

		slot, err := s.factory.CreateQueueSlot(actor.Email, b.Queue.NextTicketNumber())
		if err != nil {
			return err
		}
		b.Queue.Slots = append(b.Queue.Slots, slot)

		return s.users.SetCurrentQueueTx(tx, actor.Email, &b.Name)
	})
	if err != nil {
		return nil, s.translateStoreError("enter", businessName, err)
	}

	s.logger.WithFields(logrus.Fields{
		"business": businessName,
		"customer": actor.Email,
		"ticket":   q.Slots[len(q.Slots)-1].TicketNumber,
	}).Info("customer entered queue")

	return s.buildSnapshot(ctx, businessName, q, avgWait, false), nil
}

// Abandon removes the customer's slot from the queue their pointer names and
// clears the pointer. Deliberately not gated on isActive: a customer can
// always leave, even while staff deactivates around them.
func (s *QueueService) Abandon(ctx context.Context, actor models.Actor) (err error) {
	if actor.Role != models.RoleCustomer {
		return ErrUnauthorized
	}

	user, err := s.users.GetByEmail(actor.Email)
	if err != nil {
		return s.translateStoreError("abandon", "", err)
	}
	if !user.CurrentQueue.Valid {
		return ErrNotQueued
	}
	businessName := user.CurrentQueue.String
	defer func() { monitoring.RecordOperation("abandon", businessName, err) }()

	q, err := s.businesses.WithQueue(businessName, func(tx *sqlx.Tx, b *models.Business) error {
		locked, err := s.users.GetByEmailTx(tx, actor.Email)
		if err != nil {
			return err
		}
		if !locked.CurrentQueue.Valid || locked.CurrentQueue.String != businessName {
			return ErrNotQueued
		}

		idx := b.Queue.FindSlot(actor.Email)
		if idx == -1 {
			return ErrSlotNotFound
		}
		b.Queue.Slots = append(b.Queue.Slots[:idx], b.Queue.Slots[idx+1:]...)

		return s.users.SetCurrentQueueTx(tx, actor.Email, nil)
	})
	if err != nil {
		return s.translateStoreError("abandon", businessName, err)
	}

	monitoring.SetQueueState(businessName, len(q.Slots), q.IsActive)
	s.logger.WithFields(logrus.Fields{
		"business": businessName,
		"customer": actor.Email,
	}).Info("customer abandoned queue slot")

	return nil
}

// VIPInsert prepends a VIP slot to the employee's business queue. VIPs jump
// the entire line; existing slots keep their ticket numbers and passwords.
// The VIP ticket comes from the queue's own series, independent of regular
// numbering.
func (s *QueueService) VIPInsert(ctx context.Context, actor models.Actor) (slot *models.QueueSlot, err error) {
	businessName := actor.BusinessName
	defer func() { monitoring.RecordOperation("vip_insert", businessName, err) }()

	if actor.Role != models.RoleEmployee {
		return nil, ErrUnauthorized
	}

	var created models.QueueSlot
	q, err := s.businesses.WithQueue(businessName, func(tx *sqlx.Tx, b *models.Business) error {
		if !b.Queue.IsActive {
			return ErrQueueInactive
		}

		vip, err := s.factory.CreateVIPSlot(b.Queue.VIPCounter)
		if err != nil {
			return err
		}
		b.Queue.VIPCounter++
		b.Queue.Slots = append([]models.QueueSlot{vip}, b.Queue.Slots...)
		created = vip
		return nil
	})
	if err != nil {
		return nil, s.translateStoreError("vip_insert", businessName, err)
	}

	monitoring.SetQueueState(businessName, len(q.Slots), q.IsActive)
	s.logger.WithFields(logrus.Fields{
		"business": businessName,
		"vip":      created.Customer,
		"employee": actor.Email,
	}).Info("VIP inserted at front of queue")

	return &created, nil
}

// Activate opens the queue for entries. Only a manager may activate, and
// only while the current local time falls inside today's configured
// operating window.
func (s *QueueService) Activate(ctx context.Context, actor models.Actor) (err error) {
	businessName := actor.BusinessName
	defer func() { monitoring.RecordOperation("activate", businessName, err) }()

	if actor.Role != models.RoleManager {
		return ErrUnauthorized
	}

	q, err := s.businesses.WithQueue(businessName, func(tx *sqlx.Tx, b *models.Business) error {
		open, err := queue.IsOpenNow(b.Hours, b.Timezone, time.Now())
		if err != nil {
			return err
		}
		if !open {
			return ErrStoreClosed
		}
		b.Queue.IsActive = true
		return nil
	})
	if err != nil {
		return s.translateStoreError("activate", businessName, err)
	}

	monitoring.SetQueueState(businessName, len(q.Slots), q.IsActive)
	s.logger.WithField("business", businessName).Info("queue activated")
	return nil
}

// Deactivate closes the queue and evicts every occupant. Each affected
// customer's pointer is cleared in the same transaction that wipes the slots
// and flips isActive, so a crash cannot leave customers pointing at a queue
// that no longer holds them.
func (s *QueueService) Deactivate(ctx context.Context, actor models.Actor) (err error) {
	businessName := actor.BusinessName
	defer func() { monitoring.RecordOperation("deactivate", businessName, err) }()

	if actor.Role != models.RoleManager {
		return ErrUnauthorized
	}

	q, err := s.businesses.WithQueue(businessName, func(tx *sqlx.Tx, b *models.Business) error {
		for _, slot := range b.Queue.Slots {
			if !slot.HasAccount() {
				continue
			}
			if err := s.users.ClearCurrentQueueTx(tx, slot.Customer); err != nil {
				return err
			}
		}
		b.Queue.Slots = []models.QueueSlot{}
		b.Queue.IsActive = false
		return nil
	})
	if err != nil {
		return s.translateStoreError("deactivate", businessName, err)
	}

	monitoring.SetQueueState(businessName, len(q.Slots), q.IsActive)
	s.logger.WithField("business", businessName).Info("queue deactivated, all slots evicted")
	return nil
}

// ToggleStatus reads the queue's current state and dispatches to Activate or
// Deactivate. This is the single externally exposed transition trigger.
// The returned flag reports the state after the toggle.
func (s *QueueService) ToggleStatus(ctx context.Context, actor models.Actor) (active bool, err error) {
	if actor.Role != models.RoleManager {
		return false, ErrUnauthorized
	}

	business, err := s.businesses.GetByName(actor.BusinessName)
	if err != nil {
		return false, s.translateStoreError("toggle_status", actor.BusinessName, err)
	}

	if business.Queue.IsActive {
		return false, s.Deactivate(ctx, actor)
	}
	if err := s.Activate(ctx, actor); err != nil {
		return false, err
	}
	return true, nil
}

// StaffQueue returns the staff-facing queue view: the slot list, activation
// state and the aggregate wait for a newly joining customer. Employees see
// their own business only.
func (s *QueueService) StaffQueue(ctx context.Context, actor models.Actor) (*models.QueueSnapshot, error) {
	if actor.Role != models.RoleEmployee && actor.Role != models.RoleManager {
		return nil, ErrUnauthorized
	}

	business, err := s.businesses.GetByName(actor.BusinessName)
	if err != nil {
		return nil, s.translateStoreError("staff_queue", actor.BusinessName, err)
	}

	return s.buildSnapshot(ctx, business.Name, &business.Queue, business.AverageWaitTime, true), nil
}

// CustomerSlotInfo returns the customer's own slot: ticket number, password,
// 1-based display position and personal ETA. If the queue went inactive
// while the customer waited, their pointer is cleared and ErrQueueInactive
// is returned.
func (s *QueueService) CustomerSlotInfo(ctx context.Context, actor models.Actor) (*models.SlotInfo, error) {
	if actor.Role != models.RoleCustomer {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByEmail(actor.Email)
	if err != nil {
		return nil, s.translateStoreError("slot_info", "", err)
	}
	if !user.CurrentQueue.Valid {
		return nil, ErrNotQueued
	}
	businessName := user.CurrentQueue.String

	business, err := s.businesses.GetByName(businessName)
	if err != nil {
		return nil, s.translateStoreError("slot_info", businessName, err)
	}

	if !business.Queue.IsActive {
		// Staff deactivated around the customer; release the stale pointer.
		if _, err := s.businesses.WithQueue(businessName, func(tx *sqlx.Tx, b *models.Business) error {
			return s.users.SetCurrentQueueTx(tx, actor.Email, nil)
		}); err != nil {
			s.logger.WithError(err).WithField("customer", actor.Email).
				Error("failed to release stale queue pointer")
		}
		return nil, ErrQueueInactive
	}

	idx := business.Queue.FindSlot(actor.Email)
	if idx == -1 {
		s.logger.WithFields(logrus.Fields{
			"business": businessName,
			"customer": actor.Email,
		}).Error("customer pointer names a queue without a matching slot")
		return nil, ErrSlotNotFound
	}

	slot := business.Queue.Slots[idx]
	info := &models.SlotInfo{
		TicketNumber: slot.TicketNumber,
		Password:     slot.Password,
		Position:     idx + 1,
	}
	info.WaitTime = s.estimateWait(ctx, businessName, idx, business.AverageWaitTime)

	return info, nil
}

// CheckIn serves a customer at the counter: the employee keys in the ticket
// number and the password the customer presents. The matching slot is
// removed and, for account-backed slots, the customer's pointer cleared.
func (s *QueueService) CheckIn(ctx context.Context, actor models.Actor, ticketNumber int, password string) (served *models.QueueSlot, err error) {
	businessName := actor.BusinessName
	defer func() { monitoring.RecordOperation("check_in", businessName, err) }()

	if actor.Role != models.RoleEmployee {
		return nil, ErrUnauthorized
	}

	var removed models.QueueSlot
	q, err := s.businesses.WithQueue(businessName, func(tx *sqlx.Tx, b *models.Business) error {
		idx := -1
		for i, slot := range b.Queue.Slots {
			if slot.TicketNumber == ticketNumber && slot.Password == password {
				idx = i
				break
			}
		}
		if idx == -1 {
			return ErrInvalidCredentials
		}

		removed = b.Queue.Slots[idx]
		b.Queue.Slots = append(b.Queue.Slots[:idx], b.Queue.Slots[idx+1:]...)

		if removed.HasAccount() {
			return s.users.ClearCurrentQueueTx(tx, removed.Customer)
		}
		return nil
	})
	if err != nil {
		return nil, s.translateStoreError("check_in", businessName, err)
	}

	monitoring.SetQueueState(businessName, len(q.Slots), q.IsActive)
	s.logger.WithFields(logrus.Fields{
		"business": businessName,
		"ticket":   removed.TicketNumber,
		"employee": actor.Email,
	}).Info("customer checked in and served")

	return &removed, nil
}

// buildSnapshot assembles the queue view, attaching the aggregate wait-time
// estimate when staff are online. includeSlots controls whether the slot
// list itself is exposed (staff only).
func (s *QueueService) buildSnapshot(ctx context.Context, businessName string, q *models.Queue, avgWait int, includeSlots bool) *models.QueueSnapshot {
	snapshot := &models.QueueSnapshot{
		IsActive:    q.IsActive,
		QueueLength: len(q.Slots),
	}
	if includeSlots {
		snapshot.Slots = q.Slots
	}
	snapshot.CurrentWaitTime = s.estimateWait(ctx, businessName, len(q.Slots), avgWait)

	monitoring.SetQueueState(businessName, len(q.Slots), q.IsActive)
	return snapshot
}

// estimateWait returns the wait estimate for the given position, or nil when
// it is undefined (no staff online) or presence is unreachable. Estimates
// are advisory; failures here never fail the operation.
func (s *QueueService) estimateWait(ctx context.Context, businessName string, position, avgWait int) *float64 {
	staff, err := s.presence.OnlineCount(ctx, businessName)
	if err != nil {
		s.logger.WithError(err).WithField("business", businessName).
			Warn("presence lookup failed, omitting wait estimate")
		return nil
	}

	estimate, err := queue.Estimate(position, avgWait, staff)
	if err != nil {
		if !errors.Is(err, queue.ErrNoStaffOnline) {
			s.logger.WithError(err).WithField("business", businessName).
				Warn("wait estimate failed")
		}
		return nil
	}
	return &estimate
}

// translateStoreError maps repository errors onto the outcome taxonomy.
// Expected control-flow outcomes pass through untouched; ErrSlotNotFound is
// logged as a consistency violation; everything else becomes a storage
// failure.
func (s *QueueService) translateStoreError(op, businessName string, err error) error {
	if expectedOutcome(err) {
		if errors.Is(err, ErrSlotNotFound) {
			s.logger.WithFields(logrus.Fields{
				"operation": op,
				"business":  businessName,
			}).Error("queue contents inconsistent with customer pointer")
		}
		return err
	}

	switch {
	case errors.Is(err, database.ErrBusinessNotFound), errors.Is(err, database.ErrUserNotFound):
		return ErrNotFound
	default:
		s.logger.WithError(err).WithFields(logrus.Fields{
			"operation": op,
			"business":  businessName,
		}).Error("queue storage operation failed")
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
}
