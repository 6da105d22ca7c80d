package services

import (
	"context"
	"errors"
	"time"

	"github.com/q-up/queue-backend/internal/database"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/q-up/queue-backend/internal/queue"
	"github.com/sirupsen/logrus"
)

// FavoritesService manages a customer's favourite businesses as a set:
// membership test plus add/remove, no positional semantics.
type FavoritesService struct {
	businesses *database.BusinessRepository
	users      *database.UserRepository
	presence   *PresenceService
	logger     *logrus.Logger
}

// NewFavoritesService creates a new favourites service
func NewFavoritesService(
	businesses *database.BusinessRepository,
	users *database.UserRepository,
	presence *PresenceService,
	logger *logrus.Logger,
) *FavoritesService {
	return &FavoritesService{
		businesses: businesses,
		users:      users,
		presence:   presence,
		logger:     logger,
	}
}

// Toggle adds the business to the customer's favourites if absent, removes
// it otherwise. Returns true when the business ended up favourited.
func (s *FavoritesService) Toggle(ctx context.Context, actor models.Actor, businessName string) (bool, error) {
	if actor.Role != models.RoleCustomer {
		return false, ErrUnauthorized
	}

	if _, err := s.businesses.GetByName(businessName); err != nil {
		return false, s.translate(err)
	}

	user, err := s.users.GetByEmail(actor.Email)
	if err != nil {
		return false, s.translate(err)
	}

	if user.IsFavourite(businessName) {
		if err := s.users.RemoveFavourite(actor.Email, businessName); err != nil {
			return false, s.translate(err)
		}
		return false, nil
	}

	if err := s.users.AddFavourite(actor.Email, businessName); err != nil {
		return false, s.translate(err)
	}
	return true, nil
}

// List returns a queue summary for each of the customer's favourite
// businesses. Favourites whose business has vanished are skipped rather
// than failing the whole listing.
func (s *FavoritesService) List(ctx context.Context, actor models.Actor) (map[string]models.FavouriteQueueInfo, error) {
	if actor.Role != models.RoleCustomer {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByEmail(actor.Email)
	if err != nil {
		return nil, s.translate(err)
	}

	favourites := make(map[string]models.FavouriteQueueInfo, len(user.FavoriteBusinesses))
	for _, name := range user.FavoriteBusinesses {
		business, err := s.businesses.GetByName(name)
		if err != nil {
			s.logger.WithError(err).WithField("business", name).
				Warn("skipping unavailable favourite")
			continue
		}

		info := models.FavouriteQueueInfo{
			IsActive:    business.Queue.IsActive,
			QueueLength: len(business.Queue.Slots),
		}
		info.CurrentWaitTime = s.estimateWait(ctx, business)
		info.StartTime, info.EndTime = s.todayWindow(business)

		favourites[name] = info
	}

	return favourites, nil
}

func (s *FavoritesService) estimateWait(ctx context.Context, business *models.Business) *float64 {
	staff, err := s.presence.OnlineCount(ctx, business.Name)
	if err != nil {
		return nil
	}
	estimate, err := queue.Estimate(len(business.Queue.Slots), business.AverageWaitTime, staff)
	if err != nil {
		return nil
	}
	return &estimate
}

// todayWindow resolves today's open/close pair in the business's local time.
func (s *FavoritesService) todayWindow(business *models.Business) (string, string) {
	loc, err := time.LoadLocation(business.Timezone)
	if err != nil {
		return "", ""
	}
	start, end, ok := business.Hours.Window(time.Now().In(loc).Weekday())
	if !ok {
		return "", ""
	}
	return start, end
}

func (s *FavoritesService) translate(err error) error {
	if expectedOutcome(err) {
		return err
	}
	switch {
	case errors.Is(err, database.ErrBusinessNotFound), errors.Is(err, database.ErrUserNotFound):
		return ErrNotFound
	default:
		s.logger.WithError(err).Error("favourites storage operation failed")
		return ErrStorageFailure
	}
}
