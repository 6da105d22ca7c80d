package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceService tracks which employees are currently online, one Redis set
// per business. Counts read from here feed wait-time estimates only, so the
// usual caveats apply: the value is an eventually-consistent snapshot, never
// a correctness input. The set expires after the presence TTL so a crashed
// business front-desk does not pin stale staff online forever.
type PresenceService struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewPresenceService creates a new presence service
func NewPresenceService(redisClient *redis.Client, ttl time.Duration) *PresenceService {
	return &PresenceService{redis: redisClient, ttl: ttl}
}

func presenceKey(businessName string) string {
	return fmt.Sprintf("staff:online:%s", businessName)
}

// SetOnline marks the employee as online for the business and refreshes the
// set's TTL.
func (s *PresenceService) SetOnline(ctx context.Context, businessName, email string) error {
	key := presenceKey(businessName)
	if err := s.redis.SAdd(ctx, key, email).Err(); err != nil {
		return fmt.Errorf("failed to mark %q online: %w", email, err)
	}
	if err := s.redis.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh presence ttl: %w", err)
	}
	return nil
}

// SetOffline removes the employee from the business's online set.
func (s *PresenceService) SetOffline(ctx context.Context, businessName, email string) error {
	if err := s.redis.SRem(ctx, presenceKey(businessName), email).Err(); err != nil {
		return fmt.Errorf("failed to mark %q offline: %w", email, err)
	}
	return nil
}

// OnlineCount returns the number of employees currently online for the
// business.
func (s *PresenceService) OnlineCount(ctx context.Context, businessName string) (int, error) {
	count, err := s.redis.SCard(ctx, presenceKey(businessName)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count online staff: %w", err)
	}
	return int(count), nil
}

// OnlineStaff returns the emails of employees currently online.
func (s *PresenceService) OnlineStaff(ctx context.Context, businessName string) ([]string, error) {
	members, err := s.redis.SMembers(ctx, presenceKey(businessName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list online staff: %w", err)
	}
	return members, nil
}
