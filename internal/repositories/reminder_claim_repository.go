package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// setNXClient is the part of *redis.Client used for claims
type setNXClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// reminderClaimRepository records which enrollments were already reminded on a given day
type reminderClaimRepository struct {
	client setNXClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewReminderClaimRepository creates a new Redis backed reminder claim repository
func NewReminderClaimRepository(client *redis.Client, logger *zap.Logger) *reminderClaimRepository {
	return newReminderClaimRepository(client, logger)
}

func newReminderClaimRepository(client setNXClient, logger *zap.Logger) *reminderClaimRepository {
	return &reminderClaimRepository{
		client: client,
		ttl:    24 * time.Hour,
		logger: logger,
	}
}

// ReminderKey returns the claim key of an enrollment for a day in YYYY-MM-DD form
func ReminderKey(enrollmentID int, day string) string {
	return fmt.Sprintf("reminder:%d:%s", enrollmentID, day)
}

// Claim reserves the reminder of an enrollment for a day.
// It returns false when the reminder was already claimed.
func (r *reminderClaimRepository) Claim(ctx context.Context, enrollmentID int, day string) (bool, error) {
	key := ReminderKey(enrollmentID, day)
	claimed, err := r.client.SetNX(ctx, key, time.Now().UTC().Unix(), r.ttl).Result()
	if err != nil {
		r.logger.Error("failed to claim reminder", zap.Error(err), zap.String("key", key))
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}
	return claimed, nil
}
