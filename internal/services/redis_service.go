package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-realtime/internal/database"

	"github.com/redis/go-redis/v9"
)

const onlineUsersKey = "online_users"

func userStatusKey(userID string) string {
	return fmt.Sprintf("user:%s:status", userID)
}

// RedisService mirrors presence for other processes and backs rate limiting.
type RedisService struct {
	client *database.RedisClient
	logger *slog.Logger
}

func NewRedisService(client *database.RedisClient, logger *slog.Logger) *RedisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisService{
		client: client,
		logger: logger,
	}
}

// =============================================================================
// User Status Management
// =============================================================================

func (r *RedisService) SetUserOnline(ctx context.Context, userID string) error {
	pipe := r.client.GetClient().Pipeline()

	// Add to online users set
	pipe.SAdd(ctx, onlineUsersKey, userID)

	// Set user status hash
	now := time.Now().Unix()
	pipe.HSet(ctx, userStatusKey(userID), map[string]interface{}{
		"status":     "online",
		"last_seen":  now,
		"updated_at": now,
	})
	pipe.Persist(ctx, userStatusKey(userID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set user %s online: %w", userID, err)
	}

	r.logger.Debug("User set to online", "userID", userID)
	return nil
}

func (r *RedisService) SetUserOffline(ctx context.Context, userID string) error {
	pipe := r.client.GetClient().Pipeline()

	// Remove from online users set
	pipe.SRem(ctx, onlineUsersKey, userID)

	// Update user status
	now := time.Now().Unix()
	pipe.HSet(ctx, userStatusKey(userID), map[string]interface{}{
		"status":     "offline",
		"last_seen":  now,
		"updated_at": now,
	})

	// Offline status is kept for a day as "last seen"
	pipe.Expire(ctx, userStatusKey(userID), 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set user %s offline: %w", userID, err)
	}

	r.logger.Debug("User set to offline", "userID", userID)
	return nil
}

func (r *RedisService) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	return r.client.GetClient().SIsMember(ctx, onlineUsersKey, userID).Result()
}

func (r *RedisService) GetOnlineUsers(ctx context.Context) ([]string, error) {
	return r.client.GetClient().SMembers(ctx, onlineUsersKey).Result()
}

// GetUserStatus returns the status hash, empty when the user was never seen.
func (r *RedisService) GetUserStatus(ctx context.Context, userID string) (map[string]string, error) {
	return r.client.GetClient().HGetAll(ctx, userStatusKey(userID)).Result()
}

// ResetPresence clears the online set. Called at startup because a previous
// process may have exited without marking its users offline.
func (r *RedisService) ResetPresence(ctx context.Context) error {
	return r.client.GetClient().Del(ctx, onlineUsersKey).Err()
}

// =============================================================================
// Rate Limiting
// =============================================================================

// CheckRateLimit records a hit for key and reports whether it is still within
// limit hits per sliding window.
func (r *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := r.client.GetClient().Pipeline()

	// Remove old entries
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))

	// Count current entries
	count := pipe.ZCard(ctx, key)

	// Add current request
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})

	// Set expiration
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() < int64(limit), nil
}
