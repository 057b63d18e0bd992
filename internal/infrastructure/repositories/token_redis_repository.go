package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/threadlinehq/accounts-service/internal/core/ports"
)

const (
	tokenPrefix = "accounts_tokens"
)

// TokenRedisRepository provides Redis-based storage for refresh tokens and
// the access-token blacklist.
type TokenRedisRepository struct {
	client redis.Cmdable
	logger *logrus.Logger
}

// NewTokenRedisRepository creates a new Redis token repository
func NewTokenRedisRepository(client redis.Cmdable, logger *logrus.Logger) ports.TokenRepository {
	return &TokenRedisRepository{client: client, logger: logger}
}

// hashToken derives the storage key for a raw token. Raw tokens never touch
// Redis.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// StoreRefreshToken stores a refresh token with TTL
func (r *TokenRedisRepository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token already expired")
	}

	tokenHash := hashToken(token)
	stored := &ports.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh token: %w", err)
	}

	key := fmt.Sprintf("%s:refresh:%s", tokenPrefix, tokenHash)
	if err = r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token in Redis: %w", err)
	}

	userKey := fmt.Sprintf("%s:user:%s:tokens", tokenPrefix, userID)
	if err = r.client.SAdd(ctx, userKey, tokenHash).Err(); err != nil {
		return fmt.Errorf("failed to add token to user mapping: %w", err)
	}
	_ = r.client.Expire(ctx, userKey, ttl+time.Hour)

	return nil
}

// GetRefreshToken retrieves a stored refresh token by its raw value
func (r *TokenRedisRepository) GetRefreshToken(ctx context.Context, token string) (*ports.RefreshToken, error) {
	key := fmt.Sprintf("%s:refresh:%s", tokenPrefix, hashToken(token))
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("refresh token not found or expired")
		}
		return nil, fmt.Errorf("failed to get refresh token from Redis: %w", err)
	}

	var stored ports.RefreshToken
	if err = json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal refresh token: %w", err)
	}
	return &stored, nil
}

// DeleteRefreshToken removes a refresh token
func (r *TokenRedisRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	tokenHash := hashToken(token)
	key := fmt.Sprintf("%s:refresh:%s", tokenPrefix, tokenHash)

	stored, err := r.GetRefreshToken(ctx, token)
	if err != nil {
		// Absent tokens are treated as already deleted.
		return nil
	}

	if err = r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	userKey := fmt.Sprintf("%s:user:%s:tokens", tokenPrefix, stored.UserID)
	if err = r.client.SRem(ctx, userKey, tokenHash).Err(); err != nil && r.logger != nil {
		r.logger.WithFields(logrus.Fields{"user_key": userKey}).WithError(err).Warn("failed to remove token from user mapping")
	}

	return nil
}

// DeleteUserTokens removes all refresh tokens for a user. Used when an
// account is deactivated so stale sessions cannot be refreshed.
func (r *TokenRedisRepository) DeleteUserTokens(ctx context.Context, userID uuid.UUID) error {
	userKey := fmt.Sprintf("%s:user:%s:tokens", tokenPrefix, userID)
	tokenHashes, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get user token hashes: %w", err)
	}

	for _, th := range tokenHashes {
		if err := r.client.Del(ctx, fmt.Sprintf("%s:refresh:%s", tokenPrefix, th)).Err(); err != nil && r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).Warn("failed to delete refresh token")
		}
	}

	if err = r.client.Del(ctx, userKey).Err(); err != nil {
		return fmt.Errorf("failed to delete user tokens set: %w", err)
	}
	return nil
}

// IsTokenBlacklisted checks whether an access token has been revoked
func (r *TokenRedisRepository) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("%s:blacklist:%s", tokenPrefix, hashToken(token))
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken marks an access token as revoked until its natural expiry
func (r *TokenRedisRepository) BlacklistToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; nothing to blacklist.
		return nil
	}

	key := fmt.Sprintf("%s:blacklist:%s", tokenPrefix, hashToken(token))
	if err := r.client.Set(ctx, key, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}
