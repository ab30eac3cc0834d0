// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	stdctx "context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/libria/internal/platform/apperr"
	"github.com/taibuivan/libria/internal/platform/constants"
)

// # Reset Token Repository (Redis)

// RedisResetTokenRepository implements [ResetTokenRepository] on Redis.
// TTL enforcement is delegated to Redis key expiry, so no sweeping is needed.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewRedisResetTokenRepository constructs the repository.
func NewRedisResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

// Save implements [ResetTokenRepository].
func (repo *RedisResetTokenRepository) Save(context stdctx.Context, tokenHash string, userID string, ttl time.Duration) error {
	key := constants.RedisPrefixResetToken + tokenHash
	if err := repo.client.Set(context, key, userID, ttl).Err(); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Consume implements [ResetTokenRepository]. GETDEL makes retrieval and
// invalidation atomic, so a token can never be redeemed twice.
func (repo *RedisResetTokenRepository) Consume(context stdctx.Context, tokenHash string) (string, error) {
	key := constants.RedisPrefixResetToken + tokenHash
	userID, err := repo.client.GetDel(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", apperr.Internal(err)
	}
	return userID, nil
}

// # Verification Token Repository (Redis)

// RedisVerificationTokenRepository implements [VerificationTokenRepository] on Redis.
type RedisVerificationTokenRepository struct {
	client *redis.Client
}

// NewRedisVerificationTokenRepository constructs the repository.
func NewRedisVerificationTokenRepository(client *redis.Client) *RedisVerificationTokenRepository {
	return &RedisVerificationTokenRepository{client: client}
}

// Save implements [VerificationTokenRepository].
func (repo *RedisVerificationTokenRepository) Save(context stdctx.Context, tokenHash string, userID string, ttl time.Duration) error {
	key := constants.RedisPrefixVerifyToken + tokenHash
	if err := repo.client.Set(context, key, userID, ttl).Err(); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Consume implements [VerificationTokenRepository].
func (repo *RedisVerificationTokenRepository) Consume(context stdctx.Context, tokenHash string) (string, error) {
	key := constants.RedisPrefixVerifyToken + tokenHash
	userID, err := repo.client.GetDel(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", apperr.Internal(err)
	}
	return userID, nil
}
