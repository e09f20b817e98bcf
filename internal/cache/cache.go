// cache - негативный кэш ротированных refresh-токенов в Redis.
//
// После успешной ротации хэш старого токена помечается отозванным на остаток
// его срока жизни. Повторное предъявление такого токена отбивается без
// обращения к БД. Источник истины - БД: промах кэша или его недоступность
// не меняют результат проверки, только её стоимость.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RefreshCache - минимальный контракт кэша отозванных refresh-токенов.
type RefreshCache interface {
	// Revoked сообщает, помечен ли хэш отозванным.
	Revoked(ctx context.Context, hash string) (bool, error)
	// MarkRevoked помечает хэш отозванным на ttl. ttl <= 0 - no-op.
	MarkRevoked(ctx context.Context, hash string, userID uuid.UUID, ttl time.Duration) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой - используется "gearguard:rt:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (RefreshCache, error) {
	if prefix == "" {
		prefix = "gearguard:rt:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(hash string) string { return c.prefix + hash }

func (c *redisCache) Revoked(ctx context.Context, hash string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(hash)).Result()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// Храним как Redis Hash с полями: uid, rev_at (unix); TTL = остаток жизни токена.
func (c *redisCache) MarkRevoked(ctx context.Context, hash string, userID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	kv := map[string]string{
		"uid":    userID.String(),
		"rev_at": strconv.FormatInt(time.Now().Unix(), 10),
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(hash), kv)
	pipe.Expire(ctx, c.key(hash), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) Close() error { return c.rdb.Close() }
