// cache — резервная копия учётных записей для входа при недоступном хранилище.
//
// Хранилище остаётся источником истины: кэш читается только когда
// хранилище вернуло ошибку. Запись удаляется, как только хранилище сообщает
// об отсутствии учётной записи; иначе она живёт до истечения TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-attendance/internal/models"
	"github.com/redis/go-redis/v9"
)

// CredentialCache — минимальный контракт кэша учётных записей.
type CredentialCache interface {
	// Get возвращает запись и признак её наличия в кэше.
	Get(ctx context.Context, email string) (*models.User, bool, error)
	// Set сохраняет запись с TTL кэша.
	Set(ctx context.Context, user *models.User) error
	// Delete удаляет запись; отсутствие записи не ошибка.
	Delete(ctx context.Context, email string) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "attendance:cred:".
func NewRedisCache(ctx context.Context, redisURL, prefix string, ttl time.Duration) (CredentialCache, error) {
	const op = "cache.NewRedisCache"

	if prefix == "" {
		prefix = "attendance:cred:"
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("%s: ttl must be positive, got %s", op, ttl)
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &redisCache{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

// key не содержит email в открытом виде: в Redis попадает только хэш.
func (c *redisCache) key(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(email)))
	return c.prefix + hex.EncodeToString(sum[:])
}

// Храним как Redis Hash с полями: id, name, email, ph, ct (unix nano).
func (c *redisCache) Get(ctx context.Context, email string) (*models.User, bool, error) {
	const op = "cache.Get"

	m, err := c.rdb.HGetAll(ctx, c.key(email)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if len(m) == 0 {
		return nil, false, nil
	}

	id, err := uuid.Parse(m["id"])
	if err != nil {
		return nil, false, fmt.Errorf("%s: bad id: %w", op, err)
	}

	ct, err := strconv.ParseInt(m["ct"], 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("%s: bad created_at: %w", op, err)
	}

	if m["email"] == "" || m["ph"] == "" {
		return nil, false, fmt.Errorf("%s: incomplete entry", op)
	}

	return &models.User{
		ID:           id,
		Name:         m["name"],
		Email:        m["email"],
		PasswordHash: m["ph"],
		CreatedAt:    time.Unix(0, ct).UTC(),
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, user *models.User) error {
	const op = "cache.Set"

	kv := map[string]string{
		"id":    user.ID.String(),
		"name":  user.Name,
		"email": user.Email,
		"ph":    user.PasswordHash,
		"ct":    strconv.FormatInt(user.CreatedAt.UnixNano(), 10),
	}

	key := c.key(user.Email)

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, kv)
	pipe.Expire(ctx, key, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *redisCache) Delete(ctx context.Context, email string) error {
	const op = "cache.Delete"

	if err := c.rdb.Del(ctx, c.key(email)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *redisCache) Close() error { return c.rdb.Close() }
