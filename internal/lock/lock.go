// Package lock serializes imports of the same translation unit across
// server instances. Core does not lock; callers that need one-at-a-time
// imports per unit take a lock here before calling the service.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/locsheet/internal/core"
)

// DefaultKeyPrefix namespaces lock keys.
const DefaultKeyPrefix = "locsheet:import:"

// Locker grants exclusive import access to a unit. Acquire returns
// core.ErrImportInProgress when another holder has the unit.
type Locker interface {
	Acquire(ctx context.Context, unitID uuid.UUID) (release func(), err error)
}

// Nop grants every request. Used when Redis is not configured.
type Nop struct{}

func (Nop) Acquire(context.Context, uuid.UUID) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another holder is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisLocker implements Locker with SET NX and a TTL.
type RedisLocker struct {
	client   *redis.Client
	ttl      time.Duration
	prefix   string
	newToken func() string
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker wraps an existing client. ttl bounds how long a crashed
// holder can block the unit.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:   client,
		ttl:      ttl,
		prefix:   DefaultKeyPrefix,
		newToken: uuid.NewString,
	}
}

// Connect parses url, checks the connection and returns a locker.
func Connect(ctx context.Context, url string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisLocker(client, ttl), nil
}

func (l *RedisLocker) key(unitID uuid.UUID) string {
	return l.prefix + unitID.String()
}

// Acquire takes the unit's lock or fails immediately if it is held.
func (l *RedisLocker) Acquire(ctx context.Context, unitID uuid.UUID) (func(), error) {
	key := l.key(unitID)
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("unit %s: %w", unitID, core.ErrImportInProgress)
	}

	release := func() {
		// The request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
			slog.Warn("failed to release import lock", "unit_id", unitID.String(), "error", err)
		}
	}
	return release, nil
}

// Close closes the underlying client.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
