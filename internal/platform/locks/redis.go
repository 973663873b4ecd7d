package locks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"laurel/internal/sentinel"
)

// releaseScript deletes the lock key only if it still holds our token,
// so a lock that expired and was re-acquired elsewhere is never released
// by the original holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisGuard is a Guard backed by Redis SET NX with a TTL, for deployments
// running more than one instance. The TTL bounds how long a crashed holder
// can keep a key locked.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisGuard creates a guard using the given client.
// Keys are namespaced under prefix; ttl is the lock auto-expiry.
func NewRedisGuard(client *redis.Client, prefix string, ttl time.Duration) *RedisGuard {
	if prefix == "" {
		prefix = "laurel:lock:"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisGuard{client: client, prefix: prefix, ttl: ttl}
}

// Acquire takes the lock for key via SET NX, failing fast when held.
func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	fullKey := g.prefix + key

	ok, err := g.client.SetNX(ctx, fullKey, token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sentinel.ErrLocked
	}

	release := func() {
		// Release is best-effort: the TTL reclaims the key if this fails.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, g.client, []string{fullKey}, token).Err()
	}
	return release, nil
}
