package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived exclusive keys
type Locker struct {
	rdb redis.Cmdable
	log logrus.FieldLogger
}

// NewLocker creates a locker on rdb
func NewLocker(rdb redis.Cmdable, log logrus.FieldLogger) *Locker {
	return &Locker{
		rdb: rdb,
		log: log.WithField("component", "redis_lock"),
	}
}

// Acquire sets key if absent. ok is false when the key is already held.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.WithError(err).WithField("key", key).Warn("Failed to release lock")
		}
	}
	return release, true, nil
}
