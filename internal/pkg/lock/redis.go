package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock key only when the holder token matches, so an
// expired holder can never release a lock that has since been re-acquired.
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// RedisLock provides per-account locking backed by Redis SET NX, for
// deployments running more than one service instance against the same
// database. Keys expire so a crashed holder cannot deadlock an account.
type RedisLock struct {
	client        *redis.Client
	expiration    time.Duration
	retryInterval time.Duration
	timeout       time.Duration
}

// NewRedisLock creates a RedisLock. Timeout bounds how long WithLock retries
// a contended lock before giving up with ErrLockTimeout.
func NewRedisLock(client *redis.Client, expiration, timeout time.Duration) *RedisLock {
	return &RedisLock{
		client:        client,
		expiration:    expiration,
		retryInterval: 50 * time.Millisecond,
		timeout:       timeout,
	}
}

func lockKey(accountID int64) string {
	return fmt.Sprintf("prive:lock:account:%d", accountID)
}

// WithLock executes fn while holding the account's distributed lock.
func (rl *RedisLock) WithLock(ctx context.Context, accountID int64, fn func() error) error {
	key := lockKey(accountID)
	token := uuid.NewString()

	acquireCtx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	for {
		ok, err := rl.client.SetNX(acquireCtx, key, token, rl.expiration).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire account lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-acquireCtx.Done():
			return ErrLockTimeout
		case <-time.After(rl.retryInterval):
		}
	}

	defer func() {
		// Best effort: the key expires on its own if the release fails.
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer releaseCancel()
		_ = rl.client.Eval(releaseCtx, unlockScript, []string{key}, token).Err()
	}()

	return fn()
}
