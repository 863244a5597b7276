package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const guardKeyPrefix = "mutation:"

// ErrBusy is returned by Acquire while another mutation holds the lock.
var ErrBusy = errors.New("another change is still being saved")

// releaseScript deletes the lock only if it still carries our token, so a
// lock that expired and was taken over is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// MutationGuard allows one in-flight admin mutation per owner (the admin
// session). A second submission while the first is running is rejected.
type MutationGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMutationGuard creates a guard whose locks expire after ttl even if the
// holder never releases them.
func NewMutationGuard(client *redis.Client, ttl time.Duration) *MutationGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &MutationGuard{client: client, ttl: ttl}
}

// Acquire takes the lock for owner. The returned function releases it.
func (g *MutationGuard) Acquire(ctx context.Context, owner string) (func(), error) {
	key := guardKeyPrefix + owner
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire mutation lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}

	return func() {
		// Release even if the request context was cancelled.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		releaseScript.Run(rctx, g.client, []string{key}, token)
	}, nil
}
