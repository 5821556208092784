package client

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Presence tracks short-lived client liveness in Redis. A nil Redis client
// disables it: Touch becomes a no-op and Online always reports false, so
// the server runs fine without Redis and the dashboard just loses the
// online badge.
type Presence struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPresence(rdb *redis.Client, ttl time.Duration) *Presence {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Presence{rdb: rdb, ttl: ttl}
}

func presenceKey(clientID string) string {
	return fmt.Sprintf("framelight:client:%s:seen", clientID)
}

// Touch marks the client as recently seen. Failures are logged, never
// propagated; presence is advisory.
func (p *Presence) Touch(ctx context.Context, clientID string) {
	if p.rdb == nil {
		return
	}
	if err := p.rdb.Set(ctx, presenceKey(clientID), time.Now().Unix(), p.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("presence touch failed")
	}
}

// Online reports whether the client has synced within the presence TTL.
func (p *Presence) Online(ctx context.Context, clientID string) bool {
	if p.rdb == nil {
		return false
	}
	n, err := p.rdb.Exists(ctx, presenceKey(clientID)).Result()
	if err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("presence lookup failed")
		return false
	}
	return n > 0
}
