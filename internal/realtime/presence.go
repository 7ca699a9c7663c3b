package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisCommands is the slice of redis the presence tracker issues.
type redisCommands interface {
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	SCard(ctx context.Context, key string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Presence tracks the ephemeral member set of each room in a Redis set,
// keyed by connection so the same user in two tabs counts twice until one
// tab closes. Each member also holds a liveness key with a TTL; members
// whose liveness key has expired are purged on the next resync, which is
// how entries from dropped connections disappear without an explicit leave.
type Presence struct {
	redis redisCommands
	ttl   time.Duration
}

func NewPresence(redisClient *redis.Client, ttl time.Duration) *Presence {
	return &Presence{redis: redisClient, ttl: ttl}
}

func setKey(roomID uuid.UUID) string {
	return "presence:" + roomID.String()
}

func livenessKey(roomID uuid.UUID, member string) string {
	return fmt.Sprintf("presence_live:%s:%s", roomID, member)
}

// Join registers a connection in the room's member set and returns the new
// cardinality.
func (p *Presence) Join(ctx context.Context, roomID uuid.UUID, member string) (int64, error) {
	if err := p.redis.SAdd(ctx, setKey(roomID), member).Err(); err != nil {
		return 0, err
	}
	if err := p.redis.Set(ctx, livenessKey(roomID, member), "1", p.ttl).Err(); err != nil {
		return 0, err
	}
	return p.Count(ctx, roomID)
}

// Leave removes a connection and returns the remaining cardinality.
func (p *Presence) Leave(ctx context.Context, roomID uuid.UUID, member string) (int64, error) {
	p.redis.Del(ctx, livenessKey(roomID, member))
	if err := p.redis.SRem(ctx, setKey(roomID), member).Err(); err != nil {
		return 0, err
	}
	return p.Count(ctx, roomID)
}

// Heartbeat refreshes a connection's liveness key.
func (p *Presence) Heartbeat(ctx context.Context, roomID uuid.UUID, member string) error {
	return p.redis.Expire(ctx, livenessKey(roomID, member), p.ttl).Err()
}

// Count resyncs and returns the room's cardinality. The count is always
// recomputed from the full set, never patched incrementally, so it
// self-corrects after reconnects.
func (p *Presence) Count(ctx context.Context, roomID uuid.UUID) (int64, error) {
	if err := p.purgeStale(ctx, roomID); err != nil {
		return 0, err
	}
	return p.redis.SCard(ctx, setKey(roomID)).Result()
}

func (p *Presence) purgeStale(ctx context.Context, roomID uuid.UUID) error {
	members, err := p.redis.SMembers(ctx, setKey(roomID)).Result()
	if err != nil {
		return err
	}
	for _, member := range members {
		alive, err := p.redis.Exists(ctx, livenessKey(roomID, member)).Result()
		if err != nil {
			return err
		}
		if alive == 0 {
			p.redis.SRem(ctx, setKey(roomID), member)
		}
	}
	return nil
}
