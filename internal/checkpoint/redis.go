package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"academy-agent/internal/domain"
)

const redisKeyPrefix = "session:"

// Redis is a Store backed by a shared Redis instance, one JSON value per
// thread with a native expiry matching the retention policy.
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedis wraps an existing client. The connection is pinged once so wiring
// failures surface at startup rather than mid-conversation.
func NewRedis(rdb *goredis.Client, ttl time.Duration) (*Redis, error) {
	if rdb == nil {
		return nil, errors.New("checkpoint: redis client must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("checkpoint: redis ping: %w", err)
	}
	return &Redis{rdb: rdb, ttl: ttl}, nil
}

func (r *Redis) Load(ctx context.Context, threadID string) (domain.Session, bool, error) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+threadID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("checkpoint: redis get: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return domain.Session{}, false, fmt.Errorf("checkpoint: decode session: %w", err)
	}
	return sess, true, nil
}

func (r *Redis) Save(ctx context.Context, sess domain.Session) error {
	if sess.ThreadID == "" {
		return errors.New("checkpoint: thread id must not be empty")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("checkpoint: encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+sess.ThreadID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("checkpoint: redis set: %w", err)
	}
	return nil
}
