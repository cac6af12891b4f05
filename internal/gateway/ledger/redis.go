package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis is a Ledger shared across gateway instances. SET NX with a TTL gives
// the atomic insert-if-absent the admission contract requires, and key expiry
// replaces the sweep worker entirely.
type Redis struct {
	rdb       *redis.Client
	prefix    string
	retention time.Duration
}

// NewRedis creates a Redis-backed ledger.
func NewRedis(rdb *redis.Client, prefix string, retention time.Duration) *Redis {
	if prefix == "" {
		prefix = "pressgate:nonce:"
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Redis{rdb: rdb, prefix: prefix, retention: retention}
}

func (r *Redis) key(nonce string) string { return r.prefix + nonce }

// TryAdmit implements Ledger. The metadata payload is stored for forensics on
// duplicate detection; only the key existence decides admission.
func (r *Redis) TryAdmit(ctx context.Context, nonce string, meta Metadata, now time.Time) (bool, error) {
	payload, err := json.Marshal(struct {
		Metadata
		FirstSeenAt time.Time `json:"firstSeenAt"`
	}{Metadata: meta, FirstSeenAt: now})
	if err != nil {
		return false, err
	}

	admitted, err := r.rdb.SetNX(ctx, r.key(nonce), payload, r.retention).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return admitted, nil
}

// Ping verifies the Redis connection, for readiness checks.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
