package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Presence mirrors the relay's online set into redis so that other
// processes (cron jobs, admin tooling) can answer "is this user reachable"
// without talking to the gateway. A nil *Presence is a no-op mirror.
type Presence struct {
	rdb    *redis.Client
	nodeID string
	ttl    time.Duration
}

// presence key: chat:presence:<user>
// Value: node id; TTL controls the online validity period.
func presenceKey(user string) string { return "chat:presence:" + user }

func NewPresence(c Config, nodeID string, ttl time.Duration) (*Presence, error) {
	rdb := redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Presence{rdb: rdb, nodeID: nodeID, ttl: ttl}, nil
}

// Online sets the user as online and renews the TTL.
func (p *Presence) Online(ctx context.Context, user string) error {
	if p == nil {
		return nil
	}
	return p.rdb.Set(ctx, presenceKey(user), p.nodeID, p.ttl).Err()
}

// Offline actively sets the user offline (deletes the key).
func (p *Presence) Offline(ctx context.Context, user string) error {
	if p == nil {
		return nil
	}
	return p.rdb.Del(ctx, presenceKey(user)).Err()
}

// Lookup checks whether the user is online anywhere.
func (p *Presence) Lookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	if p == nil {
		return "", false, nil
	}
	val, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Close releases the underlying client.
func (p *Presence) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
