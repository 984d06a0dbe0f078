package sessionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
)

// RedisStore keeps snapshots as plain string keys with an optional TTL.
// Ticket sequence values come from INCR on a shared counter key.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) (*RedisStore, error) {
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*model.Session, error) {
	data, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, errors.Wrapf(err, "sessionstore: load %s", id)
	}
	return decode(data)
}

func (r *RedisStore) Save(ctx context.Context, s *model.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	return errors.Wrapf(r.client.Set(ctx, r.prefix+s.ID, data, r.ttl).Err(), "sessionstore: save %s", s.ID)
}

// List walks the key space with SCAN, skipping the sequence counter.
func (r *RedisStore) List(ctx context.Context) ([]*model.Session, error) {
	var out []*model.Session
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if key == r.seqKey() {
			continue
		}
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "sessionstore: get %s", key)
		}
		s, err := decode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "sessionstore: key %s", key)
		}
		out = append(out, s)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "sessionstore: scan sessions")
	}
	return out, nil
}

func (r *RedisStore) seqKey() string {
	return r.prefix + "ticket_seq"
}

func (r *RedisStore) NextTicketSequence(ctx context.Context) (int64, error) {
	v, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return 0, errors.Wrap(err, "sessionstore: next ticket sequence")
	}
	return v, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return errors.Wrap(r.client.Ping(ctx).Err(), "sessionstore: ping redis")
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
