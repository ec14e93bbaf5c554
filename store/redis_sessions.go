package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lostfound-bot/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisSessions keeps sessions as JSON values under prefix+sender. The key
// TTL is a backstop only; expiry is decided by the session sweep.
// Values that no longer decode are treated as absent.
type RedisSessions struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewRedisSessions(client *redis.Client, prefix string, ttl time.Duration, log logrus.FieldLogger) *RedisSessions {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisSessions{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (r *RedisSessions) key(sender string) string {
	return r.prefix + sender
}

func (r *RedisSessions) GetSession(ctx context.Context, sender string) (*models.SessionRecord, error) {
	data, err := r.client.Get(ctx, r.key(sender)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var record models.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		r.log.WithField("key", r.key(sender)).WithError(err).Warn("skipping unreadable session")
		return nil, ErrNotFound
	}
	return &record, nil
}

func (r *RedisSessions) PutSession(ctx context.Context, record *models.SessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(record.Sender), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *RedisSessions) DeleteSession(ctx context.Context, sender string) error {
	if err := r.client.Del(ctx, r.key(sender)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (r *RedisSessions) ListSessions(ctx context.Context) ([]models.SessionRecord, error) {
	records := []models.SessionRecord{}
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			// expired between SCAN and GET
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis get session: %w", err)
		}
		var record models.SessionRecord
		if err := json.Unmarshal(data, &record); err != nil {
			r.log.WithField("key", iter.Val()).WithError(err).Warn("skipping unreadable session")
			continue
		}
		records = append(records, record)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan sessions: %w", err)
	}
	return records, nil
}
