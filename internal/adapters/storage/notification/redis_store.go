package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	domain "flightlog/internal/domain/notification"
)

// RedisStore implements Store on Redis so several server instances share one queue.
//
// Layout: a sorted set per visitor holds notification ids scored by expiry
// (unix ms), and each notification body lives under its own key with a TTL
// matching its expiry. Dismissing deletes both.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. prefix namespaces every key.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "flightlog"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) visitorKey(visitorID string) string {
	return s.prefix + ":notify:visitor:" + visitorID
}

func (s *RedisStore) itemKey(id string) string {
	return s.prefix + ":notify:item:" + id
}

type redisItem struct {
	ID        string    `json:"id"`
	VisitorID string    `json:"visitor_id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// queueSave adds the commands that store n to pipe.
func (s *RedisStore) queueSave(ctx context.Context, pipe redis.Pipeliner, n domain.Notification) error {
	ttl := time.Until(n.ExpiresAt)
	if ttl <= 0 || n.Dismissed {
		return nil
	}
	body, err := json.Marshal(redisItem{
		ID: n.ID, VisitorID: n.VisitorID, Severity: string(n.Severity), Message: n.Message,
		CreatedAt: n.CreatedAt, ExpiresAt: n.ExpiresAt,
	})
	if err != nil {
		return err
	}
	vk := s.visitorKey(n.VisitorID)
	pipe.Set(ctx, s.itemKey(n.ID), body, ttl)
	pipe.ZAdd(ctx, vk, redis.Z{Score: float64(n.ExpiresAt.UnixMilli()), Member: n.ID})
	pipe.PExpireAt(ctx, vk, n.ExpiresAt)
	return nil
}

// Save stores n until its expiry. Notifications already expired are dropped.
func (s *RedisStore) Save(ctx context.Context, n domain.Notification) error {
	var qerr error
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		qerr = s.queueSave(ctx, pipe, n)
		return qerr
	})
	if qerr != nil {
		return qerr
	}
	return err
}

// Replace clears the visitor's set and stores n inside one MULTI block.
// Bodies of replaced notifications are left to expire.
func (s *RedisStore) Replace(ctx context.Context, n domain.Notification) error {
	var qerr error
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.visitorKey(n.VisitorID))
		qerr = s.queueSave(ctx, pipe, n)
		return qerr
	})
	if qerr != nil {
		return qerr
	}
	return err
}

// Dismiss removes one notification from the visitor's set, then its body.
// POST: returns domain.ErrNotFound and leaves the body when id is not in the set
func (s *RedisStore) Dismiss(ctx context.Context, visitorID, id string) error {
	removed, err := s.client.ZRem(ctx, s.visitorKey(visitorID), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrNotFound
	}
	return s.client.Del(ctx, s.itemKey(id)).Err()
}

// ListActive reads the visitor's unexpired ids and their bodies, oldest first.
// Expired ids are trimmed from the set on the way.
func (s *RedisStore) ListActive(ctx context.Context, visitorID string, now time.Time) ([]domain.Notification, error) {
	vk := s.visitorKey(visitorID)
	nowMs := now.UnixMilli()
	if err := s.client.ZRemRangeByScore(ctx, vk, "-inf", strconv.FormatInt(nowMs, 10)).Err(); err != nil {
		return nil, fmt.Errorf("trim expired: %w", err)
	}
	ids, err := s.client.ZRangeByScore(ctx, vk, &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(nowMs, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.itemKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.Notification, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var item redisItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		n := domain.Notification{
			ID: item.ID, VisitorID: item.VisitorID, Severity: domain.Severity(item.Severity),
			Message: item.Message, CreatedAt: item.CreatedAt, ExpiresAt: item.ExpiresAt,
		}
		if n.IsActive(now) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PurgeExpired trims expired ids from every visitor set. Bodies expire by TTL.
func (s *RedisStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	cutoff := strconv.FormatInt(now.UnixMilli(), 10)
	removed := 0
	iter := s.client.Scan(ctx, 0, s.prefix+":notify:visitor:*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", cutoff).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return removed, err
		}
		removed += int(n)
	}
	return removed, iter.Err()
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
