package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/logger"
)

const keyPrefix = "profile:"

// cacheClient подмножество *redis.Client, которое нужно кэшу.
type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedResolver кэширует профили в Redis. Ошибки Redis не считаются ошибками
// справочника: запрос просто уходит в нижний резолвер.
type CachedResolver struct {
	next   gateway.ProfileResolver
	client cacheClient
	ttl    time.Duration
}

func NewCachedResolver(next gateway.ProfileResolver, client cacheClient, ttl time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedResolver{next: next, client: client, ttl: ttl}
}

// NewRedisClient подключается к Redis по URL вида redis://host:6379/0.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

var _ gateway.ProfileResolver = (*CachedResolver)(nil)

func cacheKey(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

func (r *CachedResolver) GetUser(ctx context.Context, id int64) (*entity.Profile, error) {
	raw, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		if p, ok := decodeProfile(raw); ok {
			return p, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.Log.WithFields(logrus.Fields{"user_id": id, "error": err.Error()}).Warn("кэш профилей недоступен")
	}

	p, err := r.next.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, p)
	return p, nil
}

func (r *CachedResolver) GetUsersBatch(ctx context.Context, ids []int64) ([]*entity.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}

	profiles := make([]*entity.Profile, 0, len(ids))
	missing := ids
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"ids": ids, "error": err.Error()}).Warn("кэш профилей недоступен")
	} else {
		missing = make([]int64, 0, len(ids))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			p, ok := decodeProfile([]byte(s))
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			profiles = append(profiles, p)
		}
	}

	if len(missing) == 0 {
		return profiles, nil
	}
	fetched, err := r.next.GetUsersBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, p := range fetched {
		r.store(ctx, p)
	}
	return append(profiles, fetched...), nil
}

func (r *CachedResolver) store(ctx context.Context, p *entity.Profile) {
	if p == nil {
		return
	}
	raw, err := json.Marshal(fromEntity(p))
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, cacheKey(p.ID), raw, r.ttl).Err(); err != nil {
		logger.Log.WithFields(logrus.Fields{"user_id": p.ID, "error": err.Error()}).Warn("не удалось записать профиль в кэш")
	}
}

func decodeProfile(raw []byte) (*entity.Profile, bool) {
	var dto profileDTO
	if err := json.Unmarshal(raw, &dto); err != nil || dto.ID == 0 {
		return nil, false
	}
	return dto.toEntity(), true
}
