package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/testutil"
)

func TestHTTPResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/30":
			json.NewEncoder(w).Encode(profileDTO{ID: 30, Username: "moderator", Capabilities: []string{"moderator"}})
		case r.URL.Path == "/users" && r.URL.Query().Get("ids") == "10,20":
			json.NewEncoder(w).Encode([]profileDTO{{ID: 10, Username: "seller"}, {ID: 20, Username: "buyer"}})
		case r.URL.Path == "/users/500":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(srv.URL+"/", 100, time.Second)
	ctx := context.Background()

	p, err := resolver.GetUser(ctx, 30)
	require.NoError(t, err)
	assert.True(t, entity.IsModerator(p))

	_, err = resolver.GetUser(ctx, 99)
	assert.ErrorIs(t, err, gateway.ErrProfileNotFound)

	_, err = resolver.GetUser(ctx, 500)
	require.Error(t, err)
	assert.NotErrorIs(t, err, gateway.ErrProfileNotFound)

	batch, err := resolver.GetUsersBatch(ctx, []int64{10, 20})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "buyer", batch[1].Username)
}

func TestHTTPResolver_CancelledContext(t *testing.T) {
	resolver := NewHTTPResolver("http://127.0.0.1:1", 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.GetUser(ctx, 1)
	assert.Error(t, err)
}

func TestSQLResolver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	resolver := NewSQLResolver(sqlx.NewDb(db, "postgres"))
	cols := []string{"id", "username", "display_name", "avatar_url", "capabilities"}

	mock.ExpectQuery("FROM users WHERE id = \\$1").
		WithArgs(int64(30)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(30), "moderator", "Модератор", nil, "{moderator,staff}"))
	p, err := resolver.GetUser(context.Background(), 30)
	require.NoError(t, err)
	assert.True(t, p.Can(entity.CapabilityStaff))
	assert.True(t, entity.IsModerator(p))

	mock.ExpectQuery("FROM users WHERE id = \\$1").
		WithArgs(int64(31)).
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = resolver.GetUser(context.Background(), 31)
	assert.ErrorIs(t, err, gateway.ErrProfileNotFound)

	mock.ExpectQuery("WHERE id = ANY\\(\\$1\\)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(10), "seller", "", nil, "{}"))
	batch, err := resolver.GetUsersBatch(context.Background(), []int64{10, 20})
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Empty(t, batch[0].Capabilities)

	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return redis.NewStringResult("", c.err)
	}
	v, ok := c.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (c *fakeCache) MGet(_ context.Context, keys ...string) *redis.SliceCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return redis.NewSliceResult(nil, c.err)
	}
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		if v, ok := c.data[k]; ok {
			values[i] = v
		}
	}
	return redis.NewSliceResult(values, nil)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return redis.NewStatusResult("", c.err)
	}
	c.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func TestCachedResolver_GetUser(t *testing.T) {
	logger.Discard()
	next := testutil.DefaultProfiles()
	cache := newFakeCache()
	resolver := NewCachedResolver(next, cache, time.Minute)
	ctx := context.Background()

	p, err := resolver.GetUser(ctx, testutil.ModeratorID)
	require.NoError(t, err)
	assert.True(t, entity.IsModerator(p))
	assert.Equal(t, 1, next.Calls)

	p, err = resolver.GetUser(ctx, testutil.ModeratorID)
	require.NoError(t, err)
	assert.True(t, entity.IsModerator(p), "права должны пережить кэширование")
	assert.Equal(t, 1, next.Calls)

	_, err = resolver.GetUser(ctx, 999)
	assert.ErrorIs(t, err, gateway.ErrProfileNotFound)
}

func TestCachedResolver_RedisDownFallsThrough(t *testing.T) {
	logger.Discard()
	next := testutil.DefaultProfiles()
	cache := newFakeCache()
	cache.err = errors.New("connection refused")
	resolver := NewCachedResolver(next, cache, time.Minute)

	p, err := resolver.GetUser(context.Background(), testutil.SellerID)
	require.NoError(t, err)
	assert.Equal(t, "seller", p.Username)

	batch, err := resolver.GetUsersBatch(context.Background(), []int64{testutil.SellerID, testutil.BuyerID})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestCachedResolver_BatchFetchesOnlyMisses(t *testing.T) {
	logger.Discard()
	next := testutil.DefaultProfiles()
	cache := newFakeCache()
	resolver := NewCachedResolver(next, cache, time.Minute)
	ctx := context.Background()

	_, err := resolver.GetUser(ctx, testutil.SellerID)
	require.NoError(t, err)

	batch, err := resolver.GetUsersBatch(ctx, []int64{testutil.SellerID, testutil.BuyerID, 999})
	require.NoError(t, err)
	assert.Len(t, batch, 2)
	assert.Contains(t, cache.data, cacheKey(testutil.BuyerID))
	assert.NotContains(t, cache.data, cacheKey(999))

	callsBefore := next.Calls
	_, err = resolver.GetUsersBatch(ctx, []int64{testutil.SellerID, testutil.BuyerID})
	require.NoError(t, err)
	assert.Equal(t, callsBefore, next.Calls)
}
