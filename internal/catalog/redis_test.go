package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func setupTestRedis(t *testing.T, baseTTL time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, baseTTL), mr
}

var sampleProducts = []domain.Product{
	{ID: 1, Name: "Oat Milk", Price: 3.2, ImageURL: "https://img/1.png"},
	{ID: 2, Name: "Rye Bread", Price: 4.1, Allergens: "wheat"},
}

func TestRedisCache_GetHit(t *testing.T) {
	cache, mr := setupTestRedis(t, 0)

	data, err := json.Marshal(sampleProducts)
	require.NoError(t, err)
	require.NoError(t, mr.Set(productsKey, string(data)))

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleProducts, got)
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t, 0)

	got, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t, 0)
	require.NoError(t, mr.Set(productsKey, `[{"id":1,`))

	_, err := cache.Get(context.Background())
	require.ErrorContains(t, err, "unmarshal products failed")
}

func TestRedisCache_SetAppliesJitteredTTL(t *testing.T) {
	base := 10 * time.Minute
	cache, mr := setupTestRedis(t, base)

	require.NoError(t, cache.Set(context.Background(), sampleProducts))
	assert.True(t, mr.Exists(productsKey))

	ttl := mr.TTL(productsKey)
	assert.GreaterOrEqual(t, ttl, base)
	assert.LessOrEqual(t, ttl, base+4*time.Minute)

	mr.FastForward(base + 5*time.Minute)
	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t, 0)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, sampleProducts))

	require.NoError(t, cache.Delete(ctx))
	assert.False(t, mr.Exists(productsKey))
	require.NoError(t, cache.Delete(ctx), "deleting a missing key is not an error")
}

func TestRedisCache_ServerDown(t *testing.T) {
	cache, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := cache.Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
