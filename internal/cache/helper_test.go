package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestGetSetJSONRoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	var missing payload
	found, err := GetJSON(ctx, client, "k", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, client, "k", payload{Name: "a", Count: 2}, time.Minute))

	var got payload
	found, err = GetJSON(ctx, client, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "a", Count: 2}, got)
}

func TestJSONHelpersTolerateNilClient(t *testing.T) {
	ctx := context.Background()

	var got payload
	found, err := GetJSON(ctx, nil, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, SetJSON(ctx, nil, "k", payload{}, time.Minute))
}

func TestCacheAside(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{Name: "fresh", Count: calls}
			return nil
		}
	}

	var first payload
	require.NoError(t, CacheAside(ctx, client, "k", &first, time.Minute, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "fresh", first.Name)

	// Warm cache: fetch is not called again.
	var second payload
	require.NoError(t, CacheAside(ctx, client, "k", &second, time.Minute, fetch(&second)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, second.Count)

	mr.FastForward(2 * time.Minute)
	var third payload
	require.NoError(t, CacheAside(ctx, client, "k", &third, time.Minute, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestCacheAsideSurfacesRedisError(t *testing.T) {
	mr, client := newTestClient(t)
	mr.Close()

	var got payload
	err := CacheAside(context.Background(), client, "k", &got, time.Minute, func() error {
		t.Fatal("fetch should not run when the cache read fails")
		return nil
	})
	assert.Error(t, err)
}
