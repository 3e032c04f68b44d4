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

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_MissFetchesAndStores(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	fetches := 0
	var got cachedThing
	err := Aside(ctx, "thing:1", &got, time.Minute, func() error {
		fetches++
		got = cachedThing{ID: 1, Name: "first"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
	assert.True(t, mr.Exists("thing:1"))

	// Second read comes from the cache, fetch is not called again.
	var again cachedThing
	err = Aside(ctx, "thing:1", &again, time.Minute, func() error {
		fetches++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
	assert.Equal(t, got, again)
}

func TestAside_FetchErrorPropagatesAndNothingStored(t *testing.T) {
	mr := withMiniredis(t)

	var dest cachedThing
	err := Aside(context.Background(), "thing:2", &dest, time.Minute, func() error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, mr.Exists("thing:2"))
}

func TestAside_NilClientDegradesToFetch(t *testing.T) {
	SetClient(nil)

	fetches := 0
	var dest cachedThing
	for i := 0; i < 2; i++ {
		err := Aside(context.Background(), "thing:3", &dest, time.Minute, func() error {
			fetches++
			dest = cachedThing{ID: 3}
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, fetches, "without redis every read goes to the fetcher")
}

func TestInvalidate(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey(7), cachedThing{ID: 7}, time.Minute))
	require.True(t, mr.Exists("user:7"))

	InvalidateUser(ctx, 7)
	assert.False(t, mr.Exists("user:7"))

	// Invalidating an absent key is a no-op.
	InvalidatePost(ctx, 99)
}

func TestSetJSONThenGetJSON(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	in := cachedThing{ID: 4, Name: "stored"}
	require.NoError(t, SetJSON(ctx, PostKey(4), in, time.Minute))

	var out cachedThing
	found, err := GetJSON(ctx, PostKey(4), &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	found, err = GetJSON(ctx, PostKey(5), &out)
	require.NoError(t, err)
	assert.False(t, found)
}
