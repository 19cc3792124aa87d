// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/pkg/apiclient"
)

// countingFetcher answers with the call number and can be held open with gate.
type countingFetcher struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (fetcher *countingFetcher) fetch(ctx context.Context, key string) (json.RawMessage, error) {
	n := fetcher.calls.Add(1)
	if fetcher.gate != nil {
		select {
		case <-fetcher.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fetcher.err != nil {
		return nil, fetcher.err
	}
	return json.RawMessage(`{"call":` + string(rune('0'+n)) + `}`), nil
}

/*
TestQueryCache_Dedupe verifies concurrent queries for one key share a fetch.
*/
func TestQueryCache_Dedupe(t *testing.T) {
	fetcher := &countingFetcher{gate: make(chan struct{})}
	cache := apiclient.NewQueryCache(fetcher.fetch)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := cache.Query(context.Background(), "/api/reports/summary")
			assert.NoError(t, err)
			results[i] = string(data)
		}(i)
	}

	require.Eventually(t, func() bool { return cache.IsLoading("/api/reports/summary") }, time.Second, time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, result := range results {
		assert.Equal(t, `{"call":1}`, result)
	}
	assert.False(t, cache.IsLoading("/api/reports/summary"))
}

/*
TestQueryCache_Staleness verifies data is reused until invalidated or refetched.
*/
func TestQueryCache_Staleness(t *testing.T) {
	fetcher := &countingFetcher{}
	cache := apiclient.NewQueryCache(fetcher.fetch)
	ctx := context.Background()
	key := "/api/users"

	_, ok := cache.Get(key)
	assert.False(t, ok)

	first, err := cache.Query(ctx, key)
	require.NoError(t, err)
	again, err := cache.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	cache.Invalidate(key)
	data, ok := cache.Get(key)
	assert.True(t, ok, "invalidated data stays readable")
	assert.Equal(t, first, data)

	second, err := cache.Query(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"call":2}`, string(second))

	third, err := cache.Refetch(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"call":3}`, string(third))
}

/*
TestQueryCache_Errors verifies failures are reported and retried on the next query.
*/
func TestQueryCache_Errors(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("network down")}
	cache := apiclient.NewQueryCache(fetcher.fetch)
	ctx := context.Background()

	_, err := cache.Query(ctx, "/api/users")
	require.EqualError(t, err, "network down")
	assert.EqualError(t, cache.Err("/api/users"), "network down")

	fetcher.err = nil
	data, err := cache.Query(ctx, "/api/users")
	require.NoError(t, err)
	assert.Equal(t, `{"call":2}`, string(data))
	assert.NoError(t, cache.Err("/api/users"))
}

/*
TestQueryCache_ClearDropsInFlight verifies a result arriving after Clear is not stored.
*/
func TestQueryCache_ClearDropsInFlight(t *testing.T) {
	fetcher := &countingFetcher{gate: make(chan struct{})}
	cache := apiclient.NewQueryCache(fetcher.fetch)
	key := "/api/auth/me"

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Query(context.Background(), key)
	}()

	require.Eventually(t, func() bool { return cache.IsLoading(key) }, time.Second, time.Millisecond)
	cache.Clear()
	close(fetcher.gate)
	<-done

	_, ok := cache.Get(key)
	assert.False(t, ok)
}

// firstCallHeld returns a fetcher whose first call answers "old" once gate closes;
// later calls answer "new" at once.
func firstCallHeld(gate <-chan struct{}, calls *atomic.Int32) apiclient.Fetcher {
	return func(ctx context.Context, key string) (json.RawMessage, error) {
		if calls.Add(1) == 1 {
			<-gate
			return json.RawMessage(`"old"`), nil
		}
		return json.RawMessage(`"new"`), nil
	}
}

/*
TestQueryCache_RefetchSupersedesInFlight verifies Refetch starts its own fetch and a
late older result is discarded.
*/
func TestQueryCache_RefetchSupersedesInFlight(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	cache := apiclient.NewQueryCache(firstCallHeld(gate, &calls))
	key := "/api/auth/me"

	older := make(chan string, 1)
	go func() {
		data, _ := cache.Query(context.Background(), key)
		older <- string(data)
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	data, err := cache.Refetch(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, `"new"`, string(data))
	assert.False(t, cache.IsLoading(key))

	close(gate)
	assert.Equal(t, `"old"`, <-older)

	cached, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, `"new"`, string(cached))
}

/*
TestQueryCache_InvalidateDiscardsInFlight verifies a fetch started before Invalidate
is not stored and does not leave the key loading.
*/
func TestQueryCache_InvalidateDiscardsInFlight(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	cache := apiclient.NewQueryCache(firstCallHeld(gate, &calls))
	key := "/api/users"

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Query(context.Background(), key)
	}()
	require.Eventually(t, func() bool { return cache.IsLoading(key) }, time.Second, time.Millisecond)

	cache.Invalidate(key)
	close(gate)
	<-done

	_, ok := cache.Get(key)
	assert.False(t, ok)
	assert.False(t, cache.IsLoading(key))

	data, err := cache.Query(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, `"new"`, string(data))
}

/*
TestQueryCache_RegisteredFetcher verifies per-key fetchers win over the fallback.
*/
func TestQueryCache_RegisteredFetcher(t *testing.T) {
	fallback := &countingFetcher{}
	cache := apiclient.NewQueryCache(fallback.fetch)
	cache.Register("/api/auth/me", func(context.Context, string) (json.RawMessage, error) {
		return nil, nil
	})

	data, err := cache.Query(context.Background(), "/api/auth/me")
	require.NoError(t, err)
	assert.Nil(t, data)

	_, ok := cache.Get("/api/auth/me")
	assert.True(t, ok, "a nil answer is cached")
	assert.Equal(t, int32(0), fallback.calls.Load())
}

/*
TestQueryCache_Subscribe verifies notifications carry the key and stop on unsubscribe.
*/
func TestQueryCache_Subscribe(t *testing.T) {
	cache := apiclient.NewQueryCache((&countingFetcher{}).fetch)

	var keys []string
	unsubscribe := cache.Subscribe(func(key string) { keys = append(keys, key) })

	cache.SetData("/api/users", json.RawMessage(`[]`))
	cache.Invalidate("/api/users")
	cache.Invalidate("/api/unknown")
	cache.Clear()
	unsubscribe()
	cache.SetData("/api/users", json.RawMessage(`[]`))

	assert.Equal(t, []string{"/api/users", "/api/users", ""}, keys)
}

/*
TestQueryCache_ContextCancel verifies a waiting caller can give up.
*/
func TestQueryCache_ContextCancel(t *testing.T) {
	fetcher := &countingFetcher{gate: make(chan struct{})}
	defer close(fetcher.gate)
	cache := apiclient.NewQueryCache(fetcher.fetch)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := cache.Query(ctx, "/api/slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// # Token stores

/*
TestFileTokenStore verifies persistence, file permissions and idempotent clear.
*/
func TestFileTokenStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "portal")
	store := apiclient.NewFileTokenStore(dir)

	assert.Equal(t, "", store.Get())
	require.NoError(t, store.Set("tok-1"))
	assert.Equal(t, "tok-1", store.Get())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, filepath.Join(dir, apiclient.TokenFileName), store.Path())

	reopened := apiclient.NewFileTokenStore(dir)
	assert.Equal(t, "tok-1", reopened.Get())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	assert.Equal(t, "", reopened.Get())
}

func TestMemoryTokenStore(t *testing.T) {
	store := apiclient.NewMemoryTokenStore()
	require.NoError(t, store.Set("tok-1"))
	assert.Equal(t, "tok-1", store.Get())
	require.NoError(t, store.Clear())
	assert.Equal(t, "", store.Get())
}
