// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apiclient

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Fetcher loads the data for a cache key. A nil result with a nil error is a valid
// "no data" answer and is cached like any other.
type Fetcher func(ctx context.Context, key string) (json.RawMessage, error)

type cacheEntry struct {
	data    json.RawMessage
	err     error
	fetched bool
	stale   bool
	loading bool
	// epoch of the most recent load that set loading.
	loadingEpoch uint64
}

// fresh reports whether Query may answer from the entry without fetching.
func (entry *cacheEntry) fresh() bool {
	return entry.fetched && !entry.stale && entry.err == nil
}

/*
QueryCache stores API responses keyed by request path.

Data never goes stale by time: an entry is refetched only after [QueryCache.Invalidate]
or an explicit [QueryCache.Refetch]. Concurrent fetches of one key share a single
request, except that [QueryCache.Refetch] and [QueryCache.Invalidate] start a new
epoch for the key: later loads never join an older fetch, and an older fetch's result
is discarded when it lands. [QueryCache.Clear] drops everything, including results of
fetches still in flight when it was called.

Subscribers are called outside the cache lock with the changed key, or "" after Clear.
*/
type QueryCache struct {
	mu          sync.Mutex
	entries     map[string]*cacheEntry
	fetchers    map[string]Fetcher
	fallback    Fetcher
	generation  uint64
	epochs      map[string]uint64
	group       singleflight.Group
	subscribers map[int]func(key string)
	nextID      int
}

// NewQueryCache creates a cache whose keys are loaded with fallback unless a key has
// its own fetcher registered.
func NewQueryCache(fallback Fetcher) *QueryCache {
	return &QueryCache{
		entries:     map[string]*cacheEntry{},
		fetchers:    map[string]Fetcher{},
		epochs:      map[string]uint64{},
		fallback:    fallback,
		subscribers: map[int]func(string){},
	}
}

// Register sets the fetcher used for key.
func (cache *QueryCache) Register(key string, fetch Fetcher) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.fetchers[key] = fetch
}

// Query returns the cached data for key, fetching it when missing, stale, or failed last time.
func (cache *QueryCache) Query(ctx context.Context, key string) (json.RawMessage, error) {
	cache.mu.Lock()
	if entry, ok := cache.entries[key]; ok && entry.fresh() {
		data := entry.data
		cache.mu.Unlock()
		return data, nil
	}
	cache.mu.Unlock()

	return cache.load(ctx, key, false)
}

// Refetch loads key now. A fetch already in flight for key is superseded, not joined.
func (cache *QueryCache) Refetch(ctx context.Context, key string) (json.RawMessage, error) {
	return cache.load(ctx, key, true)
}

// load runs the fetch for key through the singleflight group, shared only by loads
// of the same epoch. Without force, a flight that finds the entry fresh answers from it.
func (cache *QueryCache) load(ctx context.Context, key string, force bool) (json.RawMessage, error) {
	cache.mu.Lock()
	if force {
		cache.epochs[key]++
	}
	stamp := version{generation: cache.generation, epoch: cache.epochs[key]}
	fetch := cache.fetchers[key]
	if fetch == nil {
		fetch = cache.fallback
	}
	entry := cache.entry(key)
	entry.loading = true
	entry.loadingEpoch = stamp.epoch
	cache.mu.Unlock()
	cache.notify(key)

	flight := key + "#" + strconv.FormatUint(stamp.generation, 10) + "." + strconv.FormatUint(stamp.epoch, 10)
	results := cache.group.DoChan(flight, func() (any, error) {
		if !force {
			if data, ok := cache.freshData(key, stamp); ok {
				cache.markIdle(key, stamp)
				return data, nil
			}
		}
		data, err := fetch(ctx, key)
		cache.store(key, stamp, data, err)
		return data, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		data, _ := result.Val.(json.RawMessage)
		return data, nil
	}
}

// version identifies the cache state a fetch started from.
type version struct {
	generation uint64
	epoch      uint64
}

// current reports whether neither Clear nor a newer epoch of key happened since v. Callers hold mu.
func (cache *QueryCache) current(key string, v version) bool {
	return v.generation == cache.generation && v.epoch == cache.epochs[key]
}

// store records a fetch result unless the cache was cleared or the key superseded
// after the fetch began.
func (cache *QueryCache) store(key string, v version, data json.RawMessage, err error) {
	cache.mu.Lock()
	if !cache.current(key, v) {
		settled := cache.settleSuperseded(key, v)
		cache.mu.Unlock()
		if settled {
			cache.notify(key)
		}
		return
	}

	entry := cache.entry(key)
	entry.loading = false
	entry.fetched = true
	entry.err = err
	if err == nil {
		entry.data = data
		entry.stale = false
	}
	cache.mu.Unlock()

	cache.notify(key)
}

// settleSuperseded clears the loading flag left by a discarded fetch when no newer
// load of key has started since. Callers hold mu.
func (cache *QueryCache) settleSuperseded(key string, v version) bool {
	if v.generation != cache.generation {
		return false
	}
	entry, ok := cache.entries[key]
	if !ok || !entry.loading || entry.loadingEpoch != v.epoch {
		return false
	}
	entry.loading = false
	return true
}

func (cache *QueryCache) freshData(key string, v version) (json.RawMessage, bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	entry, ok := cache.entries[key]
	if !ok || !cache.current(key, v) || !entry.fresh() {
		return nil, false
	}
	return entry.data, true
}

func (cache *QueryCache) markIdle(key string, v version) {
	cache.mu.Lock()
	if entry, ok := cache.entries[key]; ok && cache.current(key, v) {
		entry.loading = false
	}
	cache.mu.Unlock()
	cache.notify(key)
}

// SetData writes data for key as if it had just been fetched.
func (cache *QueryCache) SetData(key string, data json.RawMessage) {
	cache.mu.Lock()
	entry := cache.entry(key)
	entry.data = data
	entry.err = nil
	entry.fetched = true
	entry.stale = false
	cache.mu.Unlock()

	cache.notify(key)
}

// Get returns the cached data for key without fetching. ok is false if key was never loaded.
func (cache *QueryCache) Get(key string) (data json.RawMessage, ok bool) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	entry, exists := cache.entries[key]
	if !exists || !entry.fetched {
		return nil, false
	}
	return entry.data, true
}

// Err returns the error of the last failed fetch of key, if the entry holds one.
func (cache *QueryCache) Err(key string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if entry, ok := cache.entries[key]; ok {
		return entry.err
	}
	return nil
}

// IsLoading reports whether a fetch of key is in flight.
func (cache *QueryCache) IsLoading(key string) bool {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	entry, ok := cache.entries[key]
	return ok && entry.loading
}

// Invalidate marks key stale so the next Query refetches it, discarding any fetch
// of key still in flight. Cached data stays readable.
func (cache *QueryCache) Invalidate(key string) {
	cache.mu.Lock()
	entry, ok := cache.entries[key]
	if ok {
		entry.stale = true
		cache.epochs[key]++
	}
	cache.mu.Unlock()

	if ok {
		cache.notify(key)
	}
}

// Clear drops every entry. Registered fetchers and subscribers are kept.
func (cache *QueryCache) Clear() {
	cache.mu.Lock()
	cache.entries = map[string]*cacheEntry{}
	cache.generation++
	cache.mu.Unlock()

	cache.notify("")
}

// Subscribe registers fn for change notifications and returns its cancel function.
func (cache *QueryCache) Subscribe(fn func(key string)) (unsubscribe func()) {
	cache.mu.Lock()
	id := cache.nextID
	cache.nextID++
	cache.subscribers[id] = fn
	cache.mu.Unlock()

	return func() {
		cache.mu.Lock()
		delete(cache.subscribers, id)
		cache.mu.Unlock()
	}
}

// entry returns the entry for key, creating it. Callers hold mu.
func (cache *QueryCache) entry(key string) *cacheEntry {
	entry, ok := cache.entries[key]
	if !ok {
		entry = &cacheEntry{}
		cache.entries[key] = entry
	}
	return entry
}

func (cache *QueryCache) notify(key string) {
	cache.mu.Lock()
	listeners := make([]func(string), 0, len(cache.subscribers))
	for _, fn := range cache.subscribers {
		listeners = append(listeners, fn)
	}
	cache.mu.Unlock()

	for _, fn := range listeners {
		fn(key)
	}
}
