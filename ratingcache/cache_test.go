package ratingcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-playground/assert/v2"

	ratehub "github.com/ratehub/ratehub-go"
	"github.com/ratehub/ratehub-go/api"
)

func TestNewRequiresFetch(t *testing.T) {
	_, err := New(nil)
	if !errors.Is(err, ratehub.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSequentialCallsFetchOnce(t *testing.T) {
	var calls int32
	cache, err := New(func(ctx context.Context, id string) ([]api.Rating, error) {
		atomic.AddInt32(&calls, 1)
		return []api.Rating{
			{ID: "r1", StoreID: "s1", Value: ratehub.Rating(5)},
			{ID: "r2", StoreID: "s1", Value: ratehub.Rating(3)},
		}, nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, err := cache.GetOrFetch(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	second, err := cache.GetOrFetch(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 4.0, first.Average())
}

func TestConcurrentCallsShareOneFetch(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	cache, err := New(func(ctx context.Context, id string) ([]api.Rating, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []api.Rating{{ID: "r1", Value: ratehub.Rating(4)}}, nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]*Entry, waiters)
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			entry, err := cache.GetOrFetch(context.Background(), "owner-1")
			if err != nil {
				t.Errorf("GetOrFetch: %v", err)
				return
			}
			results[i] = entry
		}(i)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, entry := range results {
		assert.Equal(t, 1, entry.Count)
	}
}

func TestDistinctKeysFetchSeparately(t *testing.T) {
	var calls int32
	cache, _ := New(func(ctx context.Context, id string) ([]api.Rating, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	if _, err := cache.GetOrFetch(context.Background(), "a"); err != nil {
		t.Fatalf("GetOrFetch a: %v", err)
	}
	if _, err := cache.GetOrFetch(context.Background(), "b"); err != nil {
		t.Fatalf("GetOrFetch b: %v", err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFailedFetchCachesSentinel(t *testing.T) {
	var calls int32
	cache, _ := New(func(ctx context.Context, id string) ([]api.Rating, error) {
		atomic.AddInt32(&calls, 1)
		return nil, &ratehub.FetchError{Status: 500, Message: "boom"}
	})

	entry, err := cache.GetOrFetch(context.Background(), "owner-1")
	if err == nil {
		t.Fatal("expected the fetch error")
	}
	assert.Equal(t, 0, entry.Count)
	assert.Equal(t, 0.0, entry.Average())

	// The sentinel is served from cache; no automatic retry.
	entry, err = cache.GetOrFetch(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("expected the cached sentinel, got %v", err)
	}
	assert.Equal(t, 0, entry.Count)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestForgetAllowsRefetch(t *testing.T) {
	var calls int32
	cache, _ := New(func(ctx context.Context, id string) ([]api.Rating, error) {
		atomic.AddInt32(&calls, 1)
		return []api.Rating{{ID: "r1", Value: ratehub.Rating(2)}}, nil
	})

	if _, err := cache.GetOrFetch(context.Background(), "owner-1"); err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	cache.Forget("owner-1")
	if _, err := cache.GetOrFetch(context.Background(), "owner-1"); err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPeek(t *testing.T) {
	cache, _ := New(func(ctx context.Context, id string) ([]api.Rating, error) {
		return nil, nil
	})

	if _, ok := cache.Peek("owner-1"); ok {
		t.Fatal("expected no entry before fetch")
	}
	if _, err := cache.GetOrFetch(context.Background(), "owner-1"); err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if _, ok := cache.Peek("owner-1"); !ok {
		t.Fatal("expected the completed entry")
	}
}

func TestEntryAverageExcludesMalformed(t *testing.T) {
	entry := &Entry{
		ID: "owner-1",
		Ratings: []api.Rating{
			{ID: "r1", Value: ratehub.RatingValue{}},
			{ID: "r2", Value: ratehub.Rating(4)},
		},
		Count: 2,
	}
	assert.Equal(t, 4.0, entry.Average())
}
