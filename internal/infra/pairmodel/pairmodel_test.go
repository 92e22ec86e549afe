package pairmodel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientScoresTasks(t *testing.T) {
	var paths, auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		auth = append(auth, r.Header.Get("Authorization"))
		var req pairRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		p := 0.25
		if req.First == req.Second {
			p = 0.9
		}
		_ = json.NewEncoder(w).Encode(pairResponse{Probability: p})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/", "secret", time.Second)
	require.NoError(t, err)

	p, err := client.Scorer(TaskParaphrase).Probability(context.Background(), "a b", "a b")
	require.NoError(t, err)
	require.InDelta(t, 0.9, p, 1e-12)

	p, err = client.Scorer(TaskSuccession).Probability(context.Background(), "a", "b")
	require.NoError(t, err)
	require.InDelta(t, 0.25, p, 1e-12)
	require.Equal(t, []string{"/paraphrase", "/succession"}, paths)
	require.Equal(t, []string{"Bearer secret", "Bearer secret"}, auth)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("{"))
			},
		},
		{
			name: "out of range",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"probability": 1.5}`))
			},
			target: ErrInvalidProbability,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			client, err := NewClient(srv.URL, "", time.Second)
			require.NoError(t, err)

			_, err = client.Score(context.Background(), TaskParaphrase, "a", "b")
			require.Error(t, err)
			if tt.target != nil {
				require.ErrorIs(t, err, tt.target)
			}
		})
	}

	_, err := NewClient(" ", "", 0)
	require.Error(t, err)
}

func TestCachedMemoizesOrderedPairs(t *testing.T) {
	next := &countingScorer{}
	shared := NewMemoryCache(0)
	cached, err := NewCached(next, TaskSuccession, 16, shared, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		p, err := cached.Probability(ctx, "first", "second")
		require.NoError(t, err)
		require.InDelta(t, 0.5, p, 1e-12)
	}
	require.EqualValues(t, 1, next.calls.Load())

	_, err = cached.Probability(ctx, "second", "first")
	require.NoError(t, err)
	require.EqualValues(t, 2, next.calls.Load())

	// A fresh process-local layer is served by the shared cache.
	other, err := NewCached(next, TaskSuccession, 16, shared, newTestLogger())
	require.NoError(t, err)
	_, err = other.Probability(ctx, "first", "second")
	require.NoError(t, err)
	require.EqualValues(t, 2, next.calls.Load())
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	next := &countingScorer{err: errors.New("unavailable")}
	cached, err := NewCached(next, TaskParaphrase, 0, brokenCache{}, newTestLogger())
	require.NoError(t, err)

	_, err = cached.Probability(context.Background(), "a", "b")
	require.Error(t, err)
	_, err = cached.Probability(context.Background(), "a", "b")
	require.Error(t, err)
	require.EqualValues(t, 2, next.calls.Load())

	next.err = nil
	p, err := cached.Probability(context.Background(), "a", "b")
	require.NoError(t, err)
	require.InDelta(t, 0.5, p, 1e-12)
}

func TestMemoryCacheExpires(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(context.Background(), "k", 0.3))
	p, ok, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 0.3, p, 1e-12)

	now = now.Add(2 * time.Minute)
	_, ok, err = cache.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}

type countingScorer struct {
	calls atomic.Int64
	err   error
}

func (s *countingScorer) Probability(context.Context, string, string) (float64, error) {
	s.calls.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return 0.5, nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (float64, bool, error) {
	return 0, false, errors.New("connection reset")
}

func (brokenCache) Set(context.Context, string, float64) error {
	return errors.New("connection reset")
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
