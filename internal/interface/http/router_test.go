package http

import (
	"bytes"
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

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/summarizer"
	"github.com/yanqian/newsdigest/internal/infra/config"
	"github.com/yanqian/newsdigest/internal/infra/lexicon"
	apperrors "github.com/yanqian/newsdigest/pkg/errors"
)

const groupBody = `{
  "topicId": "D0901A",
  "articles": [{"id": "A1", "date": "1999-09-13", "paragraphs": [[
    {"text": "Floyd grew.", "tokens": [
      {"text": "Floyd", "lower": "floyd", "head": 1, "ws": true},
      {"text": "grew", "lower": "grew", "head": -1},
      {"text": ".", "head": 1, "isPunct": true}
    ]}
  ]]}]
}`

func TestRouter_SummarizeSuccess(t *testing.T) {
	want := summarizer.Summary{ID: "id-1", TopicID: "D0901A", Text: "Floyd grew.", WordCount: 2}
	var received *docgroup.Group
	svc := &stubSummarizer{
		summarizeFn: func(_ context.Context, group *docgroup.Group) (summarizer.Summary, error) {
			received = group
			return want, nil
		},
	}

	recorder := performRequest(http.MethodPost, "/api/v1/summaries", groupBody, newRouterUnderTest(t, svc, nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got summarizer.Summary
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Text, got.Text)
	require.NotNil(t, received)
	require.Equal(t, 1, received.Articles[0].SentenceCount())
}

func TestRouter_SummarizeFillsVectors(t *testing.T) {
	var hasVector bool
	svc := &stubSummarizer{
		summarizeFn: func(_ context.Context, group *docgroup.Group) (summarizer.Summary, error) {
			hasVector = group.Sentences()[0].Tokens[0].HasVector()
			return summarizer.Summary{}, nil
		},
	}
	handler := NewHandler(svc, lexicon.NewHashVectors(4), newTestLogger())
	server := NewRouter(testConfig(), handler)

	recorder := performRequest(http.MethodPost, "/api/v1/summaries", groupBody, server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, hasVector)
}

func TestRouter_SummarizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{name: "malformed json", body: `{"topicId":`, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "missing topic", body: `{"articles": []}`, status: http.StatusBadRequest, code: "invalid_request"},
		{
			name:   "invalid input",
			body:   groupBody,
			err:    apperrors.Wrap(apperrors.CodeInvalidInput, "document group has no articles", nil),
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name:   "model failure",
			body:   groupBody,
			err:    apperrors.Wrap(apperrors.CodeModel, "selection failed", nil),
			status: http.StatusBadGateway,
			code:   "model_error",
		},
		{
			name:   "storage failure",
			body:   groupBody,
			err:    apperrors.Wrap(apperrors.CodeStorage, "save summary", errors.New("connection refused")),
			status: http.StatusServiceUnavailable,
			code:   "storage_unavailable",
		},
		{
			name:   "ranking failure",
			body:   groupBody,
			err:    apperrors.Wrap(apperrors.CodeRanking, "selection failed", nil),
			status: http.StatusInternalServerError,
			code:   "summarize_failed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubSummarizer{
				summarizeFn: func(context.Context, *docgroup.Group) (summarizer.Summary, error) {
					return summarizer.Summary{}, tt.err
				},
			}
			recorder := performRequest(http.MethodPost, "/api/v1/summaries", tt.body, newRouterUnderTest(t, svc, nil))
			require.Equal(t, tt.status, recorder.Code)
			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tt.code, errBody["error"]["code"])
			require.NotEmpty(t, errBody["error"]["message"])
		})
	}
}

func TestRouter_RetriesModelFailures(t *testing.T) {
	var calls atomic.Int32
	svc := &stubSummarizer{
		summarizeFn: func(context.Context, *docgroup.Group) (summarizer.Summary, error) {
			if calls.Add(1) < 3 {
				return summarizer.Summary{}, apperrors.Wrap(apperrors.CodeModel, "pair model unavailable", nil)
			}
			return summarizer.Summary{ID: "ok"}, nil
		},
	}
	server := newRouterUnderTest(t, svc, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
	})

	recorder := performRequest(http.MethodPost, "/api/v1/summaries", groupBody, server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.EqualValues(t, 3, calls.Load())
}

func TestRouter_DoesNotRetryBadRequests(t *testing.T) {
	var calls atomic.Int32
	svc := &stubSummarizer{
		summarizeFn: func(context.Context, *docgroup.Group) (summarizer.Summary, error) {
			calls.Add(1)
			return summarizer.Summary{}, apperrors.Wrap(apperrors.CodeInvalidInput, "empty", nil)
		},
	}
	server := newRouterUnderTest(t, svc, func(cfg *config.Config) {
		cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
	})

	recorder := performRequest(http.MethodPost, "/api/v1/summaries", groupBody, server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.EqualValues(t, 1, calls.Load())
}

func TestRouter_SummarizeBatch(t *testing.T) {
	svc := &stubSummarizer{
		summarizeAllFn: func(_ context.Context, groups []*docgroup.Group) ([]summarizer.Summary, error) {
			out := make([]summarizer.Summary, len(groups))
			for i, g := range groups {
				out[i] = summarizer.Summary{TopicID: g.TopicID}
			}
			return out, nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	recorder := performRequest(http.MethodPost, "/api/v1/summaries/batch", `{"groups": [`+groupBody+`,`+groupBody+`]}`, server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var got batchResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got.Summaries, 2)

	recorder = performRequest(http.MethodPost, "/api/v1/summaries/batch", `{"groups": []}`, server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_GetSummary(t *testing.T) {
	svc := &stubSummarizer{
		getFn: func(_ context.Context, id string) (summarizer.Summary, error) {
			if id == "known" {
				return summarizer.Summary{ID: id}, nil
			}
			return summarizer.Summary{}, apperrors.Wrap(apperrors.CodeNotFound, "summary not found", nil)
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	recorder := performRequest(http.MethodGet, "/api/v1/summaries/known", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = performRequest(http.MethodGet, "/api/v1/summaries/missing", "", server)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, "not_found", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_LatestSummary(t *testing.T) {
	svc := &stubSummarizer{
		latestFn: func(_ context.Context, topicID string) (summarizer.Summary, error) {
			if topicID == "D0901A" {
				return summarizer.Summary{ID: "s-9", TopicID: topicID}, nil
			}
			return summarizer.Summary{}, apperrors.Wrap(apperrors.CodeNotFound, "summary not found", nil)
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	recorder := performRequest(http.MethodGet, "/api/v1/topics/D0901A/summary", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	var got summarizer.Summary
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "s-9", got.ID)

	recorder = performRequest(http.MethodGet, "/api/v1/topics/D404/summary", "", server)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRouter_APIKeys(t *testing.T) {
	server := newRouterUnderTest(t, &stubSummarizer{}, func(cfg *config.Config) {
		cfg.HTTP.APIKeys = []string{"alpha", "beta"}
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic beta", status: http.StatusUnauthorized},
		{name: "unknown key", header: "Bearer gamma", status: http.StatusForbidden},
		{name: "known key", header: "Bearer beta", status: http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/summaries/any", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)
		})
	}

	recorder := performRequest(http.MethodGet, "/healthz", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	server := newRouterUnderTest(t, &stubSummarizer{}, func(cfg *config.Config) {
		cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	require.Equal(t, http.StatusOK, performRequest(http.MethodGet, "/api/v1/summaries/a", "", server).Code)
	recorder := performRequest(http.MethodGet, "/api/v1/summaries/a", "", server)
	require.Equal(t, http.StatusTooManyRequests, recorder.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
	require.Equal(t, "60", recorder.Header().Get("Retry-After"))
}

func TestRouter_Metrics(t *testing.T) {
	server := newRouterUnderTest(t, &stubSummarizer{}, nil)
	recorder := performRequest(http.MethodGet, "/metrics", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestResolveOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    string
	}{
		{name: "no list", origin: "https://a.example", want: "*"},
		{name: "wildcard", origin: "https://a.example", allowed: []string{"*"}, want: "*"},
		{name: "match", origin: "https://b.example", allowed: []string{"https://a.example", "https://b.example"}, want: "https://b.example"},
		{name: "no match", origin: "https://c.example", allowed: []string{"https://a.example"}, want: "https://a.example"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, resolveOrigin(tt.origin, tt.allowed))
		})
	}
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
			MaxBodyBytes: 1 << 20,
		},
	}
}

func newRouterUnderTest(t *testing.T, svc summarizer.Service, mutate func(*config.Config)) *http.Server {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return NewRouter(cfg, NewHandler(svc, nil, newTestLogger()))
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubSummarizer struct {
	summarizeFn    func(ctx context.Context, group *docgroup.Group) (summarizer.Summary, error)
	summarizeAllFn func(ctx context.Context, groups []*docgroup.Group) ([]summarizer.Summary, error)
	getFn          func(ctx context.Context, id string) (summarizer.Summary, error)
	latestFn       func(ctx context.Context, topicID string) (summarizer.Summary, error)
}

func (s *stubSummarizer) Summarize(ctx context.Context, group *docgroup.Group) (summarizer.Summary, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(ctx, group)
	}
	return summarizer.Summary{}, nil
}

func (s *stubSummarizer) SummarizeAll(ctx context.Context, groups []*docgroup.Group) ([]summarizer.Summary, error) {
	if s.summarizeAllFn != nil {
		return s.summarizeAllFn(ctx, groups)
	}
	return make([]summarizer.Summary, len(groups)), nil
}

func (s *stubSummarizer) Get(ctx context.Context, id string) (summarizer.Summary, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return summarizer.Summary{ID: id}, nil
}

func (s *stubSummarizer) Latest(ctx context.Context, topicID string) (summarizer.Summary, error) {
	if s.latestFn != nil {
		return s.latestFn(ctx, topicID)
	}
	return summarizer.Summary{TopicID: topicID}, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestClientLimiter_Refills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newClientLimiter(config.RateLimitConfig{RequestsPerMinute: 2, Burst: 2}, func() time.Time { return now })

	for i := 0; i < 2; i++ {
		ok, _ := limiter.allow("key:a")
		require.True(t, ok)
	}
	ok, wait := limiter.allow("key:a")
	require.False(t, ok)
	require.Equal(t, 30*time.Second, wait)

	ok, _ = limiter.allow("key:b")
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	ok, _ = limiter.allow("key:a")
	require.True(t, ok)
	ok, _ = limiter.allow("key:a")
	require.False(t, ok)
}

func TestClientLimiter_EvictsIdleCallers(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newClientLimiter(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 1}, func() time.Time { return now })

	limiter.allow("key:a")
	now = now.Add(4 * time.Minute)
	limiter.allow("key:b")

	limiter.evictIdle(now.Add(2 * time.Minute))
	require.Len(t, limiter.limiters, 1)
	require.Contains(t, limiter.limiters, "key:b")
}
