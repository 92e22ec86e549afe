package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/newsdigest/internal/infra/config"
	"github.com/yanqian/newsdigest/pkg/metrics"
)

var errBodyTooLarge = errors.New("request body exceeds retry limit")

// withRetry replays summarization POSTs answered with 502, 503 or 504, the statuses the
// handlers use for pair-model and storage outages. Summaries are recomputed from the same
// body, so a replay is safe. Backoff doubles from BaseBackoff and stops with the request.
func withRetry(next http.Handler, cfg config.RetryConfig, bodyLimit int64, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return next
	}
	excluded := make(map[string]bool, len(cfg.Exclude))
	for _, path := range cfg.Exclude {
		excluded[path] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || excluded[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		body, err := bufferBody(r, bodyLimit)
		if errors.Is(err, errBodyTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		delay := cfg.BaseBackoff
		for attempt := 1; ; attempt++ {
			resp := newBufferedResponse()
			replay := r.Clone(r.Context())
			replay.Body = io.NopCloser(bytes.NewReader(body))
			replay.ContentLength = int64(len(body))
			next.ServeHTTP(resp, replay)

			if !transientStatus(resp.status) || attempt == cfg.MaxAttempts {
				resp.flushTo(w)
				return
			}
			logger.Warn("transient failure, replaying request", "path", r.URL.Path, "status", resp.status, "attempt", attempt)
			metrics.RecordRetry(r.URL.Path)

			select {
			case <-r.Context().Done():
				resp.flushTo(w)
				return
			case <-time.After(delay):
			}
			delay *= 2
		}
	})
}

func transientStatus(status int) bool {
	return status == http.StatusBadGateway ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusGatewayTimeout
}

func bufferBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

// bufferedResponse holds one attempt's response until it is known to be final.
type bufferedResponse struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *bufferedResponse) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, values := range b.header {
		dst[k] = append([]string(nil), values...)
	}
	w.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}
