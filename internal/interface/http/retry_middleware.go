package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/survey-dashboard/internal/infra/config"
)

const retryBodyLimit = 1 << 20

var errBodyTooLarge = errors.New("request body exceeds retry limit")

// reloadSuffix marks paths whose side effects must not be repeated.
const reloadSuffix = "/reload"

// retryPolicy replays score queries that fail with a 5xx, typically a
// dataset source that was briefly unreachable during the first load.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
	skip     []string
	sleep    func(time.Duration)
}

func newRetryPolicy(cfg config.RetryConfig) retryPolicy {
	skip := []string{reloadSuffix}
	for _, s := range cfg.Exclude {
		if s = strings.TrimSpace(s); s != "" {
			skip = append(skip, s)
		}
	}
	return retryPolicy{attempts: cfg.MaxAttempts, backoff: cfg.BaseBackoff, skip: skip, sleep: time.Sleep}
}

// applies reports whether a request may be replayed at all.
func (p retryPolicy) applies(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	for _, suffix := range p.skip {
		if strings.HasSuffix(r.URL.Path, suffix) {
			return false
		}
	}
	return true
}

// delay doubles the base backoff for every attempt after the second.
func (p retryPolicy) delay(attempt int) time.Duration {
	if attempt <= 1 || p.backoff <= 0 {
		return 0
	}
	return p.backoff << (attempt - 2)
}

func withRetry(next http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return next
	}
	policy := newRetryPolicy(cfg)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !policy.applies(r) {
			next.ServeHTTP(w, r)
			return
		}
		body, err := bufferBody(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, err.Error(), status)
			return
		}

		for attempt := 1; ; attempt++ {
			if d := policy.delay(attempt); d > 0 {
				policy.sleep(d)
			}
			buf := newBufferedResponse()
			replay := r.Clone(r.Context())
			replay.Body = io.NopCloser(bytes.NewReader(body))
			replay.ContentLength = int64(len(body))

			next.ServeHTTP(buf, replay)
			if buf.status < http.StatusInternalServerError || attempt >= policy.attempts || r.Context().Err() != nil {
				buf.flushTo(w)
				return
			}
			logger.Warn("score request failed, replaying",
				"path", r.URL.Path, "status", buf.status, "attempt", attempt, "request_id", r.Header.Get(requestIDHeader))
		}
	})
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, retryBodyLimit+1))
	if err != nil {
		return nil, err
	}
	if len(data) > retryBodyLimit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

// bufferedResponse holds one attempt's response until it is known to be final.
type bufferedResponse struct {
	header  http.Header
	body    bytes.Buffer
	status  int
	written bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if !b.written {
		b.status, b.written = status, true
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k := range dst {
		dst.Del(k)
	}
	for k, v := range b.header {
		dst[k] = append([]string(nil), v...)
	}
	w.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}
