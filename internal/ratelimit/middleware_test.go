package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type errLimiter struct{}

func (errLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("backend down")
}
func (errLimiter) Close() error { return nil }

func limitedHandler(l Limiter, key KeyFunc) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return Middleware(l, key, nil, logger)(next)
}

func TestMiddlewareDeniesAfterBurst(t *testing.T) {
	m := NewMemoryLimiter(0.001, 2)
	defer func() { _ = m.Close() }()

	h := limitedHandler(m, func(*http.Request) string { return "op:alice" })

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/changes", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/changes", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on 429")
	}
}

func TestMiddlewareEmptyKeySkips(t *testing.T) {
	m := NewMemoryLimiter(0.001, 1)
	defer func() { _ = m.Close() }()

	h := limitedHandler(m, func(*http.Request) string { return "" })

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected skip, got %d", i, rec.Code)
		}
	}
}

func TestMiddlewareFailsOpenOnLimiterError(t *testing.T) {
	h := limitedHandler(errLimiter{}, func(*http.Request) string { return "op:alice" })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/changes", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected fail-open 204, got %d", rec.Code)
	}
}

func TestIPKeyFunc(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:44321"
	if got := IPKeyFunc(r); got != "10.1.2.3" {
		t.Fatalf("expected 10.1.2.3, got %s", got)
	}
}
