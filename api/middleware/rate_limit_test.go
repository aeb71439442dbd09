package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
)

type fakeWindowStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeWindowStore() *fakeWindowStore {
	return &fakeWindowStore{counts: map[string]int64{}}
}

func (f *fakeWindowStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestTenantRateLimitBlocksPerTenant(t *testing.T) {
	store := newFakeWindowStore()
	policy := NewRateLimitPolicy("quotes", time.Minute, 2)
	handler := TenantRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(tenant string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
		req = req.WithContext(WithTenantID(req.Context(), tenant))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := call("tenant-a"); rec.Code != http.StatusOK {
			t.Fatalf("expected success before limit, got %d", rec.Code)
		}
	}
	rec := call("tenant-a")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected code: %s", payload.Error.Code)
	}

	if rec := call("tenant-b"); rec.Code != http.StatusOK {
		t.Fatalf("expected other tenant unaffected, got %d", rec.Code)
	}
}

func TestTenantRateLimitDisabledPassesThrough(t *testing.T) {
	store := newFakeWindowStore()
	handler := TenantRateLimit(NewRateLimitPolicy("quotes", time.Minute, 0), store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithTenantID(req.Context(), "tenant-a"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", rec.Code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("expected store untouched, got %v", store.counts)
	}
}

type failingWindowStore struct{}

func (failingWindowStore) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return false, 0, errors.New("redis: connection refused")
}

func TestTenantRateLimitFailsOpen(t *testing.T) {
	policy := NewRateLimitPolicy("quotes", time.Minute, 1)
	called := false
	handler := TenantRateLimit(policy, failingWindowStore{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
	req = req.WithContext(WithTenantID(req.Context(), "tenant-a"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected request to pass when the window store is down")
	}
}

func TestTenantRateLimitSetsHeaders(t *testing.T) {
	policy := NewRateLimitPolicy("quotes", 90*time.Second, 1)
	handler := TenantRateLimit(policy, newFakeWindowStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
		req = req.WithContext(WithTenantID(req.Context(), "tenant-a"))
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if got := last.Header().Get("Retry-After"); got != "90" {
		t.Fatalf("expected Retry-After 90, got %q", got)
	}
	if got := last.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected no remaining requests, got %q", got)
	}
}
