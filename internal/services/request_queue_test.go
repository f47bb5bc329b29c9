package services

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
)

// fastConfig returns limits small enough to exercise the queue in tests
func fastConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 100,
		Window:      time.Second,
		MinSpacing:  time.Millisecond,
		MaxRetries:  3,
		BackoffBase: 10 * time.Millisecond,
		HTTPTimeout: 2 * time.Second,
	}
}

func TestRequestQueue_ServesRequestsInOrder(t *testing.T) {
	var mu sync.Mutex
	var served []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		served = append(served, r.URL.Path)
		mu.Unlock()
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	q := NewRequestQueue(fastConfig())
	defer q.Stop()

	var wg sync.WaitGroup
	paths := []string{"/a", "/b", "/c"}
	for _, path := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if _, err := q.Do(server.URL + p); err != nil {
				t.Errorf("request %s failed: %v", p, err)
			}
		}(path)
		// Stagger enqueues so arrival order is deterministic
		time.Sleep(20 * time.Millisecond)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(served) != 3 {
		t.Fatalf("expected 3 served requests, got %d", len(served))
	}
	for i, path := range paths {
		if served[i] != path {
			t.Errorf("position %d: expected %s, got %s", i, path, served[i])
		}
	}
}

func TestRequestQueue_EnforcesMinSpacing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.MinSpacing = 100 * time.Millisecond
	q := NewRequestQueue(cfg)
	defer q.Stop()

	start := time.Now()
	if _, err := q.Do(server.URL); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if _, err := q.Do(server.URL); err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < cfg.MinSpacing {
		t.Errorf("second request dispatched after %v, expected at least %v between requests", elapsed, cfg.MinSpacing)
	}
}

func TestRequestQueue_WaitsWhenWindowIsFull(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.MaxRequests = 2
	cfg.Window = 300 * time.Millisecond
	q := NewRequestQueue(cfg)
	defer q.Stop()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := q.Do(server.URL); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// The third request must wait for the oldest dispatch to leave the window
	if elapsed < cfg.Window {
		t.Errorf("third request completed after %v, expected the window of %v to force a wait", elapsed, cfg.Window)
	}
}

func TestRequestQueue_RetriesServerErrorsWithBackoff(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	q := NewRequestQueue(fastConfig())
	defer q.Stop()

	start := time.Now()
	body, err := q.Do(server.URL)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("expected the request to succeed after retries, got %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", body)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	// Backoff doubles: 10ms after the first failure, 20ms after the second
	if elapsed < 30*time.Millisecond {
		t.Errorf("retries completed in %v, expected backoff waits of at least 30ms", elapsed)
	}
}

func TestRequestQueue_DoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	q := NewRequestQueue(fastConfig())
	defer q.Stop()

	_, err := q.Do(server.URL)
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}

	dfe := models.AsDataFetchError(err)
	if dfe.Code != http.StatusNotFound {
		t.Errorf("expected code 404, got %d", dfe.Code)
	}
	if dfe.Retryable {
		t.Error("a 404 must not be retryable")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}

func TestRequestQueue_RejectsAfterExhaustingRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.MaxRetries = 2
	cfg.BackoffBase = time.Millisecond
	q := NewRequestQueue(cfg)
	defer q.Stop()

	_, err := q.Do(server.URL)
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}

	dfe := models.AsDataFetchError(err)
	if dfe.Code != http.StatusServiceUnavailable {
		t.Errorf("expected code 503, got %d", dfe.Code)
	}
	// Initial attempt plus MaxRetries retries
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestRequestQueue_RetryRunsBeforeLaterRequests(t *testing.T) {
	var mu sync.Mutex
	var hits []string
	var failedOnce atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/first" && failedOnce.CompareAndSwap(false, true) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.BackoffBase = 50 * time.Millisecond
	q := NewRequestQueue(cfg)
	defer q.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := q.Do(server.URL + "/first"); err != nil {
			t.Errorf("first request failed: %v", err)
		}
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		defer wg.Done()
		if _, err := q.Do(server.URL + "/second"); err != nil {
			t.Errorf("second request failed: %v", err)
		}
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	expected := []string{"/first", "/first", "/second"}
	if len(hits) != len(expected) {
		t.Fatalf("expected %d hits, got %d: %v", len(expected), len(hits), hits)
	}
	for i := range expected {
		if hits[i] != expected[i] {
			t.Fatalf("the retried request must complete before later arrivals, got order %v", hits)
		}
	}
}

func TestRequestQueue_HonorsRetryAfterHeader(t *testing.T) {
	var failedOnce atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failedOnce.CompareAndSwap(false, true) {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	q := NewRequestQueue(fastConfig())
	defer q.Stop()

	start := time.Now()
	if _, err := q.Do(server.URL); err != nil {
		t.Fatalf("expected the request to succeed after the rate limit wait, got %v", err)
	}
	elapsed := time.Since(start)

	// Retry-After is a floor over the computed backoff
	if elapsed < time.Second {
		t.Errorf("retry dispatched after %v, expected Retry-After of 1s to be honored", elapsed)
	}
}

func TestRequestQueue_StopRejectsNewRequests(t *testing.T) {
	q := NewRequestQueue(fastConfig())
	q.Stop()

	_, err := q.Do("http://localhost:0/never")
	if err == nil {
		t.Fatal("expected a stopped queue to reject requests")
	}
	dfe := models.AsDataFetchError(err)
	if dfe.Kind != models.ErrorKindValidation {
		t.Errorf("expected a validation error, got kind %s", dfe.Kind)
	}
}

func TestRequestQueue_RateLimitStatusTracksWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	cfg := fastConfig()
	cfg.MaxRequests = 5
	q := NewRequestQueue(cfg)
	defer q.Stop()

	status := q.RateLimitStatus()
	if status.Remaining != 5 {
		t.Fatalf("expected 5 remaining before any request, got %d", status.Remaining)
	}

	if _, err := q.Do(server.URL); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	status = q.RateLimitStatus()
	if status.Remaining != 4 {
		t.Errorf("expected 4 remaining after one request, got %d", status.Remaining)
	}
	if status.ResetTime.Before(time.Now()) {
		t.Error("reset time must be in the future while the window holds a request")
	}
}
