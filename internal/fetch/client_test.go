package fetch

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// newTestClient builds a client with instant pacing and recorded sleeps.
func newTestClient(t *testing.T) (*Client, *[]time.Duration) {
	t.Helper()
	limiter := NewLimiter(time.Millisecond, 0)
	c, err := NewClient(DefaultConfig(), limiter, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	var slept []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestClientGetSuccess(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		if r.URL.Query().Get("keyword") != "人工智能" {
			t.Errorf("keyword param = %q", r.URL.Query().Get("keyword"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"count":3}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t)
	resp, err := c.Get(context.Background(), srv.URL, url.Values{"keyword": {"人工智能"}}, nil)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}

	var body struct {
		OK    bool `json:"ok"`
		Count int  `json:"count"`
	}
	if err := resp.JSON(&body); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	if !body.OK || body.Count != 3 {
		t.Errorf("decoded body = %+v", body)
	}

	ua, _ := gotUA.Load().(string)
	if ua == "" {
		t.Error("no User-Agent sent")
	}
}

func TestClientBlocksOn401(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := newTestClient(t)
	_, err := c.Get(context.Background(), srv.URL, nil, nil)
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("Get() after 401 = %v, want ErrBlocked", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (no retry on 401)", hits.Load())
	}

	// Subsequent calls short-circuit without a request.
	_, err = c.Get(context.Background(), srv.URL, nil, nil)
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("second Get() = %v, want ErrBlocked", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits after block = %d, want 1", hits.Load())
	}
}

func TestClientBlocksOnRepeated403(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := newTestClient(t)
	_, err := c.Get(context.Background(), srv.URL, nil, nil)
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("Get() = %v, want ErrBlocked after second 403", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 (one retry, then block)", hits.Load())
	}

	host := mustHost(t, srv.URL)
	reason, blocked := c.Limiter().Blocked(host)
	if !blocked || reason != "403 拒绝访问(需要Cookie/签名)" {
		t.Errorf("Blocked() = (%q, %v)", reason, blocked)
	}
}

func TestClient403HonorsRetryAfter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "120")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, slept := newTestClient(t)
	resp, err := c.Get(context.Background(), srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Text() != "ok" {
		t.Errorf("body = %q", resp.Text())
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2", hits.Load())
	}

	// Retry-After of 120s is clamped to the 30s ceiling.
	found := false
	for _, d := range *slept {
		if d == 30*time.Second {
			found = true
		}
	}
	if !found {
		t.Errorf("slept = %v, want a 30s Retry-After wait", *slept)
	}

	host := mustHost(t, srv.URL)
	if got := c.Limiter().Failures(host); got != 0 {
		t.Errorf("Failures after recovery = %d, want 0", got)
	}
}

func TestClient429PenalizesAndExhausts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := newTestClient(t)
	_, err := c.Get(context.Background(), srv.URL, nil, nil)
	if err == nil {
		t.Fatal("Get() succeeded, want retries-exhausted error")
	}
	if errors.Is(err, ErrBlocked) {
		t.Errorf("429 must not block the host: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3", hits.Load())
	}

	// Three penalties of x2 cap at 5.0.
	host := mustHost(t, srv.URL)
	if got := c.Limiter().Penalty(host); got != 5.0 {
		t.Errorf("Penalty = %v, want 5.0", got)
	}
}

func TestClientBlocksOnRepeated412(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusPreconditionFailed)
	}))
	defer srv.Close()

	c, _ := newTestClient(t)
	_, err := c.Get(context.Background(), srv.URL, nil, nil)
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("Get() = %v, want ErrBlocked after second 412", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2", hits.Load())
	}

	// Every 412 penalizes x3 before the failure count is consulted,
	// so the second one hits the cap before the block lands.
	host := mustHost(t, srv.URL)
	if got := c.Limiter().Penalty(host); got != 5.0 {
		t.Errorf("Penalty = %v, want 5.0 (capped)", got)
	}
}

func TestClientTransportErrorExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	c, slept := newTestClient(t)
	_, err := c.Get(context.Background(), srv.URL, nil, nil)
	if err == nil {
		t.Fatal("Get() against a dead server succeeded")
	}
	if errors.Is(err, ErrBlocked) {
		t.Errorf("transport failures must not block the host: %v", err)
	}
	// Back-off between attempts, none after the last.
	if len(*slept) != 2 {
		t.Errorf("back-off sleeps = %d, want 2", len(*slept))
	}

	host := mustHost(t, srv.URL)
	if got := c.Limiter().Failures(host); got != 0 {
		t.Errorf("transport errors must not touch the failure counter, got %d", got)
	}
}

func mustHost(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	return u.Hostname()
}
