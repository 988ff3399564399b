package fetch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiterSpacing(t *testing.T) {
	l := NewLimiter(60*time.Millisecond, 0)
	ctx := context.Background()

	if err := l.Wait(ctx, "example.com"); err != nil {
		t.Fatalf("first Wait() error: %v", err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "example.com"); err != nil {
		t.Fatalf("second Wait() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("second Wait() returned after %v, want >= ~60ms spacing", elapsed)
	}
}

func TestLimiterSpacingPerHost(t *testing.T) {
	l := NewLimiter(200*time.Millisecond, 0)
	ctx := context.Background()

	if err := l.Wait(ctx, "a.example.com"); err != nil {
		t.Fatal(err)
	}
	// A different host is not delayed by the first one.
	start := time.Now()
	if err := l.Wait(ctx, "b.example.com"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Wait() for an unrelated host took %v", elapsed)
	}
}

func TestLimiterPenaltyCapAndDecay(t *testing.T) {
	l := NewLimiter(time.Millisecond, 0)

	l.Penalize("h.cn", 2)
	if got := l.Penalty("h.cn"); got != 2.0 {
		t.Errorf("Penalty = %v, want 2.0", got)
	}
	l.Penalize("h.cn", 3)
	if got := l.Penalty("h.cn"); got != 5.0 {
		t.Errorf("Penalty after cap = %v, want 5.0", got)
	}

	// Success halves towards the floor.
	l.MarkSuccess("h.cn")
	if got := l.Penalty("h.cn"); got != 2.5 {
		t.Errorf("Penalty after success = %v, want 2.5", got)
	}
	l.MarkSuccess("h.cn")
	l.MarkSuccess("h.cn")
	if got := l.Penalty("h.cn"); got != 1.0 {
		t.Errorf("Penalty floor = %v, want 1.0", got)
	}
}

func TestLimiterBlock(t *testing.T) {
	l := NewLimiter(time.Millisecond, 0)
	ctx := context.Background()

	l.Block("bad.cn", "401 需要登录认证")
	err := l.Wait(ctx, "bad.cn")
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("Wait() on blocked host = %v, want ErrBlocked", err)
	}

	// The first reason sticks.
	l.Block("bad.cn", "different reason")
	reason, blocked := l.Blocked("bad.cn")
	if !blocked || reason != "401 需要登录认证" {
		t.Errorf("Blocked() = (%q, %v), want original reason", reason, blocked)
	}

	hosts := l.BlockedHosts()
	if len(hosts) != 1 || hosts["bad.cn"] == "" {
		t.Errorf("BlockedHosts() = %v", hosts)
	}
	if _, blocked := l.Blocked("ok.cn"); blocked {
		t.Error("Blocked() reported an unblocked host")
	}
}

func TestLimiterWaitContextCancel(t *testing.T) {
	l := NewLimiter(time.Hour, 0)
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx, "slow.cn"); err != nil {
		t.Fatalf("first Wait() error: %v", err)
	}
	cancel()
	start := time.Now()
	err := l.Wait(ctx, "slow.cn")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() after cancel = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait() did not honor cancellation promptly")
	}
}

func TestLimiterFailureCount(t *testing.T) {
	l := NewLimiter(time.Millisecond, 0)

	if got := l.MarkFailure("f.cn"); got != 1 {
		t.Errorf("first MarkFailure = %d, want 1", got)
	}
	if got := l.MarkFailure("f.cn"); got != 2 {
		t.Errorf("second MarkFailure = %d, want 2", got)
	}
	l.MarkSuccess("f.cn")
	if got := l.Failures("f.cn"); got != 0 {
		t.Errorf("Failures after success = %d, want 0", got)
	}
}

func TestRotatorNeverRepeatsBackToBack(t *testing.T) {
	r := newRotator(newTestRand())
	prev := r.next()
	for i := 0; i < 100; i++ {
		ua := r.next()
		if ua == prev {
			t.Fatalf("rotator repeated %q back-to-back at draw %d", ua, i)
		}
		prev = ua
	}
}

func TestUserAgentPoolSize(t *testing.T) {
	if got := len(UserAgents()); got < 20 {
		t.Errorf("UA pool has %d entries, want >= 20", got)
	}
}
