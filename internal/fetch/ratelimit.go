// Package fetch provides the rate-limited HTTP client shared by the
// platform crawlers: per-host pacing with adaptive penalties, user-agent
// rotation, retry with exponential back-off, and permanent host blocking
// for hard-fail statuses.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacing defaults, tuned for consumer platforms with risk control.
const (
	DefaultBaseInterval = 2500 * time.Millisecond
	DefaultJitter       = 2 * time.Second

	minPenalty = 1.0
	maxPenalty = 5.0
)

// ErrBlocked marks a host that has been disabled for the rest of the
// process. Callers use errors.Is to tell it apart from transient errors.
var ErrBlocked = errors.New("host blocked")

type hostState struct {
	limiter     *rate.Limiter
	penalty     float64
	failures    int
	blockReason string
}

// Limiter paces requests per host and tracks penalty and block state.
// It is the only state shared between concurrent crawlers; every access
// goes through its mutex.
type Limiter struct {
	mu           sync.Mutex
	hosts        map[string]*hostState
	baseInterval time.Duration
	jitter       time.Duration
	rng          *rand.Rand
}

// NewLimiter creates a Limiter with the given base interval and jitter.
// Non-positive values fall back to the defaults.
func NewLimiter(baseInterval, jitter time.Duration) *Limiter {
	if baseInterval <= 0 {
		baseInterval = DefaultBaseInterval
	}
	if jitter < 0 {
		jitter = DefaultJitter
	}
	return &Limiter{
		hosts:        make(map[string]*hostState),
		baseInterval: baseInterval,
		jitter:       jitter,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// state returns the host entry, creating it at penalty 1.0. Callers must
// hold l.mu.
func (l *Limiter) state(host string) *hostState {
	st, ok := l.hosts[host]
	if !ok {
		st = &hostState{
			limiter: rate.NewLimiter(rate.Every(l.baseInterval), 1),
			penalty: minPenalty,
		}
		l.hosts[host] = st
	}
	return st
}

// interval is the current pacing interval for a penalty factor.
func (l *Limiter) interval(penalty float64) time.Duration {
	return time.Duration(float64(l.baseInterval) * penalty)
}

// Wait blocks until the host may be contacted again: at least
// base_interval × penalty since the previous request, plus a uniform
// jitter when requests arrive faster than the interval. Returns
// ErrBlocked for blocked hosts without sleeping.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	st := l.state(host)
	if st.blockReason != "" {
		reason := st.blockReason
		l.mu.Unlock()
		return fmt.Errorf("%s: %w: %s", host, ErrBlocked, reason)
	}
	lim := st.limiter
	var jitter time.Duration
	if l.jitter > 0 {
		jitter = time.Duration(l.rng.Int63n(int64(l.jitter)))
	}
	l.mu.Unlock()

	res := lim.ReserveN(time.Now(), 1)
	if !res.OK() {
		return lim.Wait(ctx)
	}
	delay := res.Delay()
	if delay > 0 {
		delay += jitter
	}
	if err := sleepContext(ctx, delay); err != nil {
		res.Cancel()
		return err
	}
	return nil
}

// Penalize multiplies the host's penalty factor, capped at maxPenalty,
// and slows its limiter accordingly.
func (l *Limiter) Penalize(host string, factor float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(host)
	st.penalty = st.penalty * factor
	if st.penalty > maxPenalty {
		st.penalty = maxPenalty
	}
	st.limiter.SetLimit(rate.Every(l.interval(st.penalty)))
}

// MarkSuccess resets the failure counter and halves the penalty towards
// its floor after a clean 2xx response.
func (l *Limiter) MarkSuccess(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(host)
	st.failures = 0
	st.penalty = st.penalty * 0.5
	if st.penalty < minPenalty {
		st.penalty = minPenalty
	}
	st.limiter.SetLimit(rate.Every(l.interval(st.penalty)))
}

// MarkFailure bumps and returns the consecutive failure count.
func (l *Limiter) MarkFailure(host string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(host)
	st.failures++
	return st.failures
}

// Block disables the host for the remainder of the process. The first
// recorded reason sticks.
func (l *Limiter) Block(host, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := l.state(host)
	if st.blockReason == "" {
		st.blockReason = reason
	}
}

// Blocked reports whether the host is blocked and why.
func (l *Limiter) Blocked(host string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.hosts[host]
	if !ok || st.blockReason == "" {
		return "", false
	}
	return st.blockReason, true
}

// BlockedHosts returns a copy of all blocked hosts with their reasons.
func (l *Limiter) BlockedHosts() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string)
	for host, st := range l.hosts {
		if st.blockReason != "" {
			out[host] = st.blockReason
		}
	}
	return out
}

// Penalty returns the current penalty factor for the host.
func (l *Limiter) Penalty(host string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.hosts[host]
	if !ok {
		return minPenalty
	}
	return st.penalty
}

// Failures returns the consecutive failure count for the host.
func (l *Limiter) Failures(host string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.hosts[host]
	if !ok {
		return 0
	}
	return st.failures
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
