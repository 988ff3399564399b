package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Response body reads are capped; the crawled pages are small and a
// runaway stream must not exhaust memory.
const maxBodyBytes = 10 << 20

// Default headers sent with every request. Accept-Encoding is left to the
// transport so gzip decoding stays transparent.
var defaultHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
	"Connection":      "keep-alive",
	"Cache-Control":   "no-cache",
}

// Config holds client construction parameters.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	ProxyURL   string
	// Headers are client-level defaults layered over the built-in ones,
	// e.g. a platform-specific Referer.
	Headers map[string]string
}

// DefaultConfig returns the standard crawler client configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    15 * time.Second,
		MaxRetries: 3,
	}
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the response body into v.
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Client is a crawling HTTP client: per-host pacing through the shared
// Limiter, UA rotation, cookie jar, and the status-code retry ladder.
// A Client serves one crawler goroutine; the Limiter is the shared part.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *Limiter
	ua      *rotator
	rng     *rand.Rand
	log     zerolog.Logger

	// sleep is swapped out in tests so the ladder can be exercised
	// without real back-off delays.
	sleep func(context.Context, time.Duration) error
}

// NewClient builds a Client around the shared limiter.
func NewClient(cfg Config, limiter *Limiter, log zerolog.Logger) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	seed := time.Now().UnixNano()
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: transport,
		},
		limiter: limiter,
		ua:      newRotator(rand.New(rand.NewSource(seed))),
		rng:     rand.New(rand.NewSource(seed + 1)),
		log:     log,
		sleep:   sleepContext,
	}, nil
}

// Limiter exposes the shared limiter, mostly for block checks.
func (c *Client) Limiter() *Limiter {
	return c.limiter
}

// Get performs a paced GET with the retry ladder. params are merged into
// the URL query; headers override the client defaults for this call.
// A nil error implies a 2xx response.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	host := u.Hostname()

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx, host); err != nil {
			return nil, err
		}

		resp, err := c.do(ctx, u.String(), headers)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.log.Debug().Err(err).Str("host", host).Int("attempt", attempt+1).Msg("request failed")
			if attempt < c.cfg.MaxRetries-1 {
				if serr := c.sleep(ctx, c.backoff(attempt)+c.uniform(0, 2)); serr != nil {
					return nil, serr
				}
			}
			continue
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			c.limiter.MarkFailure(host)
			c.limiter.Block(host, "401 需要登录认证")
			c.log.Warn().Str("host", host).Msg("401, host blocked")
			return nil, fmt.Errorf("%s: %w: auth required", host, ErrBlocked)

		case http.StatusForbidden:
			fails := c.limiter.MarkFailure(host)
			if ra := retryAfter(resp.Header); ra > 0 && attempt < c.cfg.MaxRetries-1 {
				if ra > 30*time.Second {
					ra = 30 * time.Second
				}
				c.log.Warn().Str("host", host).Dur("wait", ra).Msg("403 with Retry-After")
				if serr := c.sleep(ctx, ra); serr != nil {
					return nil, serr
				}
				continue
			}
			if fails >= 2 {
				c.limiter.Block(host, "403 拒绝访问(需要Cookie/签名)")
				c.log.Warn().Str("host", host).Msg("repeated 403, host blocked")
				return nil, fmt.Errorf("%s: %w: forbidden", host, ErrBlocked)
			}
			lastErr = fmt.Errorf("status 403")
			if serr := c.sleep(ctx, 2*time.Second+c.uniform(0, 2)); serr != nil {
				return nil, serr
			}
			continue

		case http.StatusTooManyRequests:
			c.limiter.Penalize(host, 2.0)
			lastErr = fmt.Errorf("status 429")
			c.log.Warn().Str("host", host).Float64("penalty", c.limiter.Penalty(host)).Msg("429, slowing down")
			if serr := c.sleep(ctx, c.backoff(attempt+1)+c.uniform(1, 3)); serr != nil {
				return nil, serr
			}
			continue

		case http.StatusPreconditionFailed:
			c.limiter.Penalize(host, 3.0)
			fails := c.limiter.MarkFailure(host)
			if fails >= 2 {
				c.limiter.Block(host, "412 风控触发")
				c.log.Warn().Str("host", host).Msg("repeated 412, host blocked")
				return nil, fmt.Errorf("%s: %w: risk control", host, ErrBlocked)
			}
			lastErr = fmt.Errorf("status 412")
			c.log.Warn().Str("host", host).Msg("412 risk control, slowing down")
			if serr := c.sleep(ctx, 5*time.Second+c.uniform(0, 5)); serr != nil {
				return nil, serr
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.limiter.MarkSuccess(host)
			return resp, nil
		}

		lastErr = fmt.Errorf("status %d", resp.StatusCode)
		c.log.Debug().Str("host", host).Int("status", resp.StatusCode).Int("attempt", attempt+1).Msg("unexpected status")
		if attempt < c.cfg.MaxRetries-1 {
			if serr := c.sleep(ctx, c.backoff(attempt)+c.uniform(0, 2)); serr != nil {
				return nil, serr
			}
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no attempts made")
	}
	return nil, fmt.Errorf("%s: retries exhausted: %w", host, lastErr)
}

func (c *Client) do(ctx context.Context, fullURL string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", c.ua.next())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// backoff is 2^attempt seconds.
func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// uniform draws from [lo, hi) seconds.
func (c *Client) uniform(lo, hi float64) time.Duration {
	return time.Duration((lo + c.rng.Float64()*(hi-lo)) * float64(time.Second))
}

func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
