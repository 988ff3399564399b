// Package crawler samples public content from Chinese social platforms.
// Each platform crawler shares one fetch.Limiter for cross-crawler pacing
// and reports into a common Stats registry; none of them requires login
// credentials or signed API access.
package crawler

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
)

// Crawler is one platform source. CrawlAll returns whatever it managed to
// sample; a partial result with a nil error is normal when some requests
// fail or the host gets blocked mid-run.
type Crawler interface {
	Name() string
	Host() string
	CrawlAll(ctx context.Context, seeds []string) ([]model.RawContent, error)
}

// Hosts maps platform names to the host consulted for block checks.
var Hosts = map[string]string{
	"douyin":      "www.douyin.com",
	"xiaohongshu": "www.xiaohongshu.com",
	"weibo":       "weibo.com",
	"bilibili":    "api.bilibili.com",
	"zhihu":       "www.zhihu.com",
	"baidu":       "top.baidu.com",
}

// New builds the crawler for a platform name.
func New(platform string, client *fetch.Client, stats *Stats, log zerolog.Logger) (Crawler, error) {
	log = log.With().Str("platform", platform).Logger()
	switch platform {
	case "douyin":
		return newDouyin(client, stats, log), nil
	case "xiaohongshu":
		return newXiaohongshu(client, stats, log), nil
	case "weibo":
		return newWeibo(client, stats, log), nil
	case "bilibili":
		return newBilibili(client, stats, log), nil
	case "zhihu":
		return newZhihu(client, stats, log), nil
	case "baidu":
		return newBaidu(client, stats, log), nil
	}
	return nil, fmt.Errorf("unknown platform %q", platform)
}

func shortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:10]
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// --- loose JSON navigation ---
//
// The SSR blobs and AJAX payloads have no stable schema worth typing out;
// crawlers walk them as decoded interface{} trees.

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asList(v interface{}) []interface{} {
	l, _ := v.([]interface{})
	return l
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	case string:
		return ParseCompactNumber(n)
	}
	return 0
}

// dig walks nested maps by key, returning nil as soon as a step is
// missing or not a map.
func dig(v interface{}, keys ...string) interface{} {
	for _, k := range keys {
		m := asMap(v)
		if m == nil {
			return nil
		}
		v = m[k]
	}
	return v
}
