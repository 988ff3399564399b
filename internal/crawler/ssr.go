package crawler

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The platforms server-render their state into the page in three
// different disguises; these pull the JSON back out.
var (
	renderDataRe   = regexp.MustCompile(`(?s)<script\s+id="RENDER_DATA"[^>]*>(.+?)</script>`)
	initialStateRe = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(.+?)</script>`)
	sDataRe        = regexp.MustCompile(`(?s)<!--s-data:(.*?)-->`)
)

// RenderData decodes the URL-encoded <script id="RENDER_DATA"> blob.
func RenderData(html string) (map[string]interface{}, bool) {
	m := renderDataRe.FindStringSubmatch(html)
	if m == nil {
		return nil, false
	}
	raw, err := url.QueryUnescape(m[1])
	if err != nil {
		return nil, false
	}
	return decodeState(raw)
}

// InitialState decodes the window.__INITIAL_STATE__ assignment. The
// renderer leaves bare `undefined` literals in the object, which are not
// JSON; they become null.
func InitialState(html string) (map[string]interface{}, bool) {
	m := initialStateRe.FindStringSubmatch(html)
	if m == nil {
		return nil, false
	}
	raw := strings.ReplaceAll(m[1], "undefined", "null")
	return decodeState(raw)
}

// SData decodes the <!--s-data:…--> comment blob.
func SData(html string) (map[string]interface{}, bool) {
	m := sDataRe.FindStringSubmatch(html)
	if m == nil {
		return nil, false
	}
	return decodeState(m[1])
}

func decodeState(raw string) (map[string]interface{}, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ";")

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, false
	}
	return data, true
}

const maxFindDepth = 10

// FindList walks a decoded state tree for the first list stored under any
// of the given keys, depth-bounded so hostile blobs cannot recurse away.
func FindList(v interface{}, keys ...string) []interface{} {
	return findList(v, keys, 0)
}

func findList(v interface{}, keys []string, depth int) []interface{} {
	if depth > maxFindDepth {
		return nil
	}
	switch node := v.(type) {
	case map[string]interface{}:
		for _, k := range keys {
			if inner, ok := node[k]; ok {
				return asList(inner)
			}
		}
		var results []interface{}
		for _, inner := range node {
			results = append(results, findList(inner, keys, depth+1)...)
		}
		return results
	case []interface{}:
		var results []interface{}
		for _, inner := range node {
			results = append(results, findList(inner, keys, depth+1)...)
		}
		return results
	}
	return nil
}

// AnchorTitles is the degraded parse path for pages whose state blob is
// missing or undecodable: collect anchor titles (title attribute or the
// text of title-classed links), at least five runes, deduplicated.
func AnchorTitles(html string, max int) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var titles []string
	add := func(title string) {
		title = strings.TrimSpace(title)
		if len([]rune(title)) < 5 {
			return
		}
		if _, dup := seen[title]; dup {
			return
		}
		seen[title] = struct{}{}
		if len(titles) < max {
			titles = append(titles, title)
		}
	}

	doc.Find("a[title]").Each(func(_ int, sel *goquery.Selection) {
		if title, ok := sel.Attr("title"); ok {
			add(title)
		}
	})
	doc.Find(`a[class*="title"]`).Each(func(_ int, sel *goquery.Selection) {
		add(sel.Text())
	})
	return titles
}
