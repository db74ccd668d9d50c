// Package classify decides what kind of subscription a URL serves: a
// traffic-metered airport, a Clash proxy list, or a base64/raw v2 URI list.
package classify

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"

	"github.com/xujw3/mySub/internal/fetch"
)

// Category tags a classified subscription. The zero value means the content
// matched no known format and the URL is dropped.
type Category int

const (
	None Category = iota
	Airport
	Clash
	V2
)

func (c Category) String() string {
	switch c {
	case Airport:
		return "airport"
	case Clash:
		return "clash"
	case V2:
		return "v2"
	default:
		return "none"
	}
}

// Verdict is the classifier's output for one URL.
type Verdict struct {
	URL      string
	Category Category
	Info     string
}

var (
	digits = regexp.MustCompile(`\d+`)

	// uriSchemes are the proxy URI prefixes counted as nodes.
	uriSchemes = []string{"ss://", "ssr://", "vmess://", "trojan://", "vless://"}

	// configKeywords mark a decoded blob as some proxy config even when no
	// URI scheme shows up.
	configKeywords = []string{"server", "port", "password", "method", "host", "path"}
)

const checkTimeout = 12 * time.Second

type Classifier struct {
	Client *http.Client
	Retry  fetch.Retry
}

func New(client *http.Client) *Classifier {
	return &Classifier{Client: client, Retry: fetch.DefaultRetry()}
}

// Check fetches url and decides its subscription format. ok is false when the
// URL yields nothing usable, which is the normal fate of most candidates.
func (c *Classifier) Check(ctx context.Context, url string) (Verdict, bool) {
	header := http.Header{}
	header.Set("User-Agent", fetch.ClashUA)
	header.Set("Accept", "*/*")

	res, err := c.Retry.Do(ctx, func(ctx context.Context) (fetch.Result, error) {
		return fetch.Text(ctx, c.Client, url, header, checkTimeout)
	})
	if err != nil {
		gologger.Debug().Msgf("check %s: %s", url, err)
		return Verdict{}, false
	}
	if res.Status != http.StatusOK {
		gologger.Debug().Msgf("check %s: status %d", url, res.Status)
		return Verdict{}, false
	}
	v, ok := Decide(url, res.Body, res.Header)
	if ok {
		gologger.Debug().Msgf("check %s: %s, %s", url, v.Category, v.Info)
	}
	return v, ok
}

// Decide classifies fetched content. First match wins: airport userinfo
// header, Clash markers, base64-wrapped URI list, raw URI list.
func Decide(url, body string, header http.Header) (Verdict, bool) {
	if len(strings.TrimSpace(body)) < 10 {
		gologger.Debug().Msgf("check %s: body empty or too short", url)
		return Verdict{}, false
	}

	if info := header.Get("subscription-userinfo"); info != "" {
		if v, ok := airportVerdict(url, info); ok {
			return v, true
		}
	}

	if n := clashNodes(body); n > 0 {
		return Verdict{URL: url, Category: Clash, Info: fmt.Sprintf("%d nodes", n)}, true
	}

	compact := strings.NewReplacer("\n", "", "\r", "").Replace(strings.TrimSpace(body))
	if len(compact) > 20 {
		if decoded, ok := decodeBase64(compact); ok {
			if n := schemeCount(decoded); n > 0 {
				return Verdict{URL: url, Category: V2, Info: fmt.Sprintf("%d nodes (base64)", n)}, true
			}
			if containsKeyword(decoded) {
				if n := nonEmptyLines(decoded); n > 0 {
					return Verdict{URL: url, Category: V2, Info: fmt.Sprintf("%d lines (base64)", n)}, true
				}
			}
		}
	}

	if n := schemeCount(body); n > 0 {
		return Verdict{URL: url, Category: V2, Info: fmt.Sprintf("%d nodes (raw)", n)}, true
	}

	if len(body) > 100 {
		preview := strings.NewReplacer("\n", `\n`, "\r", `\r`).Replace(body[:100])
		gologger.Debug().Msgf("check %s: unrecognized format, %d chars, preview: %s...", url, len(body), preview)
	}
	return Verdict{}, false
}

// airportVerdict reads the first three integers of a subscription-userinfo
// header as upload, download and total bytes. Only a subscription with
// traffic actually left classifies.
func airportVerdict(url, info string) (Verdict, bool) {
	nums := digits.FindAllString(info, -1)
	if len(nums) < 3 {
		return Verdict{}, false
	}
	upload, err1 := strconv.ParseInt(nums[0], 10, 64)
	download, err2 := strconv.ParseInt(nums[1], 10, 64)
	total, err3 := strconv.ParseInt(nums[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || total <= 0 {
		return Verdict{}, false
	}
	left := total - upload - download
	if left <= 0 {
		return Verdict{}, false
	}
	gb := float64(left) / (1 << 30)
	return Verdict{URL: url, Category: Airport, Info: fmt.Sprintf("available: %s GB", formatGB(gb))}, true
}

// formatGB renders two decimals with at most one trailing zero trimmed, so
// zero and whole values print as "0.0" and "3.0". The store file and its
// downstream consumers expect that shape.
func formatGB(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if strings.HasSuffix(s, "0") {
		s = s[:len(s)-1]
	}
	return s
}

func clashNodes(body string) int {
	if !strings.Contains(body, "proxies:") {
		return 0
	}
	if !strings.Contains(body, "name:") && !strings.Contains(body, "server:") {
		return 0
	}
	return strings.Count(body, "- name:")
}

// decodeBase64 is deliberately lenient the way subscription hosts need it to
// be: bytes outside the base64 alphabet are dropped before decoding, the
// remainder must be 4-aligned, and invalid UTF-8 in the output is stripped.
func decodeBase64(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '+', r == '/', r == '=':
			b.WriteRune(r)
		}
	}
	filtered := b.String()
	if filtered == "" || len(filtered)%4 != 0 {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(filtered)
	if err != nil {
		return "", false
	}
	return strings.ToValidUTF8(string(raw), ""), true
}

func schemeCount(text string) int {
	n := 0
	for _, scheme := range uriSchemes {
		n += strings.Count(text, scheme)
	}
	return n
}

func containsKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range configKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func nonEmptyLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
