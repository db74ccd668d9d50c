// Package harvest scrapes candidate subscription links out of public
// Telegram channel preview pages.
package harvest

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/projectdiscovery/gologger"
	"golang.org/x/time/rate"

	"github.com/xujw3/mySub/internal/fetch"
)

// urlPattern matches plaintext links embedded in channel messages.
var urlPattern = regexp.MustCompile(`https?://[-A-Za-z0-9+&@#/%?=~_|!:,.;]+[-A-Za-z0-9+&@#/%=~_|]`)

const pageTimeout = 15 * time.Second

type Harvester struct {
	Client  *http.Client
	Limiter *rate.Limiter
}

func New(client *http.Client) *Harvester {
	// One page per 1.2s keeps Telegram's preview endpoint happy.
	return &Harvester{
		Client:  client,
		Limiter: rate.NewLimiter(rate.Every(1200*time.Millisecond), 1),
	}
}

// Collect scrapes every channel page and returns the candidate links found
// across all of them, deduplicated by exact string. A channel that fails to
// fetch contributes nothing.
func (h *Harvester) Collect(ctx context.Context, channels []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, channel := range channels {
		if err := h.Limiter.Wait(ctx); err != nil {
			break
		}
		links := h.channelLinks(ctx, channel)
		gologger.Info().Msgf("%s: %d links", channel, len(links))
		for _, link := range links {
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			out = append(out, link)
		}
	}
	return out
}

func (h *Harvester) channelLinks(ctx context.Context, channel string) []string {
	header := http.Header{}
	header.Set("User-Agent", fetch.BrowserUA)
	res, err := fetch.Text(ctx, h.Client, channel, header, pageTimeout)
	if err != nil {
		gologger.Warning().Msgf("fetch %s: %s", channel, err)
		return nil
	}
	if res.Status != http.StatusOK {
		gologger.Warning().Msgf("fetch %s: status %d", channel, res.Status)
		return nil
	}
	return ExtractLinks(res.Body)
}

// ExtractLinks pulls candidate URLs out of a channel page. Message bodies
// are preferred; a page without recognizable message blocks is scanned
// whole. Telegram's own links and its CDN never count as candidates.
func ExtractLinks(page string) []string {
	text := page
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(page)); err == nil {
		var b strings.Builder
		doc.Find(".tgme_widget_message_text").Each(func(_ int, s *goquery.Selection) {
			b.WriteString(s.Text())
			b.WriteString("\n")
		})
		if b.Len() > 0 {
			text = b.String()
		}
	}
	var out []string
	for _, link := range urlPattern.FindAllString(text, -1) {
		if strings.Contains(link, "//t.me/") || strings.Contains(link, "cdn-telegram.org") {
			continue
		}
		out = append(out, link)
	}
	return out
}
