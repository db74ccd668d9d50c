// Package nodecheck confirms that a subscription actually renders for a
// target client by asking public subscription converters to convert it.
package nodecheck

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/projectdiscovery/gologger"

	"github.com/xujw3/mySub/internal/fetch"
)

// DefaultEndpoints are the public converters, probed in this order.
var DefaultEndpoints = []string{
	"https://api.dler.io",
	"https://sub.xeton.dev",
	"https://sub.id9.cc",
	"https://sub.maoxiongnet.com",
}

const probeTimeout = 20 * time.Second

type Checker struct {
	Client    *http.Client
	Endpoints []string
	DB        *geoip2.Reader
}

func New(client *http.Client, db *geoip2.Reader) *Checker {
	return &Checker{Client: client, Endpoints: DefaultEndpoints, DB: db}
}

// Validate asks each converter in turn to render raw as target and returns
// the original URL on the first plausible render. A failing endpoint only
// moves probing along; exhausting the list means the subscription does not
// render.
func (c *Checker) Validate(ctx context.Context, raw, target string) (string, bool) {
	encoded := url.QueryEscape(raw)
	for _, base := range c.Endpoints {
		probe := fmt.Sprintf("%s/sub?target=%s&url=%s&insert=false&config=config%%2FACL4SSR.ini",
			base, target, encoded)
		res, err := fetch.Text(ctx, c.Client, probe, nil, probeTimeout)
		if err != nil {
			gologger.Debug().Msgf("probe %s via %s: %s", raw, base, err)
			continue
		}
		if res.Status != http.StatusOK {
			gologger.Debug().Msgf("probe %s via %s: status %d", raw, base, res.Status)
			continue
		}
		if Plausible(target, res.Body) {
			gologger.Debug().Msgf("probe %s via %s: ok [%s]", raw, base, c.Country(raw))
			return raw, true
		}
		gologger.Debug().Msgf("probe %s via %s: content does not look like %s", raw, base, target)
	}
	return "", false
}

// Plausible reports whether body looks like a rendered target config. Very
// short bodies are converter error pages regardless of target.
func Plausible(target, body string) bool {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) < 50 {
		return false
	}
	switch target {
	case "clash":
		return strings.Contains(body, "proxies:") &&
			(strings.Contains(body, "name:") || strings.Contains(body, "server:")) &&
			strings.Count(body, "- name:") > 0
	case "loon":
		return strings.Contains(body, "[Proxy]") || strings.Contains(body, "=")
	default:
		return len(trimmed) > 100
	}
}

// Country labels the subscription host. Without a GeoIP database every host
// labels generically, same as running without Country.mmdb on disk.
func (c *Checker) Country(raw string) string {
	const generic = "Dynamic"
	if c.DB == nil {
		return generic
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return generic
	}
	host := u.Hostname()
	ip := net.ParseIP(host)
	if ip == nil {
		ips, _ := net.LookupIP(host)
		if len(ips) > 0 {
			ip = ips[0]
		}
	}
	if ip == nil {
		return generic
	}
	record, err := c.DB.Country(ip)
	if err != nil || record == nil || record.Country.Names["en"] == "" {
		return generic
	}
	return record.Country.Names["en"]
}
