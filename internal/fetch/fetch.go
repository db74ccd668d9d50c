// Package fetch owns the shared HTTP client, the one-shot text fetch every
// pipeline stage goes through, and the bounded retry policy applied at the
// classification boundary.
package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	// ClashUA is presented when probing subscription URLs; many airports
	// gate their userinfo header on a Clash client.
	ClashUA = "ClashforWindows/0.18.1"
	// BrowserUA is presented when scraping regular web pages.
	BrowserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// NewClient builds the one client shared by a pipeline run. The per-host cap
// keeps concurrent probing from piling onto a single subscription host.
func NewClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxConnsPerHost:     20,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     300 * time.Second,
		},
	}
}

// Result carries one response. A non-200 status is not an error here: what a
// status means is the caller's decision, and the body is only read on 200.
type Result struct {
	Status int
	Header http.Header
	Body   string
}

// Text issues a single GET with its own deadline and returns the body text.
func Text(ctx context.Context, client *http.Client, url string, header http.Header, timeout time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	if header != nil {
		req.Header = header.Clone()
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", ClashUA)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Status: resp.StatusCode, Header: resp.Header}, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	return Result{Status: resp.StatusCode, Header: resp.Header, Body: string(body)}, nil
}

// Retry is the bounded retry policy for subscription checks: at most
// Attempts tries with a fixed pause between them. Transport errors and
// transient statuses retry; 200 and terminal statuses end the loop at once.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultRetry() Retry {
	return Retry{Attempts: 2, Backoff: time.Second}
}

// Terminal reports whether a status marks the URL as permanently dead.
// 500 sits in the terminal set: subscription hosts that answer it keep
// answering it.
func Terminal(status int) bool {
	switch status {
	case http.StatusForbidden, http.StatusNotFound, http.StatusGone, http.StatusInternalServerError:
		return true
	}
	return false
}

// Do runs fn under the policy and returns the last result observed.
func (r Retry) Do(ctx context.Context, fn func(context.Context) (Result, error)) (Result, error) {
	var (
		res Result
		err error
	)
	for attempt := 1; ; attempt++ {
		res, err = fn(ctx)
		if err == nil && (res.Status == http.StatusOK || Terminal(res.Status)) {
			return res, nil
		}
		if attempt >= r.Attempts {
			return res, err
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-time.After(r.Backoff):
		}
	}
}
