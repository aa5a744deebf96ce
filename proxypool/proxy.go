// Package proxypool provides a thread-safe proxy pool with rotation
// strategies and health tracking (consecutive failures, cooldown,
// lazy recovery, rolling response-time average).
package proxypool

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidSchemes is the set of proxy URL schemes this pool accepts.
var ValidSchemes = map[string]bool{
	"http": true, "https": true,
	"socks4": true, "socks4a": true,
	"socks5": true, "socks5h": true,
}

// InvalidProxyURLError reports why a proxy URL was rejected.
type InvalidProxyURLError struct {
	URL    string
	Reason string
}

func (e *InvalidProxyURLError) Error() string {
	return fmt.Sprintf("invalid proxy URL %q: %s", e.URL, e.Reason)
}

// ValidateURL checks that rawURL has an accepted scheme and a hostname.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &InvalidProxyURLError{URL: rawURL, Reason: "URL must be non-empty"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return &InvalidProxyURLError{URL: rawURL, Reason: fmt.Sprintf("failed to parse URL: %v", err)}
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return &InvalidProxyURLError{URL: rawURL, Reason: "missing scheme (e.g. http://, socks5://)"}
	}
	if !ValidSchemes[scheme] {
		return &InvalidProxyURLError{URL: rawURL, Reason: fmt.Sprintf("invalid scheme %q", scheme)}
	}
	if u.Hostname() == "" {
		return &InvalidProxyURLError{URL: rawURL, Reason: "missing hostname"}
	}
	return nil
}

const responseTimeWindow = 10

// Health tracks the per-proxy counters described in the data model:
// consecutive/total failures, timestamps, a rolling response-time
// average over the last 10 samples, and the enabled/cooldown state.
type Health struct {
	Enabled             bool
	ConsecutiveFailures int
	TotalRequests       int
	TotalFailures       int
	LastUsed            time.Time
	LastSuccess         time.Time
	LastFailure         time.Time
	LastError           string
	DisabledUntil       time.Time

	responseTimes []time.Duration // ring buffer, most-recent-last, capped at responseTimeWindow
}

// RecordResponseTime appends a sample to the rolling window, discarding
// the oldest sample once the window exceeds 10 entries.
func (h *Health) RecordResponseTime(d time.Duration) {
	h.responseTimes = append(h.responseTimes, d)
	if len(h.responseTimes) > responseTimeWindow {
		h.responseTimes = h.responseTimes[len(h.responseTimes)-responseTimeWindow:]
	}
}

// AverageResponseTime returns the mean of the rolling response-time
// window, or 0 if no samples have been recorded.
func (h *Health) AverageResponseTime() time.Duration {
	if len(h.responseTimes) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range h.responseTimes {
		total += d
	}
	return total / time.Duration(len(h.responseTimes))
}

// SuccessRate returns the fraction of requests that did not fail, 1.0 when
// no requests have been made yet.
func (h *Health) SuccessRate() float64 {
	if h.TotalRequests == 0 {
		return 1.0
	}
	return float64(h.TotalRequests-h.TotalFailures) / float64(h.TotalRequests)
}

// Entry is one proxy in the pool: its URL plus its health state.
type Entry struct {
	URL    string
	Health Health
}

// Protocol returns the proxy's scheme, lowercased.
func (e *Entry) Protocol() string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// Host returns the proxy's hostname.
func (e *Entry) Host() string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
