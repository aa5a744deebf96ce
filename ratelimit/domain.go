package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// DomainLimiter enforces a per-domain request rate, with an optional
// global rate shared across every domain. Domains are extracted from the
// request URL's host, lowercased, with any port stripped.
type DomainLimiter struct {
	mu          sync.Mutex
	defaultRate float64
	domainRates map[string]float64
	buckets     map[string]*Bucket
	global      *Bucket
}

// NewDomainLimiter builds a DomainLimiter. defaultRate applies to any
// domain without an explicit override in domainRates; a defaultRate <= 0
// disables limiting for domains without an override. globalRate, if > 0,
// enforces an additional cap shared across all domains.
func NewDomainLimiter(defaultRate float64, domainRates map[string]float64, globalRate float64) *DomainLimiter {
	rates := make(map[string]float64, len(domainRates))
	for k, v := range domainRates {
		rates[k] = v
	}
	dl := &DomainLimiter{
		defaultRate: defaultRate,
		domainRates: rates,
		buckets:     make(map[string]*Bucket),
	}
	if globalRate > 0 {
		dl.global = NewBucket(globalRate, globalRate)
	}
	return dl
}

// domainOf extracts the lowercased host (no port) from a URL.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// bucketFor returns the bucket for domain, lazily creating one from the
// configured rate. Returns nil if rate limiting is disabled for domain.
func (dl *DomainLimiter) bucketFor(domain string) *Bucket {
	rate := dl.defaultRate
	dl.mu.Lock()
	if r, ok := dl.domainRates[domain]; ok {
		rate = r
	}
	if rate <= 0 {
		dl.mu.Unlock()
		return nil
	}
	b, ok := dl.buckets[domain]
	if !ok {
		b = NewBucket(rate, rate)
		dl.buckets[domain] = b
	}
	dl.mu.Unlock()
	return b
}

// Acquire waits for (or checks, when blocking is false) a rate-limit slot
// for the domain of url. The global bucket, if configured, is checked
// first so a global cap never starves traffic to an idle domain while
// another domain saturates it.
//
// If ctx is canceled while waiting, Acquire abandons the wait and returns
// false without consuming a token from either bucket.
func (dl *DomainLimiter) Acquire(ctx context.Context, rawURL string, blocking bool) bool {
	domain := domainOf(rawURL)
	bucket := dl.bucketFor(domain)

	if dl.global != nil {
		if !dl.global.Acquire(ctx, blocking) {
			return false
		}
	}

	if bucket != nil {
		if !bucket.Acquire(ctx, blocking) {
			// A blocking Acquire only fails when ctx is canceled; hand back
			// the global token taken above.
			if dl.global != nil && blocking {
				dl.global.mu.Lock()
				dl.global.tokens = min(dl.global.capacity, dl.global.tokens+1)
				dl.global.mu.Unlock()
			}
			return false
		}
	}
	return true
}

// SetDomainRate overrides the rate for domain, discarding any existing
// bucket so the next acquire is built against the new rate.
func (dl *DomainLimiter) SetDomainRate(domain string, rate float64) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.domainRates[domain] = rate
	delete(dl.buckets, domain)
}

// DomainInfo is a debugging snapshot of a domain's rate-limiting state.
type DomainInfo struct {
	Domain  string
	Rate    float64
	Tokens  float64
	Enabled bool
}

// GetDomainInfo returns the current rate-limiting state for the domain of
// rawURL.
func (dl *DomainLimiter) GetDomainInfo(rawURL string) DomainInfo {
	domain := domainOf(rawURL)

	dl.mu.Lock()
	rate, ok := dl.domainRates[domain]
	if !ok {
		rate = dl.defaultRate
	}
	b := dl.buckets[domain]
	dl.mu.Unlock()

	info := DomainInfo{Domain: domain, Rate: rate, Enabled: rate > 0}
	if b != nil {
		info.Tokens = b.AvailableTokens()
	} else {
		info.Tokens = -1 // unbounded / not yet created
	}
	return info
}
