package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// plainDefaults groups connection-pool knobs sized for many concurrent
// requests against a handful of origins.
var plainDefaults = struct {
	maxIdleConns        int
	maxIdleConnsPerHost int
	maxConnsPerHost     int
}{
	maxIdleConns:        500,
	maxIdleConnsPerHost: 100,
	maxConnsPerHost:     200,
}

// PlainConfig configures a PlainTransport.
type PlainConfig struct {
	ProxyURL string // optional; empty means direct
	Timeout  time.Duration

	InsecureSkipVerify bool // skip TLS certificate verification
	DisableRedirects   bool // true stops at the first redirect response instead of following it
	MaxRedirects       int  // only meaningful when redirects aren't disabled; default 10
	ForceHTTP1         bool // disable HTTP/2 upgrade, pinning the connection to HTTP/1.1
}

// PlainTransport executes requests with Go's standard net/http transport —
// no TLS impersonation, no ordered headers. It is the backend for the
// speed-optimized execution mode, where stealth isn't needed and raw
// throughput matters more than fingerprint fidelity.
type PlainTransport struct {
	cfg PlainConfig

	mu      sync.Mutex
	clients map[string]*http.Client // keyed by proxy URL, "" is cfg.ProxyURL (or direct)
}

// NewPlainTransport builds a PlainTransport from cfg. cfg.ProxyURL, if set,
// validates eagerly so construction fails loudly on a malformed proxy.
func NewPlainTransport(cfg PlainConfig) (*PlainTransport, error) {
	if cfg.ProxyURL != "" {
		if _, err := url.Parse(cfg.ProxyURL); err != nil {
			return nil, &Error{Op: "parse-proxy", URL: cfg.ProxyURL, Err: err}
		}
	}
	return &PlainTransport{cfg: cfg, clients: make(map[string]*http.Client)}, nil
}

func (t *PlainTransport) buildClient(proxyURL string) (*http.Client, error) {
	rt := &http.Transport{
		DisableKeepAlives:     false,
		MaxIdleConns:          plainDefaults.maxIdleConns,
		MaxIdleConnsPerHost:   plainDefaults.maxIdleConnsPerHost,
		MaxConnsPerHost:       plainDefaults.maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if t.cfg.InsecureSkipVerify {
		rt.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in via config
	}
	if t.cfg.ForceHTTP1 {
		// A non-nil, empty TLSNextProto stops the transport from ever
		// upgrading to HTTP/2 via ALPN.
		rt.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, &Error{Op: "parse-proxy", URL: proxyURL, Err: err}
		}
		rt.Proxy = http.ProxyURL(parsed)
	}
	return &http.Client{
		Transport:     rt,
		Timeout:       t.cfg.Timeout,
		CheckRedirect: redirectPolicy(t.cfg.DisableRedirects, t.cfg.MaxRedirects),
	}, nil
}

// redirectPolicy builds a CheckRedirect callback: disable stops following
// redirects entirely, otherwise the client stops after max hops (default
// 10, matching net/http's own built-in cap).
func redirectPolicy(disable bool, max int) func(*http.Request, []*http.Request) error {
	if disable {
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	if max <= 0 {
		max = 10
	}
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return http.ErrUseLastResponse
		}
		return nil
	}
}

// clientFor returns the client for a per-request proxy override, falling
// back to cfg.ProxyURL when override is empty. Clients are cached per
// distinct proxy URL.
func (t *PlainTransport) clientFor(override string) (*http.Client, error) {
	proxyURL := override
	if proxyURL == "" {
		proxyURL = t.cfg.ProxyURL
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.clients[proxyURL]; ok {
		return c, nil
	}
	c, err := t.buildClient(proxyURL)
	if err != nil {
		return nil, err
	}
	t.clients[proxyURL] = c
	return c, nil
}

// Do executes req and returns the populated Response, or a *Error on any
// dial/TLS/I-O failure.
func (t *PlainTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	client, err := t.clientFor(req.ProxyURL)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, req.Body)
	if err != nil {
		return nil, &Error{Op: "build-request", URL: req.URL, Err: err}
	}
	if req.Headers != nil {
		req.Headers.ApplyToRequest(httpReq)
	} else {
		httpReq.Header = make(http.Header)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &Error{Op: "roundtrip", URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: "read", URL: req.URL, Err: err}
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		URL:        finalURL,
		Elapsed:    time.Since(start),
	}, nil
}

// Close releases idle connections held by every cached per-proxy client.
func (t *PlainTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.clients {
		c.CloseIdleConnections()
	}
	return nil
}

var _ Transport = (*PlainTransport)(nil)
