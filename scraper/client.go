// Package scraper wires transport, fingerprint, ratelimit, cookiejar,
// proxypool, and retry together into a single request orchestrator: one
// Client owns at most one of each collaborator and runs every request
// through the same pipeline (stealth delay, rate limit, header/cookie
// preparation, proxy selection, retryable execution, proxy and cookie
// bookkeeping).
package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/firasghr/stealthscraper/cookiejar"
	"github.com/firasghr/stealthscraper/fingerprint"
	"github.com/firasghr/stealthscraper/jschallenge"
	"github.com/firasghr/stealthscraper/proxypool"
	"github.com/firasghr/stealthscraper/ratelimit"
	"github.com/firasghr/stealthscraper/retry"
	"github.com/firasghr/stealthscraper/transport"
)

// Mode selects the execution backend.
type Mode string

const (
	ModeSpeed   Mode = "speed"
	ModeStealth Mode = "stealth"
)

// Config configures a Client. Zero-valued fields take the defaults noted
// below.
type Config struct {
	Mode    Mode   // default ModeSpeed
	Profile string // stealth browser profile name; default fingerprint.DefaultProfileName

	PersistCookies bool

	RateLimit       float64            // requests/sec per domain; <= 0 disables
	DomainRateLimit map[string]float64 // per-domain overrides
	GlobalRateLimit float64            // shared cap across all domains; <= 0 disables

	Timeout         time.Duration // default 30s
	ConnectTimeout  time.Duration // default 10s; not applied by either transport
	IdleConnTimeout time.Duration // default 90s

	Retries          int             // additional attempts after the first; default 3
	RetryCodes       map[int]bool    // default retry.DefaultRetryCodes
	RetryBackoffBase float64         // default 2.0

	Proxies          []string
	ProxyStrategy    proxypool.Strategy
	ProxyMaxFailures int
	ProxyCooldown    time.Duration

	DefaultConcurrency int // Gather's default when called with concurrency <= 0; default 10

	MinDelay time.Duration // stealth-mode pre-request delay floor
	MaxDelay time.Duration // stealth-mode pre-request delay ceiling

	DefaultHeaders map[string]string

	// InsecureSkipVerify, DisableRedirects, MaxRedirects, and ForceHTTP1
	// apply only in ModeSpeed; all are opt-in (zero value is the prior,
	// safe default: verify certificates, follow up to 10 redirects,
	// negotiate HTTP/2 when the server offers it). Stealth mode's
	// uTLS-negotiated connection always verifies certificates and always
	// negotiates HTTP/2 impersonating the chosen profile, so these have no
	// effect there.
	InsecureSkipVerify bool
	DisableRedirects   bool
	MaxRedirects       int // default 10; only meaningful when redirects aren't disabled
	ForceHTTP1         bool

	// OnRetry, if set, is called once per retry attempt (transport error or
	// retryable status code), before the backoff sleep. Intended for wiring
	// an external retry counter; nil is a no-op.
	OnRetry func()

	// OnRateLimitWait, if set, is called once per request with the time
	// spent blocked in the rate limiter's Acquire (zero if a token was
	// immediately available). Intended for wiring an external histogram;
	// nil is a no-op.
	OnRateLimitWait func(time.Duration)
}

// Client is the unified request orchestrator: one retry engine, one rate
// limiter, one cookie jar (if persisting), one proxy pool (if configured),
// and one pluggable transport backend.
type Client struct {
	cfg  Config
	mode Mode

	transport transport.Transport
	limiter   *ratelimit.DomainLimiter
	retryEng  *retry.Engine
	pool      *proxypool.Pool // nil if no proxies configured

	profile   fingerprint.Profile
	composer  *fingerprint.HeaderComposer
	stealthOn bool

	jar *cookiejar.Jar // nil unless cfg.PersistCookies

	mu             sync.Mutex
	defaultHeaders map[string]string
	forcedProxy    *string
	lastResponse   *Response
	challengeSolve jschallenge.Solver

	sleep     func(ctx context.Context, d time.Duration) error
	randFloat func() float64
}

// ctxSleep waits for d or until ctx is canceled, whichever comes first,
// returning ctx.Err() in the latter case.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeSpeed
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if cfg.DefaultConcurrency <= 0 {
		cfg.DefaultConcurrency = 10
	}

	c := &Client{
		cfg:            cfg,
		mode:           cfg.Mode,
		limiter:        ratelimit.NewDomainLimiter(cfg.RateLimit, cfg.DomainRateLimit, cfg.GlobalRateLimit),
		defaultHeaders: copyHeaderMap(cfg.DefaultHeaders),
		sleep:          ctxSleep,
		randFloat:      rand.Float64,
	}

	c.retryEng = retry.New(retry.Config{
		MaxRetries:  cfg.Retries,
		RetryCodes:  cfg.RetryCodes,
		BackoffBase: cfg.RetryBackoffBase,
		OnRetry:     cfg.OnRetry,
		// Routed through c.sleep (read at call time, not captured by
		// value) so swapping c.sleep in tests also defangs the retry
		// backoff, instead of the engine always sleeping for real.
		Sleep: func(ctx context.Context, d time.Duration) error { return c.sleep(ctx, d) },
	})

	if cfg.PersistCookies {
		c.jar = cookiejar.New()
	}

	if len(cfg.Proxies) > 0 {
		pool, err := proxypool.New(cfg.Proxies, proxypool.Config{
			Strategy:    cfg.ProxyStrategy,
			MaxFailures: cfg.ProxyMaxFailures,
			Cooldown:    cfg.ProxyCooldown,
		})
		if err != nil {
			return nil, &ProxyConfigurationError{Reason: err.Error()}
		}
		c.pool = pool
	}

	if cfg.Mode == ModeStealth {
		profile, err := fingerprint.GetProfile(cfg.Profile)
		if err != nil {
			return nil, err
		}
		c.profile = profile
		c.composer = fingerprint.NewHeaderComposer(profile)
		c.stealthOn = true
		c.transport = transport.NewStealthTransport(profile.StealthConfig(cfg.IdleConnTimeout, cfg.Timeout))
	} else {
		t, err := transport.NewPlainTransport(transport.PlainConfig{
			Timeout:            cfg.Timeout,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			DisableRedirects:   cfg.DisableRedirects,
			MaxRedirects:       cfg.MaxRedirects,
			ForceHTTP1:         cfg.ForceHTTP1,
		})
		if err != nil {
			return nil, err
		}
		c.transport = t
	}

	return c, nil
}

// SetChallengeSolver installs an optional JavaScript challenge solver,
// invoked once outside the normal retry budget when a response looks like
// a challenge page. Off by default.
func (c *Client) SetChallengeSolver(s jschallenge.Solver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.challengeSolve = s
}

// Close releases the underlying transport's connections.
func (c *Client) Close() error {
	return c.transport.Close()
}

func copyHeaderMap(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, opts...)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPost, rawURL, opts...)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPut, rawURL, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, rawURL, opts...)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodHead, rawURL, opts...)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, rawURL, opts...)
}

// Options issues an OPTIONS request.
func (c *Client) Options(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodOptions, rawURL, opts...)
}

// Do builds a RequestSpec from method, rawURL, and opts, and executes it.
func (c *Client) Do(ctx context.Context, method, rawURL string, opts ...Option) (*Response, error) {
	spec := &RequestSpec{Method: method, URL: rawURL}
	for _, opt := range opts {
		opt(spec)
	}
	if len(spec.Query) > 0 {
		var err error
		spec.URL, err = applyQuery(spec.URL, spec.Query)
		if err != nil {
			return nil, fmt.Errorf("scraper: invalid request URL %q: %w", spec.URL, err)
		}
	}
	return c.execute(ctx, spec)
}

func applyQuery(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) stealthForRequest(spec *RequestSpec) bool {
	if spec.Stealth != nil {
		return *spec.Stealth
	}
	return c.stealthOn
}

// execute runs the nine-step request pipeline: stealth delay, rate limit,
// header preparation, cookie merge, proxy pick, retryable execution, proxy
// bookkeeping, cookie jar update, and last-response bookkeeping.
func (c *Client) execute(ctx context.Context, spec *RequestSpec) (*Response, error) {
	stealth := c.stealthForRequest(spec)

	if stealth && (c.cfg.MinDelay > 0 || c.cfg.MaxDelay > 0) {
		if err := c.applyStealthDelay(ctx); err != nil {
			return nil, err
		}
	}

	blocking := !spec.NonBlocking
	waitStart := time.Now()
	if !c.limiter.Acquire(ctx, spec.URL, blocking) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &RateLimitExceeded{Domain: domainOf(spec.URL)}
	}
	if c.cfg.OnRateLimitWait != nil {
		c.cfg.OnRateLimitWait(time.Since(waitStart))
	}

	headers := c.prepareHeaders(spec, stealth)
	cookieHeader := c.prepareCookies(spec)
	if cookieHeader != "" {
		headers.Set("Cookie", cookieHeader)
	}
	if spec.ContentType != "" && headers.Get("Content-Type") == "" {
		headers.Add("Content-Type", spec.ContentType)
	}

	proxyURL, fromPool, err := c.pickProxy(spec)
	if err != nil {
		return nil, err
	}

	reqTimeout := spec.Timeout
	attempt := func(ctx context.Context) (*transport.Response, error) {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if reqTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, reqTimeout)
			defer cancel()
		}
		return c.transport.Do(attemptCtx, &transport.Request{
			Method:   spec.Method,
			URL:      spec.URL,
			Headers:  headers,
			Body:     spec.Body,
			ProxyURL: proxyURL,
		})
	}

	tresp, err := c.retryEng.Do(ctx, spec.URL, attempt)
	if err != nil {
		if fromPool && c.pool != nil && ctx.Err() == nil {
			c.pool.ReportFailure(proxyURL, err)
		}
		return nil, &TransportError{URL: spec.URL, Err: err}
	}
	if fromPool && c.pool != nil {
		c.pool.ReportSuccess(proxyURL, tresp.Elapsed)
	}

	tresp, err = c.maybeSolveChallenge(ctx, spec, headers, proxyURL, tresp)
	if err != nil {
		return nil, err
	}

	rawCookies := parseSetCookies(tresp.Headers, tresp.URL)
	respCookies := make(map[string]string, len(rawCookies))
	for _, ck := range rawCookies {
		respCookies[ck.Name] = ck.Value
	}
	if c.jar != nil {
		for _, ck := range rawCookies {
			c.jar.Set(ck)
		}
	}

	resp := responseFromTransport(tresp, spec, respCookies)
	c.mu.Lock()
	c.lastResponse = resp
	c.mu.Unlock()
	return resp, nil
}

func (c *Client) applyStealthDelay(ctx context.Context) error {
	min := c.cfg.MinDelay
	max := c.cfg.MaxDelay
	if max <= min {
		return c.sleep(ctx, min)
	}
	span := max - min
	d := min + time.Duration(c.randFloat()*float64(span))
	return c.sleep(ctx, d)
}

func (c *Client) prepareHeaders(spec *RequestSpec, stealth bool) *transport.OrderedHeader {
	c.mu.Lock()
	defaults := copyHeaderMap(c.defaultHeaders)
	c.mu.Unlock()

	if stealth && c.composer != nil {
		merged := defaults
		for k, v := range spec.Headers {
			merged[k] = v
		}
		return c.composer.Compose(spec.URL, fingerprint.ComposeOptions{
			Method:          spec.Method,
			CustomHeaders:   merged,
			IncludeSecFetch: true,
		})
	}

	h := transport.NewOrderedHeader()
	for k, v := range fingerprint.MinimalHeaders {
		if _, ok := defaults[k]; ok {
			continue
		}
		if _, ok := spec.Headers[k]; ok {
			continue
		}
		h.Add(k, v)
	}
	for k, v := range defaults {
		h.Add(k, v)
	}
	for k, v := range spec.Headers {
		h.Add(k, v)
	}
	return h
}

func (c *Client) prepareCookies(spec *RequestSpec) string {
	merged := make(map[string]string)
	if c.jar != nil {
		for k, v := range c.jar.GetForURL(spec.URL) {
			merged[k] = v
		}
	}
	for k, v := range spec.Cookies {
		merged[k] = v
	}
	if len(merged) == 0 {
		return ""
	}
	parts := make([]string, 0, len(merged))
	for k, v := range merged {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, "; ")
}

// pickProxy resolves the proxy for one request: an explicit per-request
// override wins, then a forced client-level override, then the pool. A
// pool configured with zero currently-healthy proxies fails the request
// with *AllProxiesFailed rather than silently falling back to a direct
// connection. fromPool reports whether the pool should receive a
// success/failure report for this pick.
func (c *Client) pickProxy(spec *RequestSpec) (proxyURL string, fromPool bool, err error) {
	if spec.ProxyURL != "" {
		return spec.ProxyURL, false, nil
	}

	c.mu.Lock()
	forced := c.forcedProxy
	c.mu.Unlock()
	if forced != nil {
		return *forced, false, nil
	}

	if c.pool == nil {
		return "", false, nil
	}
	entry, ok := c.pool.GetProxy()
	if !ok {
		return "", false, &AllProxiesFailed{}
	}
	return entry.URL, true, nil
}

// cookieSolver is implemented by challenge solvers that can seed their JS
// environment with the caller's current cookies and surface back whatever
// document.cookie ends up holding after the challenge script runs.
type cookieSolver interface {
	GetCookie() (string, error)
	SetCookie(cookie string) error
}

func (c *Client) maybeSolveChallenge(ctx context.Context, spec *RequestSpec, headers *transport.OrderedHeader, proxyURL string, tresp *transport.Response) (*transport.Response, error) {
	c.mu.Lock()
	solver := c.challengeSolve
	c.mu.Unlock()
	if solver == nil || tresp.StatusCode != http.StatusServiceUnavailable {
		return tresp, nil
	}
	if !looksLikeChallenge(tresp.Body) {
		return tresp, nil
	}

	if cs, ok := solver.(cookieSolver); ok && c.jar != nil {
		if existing := c.jar.GetForURL(spec.URL); len(existing) > 0 {
			cs.SetCookie(joinCookiePairs(existing))
		}
	}

	if _, err := solver.Eval(string(tresp.Body)); err != nil {
		return tresp, nil // challenge unsolved; surface the original 503
	}

	if cs, ok := solver.(cookieSolver); ok && c.jar != nil {
		if seeded, err := cs.GetCookie(); err == nil && seeded != "" {
			for name, value := range parseCookiePairs(seeded) {
				c.jar.Set(cookiejar.Cookie{
					Name:   name,
					Value:  value,
					Domain: cookieHostOf(spec.URL),
					Path:   "/",
				})
			}
		}
	}

	if cookieHeader := c.prepareCookies(spec); cookieHeader != "" {
		headers.Set("Cookie", cookieHeader)
	}

	retried, err := c.transport.Do(ctx, &transport.Request{
		Method:   spec.Method,
		URL:      spec.URL,
		Headers:  headers,
		Body:     spec.Body,
		ProxyURL: proxyURL,
	})
	if err != nil {
		return tresp, nil
	}
	return retried, nil
}

// joinCookiePairs formats a name->value map as a semicolon-joined cookie
// string, the format document.cookie expects when seeding a solver's JS
// environment before a challenge runs.
func joinCookiePairs(cookies map[string]string) string {
	parts := make([]string, 0, len(cookies))
	for name, value := range cookies {
		parts = append(parts, fmt.Sprintf("%s=%s", name, value))
	}
	return strings.Join(parts, "; ")
}

// parseCookiePairs parses a "name=value; name2=value2" cookie string, the
// format document.cookie yields after a challenge script seeds cookies.
func parseCookiePairs(s string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		name := strings.TrimSpace(kv[0])
		if name == "" {
			continue
		}
		out[name] = strings.TrimSpace(kv[1])
	}
	return out
}

func looksLikeChallenge(body []byte) bool {
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "jschl") || strings.Contains(lower, "challenge-form")
}

// parseSetCookies parses every Set-Cookie header into a cookiejar.Cookie,
// preserving Domain/Path/Secure/HttpOnly/Expires rather than flattening to
// a bare name/value pair. A cookie with no explicit Domain attribute is
// scoped to the response URL's host, matching browser behaviour.
func parseSetCookies(h http.Header, requestURL string) []cookiejar.Cookie {
	resp := &http.Response{Header: h}
	httpCookies := resp.Cookies()
	out := make([]cookiejar.Cookie, 0, len(httpCookies))
	for _, ck := range httpCookies {
		domain := ck.Domain
		if domain == "" {
			domain = cookieHostOf(requestURL)
		}
		path := ck.Path
		if path == "" {
			path = "/"
		}
		jc := cookiejar.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   domain,
			Path:     path,
			Secure:   ck.Secure,
			HTTPOnly: ck.HttpOnly,
		}
		if !ck.Expires.IsZero() {
			exp := ck.Expires
			jc.Expires = &exp
		}
		out = append(out, jc)
	}
	return out
}

// cookieHostOf returns the lowercased host (including port, if any) of
// rawURL, matching the convention cookiejar itself uses for a cookie's
// default domain.
func cookieHostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// SetDefaultHeader sets a header sent on every request unless a per-request
// option overrides it.
func (c *Client) SetDefaultHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultHeaders[key] = value
}

// RemoveDefaultHeader removes a previously-set default header.
func (c *Client) RemoveDefaultHeader(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.defaultHeaders, key)
}

// ClearDefaultHeaders removes every default header.
func (c *Client) ClearDefaultHeaders() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultHeaders = make(map[string]string)
}

// Cookies returns a snapshot of every stored cookie, organized by domain.
// Returns nil if the client was not constructed with PersistCookies.
func (c *Client) Cookies() map[string]map[string]string {
	if c.jar == nil {
		return nil
	}
	return c.jar.GetAll()
}

// ClearCookies clears cookies for domain, or every cookie if domain is empty.
func (c *Client) ClearCookies(domain string) {
	if c.jar == nil {
		return
	}
	if domain == "" {
		c.jar.ClearAll()
		return
	}
	c.jar.ClearDomain(domain)
}

// SetProxy pins every subsequent request to proxyURL, bypassing the pool's
// rotation until ResetProxy or SwitchProxy is called.
func (c *Client) SetProxy(proxyURL string) error {
	if err := proxypool.ValidateURL(proxyURL); err != nil {
		return &ProxyConfigurationError{URL: proxyURL, Reason: err.Error()}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forcedProxy = &proxyURL
	return nil
}

// SwitchProxy clears any pinned proxy, letting the pool's rotation strategy
// pick the next one.
func (c *Client) SwitchProxy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forcedProxy = nil
}

// ResetProxy clears any pinned proxy and resets the pool's health state,
// re-enabling every proxy and zeroing its statistics.
func (c *Client) ResetProxy() {
	c.mu.Lock()
	c.forcedProxy = nil
	c.mu.Unlock()
	if c.pool != nil {
		c.pool.ResetAll()
	}
}

// ProxyStats returns the proxy pool's current health snapshot. The second
// return value is false if the client has no pool configured.
func (c *Client) ProxyStats() (proxypool.Stats, bool) {
	if c.pool == nil {
		return proxypool.Stats{}, false
	}
	return c.pool.GetStats(), true
}

// Pool returns the client's underlying proxy pool, or nil if none is
// configured. Exposed for ambient infrastructure (the dashboard) that
// reports pool health directly; request execution never needs this.
func (c *Client) Pool() *proxypool.Pool {
	return c.pool
}

func (c *Client) lastResp() (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastResponse == nil {
		return nil, &NoResponseError{}
	}
	return c.lastResponse, nil
}

// LastStatusCode returns the status code of the most recently completed
// response.
func (c *Client) LastStatusCode() (int, error) {
	r, err := c.lastResp()
	if err != nil {
		return 0, err
	}
	return r.StatusCode, nil
}

// LastHeaders returns the headers of the most recently completed response.
func (c *Client) LastHeaders() (http.Header, error) {
	r, err := c.lastResp()
	if err != nil {
		return nil, err
	}
	return r.Headers, nil
}

// LastCookies returns the cookies set by the most recently completed
// response.
func (c *Client) LastCookies() (map[string]string, error) {
	r, err := c.lastResp()
	if err != nil {
		return nil, err
	}
	return r.Cookies, nil
}

// LastElapsed returns the wall-clock duration of the most recently
// completed response.
func (c *Client) LastElapsed() (time.Duration, error) {
	r, err := c.lastResp()
	if err != nil {
		return 0, err
	}
	return r.Elapsed, nil
}

// LastContentLength returns the body length of the most recently completed
// response.
func (c *Client) LastContentLength() (int, error) {
	r, err := c.lastResp()
	if err != nil {
		return 0, err
	}
	return r.ContentLength(), nil
}

// LastBandwidth returns bytes/second for the most recently completed
// response, 0 when elapsed is 0.
func (c *Client) LastBandwidth() (float64, error) {
	r, err := c.lastResp()
	if err != nil {
		return 0, err
	}
	return r.BandwidthBytesPerSec(), nil
}
