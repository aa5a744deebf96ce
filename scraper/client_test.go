package scraper

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/firasghr/stealthscraper/proxypool"
	"github.com/firasghr/stealthscraper/transport"
)

func TestClient_Get_Success(t *testing.T) {
	c, ft, err := newTestClient(Config{})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		return &transport.Response{StatusCode: 200, Headers: http.Header{}, Body: []byte("hello"), URL: req.URL, Elapsed: time.Millisecond}, nil
	}

	resp, err := c.Get(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != 200 || resp.Text() != "hello" {
		t.Errorf("got status=%d body=%q, want 200/hello", resp.StatusCode, resp.Text())
	}
	if !resp.OK() {
		t.Error("expected OK() true for 200")
	}
	if ft.callCount() != 1 {
		t.Errorf("expected exactly 1 transport call, got %d", ft.callCount())
	}
}

func TestClient_SpeedModeAppliesMinimalHeadersByDefault(t *testing.T) {
	c, ft, err := newTestClient(Config{})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	var seen *transport.Request
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		seen = req
		return textResponse(200, "ok")
	}

	if _, err := c.Get(context.Background(), "http://example.com/"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if seen.Headers.Get("Accept") != "*/*" {
		t.Errorf("expected minimal Accept header, got %q", seen.Headers.Get("Accept"))
	}
	if seen.Headers.Get("User-Agent") == "" {
		t.Error("expected a default User-Agent to be set")
	}
}

func TestClient_SpeedModeCallerHeaderOverridesMinimal(t *testing.T) {
	c, ft, err := newTestClient(Config{})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	var seen *transport.Request
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		seen = req
		return textResponse(200, "ok")
	}

	if _, err := c.Get(context.Background(), "http://example.com/", WithHeader("Accept", "text/html")); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if seen.Headers.Get("Accept") != "text/html" {
		t.Errorf("expected caller header to win, got %q", seen.Headers.Get("Accept"))
	}
}

func TestClient_OnRetryFiresOncePerRetryAndRunsInstantly(t *testing.T) {
	var retries int
	c, ft, err := newTestClient(Config{Retries: 2, OnRetry: func() { retries++ }})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		if n < 2 {
			return textResponse(503, "try again")
		}
		return textResponse(200, "ok")
	}

	start := time.Now()
	resp, err := c.Get(context.Background(), "http://example.com/")
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("got status %d, want 200", resp.StatusCode)
	}
	if retries != 2 {
		t.Errorf("expected OnRetry called twice, got %d", retries)
	}
	// The real backoff for 2 retries would be 1s+2s=3s; newTestClient swaps
	// c.sleep to a no-op, so this must stay well under that.
	if elapsed > 200*time.Millisecond {
		t.Errorf("expected retry backoff to be skipped via the fake sleep, took %v", elapsed)
	}
}

func TestClient_CanceledContextAbandonsRateLimitWaitWithoutCallingTransport(t *testing.T) {
	c, ft, err := newTestClient(Config{RateLimit: 1})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		return textResponse(200, "ok")
	}

	// Exhaust the per-domain bucket so the next Acquire would block.
	if _, err := c.Get(context.Background(), "http://example.com/"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Get(ctx, "http://example.com/"); err == nil {
		t.Error("expected an error when the context is already canceled while waiting on the rate limiter")
	}
	if ft.callCount() != 1 {
		t.Errorf("expected the canceled wait to abandon before reaching the transport, got %d calls", ft.callCount())
	}
}

func TestClient_OnRateLimitWaitFiresPerRequest(t *testing.T) {
	var waits int
	c, ft, err := newTestClient(Config{OnRateLimitWait: func(time.Duration) { waits++ }})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		return textResponse(200, "ok")
	}

	if _, err := c.Get(context.Background(), "http://example.com/"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if waits != 1 {
		t.Errorf("expected OnRateLimitWait called once, got %d", waits)
	}
}

func TestClient_RetryOn503ThenSuccess(t *testing.T) {
	c, ft, err := newTestClient(Config{Retries: 2})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		if n == 0 {
			return textResponse(503, "try again")
		}
		return textResponse(200, "ok")
	}

	resp, err := c.Get(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("got status %d, want 200 after retry", resp.StatusCode)
	}
	if ft.callCount() != 2 {
		t.Errorf("expected 2 attempts, got %d", ft.callCount())
	}
}

func TestClient_RetryExhausted(t *testing.T) {
	c, ft, err := newTestClient(Config{Retries: 1})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		return textResponse(503, "down")
	}

	resp, err := c.Get(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("final attempt's 503 should be returned as a response, got status %d", resp.StatusCode)
	}
	if ft.callCount() != 2 {
		t.Errorf("expected 1+Retries=2 attempts, got %d", ft.callCount())
	}
}

func TestClient_TransportErrorExhausted(t *testing.T) {
	c, ft, err := newTestClient(Config{Retries: 1})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	boom := errors.New("connection refused")
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		return nil, &transport.Error{Op: "dial", URL: req.URL, Err: boom}
	}

	_, err = c.Get(context.Background(), "http://example.com/")
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error chain to reach %v, got %v", boom, err)
	}
}

func TestClient_CookieRoundTrip(t *testing.T) {
	c, ft, err := newTestClient(Config{PersistCookies: true})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}

	var sawCookieHeader string
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		if n == 0 {
			h := http.Header{}
			h.Add("Set-Cookie", "session=abc123; Path=/")
			return &transport.Response{StatusCode: 200, Headers: h, Body: []byte("ok"), URL: req.URL, Elapsed: time.Millisecond}, nil
		}
		sawCookieHeader = req.Headers.Get("Cookie")
		return textResponse(200, "ok2")
	}

	ctx := context.Background()
	if _, err := c.Get(ctx, "http://example.com/login"); err != nil {
		t.Fatalf("first Get: %v", err)
	}
	cookies := c.Cookies()
	if cookies["example.com"]["session"] != "abc123" {
		t.Fatalf("expected jar to hold session=abc123, got %v", cookies)
	}

	if _, err := c.Get(ctx, "http://example.com/profile"); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if sawCookieHeader != "session=abc123" {
		t.Errorf("expected Cookie header %q on second request, got %q", "session=abc123", sawCookieHeader)
	}
}

func TestClient_SecureCookieWithheldOverHTTP(t *testing.T) {
	c, ft, err := newTestClient(Config{PersistCookies: true})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}

	var sawCookieHeader string
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		if n == 0 {
			h := http.Header{}
			h.Add("Set-Cookie", "token=secret; Secure; Path=/")
			return &transport.Response{StatusCode: 200, Headers: h, Body: []byte("ok"), URL: req.URL, Elapsed: time.Millisecond}, nil
		}
		sawCookieHeader = req.Headers.Get("Cookie")
		return textResponse(200, "ok2")
	}

	ctx := context.Background()
	if _, err := c.Get(ctx, "https://example.com/login"); err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if _, err := c.Get(ctx, "http://example.com/profile"); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if sawCookieHeader != "" {
		t.Errorf("secure cookie must not be sent over plain http, got Cookie header %q", sawCookieHeader)
	}

	if _, err := c.Get(ctx, "https://example.com/profile"); err != nil {
		t.Fatalf("third Get: %v", err)
	}
	if sawCookieHeader != "token=secret" {
		t.Errorf("secure cookie should be sent over https, got %q", sawCookieHeader)
	}
}

func TestClient_ProxyFailover(t *testing.T) {
	proxies := []string{"http://p1.invalid:8080", "http://p2.invalid:8080"}
	c, ft, err := newTestClient(Config{
		Retries:          0,
		Proxies:          proxies,
		ProxyStrategy:    proxypool.RoundRobin,
		ProxyMaxFailures: 1,
		ProxyCooldown:    time.Hour,
	})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}

	boom := errors.New("refused")
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		if req.ProxyURL == proxies[0] {
			return nil, &transport.Error{Op: "dial", URL: req.URL, Err: boom}
		}
		return textResponse(200, "ok")
	}

	ctx := context.Background()
	if _, err := c.Get(ctx, "http://example.com/"); err == nil {
		t.Fatal("expected the first request (routed through the failing proxy) to error")
	}
	stats, ok := c.ProxyStats()
	if !ok {
		t.Fatal("expected a proxy pool to be configured")
	}
	if stats.Healthy != 1 || stats.Total != 2 {
		t.Errorf("expected 1 healthy of 2 total after one failure at max_failures=1, got healthy=%d total=%d", stats.Healthy, stats.Total)
	}

	resp, err := c.Get(ctx, "http://example.com/")
	if err != nil {
		t.Fatalf("second Get should fail over to the healthy proxy: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("got status %d, want 200 from the failover proxy", resp.StatusCode)
	}
}

func TestClient_AllProxiesFailed(t *testing.T) {
	proxies := []string{"http://p1.invalid:8080"}
	c, ft, err := newTestClient(Config{
		Proxies:          proxies,
		ProxyMaxFailures: 1,
		ProxyCooldown:    time.Hour,
	})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	boom := errors.New("refused")
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		return nil, &transport.Error{Op: "dial", URL: req.URL, Err: boom}
	}

	ctx := context.Background()
	if _, err := c.Get(ctx, "http://example.com/"); err == nil {
		t.Fatal("expected first request through the only proxy to fail and disable it")
	}

	_, err = c.Get(ctx, "http://example.com/")
	var apf *AllProxiesFailed
	if !errors.As(err, &apf) {
		t.Fatalf("expected *AllProxiesFailed once the pool is exhausted, got %T: %v", err, err)
	}
}

func TestClient_NonBlockingRateLimitExceeded(t *testing.T) {
	c, ft, err := newTestClient(Config{RateLimit: 1})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		return textResponse(200, "ok")
	}

	ctx := context.Background()
	if _, err := c.Get(ctx, "http://example.com/", WithNonBlockingRateLimit()); err != nil {
		t.Fatalf("first request should consume the single burst token: %v", err)
	}
	_, err = c.Get(ctx, "http://example.com/", WithNonBlockingRateLimit())
	var rle *RateLimitExceeded
	if !errors.As(err, &rle) {
		t.Fatalf("expected *RateLimitExceeded on the second non-blocking request, got %v", err)
	}
}

func TestClient_SetProxyOverridesPool(t *testing.T) {
	c, ft, err := newTestClient(Config{
		Proxies: []string{"http://pool-proxy.invalid:8080"},
	})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		return textResponse(200, req.ProxyURL)
	}

	if err := c.SetProxy("http://pinned.invalid:9090"); err != nil {
		t.Fatalf("SetProxy: %v", err)
	}
	resp, err := c.Get(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Text() != "http://pinned.invalid:9090" {
		t.Errorf("expected pinned proxy to override the pool, got %q", resp.Text())
	}

	c.SwitchProxy()
	resp, err = c.Get(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Get after SwitchProxy: %v", err)
	}
	if resp.Text() != "http://pool-proxy.invalid:8080" {
		t.Errorf("expected pool rotation to resume after SwitchProxy, got %q", resp.Text())
	}
}

func TestClient_LastResponseAccessorsBeforeAnyRequest(t *testing.T) {
	c, _, err := newTestClient(Config{})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	if _, err := c.LastStatusCode(); err == nil {
		t.Error("expected NoResponseError before any request completes")
	}
	var nre *NoResponseError
	if _, err := c.LastStatusCode(); !errors.As(err, &nre) {
		t.Errorf("expected *NoResponseError, got %T", err)
	}
}

func TestClient_LastResponseAccessorsAfterRequest(t *testing.T) {
	c, ft, err := newTestClient(Config{})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		h := http.Header{}
		h.Add("X-Test", "1")
		return &transport.Response{StatusCode: 201, Headers: h, Body: []byte("12345"), URL: req.URL, Elapsed: time.Second}, nil
	}

	if _, err := c.Get(context.Background(), "http://example.com/"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	code, err := c.LastStatusCode()
	if err != nil || code != 201 {
		t.Errorf("LastStatusCode = %d, %v; want 201, nil", code, err)
	}
	length, err := c.LastContentLength()
	if err != nil || length != 5 {
		t.Errorf("LastContentLength = %d, %v; want 5, nil", length, err)
	}
	bw, err := c.LastBandwidth()
	if err != nil || bw != 5.0 {
		t.Errorf("LastBandwidth = %v, %v; want 5.0, nil", bw, err)
	}
}

// fakeCookieSolver is a jschallenge.Solver that also implements cookieSolver,
// simulating a challenge script that seeds document.cookie.
type fakeCookieSolver struct {
	evalErr    error
	cookie     string
	seededWith string
}

func (f *fakeCookieSolver) Eval(script string) (string, error) {
	if f.evalErr != nil {
		return "", f.evalErr
	}
	return "", nil
}

func (f *fakeCookieSolver) GetCookie() (string, error) {
	return f.cookie, nil
}

func (f *fakeCookieSolver) SetCookie(cookie string) error {
	f.seededWith = cookie
	return nil
}

func TestClient_ChallengeSolvedSeedsCookieAndRetries(t *testing.T) {
	c, ft, err := newTestClient(Config{RetryCodes: map[int]bool{}, PersistCookies: true})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	solver := &fakeCookieSolver{cookie: "cf_clearance=abc123"}
	c.SetChallengeSolver(solver)

	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		if n == 0 {
			return &transport.Response{StatusCode: http.StatusServiceUnavailable, Headers: http.Header{}, Body: []byte("jschl_vc challenge-form")}, nil
		}
		if got := req.Headers.Get("Cookie"); got != "cf_clearance=abc123" {
			t.Errorf("retried request Cookie header = %q, want the solved cookie", got)
		}
		return &transport.Response{StatusCode: 200, Headers: http.Header{}, Body: []byte("ok")}, nil
	}

	resp, err := c.Get(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200 after challenge retry, got %d", resp.StatusCode)
	}
	if ft.callCount() != 2 {
		t.Errorf("expected 2 transport calls (initial + retry), got %d", ft.callCount())
	}

	cookies := c.jar.GetForURL("http://example.com/")
	if cookies["cf_clearance"] != "abc123" {
		t.Errorf("expected solved cookie stored in jar, got %v", cookies)
	}
}

func TestClient_ChallengeUnsolvedReturnsOriginalResponse(t *testing.T) {
	c, ft, err := newTestClient(Config{RetryCodes: map[int]bool{}})
	if err != nil {
		t.Fatalf("newTestClient: %v", err)
	}
	c.SetChallengeSolver(&fakeCookieSolver{evalErr: errors.New("syntax error")})

	ft.handler = func(n int, req *transport.Request) (*transport.Response, error) {
		return &transport.Response{StatusCode: http.StatusServiceUnavailable, Headers: http.Header{}, Body: []byte("jschl_vc challenge-form")}, nil
	}

	resp, err := c.Get(context.Background(), "http://example.com/")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected the original 503 surfaced when the challenge can't be solved, got %d", resp.StatusCode)
	}
	if ft.callCount() != 1 {
		t.Errorf("expected no retry when the challenge eval fails, got %d calls", ft.callCount())
	}
}
