package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
)

// StealthConfig configures a StealthTransport. Values that describe "what
// client to impersonate" (HelloID, H2 SETTINGS) come from a fingerprint
// profile; transport itself has no notion of profiles, it just dials and
// negotiates the way it is told to.
type StealthConfig struct {
	HelloID         utls.ClientHelloID
	HeaderTableSize uint32 // 0 uses defaultH2Settings
	InitialWindow   int32
	ConnWindow      int32
	MaxHeaderList   uint32
	IdleConnTimeout time.Duration
	Timeout         time.Duration // overall per-request timeout; 0 means none beyond ctx
}

// StealthTransport executes requests over a uTLS-impersonated TLS
// connection negotiated to HTTP/2, preserving caller-supplied header
// ordering and casing exactly.
type StealthTransport struct {
	cfg      StealthConfig
	settings stealthH2Settings
	helloID  utls.ClientHelloID

	mu      sync.Mutex
	clients map[string]*http.Client // keyed by proxy URL, "" is the direct client
}

// NewStealthTransport builds a StealthTransport from cfg.
func NewStealthTransport(cfg StealthConfig) *StealthTransport {
	settings := defaultH2Settings
	if cfg.HeaderTableSize != 0 {
		settings.HeaderTableSize = cfg.HeaderTableSize
	}
	if cfg.InitialWindow != 0 {
		settings.InitialWindowSize = cfg.InitialWindow
	}
	if cfg.ConnWindow != 0 {
		settings.ConnWindowSize = cfg.ConnWindow
	}
	if cfg.MaxHeaderList != 0 {
		settings.MaxHeaderListSize = cfg.MaxHeaderList
	}
	helloID := cfg.HelloID
	if helloID == (utls.ClientHelloID{}) {
		helloID = utls.HelloChrome_Auto
	}

	return &StealthTransport{
		cfg:      cfg,
		settings: settings,
		helloID:  helloID,
		clients:  make(map[string]*http.Client),
	}
}

// clientFor returns the http.Client wired for proxyURL ("" for direct),
// building and caching it on first use.
func (t *StealthTransport) clientFor(proxyURL string) (*http.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.clients[proxyURL]; ok {
		return c, nil
	}

	var parsed *url.URL
	if proxyURL != "" {
		var err error
		parsed, err = url.Parse(proxyURL)
		if err != nil {
			return nil, &Error{Op: "parse-proxy", URL: proxyURL, Err: err}
		}
	}

	rt := newStealthH2Transport(t.helloID, t.settings, t.cfg.IdleConnTimeout, parsed)
	c := &http.Client{
		Transport: rt,
		Timeout:   t.cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	t.clients[proxyURL] = c
	return c, nil
}

// Do executes req, translating dial/handshake/I-O failures into *Error and
// returning a populated Response (including Elapsed and the final,
// post-redirect URL) on success.
func (t *StealthTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	client, err := t.clientFor(req.ProxyURL)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader = req.Body
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, &Error{Op: "build-request", URL: req.URL, Err: err}
	}
	if req.Headers != nil {
		req.Headers.ApplyToRequest(httpReq)
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
func (t *StealthTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.clients {
		if rt, ok := c.Transport.(interface{ CloseIdleConnections() }); ok {
			rt.CloseIdleConnections()
		}
	}
	return nil
}

var _ Transport = (*StealthTransport)(nil)
