package scraper

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/firasghr/stealthscraper/transport"
)

// fakeTransport is an in-memory transport.Transport used by the scraper
// tests: handler decides the outcome for the n-th call (0-indexed) against
// the request actually sent, so tests can assert on headers, proxy
// selection, and retry sequencing without touching the network.
type fakeTransport struct {
	mu      sync.Mutex
	n       int
	calls   []*transport.Request
	handler func(n int, req *transport.Request) (*transport.Response, error)
}

func (f *fakeTransport) Do(_ context.Context, req *transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	n := f.n
	f.n++
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.handler(n, req)
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

func (f *fakeTransport) call(i int) *transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

// textResponse builds a transport.Response with a simple body and no
// headers, for handlers that don't care about headers.
func textResponse(status int, body string) (*transport.Response, error) {
	return &transport.Response{
		StatusCode: status,
		Headers:    http.Header{},
		Body:       []byte(body),
		URL:        "",
		Elapsed:    time.Millisecond,
	}, nil
}

// newTestClient builds a Client via NewClient (so all the Config defaults
// and collaborator wiring run exactly as in production) and then swaps in
// a fakeTransport and no-op sleep so tests run instantly and deterministically.
func newTestClient(cfg Config) (*Client, *fakeTransport, error) {
	c, err := NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	ft := &fakeTransport{}
	c.transport = ft
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c, ft, nil
}
