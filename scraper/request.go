package scraper

import (
	"bytes"
	"encoding/json"
	"io"
	"net/url"
	"time"

	"github.com/firasghr/stealthscraper/fingerprint"
)

// RequestSpec is the fully-resolved, backend-independent description of one
// request, built up by applying a verb method's Option list.
type RequestSpec struct {
	Method      string
	URL         string
	Headers     map[string]string
	Query       map[string]string
	Body        io.Reader
	ContentType string
	Cookies     map[string]string
	Timeout     time.Duration
	ProxyURL    string
	Stealth     *bool // nil defers to the client's configured mode
	NonBlocking bool  // rate-limit acquire: false blocks, true fails fast
}

// Option customizes a single request.
type Option func(*RequestSpec)

// WithHeader sets a single header, overriding the client's default headers
// and anything a stealth profile would otherwise generate for it.
func WithHeader(key, value string) Option {
	return func(r *RequestSpec) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithHeaders merges h into the request's headers, caller values winning.
func WithHeaders(h map[string]string) Option {
	return func(r *RequestSpec) {
		if r.Headers == nil {
			r.Headers = make(map[string]string, len(h))
		}
		for k, v := range h {
			r.Headers[k] = v
		}
	}
}

// WithQuery appends params to the request URL's query string.
func WithQuery(params map[string]string) Option {
	return func(r *RequestSpec) {
		if r.Query == nil {
			r.Query = make(map[string]string, len(params))
		}
		for k, v := range params {
			r.Query[k] = v
		}
	}
}

// WithJSON marshals v as the request body and sets Content-Type to
// application/json.
func WithJSON(v any) Option {
	return func(r *RequestSpec) {
		body, err := json.Marshal(v)
		if err != nil {
			// Deferred: surfaced as a build-request failure once the
			// request actually executes, rather than panicking here.
			r.Body = errReader{err}
			return
		}
		r.Body = bytes.NewReader(body)
		r.ContentType = "application/json"
	}
}

// WithForm encodes values as application/x-www-form-urlencoded.
func WithForm(values url.Values) Option {
	return func(r *RequestSpec) {
		r.Body = bytes.NewReader([]byte(values.Encode()))
		r.ContentType = "application/x-www-form-urlencoded"
	}
}

// WithRawBody sets the request body verbatim with the given content type.
func WithRawBody(body io.Reader, contentType string) Option {
	return func(r *RequestSpec) {
		r.Body = body
		r.ContentType = contentType
	}
}

// WithCookie attaches a cookie to this request only, in addition to
// whatever the jar would otherwise send for the URL.
func WithCookie(name, value string) Option {
	return func(r *RequestSpec) {
		if r.Cookies == nil {
			r.Cookies = make(map[string]string)
		}
		r.Cookies[name] = value
	}
}

// WithTimeout bounds each attempt of this request by d. The client's
// configured Timeout still applies as well, so d can shorten it but not
// extend it.
func WithTimeout(d time.Duration) Option {
	return func(r *RequestSpec) { r.Timeout = d }
}

// WithProxy routes this request through proxyURL instead of the client's
// pool or configured default.
func WithProxy(proxyURL string) Option {
	return func(r *RequestSpec) { r.ProxyURL = proxyURL }
}

// WithStealth turns the stealth delay and profile header composition on or
// off for this request regardless of the client's configured mode. The TLS
// backend is fixed when the client is built and does not change, and a
// client built in speed mode has no profile, so there only the delay is
// affected.
func WithStealth(stealth bool) Option {
	return func(r *RequestSpec) { r.Stealth = &stealth }
}

// WithNonBlockingRateLimit makes the rate-limit acquire fail immediately
// with *RateLimitExceeded instead of blocking until a token is available.
func WithNonBlockingRateLimit() Option {
	return func(r *RequestSpec) { r.NonBlocking = true }
}

// WithAPIHeaders merges fingerprint.APIHeaders into the request, a
// shorthand for hitting JSON APIs without spelling out Accept/Content-Type
// by hand.
func WithAPIHeaders() Option {
	return WithHeaders(fingerprint.APIHeaders)
}

// errReader is an io.Reader that always returns err, used to defer a
// marshal failure from option-application time to request-execution time.
type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }
