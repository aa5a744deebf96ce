package scraper

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/firasghr/stealthscraper/payload"
	"github.com/firasghr/stealthscraper/transport"
)

// Response is the HTTP response surface returned by every Client verb
// method. It wraps a transport.Response with cookie extraction and the
// convenience helpers spec §6 names on "the last response".
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	URL        string
	Cookies    map[string]string
	Elapsed    time.Duration
	Request    *RequestSpec
}

// Text decodes Body as UTF-8, replacing invalid sequences rather than
// failing, matching models.py's Response.text property.
func (r *Response) Text() string {
	return strings.ToValidUTF8(string(r.Body), "�")
}

// JSON decodes Body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// OK reports whether StatusCode is in [200, 300).
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RaiseForStatus returns an *HTTPError if the response is not OK.
func (r *Response) RaiseForStatus() error {
	if r.OK() {
		return nil
	}
	return &HTTPError{StatusCode: r.StatusCode, URL: r.URL}
}

// ContentLength returns the length of Body in bytes.
func (r *Response) ContentLength() int {
	return len(r.Body)
}

// BandwidthBytesPerSec returns len(Body)/Elapsed, or 0 when Elapsed is 0 to
// avoid a division by zero (matches models.py's documented bandwidth
// calculation, which the teacher distillation folds into this helper).
func (r *Response) BandwidthBytesPerSec() float64 {
	secs := r.Elapsed.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(len(r.Body)) / secs
}

// ValidateSchema compares Body's JSON shape against v's learned baseline,
// learning the baseline automatically on the first call. An opt-in helper;
// no Client operation invokes it implicitly.
func (r *Response) ValidateSchema(v *payload.Validator) ([]payload.Mismatch, error) {
	return v.Validate(r.Body)
}

func responseFromTransport(tr *transport.Response, spec *RequestSpec, cookies map[string]string) *Response {
	return &Response{
		StatusCode: tr.StatusCode,
		Headers:    tr.Headers,
		Body:       tr.Body,
		URL:        tr.URL,
		Cookies:    cookies,
		Elapsed:    tr.Elapsed,
		Request:    spec,
	}
}
