package scraper

import (
	"io"
	"net/url"
	"testing"
	"time"
)

func TestWithHeader(t *testing.T) {
	spec := &RequestSpec{}
	WithHeader("X-Test", "1")(spec)
	if spec.Headers["X-Test"] != "1" {
		t.Errorf("got %v, want X-Test=1", spec.Headers)
	}
}

func TestWithHeaders_MergeCallerWins(t *testing.T) {
	spec := &RequestSpec{Headers: map[string]string{"A": "orig"}}
	WithHeaders(map[string]string{"A": "override", "B": "new"})(spec)
	if spec.Headers["A"] != "override" || spec.Headers["B"] != "new" {
		t.Errorf("got %v", spec.Headers)
	}
}

func TestWithQuery(t *testing.T) {
	spec := &RequestSpec{}
	WithQuery(map[string]string{"q": "go"})(spec)
	if spec.Query["q"] != "go" {
		t.Errorf("got %v", spec.Query)
	}
}

func TestWithJSON(t *testing.T) {
	spec := &RequestSpec{}
	WithJSON(map[string]string{"hello": "world"})(spec)
	if spec.ContentType != "application/json" {
		t.Errorf("got content type %q, want application/json", spec.ContentType)
	}
	body, err := io.ReadAll(spec.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != `{"hello":"world"}` {
		t.Errorf("got body %s", body)
	}
}

func TestWithJSON_MarshalErrorDeferred(t *testing.T) {
	spec := &RequestSpec{}
	WithJSON(func() {})(spec) // funcs are not JSON-marshalable
	if spec.Body == nil {
		t.Fatal("expected a body reader even on marshal failure")
	}
	_, err := io.ReadAll(spec.Body)
	if err == nil {
		t.Error("expected reading the deferred error body to fail")
	}
}

func TestWithForm(t *testing.T) {
	spec := &RequestSpec{}
	WithForm(url.Values{"a": {"1"}})(spec)
	if spec.ContentType != "application/x-www-form-urlencoded" {
		t.Errorf("got %q", spec.ContentType)
	}
	body, _ := io.ReadAll(spec.Body)
	if string(body) != "a=1" {
		t.Errorf("got body %s", body)
	}
}

func TestWithCookie(t *testing.T) {
	spec := &RequestSpec{}
	WithCookie("session", "abc")(spec)
	if spec.Cookies["session"] != "abc" {
		t.Errorf("got %v", spec.Cookies)
	}
}

func TestWithTimeoutProxyStealth(t *testing.T) {
	spec := &RequestSpec{}
	WithTimeout(5 * time.Second)(spec)
	WithProxy("http://proxy.example:8080")(spec)
	WithStealth(true)(spec)
	if spec.Timeout != 5*time.Second {
		t.Errorf("got timeout %v", spec.Timeout)
	}
	if spec.ProxyURL != "http://proxy.example:8080" {
		t.Errorf("got proxy %v", spec.ProxyURL)
	}
	if spec.Stealth == nil || !*spec.Stealth {
		t.Errorf("got stealth %v", spec.Stealth)
	}
}

func TestWithNonBlockingRateLimit(t *testing.T) {
	spec := &RequestSpec{}
	WithNonBlockingRateLimit()(spec)
	if !spec.NonBlocking {
		t.Error("expected NonBlocking to be true")
	}
}

func TestWithAPIHeaders(t *testing.T) {
	spec := &RequestSpec{}
	WithAPIHeaders()(spec)
	if spec.Headers["Accept"] != "application/json" {
		t.Errorf("got %v", spec.Headers)
	}
	if spec.Headers["Content-Type"] != "application/json" {
		t.Errorf("got %v", spec.Headers)
	}
}
