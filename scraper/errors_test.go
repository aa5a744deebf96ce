package scraper

import (
	"errors"
	"testing"
)

func TestTransportError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &TransportError{URL: "http://example.com/", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if err.Error() == "" {
		t.Error("expected a non-empty error message")
	}
}

func TestRateLimitExceeded_Message(t *testing.T) {
	withRetry := &RateLimitExceeded{Domain: "example.com", RetryAfter: 2.5}
	if withRetry.Error() == "" {
		t.Error("expected non-empty message")
	}
	bare := &RateLimitExceeded{Domain: "example.com"}
	if bare.Error() == "" {
		t.Error("expected non-empty message")
	}
}

func TestAllProxiesFailed_DefaultMessage(t *testing.T) {
	e := &AllProxiesFailed{}
	if e.Error() != "scraper: all proxies in pool have failed" {
		t.Errorf("got %q", e.Error())
	}
	custom := &AllProxiesFailed{Message: "custom reason"}
	if custom.Error() != "custom reason" {
		t.Errorf("got %q", custom.Error())
	}
}

func TestNoResponseError_Message(t *testing.T) {
	e := &NoResponseError{}
	if e.Error() == "" {
		t.Error("expected non-empty message")
	}
}
