package proxypool_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/firasghr/stealthscraper/proxypool"
)

func TestPool_RoundRobinExactCycling(t *testing.T) {
	p, err := proxypool.New([]string{
		"http://p1:8080", "http://p2:8080", "http://p3:8080",
	}, proxypool.Config{Strategy: proxypool.RoundRobin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var seen []string
	for i := 0; i < 6; i++ {
		e, ok := p.GetProxy()
		if !ok {
			t.Fatalf("expected a proxy at iteration %d", i)
		}
		seen = append(seen, e.URL)
	}
	want := []string{
		"http://p1:8080", "http://p2:8080", "http://p3:8080",
		"http://p1:8080", "http://p2:8080", "http://p3:8080",
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("round robin order mismatch at %d: got %s want %s", i, seen[i], want[i])
		}
	}
}

func TestPool_InvalidURLRejectedAtConstruction(t *testing.T) {
	_, err := proxypool.New([]string{"not-a-url"}, proxypool.Config{})
	if err == nil {
		t.Fatal("expected construction to fail on invalid proxy URL")
	}
	var invalidErr *proxypool.InvalidProxyURLError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidProxyURLError, got %T", err)
	}
}

// TestPool_ProxyFailover mirrors the "proxy failover" scenario: a proxy
// disabled after hitting its consecutive-failure threshold is skipped by
// GetProxy until its cooldown elapses.
func TestPool_ProxyFailover(t *testing.T) {
	p, err := proxypool.New([]string{"http://good:8080", "http://bad:8080"}, proxypool.Config{
		Strategy:    proxypool.RoundRobin,
		MaxFailures: 2,
		Cooldown:    50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.ReportFailure("http://bad:8080", errors.New("connection refused"))
	p.ReportFailure("http://bad:8080", errors.New("connection refused"))

	for i := 0; i < 4; i++ {
		e, ok := p.GetProxy()
		if !ok {
			t.Fatalf("expected a healthy proxy at iteration %d", i)
		}
		if e.URL == "http://bad:8080" {
			t.Fatalf("disabled proxy should not be selected, got %s", e.URL)
		}
	}

	time.Sleep(60 * time.Millisecond)

	sawBad := false
	for i := 0; i < 4; i++ {
		e, ok := p.GetProxy()
		if !ok {
			t.Fatalf("expected a proxy at iteration %d", i)
		}
		if e.URL == "http://bad:8080" {
			sawBad = true
		}
	}
	if !sawBad {
		t.Fatal("expected bad proxy to recover after cooldown elapsed")
	}
}

func TestPool_AllProxiesDisabledReturnsNotOK(t *testing.T) {
	p, err := proxypool.New([]string{"http://only:8080"}, proxypool.Config{MaxFailures: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.ReportFailure("http://only:8080", errors.New("boom"))

	if _, ok := p.GetProxy(); ok {
		t.Fatal("expected no proxy available once the only proxy is disabled")
	}
}

func TestPool_ReportSuccessResetsConsecutiveFailures(t *testing.T) {
	p, err := proxypool.New([]string{"http://p:8080"}, proxypool.Config{MaxFailures: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.ReportFailure("http://p:8080", errors.New("x"))
	p.ReportFailure("http://p:8080", errors.New("x"))
	p.ReportSuccess("http://p:8080", 10*time.Millisecond)

	stats := p.GetStats()
	if len(stats.Proxies) != 1 || stats.Proxies[0].ConsecutiveFailures != 0 {
		t.Fatalf("expected consecutive failures reset, got %+v", stats.Proxies)
	}
	if stats.Proxies[0].Protocol != "http" || stats.Proxies[0].Host != "p" {
		t.Fatalf("expected Protocol/Host derived from the proxy URL, got %+v", stats.Proxies[0])
	}
}

func TestPool_LeastUsedPrefersOldestLastUsed(t *testing.T) {
	p, err := proxypool.New([]string{"http://a:1", "http://b:1"}, proxypool.Config{Strategy: proxypool.LeastUsed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, ok := p.GetProxy()
	if !ok {
		t.Fatal("expected a proxy")
	}
	second, ok := p.GetProxy()
	if !ok {
		t.Fatal("expected a proxy")
	}
	if first.URL == second.URL {
		t.Fatalf("expected least-used to alternate between distinct proxies, got %s twice", first.URL)
	}
}

func TestPool_RandomStrategyUsesProvidedSource(t *testing.T) {
	p, err := proxypool.New([]string{"http://a:1", "http://b:1"}, proxypool.Config{
		Strategy: proxypool.Random,
		Rand:     rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.GetProxy(); !ok {
		t.Fatal("expected a proxy from random strategy")
	}
}

func TestPool_ForceDisableAndEnable(t *testing.T) {
	p, err := proxypool.New([]string{"http://only:1"}, proxypool.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.ForceDisable("http://only:1")
	if _, ok := p.GetProxy(); ok {
		t.Fatal("expected proxy to be unavailable after ForceDisable")
	}
	p.ForceEnable("http://only:1")
	if _, ok := p.GetProxy(); !ok {
		t.Fatal("expected proxy to be available after ForceEnable")
	}
}

func TestPool_AddAndRemoveProxy(t *testing.T) {
	p, err := proxypool.New(nil, proxypool.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.HasProxies() {
		t.Fatal("expected empty pool to report no proxies")
	}
	if err := p.AddProxy("http://new:1"); err != nil {
		t.Fatalf("unexpected error adding proxy: %v", err)
	}
	if p.TotalCount() != 1 {
		t.Fatalf("expected 1 proxy, got %d", p.TotalCount())
	}
	if !p.RemoveProxy("http://new:1") {
		t.Fatal("expected RemoveProxy to report found")
	}
	if p.HasProxies() {
		t.Fatal("expected pool to be empty after removal")
	}
}

func TestPool_ResetAllClearsFailureState(t *testing.T) {
	p, err := proxypool.New([]string{"http://a:1"}, proxypool.Config{MaxFailures: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.ReportFailure("http://a:1", errors.New("x"))
	p.ResetAll()
	if _, ok := p.GetProxy(); !ok {
		t.Fatal("expected proxy available after ResetAll")
	}
}
