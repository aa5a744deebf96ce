package proxypool

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

// Strategy selects which proxy to hand out next.
type Strategy string

const (
	RoundRobin Strategy = "round_robin"
	Random     Strategy = "random"
	LeastUsed  Strategy = "least_used"
)

// Pool is a thread-safe proxy pool with rotation and auto-recovery.
//
// A single mutex guards the entire entry slice and rotation index, per
// the "one mutex" shared-resource policy: get_proxy returns a snapshot
// copy of the chosen Entry so the caller cannot race with later pool
// mutations (reports, recovery, force-disable/enable).
type Pool struct {
	mu           sync.Mutex
	strategy     Strategy
	maxFailures  int
	cooldown     time.Duration
	rng          *rand.Rand
	roundRobinAt int
	entries      []*Entry
}

// Config groups Pool construction parameters.
type Config struct {
	Strategy    Strategy
	MaxFailures int           // consecutive failures before disabling; default 3
	Cooldown    time.Duration // time a disabled proxy stays disabled; default 5m
	Rand        *rand.Rand    // source for the random strategy; defaults to a fresh one
}

// New builds a Pool from an initial list of proxy URLs, eagerly validating
// every one (an invalid URL fails construction, per spec).
func New(proxyURLs []string, cfg Config) (*Pool, error) {
	if cfg.Strategy == "" {
		cfg.Strategy = RoundRobin
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	p := &Pool{
		strategy:    cfg.Strategy,
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		rng:         cfg.Rand,
	}
	for _, u := range proxyURLs {
		if err := ValidateURL(u); err != nil {
			return nil, err
		}
		p.entries = append(p.entries, &Entry{URL: u, Health: Health{Enabled: true}})
	}
	return p, nil
}

// LoadProxyFile reads a newline-delimited proxy list (blank lines and
// '#'-prefixed comments ignored) and builds a Pool from it.
func LoadProxyFile(filename string, cfg Config) (*Pool, error) {
	f, err := os.Open(filename) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("proxypool: open %q: %w", filename, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("proxypool: read %q: %w", filename, err)
	}
	return New(urls, cfg)
}

// AddProxy validates and appends a proxy, ignoring duplicates.
func (p *Pool) AddProxy(rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if e.URL == rawURL {
			return nil
		}
	}
	p.entries = append(p.entries, &Entry{URL: rawURL, Health: Health{Enabled: true}})
	return nil
}

// RemoveProxy removes a proxy by URL, reporting whether it was found.
func (p *Pool) RemoveProxy(rawURL string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.entries {
		if e.URL == rawURL {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return true
		}
	}
	return false
}

// checkRecovery re-enables entries whose cooldown has elapsed. Must be
// called with mu held.
func (p *Pool) checkRecovery() {
	now := time.Now()
	for _, e := range p.entries {
		if !e.Health.Enabled && !e.Health.DisabledUntil.After(now) {
			e.Health.Enabled = true
			e.Health.ConsecutiveFailures = 0
		}
	}
}

// available returns the currently enabled entries. Must be called with
// mu held, after checkRecovery.
func (p *Pool) available() []*Entry {
	var out []*Entry
	for _, e := range p.entries {
		if e.Health.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// GetProxy selects the next proxy per the configured strategy, stamps its
// LastUsed/TotalRequests, and returns a snapshot copy so the caller cannot
// race with subsequent pool mutations. Returns (Entry{}, false) if no
// proxy is currently available.
func (p *Pool) GetProxy() (Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.checkRecovery()
	avail := p.available()
	if len(avail) == 0 {
		return Entry{}, false
	}

	var chosen *Entry
	switch p.strategy {
	case Random:
		chosen = avail[p.rng.Intn(len(avail))]
	case LeastUsed:
		chosen = avail[0]
		for _, e := range avail[1:] {
			if e.Health.LastUsed.Before(chosen.Health.LastUsed) {
				chosen = e
			}
		}
	default: // RoundRobin
		chosen = avail[p.roundRobinAt%len(avail)]
		p.roundRobinAt = (p.roundRobinAt + 1) % len(avail)
	}

	chosen.Health.LastUsed = time.Now()
	chosen.Health.TotalRequests++

	snapshot := *chosen
	return snapshot, true
}

func (p *Pool) find(proxyURL string) *Entry {
	for _, e := range p.entries {
		if e.URL == proxyURL {
			return e
		}
	}
	return nil
}

// ReportSuccess resets consecutive failures for the named proxy and
// records a response-time sample.
func (p *Pool) ReportSuccess(proxyURL string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.find(proxyURL)
	if e == nil {
		return
	}
	e.Health.ConsecutiveFailures = 0
	e.Health.LastSuccess = time.Now()
	e.Health.RecordResponseTime(elapsed)
}

// ReportFailure records a failure against the named proxy and, once
// consecutive failures reach the configured threshold, disables it for
// the cooldown duration.
func (p *Pool) ReportFailure(proxyURL string, cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.find(proxyURL)
	if e == nil {
		return
	}
	e.Health.ConsecutiveFailures++
	e.Health.TotalFailures++
	e.Health.LastFailure = time.Now()
	if cause != nil {
		e.Health.LastError = cause.Error()
	}
	if e.Health.ConsecutiveFailures >= p.maxFailures {
		e.Health.Enabled = false
		e.Health.DisabledUntil = time.Now().Add(p.cooldown)
	}
}

// ForceDisable immediately disables a proxy for the cooldown duration.
func (p *Pool) ForceDisable(proxyURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e := p.find(proxyURL); e != nil {
		e.Health.Enabled = false
		e.Health.DisabledUntil = time.Now().Add(p.cooldown)
	}
}

// ForceEnable immediately re-enables a proxy, clearing its failure state.
func (p *Pool) ForceEnable(proxyURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e := p.find(proxyURL); e != nil {
		e.Health.Enabled = true
		e.Health.ConsecutiveFailures = 0
		e.Health.DisabledUntil = time.Time{}
	}
}

// ResetAll re-enables every proxy and clears all statistics.
func (p *Pool) ResetAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		e.Health = Health{Enabled: true}
	}
	p.roundRobinAt = 0
}

// AvailableCount returns how many proxies are currently enabled.
func (p *Pool) AvailableCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkRecovery()
	return len(p.available())
}

// TotalCount returns the total number of proxies in the pool.
func (p *Pool) TotalCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// HasProxies reports whether the pool has any proxies configured.
func (p *Pool) HasProxies() bool {
	return p.TotalCount() > 0
}

// Stats is a point-in-time snapshot of pool-wide statistics.
type Stats struct {
	Total    int
	Healthy  int
	Disabled int
	Strategy Strategy
	Proxies  []ProxyStats
}

// ProxyStats summarizes one proxy's health for reporting.
type ProxyStats struct {
	URL                 string
	Protocol            string
	Host                string
	Enabled             bool
	ConsecutiveFailures int
	SuccessRate         float64
	AverageResponseTime time.Duration
}

// GetStats returns a snapshot of the pool's current state.
func (p *Pool) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkRecovery()

	stats := Stats{Total: len(p.entries), Strategy: p.strategy}
	for _, e := range p.entries {
		if e.Health.Enabled {
			stats.Healthy++
		}
		stats.Proxies = append(stats.Proxies, ProxyStats{
			URL:                 e.URL,
			Protocol:            e.Protocol(),
			Host:                e.Host(),
			Enabled:             e.Health.Enabled,
			ConsecutiveFailures: e.Health.ConsecutiveFailures,
			SuccessRate:         e.Health.SuccessRate(),
			AverageResponseTime: e.Health.AverageResponseTime(),
		})
	}
	stats.Disabled = stats.Total - stats.Healthy
	return stats
}
