// stealthscraper is a concurrent, fingerprint-aware HTTP scraping engine.
//
// Startup sequence:
//  1. Load configuration (JSON file or defaults).
//  2. Initialise logger and metrics.
//  3. Build the scraper client (transport, rate limiter, cookie jar, proxy
//     pool, retry engine all wired from the one config).
//  4. Start the dashboard server.
//  5. Gather the configured target URLs on a repeating interval.
//  6. Block until OS signals SIGINT or SIGTERM, then perform a clean
//     shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firasghr/stealthscraper/config"
	"github.com/firasghr/stealthscraper/dashboard"
	"github.com/firasghr/stealthscraper/logger"
	"github.com/firasghr/stealthscraper/metrics"
	"github.com/firasghr/stealthscraper/proxypool"
	"github.com/firasghr/stealthscraper/scraper"
)

func main() {
	// ── Flags ──────────────────────────────────────────────────────────────
	configFile := flag.String("config", "", "Path to JSON config file (optional; uses defaults if omitted)")
	dashboardAddr := flag.String("dashboard", ":8080", "Address for the real-time dashboard HTTP server (e.g. :8080)")
	interval := flag.Duration("interval", 30*time.Second, "Time between successive batches against the configured target URLs")
	flag.Parse()

	// ── Logger ─────────────────────────────────────────────────────────────
	log := logger.New(logger.LevelInfo)
	log.Info("stealthscraper starting up")

	// ── Configuration ──────────────────────────────────────────────────────
	var cfg *config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			log.Errorf("failed to load config from %q: %v", *configFile, err)
			os.Exit(1)
		}
		log.Infof("configuration loaded from %q", *configFile)
	} else {
		cfg = config.DefaultConfig()
		log.Info("using default configuration")
	}

	proxies := cfg.Proxies
	if len(proxies) == 0 && cfg.ProxyFile != "" {
		loaded, err := loadProxyFile(cfg.ProxyFile)
		if err != nil {
			log.Errorf("failed to load proxies from %q: %v", cfg.ProxyFile, err)
			os.Exit(1)
		}
		proxies = loaded
		log.Infof("loaded %d proxies from %q", len(proxies), cfg.ProxyFile)
	}

	// ── Metrics ────────────────────────────────────────────────────────────
	m := metrics.NewMetrics()
	promReg := metrics.NewRegistry()

	// ── Scraper client ─────────────────────────────────────────────────────
	client, err := scraper.NewClient(scraper.Config{
		Mode:               scraper.Mode(cfg.Mode),
		Profile:            cfg.Profile,
		PersistCookies:     cfg.PersistCookies,
		RateLimit:          cfg.RateLimit,
		DomainRateLimit:    cfg.DomainRateLimit,
		GlobalRateLimit:    cfg.GlobalRateLimit,
		Timeout:            cfg.Timeout,
		ConnectTimeout:     cfg.ConnectTimeout,
		Retries:            cfg.Retries,
		RetryCodes:         cfg.RetryCodeSet(),
		RetryBackoffBase:   cfg.RetryBackoffBase,
		Proxies:            proxies,
		ProxyStrategy:      proxypool.Strategy(cfg.ProxyStrategy),
		ProxyMaxFailures:   cfg.ProxyMaxFailures,
		ProxyCooldown:      cfg.ProxyCooldown,
		DefaultConcurrency: cfg.DefaultConcurrency,
		MinDelay:           cfg.MinDelay,
		MaxDelay:           cfg.MaxDelay,
		DefaultHeaders:     cfg.DefaultHeaders,
		InsecureSkipVerify: !cfg.VerifySSL,
		DisableRedirects:   !cfg.FollowRedirects,
		MaxRedirects:       cfg.MaxRedirects,
		ForceHTTP1:         cfg.HTTPVersion == "1.1",
		OnRetry:            promReg.ObserveRetry,
		OnRateLimitWait: func(d time.Duration) {
			promReg.RateLimitWait.Observe(d.Seconds())
		},
	})
	if err != nil {
		log.Errorf("failed to build scraper client: %v", err)
		os.Exit(1)
	}
	defer client.Close()

	// ── Dashboard server ───────────────────────────────────────────────────
	dash := dashboard.New(m, promReg, cfg, client.Pool())
	go func() {
		if err := dash.ListenAndServe(*dashboardAddr); err != nil {
			log.Errorf("dashboard server error: %v", err)
		}
	}()
	log.Infof("dashboard server starting on %s", *dashboardAddr)

	// ── Batch loop ─────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		runBatchLoop(ctx, client, cfg, m, promReg, log, dash, *interval)
	}()

	// ── Graceful shutdown ──────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	fmt.Println() // newline after ^C
	log.Infof("received signal %s; shutting down", sig)
	dash.AddLog("INFO", fmt.Sprintf("received signal %s; shutting down", sig))

	cancel()
	<-done

	total, success, failed := m.Snapshot()
	log.Infof("final metrics – total: %d | success: %d | failed: %d | rps: %.1f",
		total, success, failed, m.RequestsPerSecond())
	log.Info("stealthscraper shut down cleanly")
}

// runBatchLoop gathers cfg.TargetURLs every interval until ctx is cancelled,
// updating metrics and the dashboard's cookie-jar gauge after each round.
func runBatchLoop(ctx context.Context, client *scraper.Client, cfg *config.Config, m *metrics.Metrics, promReg *metrics.Registry, log *logger.Logger, dash *dashboard.Server, interval time.Duration) {
	if len(cfg.TargetURLs) == 0 {
		log.Info("no target_urls configured; batch loop idle")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce := func() {
		requests := make([]scraper.BatchRequest, len(cfg.TargetURLs))
		for i, u := range cfg.TargetURLs {
			requests[i] = scraper.BatchRequest{URL: u}
		}
		result := client.Gather(ctx, requests, cfg.DefaultConcurrency, false)
		for i := range requests {
			m.IncrementTotal()
			if err, failed := result.Errors[i]; failed {
				m.IncrementFailed()
				promReg.ObserveRequest("failure")
				log.Debugf("batch request to %q failed: %v", cfg.TargetURLs[i], err)
				continue
			}
			resp := result.Responses[i]
			if resp != nil && resp.OK() {
				m.IncrementSuccess()
				promReg.ObserveRequest("success")
			} else {
				m.IncrementFailed()
				promReg.ObserveRequest("failure")
			}
		}
		if cookies := client.Cookies(); cookies != nil {
			n := 0
			for _, byDomain := range cookies {
				n += len(byDomain)
			}
			dash.SetCookieJarSize(int64(n))
		}
		if stats, ok := client.ProxyStats(); ok {
			promReg.ObserveProxyPoolStats(stats.Healthy, stats.Total)
		}
		total, success, failed := m.Snapshot()
		log.Infof("batch complete – total: %d | success: %d | failed: %d | rps: %.1f",
			total, success, failed, m.RequestsPerSecond())
	}

	runOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func loadProxyFile(path string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, err
	}
	var out []string
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := string(data[start:i])
			start = i + 1
			line = trimSpaceCR(line)
			if line == "" || line[0] == '#' {
				continue
			}
			out = append(out, line)
		}
	}
	return out, nil
}

func trimSpaceCR(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\r' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}
