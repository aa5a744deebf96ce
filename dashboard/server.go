// Package dashboard provides a real-time HTTP dashboard server for the
// scraper.
//
// It exposes:
//   - GET  /api/metrics/stream  – SSE stream of live metrics (100 ms ticks)
//   - GET  /api/logs/stream     – SSE stream of log entries
//   - GET  /api/config          – current scraper configuration (JSON)
//   - POST /api/config          – hot-reload selected config fields (JSON body)
//   - GET  /api/proxies         – proxy pool health snapshot (JSON)
//   - POST /api/proxy           – upload a new proxy list (multipart file)
//   - GET  /metrics             – Prometheus text exposition (if a Registry is given)
//
// All SSE endpoints set appropriate headers so browsers can use EventSource
// without any additional libraries. CORS is wide-open so a separate frontend
// dev server can reach the Go backend.
package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/firasghr/stealthscraper/config"
	"github.com/firasghr/stealthscraper/metrics"
	"github.com/firasghr/stealthscraper/proxypool"
)

// ─── Data Types ───────────────────────────────────────────────────────────────

// MetricsSnapshot is the JSON payload pushed to dashboard clients every tick.
type MetricsSnapshot struct {
	Timestamp     int64   `json:"timestamp"`
	Total         uint64  `json:"total"`
	Success       uint64  `json:"success"`
	Failed        uint64  `json:"failed"`
	RPS           float64 `json:"rps"`
	CookieJarSize int64   `json:"cookie_jar_size"`
	ProxiesTotal  int     `json:"proxies_total"`
	ProxiesHealthy int    `json:"proxies_healthy"`
}

// LogEntry is a structured log line streamed to the dashboard.
type LogEntry struct {
	Timestamp int64  `json:"ts"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// ConfigPayload is the subset of Config fields exposed by /api/config. A POST
// applies only rate_limit, retries, max_workers and target_urls; mode and
// profile are reported but not changed.
type ConfigPayload struct {
	Mode             string  `json:"mode"`
	Profile          string  `json:"profile"`
	RateLimit        float64 `json:"rate_limit"`
	Retries          int     `json:"retries"`
	MaxWorkers       int     `json:"max_workers"`
	TargetURLs       []string `json:"target_urls"`
}

// ─── Server ───────────────────────────────────────────────────────────────────

// Server provides HTTP endpoints consumed by a dashboard frontend.
type Server struct {
	metrics *metrics.Metrics
	promReg *metrics.Registry // nil disables the /metrics endpoint
	cfg     *config.Config
	pool    *proxypool.Pool // nil if the client runs without a proxy pool
	cfgMu   sync.RWMutex

	cookieJarSize atomic.Int64

	logMu    sync.Mutex
	logs     []LogEntry
	logSubs  map[chan LogEntry]struct{}
	logSubMu sync.Mutex

	metricsSubs  map[chan MetricsSnapshot]struct{}
	metricsSubMu sync.Mutex

	mux *http.ServeMux
}

const maxLogs = 10_000

// New creates a dashboard Server backed by the given metrics, config, and
// optional proxy pool (nil if the client has no pool configured). promReg
// may be nil, in which case /metrics is not registered. Call
// ListenAndServe to start accepting connections.
func New(m *metrics.Metrics, promReg *metrics.Registry, cfg *config.Config, pool *proxypool.Pool) *Server {
	s := &Server{
		metrics:     m,
		promReg:     promReg,
		cfg:         cfg,
		pool:        pool,
		logs:        make([]LogEntry, 0, 512),
		logSubs:     make(map[chan LogEntry]struct{}),
		metricsSubs: make(map[chan MetricsSnapshot]struct{}),
		mux:         http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// SetCookieJarSize updates the live cookie-jar size displayed on the dashboard.
func (s *Server) SetCookieJarSize(n int64) { s.cookieJarSize.Store(n) }

// AddLog appends a structured log entry to the ring buffer and fans it out to
// every active SSE /api/logs/stream subscriber.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{
		Timestamp: time.Now().UnixMilli(),
		Level:     level,
		Message:   message,
	}

	s.logMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
	s.logMu.Unlock()

	s.logSubMu.Lock()
	for ch := range s.logSubs {
		select {
		case ch <- entry:
		default:
			// Slow subscriber – drop rather than block.
		}
	}
	s.logSubMu.Unlock()
}

// ListenAndServe starts the HTTP server on addr (e.g. ":8080") and blocks
// until the process exits. It also starts the background goroutine that ticks
// metrics to SSE subscribers every 100 ms.
func (s *Server) ListenAndServe(addr string) error {
	go s.metricsTicker()
	log.Printf("dashboard: listening on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // disabled – SSE/log streams are unbounded
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe() // #nosec G114 – replaced with explicit http.Server
}

// ─── Route registration ───────────────────────────────────────────────────────

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/metrics/stream", s.withCORS(s.handleMetricsStream))
	s.mux.HandleFunc("/api/logs/stream", s.withCORS(s.handleLogsStream))
	s.mux.HandleFunc("/api/config", s.withCORS(s.handleConfig))
	s.mux.HandleFunc("/api/proxies", s.withCORS(s.handleProxies))
	s.mux.HandleFunc("/api/proxy", s.withCORS(s.handleProxyUpload))
	if s.promReg != nil {
		s.mux.Handle("/metrics", s.promReg.Handler())
	}
}

// ─── CORS middleware ──────────────────────────────────────────────────────────

func (s *Server) withCORS(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h(w, r)
	}
}

// ─── /api/metrics/stream ─────────────────────────────────────────────────────

func (s *Server) metricsTicker() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		snap := s.snapshot()
		s.metricsSubMu.Lock()
		for ch := range s.metricsSubs {
			select {
			case ch <- snap:
			default:
			}
		}
		s.metricsSubMu.Unlock()
	}
}

func (s *Server) snapshot() MetricsSnapshot {
	total, success, failed := s.metrics.Snapshot()
	snap := MetricsSnapshot{
		Timestamp:     time.Now().UnixMilli(),
		Total:         total,
		Success:       success,
		Failed:        failed,
		RPS:           s.metrics.RequestsPerSecond(),
		CookieJarSize: s.cookieJarSize.Load(),
	}
	if s.pool != nil {
		stats := s.pool.GetStats()
		snap.ProxiesTotal = stats.Total
		snap.ProxiesHealthy = stats.Healthy
	}
	return snap
}

func (s *Server) handleMetricsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan MetricsSnapshot, 16)
	s.metricsSubMu.Lock()
	s.metricsSubs[ch] = struct{}{}
	s.metricsSubMu.Unlock()

	defer func() {
		s.metricsSubMu.Lock()
		delete(s.metricsSubs, ch)
		s.metricsSubMu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			data, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// ─── /api/logs/stream ────────────────────────────────────────────────────────

func (s *Server) handleLogsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logMu.Lock()
	history := make([]LogEntry, len(s.logs))
	copy(history, s.logs)
	s.logMu.Unlock()

	for _, entry := range history {
		if err := sseWrite(w, entry); err != nil {
			return
		}
	}
	flusher.Flush()

	ch := make(chan LogEntry, 256)
	s.logSubMu.Lock()
	s.logSubs[ch] = struct{}{}
	s.logSubMu.Unlock()

	defer func() {
		s.logSubMu.Lock()
		delete(s.logSubs, ch)
		s.logSubMu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-ch:
			if err := sseWrite(w, entry); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func sseWrite(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// ─── /api/config ─────────────────────────────────────────────────────────────

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.cfgMu.RLock()
		cfg := *s.cfg
		s.cfgMu.RUnlock()

		payload := ConfigPayload{
			Mode:       cfg.Mode,
			Profile:    cfg.Profile,
			RateLimit:  cfg.RateLimit,
			Retries:    cfg.Retries,
			MaxWorkers: cfg.MaxWorkers,
			TargetURLs: cfg.TargetURLs,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("dashboard: encode config: %v", err)
		}

	case http.MethodPost:
		var payload ConfigPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		s.cfgMu.Lock()
		if payload.RateLimit > 0 {
			s.cfg.RateLimit = payload.RateLimit
		}
		if payload.Retries > 0 && payload.Retries <= 100 {
			s.cfg.Retries = payload.Retries
		}
		if payload.MaxWorkers > 0 && payload.MaxWorkers <= 2000 {
			s.cfg.MaxWorkers = payload.MaxWorkers
		}
		if len(payload.TargetURLs) > 0 {
			s.cfg.TargetURLs = payload.TargetURLs
		}
		s.cfgMu.Unlock()
		s.AddLog("INFO", fmt.Sprintf("config updated via dashboard: rate_limit=%.2f retries=%d max_workers=%d",
			payload.RateLimit, payload.Retries, payload.MaxWorkers))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ─── /api/proxies ────────────────────────────────────────────────────────────

// handleProxies returns the proxy pool's current health snapshot. Returns an
// empty-but-valid snapshot if the client has no pool configured, so the
// frontend doesn't need a separate "no proxies" code path.
func (s *Server) handleProxies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pool == nil {
		fmt.Fprint(w, `{"Total":0,"Healthy":0,"Disabled":0,"Strategy":"","Proxies":[]}`)
		return
	}
	if err := json.NewEncoder(w).Encode(s.pool.GetStats()); err != nil {
		log.Printf("dashboard: encode proxy stats: %v", err)
	}
}

// ─── /api/proxy ──────────────────────────────────────────────────────────────

const maxProxyUploadSize = 10 << 20 // 10 MiB

func (s *Server) handleProxyUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProxyUploadSize)
	if err := r.ParseMultipartForm(maxProxyUploadSize); err != nil {
		http.Error(w, "request too large or not multipart", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("proxies")
	if err != nil {
		http.Error(w, "missing 'proxies' field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	dest, err := os.CreateTemp("", "proxies-*.txt")
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	defer dest.Close()

	n, err := io.Copy(dest, file)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	s.cfgMu.Lock()
	s.cfg.ProxyFile = dest.Name()
	s.cfgMu.Unlock()

	s.AddLog("INFO", fmt.Sprintf("proxy list uploaded: file=%q size=%d bytes original=%q",
		dest.Name(), n, header.Filename))

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"ok":true,"path":%q,"bytes":%d}`, dest.Name(), n)
}
