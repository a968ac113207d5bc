// Package monitor orchestrates the poll loop: per cycle it reloads config,
// walks every source through fetch, classification, extraction, dedup,
// matching and notification, and persists an aggregate status update.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/resilientops/watchdog/internal/config"
	"github.com/resilientops/watchdog/internal/feed"
	"github.com/resilientops/watchdog/internal/match"
	"github.com/resilientops/watchdog/internal/models"
	"github.com/resilientops/watchdog/internal/notify"
	"github.com/resilientops/watchdog/internal/seen"
	"github.com/resilientops/watchdog/internal/status"
)

const (
	// maxEntriesPerSource bounds how many entries one source contributes
	// to dedup and matching in a single cycle.
	maxEntriesPerSource = 80
	// maxPrimedPerSource bounds how many backlog entries are silenced on
	// the true first run.
	maxPrimedPerSource = 50
	// latestItemsPerSource is how many entries per source appear in the
	// status snapshot.
	latestItemsPerSource = 10
)

// Fetcher downloads one source payload. Satisfied by *feed.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration, maxBytes int) ([]byte, error)
}

// Metrics accumulates in-process counters across cycles. They reset on
// restart; durable state lives in the status file.
type Metrics struct {
	Cycles          int       `json:"cycles"`
	CheckedSources  int       `json:"checked_sources"`
	TotalHits       int       `json:"total_hits"`
	ErrorCount      int       `json:"error_count"`
	LastRun         time.Time `json:"last_run"`
	LastRunDuration string    `json:"last_run_duration"`
}

// Service runs the watchdog poll loop. Sources are processed strictly
// sequentially; a hanging source delays only the remainder of its cycle,
// bounded by the per-request timeout.
type Service struct {
	paths    config.Paths
	fetcher  Fetcher
	notifier notify.Notifier
	reporter *status.Reporter
	clock    Clock

	// cycleMu serializes cycles: the seen-log has a single writer, and an
	// entry must notify at most once even when a manual trigger races the
	// poll loop.
	cycleMu sync.Mutex

	mu      sync.RWMutex
	metrics Metrics
}

// NewService creates a monitor service.
func NewService(paths config.Paths, fetcher Fetcher, notifier notify.Notifier, reporter *status.Reporter, clock Clock) *Service {
	return &Service{
		paths:    paths,
		fetcher:  fetcher,
		notifier: notifier,
		reporter: reporter,
		clock:    clock,
	}
}

// Run executes the poll loop until ctx is cancelled. The loop has no other
// terminal state: every error is contained inside one cycle.
func (s *Service) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		cfg := config.Load(s.paths.Config)
		if !cfg.Enabled {
			s.reporter.MustUpdate(status.Fields{
				"ok":         true,
				"updated_at": s.nowISO(),
				"note":       "disabled_in_config",
			})
			s.clock.Sleep(ctx, config.DisabledInterval)
			continue
		}

		s.cycle(ctx, cfg)
		s.clock.Sleep(ctx, cfg.Interval())
	}
}

// RunCycle executes one immediate cycle with freshly loaded config. Used by
// the manual trigger endpoint; if the poll loop is mid-cycle the trigger
// waits its turn.
func (s *Service) RunCycle(ctx context.Context) {
	cfg := config.Load(s.paths.Config)
	if !cfg.Enabled {
		logrus.Info("cycle skipped: disabled in config")
		return
	}
	s.cycle(ctx, cfg)
}

// cycle runs one guarded poll cycle. A panic anywhere inside is logged,
// surfaced through the status file and otherwise ignored, so the loop can
// never die to an unanticipated error.
func (s *Service) cycle(ctx context.Context, cfg *config.Config) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("cycle failed: %v", r)
			s.reporter.MustUpdate(status.Fields{
				"ok":         false,
				"updated_at": s.nowISO(),
				"last_error": fmt.Sprintf("cycle: %v", r),
			})
		}
	}()

	start := s.clock.Now()
	seenSet := seen.Load(s.paths.Seen)
	priming := seenSet.Empty() && cfg.PrimeOnFirstRun

	checked := 0
	hits := 0
	errorCount := 0
	var lastError any
	latest := make(map[string][]models.Item)

	for _, src := range cfg.Sources {
		if src.URL == "" {
			continue
		}
		checked++

		n, err := s.processSource(ctx, cfg, src, seenSet, priming, latest)
		hits += n
		if err != nil {
			errorCount++
			lastError = fmt.Sprintf("%s: %v", src.Name, err)
			logrus.Warnf("source %s: %v", src.Name, err)
		}
	}

	s.reporter.MustUpdate(status.Fields{
		"ok":              true,
		"updated_at":      s.nowISO(),
		"checked_sources": checked,
		"hits":            hits,
		"last_error":      lastError,
		"latest_items":    latest,
	})

	s.updateMetrics(checked, hits, errorCount, s.clock.Now().Sub(start))
}

// processSource runs one source through the whole pipeline. Any returned
// error is recorded and the cycle moves on to the next source.
func (s *Service) processSource(ctx context.Context, cfg *config.Config, src config.Source, seenSet *seen.Store, priming bool, latest map[string][]models.Item) (int, error) {
	data, err := s.fetcher.Fetch(ctx, src.URL, cfg.RequestTimeout(), cfg.MaxFeedBytes)
	if err != nil {
		return 0, err
	}

	var entries []models.Entry
	if feed.LooksLikeHTML(data) {
		entries = feed.ExtractLinks(data, src.Name, src.URL)
	} else {
		entries, err = feed.ParseFeed(data, src.Name)
		if err != nil {
			return 0, err
		}
	}

	latest[src.Name] = publicItems(entries, latestItemsPerSource)

	if priming {
		limit := min(len(entries), maxPrimedPerSource)
		for _, e := range entries[:limit] {
			seenSet.Mark(e.UID)
		}
		logrus.Infof("primed %d items from %s", limit, src.Name)
		return 0, nil
	}

	hits := 0
	limit := min(len(entries), maxEntriesPerSource)
	for _, e := range entries[:limit] {
		if e.UID == "" || seenSet.Has(e.UID) {
			continue
		}
		if match.Match(e.Title, cfg.MatchLogic) {
			hits++
			s.alert(cfg, src, e)
		}
		seenSet.Mark(e.UID)
	}
	return hits, nil
}

// alert fires the notification and the per-hit status update. Both are
// best-effort; the entry is marked seen regardless.
func (s *Service) alert(cfg *config.Config, src config.Source, e models.Entry) {
	body := e.Title
	if cfg.Notification.ShowLinkInBody && e.Link != "" {
		body = e.Title + "\n" + e.Link
	}
	logrus.Infof("hit (%s): %s", src.Name, e.Title)

	if err := s.notifier.Send(cfg.Notification, models.Alert{
		Title: cfg.Notification.Title,
		Body:  body,
		Link:  e.Link,
	}); err != nil {
		logrus.Warnf("notify: %v", err)
	}

	s.reporter.MustUpdate(status.Fields{
		"last_hit_at":     s.nowISO(),
		"last_hit_title":  e.Title,
		"last_hit_link":   e.Link,
		"last_hit_source": src.Name,
	})
}

func (s *Service) updateMetrics(checked, hits, errorCount int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.Cycles++
	s.metrics.CheckedSources += checked
	s.metrics.TotalHits += hits
	s.metrics.ErrorCount += errorCount
	s.metrics.LastRun = s.clock.Now()
	s.metrics.LastRunDuration = d.String()
}

// Snapshot returns a copy of the current metrics.
func (s *Service) Snapshot() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// MetricsJSON renders the metrics for the local metrics endpoint.
func (s *Service) MetricsJSON() string {
	m := s.Snapshot()
	data, _ := json.MarshalIndent(m, "", "  ")
	return string(data)
}

func (s *Service) nowISO() string {
	return s.clock.Now().Format(time.RFC3339)
}

func publicItems(entries []models.Entry, limit int) []models.Item {
	n := min(len(entries), limit)
	items := make([]models.Item, 0, n)
	for _, e := range entries[:n] {
		items = append(items, e.PublicItem())
	}
	return items
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
