// Package scheduler runs the daily digest alongside the poll loop.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/resilientops/watchdog/internal/config"
	"github.com/resilientops/watchdog/internal/models"
	"github.com/resilientops/watchdog/internal/monitor"
	"github.com/resilientops/watchdog/internal/notify"
)

// Service schedules the daily digest notification: a short liveness
// summary of what the watchdog has done since start.
type Service struct {
	schedule string
	paths    config.Paths
	monitor  *monitor.Service
	notifier notify.Notifier
	cron     *cron.Cron
}

// NewService creates a scheduler. The schedule is a six-field cron
// expression (with seconds).
func NewService(schedule string, paths config.Paths, m *monitor.Service, n notify.Notifier) *Service {
	return &Service{
		schedule: schedule,
		paths:    paths,
		monitor:  m,
		notifier: n,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start begins the digest schedule.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.digest); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	s.cron.Start()
	logrus.Infof("digest scheduler started (%s)", s.schedule)
	return nil
}

// Stop stops the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("digest scheduler stopped")
	}
}

func (s *Service) digest() {
	m := s.monitor.Snapshot()
	logrus.Infof("digest: %d hits across %d cycles, %d source errors", m.TotalHits, m.Cycles, m.ErrorCount)

	cfg := config.Load(s.paths.Config)
	alert := models.Alert{
		Title: "Watchdog daily digest",
		Body:  fmt.Sprintf("%d hits across %d cycles (%d source errors)", m.TotalHits, m.Cycles, m.ErrorCount),
	}
	if err := s.notifier.Send(cfg.Notification, alert); err != nil {
		logrus.Warnf("digest notification: %v", err)
	}
}
