package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resilientops/watchdog/internal/config"
	"github.com/resilientops/watchdog/internal/models"
	"github.com/resilientops/watchdog/internal/monitor"
	"github.com/resilientops/watchdog/internal/status"
)

type stubNotifier struct {
	alerts []models.Alert
}

func (n *stubNotifier) Send(_ config.Notification, alert models.Alert) error {
	n.alerts = append(n.alerts, alert)
	return nil
}

func newTestScheduler(t *testing.T, schedule string) (*Service, *stubNotifier) {
	t.Helper()
	paths := config.PathsIn(t.TempDir())
	m := monitor.NewService(paths, nil, nil, status.NewReporter(paths.Status), monitor.RealClock{})
	n := &stubNotifier{}
	return NewService(schedule, paths, m, n), n
}

func TestStart_InvalidSchedule(t *testing.T) {
	s, _ := newTestScheduler(t, "not a cron expression")
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s, _ := newTestScheduler(t, "0 0 9 * * *")
	require.NoError(t, s.Start())
	s.Stop()
}

func TestDigest_SendsSummary(t *testing.T) {
	s, n := newTestScheduler(t, "0 0 9 * * *")

	s.digest()

	require.Len(t, n.alerts, 1)
	assert.Equal(t, "Watchdog daily digest", n.alerts[0].Title)
	assert.Contains(t, n.alerts[0].Body, "0 hits across 0 cycles")
}
