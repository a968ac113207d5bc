package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.json"))

	assert.True(t, cfg.Enabled)
	assert.Empty(t, cfg.Sources)
	assert.True(t, cfg.PrimeOnFirstRun)
	assert.True(t, cfg.MatchLogic.RequireOneLocation)
	assert.True(t, cfg.MatchLogic.RequireOneTopic)
	assert.Equal(t, 2_000_000, cfg.MaxFeedBytes)
}

func TestLoad_CorruptFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog_config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg := Load(path)

	assert.True(t, cfg.Enabled)
	assert.Empty(t, cfg.Sources)
}

func TestLoad_PresentFieldsOverrideDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchdog_config.json")
	raw := `{
  "enabled": false,
  "check_interval_seconds": 120,
  "sources": [{"name": "rbb24", "url": "https://www.rbb24.de/feed"}],
  "match_logic": {
    "locations": ["Berlin"],
    "topics": ["Stromausfall"],
    "require_one_topic": false
  },
  "notification": {"title": "ALARM", "show_link_in_body": false}
}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg := Load(path)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 120, cfg.CheckIntervalSeconds)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "rbb24", cfg.Sources[0].Name)
	assert.Equal(t, []string{"Berlin"}, cfg.MatchLogic.Locations)
	assert.False(t, cfg.MatchLogic.RequireOneTopic)
	assert.Equal(t, "ALARM", cfg.Notification.Title)
	assert.False(t, cfg.Notification.ShowLinkInBody)

	// Absent fields keep their defaults.
	assert.Equal(t, 10, cfg.RequestTimeoutSeconds)
	assert.True(t, cfg.PrimeOnFirstRun)
	assert.True(t, cfg.MatchLogic.RequireOneLocation)
}

func TestInterval_Clamped(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int
		expected time.Duration
	}{
		{name: "below minimum", seconds: 5, expected: MinInterval},
		{name: "zero", seconds: 0, expected: MinInterval},
		{name: "in range", seconds: 300, expected: 300 * time.Second},
		{name: "above maximum", seconds: 86400, expected: MaxInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.CheckIntervalSeconds = tt.seconds
			assert.Equal(t, tt.expected, cfg.Interval())
		})
	}
}

func TestRequestTimeout_Fallback(t *testing.T) {
	cfg := Default()
	cfg.RequestTimeoutSeconds = 0
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())

	cfg.RequestTimeoutSeconds = 7
	assert.Equal(t, 7*time.Second, cfg.RequestTimeout())
}

func TestResolvePaths_HomeOverride(t *testing.T) {
	home := filepath.Join(t.TempDir(), "sandboxed")
	t.Setenv(HomeEnv, home)

	paths, err := ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, home, paths.Home)
	assert.Equal(t, filepath.Join(home, "watchdog_config.json"), paths.Config)
	assert.Equal(t, filepath.Join(home, "seen.txt"), paths.Seen)
	assert.Equal(t, filepath.Join(home, "status.json"), paths.Status)

	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "runtime home is created")
}
