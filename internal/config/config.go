// Package config handles the watchdog's file-based configuration and
// process-level settings.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// MinInterval and MaxInterval bound the poll interval regardless of
	// what the config file asks for.
	MinInterval = 30 * time.Second
	MaxInterval = 3600 * time.Second

	// DisabledInterval is how long the loop sleeps while enabled=false.
	DisabledInterval = 60 * time.Second
)

// Source is a single monitored feed or page.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MatchLogic holds the keyword rules applied to entry titles.
type MatchLogic struct {
	Locations          []string `json:"locations"`
	Topics             []string `json:"topics"`
	NegativeKeywords   []string `json:"negative_keywords"`
	RequireOneLocation bool     `json:"require_one_location"`
	RequireOneTopic    bool     `json:"require_one_topic"`
}

// Notification configures how alerts are delivered.
type Notification struct {
	Title          string `json:"title"`
	Sound          string `json:"sound,omitempty"`
	ShowLinkInBody bool   `json:"show_link_in_body"`
	WebhookURL     string `json:"webhook_url,omitempty"`
	Email          string `json:"email,omitempty"`
}

// Config is the hot-reloaded watchdog configuration.
type Config struct {
	Enabled               bool         `json:"enabled"`
	CheckIntervalSeconds  int          `json:"check_interval_seconds"`
	RequestTimeoutSeconds int          `json:"request_timeout_seconds"`
	MaxFeedBytes          int          `json:"max_feed_bytes"`
	PrimeOnFirstRun       bool         `json:"prime_on_first_run"`
	Sources               []Source     `json:"sources"`
	MatchLogic            MatchLogic   `json:"match_logic"`
	Notification          Notification `json:"notification"`
}

// Default returns the conservative configuration used when the config file
// is absent or unreadable: enabled, but with nothing to poll.
func Default() *Config {
	return &Config{
		Enabled:               true,
		CheckIntervalSeconds:  300,
		RequestTimeoutSeconds: 10,
		MaxFeedBytes:          2_000_000,
		PrimeOnFirstRun:       true,
		Sources:               nil,
		MatchLogic: MatchLogic{
			RequireOneLocation: true,
			RequireOneTopic:    true,
		},
		Notification: Notification{
			Title:          "⚡ POWER UPDATE",
			ShowLinkInBody: true,
		},
	}
}

// Load reads the config file at path. It never fails: a missing or corrupt
// file yields Default(). Fields present in the file overwrite the defaults,
// absent fields keep them.
func Load(path string) *Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("config: read %s: %v", path, err)
		}
		return cfg
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		logrus.Warnf("config: parse %s: %v, falling back to defaults", path, err)
		return Default()
	}
	return cfg
}

// Interval returns the poll interval clamped to [MinInterval, MaxInterval].
func (c *Config) Interval() time.Duration {
	d := time.Duration(c.CheckIntervalSeconds) * time.Second
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}

// RequestTimeout returns the per-fetch timeout.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
