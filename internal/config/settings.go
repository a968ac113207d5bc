package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// HomeEnv redirects where the watchdog keeps its runtime files, so the
// process can run from a restricted sandbox location.
const HomeEnv = "WATCHDOG_HOME"

// Paths locates the filesystem artifacts shared with external viewers.
type Paths struct {
	Home   string
	Config string
	Seen   string
	Status string
	Log    string
}

// ResolvePaths determines the runtime home, honoring the WATCHDOG_HOME
// override, and ensures the directory exists.
func ResolvePaths() (Paths, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = "."
		}
		home = filepath.Join(base, "watchdog")
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return Paths{}, err
	}
	return PathsIn(home), nil
}

// PathsIn derives all runtime file paths from a home directory.
func PathsIn(home string) Paths {
	return Paths{
		Home:   home,
		Config: filepath.Join(home, "watchdog_config.json"),
		Seen:   filepath.Join(home, "seen.txt"),
		Status: filepath.Join(home, "status.json"),
		Log:    filepath.Join(home, "watchdog.log"),
	}
}

// Settings holds process-level configuration from the environment. Unlike
// Config these are fixed for the process lifetime.
type Settings struct {
	Debug          bool
	ListenAddr     string
	DigestSchedule string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// LoadSettings reads process settings from environment variables.
func LoadSettings() *Settings {
	return &Settings{
		Debug:          getBoolEnv("DEBUG", false),
		ListenAddr:     getEnv("LISTEN_ADDR", "127.0.0.1:8787"),
		DigestSchedule: getEnv("DIGEST_SCHEDULE", "0 0 9 * * *"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
