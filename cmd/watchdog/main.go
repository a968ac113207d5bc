package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/resilientops/watchdog/internal/config"
	"github.com/resilientops/watchdog/internal/feed"
	"github.com/resilientops/watchdog/internal/logging"
	"github.com/resilientops/watchdog/internal/monitor"
	"github.com/resilientops/watchdog/internal/notify"
	"github.com/resilientops/watchdog/internal/scheduler"
	"github.com/resilientops/watchdog/internal/status"
)

const maxLogBytes = 1_000_000

func main() {
	loadEnv()

	settings := config.LoadSettings()

	paths, err := config.ResolvePaths()
	if err != nil {
		logrus.Fatalf("Failed to resolve runtime home: %v", err)
	}

	setupLogging(paths, settings.Debug)
	logrus.Info("Starting feed watchdog")

	reporter := status.NewReporter(paths.Status)
	reporter.MustUpdate(status.Fields{
		"ok":         true,
		"started_at": time.Now().Format(time.RFC3339),
		"pid":        os.Getpid(),
	})

	notifier := notify.NewService(settings)
	monitorService := monitor.NewService(paths, feed.NewClient(), notifier, reporter, monitor.RealClock{})

	schedulerService := scheduler.NewService(settings.DigestSchedule, paths, monitorService, notifier)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		monitorService.Run(ctx)
	}()

	// Local liveness endpoints only; the dashboard is a separate consumer
	// of the status file.
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/status", statusHandler(reporter)).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(monitorService)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(monitorService)).Methods("POST")

	server := &http.Server{
		Addr:         settings.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server listening on %s", settings.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("HTTP server failed: %v", err)
		}
	}()

	// Wait for a termination signal, then leave cleanly with exit 0.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	<-loopDone
	logrus.Info("Service stopped")
}

// loadEnv loads environment variables from a .env file if one exists.
func loadEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}
}

// setupLogging sends JSON logs to stderr and to a size-rotated log file in
// the runtime home. Logging must keep working when the disk does not, so
// file problems only degrade to stderr-only output.
func setupLogging(paths config.Paths, debug bool) {
	logrus.SetLevel(logrus.InfoLevel)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	w, err := logging.NewWriter(paths.Log, maxLogBytes)
	if err != nil {
		logrus.Warnf("log file %s unavailable: %v", paths.Log, err)
		return
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, w))
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func statusHandler(reporter *status.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := os.ReadFile(reporter.Path())
		if err != nil {
			http.Error(w, `{"error":"status not available"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func metricsHandler(m *monitor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(m.MetricsJSON()))
	}
}

func triggerHandler(m *monitor.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go m.RunCycle(context.Background())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"cycle triggered"}`))
	}
}
