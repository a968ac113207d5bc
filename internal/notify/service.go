// Package notify delivers best-effort local alerts. Delivery failures are
// logged and swallowed; they never prevent an item from being marked seen.
package notify

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/resilientops/watchdog/internal/config"
	"github.com/resilientops/watchdog/internal/models"
)

// CommandRunner executes a local command. Injectable for tests.
type CommandRunner func(name string, args ...string) error

// Service sends alerts over the configured channels: a desktop
// notification (with optional sound), and optionally a webhook POST and an
// email. Every channel is best-effort.
type Service struct {
	settings *config.Settings
	client   *resty.Client
	run      CommandRunner
}

var _ Notifier = (*Service)(nil)

// NewService creates a notification service.
func NewService(settings *config.Settings) *Service {
	return &Service{
		settings: settings,
		client:   resty.New().SetTimeout(30 * time.Second),
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// SetRunner overrides the command runner (used by tests).
func (s *Service) SetRunner(run CommandRunner) { s.run = run }

// Send delivers alert over every configured channel. It returns the joined
// channel errors, which callers log; a partial failure never aborts a cycle.
func (s *Service) Send(cfg config.Notification, alert models.Alert) error {
	var failures []string

	if err := s.sendDesktop(cfg, alert); err != nil {
		logrus.Warnf("notify: desktop: %v", err)
		failures = append(failures, fmt.Sprintf("desktop: %v", err))
	}

	if cfg.WebhookURL != "" {
		if err := s.sendWebhook(cfg.WebhookURL, alert); err != nil {
			logrus.Warnf("notify: webhook: %v", err)
			failures = append(failures, fmt.Sprintf("webhook: %v", err))
		}
	}

	if cfg.Email != "" && s.settings.SMTPHost != "" {
		if err := s.sendEmail(cfg.Email, alert); err != nil {
			logrus.Warnf("notify: email: %v", err)
			failures = append(failures, fmt.Sprintf("email: %v", err))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

func (s *Service) sendDesktop(cfg config.Notification, alert models.Alert) error {
	// osascript chokes on double quotes inside the literal.
	body := strings.ReplaceAll(alert.Body, `"`, `'`)
	title := strings.ReplaceAll(alert.Title, `"`, `'`)
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, body, title)

	if err := s.run("osascript", "-e", script); err != nil {
		return err
	}
	if cfg.Sound != "" {
		if err := s.run("afplay", cfg.Sound); err != nil {
			logrus.Warnf("notify: sound: %v", err)
		}
	}
	return nil
}

func (s *Service) sendWebhook(url string, alert models.Alert) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(alert).
		Post(url)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}

func (s *Service) sendEmail(to string, alert models.Alert) error {
	from := s.settings.SMTPFrom
	if from == "" {
		from = s.settings.SMTPUsername
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", alert.Title)
	body := alert.Body
	if alert.Link != "" && !strings.Contains(body, alert.Link) {
		body += "\n" + alert.Link
	}
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.settings.SMTPHost, s.settings.SMTPPort, s.settings.SMTPUsername, s.settings.SMTPPassword)
	return d.DialAndSend(m)
}
