package notify

import (
	"github.com/resilientops/watchdog/internal/config"
	"github.com/resilientops/watchdog/internal/models"
)

// Notifier delivers a local alert. The notification config is passed per
// call because it is hot-reloaded with the rest of the config file.
type Notifier interface {
	Send(cfg config.Notification, alert models.Alert) error
}
