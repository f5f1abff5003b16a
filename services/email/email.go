// Package emailsvc holds the core.EmailService implementations.
package emailsvc

import (
	"os"

	"github.com/3bdulrahman-M3/Front/core"
)

// NewService picks sendgrid when an API key is configured, the console otherwise.
func NewService(logger core.Logger, conf *core.Config) core.EmailService {
	if conf.SendgridApiKey != "" {
		return NewSendgridService(logger, conf)
	}
	return NewConsoleService(os.Stderr, logger, conf)
}
