package mail

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogClient logs messages instead of delivering them. Used in development
// when no From address is configured.
type LogClient struct {
	log *logrus.Logger
}

// NewLogClient returns a Client that writes messages to the given logger.
func NewLogClient(log *logrus.Logger) *LogClient {
	return &LogClient{log: log}
}

// SendHTML logs the message envelope and body size. Never fails.
func (c *LogClient) SendHTML(_ context.Context, to []string, subject, htmlBody string) error {
	c.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"bytes":   len(htmlBody),
	}).Info("mail delivery skipped, no sender configured")
	return nil
}
