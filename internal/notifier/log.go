package notifier

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the log instead of sending them. Used
// when email is not configured, e.g. local development.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Send logs the rendered subject and reports success.
func (n *LogNotifier) Send(ctx context.Context, ev Event) error {
	msg, err := render(ev)
	if err != nil {
		return err
	}
	n.log.Info("notification (email disabled)",
		"type", string(ev.Type),
		"recipient", ev.Recipient,
		"subject", msg.Subject,
	)
	return nil
}
