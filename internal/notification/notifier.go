// Package notification delivers operator alerts for trading events to
// external channels (Telegram, webhooks) with a structured-log fallback.
package notification

import (
	"context"
	"log/slog"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the structured log. It is the fallback when
// no external channel is configured and always succeeds.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("component", "notify")}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	switch alert.Level {
	case AlertCritical:
		n.log.Error(alert.Title, "message", alert.Message)
	case AlertWarning:
		n.log.Warn(alert.Title, "message", alert.Message)
	default:
		n.log.Info(alert.Title, "message", alert.Message)
	}
	return nil
}

// Multi fans one alert out to several backends. Errors from individual
// backends are collected but do not stop delivery to the rest.
type Multi struct {
	backends []Notifier
	log      *slog.Logger
}

// NewMulti wraps backends into a single Notifier.
func NewMulti(log *slog.Logger, backends ...Notifier) *Multi {
	return &Multi{backends: backends, log: log.With("component", "notify")}
}

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	for _, b := range m.backends {
		if err := b.Send(ctx, alert); err != nil {
			m.log.Warn("alert delivery failed", "title", alert.Title, "err", err)
		}
	}
	return nil
}
