// Package notify delivers operator notices about device commands to the log, the
// WebSocket hub, an MQTT topic and the audit log.
package notify

import (
	"context"

	"sensor_dashboard/internal/logger"
	"sensor_dashboard/internal/models"
)

// Notifier delivers a notice. Delivery problems are handled by the implementation;
// callers are never failed by a notifier.
type Notifier interface {
	Notify(ctx context.Context, n models.Notice)
}

// Multi fans a notice out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n models.Notice) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}

// LogNotifier writes notices to the application log.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: logger.OrNop(log).Named("notice")}
}

func (l *LogNotifier) Notify(_ context.Context, n models.Notice) {
	kv := []any{"id", n.ID, "kind", string(n.Kind), "command", string(n.Command), "message", n.Message}
	if n.IsOn != nil {
		kv = append(kv, "is_on", *n.IsOn)
	}
	switch n.Kind {
	case models.NoticeFailed, models.NoticeUnconfirmed:
		l.log.Warnw("notice", kv...)
	default:
		l.log.Infow("notice", kv...)
	}
}
