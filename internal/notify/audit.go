package notify

import (
	"context"

	"sensor_dashboard/internal/logger"
	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/repository"
)

// AuditNotifier persists every notice as a command event.
type AuditNotifier struct {
	repo repository.EventRepo
	log  *logger.Logger
}

func NewAuditNotifier(repo repository.EventRepo, log *logger.Logger) *AuditNotifier {
	return &AuditNotifier{repo: repo, log: logger.OrNop(log).Named("audit")}
}

func (a *AuditNotifier) Notify(ctx context.Context, n models.Notice) {
	if err := a.repo.Append(context.WithoutCancel(ctx), ToEvent(n)); err != nil {
		a.log.Errorw("audit_append_failed", "id", n.ID, "kind", n.Kind, "error", err)
	}
}

// ToEvent maps a notice to its audit log row.
func ToEvent(n models.Notice) models.CommandEvent {
	ev := models.CommandEvent{
		EventID:     n.ID,
		OccurredAt:  n.OccurredAt,
		Type:        string(n.Kind),
		Command:     n.Command,
		Description: n.Message,
	}
	if n.IsOn != nil {
		ev.Metadata = map[string]any{"is_on": *n.IsOn}
	}
	return ev
}
