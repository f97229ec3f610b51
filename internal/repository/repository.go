package repository

import (
	"context"
	"database/sql"
	"time"

	"sensor_dashboard/internal/models"
)

// EventRepo is the append-only command audit log.
type EventRepo interface {
	Append(ctx context.Context, e models.CommandEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.CommandEvent, error)
}

type Repository struct {
	EventRepo EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
	}
}
