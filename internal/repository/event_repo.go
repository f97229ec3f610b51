package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sensor_dashboard/internal/models"
)

// timestamps are stored as fixed-width UTC text so that string order is time order
const timeLayout = "2006-01-02 15:04:05.000"

const (
	insertEventSQL = `INSERT INTO command_events (id, occurred_at, type, command, message, meta) VALUES (?, ?, ?, ?, ?, ?)`
	selectEventSQL = `SELECT id, occurred_at, type, command, message, meta FROM command_events`
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

// Append inserts a new event. Missing EventID or OccurredAt are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.CommandEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var meta *string
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata of event %s: %w", e.EventID, err)
		}
		s := string(b)
		meta = &s
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt.UTC().Format(timeLayout),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		string(e.Command),
		e.Description,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert command event %s: %w", e.EventID, err)
	}
	return nil
}

// List returns events within [from, to] (zero bounds are open) and of type typ
// (empty means any), oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, typ string) ([]models.CommandEvent, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(timeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(timeLayout))
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}

	q := selectEventSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query command events: %w", err)
	}
	defer rows.Close()

	out := make([]models.CommandEvent, 0, 64)
	for rows.Next() {
		var (
			ev      models.CommandEvent
			at, cmd string
			meta    sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &at, &ev.Type, &cmd, &ev.Description, &meta); err != nil {
			return nil, fmt.Errorf("scan command event: %w", err)
		}
		if ev.OccurredAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parse occurred_at of event %s: %w", ev.EventID, err)
		}
		ev.Command = models.Command(cmd)

		if meta.Valid && meta.String != "" {
			var v any
			if err := json.Unmarshal([]byte(meta.String), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = meta.String
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate command events: %w", err)
	}
	return out, nil
}
