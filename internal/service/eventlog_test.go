package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/notify"
)

var allNoticeKinds = []models.NoticeKind{
	models.NoticeAccepted,
	models.NoticeFailed,
	models.NoticeConfirmed,
	models.NoticeUnconfirmed,
	models.NoticeSuperseded,
}

// memoryAuditLog is an in-memory repository.EventRepo that filters like the SQLite one.
type memoryAuditLog struct {
	mu     sync.Mutex
	events []models.CommandEvent
	err    error

	calls   int
	gotFrom time.Time
	gotTo   time.Time
	gotType string
}

func (m *memoryAuditLog) Append(_ context.Context, e models.CommandEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryAuditLog) List(_ context.Context, from, to time.Time, typ string) ([]models.CommandEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotFrom, m.gotTo, m.gotType = from, to, typ
	if m.err != nil {
		return nil, m.err
	}
	var out []models.CommandEvent
	for _, e := range m.events {
		if !from.IsZero() && e.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.OccurredAt.After(to) {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func TestFilter_EveryNoticeKindIsAccepted(t *testing.T) {
	t.Parallel()

	if len(eventTypes) != len(allNoticeKinds) {
		t.Fatalf("filterable types %d != notice kinds %d", len(eventTypes), len(allNoticeKinds))
	}
	for _, kind := range allNoticeKinds {
		for _, in := range []string{string(kind), strings.ToLower(string(kind)), "  " + string(kind) + "\t"} {
			_, _, got, err := normalizeAndValidateFilter(LogFilter{Type: in})
			if err != nil {
				t.Fatalf("type %q rejected: %v", in, err)
			}
			if got != string(kind) {
				t.Fatalf("type %q normalized to %q; want %q", in, got, kind)
			}
		}
	}
}

func TestFilter_RejectsNonNoticeTypes(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"MODE_CHANGE", "STATE", "ON", "accepted,failed", "CONFIRM"} {
		_, _, _, err := normalizeAndValidateFilter(LogFilter{Type: in})
		if !errors.Is(err, errInvalidEventType) || !IsValidationError(err) {
			t.Fatalf("type %q: expected errInvalidEventType, got %v", in, err)
		}
	}
}

func TestFilter_TimeRange(t *testing.T) {
	t.Parallel()

	ict := time.FixedZone("ICT", 7*3600)
	tests := []struct {
		name     string
		in       LogFilter
		wantFrom time.Time
		wantTo   time.Time
		wantErr  error
	}{
		{name: "open range", in: LogFilter{}},
		{
			name:     "bounds converted to UTC",
			in:       LogFilter{From: time.Date(2024, 5, 1, 17, 0, 0, 0, ict), To: time.Date(2024, 5, 1, 18, 0, 0, 0, ict)},
			wantFrom: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
		},
		{
			name:     "equal bounds allowed",
			in:       LogFilter{From: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), To: time.Date(2024, 5, 1, 17, 0, 0, 0, ict)},
			wantFrom: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:    "from after to",
			in:      LogFilter{From: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
			wantErr: errInvalidTimeRange,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			from, to, _, err := normalizeAndValidateFilter(tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err: got %v; want %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if !from.Equal(tc.wantFrom) || !to.Equal(tc.wantTo) {
				t.Fatalf("range: got [%v, %v]; want [%v, %v]", from, to, tc.wantFrom, tc.wantTo)
			}
			if !from.IsZero() && from.Location() != time.UTC {
				t.Fatalf("from not in UTC: %v", from.Location())
			}
		})
	}
}

func TestEventLogService_ListByNoticeKind(t *testing.T) {
	t.Parallel()

	log := &memoryAuditLog{}
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, kind := range allNoticeKinds {
		n := models.Notice{
			ID:         string(kind),
			Kind:       kind,
			Command:    models.CommandBuzzerOn,
			Message:    "msg",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := log.Append(context.Background(), notify.ToEvent(n)); err != nil {
			t.Fatal(err)
		}
	}
	svc := NewEventLogService(log)

	for _, kind := range allNoticeKinds {
		out, err := svc.List(context.Background(), LogFilter{Type: strings.ToLower(string(kind))})
		if err != nil {
			t.Fatalf("List(%s): %v", kind, err)
		}
		if len(out) != 1 || out[0].EventID != string(kind) || out[0].Command != models.CommandBuzzerOn {
			t.Fatalf("List(%s): got %+v", kind, out)
		}
	}

	out, err := svc.List(context.Background(), LogFilter{From: base.Add(time.Minute), To: base.Add(3 * time.Minute)})
	if err != nil {
		t.Fatalf("List range: %v", err)
	}
	if len(out) != 3 || out[0].Type != string(models.NoticeFailed) || out[2].Type != string(models.NoticeUnconfirmed) {
		t.Fatalf("range: got %+v", out)
	}
}

func TestEventLogService_ValidationSkipsRepo(t *testing.T) {
	t.Parallel()

	log := &memoryAuditLog{}
	svc := NewEventLogService(log)

	_, err := svc.List(context.Background(), LogFilter{Type: "MODE_CHANGE"})
	if !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if log.calls != 0 {
		t.Fatalf("repo must not be queried on validation error, calls=%d", log.calls)
	}
}

func TestEventLogService_RepoErrorIsWrapped(t *testing.T) {
	t.Parallel()

	log := &memoryAuditLog{err: errors.New("database is locked")}
	svc := NewEventLogService(log)

	_, err := svc.List(context.Background(), LogFilter{})
	if !errors.Is(err, log.err) || IsValidationError(err) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "list command events: ") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
	if !log.gotFrom.IsZero() || !log.gotTo.IsZero() || log.gotType != "" {
		t.Fatalf("open filter must reach repo as zero bounds, got %v %v %q", log.gotFrom, log.gotTo, log.gotType)
	}
}
