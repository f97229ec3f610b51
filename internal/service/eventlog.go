package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidEventType = errors.New("invalid type: must be ACCEPTED, FAILED, CONFIRMED, UNCONFIRMED or SUPERSEDED")
)

var eventTypes = map[string]struct{}{
	string(models.NoticeAccepted):    {},
	string(models.NoticeFailed):      {},
	string(models.NoticeConfirmed):   {},
	string(models.NoticeUnconfirmed): {},
	string(models.NoticeSuperseded):  {},
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range and type.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	if _, ok := eventTypes[eventType]; eventType != "" && !ok {
		return time.Time{}, time.Time{}, "", errInvalidEventType
	}
	return from, to, eventType, nil
}

// IsValidationError reports whether err is a rejected filter rather than a storage failure.
func IsValidationError(err error) bool {
	return errors.Is(err, errInvalidTimeRange) || errors.Is(err, errInvalidEventType)
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.CommandEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, from, to, typ)
	if err != nil {
		return nil, fmt.Errorf("list command events: %w", err)
	}
	return events, nil
}
