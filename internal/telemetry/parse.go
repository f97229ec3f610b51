package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sensor_dashboard/internal/models"
)

const (
	fieldID   = "id"
	fieldDate = "date"
)

// Accepted timestamp layouts. Zone-less values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

var errEmptyPayload = errors.New("empty payload")

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// parseNumber accepts a JSON number or a numeric string. ok=false means null.
func parseNumber(raw json.RawMessage) (v float64, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, err
		}
		if strings.TrimSpace(s) == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", s)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, fmt.Errorf("not a finite number: %q", s)
		}
		return f, true, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false, fmt.Errorf("not a number: %s", raw)
	}
	return v, true, nil
}

func parseInteger(raw json.RawMessage) (int64, bool, error) {
	f, ok, err := parseNumber(raw)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != float64(int64(f)) {
		return 0, false, fmt.Errorf("not an integer: %v", f)
	}
	return int64(f), true, nil
}

// parseRecord decodes one reading object. Metrics absent or null stay absent.
func parseRecord(raw json.RawMessage) (models.Reading, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Reading{}, fmt.Errorf("record is not an object: %w", err)
	}
	if fields == nil {
		return models.Reading{}, errors.New("record is null")
	}

	id, ok, err := parseInteger(fields[fieldID])
	if err != nil {
		return models.Reading{}, fmt.Errorf("field id: %w", err)
	}
	if !ok {
		return models.Reading{}, errors.New("field id is missing")
	}

	var date string
	if err := json.Unmarshal(fields[fieldDate], &date); err != nil || date == "" {
		return models.Reading{}, fmt.Errorf("reading %d: field date is missing or not a string", id)
	}
	ts, err := parseTimestamp(date)
	if err != nil {
		return models.Reading{}, fmt.Errorf("reading %d: %w", id, err)
	}

	r := models.Reading{ID: id, Timestamp: ts, Values: make(map[models.Metric]float64, len(models.AllMetrics))}
	for _, m := range models.AllMetrics {
		v, ok, err := parseNumber(fields[string(m)])
		if err != nil {
			return models.Reading{}, fmt.Errorf("reading %d: field %s: %w", id, m, err)
		}
		if ok {
			r.Values[m] = v
		}
	}
	return r, nil
}

// ParseLatest decodes the latest-reading payload, which is either an object or an array
// whose first element is the latest reading. An empty array yields nil without error.
func ParseLatest(body []byte) (*models.Reading, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errEmptyPayload
	}
	raw := json.RawMessage(body)
	if body[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		raw = items[0]
	}
	r, err := parseRecord(raw)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ParseHistory decodes the history array. Records that fail to parse are returned in
// rejected and left out of the result; only a non-array payload is an error.
func ParseHistory(body []byte) (readings []models.Reading, rejected []error, err error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil, errEmptyPayload
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, nil, fmt.Errorf("history is not an array: %w", err)
	}
	readings = make([]models.Reading, 0, len(items))
	for i, item := range items {
		r, err := parseRecord(item)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		readings = append(readings, r)
	}
	return readings, rejected, nil
}

// ParseEventCount decodes {"att": n}.
func ParseEventCount(body []byte) (int64, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return 0, fmt.Errorf("decode object: %w", err)
	}
	n, ok, err := parseInteger(fields["att"])
	if err != nil {
		return 0, fmt.Errorf("field att: %w", err)
	}
	if !ok {
		return 0, errors.New("field att is missing")
	}
	if n < 0 {
		return 0, fmt.Errorf("field att is negative: %d", n)
	}
	return n, nil
}

// ackResponse is the shape shared by the command and status endpoints.
type ackResponse struct {
	Success *bool `json:"success"`
	IsOn    *bool `json:"isOn"`
}

func parseAck(body []byte) (ackResponse, error) {
	var ack ackResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return ackResponse{}, fmt.Errorf("decode object: %w", err)
	}
	return ack, nil
}
