// Package telemetry is the HTTP client for the remote sensor and actuator API.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"sensor_dashboard/internal/logger"
	"sensor_dashboard/internal/models"
)

// Remote endpoint paths. "lastestData" is the server's spelling.
const (
	PathLatest       = "/api/lastestData"
	PathHistory      = "/api/alldata"
	PathEventCount   = "/api/attackCount"
	PathCommand      = "/api/getControlCommand"
	PathDeviceStatus = "/api/getCurrentStatus"
)

// Endpoint names used for breakers, logs and errors.
const (
	EndpointLatest       = "latest"
	EndpointHistory      = "history"
	EndpointEventCount   = "event_counter"
	EndpointCommand      = "command"
	EndpointDeviceStatus = "device_status"
)

const (
	maxBodyBytes           = 8 << 20 // 8 MB
	defaultBreakerFailures = 5
	defaultBreakerOpenFor  = 30 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL         string
	Timeout         time.Duration // 0 keeps the transport default
	BreakerFailures int
	BreakerOpenFor  time.Duration
	HTTPClient      *http.Client // optional; overrides Timeout
	Log             *logger.Logger
}

// Client talks to the telemetry and actuator endpoints. Each endpoint has its own
// circuit breaker so a failing history query does not block the latest reading.
type Client struct {
	baseURL  string
	http     *http.Client
	breakers map[string]*gobreaker.CircuitBreaker
	log      *logger.Logger
}

// New builds a client for opts.BaseURL.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		http:     hc,
		breakers: make(map[string]*gobreaker.CircuitBreaker, 5),
		log:      logger.OrNop(opts.Log).Named("telemetry"),
	}
	for _, name := range []string{EndpointLatest, EndpointHistory, EndpointEventCount, EndpointCommand, EndpointDeviceStatus} {
		c.breakers[name] = newBreaker(name, opts.BreakerFailures, opts.BreakerOpenFor, c.log)
	}
	return c
}

func newBreaker(name string, failures int, openFor time.Duration, log *logger.Logger) *gobreaker.CircuitBreaker {
	if failures < 1 {
		failures = defaultBreakerFailures
	}
	if openFor <= 0 {
		openFor = defaultBreakerOpenFor
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(failures)
		},
		// Cancellation on teardown says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("breaker_state_changed", "endpoint", name, "from", from.String(), "to", to.String())
		},
	})
}

// do performs one request through the endpoint's breaker and returns the response body.
func (c *Client) do(ctx context.Context, endpoint, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	res, err := c.breakers[endpoint].Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &TransportError{Endpoint: endpoint, Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			return nil, &ProtocolError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		}
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("read body: %w", err)}
		}
		return b, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransportError{Endpoint: endpoint, Err: err}
		}
		var (
			te *TransportError
			pe *ProtocolError
		)
		if !errors.As(err, &te) && !errors.As(err, &pe) {
			err = &TransportError{Endpoint: endpoint, Err: err}
		}
		return nil, err
	}
	return res.([]byte), nil
}

// FetchLatest returns the most recent reading; nil when the server has none.
func (c *Client) FetchLatest(ctx context.Context) (*models.Reading, error) {
	body, err := c.do(ctx, EndpointLatest, http.MethodGet, PathLatest, nil)
	if err != nil {
		return nil, err
	}
	r, err := ParseLatest(body)
	if err != nil {
		return nil, &SchemaError{Endpoint: EndpointLatest, Err: err}
	}
	return r, nil
}

// FetchHistory returns the server's reading window in server order. Records that fail
// validation are logged and dropped.
func (c *Client) FetchHistory(ctx context.Context) ([]models.Reading, error) {
	body, err := c.do(ctx, EndpointHistory, http.MethodGet, PathHistory, nil)
	if err != nil {
		return nil, err
	}
	readings, rejected, err := ParseHistory(body)
	if err != nil {
		return nil, &SchemaError{Endpoint: EndpointHistory, Err: err}
	}
	for _, rerr := range rejected {
		c.log.Warnw("reading_rejected", "endpoint", EndpointHistory, "err", rerr)
	}
	return readings, nil
}

// FetchEventCount returns the server's event (attack) counter.
func (c *Client) FetchEventCount(ctx context.Context) (int64, error) {
	body, err := c.do(ctx, EndpointEventCount, http.MethodGet, PathEventCount, nil)
	if err != nil {
		return 0, err
	}
	n, err := ParseEventCount(body)
	if err != nil {
		return 0, &SchemaError{Endpoint: EndpointEventCount, Err: err}
	}
	return n, nil
}

type commandRequest struct {
	Command models.Command `json:"command"`
}

// SendCommand posts cmd to the actuator. A nil error means the server accepted it for
// delivery, not that the device changed state.
func (c *Client) SendCommand(ctx context.Context, cmd models.Command) error {
	body, err := c.do(ctx, EndpointCommand, http.MethodPost, PathCommand, commandRequest{Command: cmd})
	if err != nil {
		return err
	}
	ack, err := parseAck(body)
	if err != nil {
		return &SchemaError{Endpoint: EndpointCommand, Err: err}
	}
	if ack.Success == nil {
		return &ProtocolError{Endpoint: EndpointCommand, Reason: "missing success flag"}
	}
	if !*ack.Success {
		return &ProtocolError{Endpoint: EndpointCommand, Reason: "command rejected"}
	}
	return nil
}

// FetchStatus returns the actuator's authoritative on/off state.
func (c *Client) FetchStatus(ctx context.Context) (bool, error) {
	body, err := c.do(ctx, EndpointDeviceStatus, http.MethodGet, PathDeviceStatus, nil)
	if err != nil {
		return false, err
	}
	ack, err := parseAck(body)
	if err != nil {
		return false, &SchemaError{Endpoint: EndpointDeviceStatus, Err: err}
	}
	if ack.Success == nil || !*ack.Success {
		return false, &ProtocolError{Endpoint: EndpointDeviceStatus, Reason: "missing or false success flag"}
	}
	if ack.IsOn == nil {
		return false, &SchemaError{Endpoint: EndpointDeviceStatus, Err: errors.New("field isOn is missing")}
	}
	return *ack.IsOn, nil
}
