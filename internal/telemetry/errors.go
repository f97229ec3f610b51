package telemetry

import (
	"errors"
	"fmt"
)

// TransportError is a network or connection failure, including an open circuit breaker.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a non-success HTTP status or a missing/false success flag.
type ProtocolError struct {
	Endpoint   string
	StatusCode int // 0 when the HTTP exchange itself succeeded
	Reason     string
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: protocol error: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: protocol error: %s", e.Endpoint, e.Reason)
}

// SchemaError is a payload whose shape or types do not match the expected record.
type SchemaError struct {
	Endpoint string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema error: %v", e.Endpoint, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Error kinds used as log fields and metric labels.
const (
	KindTransport = "transport"
	KindProtocol  = "protocol"
	KindSchema    = "schema"
	KindUnknown   = "unknown"
)

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	var (
		te *TransportError
		pe *ProtocolError
		se *SchemaError
	)
	switch {
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &pe):
		return KindProtocol
	case errors.As(err, &se):
		return KindSchema
	default:
		return KindUnknown
	}
}
