package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Command is an actuator command token such as BUZZER_ON or OFF.
type Command string

const (
	CommandOff      Command = "OFF"
	CommandBuzzerOn Command = "BUZZER_ON"
)

var (
	commandPattern = regexp.MustCompile(`^[A-Z0-9]+(_[A-Z0-9]+)*_(ON|OFF)$`)

	ErrInvalidCommand = errors.New("invalid command: expected OFF, <NAME>_ON or <NAME>_OFF")
)

// ParseCommand normalizes and validates a command token.
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToUpper(strings.TrimSpace(s)))
	if c == CommandOff || commandPattern.MatchString(string(c)) {
		return c, nil
	}
	return "", ErrInvalidCommand
}

// ExpectedOn is the device state the command should produce once delivered.
func (c Command) ExpectedOn() bool {
	return c != CommandOff && !strings.HasSuffix(string(c), "_OFF")
}

// DeviceStatus is the operator-visible state of the actuator.
type DeviceStatus struct {
	IsOn        bool      `json:"is_on"`
	Pending     *Command  `json:"pending"`               // awaiting confirmation
	Unconfirmed *Command  `json:"unconfirmed,omitempty"` // last command that timed out
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsPending reports whether a command is awaiting confirmation.
func (s DeviceStatus) IsPending() bool { return s.Pending != nil }

// Clone returns a copy that shares no pointers with s.
func (s DeviceStatus) Clone() DeviceStatus {
	out := s
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	if s.Unconfirmed != nil {
		u := *s.Unconfirmed
		out.Unconfirmed = &u
	}
	return out
}
