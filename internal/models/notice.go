package models

import "time"

// NoticeKind classifies an operator notice.
type NoticeKind string

const (
	NoticeAccepted    NoticeKind = "ACCEPTED"
	NoticeFailed      NoticeKind = "FAILED"
	NoticeConfirmed   NoticeKind = "CONFIRMED"
	NoticeUnconfirmed NoticeKind = "UNCONFIRMED"
	NoticeSuperseded  NoticeKind = "SUPERSEDED"
)

// Notice is an operator-facing message about a device command.
type Notice struct {
	ID         string     `json:"id"`
	Kind       NoticeKind `json:"kind"`
	Command    Command    `json:"command"`
	Message    string     `json:"message"`
	OccurredAt time.Time  `json:"occurred_at"`
	IsOn       *bool      `json:"is_on,omitempty"` // device state known at the time, if any
}
