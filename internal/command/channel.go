// Package command owns the actuator's DeviceStatus: it sends operator commands and
// reconciles them against the status the board reports.
package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sensor_dashboard/internal/logger"
	"sensor_dashboard/internal/models"
)

// DefaultReconcileTimeout is the number of mismatching status checks after which a
// pending command is given up on.
const DefaultReconcileTimeout = 2

// Outcomes reported to the Observer.
const (
	OutcomeRejected    = "rejected"
	OutcomeAccepted    = "accepted"
	OutcomeFailed      = "failed"
	OutcomeConfirmed   = "confirmed"
	OutcomeUnconfirmed = "unconfirmed"
	OutcomeSuperseded  = "superseded"
)

// Sender talks to the actuator endpoints.
type Sender interface {
	SendCommand(ctx context.Context, cmd models.Command) error
	FetchStatus(ctx context.Context) (bool, error)
}

// Notifier delivers operator notices. Implementations must not block for long.
type Notifier interface {
	Notify(ctx context.Context, n models.Notice)
}

// Observer receives command outcomes, e.g. for metrics.
type Observer interface {
	CommandOutcome(outcome string)
	PendingChanged(pending bool)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Notice) {}

type nopObserver struct{}

func (nopObserver) CommandOutcome(string) {}
func (nopObserver) PendingChanged(bool)   {}

// Channel is the Idle/Pending state machine. It is the only writer of DeviceStatus.
type Channel struct {
	sender   Sender
	notifier Notifier
	obs      Observer
	log      *logger.Logger
	timeout  int
	now      func() time.Time
	newID    func() string

	mu         sync.Mutex
	status     models.DeviceStatus
	generation uint64 // bumped whenever a command is accepted
	mismatches int
}

type Option func(*Channel)

func WithNotifier(n Notifier) Option {
	return func(c *Channel) {
		if n != nil {
			c.notifier = n
		}
	}
}

func WithObserver(obs Observer) Option {
	return func(c *Channel) {
		if obs != nil {
			c.obs = obs
		}
	}
}

// WithReconcileTimeout sets how many mismatching checks a pending command survives.
func WithReconcileTimeout(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.timeout = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
	}
}

func New(log *logger.Logger, sender Sender, opts ...Option) *Channel {
	c := &Channel{
		sender:   sender,
		notifier: nopNotifier{},
		obs:      nopObserver{},
		log:      logger.OrNop(log).Named("command"),
		timeout:  DefaultReconcileTimeout,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns a copy of the current device status.
func (c *Channel) Status() models.DeviceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.Clone()
}

// Issue validates and sends cmd. Acceptance by the server moves the channel to Pending;
// it is not a confirmation. On failure the state is left unchanged.
func (c *Channel) Issue(ctx context.Context, cmd models.Command) (models.DeviceStatus, error) {
	cmd, err := models.ParseCommand(string(cmd))
	if err != nil {
		c.obs.CommandOutcome(OutcomeRejected)
		return c.Status(), err
	}

	if err := c.sender.SendCommand(ctx, cmd); err != nil {
		c.log.Warnw("command_failed", "command", cmd, "error", err)
		c.obs.CommandOutcome(OutcomeFailed)
		c.notify(ctx, c.notice(models.NoticeFailed, cmd, "Failed to send command to the board.", nil))
		return c.Status(), fmt.Errorf("send command %s: %w", cmd, err)
	}

	c.mu.Lock()
	prev := c.status.Pending
	pending := cmd
	c.status.Pending = &pending
	c.status.Unconfirmed = nil
	c.status.UpdatedAt = c.now()
	c.generation++
	c.mismatches = 0
	st := c.status.Clone()
	c.mu.Unlock()

	if prev != nil {
		c.log.Infow("command_superseded", "command", *prev, "by", cmd)
		c.obs.CommandOutcome(OutcomeSuperseded)
		c.notify(ctx, c.notice(models.NoticeSuperseded, *prev,
			fmt.Sprintf("Command %s superseded by %s.", *prev, cmd), nil))
	}
	c.log.Infow("command_accepted", "command", cmd)
	c.obs.CommandOutcome(OutcomeAccepted)
	c.obs.PendingChanged(true)
	c.notify(ctx, c.notice(models.NoticeAccepted, cmd,
		fmt.Sprintf("Command %s sent to the board successfully.", cmd), nil))
	return st, nil
}

// PrepareReconcile fetches the device status and returns the step that applies it.
// Nothing changes until apply is called, so a caller that was cancelled in the
// meantime can drop the result. A fetch failure leaves the status untouched.
func (c *Channel) PrepareReconcile(ctx context.Context) (func(), error) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	isOn, err := c.sender.FetchStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch device status: %w", err)
	}
	return func() { c.apply(gen, isOn) }, nil
}

// Reconcile fetches and applies the device status immediately.
func (c *Channel) Reconcile(ctx context.Context) (models.DeviceStatus, error) {
	apply, err := c.PrepareReconcile(ctx)
	if err != nil {
		return c.Status(), err
	}
	if ctx.Err() == nil {
		apply()
	}
	return c.Status(), nil
}

func (c *Channel) apply(gen uint64, isOn bool) {
	var (
		n       models.Notice
		outcome string
	)

	c.mu.Lock()
	if gen != c.generation {
		// fetched before the latest command was accepted
		c.mu.Unlock()
		c.log.Debugw("device_status_discarded", "is_on", isOn)
		return
	}

	c.status.IsOn = isOn
	c.status.UpdatedAt = c.now()
	if p := c.status.Pending; p != nil {
		cmd := *p
		on := isOn
		switch {
		case cmd.ExpectedOn() == isOn:
			c.status.Pending = nil
			c.status.Unconfirmed = nil
			c.mismatches = 0
			outcome = OutcomeConfirmed
			n = c.notice(models.NoticeConfirmed, cmd,
				fmt.Sprintf("Command %s confirmed by the board.", cmd), &on)
		default:
			c.mismatches++
			if c.mismatches >= c.timeout {
				c.status.Pending = nil
				c.status.Unconfirmed = &cmd
				c.mismatches = 0
				outcome = OutcomeUnconfirmed
				n = c.notice(models.NoticeUnconfirmed, cmd,
					fmt.Sprintf("Command %s was not confirmed by the board after %d status checks.", cmd, c.timeout), &on)
			} else {
				c.log.Debugw("device_status_mismatch", "command", cmd, "is_on", isOn, "checks", c.mismatches)
			}
		}
	}
	c.mu.Unlock()

	if outcome == "" {
		return
	}
	c.log.Infow("command_"+outcome, "command", n.Command, "is_on", isOn)
	c.obs.CommandOutcome(outcome)
	c.obs.PendingChanged(false)
	c.notify(context.Background(), n)
}

func (c *Channel) notice(kind models.NoticeKind, cmd models.Command, msg string, isOn *bool) models.Notice {
	return models.Notice{
		ID:         c.newID(),
		Kind:       kind,
		Command:    cmd,
		Message:    msg,
		OccurredAt: c.now(),
		IsOn:       isOn,
	}
}

func (c *Channel) notify(ctx context.Context, n models.Notice) {
	c.notifier.Notify(ctx, n)
}
