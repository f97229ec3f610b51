// Package poller runs the dashboard's independent fetch cycles.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"sensor_dashboard/internal/logger"
	"sensor_dashboard/internal/telemetry"
)

// DefaultStalenessThreshold is the consecutive-failure count after which a cycle's data is cleared.
const DefaultStalenessThreshold = 3

// Job is one recurring fetch-and-apply operation.
//
// Run performs the fetch and returns the function that writes the result; the poller
// calls apply only while it is still running. Stale, when set, is called once the
// cycle's consecutive failures reach the staleness threshold.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (apply func(), err error)
	Stale    func()
}

// Observer receives per-cycle outcomes, typically for metrics.
type Observer interface {
	FetchDone(cycle string, err error)
	TickSkipped(cycle string)
	ConsecutiveFailures(cycle string, n int)
}

type nopObserver struct{}

func (nopObserver) FetchDone(string, error)         {}
func (nopObserver) TickSkipped(string)              {}
func (nopObserver) ConsecutiveFailures(string, int) {}

// CycleStatus describes one cycle for health reporting.
type CycleStatus struct {
	Name                string        `json:"name"`
	Interval            time.Duration `json:"interval"`
	InFlight            bool          `json:"in_flight"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastSuccess         time.Time     `json:"last_success,omitempty"`
	LastError           string        `json:"last_error,omitempty"`
}

type cycle struct {
	job      Job
	inFlight atomic.Bool

	mu          sync.Mutex
	failures    int
	lastSuccess time.Time
	lastErr     string
}

// Poller owns a set of cycles. A cycle never overlaps itself: a tick that arrives while
// the previous fetch is in flight is skipped. Different cycles run independently.
type Poller struct {
	cycles    []*cycle
	threshold int
	log       *logger.Logger
	obs       Observer

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// applyMu makes "still running?" and apply atomic with respect to Stop.
	applyMu sync.RWMutex
}

// Option customizes a Poller.
type Option func(*Poller)

// WithObserver reports cycle outcomes to obs.
func WithObserver(obs Observer) Option {
	return func(p *Poller) {
		if obs != nil {
			p.obs = obs
		}
	}
}

// WithStalenessThreshold overrides DefaultStalenessThreshold.
func WithStalenessThreshold(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.threshold = n
		}
	}
}

// New builds a poller for jobs. Jobs with a non-positive interval are ignored.
func New(log *logger.Logger, jobs []Job, opts ...Option) *Poller {
	p := &Poller{
		threshold: DefaultStalenessThreshold,
		log:       logger.OrNop(log).Named("poller"),
		obs:       nopObserver{},
	}
	for _, j := range jobs {
		if j.Interval <= 0 || j.Run == nil {
			p.log.Warnw("poll_job_ignored", "cycle", j.Name, "interval", j.Interval)
			continue
		}
		p.cycles = append(p.cycles, &cycle{job: j})
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start launches every cycle with an immediate first tick. It returns false when the
// poller is already running.
func (p *Poller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.applyMu.Lock()
	p.cancel = cancel
	p.running = true
	p.applyMu.Unlock()

	for _, c := range p.cycles {
		p.wg.Add(1)
		go p.loop(runCtx, c)
	}
	p.log.Infow("poller_started", "cycles", len(p.cycles), "staleness_threshold", p.threshold)
	return true
}

// Stop cancels every cycle together, aborts in-flight fetches and waits for them to
// finish. Results that arrive after Stop are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.applyMu.Lock()
	p.cancel()
	p.running = false
	p.applyMu.Unlock()

	p.wg.Wait()
	p.log.Infow("poller_stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Status returns a snapshot of every cycle.
func (p *Poller) Status() []CycleStatus {
	out := make([]CycleStatus, 0, len(p.cycles))
	for _, c := range p.cycles {
		c.mu.Lock()
		out = append(out, CycleStatus{
			Name:                c.job.Name,
			Interval:            c.job.Interval,
			InFlight:            c.inFlight.Load(),
			ConsecutiveFailures: c.failures,
			LastSuccess:         c.lastSuccess,
			LastError:           c.lastErr,
		})
		c.mu.Unlock()
	}
	return out
}

func (p *Poller) loop(ctx context.Context, c *cycle) {
	defer p.wg.Done()

	p.tick(ctx, c)

	t := time.NewTicker(c.job.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.tick(ctx, c)
		}
	}
}

// tick starts one fetch unless the previous one is still in flight. It reports whether
// a fetch was started.
func (p *Poller) tick(ctx context.Context, c *cycle) bool {
	if ctx.Err() != nil {
		return false
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		p.log.Debugw("poll_tick_skipped", "cycle", c.job.Name)
		p.obs.TickSkipped(c.job.Name)
		return false
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer c.inFlight.Store(false)
		p.execute(ctx, c)
	}()
	return true
}

func (p *Poller) execute(ctx context.Context, c *cycle) {
	apply, err := c.job.Run(ctx)

	p.applyMu.RLock()
	defer p.applyMu.RUnlock()
	if ctx.Err() != nil {
		p.log.Debugw("poll_result_discarded", "cycle", c.job.Name)
		return
	}

	p.obs.FetchDone(c.job.Name, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failures++
		c.lastErr = err.Error()
		p.obs.ConsecutiveFailures(c.job.Name, c.failures)
		p.log.Warnw("poll_fetch_failed",
			"cycle", c.job.Name,
			"kind", telemetry.Kind(err),
			"consecutive_failures", c.failures,
			"err", err,
		)
		if c.failures >= p.threshold && c.job.Stale != nil {
			if c.failures == p.threshold {
				p.log.Warnw("poll_data_stale", "cycle", c.job.Name, "consecutive_failures", c.failures)
			}
			c.job.Stale()
		}
		return
	}

	if apply != nil {
		apply()
	}
	if c.failures > 0 {
		p.log.Infow("poll_recovered", "cycle", c.job.Name, "after_failures", c.failures)
	}
	c.failures = 0
	c.lastErr = ""
	c.lastSuccess = time.Now()
	p.obs.ConsecutiveFailures(c.job.Name, 0)
}
