// Package trigger fans a recorded lead out to best-effort notifiers (the CRM
// webhook and the sales inbox). Deliveries run in the background and never
// affect the submission result; failures are reported on a channel.
package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/pkg/circuitbreaker"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/maestriajurisp/leads-api/pkg/metrics"
	"github.com/maestriajurisp/leads-api/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Notifier delivers one lead to one destination
type Notifier interface {
	Name() string
	Notify(ctx context.Context, lead *models.Lead) error
}

// Failure describes a delivery that gave up
type Failure struct {
	Notifier string
	LeadID   string
	Err      error
}

// Options tunes the dispatcher
type Options struct {
	// Timeout bounds one notifier, retries included
	Timeout time.Duration
	Retry   retry.Config
	// FailureBuffer is the capacity of the Failures channel. Failures that
	// do not fit are logged and dropped.
	FailureBuffer int
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		Timeout:       30 * time.Second,
		Retry:         retry.NotificationConfig(),
		FailureBuffer: 64,
	}
}

type target struct {
	notifier Notifier
	breaker  *gobreaker.CircuitBreaker
}

// Dispatcher runs notifiers asynchronously
type Dispatcher struct {
	opts     Options
	targets  []target
	failures chan Failure

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a circuit breaker per notifier
func NewDispatcher(opts Options, notifiers ...Notifier) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.Retry.RetryableErrors == nil {
		opts.Retry = retry.NotificationConfig()
	}

	d := &Dispatcher{
		opts:     opts,
		failures: make(chan Failure, opts.FailureBuffer),
	}
	for _, n := range notifiers {
		d.targets = append(d.targets, target{
			notifier: n,
			breaker:  circuitbreaker.NewCircuitBreaker(circuitbreaker.NotifierConfig(n.Name())),
		})
	}
	return d
}

// Failures returns the channel failed deliveries are reported on. It is
// closed by Close once every delivery has finished.
func (d *Dispatcher) Failures() <-chan Failure {
	return d.failures
}

// Dispatch starts one delivery per notifier and returns immediately. The
// deliveries outlive ctx's cancellation but keep its values (trace IDs).
func (d *Dispatcher) Dispatch(ctx context.Context, lead *models.Lead) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		logger.Warn("Dispatcher closed, dropping notifications",
			zap.String("lead_id", lead.ID))
		return
	}

	snapshot := *lead
	base := context.WithoutCancel(ctx)
	for _, t := range d.targets {
		d.wg.Add(1)
		go func(t target) {
			defer d.wg.Done()
			d.deliver(base, t, &snapshot)
		}(t)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, t target, lead *models.Lead) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	name := t.notifier.Name()
	err := retry.Do(ctx, d.opts.Retry, "notify_"+name, func() error {
		_, err := circuitbreaker.Execute(t.breaker, func() (struct{}, error) {
			return struct{}{}, t.notifier.Notify(ctx, lead)
		})
		return err
	})

	if err == nil {
		metrics.LeadNotifications.WithLabelValues(name, "success").Inc()
		return
	}

	status := "error"
	if circuitbreaker.IsCircuitOpen(t.breaker) {
		status = "circuit_open"
	}
	metrics.LeadNotifications.WithLabelValues(name, status).Inc()

	failure := Failure{Notifier: name, LeadID: lead.ID, Err: err}
	select {
	case d.failures <- failure:
	default:
		logger.Error("Notification failure dropped, channel full",
			zap.String("notifier", name),
			zap.String("lead_id", lead.ID),
			zap.Error(err))
	}
}

// Close stops accepting leads and waits for in-flight deliveries or ctx.
// The Failures channel is closed once every delivery has returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(d.failures)
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
