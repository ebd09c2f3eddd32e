package notify

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/mediassist/internal/observability/metrics"
	"github.com/wolfman30/mediassist/pkg/logging"
)

// DefaultDelay lets the confirmation render before the messaging app opens.
const DefaultDelay = time.Second

const dispatchTimeout = 30 * time.Second

// Dispatcher hands a prepared message to the outside world.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg OutboundMessage) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, msg OutboundMessage) error

func (f DispatcherFunc) Dispatch(ctx context.Context, msg OutboundMessage) error {
	return f(ctx, msg)
}

// Executor runs deferred tasks.
type Executor interface {
	AfterFunc(delay time.Duration, task func())
}

// TimerExecutor runs tasks on the runtime timer. Pending tasks are lost if the
// process exits first.
type TimerExecutor struct{}

func (TimerExecutor) AfterFunc(delay time.Duration, task func()) {
	time.AfterFunc(delay, task)
}

// ManualExecutor queues tasks until RunPending is called.
type ManualExecutor struct {
	mu     sync.Mutex
	tasks  []func()
	delays []time.Duration
}

func (m *ManualExecutor) AfterFunc(delay time.Duration, task func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
	m.delays = append(m.delays, delay)
}

// Pending returns the number of queued tasks.
func (m *ManualExecutor) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Delays returns the requested delay of every task queued so far.
func (m *ManualExecutor) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.delays...)
}

// RunPending runs and drains queued tasks, returning how many ran.
func (m *ManualExecutor) RunPending() int {
	m.mu.Lock()
	tasks := m.tasks
	m.tasks = nil
	m.mu.Unlock()

	for _, task := range tasks {
		task()
	}
	return len(tasks)
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMetrics records scheduled and dispatched notifications.
func WithMetrics(m *metrics.SessionMetrics) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// Scheduler defers notification dispatch on an Executor. Delivery is
// fire-and-forget: failures are logged, never retried.
type Scheduler struct {
	dispatcher Dispatcher
	executor   Executor
	delay      time.Duration
	logger     *logging.Logger
	metrics    *metrics.SessionMetrics
}

// NewScheduler creates a scheduler. A nil executor uses the runtime timer and
// a negative delay falls back to DefaultDelay.
func NewScheduler(dispatcher Dispatcher, executor Executor, delay time.Duration, logger *logging.Logger, opts ...SchedulerOption) *Scheduler {
	if executor == nil {
		executor = TimerExecutor{}
	}
	if delay < 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Scheduler{
		dispatcher: dispatcher,
		executor:   executor,
		delay:      delay,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule queues msg for delayed dispatch.
func (s *Scheduler) Schedule(msg OutboundMessage) {
	if s.dispatcher == nil {
		s.logger.Debug("notify: dispatcher not configured, dropping message", "kind", msg.Kind)
		return
	}
	s.metrics.ObserveNotification("scheduled")
	s.executor.AfterFunc(s.delay, func() {
		s.dispatch(msg)
	})
}

// DispatchNow sends msg immediately, for operator-initiated sends.
func (s *Scheduler) DispatchNow(ctx context.Context, msg OutboundMessage) error {
	if s.dispatcher == nil {
		return nil
	}
	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		s.metrics.ObserveNotification("failed")
		return err
	}
	s.metrics.ObserveNotification("dispatched")
	return nil
}

func (s *Scheduler) dispatch(msg OutboundMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := s.DispatchNow(ctx, msg); err != nil {
		s.logger.Warn("notify: dispatch failed", "kind", msg.Kind, "to", msg.To, "error", err)
		return
	}
	s.logger.Info("notify: message dispatched", "kind", msg.Kind, "to", msg.To)
}
