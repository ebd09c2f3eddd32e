// Package app owns the long-lived objects of one MediAssist desk and wires
// them from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/wolfman30/mediassist/internal/app/bootstrap"
	appconfig "github.com/wolfman30/mediassist/internal/config"
	"github.com/wolfman30/mediassist/internal/conversation"
	"github.com/wolfman30/mediassist/internal/ledger"
	"github.com/wolfman30/mediassist/internal/notify"
	"github.com/wolfman30/mediassist/internal/observability/metrics"
	"github.com/wolfman30/mediassist/internal/persistence"
	"github.com/wolfman30/mediassist/internal/stats"
	"github.com/wolfman30/mediassist/pkg/logging"
)

// ErrMetricsDisabled is returned by WriteMetrics when METRICS_ENABLED is off.
var ErrMetricsDisabled = errors.New("app: metrics are disabled")

// App is the composition root: one ledger, one model session and one
// notification pipeline per process.
type App struct {
	Config     *appconfig.Config
	Logger     *logging.Logger
	Controller *conversation.Controller
	Scheduler  *notify.Scheduler
	Store      persistence.Store
	Metrics    *metrics.SessionMetrics
	// Registry holds the session collectors; nil when metrics are disabled.
	Registry *prometheus.Registry

	closers []func() error
}

// Option customizes Build.
type Option func(*buildOptions)

type buildOptions struct {
	llm         conversation.LLMClient
	store       persistence.Store
	dispatchers []notify.Dispatcher
	executor    notify.Executor
	registry    *prometheus.Registry
}

// WithLLMClient skips provider wiring.
func WithLLMClient(client conversation.LLMClient) Option {
	return func(o *buildOptions) { o.llm = client }
}

// WithStore skips backend selection.
func WithStore(store persistence.Store) Option {
	return func(o *buildOptions) { o.store = store }
}

// WithDispatcher adds a notification target, e.g. a terminal printer.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(o *buildOptions) { o.dispatchers = append(o.dispatchers, d) }
}

func WithExecutor(exec notify.Executor) Option {
	return func(o *buildOptions) { o.executor = exec }
}

// WithRegistry registers the session collectors on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *buildOptions) { o.registry = reg }
}

// Build wires every collaborator from cfg and restores persisted state.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger}
	if cfg.MetricsEnabled {
		a.Registry = o.registry
		if a.Registry == nil {
			a.Registry = prometheus.NewRegistry()
		}
		a.Metrics = metrics.NewSessionMetrics(a.Registry)
	}

	llm := o.llm
	if llm == nil {
		client, closeFn, err := bootstrap.BuildLLMClient(ctx, cfg, logger, a.Metrics)
		if err != nil {
			return nil, err
		}
		llm = client
		a.closers = append(a.closers, closeFn)
	}

	a.Store = o.store
	if a.Store == nil {
		store, closeFn, err := bootstrap.BuildStore(ctx, cfg, logger)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Store = store
		a.closers = append(a.closers, func() error { closeFn(); return nil })
	}

	sender, err := bootstrap.BuildEmailSender(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	dispatcher := bootstrap.BuildDispatcher(cfg, sender, logger)
	if len(o.dispatchers) > 0 {
		dispatcher = append(notify.FanOut{dispatcher}, o.dispatchers...)
	}
	a.Scheduler = notify.NewScheduler(dispatcher, o.executor, cfg.NotifyDelay, logger, notify.WithMetrics(a.Metrics))

	a.Controller = conversation.NewController(llm, ledger.New(),
		conversation.WithLogger(logger),
		conversation.WithMetrics(a.Metrics),
		conversation.WithStore(a.Store),
		conversation.WithScheduler(a.Scheduler),
		conversation.WithNotifyConfig(notify.Config{Enabled: cfg.AutoSend, DestinationNumber: cfg.AdminPhone}),
		conversation.WithTemperature(cfg.LLMTemperature),
		conversation.WithTurnTimeout(cfg.LLMTimeout),
		conversation.WithClinicName(cfg.ClinicName),
	)
	if err := a.Controller.Restore(ctx); err != nil {
		logger.Warn("app: failed to restore settings", "error", err)
	}

	return a, nil
}

// Stats computes the dashboard view of the current ledger.
func (a *App) Stats() stats.Stats {
	return stats.Compute(a.Controller.Ledger().Snapshot())
}

// Report renders the daily report text.
func (a *App) Report() string {
	return notify.DailyReport(a.Controller.Ledger().Snapshot())
}

// SendReport dispatches the daily report now, regardless of auto-send.
func (a *App) SendReport(ctx context.Context) (notify.OutboundMessage, error) {
	msg := notify.ReportMessage(a.Controller.Ledger().Snapshot(), a.Controller.NotifyConfig().DestinationNumber)
	return msg, a.Scheduler.DispatchNow(ctx, msg)
}

// WriteMetrics renders the session collectors in the Prometheus text format.
func (a *App) WriteMetrics(w io.Writer) error {
	if a.Registry == nil {
		return ErrMetricsDisabled
	}
	families, err := a.Registry.Gather()
	if err != nil {
		return fmt.Errorf("app: gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return fmt.Errorf("app: write metrics: %w", err)
		}
	}
	return nil
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
