package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/mediassist/internal/booking"
	"github.com/wolfman30/mediassist/internal/ledger"
	"github.com/wolfman30/mediassist/internal/notify"
	"github.com/wolfman30/mediassist/internal/observability/metrics"
	"github.com/wolfman30/mediassist/internal/persistence"
	"github.com/wolfman30/mediassist/pkg/logging"
)

// ApologyText replaces the model reply when the model call fails.
const ApologyText = "System connection interrupted. Please try again in a moment."

var (
	// ErrEmptyMessage rejects blank input. Front ends ignore it.
	ErrEmptyMessage = errors.New("conversation: empty message")
	// ErrTurnInFlight rejects a turn while another is awaiting the model.
	ErrTurnInFlight = errors.New("conversation: turn already in flight")
)

// TurnResult describes everything one turn produced.
type TurnResult struct {
	// Turn is the model turn appended to the transcript.
	Turn Turn
	// Booking is the record as stored in the ledger, if the reply carried one.
	Booking      *booking.Record
	Cancel       *ledger.CancelResult
	Notification *notify.OutboundMessage
	// ParseErr is set when the reply had a structured block that could not be decoded.
	ParseErr error
	// ModelErr is set when the model call failed and the apology was shown.
	ModelErr error
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

func WithLogger(logger *logging.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.SessionMetrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) ControllerOption {
	return func(c *Controller) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithStore persists ledger snapshots and settings after every change.
func WithStore(store persistence.Store) ControllerOption {
	return func(c *Controller) {
		c.store = store
	}
}

// WithScheduler enables deferred booking notifications.
func WithScheduler(s *notify.Scheduler) ControllerOption {
	return func(c *Controller) {
		c.scheduler = s
	}
}

func WithNotifyConfig(cfg notify.Config) ControllerOption {
	return func(c *Controller) {
		c.notifyCfg = cfg
	}
}

func WithTemperature(temperature float32) ControllerOption {
	return func(c *Controller) {
		c.temperature = temperature
	}
}

// WithTurnTimeout bounds each model call. Zero means no timeout.
func WithTurnTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.timeout = d
	}
}

func WithClinicName(name string) ControllerOption {
	return func(c *Controller) {
		c.clinicName = name
	}
}

// WithClock overrides the time source for turns and the prompt date.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller drives one conversation: it relays user turns to the model,
// applies booking payloads to the ledger and triggers notifications.
// Only one turn may be in flight at a time.
type Controller struct {
	llm       LLMClient
	ledger    *ledger.Ledger
	store     persistence.Store
	scheduler *notify.Scheduler
	logger    *logging.Logger
	metrics   *metrics.SessionMetrics
	tracer    trace.Tracer
	now       func() time.Time

	temperature float32
	timeout     time.Duration
	clinicName  string

	inFlight atomic.Bool

	mu         sync.Mutex
	transcript []Turn
	session    *session
	notifyCfg  notify.Config
}

func NewController(llm LLMClient, l *ledger.Ledger, opts ...ControllerOption) *Controller {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if l == nil {
		l = ledger.New()
	}
	c := &Controller{
		llm:         llm,
		ledger:      l,
		logger:      logging.Default(),
		tracer:      otel.Tracer("mediassist.internal.conversation"),
		now:         time.Now,
		temperature: 0.4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start asks the model to greet. Only the model turn is recorded.
func (c *Controller) Start(ctx context.Context) (*TurnResult, error) {
	return c.exchange(ctx, OpenerMessage, false)
}

// SendTurn records the user's message, asks the model and applies any
// booking payload in the reply. Model and parse failures are reported on
// the result, never as an error.
func (c *Controller) SendTurn(ctx context.Context, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	return c.exchange(ctx, text, true)
}

func (c *Controller) exchange(ctx context.Context, text string, recordUser bool) (*TurnResult, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrTurnInFlight
	}
	defer c.inFlight.Store(false)

	ctx, span := c.tracer.Start(ctx, "conversation.turn")
	defer span.End()

	if recordUser {
		c.appendTurn(newTurn(RoleUser, text, c.now()))
	}

	reply, err := c.complete(ctx, text)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("conversation: model call failed", "error", err)
		c.metrics.ObserveTurn("model_error")
		turn := newTurn(RoleModel, ApologyText, c.now())
		c.appendTurn(turn)
		return &TurnResult{Turn: turn, ModelErr: err}, nil
	}

	parsed := booking.ParseReply(reply)
	turn := newTurn(RoleModel, parsed.DisplayText, c.now())
	c.appendTurn(turn)
	result := &TurnResult{Turn: turn, ParseErr: parsed.Err}

	if parsed.Err != nil {
		c.logger.Warn("conversation: failed to decode booking block", "error", parsed.Err)
		c.metrics.ObserveParseFailure()
		c.metrics.ObserveTurn("parse_error")
		return result, nil
	}
	if parsed.Booking == nil {
		c.metrics.ObserveTurn("reply")
		return result, nil
	}

	c.apply(ctx, *parsed.Booking, result)
	span.SetAttributes(attribute.String("booking.status", string(result.Booking.Status)))
	return result, nil
}

func (c *Controller) complete(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	if c.session == nil {
		c.session = newSession(systemPromptFor(c.clinicName, c.now()))
	}
	req := c.session.request(text, c.temperature)
	c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := c.llm.Complete(ctx, req)
	c.metrics.ObserveModelLatency(err != nil, time.Since(started).Seconds())
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.session.record(text, resp.Text)
	c.mu.Unlock()
	return resp.Text, nil
}

func (c *Controller) apply(ctx context.Context, rec booking.Record, result *TurnResult) {
	if rec.IsCancelled() {
		res := c.ledger.Cancel(rec)
		result.Cancel = &res
		result.Booking = &res.Record
		c.metrics.ObserveCancellation(string(res.Outcome))
		c.metrics.ObserveBooking(string(booking.StatusCancelled))
		c.metrics.ObserveTurn("cancellation")
		c.logger.Info("conversation: cancellation applied", "patient", rec.PatientName, "outcome", res.Outcome)
	} else {
		stored := c.ledger.Insert(rec)
		result.Booking = &stored
		c.metrics.ObserveBooking(statusLabel(stored.Status))
		c.metrics.ObserveTurn("booking")
		c.logger.Info("conversation: booking recorded", "patient", stored.PatientName, "department", stored.Department, "status", stored.Status)

		if msg := notify.OnNewBooking(stored, c.NotifyConfig()); msg != nil {
			result.Notification = msg
			if c.scheduler != nil {
				c.scheduler.Schedule(*msg)
			}
		}
	}
	c.persistLedger(ctx)
}

// statusLabel keeps model-supplied statuses from becoming metric labels.
func statusLabel(status booking.Status) string {
	switch status {
	case booking.StatusConfirmed, booking.StatusPendingCallback, booking.StatusCancelled:
		return string(status)
	default:
		return "other"
	}
}

func (c *Controller) persistLedger(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveLedger(ctx, c.ledger.Snapshot()); err != nil {
		c.logger.Error("conversation: failed to persist ledger", "error", err)
	}
}

func (c *Controller) appendTurn(turn Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, turn)
}

// Transcript returns a copy of the turns so far, oldest first.
func (c *Controller) Transcript() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.transcript...)
}

// Ledger exposes the booking ledger for read-side views.
func (c *Controller) Ledger() *ledger.Ledger {
	return c.ledger
}

func (c *Controller) NotifyConfig() notify.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifyCfg
}

// UpdateNotifyConfig changes the auto-send preference and persists it.
func (c *Controller) UpdateNotifyConfig(ctx context.Context, cfg notify.Config) error {
	c.mu.Lock()
	c.notifyCfg = cfg
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.SaveSettings(ctx, persistence.Settings{
		AdminPhone: cfg.DestinationNumber,
		AutoSend:   cfg.Enabled,
	})
}

// ClearHistory empties the ledger and its persisted copy. The transcript is kept.
func (c *Controller) ClearHistory(ctx context.Context) error {
	c.ledger.Clear()
	if c.store == nil {
		return nil
	}
	return c.store.ClearLedger(ctx)
}

// Restore loads persisted ledger and settings. Missing settings keep the
// configured defaults; an unreadable ledger starts empty.
func (c *Controller) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	records, err := c.store.LoadLedger(ctx)
	if err != nil {
		c.logger.Error("conversation: failed to load saved bookings, starting empty", "error", err)
	} else {
		c.ledger.Restore(records)
	}

	settings, err := c.store.LoadSettings(ctx)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	c.mu.Lock()
	c.notifyCfg = notify.Config{Enabled: settings.AutoSend, DestinationNumber: settings.AdminPhone}
	c.mu.Unlock()
	return nil
}
