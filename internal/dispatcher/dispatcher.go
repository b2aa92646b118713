package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/vgccalc/vgccalc/internal/logging"
	"github.com/vgccalc/vgccalc/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of batch elements run at once.
const DefaultConcurrency = 8

// Request is one tool call.
type Request struct {
	ID   json.RawMessage `json:"id,omitempty"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response answers one Request. Result is set only when Success is true.
type Response struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Tool    string          `json:"tool"`
	Success bool            `json:"success"`
	Result  any             `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Kind    ErrorKind       `json:"kind,omitempty"`
}

// Queued is the result of a call accepted by a buffered tool.
type Queued struct {
	Queued bool   `json:"queued"`
	Tool   string `json:"tool"`
}

// Event is what a handler receives.
type Event struct {
	Tool      string
	Args      json.RawMessage
	RequestID string
	Batch     bool
	Timestamp time.Time
}

// Decode unmarshals the arguments into v. Missing arguments decode as {}.
// Unknown fields are rejected.
func (e Event) Decode(v any) error {
	args := bytes.TrimSpace(e.Args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return Errorf(KindValidation, "invalid arguments for %s: %v", e.Tool, err)
	}
	return nil
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(ctx context.Context, e Event) (any, error)

// Logger interface for pluggable logging. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Observer is told about every finished call, including buffered ones.
type Observer func(core.CallRecord)

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes tool calls to registered handlers.
type Dispatcher struct {
	handlers    map[string]HandlerFunc
	logger      Logger
	classifier  Classifier
	observers   []Observer
	concurrency int
	timeout     time.Duration

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter
	duration  metric.Float64Histogram

	// Track buffers for gauge callback
	mu      sync.RWMutex
	buffers map[string]chan queuedEvent
	workers sync.WaitGroup
	closed  bool
}

type queuedEvent struct {
	event Event
	start time.Time
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers:    make(map[string]HandlerFunc),
		buffers:     make(map[string]chan queuedEvent),
		logger:      logger,
		concurrency: DefaultConcurrency,
	}

	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of calls waiting in a tool queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for tool, buf := range d.buffers {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("tool", tool)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.calls.processed",
		metric.WithDescription("Total tool calls processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.calls.failed",
		metric.WithDescription("Total tool calls that returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.calls.dropped",
		metric.WithDescription("Total tool calls dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	d.duration, err = m.Float64Histogram(
		"dispatcher.call.duration",
		metric.WithDescription("Tool call duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return d, nil
}

// SetClassifier installs the mapping from handler errors to kinds.
func (d *Dispatcher) SetClassifier(c Classifier) {
	d.classifier = c
}

// SetConcurrency bounds parallel batch elements. n <= 0 restores the default.
func (d *Dispatcher) SetConcurrency(n int) {
	if n <= 0 {
		n = DefaultConcurrency
	}
	d.concurrency = n
}

// SetTimeout limits each call. Zero means no limit.
func (d *Dispatcher) SetTimeout(t time.Duration) {
	d.timeout = t
}

// Observe registers fn to be called after every call. Register observers
// before dispatching.
func (d *Dispatcher) Observe(fn Observer) {
	if fn != nil {
		d.observers = append(d.observers, fn)
	}
}

// Register adds a handler for the given tool with optional configuration.
func (d *Dispatcher) Register(tool string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.logged {
		handler = d.withLogging(tool, handler)
	}

	if cfg.bufferSize > 0 {
		handler = d.withBuffer(tool, cfg.bufferSize, cfg.blocking, handler)
	}

	d.handlers[tool] = handler
}

// HasHandler returns true if a handler is registered for the tool.
func (d *Dispatcher) HasHandler(tool string) bool {
	_, ok := d.handlers[tool]
	return ok
}

// Tools lists the registered tool names.
func (d *Dispatcher) Tools() []string {
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	return out
}

// Dispatch runs one request. It never panics and never returns a partial
// result: a failure is reported in the response.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	return d.dispatch(ctx, req, false)
}

// DispatchBatch runs every request and returns the responses in request
// order. One failing element does not affect the others.
func (d *Dispatcher) DispatchBatch(ctx context.Context, reqs []Request) []Response {
	out := make([]Response, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i := range reqs {
		g.Go(func() error {
			out[i] = d.dispatch(gctx, reqs[i], true)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func requestID(raw json.RawMessage) string {
	return strings.Trim(string(bytes.TrimSpace(raw)), `"`)
}

func (d *Dispatcher) dispatch(ctx context.Context, req Request, batch bool) (resp Response) {
	start := time.Now()
	resp = Response{ID: req.ID, Tool: req.Tool}
	e := Event{
		Tool:      req.Tool,
		Args:      req.Args,
		RequestID: requestID(req.ID),
		Batch:     batch,
		Timestamp: start,
	}
	ctx = logging.WithCorrelationID(ctx, e.RequestID)

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked", "tool", req.Tool, "panic", r, "stack", string(debug.Stack()))
			resp = d.fail(resp, Errorf(KindInternal, "internal error: %v", r))
		}
		// buffered calls report when they finish
		if _, queued := resp.Result.(Queued); !queued {
			d.complete(e, resp, time.Since(start))
		}
	}()

	h, ok := d.handlers[req.Tool]
	if !ok {
		if req.Tool == "" {
			return d.fail(resp, Errorf(KindValidation, "missing tool name"))
		}
		return d.fail(resp, fmt.Errorf("%w: %s", ErrUnknownTool, req.Tool))
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	result, err := h(ctx, e)
	if err != nil {
		return d.fail(resp, err)
	}
	resp.Success = true
	resp.Result = result
	return resp
}

func (d *Dispatcher) fail(resp Response, err error) Response {
	resp.Success = false
	resp.Result = nil
	resp.Error = err.Error()
	resp.Kind = classify(err, d.classifier)
	return resp
}

func (d *Dispatcher) complete(e Event, resp Response, elapsed time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("tool", e.Tool),
		attribute.Bool("success", resp.Success),
	)
	d.processed.Add(ctx, 1, attrs)
	d.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	if !resp.Success {
		d.failed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", e.Tool),
			attribute.String("kind", string(resp.Kind)),
		))
	}

	rec := core.CallRecord{
		Tool:      e.Tool,
		RequestID: e.RequestID,
		OK:        resp.Success,
		ErrorKind: string(resp.Kind),
		Batch:     e.Batch,
		Duration:  elapsed,
		Time:      e.Timestamp,
	}
	for _, fn := range d.observers {
		fn(rec)
	}
}

func (d *Dispatcher) withBuffer(tool string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := make(chan queuedEvent, size)

	d.mu.Lock()
	d.buffers[tool] = buffer
	d.mu.Unlock()

	toolAttr := attribute.String("tool", tool)

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for q := range buffer {
			d.runQueued(h, q)
		}
	}()

	if blocking {
		return func(ctx context.Context, e Event) (any, error) {
			select {
			case buffer <- queuedEvent{event: e, start: time.Now()}:
				return Queued{Queued: true, Tool: tool}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return func(_ context.Context, e Event) (any, error) {
		select {
		case buffer <- queuedEvent{event: e, start: time.Now()}:
			return Queued{Queued: true, Tool: tool}, nil
		default:
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(toolAttr))
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, tool)
		}
	}
}

func (d *Dispatcher) runQueued(h HandlerFunc, q queuedEvent) {
	resp := Response{Tool: q.event.Tool}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("queued handler panicked", "tool", q.event.Tool, "panic", r)
			resp = d.fail(resp, Errorf(KindInternal, "internal error: %v", r))
		}
		if !resp.Success {
			d.logger.Error("queued call failed", "tool", q.event.Tool, "error", resp.Error)
		}
		d.complete(q.event, resp, time.Since(q.start))
	}()

	ctx := logging.WithCorrelationID(context.Background(), q.event.RequestID)
	if _, err := h(ctx, q.event); err != nil {
		resp = d.fail(resp, err)
		return
	}
	resp.Success = true
}

func (d *Dispatcher) withLogging(tool string, h HandlerFunc) HandlerFunc {
	return func(ctx context.Context, e Event) (any, error) {
		start := time.Now()
		id := logging.CorrelationID(ctx)
		d.logger.Debug("handling call", "tool", tool, "correlation_id", id, "args", len(e.Args))

		result, err := h(ctx, e)

		if err != nil {
			d.logger.Error("call failed", "tool", tool, "correlation_id", id, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("call complete", "tool", tool, "correlation_id", id, "duration", time.Since(start))
		}

		return result, err
	}
}

// Close stops the queue workers after they drain. Dispatching to a
// buffered tool after Close panics, which Dispatch reports as internal.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, buf := range d.buffers {
		close(buf)
	}
	d.mu.Unlock()
	d.workers.Wait()
}
