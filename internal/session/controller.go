package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"brainvoice/internal/eventbus"
	applog "brainvoice/internal/log"
	"brainvoice/internal/metrics"
	"brainvoice/internal/realtime"
	"brainvoice/internal/tool"
)

// DefaultContinuationDelay is the pause between a tool result and the
// continuation that asks the backend to speak it.
const DefaultContinuationDelay = 500 * time.Millisecond

// Config tunes a Controller.
type Config struct {
	ContinuationDelay time.Duration
	ToolChoice        string
	// AnnounceFailures sends a continuation telling the user a tool failed
	// instead of staying silent.
	AnnounceFailures bool
}

// EmitError is returned when an outbound event could not be delivered.
type EmitError struct {
	Event string
	Err   error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit %s: %v", e.Event, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }

// Notice is the payload published on the event bus.
type Notice struct {
	SessionID string `json:"session_id"`
	Tool      string `json:"tool,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithBus publishes lifecycle notices on bus.
func WithBus(bus *eventbus.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithResultHandler calls fn with every successful invocation result of a
// live session, before its continuation is sent.
func WithResultHandler(fn func(ctx context.Context, res InvocationResult)) Option {
	return func(c *Controller) { c.onResult = fn }
}

// WithLogger replaces the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// Controller owns the state of one realtime connection. It feeds inbound
// events through Reduce and performs the resulting side effects.
//
// A single mutex guards state and every outbound emission, so an End()
// that returns guarantees no continuation from the ended session follows.
type Controller struct {
	cfg      Config
	registry *tool.Registry
	executor *tool.Executor
	emitter  realtime.Emitter
	bus      *eventbus.Bus
	logger   zerolog.Logger
	onResult func(context.Context, InvocationResult)

	mu         sync.Mutex
	state      State
	generation uint64
	sessionID  string
	ctx        context.Context
	cancel     context.CancelFunc

	inflight sync.WaitGroup
}

// NewController creates a controller in the idle phase.
func NewController(cfg Config, registry *tool.Registry, emitter realtime.Emitter, opts ...Option) *Controller {
	if cfg.ContinuationDelay < 0 {
		cfg.ContinuationDelay = 0
	}
	c := &Controller{
		cfg:      cfg,
		registry: registry,
		executor: tool.NewExecutor(registry),
		emitter:  emitter,
		logger:   applog.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the id of the live session, or "" when idle.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Wait blocks until every dispatched invocation has finished or been dropped.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// HandleEvent processes one inbound event. The only error it returns is
// an *EmitError for a failed registration; the session stays usable and a
// later session.created retries.
func (c *Controller) HandleEvent(ctx context.Context, ev realtime.Event) error {
	metrics.InboundEventsTotal.WithLabelValues(eventLabel(ev)).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	wasIdle := c.state.Phase == PhaseIdle
	next, actions := Reduce(c.state, ev, c.registry.Has)
	c.state = next

	switch e := ev.(type) {
	case realtime.SessionCreated:
		if wasIdle {
			c.begin(e.SessionID)
		}
	case realtime.ServerError:
		c.logger.Error().Str("session_id", c.sessionID).Str("code", e.Code).Msg(e.Message)
		c.publish(eventbus.TopicError, Notice{SessionID: c.sessionID, Detail: e.Code + ": " + e.Message})
	case realtime.Unrecognized:
		c.logger.Debug().Str("type", e.EventType).Msg("ignoring event")
	}

	var emitErr error
	for _, a := range actions {
		switch a.Kind {
		case ActionRegister:
			if err := c.register(ctx); err != nil {
				emitErr = err
			}
		case ActionInvoke:
			c.dispatch(a.Call)
		case ActionReject:
			c.logger.Warn().Str("session_id", c.sessionID).Str("tool", a.Call.Name).Str("call_id", a.Call.ID).Msg("call to unknown tool ignored")
			metrics.ToolInvocationsTotal.WithLabelValues(unknownToolLabel, "unknown_tool").Inc()
			c.publish(eventbus.TopicToolError, Notice{
				SessionID: c.sessionID, Tool: a.Call.Name, CallID: a.Call.ID, Detail: tool.ErrorUnknownTool.String(),
			})
		}
	}
	return emitErr
}

// End closes the live session. In-flight invocations finish but their
// continuations are dropped. Calling End while idle is a no-op.
func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseIdle {
		return
	}

	id := c.sessionID
	c.cancel()
	c.generation++
	c.state = State{}
	c.sessionID = ""
	c.ctx, c.cancel = nil, nil

	metrics.ActiveSessions.Dec()
	c.logger.Info().Str("session_id", id).Msg("session ended")
	c.publish(eventbus.TopicSessionEnded, Notice{SessionID: id})
}

// begin must be called with mu held.
func (c *Controller) begin(backendID string) {
	c.sessionID = backendID
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	metrics.ActiveSessions.Inc()
	c.logger.Info().Str("session_id", c.sessionID).Msg("session created")
	c.publish(eventbus.TopicSessionCreated, Notice{SessionID: c.sessionID})
}

// register must be called with mu held.
func (c *Controller) register(ctx context.Context) error {
	update := realtime.NewSessionUpdate(c.registry.Definitions(), c.cfg.ToolChoice)
	if err := c.emitter.Send(ctx, update); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("failed").Inc()
		emitErr := &EmitError{Event: realtime.TypeSessionUpdate, Err: err}
		c.logger.Error().Err(err).Str("session_id", c.sessionID).Msg("tool registration failed")
		c.publish(eventbus.TopicError, Notice{SessionID: c.sessionID, Detail: emitErr.Error()})
		return emitErr
	}

	c.state = markRegistered(c.state)
	metrics.RegistrationsTotal.WithLabelValues("sent").Inc()
	c.logger.Info().Str("session_id", c.sessionID).Int("tools", len(update.Session.Tools)).Msg("tools registered")
	c.publish(eventbus.TopicToolsRegistered, Notice{SessionID: c.sessionID, Detail: fmt.Sprintf("%d tools", len(update.Session.Tools))})
	return nil
}

// dispatch must be called with mu held.
func (c *Controller) dispatch(call tool.Call) {
	gen, ctx, id := c.generation, c.ctx, c.sessionID
	c.logger.Info().Str("session_id", id).Str("tool", call.Name).Str("call_id", call.ID).Msg("tool call")
	c.publish(eventbus.TopicToolCall, Notice{SessionID: id, Tool: call.Name, CallID: call.ID})

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.invoke(ctx, gen, id, call)
	}()
}

func (c *Controller) invoke(ctx context.Context, gen uint64, sessionID string, call tool.Call) {
	res, err := c.executor.Invoke(ctx, call)

	instruction, last, ok := c.complete(gen, sessionID, call, res, err)
	if last != nil && c.onResult != nil {
		c.onResult(ctx, *last)
	}
	if !ok {
		return
	}

	if c.cfg.ContinuationDelay > 0 {
		timer := time.NewTimer(c.cfg.ContinuationDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			metrics.ContinuationsTotal.WithLabelValues("dropped").Inc()
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		metrics.ContinuationsTotal.WithLabelValues("dropped").Inc()
		return
	}
	if err := c.emitter.Send(ctx, realtime.NewResponseCreate(instruction)); err != nil {
		metrics.ContinuationsTotal.WithLabelValues("failed").Inc()
		emitErr := &EmitError{Event: realtime.TypeResponseCreate, Err: err}
		c.logger.Error().Err(err).Str("session_id", sessionID).Str("tool", call.Name).Msg("continuation failed")
		c.publish(eventbus.TopicError, Notice{SessionID: sessionID, Tool: call.Name, CallID: call.ID, Detail: emitErr.Error()})
		return
	}
	metrics.ContinuationsTotal.WithLabelValues("sent").Inc()
	c.publish(eventbus.TopicContinuationSent, Notice{SessionID: sessionID, Tool: call.Name, CallID: call.ID})
}

// complete records an invocation outcome and returns the continuation
// instruction, or false when none should be sent. last is set only for a
// successful call of the live session.
func (c *Controller) complete(gen uint64, sessionID string, call tool.Call, res *tool.Result, err error) (instruction string, last *InvocationResult, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		outcome := "ok"
		if err != nil {
			outcome = "handler_failed"
		}
		metrics.ToolInvocationsTotal.WithLabelValues(call.Name, outcome).Inc()
		metrics.ContinuationsTotal.WithLabelValues("dropped").Inc()
		c.logger.Debug().Str("session_id", sessionID).Str("tool", call.Name).Msg("result arrived after session ended")
		return "", nil, false
	}

	if err != nil {
		metrics.ToolInvocationsTotal.WithLabelValues(call.Name, "handler_failed").Inc()
		c.logger.Error().Err(err).Str("session_id", sessionID).Str("tool", call.Name).Str("call_id", call.ID).Msg("tool failed")
		c.publish(eventbus.TopicToolError, Notice{SessionID: sessionID, Tool: call.Name, CallID: call.ID, Detail: err.Error()})
		if !c.cfg.AnnounceFailures {
			return "", nil, false
		}
		return failureInstruction(call.Name, err), nil, true
	}

	metrics.ToolInvocationsTotal.WithLabelValues(call.Name, "ok").Inc()
	result := InvocationResult{
		ToolName: call.Name,
		CallID:   call.ID,
		Output:   res.Output,
		At:       time.Now(),
	}
	c.state.LastResult = &result
	c.publish(eventbus.TopicToolResult, Notice{SessionID: sessionID, Tool: call.Name, CallID: call.ID, Detail: string(res.Output)})
	return c.executor.Narration(call.Name, res), &result, true
}

// Label values for names the backend controls.
const (
	otherEventLabel  = "other"
	unknownToolLabel = "unknown"
)

func eventLabel(ev realtime.Event) string {
	if _, ok := ev.(realtime.Unrecognized); ok {
		return otherEventLabel
	}
	return ev.Type()
}

func failureInstruction(name string, err error) string {
	var te *tool.ToolError
	if errors.As(err, &te) && te.Message != "" {
		return "The " + name + " tool failed (" + te.Message + "). Briefly tell the user it didn't work and carry on without it."
	}
	return "The " + name + " tool failed. Briefly tell the user it didn't work and carry on without it."
}

func (c *Controller) publish(topic eventbus.Topic, n Notice) {
	c.bus.Publish(topic, n)
}
