package flow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Context is the execution context handed to every node and router.
// It extends context.Context with run metadata and the one-shot resume
// value used by suspend points.
type Context interface {
	context.Context

	// Logger returns the run logger enriched with session and node
	// fields. Never nil; defaults to slog.Default().
	Logger() *slog.Logger

	// Session returns the session key this run belongs to.
	Session() string

	// NodeID returns the node currently executing, or "" before the
	// first node starts.
	NodeID() string

	// TakeResume consumes the resume value supplied to Resume. It
	// reports false when no value is pending, which is how a suspend
	// point distinguishes first entry from re-entry.
	TakeResume() (string, bool)
}

// resumeSlot holds the pending resume value. It is shared by all
// derived contexts of one run so consumption is visible everywhere.
type resumeSlot struct {
	mu    sync.Mutex
	value string
	armed bool
}

func (s *resumeSlot) take() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.armed {
		return "", false
	}
	s.armed = false
	return s.value, true
}

type execContext struct {
	context.Context

	logger  *slog.Logger
	session string
	nodeID  string
	resume  *resumeSlot
}

func (c *execContext) Logger() *slog.Logger { return c.logger }
func (c *execContext) Session() string      { return c.session }
func (c *execContext) NodeID() string       { return c.nodeID }

func (c *execContext) TakeResume() (string, bool) {
	if c.resume == nil {
		return "", false
	}
	return c.resume.take()
}

// ContextOption configures a Context.
type ContextOption func(*execContext)

// WithLogger sets the logger carried by the context.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *execContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSession sets the session key. A random key is generated when the
// caller does not provide one.
func WithSession(key string) ContextOption {
	return func(c *execContext) {
		if key != "" {
			c.session = key
		}
	}
}

// NewContext wraps a standard context for graph execution.
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &execContext{
		Context: ctx,
		logger:  slog.Default(),
		session: uuid.NewString(),
		resume:  &resumeSlot{},
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// withNodeID derives a per-node context with an enriched logger.
func (c *execContext) withNodeID(nodeID string) *execContext {
	return &execContext{
		Context: c.Context,
		logger:  c.logger.With("session", c.session, "node", nodeID),
		session: c.session,
		nodeID:  nodeID,
		resume:  c.resume,
	}
}

// asExecContext normalizes any Context into the internal form, so the
// runner can derive node contexts and arm resume values.
func asExecContext(ctx Context) *execContext {
	if ec, ok := ctx.(*execContext); ok {
		return ec
	}
	return &execContext{
		Context: ctx,
		logger:  ctx.Logger(),
		session: ctx.Session(),
		resume:  &resumeSlot{},
	}
}

// armResume loads a pending resume value into the run's shared slot.
func (c *execContext) armResume(value string) {
	if c.resume == nil {
		c.resume = &resumeSlot{}
	}
	c.resume.mu.Lock()
	c.resume.value = value
	c.resume.armed = true
	c.resume.mu.Unlock()
}
