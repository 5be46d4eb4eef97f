package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/dinnerplanner/internal/domain"
	"github.com/vbonduro/dinnerplanner/internal/metrics"
)

// State is the lifecycle position of a Connector.
type State int

const (
	Uninitialized State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "uninitialized"
	}
}

// DialFunc establishes a new connection of type T.
type DialFunc[T any] func(ctx context.Context) (T, error)

// CloseFunc releases a connection produced by a DialFunc.
type CloseFunc[T any] func(ctx context.Context, conn T) error

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("connector closed")

// attempt is one in-flight dial shared by every caller that arrives while it
// runs.
type attempt[T any] struct {
	done chan struct{}
	conn T
	err  error
}

// Connector owns a single lazily dialed connection. Concurrent first callers
// share one dial; a failed dial returns the connector to Uninitialized so the
// next Get tries again.
type Connector[T any] struct {
	dial    DialFunc[T]
	close   CloseFunc[T]
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	conn     T
	inflight *attempt[T]
	closed   bool
}

// NewConnector returns an Uninitialized connector. timeout bounds each dial;
// zero means no bound beyond what dial itself applies.
func NewConnector[T any](dial DialFunc[T], closeFn CloseFunc[T], timeout time.Duration, logger *slog.Logger) *Connector[T] {
	return &Connector[T]{
		dial:    dial,
		close:   closeFn,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *Connector[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Get returns the live connection, dialing it first if needed. Dial failures
// are wrapped with domain.ErrUnavailable.
func (c *Connector[T]) Get(ctx context.Context) (T, error) {
	var zero T

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, fmt.Errorf("%w: %w", domain.ErrUnavailable, ErrClosed)
	}
	if c.state == Connected {
		conn := c.conn
		c.mu.Unlock()
		return conn, nil
	}
	a := c.inflight
	if a == nil {
		a = &attempt[T]{done: make(chan struct{})}
		c.inflight = a
		c.state = Connecting
		go c.run(ctx, a)
	}
	c.mu.Unlock()

	select {
	case <-a.done:
		return a.conn, a.err
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", domain.ErrUnavailable, ctx.Err())
	}
}

// run performs the dial for a. It is detached from the caller's cancellation
// so a client going away does not fail the attempt for everyone else.
func (c *Connector[T]) run(ctx context.Context, a *attempt[T]) {
	dialCtx := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(dialCtx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := c.dial(dialCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(a.done)

	c.inflight = nil
	if err != nil {
		metrics.DBConnectAttempts.WithLabelValues(metrics.ResultFailure).Inc()
		c.logger.Error("store connection failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		c.state = Uninitialized
		a.err = fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		return
	}

	metrics.DBConnectAttempts.WithLabelValues(metrics.ResultSuccess).Inc()
	if c.closed {
		// Close won the race; do not leak the late connection.
		if cerr := c.close(dialCtx, conn); cerr != nil {
			c.logger.Error("failed to close connection after shutdown", "error", cerr)
		}
		a.err = fmt.Errorf("%w: %w", domain.ErrUnavailable, ErrClosed)
		return
	}

	c.logger.Info("store connected", "duration_ms", time.Since(start).Milliseconds())
	c.conn = conn
	c.state = Connected
	a.conn = conn
}

// Close releases the connection if one is live. Later calls to Get fail with
// ErrClosed.
func (c *Connector[T]) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.state != Connected {
		return nil
	}

	var zero T
	conn := c.conn
	c.conn = zero
	c.state = Uninitialized
	return c.close(ctx, conn)
}
