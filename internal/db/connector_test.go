package db

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dinnerplanner/internal/domain"
)

type fakeConn struct {
	id     int64
	closed atomic.Bool
}

// fakeDialer counts dials and fails the first failFirst of them.
type fakeDialer struct {
	calls     atomic.Int64
	failFirst int64
	release   chan struct{}
}

func (f *fakeDialer) dial(ctx context.Context) (*fakeConn, error) {
	n := f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= f.failFirst {
		return nil, errors.New("connection refused")
	}
	return &fakeConn{id: n}, nil
}

func closeFake(_ context.Context, c *fakeConn) error {
	c.closed.Store(true)
	return nil
}

func TestConnectorConcurrentFirstUseDialsOnce(t *testing.T) {
	dialer := &fakeDialer{release: make(chan struct{})}
	c := NewConnector(dialer.dial, closeFake, time.Second, slog.Default())

	const callers = 32
	var wg sync.WaitGroup
	conns := make([]*fakeConn, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conns[i], errs[i] = c.Get(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return c.State() == Connecting }, time.Second, time.Millisecond)
	close(dialer.release)
	wg.Wait()

	assert.Equal(t, int64(1), dialer.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, conns[0], conns[i])
	}
	assert.Equal(t, Connected, c.State())
}

func TestConnectorFailureResetsAndRetries(t *testing.T) {
	dialer := &fakeDialer{failFirst: 1}
	c := NewConnector(dialer.dial, closeFake, time.Second, slog.Default())
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, Uninitialized, c.State())

	conn, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), conn.id)
	assert.Equal(t, Connected, c.State())

	again, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, conn, again)
	assert.Equal(t, int64(2), dialer.calls.Load())
}

func TestConnectorCallerCancellationDoesNotAbortDial(t *testing.T) {
	dialer := &fakeDialer{release: make(chan struct{})}
	c := NewConnector(dialer.dial, closeFake, time.Second, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return c.State() == Connecting }, time.Second, time.Millisecond)
	cancel()
	err := <-done
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)

	close(dialer.release)
	require.Eventually(t, func() bool { return c.State() == Connected }, time.Second, time.Millisecond)

	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), dialer.calls.Load())
}

func TestConnectorDialTimeout(t *testing.T) {
	dialer := &fakeDialer{release: make(chan struct{})}
	c := NewConnector(dialer.dial, closeFake, 20*time.Millisecond, slog.Default())

	_, err := c.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Uninitialized, c.State())
}

func TestConnectorClose(t *testing.T) {
	dialer := &fakeDialer{}
	c := NewConnector(dialer.dial, closeFake, time.Second, slog.Default())
	ctx := context.Background()

	conn, err := c.Get(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Close(ctx))
	assert.True(t, conn.closed.Load())
	require.NoError(t, c.Close(ctx))

	_, err = c.Get(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestConnectorCloseBeforeDial(t *testing.T) {
	dialer := &fakeDialer{}
	c := NewConnector(dialer.dial, closeFake, time.Second, slog.Default())

	require.NoError(t, c.Close(context.Background()))
	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, dialer.calls.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
}
