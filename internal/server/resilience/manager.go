// Package resilience keeps the datastore connection alive.
//
// A Manager owns the single connection handle. It connects with capped
// exponential backoff, probes the handle on a schedule and reconnects when
// the handle goes bad. At most one connect loop runs at any time. Outside
// production the loop gives up after Options.MaxRetries retries and parks in
// Failed; the next probe starts a fresh loop.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/metrics"
	"github.com/dmitrijs2005/passvault/internal/server/datastore"
	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-retry"
)

// ErrConnectInProgress is returned by Connect when another connect loop is running.
var ErrConnectInProgress = errors.New("connect already in progress")

type Options struct {
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	MaxRetries     uint64
	Production     bool
	ConnectTimeout time.Duration
	ProbeInterval  time.Duration
}

// DefaultOptions mirror the server configuration defaults.
func DefaultOptions() Options {
	return Options{
		BaseDelay:      time.Second,
		MaxDelay:       30 * time.Second,
		MaxRetries:     5,
		ConnectTimeout: 30 * time.Second,
		ProbeInterval:  10 * time.Second,
	}
}

// Backoff returns the delay schedule for one connect loop.
func (o Options) Backoff() retry.Backoff {
	b := retry.NewExponential(o.BaseDelay)
	b = retry.WithCappedDuration(o.MaxDelay, b)
	if !o.Production {
		b = retry.WithMaxRetries(o.MaxRetries, b)
	}
	return b
}

// sleep is a seam for tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Manager struct {
	connector datastore.Connector
	opts      Options
	logger    logging.Logger

	mu        sync.RWMutex
	state     State
	conn      datastore.Conn
	observers []func(State)
	runCtx    context.Context
	closed    bool

	connecting atomic.Bool
	wg         sync.WaitGroup
	cron       *cron.Cron
}

func NewManager(connector datastore.Connector, opts Options, logger logging.Logger) *Manager {
	return &Manager{
		connector: connector,
		opts:      opts,
		logger:    logger.With("module", "resilience", "backend", connector.Backend()),
		state:     Disconnected,
		runCtx:    context.Background(),
	}
}

// OnStateChange registers fn to be called after every state transition.
// Register observers before Start.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Healthy reports whether requests may use the datastore.
func (m *Manager) Healthy() bool {
	return m.State() == Connected
}

// Conn returns the live handle, or common.ErrorUnavailable if there is none.
func (m *Manager) Conn() (datastore.Conn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != Connected || m.conn == nil {
		return nil, fmt.Errorf("%w: datastore is %s", common.ErrorUnavailable, m.state)
	}
	return m.conn, nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	observers := m.setStateLocked(s)
	m.mu.Unlock()

	notify(observers, s)
}

// setStateLocked records s and returns the observers to notify, or nil when
// the state did not change. m.mu must be held.
func (m *Manager) setStateLocked(s State) []func(State) {
	if m.state == s {
		return nil
	}
	m.state = s
	return append([]func(State){}, m.observers...)
}

func notify(observers []func(State), s State) {
	for _, fn := range observers {
		fn(s)
	}
}

// Start launches the initial connect loop and the health probe. The loop
// and probe stop when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.runCtx = ctx
	m.mu.Unlock()

	m.reconnect()

	if m.opts.ProbeInterval <= 0 {
		return nil
	}

	cl := cronLogger{logger: m.logger}
	m.cron = cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	spec := fmt.Sprintf("@every %s", m.opts.ProbeInterval)
	if _, err := m.cron.AddFunc(spec, func() { m.Probe(ctx) }); err != nil {
		return fmt.Errorf("schedule health probe: %w", err)
	}
	m.cron.Start()
	return nil
}

// Run starts the manager and blocks until ctx is done, then closes the handle.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Close(shutdownCtx)
}

// reconnect starts a background connect loop unless one is already running.
func (m *Manager) reconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := m.runCtx
	if m.closed || ctx.Err() != nil || !m.connecting.CompareAndSwap(false, true) {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.connecting.Store(false)
		if err := m.connectLoop(ctx); err != nil && ctx.Err() == nil {
			m.logger.Error(ctx, "datastore connection failed", "error", err)
		}
	}()
}

// Connect runs one connect loop in the caller's goroutine.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.connecting.CompareAndSwap(false, true) {
		return ErrConnectInProgress
	}
	defer m.connecting.Store(false)
	return m.connectLoop(ctx)
}

func (m *Manager) connectLoop(ctx context.Context) error {
	b := m.opts.Backoff()
	attempt := 0

	for {
		attempt++
		m.setState(Connecting)

		conn, err := m.attempt(ctx)
		metrics.RecordConnectAttempt(err)
		if err == nil {
			m.mu.Lock()
			m.conn = conn
			observers := m.setStateLocked(Connected)
			m.mu.Unlock()
			notify(observers, Connected)
			m.logger.Info(ctx, "datastore connected", "attempt", attempt)
			return nil
		}

		if ctx.Err() != nil {
			m.setState(Disconnected)
			return ctx.Err()
		}

		delay, stop := b.Next()
		if stop {
			m.setState(Failed)
			return fmt.Errorf("%w: gave up after %d attempts: %v", common.ErrorUnavailable, attempt, err)
		}

		m.logger.Warn(ctx, "datastore connect attempt failed", "attempt", attempt, "retry_in", delay.String(), "error", err)

		if err := sleep(ctx, delay); err != nil {
			m.setState(Disconnected)
			return err
		}
	}
}

func (m *Manager) attempt(ctx context.Context) (datastore.Conn, error) {
	if m.opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.ConnectTimeout)
		defer cancel()
	}
	return m.connector.Connect(ctx)
}

// markDown drops the current handle and schedules a reconnect.
func (m *Manager) markDown(ctx context.Context, cause error) {
	m.mu.Lock()
	if m.state != Connected {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.conn = nil
	observers := m.setStateLocked(Disconnected)
	m.mu.Unlock()

	notify(observers, Disconnected)
	m.logger.Warn(ctx, "datastore connection lost", "error", cause)

	if conn != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = conn.Close(closeCtx)
		cancel()
	}

	m.reconnect()
}

// ReportFailure lets request handlers report a store error. Errors that look
// like lost connectivity trigger a reconnect; anything else is ignored.
func (m *Manager) ReportFailure(err error) {
	if !datastore.IsUnavailable(err) {
		return
	}
	m.markDown(context.Background(), err)
}

// Probe checks the handle once. A failed ping marks the connection down;
// a Failed or Disconnected manager with no loop running starts a new one.
func (m *Manager) Probe(ctx context.Context) {
	m.mu.RLock()
	state, conn := m.state, m.conn
	m.mu.RUnlock()

	switch state {
	case Connected:
		if conn == nil {
			return
		}
		pingCtx := ctx
		if m.opts.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			pingCtx, cancel = context.WithTimeout(ctx, m.opts.ConnectTimeout)
			defer cancel()
		}
		if err := conn.Ping(pingCtx); err != nil {
			m.markDown(ctx, err)
		}
	case Failed, Disconnected:
		m.reconnect()
	}
}

// Close stops the probe, waits for a running connect loop and closes the
// handle. Cancel the context passed to Start first.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	if m.cron != nil {
		stopped := m.cron.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}
	m.wg.Wait()

	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	observers := m.setStateLocked(Disconnected)
	m.mu.Unlock()

	notify(observers, Disconnected)

	if conn == nil {
		return nil
	}
	return conn.Close(ctx)
}

// cronLogger routes scheduler messages, including recovered probe panics,
// to the manager's logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(context.Background(), "probe scheduler: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(context.Background(), "probe scheduler: "+msg, append(keysAndValues, "error", err)...)
}
