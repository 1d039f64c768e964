// Copyright 2024 Kelvin Clement Mwinuka
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/echovault/sugarclient/internal"
	"github.com/echovault/sugarclient/internal/metrics"
	"github.com/echovault/sugarclient/internal/queue"
	"github.com/echovault/sugarclient/internal/transform"
	"github.com/echovault/sugarclient/internal/transport"
	"github.com/echovault/sugarclient/internal/wire"
	"github.com/gobwas/glob"
	"github.com/sethvargo/go-retry"
)

type Options struct {
	Address     transport.Address
	Parser      string
	Mode        transform.Mode
	DialTimeout time.Duration
	KeepAlive   time.Duration
	TLS         *tls.Config // nil dials in plain text.

	RetryStrategy string
	RetryDelay    time.Duration
	MaxRetries    uint64 // 0 retries forever.
	RetryJitter   time.Duration
	RetryCap      time.Duration

	// ReplayInflight re-sends commands that were in flight when the connection
	// dropped. ReplayCommands, when set, limits replay to command names
	// matching one of the glob patterns.
	ReplayInflight bool
	ReplayCommands []string

	// OfflineQueue bounds the commands buffered while not ready. 0 is
	// unlimited and -1 completes them with ErrNotReady instead.
	OfflineQueue int
	EventBuffer  int

	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// Manager owns the connection to one server. It multiplexes every command
// over a single socket and reconnects with backoff when the socket is lost.
type Manager struct {
	opts    Options
	logger  *log.Logger
	metrics *metrics.Metrics
	replay  []glob.Glob
	mode    atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards the fields below and is always taken before the queue's lock.
	mu      sync.Mutex
	state   State
	sess    *session
	queue   *queue.Queue
	changed chan struct{}
	events  chan Event
}

// New validates opts and starts connecting in the background.
func New(ctx context.Context, opts Options) (*Manager, error) {
	if _, err := wire.NewDecoder(opts.Parser); err != nil {
		return nil, err
	}
	if _, err := internal.NewBackoff(opts.RetryStrategy, opts.RetryDelay); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	if opts.EventBuffer < 0 {
		opts.EventBuffer = 0
	}

	replay := make([]glob.Glob, 0, len(opts.ReplayCommands))
	for _, pattern := range opts.ReplayCommands {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("replay command pattern %s: %w", pattern, err)
		}
		replay = append(replay, g)
	}

	m := &Manager{
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		replay:  replay,
		state:   Connecting,
		queue:   queue.New(max(opts.OfflineQueue, 0)),
		changed: make(chan struct{}),
		events:  make(chan Event, opts.EventBuffer),
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mode.Store(int32(opts.Mode))

	m.mu.Lock()
	m.publish(Event{Type: EventConnecting, State: Connecting})
	m.mu.Unlock()

	m.wg.Add(1)
	go m.connectLoop(false)

	return m, nil
}

func (m *Manager) Addr() string {
	return m.opts.Address.String()
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Events returns the lifecycle event channel. It is closed after EventClosed.
// Events are dropped when the channel is full.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Mode is the reply building mode applied to replies read from now on.
func (m *Manager) Mode() transform.Mode {
	return transform.Mode(m.mode.Load())
}

// SetMode switches the reply building mode. Replies already delivered keep the
// mode they were built with.
func (m *Manager) SetMode(mode transform.Mode) {
	m.mode.Store(int32(mode))
}

// Pending returns the number of commands waiting for a reply or a connection.
func (m *Manager) Pending() int {
	return m.queue.Len()
}

// WaitReady blocks until the manager is ready, closed, or ctx ends.
func (m *Manager) WaitReady(ctx context.Context) error {
	for {
		m.mu.Lock()
		state, changed := m.state, m.changed
		m.mu.Unlock()

		switch state {
		case Ready:
			return nil
		case Closed:
			return ErrClosed
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Enqueue submits cmd. While ready it is written immediately; while connecting
// it waits in the offline buffer and is written, in submission order, as soon as
// the connection becomes ready.
func (m *Manager) Enqueue(cmd *queue.Command) {
	m.mu.Lock()
	switch m.state {
	case Ready:
		m.send(m.sess, cmd)
		m.mu.Unlock()
		return
	case Closed:
		m.mu.Unlock()
		m.fail([]*queue.Command{cmd}, ErrClosed)
		return
	}

	var err error
	if m.opts.OfflineQueue < 0 {
		err = ErrNotReady
	} else {
		err = m.queue.Buffer(cmd)
	}
	m.observe()
	m.mu.Unlock()

	if err != nil {
		m.fail([]*queue.Command{cmd}, err)
	}
}

// Close tears the connection down and completes every pending command with
// ErrClosed. It must not be called from a completion handler.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		return nil
	}
	s := m.sess
	m.sess = nil
	m.setState(Closed, 0, nil)
	m.mu.Unlock()

	m.cancel()
	if s != nil {
		s.close()
	}
	m.wg.Wait()

	if n := m.queue.FailAll(ErrClosed); n > 0 {
		m.metrics.CommandErrors.WithLabelValues("closed").Add(float64(n))
	}
	m.observe()
	m.logger.Printf("connection to %s closed", m.Addr())
	return nil
}

// send writes cmd on s. Callers hold m.mu.
func (m *Manager) send(s *session, cmd *queue.Command) {
	if err := m.queue.Send(cmd, s.write); err != nil {
		// The command stays in flight; the read loop fails or replays it.
		m.logger.Printf("write %s: %v", cmd.Key(), err)
	}
	m.metrics.CommandsSent.WithLabelValues(cmd.Key()).Inc()
	m.observe()
}

func (m *Manager) fail(cmds []*queue.Command, err error) {
	if len(cmds) == 0 {
		return
	}
	queue.Fail(cmds, err)
	m.metrics.CommandErrors.WithLabelValues(errorCause(err)).Add(float64(len(cmds)))
}

func (m *Manager) observe() {
	m.metrics.Inflight.Set(float64(m.queue.Inflight()))
	m.metrics.Offline.Set(float64(m.queue.Offline()))
}

// setState records a transition and publishes its event. Callers hold m.mu.
func (m *Manager) setState(state State, attempt int, err error) {
	m.state = state
	m.metrics.State.Set(float64(state))
	close(m.changed)
	m.changed = make(chan struct{})

	var t EventType
	switch state {
	case Connecting:
		t = EventConnecting
	case Ready:
		t = EventReady
	case Reconnecting:
		t = EventReconnecting
	case Closed:
		t = EventClosed
	}
	m.publish(Event{Type: t, State: state, Attempt: attempt, Err: err})
	if state == Closed {
		close(m.events)
	}
}

// publish hands e to the event channel without blocking. Callers hold m.mu
// and the state is not yet Closed.
func (m *Manager) publish(e Event) {
	select {
	case m.events <- e:
	default:
		m.logger.Printf("event channel full, dropping %s event", e.Type)
	}
}

func (m *Manager) publishError(attempt int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Closed {
		return
	}
	m.publish(Event{Type: EventError, State: m.state, Attempt: attempt, Err: err})
}

func (m *Manager) backoff() retry.Backoff {
	// Strategy and delay are validated by New.
	b, _ := internal.NewBackoff(m.opts.RetryStrategy, m.opts.RetryDelay)
	return internal.RetryBackoff(b, m.opts.MaxRetries, m.opts.RetryJitter, m.opts.RetryCap)
}

// connectLoop dials until a session is attached, the retries are exhausted or
// the manager is closed.
func (m *Manager) connectLoop(reconnect bool) {
	defer m.wg.Done()

	attempt := 0
	err := retry.Do(m.ctx, m.backoff(), func(ctx context.Context) error {
		attempt++
		if reconnect || attempt > 1 {
			m.metrics.Reconnects.Inc()
		}

		conn, err := transport.Dial(ctx, m.opts.Address, m.opts.DialTimeout, m.opts.KeepAlive, m.opts.TLS)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.logger.Printf("connect %s attempt %d: %v", m.Addr(), attempt, err)
			m.publishError(attempt, &ConnError{Addr: m.Addr(), Err: err})
			return retry.RetryableError(err)
		}
		return m.attach(conn, attempt)
	})

	if err == nil || errors.Is(err, ErrClosed) || m.ctx.Err() != nil {
		return
	}
	m.giveUp(&ConnError{Addr: m.Addr(), Err: err, Terminal: true})
}

// attach installs conn as the current session and flushes the offline buffer
// ahead of any command enqueued later.
func (m *Manager) attach(conn net.Conn, attempt int) error {
	decoder, _ := wire.NewDecoder(m.opts.Parser)
	s := newSession(conn, decoder)

	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	m.sess = s
	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		s.writeLoop()
	}()
	go func() {
		defer m.wg.Done()
		m.readLoop(s)
	}()

	var dropped []*queue.Command
	for _, cmd := range m.queue.TakeOffline() {
		if cmd.Cancelled() {
			dropped = append(dropped, cmd)
			continue
		}
		m.send(s, cmd)
	}
	m.setState(Ready, attempt, nil)
	m.mu.Unlock()

	m.fail(dropped, context.Canceled)
	m.logger.Printf("connected to %s", m.Addr())
	return nil
}

// readLoop feeds socket bytes to the session decoder and completes commands in
// reply order. It is the only goroutine that handles a lost session.
func (m *Manager) readLoop(s *session) {
	buf := make([]byte, readChunkSize)
	var cause error
	for cause == nil {
		n, err := s.conn.Read(buf)
		if n > 0 {
			replies, decodeErr := s.decoder.Feed(buf[:n])
			for _, reply := range replies {
				m.metrics.Replies.WithLabelValues(reply.Kind.String()).Inc()
				cmd, deliverErr := m.queue.Deliver(reply, m.Mode())
				if deliverErr != nil {
					cause = deliverErr
					break
				}
				if res := cmd.Result(); res.Err != nil {
					m.metrics.CommandErrors.WithLabelValues(errorCause(res.Err)).Inc()
				}
			}
			m.metrics.Inflight.Set(float64(m.queue.Inflight()))
			if cause == nil {
				cause = decodeErr
			}
		}
		if cause == nil && err != nil {
			cause = err
		}
	}
	m.disconnect(s, cause)
}

// disconnect retires s after its read loop ended with cause.
func (m *Manager) disconnect(s *session, cause error) {
	s.close()

	m.mu.Lock()
	if m.sess != s || m.state == Closed {
		m.mu.Unlock()
		return
	}
	m.sess = nil

	connErr := &ConnError{Addr: m.Addr(), Err: cause}
	keep := func(*queue.Command) bool { return false }
	// The stream can no longer be trusted after a protocol error, nothing in
	// flight is replayed.
	if m.opts.ReplayInflight && !isProtocolError(cause) {
		keep = m.replayable
	}
	failed := m.queue.Requeue(keep)
	m.observe()
	m.setState(Reconnecting, 0, connErr)
	m.wg.Add(1)
	go m.connectLoop(true)
	m.mu.Unlock()

	m.logger.Printf("connection to %s lost: %v", m.Addr(), cause)
	m.fail(failed, connErr)
}

// giveUp moves to Closed after the reconnect budget is spent.
func (m *Manager) giveUp(err *ConnError) {
	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		return
	}
	m.setState(Closed, 0, err)
	m.mu.Unlock()

	m.cancel()
	m.logger.Println(err)
	commands := m.queue.TakeOffline()
	commands = append(m.queue.Requeue(func(*queue.Command) bool { return false }), commands...)
	m.fail(commands, err)
	m.observe()
}

func (m *Manager) replayable(cmd *queue.Command) bool {
	if len(m.replay) == 0 {
		return true
	}
	for _, g := range m.replay {
		if g.Match(cmd.Key()) {
			return true
		}
	}
	return false
}

func isProtocolError(err error) bool {
	var protoErr *wire.ProtocolError
	var shapeErr *transform.ShapeError
	return errors.As(err, &protoErr) || errors.As(err, &shapeErr)
}

func errorCause(err error) string {
	var serverErr *wire.ServerError
	var connErr *ConnError
	switch {
	case errors.As(err, &serverErr):
		return "server"
	case isProtocolError(err):
		return "protocol"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.As(err, &connErr):
		return "connection"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "other"
}
