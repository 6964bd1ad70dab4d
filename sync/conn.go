package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Conn is the minimal surface of a live event connection.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens event connections. Tests swap in a fake to exercise the
// reconnect policy without a live socket.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type wsConn struct{ conn *websocket.Conn }

func (c wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c wsConn) Close() error { return c.conn.Close() }

type wsDialer struct{}

func (wsDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return wsConn{conn: conn}, nil
}

// Backoff controls the reconnect policy: a fixed base delay doubling on
// each consecutive failure, up to a maximum number of attempts.
type Backoff struct {
	BaseDelay   time.Duration
	MaxAttempts int
}

// DefaultBackoff matches the backend's recommended client behavior.
var DefaultBackoff = Backoff{BaseDelay: time.Second, MaxAttempts: 5}

// maxDelay caps the doubling so oversized attempt counts cannot shift
// the delay into overflow.
const maxDelay = 5 * time.Minute

// Delay returns the wait before reconnect attempt n (counted from 1).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxDelay || d <= 0 {
			return maxDelay
		}
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

type connState int

const (
	stateIdle connState = iota
	stateConnecting
	stateOpen
	stateBackoff
	stateClosed // reconnect attempts exhausted
)

// connManager owns at most one live connection and re-establishes it
// transparently on failure. Frames are handed to onFrame from a single
// goroutine in arrival order.
type connManager struct {
	url     string
	dialer  Dialer
	backoff Backoff
	onFrame func([]byte)
	onState func(connected bool)
	timer   func(time.Duration) <-chan time.Time

	mu     gosync.Mutex
	st     connState
	conn   Conn
	cancel context.CancelFunc
	done   chan struct{}
}

func newConnManager(url string, dialer Dialer, backoff Backoff, onFrame func([]byte), onState func(bool)) *connManager {
	if dialer == nil {
		dialer = wsDialer{}
	}
	if backoff.BaseDelay <= 0 {
		backoff.BaseDelay = DefaultBackoff.BaseDelay
	}
	if backoff.MaxAttempts <= 0 {
		backoff.MaxAttempts = DefaultBackoff.MaxAttempts
	}
	return &connManager{
		url:     url,
		dialer:  dialer,
		backoff: backoff,
		onFrame: onFrame,
		onState: onState,
		timer:   time.After,
	}
}

// Connect starts the connection loop. It is a no-op while a loop is
// already running and never returns a transport error; failures only
// surface through Connected and the state callback.
func (m *connManager) Connect() {
	m.mu.Lock()
	switch m.st {
	case stateConnecting, stateOpen, stateBackoff:
		m.mu.Unlock()
		log.Debug("connection loop already running")
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.st = stateConnecting
	done := m.done
	m.mu.Unlock()

	go m.run(ctx, done)
}

// Close tears down the live connection, cancels any pending reconnect,
// and waits for the loop to stop. Idempotent.
func (m *connManager) Close() {
	m.mu.Lock()
	cancel := m.cancel
	conn := m.conn
	done := m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
}

// Connected reports whether a live connection is currently open.
func (m *connManager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st == stateOpen
}

func (m *connManager) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	attempts := 0
	for {
		m.setState(stateConnecting)
		conn, err := m.dialer.Dial(ctx, m.url)
		if err != nil {
			if ctx.Err() != nil {
				m.setState(stateIdle)
				return
			}
			log.WithError(err).Warn("connect failed")
			attempts++
			if !m.waitRetry(ctx, attempts) {
				return
			}
			continue
		}

		m.mu.Lock()
		m.conn = conn
		m.mu.Unlock()
		m.setState(stateOpen)
		attempts = 0
		log.WithField("url", m.url).Info("connected")

		err = m.readLoop(conn)
		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			m.setState(stateIdle)
			return
		}
		log.WithError(err).Warn("connection lost")
		attempts++
		if !m.waitRetry(ctx, attempts) {
			return
		}
	}
}

// readLoop delivers frames until the connection errors out. Handlers
// run to completion before the next frame is read.
func (m *connManager) readLoop(conn Conn) error {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		m.onFrame(data)
	}
}

// waitRetry sleeps out the backoff delay before attempt n. It returns
// false when the attempt cap is reached or the loop was cancelled.
func (m *connManager) waitRetry(ctx context.Context, attempt int) bool {
	if attempt > m.backoff.MaxAttempts {
		log.Errorf("giving up after %d reconnect attempts", m.backoff.MaxAttempts)
		m.setState(stateClosed)
		return false
	}
	delay := m.backoff.Delay(attempt)
	m.setState(stateBackoff)
	log.WithFields(log.Fields{"attempt": attempt, "max": m.backoff.MaxAttempts, "delay": delay}).Debug("reconnecting")
	select {
	case <-ctx.Done():
		m.setState(stateIdle)
		return false
	case <-m.timer(delay):
		return true
	}
}

func (m *connManager) setState(st connState) {
	m.mu.Lock()
	prev := m.st
	m.st = st
	m.mu.Unlock()

	if m.onState == nil {
		return
	}
	if st == stateOpen && prev != stateOpen {
		m.onState(true)
	} else if st != stateOpen && prev == stateOpen {
		m.onState(false)
	}
}
