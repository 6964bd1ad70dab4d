// Package sync maintains a per-user synchronization session against the
// todo backend's real-time event channel: one WebSocket connection with
// automatic reconnection, an event dispatcher, and the task projection
// the events are applied to.
package sync

import (
	"errors"
	"net/url"
	"strings"
	gosync "sync"

	log "github.com/sirupsen/logrus"

	"tasksync/api"
	"tasksync/domain"
	"tasksync/projection"
)

// Options configures a synchronization session.
type Options struct {
	// UserID is the identifier of the authenticated user. Required.
	UserID string

	// Token is the bearer token presented to the event endpoint. When
	// set, its subject must match UserID.
	Token string

	// URL is the backend's WebSocket root, e.g. ws://localhost:8000.
	URL string

	// Backoff overrides the reconnect policy. Zero values fall back to
	// DefaultBackoff.
	Backoff Backoff

	// Dialer overrides the transport, used by tests.
	Dialer Dialer

	// OnConnectionChange, when set, is invoked whenever the live/closed
	// status flips.
	OnConnectionChange func(connected bool)
}

// Session owns the synchronization state for a single user. Callers
// control its lifecycle explicitly; sessions are not shared between
// users and a new session replaces, never coexists with, a prior one
// for a different user.
type Session struct {
	userID  string
	proj    *projection.Projection
	disp    *dispatcher
	conn    *connManager
	metrics *sessionMetrics

	mu      gosync.Mutex
	wasOpen bool
}

// NewSession builds a session for the given user. It validates the
// user id and, when a token is supplied, that the token belongs to that
// user; it does not open the connection.
func NewSession(opts Options) (*Session, error) {
	if opts.UserID == "" {
		return nil, errors.New("user id required")
	}
	if opts.Token != "" {
		if err := api.ValidateToken(opts.Token, opts.UserID); err != nil {
			return nil, err
		}
	}

	s := &Session{
		userID:  opts.UserID,
		proj:    projection.New(opts.UserID),
		disp:    &dispatcher{},
		metrics: newSessionMetrics(),
	}
	endpoint := eventEndpoint(opts.URL, opts.UserID, opts.Token)
	s.conn = newConnManager(endpoint, opts.Dialer, opts.Backoff, s.handleFrame, func(connected bool) {
		s.mu.Lock()
		if connected && s.wasOpen {
			s.metrics.ObserveReconnect()
		}
		if connected {
			s.wasOpen = true
		}
		s.mu.Unlock()
		if opts.OnConnectionChange != nil {
			opts.OnConnectionChange(connected)
		}
	})
	return s, nil
}

// eventEndpoint builds the per-user WebSocket URL.
func eventEndpoint(base, userID, token string) string {
	endpoint := strings.TrimRight(base, "/") + "/ws/" + url.PathEscape(userID)
	if token != "" {
		endpoint += "?token=" + url.QueryEscape(token)
	}
	return endpoint
}

// Connect opens the event connection. It is a no-op while the session
// is already connected or retrying, and transport failures are never
// returned here; they surface through Connected and the state callback.
func (s *Session) Connect() { s.conn.Connect() }

// Close tears down the connection, cancels pending reconnects, and logs
// the session counters. Idempotent; Connect may be called again after.
func (s *Session) Close() {
	s.conn.Close()
	s.metrics.Log(s.userID)
}

// Connected reports whether the event connection is currently live.
func (s *Session) Connected() bool { return s.conn.Connected() }

// Tasks returns a snapshot of the current task list, newest first.
func (s *Session) Tasks() []domain.Task { return s.proj.Tasks() }

// Subscribe registers a raw event handler and returns its unsubscribe
// func. Handlers observe events after they have been applied to the
// projection.
func (s *Session) Subscribe(h Handler) func() { return s.disp.subscribe(h) }

// AddTask inserts a local optimistic task; duplicates are ignored.
func (s *Session) AddTask(t domain.Task) bool { return s.proj.Add(t) }

// UpdateTask merges fields onto a held task; unknown ids are a no-op.
func (s *Session) UpdateTask(taskID string, fields domain.TaskFields) bool {
	return s.proj.Update(taskID, fields)
}

// RemoveTask drops a held task; unknown ids are a no-op.
func (s *Session) RemoveTask(taskID string) bool { return s.proj.Remove(taskID) }

// SetTasks replaces the whole projection, typically from a full fetch.
func (s *Session) SetTasks(tasks []domain.Task) { s.proj.Replace(tasks) }

// handleFrame decodes one wire frame and feeds it through the
// projection and the dispatcher. Malformed frames are dropped with a
// warning and never disturb the connection.
func (s *Session) handleFrame(data []byte) {
	ev, err := domain.DecodeEvent(data)
	if err != nil {
		s.metrics.ObserveDecodeFailure()
		log.WithError(err).Warn("dropping malformed event frame")
		return
	}
	if ev.UserID != s.userID {
		s.metrics.ObserveForeignUser()
		log.WithFields(log.Fields{"event": ev.Type, "user": ev.UserID}).Debug("dropping event for foreign user")
		return
	}
	applied := s.proj.Apply(ev)
	s.metrics.ObserveEvent(ev.Type, applied)
	s.disp.dispatch(ev)
}
