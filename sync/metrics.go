package sync

import (
	gosync "sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// sessionMetrics accumulates counters over the lifetime of a session
// and emits them as a single structured log record.
type sessionMetrics struct {
	mu             gosync.Mutex
	start          time.Time
	applied        map[string]int
	ignored        int
	foreignDropped int
	decodeFailures int
	reconnects     int
}

func newSessionMetrics() *sessionMetrics {
	return &sessionMetrics{
		start:   time.Now(),
		applied: make(map[string]int),
	}
}

func (m *sessionMetrics) ObserveEvent(eventType string, applied bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if applied {
		m.applied[eventType]++
	} else {
		m.ignored++
	}
}

func (m *sessionMetrics) ObserveForeignUser() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foreignDropped++
}

func (m *sessionMetrics) ObserveDecodeFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decodeFailures++
}

func (m *sessionMetrics) ObserveReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnects++
}

func (m *sessionMetrics) Log(userID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	fields := log.Fields{
		"user":      userID,
		"uptime_ms": float64(time.Since(m.start)) / float64(time.Millisecond),
		"ignored":   m.ignored,
	}
	for eventType, n := range m.applied {
		fields["applied_"+eventType] = n
	}
	if m.foreignDropped > 0 {
		fields["foreign_dropped"] = m.foreignDropped
	}
	if m.decodeFailures > 0 {
		fields["decode_failures"] = m.decodeFailures
	}
	if m.reconnects > 0 {
		fields["reconnects"] = m.reconnects
	}
	log.WithFields(fields).Info("session.metrics")
}
