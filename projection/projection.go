// Package projection holds the client-side snapshot of a single user's
// tasks. It is a strict cache of backend state: it is seeded from a full
// fetch and thereafter mutated only by applying events or explicit local
// edits, and it converges to whatever the backend last reported.
package projection

import (
	"sync"

	"tasksync/domain"
)

// Projection is an ordered, newest-first collection of tasks owned by
// exactly one synchronization session. A single goroutine applies
// events; accessors may be called from any goroutine.
type Projection struct {
	userID string

	mu    sync.RWMutex
	tasks []domain.Task
}

// New creates an empty projection for the given user.
func New(userID string) *Projection {
	return &Projection{userID: userID}
}

// UserID returns the owning user's identifier.
func (p *Projection) UserID() string { return p.userID }

// Tasks returns a copy of the current task list, newest first.
func (p *Projection) Tasks() []domain.Task {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Task, len(p.tasks))
	copy(out, p.tasks)
	return out
}

// Len returns the number of tasks held.
func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tasks)
}

// Get returns the task with the given id, if present.
func (p *Projection) Get(taskID string) (domain.Task, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if i := p.index(taskID); i >= 0 {
		return p.tasks[i], true
	}
	return domain.Task{}, false
}

// Add inserts a task at the front of the collection. It is a no-op when
// a task with the same id already exists.
func (p *Projection) Add(t domain.Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.insert(t)
}

// Update merges the set fields onto the task with the given id. Absent
// ids are a no-op; partial updates never resurrect deleted tasks.
func (p *Projection) Update(taskID string, fields domain.TaskFields) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.index(taskID)
	if i < 0 {
		return false
	}
	fields.ApplyTo(&p.tasks[i])
	return true
}

// Remove deletes the task with the given id, if present.
func (p *Projection) Remove(taskID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.index(taskID)
	if i < 0 {
		return false
	}
	p.tasks = append(p.tasks[:i], p.tasks[i+1:]...)
	return true
}

// Replace swaps the whole collection for the given list, preserving its
// order. Used by the full-state fetch to seed or resynchronize.
func (p *Projection) Replace(tasks []domain.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = make([]domain.Task, len(tasks))
	copy(p.tasks, tasks)
}

// index returns the position of taskID or -1. Caller holds the lock.
func (p *Projection) index(taskID string) int {
	for i := range p.tasks {
		if p.tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// insert adds t at the front unless its id is already present. Caller
// holds the lock.
func (p *Projection) insert(t domain.Task) bool {
	if p.index(t.ID) >= 0 {
		return false
	}
	p.tasks = append([]domain.Task{t}, p.tasks...)
	return true
}
