package projection

import (
	log "github.com/sirupsen/logrus"

	"tasksync/domain"
)

// Apply mutates the projection according to a single event and reports
// whether anything changed. Events for another user are ignored, as are
// updates or completions referencing unknown task ids; both cases can
// reflect legitimate races between the full fetch and event delivery,
// so they are no-ops rather than errors. Applies are last-delivered-wins
// with no timestamp-based conflict resolution.
func (p *Projection) Apply(ev *domain.Event) bool {
	if ev.UserID != p.userID {
		log.WithFields(log.Fields{"event": ev.Type, "user": ev.UserID}).Debug("dropping event for foreign user")
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch payload := ev.Payload.(type) {
	case domain.TaskCreatedPayload:
		return p.insert(payload.Task(ev.UserID, ev.Timestamp))
	case domain.TaskUpdatedPayload:
		i := p.index(payload.ID)
		if i < 0 {
			log.WithField("task", payload.ID).Debug("task.updated for unknown task")
			return false
		}
		payload.UpdatedFields.ApplyTo(&p.tasks[i])
		p.tasks[i].UpdatedAt = ev.Timestamp
		return true
	case domain.TaskRefPayload:
		switch ev.Type {
		case domain.TaskCompleted:
			i := p.index(payload.ID)
			if i < 0 {
				log.WithField("task", payload.ID).Debug("task.completed for unknown task")
				return false
			}
			ts := ev.Timestamp
			p.tasks[i].Status = domain.StatusComplete
			p.tasks[i].CompletedAt = &ts
			p.tasks[i].UpdatedAt = ts
			return true
		case domain.TaskDeleted:
			i := p.index(payload.ID)
			if i < 0 {
				return false
			}
			p.tasks = append(p.tasks[:i], p.tasks[i+1:]...)
			return true
		}
	}
	return false
}
