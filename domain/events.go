package domain

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

const (
	TaskCreated   = "task.created"
	TaskUpdated   = "task.updated"
	TaskCompleted = "task.completed"
	TaskDeleted   = "task.deleted"
)

// Event is a single change notification delivered over the real-time
// channel. Payload holds the concrete payload for Type; its shape is
// fixed per event type and validated at decode time.
type Event struct {
	Type      string
	UserID    string
	Timestamp Timestamp
	Payload   Payload
}

// Payload is implemented by the per-type event payloads.
type Payload interface {
	TaskID() string
}

// TaskCreatedPayload carries the full field set of a newly created task.
type TaskCreatedPayload struct {
	ID           string     `json:"task_id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Status       Status     `json:"status,omitempty"`
	Priority     Priority   `json:"priority,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	DueDate      *Timestamp `json:"due_date,omitempty"`
	Recurrence   Recurrence `json:"recurrence_pattern,omitempty"`
	ReminderTime *Timestamp `json:"reminder_time,omitempty"`
}

func (p TaskCreatedPayload) TaskID() string { return p.ID }

// TaskUpdatedPayload carries the changed-field set of an updated task.
type TaskUpdatedPayload struct {
	ID            string     `json:"task_id"`
	UpdatedFields TaskFields `json:"updated_fields"`
}

func (p TaskUpdatedPayload) TaskID() string { return p.ID }

// TaskRefPayload references a task by id only, used for completed and
// deleted events.
type TaskRefPayload struct {
	ID string `json:"task_id"`
}

func (p TaskRefPayload) TaskID() string { return p.ID }

// envelope is the wire-level frame shape.
type envelope struct {
	Type      string          `json:"event_type"`
	UserID    string          `json:"user_id"`
	Timestamp Timestamp       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// DecodeEvent parses a raw frame into a typed Event. Frames with an
// unknown event type or a payload that does not match the type's shape
// are rejected here so later stages never see a half-formed event.
func DecodeEvent(data []byte) (*Event, error) {
	var env envelope
	if err := sonic.ConfigStd.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}
	if env.UserID == "" {
		return nil, fmt.Errorf("event %q missing user_id", env.Type)
	}
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("event %q missing payload", env.Type)
	}

	ev := &Event{Type: env.Type, UserID: env.UserID, Timestamp: env.Timestamp}
	switch env.Type {
	case TaskCreated:
		var p TaskCreatedPayload
		if err := sonic.ConfigStd.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%s payload missing task_id", env.Type)
		}
		if p.Title == "" {
			return nil, fmt.Errorf("%s payload missing title", env.Type)
		}
		if p.Status == "" {
			p.Status = StatusIncomplete
		}
		if p.Priority == "" {
			p.Priority = PriorityMedium
		}
		if p.Recurrence == "" {
			p.Recurrence = RecurrenceNone
		}
		ev.Payload = p
	case TaskUpdated:
		var p TaskUpdatedPayload
		if err := sonic.ConfigStd.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%s payload missing task_id", env.Type)
		}
		ev.Payload = p
	case TaskCompleted, TaskDeleted:
		var p TaskRefPayload
		if err := sonic.ConfigStd.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", env.Type, err)
		}
		if p.ID == "" {
			return nil, fmt.Errorf("%s payload missing task_id", env.Type)
		}
		ev.Payload = p
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	return ev, nil
}

// Task materializes a full Task from a created payload.
func (p TaskCreatedPayload) Task(userID string, ts Timestamp) Task {
	return Task{
		ID:           p.ID,
		UserID:       userID,
		Title:        p.Title,
		Description:  p.Description,
		Status:       p.Status,
		Priority:     p.Priority,
		Tags:         p.Tags,
		DueDate:      p.DueDate,
		Recurrence:   p.Recurrence,
		ReminderTime: p.ReminderTime,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}
