package domain

// Status is the completion axis of a task.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

// Priority orders tasks by urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Recurrence describes how often a task repeats.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Task represents a single todo item as reported by the backend.
type Task struct {
	ID           string     `json:"task_id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	Tags         []string   `json:"tags,omitempty"`
	DueDate      *Timestamp `json:"due_date,omitempty"`
	Recurrence   Recurrence `json:"recurrence_pattern,omitempty"`
	ReminderTime *Timestamp `json:"reminder_time,omitempty"`
	CreatedAt    Timestamp  `json:"created_at"`
	UpdatedAt    Timestamp  `json:"updated_at"`
	CompletedAt  *Timestamp `json:"completed_at,omitempty"`
}

// TaskFields carries a partial set of task fields. Nil means "leave
// the existing value untouched".
type TaskFields struct {
	Title        *string     `json:"title,omitempty"`
	Description  *string     `json:"description,omitempty"`
	Status       *Status     `json:"status,omitempty"`
	Priority     *Priority   `json:"priority,omitempty"`
	Tags         *[]string   `json:"tags,omitempty"`
	DueDate      *Timestamp  `json:"due_date,omitempty"`
	Recurrence   *Recurrence `json:"recurrence_pattern,omitempty"`
	ReminderTime *Timestamp  `json:"reminder_time,omitempty"`
}

// Empty reports whether no field is set.
func (f TaskFields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.Status == nil &&
		f.Priority == nil && f.Tags == nil && f.DueDate == nil &&
		f.Recurrence == nil && f.ReminderTime == nil
}

// ApplyTo merges the set fields onto t.
func (f TaskFields) ApplyTo(t *Task) {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		t.Description = f.Description
	}
	if f.Status != nil {
		t.Status = *f.Status
	}
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
	if f.Tags != nil {
		t.Tags = *f.Tags
	}
	if f.DueDate != nil {
		t.DueDate = f.DueDate
	}
	if f.Recurrence != nil {
		t.Recurrence = *f.Recurrence
	}
	if f.ReminderTime != nil {
		t.ReminderTime = f.ReminderTime
	}
}
