package projection

import (
	"testing"
	"time"

	"tasksync/domain"
)

func ptrString(s string) *string { return &s }

func ptrPriority(p domain.Priority) *domain.Priority { return &p }

func ts(sec int) domain.Timestamp {
	return domain.NewTimestamp(time.Date(2025, 6, 1, 10, 0, sec, 0, time.UTC))
}

func createdEvent(userID, taskID, title string, sec int) *domain.Event {
	return &domain.Event{
		Type:      domain.TaskCreated,
		UserID:    userID,
		Timestamp: ts(sec),
		Payload: domain.TaskCreatedPayload{
			ID:       taskID,
			Title:    title,
			Status:   domain.StatusIncomplete,
			Priority: domain.PriorityMedium,
		},
	}
}

func updatedEvent(userID, taskID string, fields domain.TaskFields, sec int) *domain.Event {
	return &domain.Event{
		Type:      domain.TaskUpdated,
		UserID:    userID,
		Timestamp: ts(sec),
		Payload:   domain.TaskUpdatedPayload{ID: taskID, UpdatedFields: fields},
	}
}

func refEvent(eventType, userID, taskID string, sec int) *domain.Event {
	return &domain.Event{
		Type:      eventType,
		UserID:    userID,
		Timestamp: ts(sec),
		Payload:   domain.TaskRefPayload{ID: taskID},
	}
}

func TestCreatedIsIdempotent(t *testing.T) {
	p := New("u1")
	if !p.Apply(createdEvent("u1", "t1", "Buy milk", 1)) {
		t.Fatal("first created must apply")
	}
	if p.Apply(createdEvent("u1", "t1", "Buy milk", 2)) {
		t.Fatal("duplicate created must be ignored")
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", p.Len())
	}
}

func TestCreatedInsertsNewestFirst(t *testing.T) {
	p := New("u1")
	p.Apply(createdEvent("u1", "t1", "first", 1))
	p.Apply(createdEvent("u1", "t2", "second", 2))
	tasks := p.Tasks()
	if len(tasks) != 2 || tasks[0].ID != "t2" || tasks[1].ID != "t1" {
		t.Fatalf("unexpected order: %#v", tasks)
	}
}

func TestUpdatedMergesOnlyListedFields(t *testing.T) {
	p := New("u1")
	p.Apply(createdEvent("u1", "t1", "A", 1))
	p.Update("t1", domain.TaskFields{Priority: ptrPriority(domain.PriorityLow)})

	applied := p.Apply(updatedEvent("u1", "t1", domain.TaskFields{
		Priority: ptrPriority(domain.PriorityHigh),
	}, 2))
	if !applied {
		t.Fatal("update for present task must apply")
	}
	task, _ := p.Get("t1")
	if task.Title != "A" {
		t.Fatalf("title must be untouched, got %q", task.Title)
	}
	if task.Priority != domain.PriorityHigh {
		t.Fatalf("priority not merged: %q", task.Priority)
	}
	if !task.UpdatedAt.Equal(ts(2)) {
		t.Fatalf("updated_at not refreshed: %v", task.UpdatedAt)
	}
}

func TestNoResurrection(t *testing.T) {
	p := New("u1")
	if p.Apply(updatedEvent("u1", "ghost", domain.TaskFields{Title: ptrString("boo")}, 1)) {
		t.Fatal("updated for unknown task must be a no-op")
	}
	if p.Apply(refEvent(domain.TaskCompleted, "u1", "ghost", 2)) {
		t.Fatal("completed for unknown task must be a no-op")
	}
	if p.Len() != 0 {
		t.Fatalf("projection must stay empty, has %d", p.Len())
	}
}

func TestDeletionIsAbsorbing(t *testing.T) {
	p := New("u1")
	p.Apply(createdEvent("u1", "t1", "Buy milk", 1))
	p.Apply(refEvent(domain.TaskDeleted, "u1", "t1", 2))

	if p.Apply(updatedEvent("u1", "t1", domain.TaskFields{Title: ptrString("back")}, 3)) {
		t.Fatal("updated after deleted must be a no-op")
	}
	if p.Apply(refEvent(domain.TaskCompleted, "u1", "t1", 4)) {
		t.Fatal("completed after deleted must be a no-op")
	}
	if _, ok := p.Get("t1"); ok {
		t.Fatal("t1 must stay absent")
	}

	// A fresh created event brings the id back.
	if !p.Apply(createdEvent("u1", "t1", "Buy milk again", 5)) {
		t.Fatal("created after deleted must apply")
	}
}

func TestFullLifecycle(t *testing.T) {
	p := New("u1")

	p.Apply(createdEvent("u1", "t1", "Buy milk", 1))
	tasks := p.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Status != domain.StatusIncomplete {
		t.Fatalf("unexpected state after created: %#v", tasks)
	}

	p.Apply(refEvent(domain.TaskCompleted, "u1", "t1", 2))
	task, _ := p.Get("t1")
	if task.Status != domain.StatusComplete {
		t.Fatalf("expected complete, got %q", task.Status)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(ts(2)) {
		t.Fatalf("completed_at not set: %#v", task.CompletedAt)
	}
	if !task.UpdatedAt.Equal(ts(2)) {
		t.Fatalf("updated_at not refreshed: %v", task.UpdatedAt)
	}

	p.Apply(refEvent(domain.TaskDeleted, "u1", "t1", 3))
	if p.Len() != 0 {
		t.Fatalf("projection must be empty, has %d", p.Len())
	}
}

func TestForeignUserEventRejected(t *testing.T) {
	p := New("u1")
	p.Apply(createdEvent("u1", "t1", "mine", 1))

	if p.Apply(createdEvent("u2", "t2", "theirs", 2)) {
		t.Fatal("created for foreign user must be ignored")
	}
	if p.Apply(refEvent(domain.TaskDeleted, "u2", "t1", 3)) {
		t.Fatal("deleted for foreign user must be ignored")
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", p.Len())
	}
	if _, ok := p.Get("t1"); !ok {
		t.Fatal("t1 must survive foreign delete")
	}
}
