package sync

import (
	"testing"

	"tasksync/domain"
)

func event(eventType, taskID string) *domain.Event {
	return &domain.Event{
		Type:    eventType,
		UserID:  "u1",
		Payload: domain.TaskRefPayload{ID: taskID},
	}
}

func TestDispatchReachesAllHandlersInOrder(t *testing.T) {
	d := &dispatcher{}
	var first, second []string
	d.subscribe(func(ev *domain.Event) { first = append(first, ev.Payload.TaskID()) })
	d.subscribe(func(ev *domain.Event) { second = append(second, ev.Payload.TaskID()) })

	d.dispatch(event(domain.TaskDeleted, "t1"))
	d.dispatch(event(domain.TaskDeleted, "t2"))

	for name, got := range map[string][]string{"first": first, "second": second} {
		if len(got) != 2 || got[0] != "t1" || got[1] != "t2" {
			t.Fatalf("%s handler saw %v", name, got)
		}
	}
}

func TestUnsubscribeRemovesExactlyThatHandler(t *testing.T) {
	d := &dispatcher{}
	var a, b int
	unsubA := d.subscribe(func(*domain.Event) { a++ })
	d.subscribe(func(*domain.Event) { b++ })

	d.dispatch(event(domain.TaskDeleted, "t1"))
	unsubA()
	d.dispatch(event(domain.TaskDeleted, "t2"))

	if a != 1 {
		t.Fatalf("unsubscribed handler called %d times", a)
	}
	if b != 2 {
		t.Fatalf("remaining handler called %d times, want 2", b)
	}
	// Unsubscribing twice must be harmless.
	unsubA()
}

func TestUnsubscribeDuringDelivery(t *testing.T) {
	d := &dispatcher{}
	var calls []string
	var unsubB func()
	d.subscribe(func(*domain.Event) {
		calls = append(calls, "a")
		unsubB()
	})
	unsubB = d.subscribe(func(*domain.Event) { calls = append(calls, "b") })

	// The in-flight event still reaches b; the next one does not.
	d.dispatch(event(domain.TaskDeleted, "t1"))
	d.dispatch(event(domain.TaskDeleted, "t2"))

	if len(calls) != 3 || calls[0] != "a" || calls[1] != "b" || calls[2] != "a" {
		t.Fatalf("unexpected delivery: %v", calls)
	}
}
