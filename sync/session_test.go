package sync

import (
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"tasksync/domain"
)

// eventServer is a fake backend event endpoint: an echo server that
// upgrades /ws/:user and pushes whatever frames the test enqueues.
type eventServer struct {
	srv    *httptest.Server
	frames chan []byte
}

func newEventServer(t *testing.T) *eventServer {
	t.Helper()
	frames := make(chan []byte, 16)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	e := echo.New()
	e.GET("/ws/:user", func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer conn.Close()
		for frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return nil
			}
		}
		return nil
	})

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		close(frames)
		srv.Close()
	})
	return &eventServer{srv: srv, frames: frames}
}

func (s *eventServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *eventServer) push(frame string) { s.frames <- []byte(frame) }

func TestSessionAppliesEventStream(t *testing.T) {
	server := newEventServer(t)
	sess, err := NewSession(Options{UserID: "u1", URL: server.url()})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer sess.Close()

	var mu gosync.Mutex
	var seen []string
	unsubscribe := sess.Subscribe(func(ev *domain.Event) {
		mu.Lock()
		seen = append(seen, ev.Type)
		mu.Unlock()
	})
	defer unsubscribe()

	sess.Connect()
	waitFor(t, "session connected", sess.Connected)

	server.push(`{"event_type":"task.created","user_id":"u1","timestamp":"2025-06-01T10:00:00Z","payload":{"task_id":"t1","title":"Buy milk"}}`)
	waitFor(t, "task created", func() bool { return len(sess.Tasks()) == 1 })

	// Malformed and foreign frames are dropped without disturbing the
	// stream.
	server.push(`this is not json`)
	server.push(`{"event_type":"task.deleted","user_id":"someone-else","timestamp":"2025-06-01T10:00:01Z","payload":{"task_id":"t1"}}`)

	server.push(`{"event_type":"task.completed","user_id":"u1","timestamp":"2025-06-01T10:00:02Z","payload":{"task_id":"t1"}}`)
	waitFor(t, "task completed", func() bool {
		tasks := sess.Tasks()
		return len(tasks) == 1 && tasks[0].Status == domain.StatusComplete
	})

	server.push(`{"event_type":"task.deleted","user_id":"u1","timestamp":"2025-06-01T10:00:03Z","payload":{"task_id":"t1"}}`)
	waitFor(t, "task deleted", func() bool { return len(sess.Tasks()) == 0 })

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[0] != domain.TaskCreated || seen[1] != domain.TaskCompleted || seen[2] != domain.TaskDeleted {
		t.Fatalf("subscriber saw %v", seen)
	}
}

func TestSessionManualOperations(t *testing.T) {
	sess, err := NewSession(Options{UserID: "u1", URL: "ws://unused"})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	sess.SetTasks([]domain.Task{{ID: "t1", UserID: "u1", Title: "seeded"}})
	if !sess.AddTask(domain.Task{ID: "t2", UserID: "u1", Title: "local"}) {
		t.Fatal("add must succeed")
	}
	if sess.AddTask(domain.Task{ID: "t2", UserID: "u1", Title: "dup"}) {
		t.Fatal("duplicate add must be a no-op")
	}
	title := "renamed"
	if !sess.UpdateTask("t1", domain.TaskFields{Title: &title}) {
		t.Fatal("update must succeed")
	}
	if sess.UpdateTask("missing", domain.TaskFields{Title: &title}) {
		t.Fatal("update on absent id must be a no-op")
	}
	if !sess.RemoveTask("t2") || sess.RemoveTask("t2") {
		t.Fatal("remove must drop once then no-op")
	}
	tasks := sess.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "renamed" {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
}

func TestNewSessionValidation(t *testing.T) {
	if _, err := NewSession(Options{URL: "ws://unused"}); err == nil {
		t.Fatal("empty user id must be rejected")
	}

	token := signToken(t, jwt.MapClaims{"sub": "someone-else", "exp": time.Now().Add(time.Hour).Unix()})
	if _, err := NewSession(Options{UserID: "u1", Token: token, URL: "ws://unused"}); err == nil {
		t.Fatal("token for another user must be rejected")
	}

	ok := signToken(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()})
	if _, err := NewSession(Options{UserID: "u1", Token: ok, URL: "ws://unused"}); err != nil {
		t.Fatalf("matching token rejected: %v", err)
	}
}

func TestEventEndpoint(t *testing.T) {
	got := eventEndpoint("ws://localhost:8000/", "u1", "tok en")
	want := "ws://localhost:8000/ws/u1?token=tok+en"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if eventEndpoint("ws://h", "u1", "") != "ws://h/ws/u1" {
		t.Fatalf("got %q", eventEndpoint("ws://h", "u1", ""))
	}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}
