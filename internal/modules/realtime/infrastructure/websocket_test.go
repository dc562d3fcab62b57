package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"mesaYaWaitlist/internal/modules/realtime/domain"
)

type fakeConn struct {
	mu      sync.Mutex
	inbox   chan []byte
	written [][]byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbox: make(chan []byte, 8)}
}

func (f *fakeConn) ReadJSON(v any) error {
	data, ok := <-f.inbox
	if !ok {
		return io.EOF
	}
	return json.Unmarshal(data, v)
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) WriteControl(int, []byte, time.Time) error { return nil }
func (f *fakeConn) SetReadLimit(int64)                        {}
func (f *fakeConn) SetReadDeadline(time.Time) error           { return nil }
func (f *fakeConn) SetPongHandler(func(string) error)         {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func drain(c *Client) []domain.Message {
	var out []domain.Message
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var msg domain.Message
			if err := json.Unmarshal(data, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func TestHubBroadcastTargetsSession(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, newFakeConn(), "", "session-a", "view-1", 4, nil)
	b := NewClient(hub, newFakeConn(), "", "session-b", "view-2", 4, nil)
	hub.AttachClient(a, []string{domain.TopicDashboardFragment})
	hub.AttachClient(b, []string{domain.TopicDashboardFragment})

	msg := domain.BuildFragmentMessage("session-a", domain.Fragment{Region: "banner", HTML: "<p>x</p>"}, time.Now(), nil)
	hub.Broadcast(context.Background(), msg)

	if got := drain(a); len(got) != 1 || got[0].Topic != domain.TopicDashboardFragment {
		t.Fatalf("session-a expected one fragment, got %+v", got)
	}
	if got := drain(b); len(got) != 0 {
		t.Fatalf("session-b must not receive, got %+v", got)
	}
}

func TestHubBroadcastSkipsUnsubscribedTopics(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, newFakeConn(), "", "s", "v", 4, nil)
	hub.AttachClient(c, []string{domain.TopicDashboardFragment})

	hub.Broadcast(context.Background(), &domain.Message{Topic: "other.topic"})
	if got := drain(c); len(got) != 0 {
		t.Fatalf("unexpected messages: %+v", got)
	}
}

func TestHubDetachesSlowClient(t *testing.T) {
	hub := NewHub()
	conn := newFakeConn()
	closedHook := make(chan struct{})
	c := NewClient(hub, conn, "", "s", "v", 1, nil)
	c.AddCloseHook(func(*Client) { close(closedHook) })
	hub.AttachClient(c, []string{domain.TopicDashboardFragment})

	msg := domain.BuildFragmentMessage("s", domain.Fragment{Region: "form", HTML: "x"}, time.Now(), nil)
	hub.Broadcast(context.Background(), msg)
	hub.Broadcast(context.Background(), msg)

	select {
	case <-closedHook:
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not detached")
	}
	if !conn.isClosed() || hub.Len() != 0 {
		t.Fatalf("expected closed connection and empty hub, closed=%v len=%d", conn.isClosed(), hub.Len())
	}
}

func TestCommandProcessorPingAndFallback(t *testing.T) {
	hub := NewHub()
	var fallbackActions []string
	processor := NewCommandProcessor(func(_ context.Context, _ *Client, cmd Command) {
		fallbackActions = append(fallbackActions, cmd.Action)
	}, time.Second)
	processor.Register("submit", func(ctx context.Context, client *Client, _ Command) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("handler context must carry a deadline")
		}
		client.SendDomainMessage(&domain.Message{Topic: "handled"})
	})

	c := NewClient(hub, newFakeConn(), "", "s", "v", 4, processor)
	c.processCommand(Command{Action: " PING "})
	c.processCommand(Command{Action: "submit"})
	c.processCommand(Command{Action: "mystery"})
	c.processCommand(Command{Action: "  "})

	got := drain(c)
	if len(got) != 2 || got[0].Topic != domain.TopicSystemPong || got[1].Topic != "handled" {
		t.Fatalf("unexpected replies: %+v", got)
	}
	if len(fallbackActions) != 1 || fallbackActions[0] != "mystery" {
		t.Fatalf("unexpected fallback calls: %v", fallbackActions)
	}
}

func TestReadPumpProcessesCommandsInOrder(t *testing.T) {
	hub := NewHub()
	conn := newFakeConn()
	var seen []string
	processor := NewCommandProcessor(nil, time.Second)
	processor.Register("input", func(_ context.Context, _ *Client, cmd Command) {
		var payload struct {
			Value string `json:"value"`
		}
		if err := cmd.Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		seen = append(seen, payload.Value)
	})
	c := NewClient(hub, conn, "", "s", "v", 4, processor)
	hub.AttachClient(c, nil)

	for _, value := range []string{"a", "an", "ana"} {
		conn.inbox <- []byte(`{"action":"input","payload":{"value":"` + value + `"}}`)
	}
	close(conn.inbox)
	c.ReadPump()

	if len(seen) != 3 || seen[0] != "a" || seen[2] != "ana" {
		t.Fatalf("commands out of order: %v", seen)
	}
	if hub.Len() != 0 {
		t.Fatal("read pump must detach on exit")
	}
}

type recordingHandler struct {
	topic string
	got   []*domain.Message
	err   error
}

func (h *recordingHandler) Topic() string { return h.topic }

func (h *recordingHandler) Handle(_ context.Context, msg *domain.Message) error {
	h.got = append(h.got, msg)
	return h.err
}

func TestHandlerRegistryDispatch(t *testing.T) {
	registry := NewHandlerRegistry()
	first := &recordingHandler{topic: "waitlist.updated"}
	second := &recordingHandler{topic: "waitlist.updated", err: errors.New("boom")}
	other := &recordingHandler{topic: "tables.updated"}
	registry.Register(first)
	registry.Register(second)
	registry.Register(other)
	registry.Register(&recordingHandler{})

	if topics := registry.Topics(); len(topics) != 2 || topics[0] != "tables.updated" || topics[1] != "waitlist.updated" {
		t.Fatalf("unexpected topics: %v", topics)
	}

	err := registry.Dispatch(context.Background(), "waitlist.updated", &domain.Message{Entity: "waitlist"})
	if err == nil {
		t.Fatal("expected joined handler error")
	}
	if len(first.got) != 1 || len(second.got) != 1 || len(other.got) != 0 {
		t.Fatalf("unexpected dispatch counts: %d %d %d", len(first.got), len(second.got), len(other.got))
	}
}
