package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/corkboard/corkboard/internal/port/messagequeue"
)

var _ messagequeue.Queue = (*mockQueue)(nil)

// mockQueue records published messages for testing.
type mockQueue struct {
	mu        sync.Mutex
	published []struct {
		subject string
		data    []byte
	}
	publishErr error
}

func (m *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (m *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (m *mockQueue) Drain() error      { return nil }
func (m *mockQueue) Close() error      { return nil }
func (m *mockQueue) IsConnected() bool { return true }

func decodeFrames(t *testing.T, c *mockConn) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var types []string
	for _, f := range c.frames {
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(f, &ev); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		types = append(types, ev.Type)
	}
	return types
}

// The actor's originating connection is suppressed; the same user's second
// tab still receives the event.
func TestBroadcastRouter_NotifySuppressesActorConnection(t *testing.T) {
	presence := NewPresence()
	router := newTestRouter(presence)

	actorTab := newMockConn("conn-1", "user-1", "Ada")
	actorOtherTab := newMockConn("conn-2", "user-1", "Ada")
	bystander := newMockConn("conn-3", "user-2", "Bea")
	for _, c := range []*mockConn{actorTab, actorOtherTab, bystander} {
		presence.Join(c, "proj-1")
	}

	router.Notify(context.Background(), EventTaskUpdated, "proj-1", map[string]string{"id": "task-1"}, "conn-1")

	if actorTab.frameCount() != 0 {
		t.Error("actor's originating connection received its own echo")
	}
	if actorOtherTab.frameCount() != 1 {
		t.Errorf("actor's second tab got %d frames, want 1", actorOtherTab.frameCount())
	}
	if bystander.frameCount() != 1 {
		t.Errorf("bystander got %d frames, want 1", bystander.frameCount())
	}
	if got := decodeFrames(t, bystander); got[0] != EventTaskUpdated {
		t.Errorf("frame type = %s, want %s", got[0], EventTaskUpdated)
	}
}

// An empty actor connection ID (plain HTTP caller with no live socket)
// suppresses nothing.
func TestBroadcastRouter_NotifyWithoutActorConn(t *testing.T) {
	presence := NewPresence()
	router := newTestRouter(presence)

	conn := newMockConn("conn-1", "user-1", "Ada")
	presence.Join(conn, "proj-1")

	router.Notify(context.Background(), EventTaskUpdated, "proj-1", nil, "")

	if conn.frameCount() != 1 {
		t.Errorf("got %d frames, want 1", conn.frameCount())
	}
}

func TestBroadcastRouter_NotifyScopedToRoom(t *testing.T) {
	presence := NewPresence()
	router := newTestRouter(presence)

	inRoom := newMockConn("conn-1", "user-1", "Ada")
	elsewhere := newMockConn("conn-2", "user-2", "Bea")
	presence.Join(inRoom, "proj-1")
	presence.Join(elsewhere, "proj-2")

	router.Notify(context.Background(), EventTaskCreated, "proj-1", nil, "")

	if inRoom.frameCount() != 1 {
		t.Errorf("room member got %d frames, want 1", inRoom.frameCount())
	}
	if elsewhere.frameCount() != 0 {
		t.Errorf("other room got %d frames, want 0", elsewhere.frameCount())
	}
}

// Presence events reach everyone: seeing yourself in a presence sync is
// not an echo.
func TestBroadcastRouter_AnnounceNeverSuppresses(t *testing.T) {
	presence := NewPresence()
	router := newTestRouter(presence)

	conn := newMockConn("conn-1", "user-1", "Ada")
	presence.Join(conn, "proj-1")

	router.SyncRoom(context.Background(), "proj-1")

	if conn.frameCount() != 1 {
		t.Fatalf("got %d frames, want 1", conn.frameCount())
	}
	if got := decodeFrames(t, conn); got[0] != EventPresenceSync {
		t.Errorf("frame type = %s, want %s", got[0], EventPresenceSync)
	}
}

// A connection whose send queue overflows is kicked, and the rest of the
// room still gets the event.
func TestBroadcastRouter_KicksSlowConnection(t *testing.T) {
	presence := NewPresence()
	router := newTestRouter(presence)

	slow := newMockConn("conn-1", "user-1", "Ada")
	slow.full = true
	healthy := newMockConn("conn-2", "user-2", "Bea")
	presence.Join(slow, "proj-1")
	presence.Join(healthy, "proj-1")

	router.Notify(context.Background(), EventTaskUpdated, "proj-1", nil, "")

	if slow.kickedReason() == "" {
		t.Error("slow connection was not kicked")
	}
	if healthy.frameCount() != 1 {
		t.Errorf("healthy connection got %d frames, want 1", healthy.frameCount())
	}
}

func TestBroadcastRouter_EditingEvents(t *testing.T) {
	presence := NewPresence()
	router := newTestRouter(presence)

	conn := newMockConn("conn-1", "user-1", "Ada")
	presence.Join(conn, "proj-1")

	router.EditingStarted(context.Background(), "proj-1", "task-1", "title", RoomUser{ID: "user-1", Name: "Ada"})
	router.EditingStopped(context.Background(), "proj-1", "task-1", "title", "user-1")

	got := decodeFrames(t, conn)
	if len(got) != 2 || got[0] != EventEditingActive || got[1] != EventEditingInactive {
		t.Errorf("frame types = %v, want [%s %s]", got, EventEditingActive, EventEditingInactive)
	}
}

// Every mutation is mirrored to the relay on the project's subject.
func TestBroadcastRouter_RelaysToQueue(t *testing.T) {
	presence := NewPresence()
	queue := &mockQueue{}
	router := NewBroadcastRouter(presence, queue, nil)

	router.Notify(context.Background(), EventTaskCreated, "proj-1", nil, "")

	queue.mu.Lock()
	defer queue.mu.Unlock()
	if len(queue.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(queue.published))
	}
	want := messagequeue.SubjectEvents + ".proj-1"
	if queue.published[0].subject != want {
		t.Errorf("subject = %s, want %s", queue.published[0].subject, want)
	}
}

// A failing relay never disturbs in-room delivery.
func TestBroadcastRouter_RelayFailureIsSwallowed(t *testing.T) {
	presence := NewPresence()
	queue := &mockQueue{publishErr: context.DeadlineExceeded}
	router := NewBroadcastRouter(presence, queue, nil)

	conn := newMockConn("conn-1", "user-1", "Ada")
	presence.Join(conn, "proj-1")

	router.Notify(context.Background(), EventTaskCreated, "proj-1", nil, "")

	if conn.frameCount() != 1 {
		t.Errorf("got %d frames, want 1", conn.frameCount())
	}
}
