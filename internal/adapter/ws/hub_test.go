package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/corkboard/corkboard/internal/domain/user"
	"github.com/corkboard/corkboard/internal/port/database"
	"github.com/corkboard/corkboard/internal/service"
)

// stubStore satisfies database.Store via the embedded interface; only the
// access check is implemented, which is all handleMessage touches.
type stubStore struct {
	database.Store
	access map[string]bool
}

func (s *stubStore) HasProjectAccess(_ context.Context, projectID, _ string) (bool, error) {
	return s.access[projectID], nil
}

func newTestHub(access map[string]bool) *Hub {
	presence := service.NewPresence()
	router := service.NewBroadcastRouter(presence, nil, nil)
	return NewHub(presence, router, &stubStore{access: access}, nil, 16)
}

// testConn builds a hub connection without a live socket. handleMessage
// never writes to the socket directly, only to the send queue.
func testConn(id, userID, name string) *conn {
	return newConn(id, user.Public{ID: userID, Name: name}, nil, 16)
}

func rawMessage(t *testing.T, msgType string, payload any) Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return Message{Type: msgType, Payload: data}
}

// drainTypes empties the connection's send queue and returns the frame
// types in order.
func drainTypes(t *testing.T, c *conn) []string {
	t.Helper()
	var types []string
	for {
		select {
		case frame := <-c.send:
			var ev struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(frame, &ev); err != nil {
				t.Fatalf("unmarshal frame: %v", err)
			}
			types = append(types, ev.Type)
		default:
			return types
		}
	}
}

func TestHub_JoinGranted(t *testing.T) {
	h := newTestHub(map[string]bool{"proj-1": true})
	c := testConn("conn-1", "user-1", "Ada")

	h.handleMessage(context.Background(), c, rawMessage(t, service.EventProjectJoin, roomPayload{ProjectID: "proj-1"}))

	if got := h.presence.Connections("proj-1"); len(got) != 1 {
		t.Fatalf("room size = %d, want 1", len(got))
	}
	got := drainTypes(t, c)
	if len(got) != 1 || got[0] != service.EventPresenceSync {
		t.Errorf("frames = %v, want [%s]", got, service.EventPresenceSync)
	}
}

func TestHub_JoinDenied(t *testing.T) {
	h := newTestHub(map[string]bool{})
	c := testConn("conn-1", "user-1", "Ada")

	h.handleMessage(context.Background(), c, rawMessage(t, service.EventProjectJoin, roomPayload{ProjectID: "proj-1"}))

	if got := h.presence.Connections("proj-1"); len(got) != 0 {
		t.Errorf("denied join put the connection in the room")
	}
	if got := drainTypes(t, c); len(got) != 0 {
		t.Errorf("denied join produced frames: %v", got)
	}
}

func TestHub_JoinMalformedPayload(t *testing.T) {
	h := newTestHub(map[string]bool{"proj-1": true})
	c := testConn("conn-1", "user-1", "Ada")

	h.handleMessage(context.Background(), c, Message{Type: service.EventProjectJoin, Payload: []byte(`{`)})
	h.handleMessage(context.Background(), c, rawMessage(t, service.EventProjectJoin, roomPayload{}))

	if got := h.presence.Connections("proj-1"); len(got) != 0 {
		t.Error("malformed join payload should be ignored")
	}
}

func TestHub_LeaveAnnouncesSync(t *testing.T) {
	h := newTestHub(map[string]bool{"proj-1": true})
	ctx := context.Background()
	c := testConn("conn-1", "user-1", "Ada")
	other := testConn("conn-2", "user-2", "Bea")

	h.handleMessage(ctx, c, rawMessage(t, service.EventProjectJoin, roomPayload{ProjectID: "proj-1"}))
	h.handleMessage(ctx, other, rawMessage(t, service.EventProjectJoin, roomPayload{ProjectID: "proj-1"}))
	drainTypes(t, c)
	drainTypes(t, other)

	h.handleMessage(ctx, c, rawMessage(t, service.EventProjectLeave, roomPayload{ProjectID: "proj-1"}))

	if got := h.presence.Connections("proj-1"); len(got) != 1 {
		t.Fatalf("room size after leave = %d, want 1", len(got))
	}
	// The remaining member sees the shrunken room.
	got := drainTypes(t, other)
	if len(got) != 1 || got[0] != service.EventPresenceSync {
		t.Errorf("frames = %v, want [%s]", got, service.EventPresenceSync)
	}
}

func TestHub_EditingStartStop(t *testing.T) {
	h := newTestHub(map[string]bool{"proj-1": true})
	ctx := context.Background()
	c := testConn("conn-1", "user-1", "Ada")
	observer := testConn("conn-2", "user-2", "Bea")

	h.handleMessage(ctx, c, rawMessage(t, service.EventProjectJoin, roomPayload{ProjectID: "proj-1"}))
	h.handleMessage(ctx, observer, rawMessage(t, service.EventProjectJoin, roomPayload{ProjectID: "proj-1"}))
	drainTypes(t, c)
	drainTypes(t, observer)

	edit := editingPayload{ProjectID: "proj-1", TaskID: "task-1", Field: "title"}
	h.handleMessage(ctx, c, rawMessage(t, service.EventEditingStart, edit))
	// Restarting the same focus announces nothing.
	h.handleMessage(ctx, c, rawMessage(t, service.EventEditingStart, edit))
	h.handleMessage(ctx, c, rawMessage(t, service.EventEditingStop, edit))
	// Stopping an idle focus announces nothing.
	h.handleMessage(ctx, c, rawMessage(t, service.EventEditingStop, edit))

	got := drainTypes(t, observer)
	want := []string{service.EventEditingActive, service.EventEditingInactive}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("frames = %v, want %v", got, want)
	}
}

func TestHub_UnknownMessageType(t *testing.T) {
	h := newTestHub(nil)
	c := testConn("conn-1", "user-1", "Ada")

	h.handleMessage(context.Background(), c, Message{Type: "no:such:type", Payload: []byte(`{}`)})

	if got := drainTypes(t, c); len(got) != 0 {
		t.Errorf("unknown type produced frames: %v", got)
	}
}

// Editing focus from a connection that never joined the room is dropped,
// even when the account could have joined.
func TestHub_EditingStartRequiresRoomMembership(t *testing.T) {
	h := newTestHub(map[string]bool{"proj-1": true})
	ctx := context.Background()
	member := testConn("conn-1", "user-1", "Ada")
	outsider := testConn("conn-2", "user-2", "Bea")

	h.handleMessage(ctx, member, rawMessage(t, service.EventProjectJoin, roomPayload{ProjectID: "proj-1"}))
	drainTypes(t, member)

	edit := editingPayload{ProjectID: "proj-1", TaskID: "task-1", Field: "title"}
	h.handleMessage(ctx, outsider, rawMessage(t, service.EventEditingStart, edit))

	if got := drainTypes(t, member); len(got) != 0 {
		t.Errorf("outsider editing start reached the room: %v", got)
	}
	// Leaving the room revokes the gate too.
	h.handleMessage(ctx, member, rawMessage(t, service.EventProjectLeave, roomPayload{ProjectID: "proj-1"}))
	h.handleMessage(ctx, member, rawMessage(t, service.EventEditingStart, edit))
	if h.presence.InRoom(member, "proj-1") {
		t.Error("member still in room after leave")
	}
}

// Dropping a connection mid-edit synthesizes the stop for the remaining
// member: one editing:inactive naming the editor, then a presence sync.
// The dead connection itself gets nothing.
func TestHub_DisconnectReleasesFocusAndSyncs(t *testing.T) {
	h := newTestHub(map[string]bool{"proj-1": true})
	ctx := context.Background()
	editor := testConn("conn-1", "user-1", "Ada")
	observer := testConn("conn-2", "user-2", "Bea")

	h.handleMessage(ctx, editor, rawMessage(t, service.EventProjectJoin, roomPayload{ProjectID: "proj-1"}))
	h.handleMessage(ctx, observer, rawMessage(t, service.EventProjectJoin, roomPayload{ProjectID: "proj-1"}))
	h.handleMessage(ctx, editor, rawMessage(t, service.EventEditingStart,
		editingPayload{ProjectID: "proj-1", TaskID: "task-1", Field: "title"}))
	drainTypes(t, editor)
	drainTypes(t, observer)

	h.disconnect(editor)

	if got := h.presence.Connections("proj-1"); len(got) != 1 {
		t.Fatalf("room size after disconnect = %d, want 1", len(got))
	}

	var raw [][]byte
drain:
	for {
		select {
		case frame := <-observer.send:
			raw = append(raw, frame)
		default:
			break drain
		}
	}
	if len(raw) != 2 {
		t.Fatalf("observer frames = %d, want 2", len(raw))
	}
	var stop struct {
		Type    string                         `json:"type"`
		Payload service.EditingInactivePayload `json:"payload"`
	}
	if err := json.Unmarshal(raw[0], &stop); err != nil {
		t.Fatalf("unmarshal stop frame: %v", err)
	}
	if stop.Type != service.EventEditingInactive {
		t.Errorf("first frame type = %s, want %s", stop.Type, service.EventEditingInactive)
	}
	if stop.Payload.TaskID != "task-1" || stop.Payload.Field != "title" || stop.Payload.UserID != "user-1" {
		t.Errorf("stop payload = %+v", stop.Payload)
	}
	var roomSync struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw[1], &roomSync); err != nil {
		t.Fatalf("unmarshal sync frame: %v", err)
	}
	if roomSync.Type != service.EventPresenceSync {
		t.Errorf("second frame type = %s, want %s", roomSync.Type, service.EventPresenceSync)
	}
	if got := drainTypes(t, editor); len(got) != 0 {
		t.Errorf("closed connection still received frames: %v", got)
	}
}

// Editing payloads missing a task or field are dropped before touching
// presence state.
func TestHub_EditingMalformedPayload(t *testing.T) {
	h := newTestHub(map[string]bool{"proj-1": true})
	ctx := context.Background()
	c := testConn("conn-1", "user-1", "Ada")

	h.handleMessage(ctx, c, rawMessage(t, service.EventEditingStart, editingPayload{ProjectID: "proj-1", TaskID: "task-1"}))
	h.handleMessage(ctx, c, rawMessage(t, service.EventEditingStart, editingPayload{ProjectID: "proj-1", Field: "title"}))

	if got := drainTypes(t, c); len(got) != 0 {
		t.Errorf("malformed editing payload produced frames: %v", got)
	}
}
