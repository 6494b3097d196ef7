package service

import (
	"sync"
	"testing"

	"github.com/corkboard/corkboard/internal/port/broadcast"
)

var _ broadcast.Conn = (*mockConn)(nil)

// mockConn is an in-memory broadcast.Conn recording delivered frames.
type mockConn struct {
	id       string
	userID   string
	userName string

	mu     sync.Mutex
	frames [][]byte
	full   bool // Enqueue reports overflow when set
	kicked string
}

func newMockConn(id, userID, userName string) *mockConn {
	return &mockConn{id: id, userID: userID, userName: userName}
}

func (c *mockConn) ID() string       { return c.id }
func (c *mockConn) UserID() string   { return c.userID }
func (c *mockConn) UserName() string { return c.userName }

func (c *mockConn) Enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	c.frames = append(c.frames, frame)
	return true
}

func (c *mockConn) Kick(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kicked = reason
}

func (c *mockConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *mockConn) kickedReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kicked
}

func TestPresence_JoinLeave(t *testing.T) {
	p := NewPresence()
	conn := newMockConn("conn-1", "user-1", "Ada")

	p.Join(conn, "proj-1")
	if got := p.Connections("proj-1"); len(got) != 1 {
		t.Fatalf("room size = %d, want 1", len(got))
	}

	// Joining again is idempotent.
	p.Join(conn, "proj-1")
	if got := p.Connections("proj-1"); len(got) != 1 {
		t.Fatalf("room size after double join = %d, want 1", len(got))
	}

	p.Leave(conn, "proj-1")
	if got := p.Connections("proj-1"); len(got) != 0 {
		t.Fatalf("room size after leave = %d, want 0", len(got))
	}

	// Leaving a room it is not in is a no-op.
	p.Leave(conn, "proj-1")
	p.Leave(conn, "proj-2")
}

func TestPresence_InRoom(t *testing.T) {
	p := NewPresence()
	conn := newMockConn("conn-1", "user-1", "Ada")

	if p.InRoom(conn, "proj-1") {
		t.Error("unjoined connection reported in room")
	}
	p.Join(conn, "proj-1")
	if !p.InRoom(conn, "proj-1") {
		t.Error("joined connection reported out of room")
	}
	if p.InRoom(conn, "proj-2") {
		t.Error("membership leaked across rooms")
	}
	p.Leave(conn, "proj-1")
	if p.InRoom(conn, "proj-1") {
		t.Error("left connection still reported in room")
	}
}

func TestPresence_SnapshotDistinctUsers(t *testing.T) {
	p := NewPresence()
	// Two tabs of the same user plus one other user.
	p.Join(newMockConn("conn-1", "user-1", "Ada"), "proj-1")
	p.Join(newMockConn("conn-2", "user-1", "Ada"), "proj-1")
	p.Join(newMockConn("conn-3", "user-2", "Bea"), "proj-1")

	users := p.Snapshot("proj-1")
	if len(users) != 2 {
		t.Fatalf("snapshot has %d users, want 2", len(users))
	}
	if users[0].ID != "user-1" || users[1].ID != "user-2" {
		t.Errorf("snapshot order = %+v, want sorted by ID", users)
	}
}

func TestPresence_EditingStateMachine(t *testing.T) {
	p := NewPresence()
	conn := newMockConn("conn-1", "user-1", "Ada")

	if !p.StartEditing(conn, "proj-1", "task-1", "title") {
		t.Fatal("first start should report true")
	}
	if p.StartEditing(conn, "proj-1", "task-1", "title") {
		t.Error("second start of the same focus should report false")
	}
	// A different field on the same task is a distinct focus.
	if !p.StartEditing(conn, "proj-1", "task-1", "description") {
		t.Error("distinct field should start independently")
	}

	projectID, ok := p.StopEditing(conn, "task-1", "title")
	if !ok || projectID != "proj-1" {
		t.Fatalf("stop = (%q, %v), want (proj-1, true)", projectID, ok)
	}
	if _, ok := p.StopEditing(conn, "task-1", "title"); ok {
		t.Error("stopping an idle focus should report false")
	}
}

func TestPresence_DisconnectSynthesizesStops(t *testing.T) {
	p := NewPresence()
	conn := newMockConn("conn-1", "user-1", "Ada")

	p.Join(conn, "proj-1")
	p.Join(conn, "proj-2")
	p.StartEditing(conn, "proj-1", "task-1", "title")
	p.StartEditing(conn, "proj-2", "task-9", "description")

	stops, rooms := p.Disconnect(conn)
	if len(stops) != 2 {
		t.Fatalf("synthesized stops = %d, want 2", len(stops))
	}
	if len(rooms) != 2 {
		t.Fatalf("vacated rooms = %d, want 2", len(rooms))
	}
	if got := p.Connections("proj-1"); len(got) != 0 {
		t.Error("connection still present in proj-1 after disconnect")
	}
	if got := p.Connections("proj-2"); len(got) != 0 {
		t.Error("connection still present in proj-2 after disconnect")
	}

	// No editing state survives: restarting the focus reports fresh.
	if !p.StartEditing(conn, "proj-1", "task-1", "title") {
		t.Error("editing state leaked across disconnect")
	}
}

func TestPresence_DisconnectUnknownConn(t *testing.T) {
	p := NewPresence()
	stops, rooms := p.Disconnect(newMockConn("ghost", "user-9", "Ghost"))
	if len(stops) != 0 || len(rooms) != 0 {
		t.Errorf("disconnect of unknown conn = (%v, %v), want empty", stops, rooms)
	}
}

func TestPresence_EditingScopedPerConnection(t *testing.T) {
	p := NewPresence()
	tab1 := newMockConn("conn-1", "user-1", "Ada")
	tab2 := newMockConn("conn-2", "user-1", "Ada")

	if !p.StartEditing(tab1, "proj-1", "task-1", "title") {
		t.Fatal("tab1 start failed")
	}
	// The same user's second tab holds its own focus.
	if !p.StartEditing(tab2, "proj-1", "task-1", "title") {
		t.Error("tab2 should start independently of tab1")
	}

	if _, ok := p.StopEditing(tab1, "task-1", "title"); !ok {
		t.Error("tab1 stop failed")
	}
	if _, ok := p.StopEditing(tab2, "task-1", "title"); !ok {
		t.Error("tab1's stop must not clear tab2's focus")
	}
}
