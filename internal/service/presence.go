package service

import (
	"sort"
	"sync"

	"github.com/corkboard/corkboard/internal/port/broadcast"
)

// editKey identifies one editing focus: a task field a connection has open.
type editKey struct {
	taskID string
	field  string
}

// EditingStop is a synthesized stop produced when a connection disappears
// while holding editing focus.
type EditingStop struct {
	ProjectID string
	TaskID    string
	Field     string
}

// Presence tracks which connections are in which project room and which
// task fields each is actively editing. All state is in-process and
// ephemeral: it exists only while the owning connection is up, and this
// component is the only writer of both tables.
//
// Per (connection, task, field) the state machine is
// idle --start--> editing --stop|disconnect--> idle; starting an
// already-started pair and stopping an idle pair are both no-ops.
type Presence struct {
	mu      sync.Mutex
	rooms   map[string]map[string]broadcast.Conn // projectID → connID → conn
	joined  map[string]map[string]struct{}       // connID → projectIDs
	editing map[string]map[editKey]string        // connID → focus → projectID
}

// NewPresence creates an empty presence tracker.
func NewPresence() *Presence {
	return &Presence{
		rooms:   make(map[string]map[string]broadcast.Conn),
		joined:  make(map[string]map[string]struct{}),
		editing: make(map[string]map[editKey]string),
	}
}

// Join adds the connection to the project room. Idempotent.
func (p *Presence) Join(conn broadcast.Conn, projectID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.rooms[projectID]
	if !ok {
		room = make(map[string]broadcast.Conn)
		p.rooms[projectID] = room
	}
	room[conn.ID()] = conn

	set, ok := p.joined[conn.ID()]
	if !ok {
		set = make(map[string]struct{})
		p.joined[conn.ID()] = set
	}
	set[projectID] = struct{}{}
}

// Leave removes the connection from the project room. Idempotent.
func (p *Presence) Leave(conn broadcast.Conn, projectID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leaveLocked(conn.ID(), projectID)
}

func (p *Presence) leaveLocked(connID, projectID string) {
	if room, ok := p.rooms[projectID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(p.rooms, projectID)
		}
	}
	if set, ok := p.joined[connID]; ok {
		delete(set, projectID)
		if len(set) == 0 {
			delete(p.joined, connID)
		}
	}
}

// InRoom reports whether the connection has joined the project room.
func (p *Presence) InRoom(conn broadcast.Conn, projectID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.joined[conn.ID()][projectID]
	return ok
}

// StartEditing marks the (task, field) pair as being edited by the
// connection. Returns false when the pair was already started, in which
// case nothing should be re-announced.
func (p *Presence) StartEditing(conn broadcast.Conn, projectID, taskID, field string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	focus, ok := p.editing[conn.ID()]
	if !ok {
		focus = make(map[editKey]string)
		p.editing[conn.ID()] = focus
	}
	k := editKey{taskID: taskID, field: field}
	if _, already := focus[k]; already {
		return false
	}
	focus[k] = projectID
	return true
}

// StopEditing clears the (task, field) pair. Returns the project the focus
// belonged to and false when the pair was not being edited.
func (p *Presence) StopEditing(conn broadcast.Conn, taskID, field string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	focus, ok := p.editing[conn.ID()]
	if !ok {
		return "", false
	}
	k := editKey{taskID: taskID, field: field}
	projectID, ok := focus[k]
	if !ok {
		return "", false
	}
	delete(focus, k)
	if len(focus) == 0 {
		delete(p.editing, conn.ID())
	}
	return projectID, true
}

// Disconnect forcibly clears everything the connection owned. It returns
// the synthesized editing stops (one per open focus, as if the client had
// called stop itself) and the rooms the connection was in, so the caller
// can announce both. No editing state survives its owning connection.
func (p *Presence) Disconnect(conn broadcast.Conn) (stops []EditingStop, rooms []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	connID := conn.ID()

	for k, projectID := range p.editing[connID] {
		stops = append(stops, EditingStop{ProjectID: projectID, TaskID: k.taskID, Field: k.field})
	}
	delete(p.editing, connID)

	for projectID := range p.joined[connID] {
		rooms = append(rooms, projectID)
	}
	for _, projectID := range rooms {
		p.leaveLocked(connID, projectID)
	}
	return stops, rooms
}

// Connections returns the live connections currently in the project room.
func (p *Presence) Connections(projectID string) []broadcast.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	room := p.rooms[projectID]
	conns := make([]broadcast.Conn, 0, len(room))
	for _, c := range room {
		conns = append(conns, c)
	}
	return conns
}

// Snapshot returns the distinct users present in the room, for a client
// that just joined to render "who's here" without waiting for incremental
// events. A user with several open tabs appears once.
func (p *Presence) Snapshot(projectID string) []RoomUser {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]RoomUser)
	for _, c := range p.rooms[projectID] {
		if _, ok := seen[c.UserID()]; !ok {
			seen[c.UserID()] = RoomUser{ID: c.UserID(), Name: c.UserName()}
		}
	}

	users := make([]RoomUser, 0, len(seen))
	for _, u := range seen {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}
