// Package ws implements the WebSocket adapter for real-time client
// communication: room membership, editing focus and the delivery side of
// the broadcast router.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	cbotel "github.com/corkboard/corkboard/internal/adapter/otel"
	"github.com/corkboard/corkboard/internal/middleware"
	"github.com/corkboard/corkboard/internal/port/broadcast"
	"github.com/corkboard/corkboard/internal/port/database"
	"github.com/corkboard/corkboard/internal/service"
)

const writeTimeout = 5 * time.Second

// EventConnectionReady is sent once right after the upgrade so the client
// learns its connection ID. HTTP mutations carry that ID back in the
// X-Connection-ID header, which is what lets the router suppress the
// actor's own echo.
const EventConnectionReady = "connection:ready"

// Message is the envelope for all client-to-server WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomPayload struct {
	ProjectID string `json:"projectId"`
}

type editingPayload struct {
	ProjectID string `json:"projectId"`
	TaskID    string `json:"taskId"`
	Field     string `json:"field"`
}

// Hub upgrades HTTP requests to WebSocket connections and dispatches their
// messages to the presence tracker and broadcast router.
type Hub struct {
	presence  *service.Presence
	router    *service.BroadcastRouter
	store     database.Store
	metrics   *cbotel.Metrics
	queueSize int

	mu    sync.Mutex
	conns map[string]*conn
}

// NewHub creates a new WebSocket hub. metrics may be nil.
func NewHub(presence *service.Presence, router *service.BroadcastRouter, store database.Store, metrics *cbotel.Metrics, queueSize int) *Hub {
	return &Hub{
		presence:  presence,
		router:    router,
		store:     store,
		metrics:   metrics,
		queueSize: queueSize,
		conns:     make(map[string]*conn),
	}
}

// HandleWS upgrades the request and runs the connection's read loop until
// the client goes away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	c := newConn(uuid.NewString(), u.Public(), ws, h.queueSize)

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	slog.Info("websocket connected", "conn_id", c.id, "user_id", c.UserID(), "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, c)

	h.sendReady(c)
	h.readLoop(ctx, c)
	h.disconnect(c)
}

// sendReady tells the client its connection ID.
func (h *Hub) sendReady(c *conn) {
	frame, err := json.Marshal(broadcast.Event{
		Type:    EventConnectionReady,
		Payload: map[string]string{"connectionId": c.id},
	})
	if err != nil {
		return
	}
	c.Enqueue(frame)
}

func (h *Hub) readLoop(ctx context.Context, c *conn) {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("websocket bad message", "conn_id", c.id, "error", err)
			continue
		}
		h.handleMessage(ctx, c, msg)
	}
}

func (h *Hub) handleMessage(ctx context.Context, c *conn, msg Message) {
	switch msg.Type {
	case service.EventProjectJoin:
		var p roomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.ProjectID == "" {
			return
		}
		ok, err := h.store.HasProjectAccess(ctx, p.ProjectID, c.UserID())
		if err != nil {
			slog.Error("project access check failed", "project_id", p.ProjectID, "error", err)
			return
		}
		if !ok {
			slog.Debug("join denied", "conn_id", c.id, "project_id", p.ProjectID)
			return
		}
		h.presence.Join(c, p.ProjectID)
		if h.metrics != nil {
			h.metrics.RoomOccupancy.Add(ctx, 1)
		}
		h.router.SyncRoom(ctx, p.ProjectID)

	case service.EventProjectLeave:
		var p roomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.ProjectID == "" {
			return
		}
		h.presence.Leave(c, p.ProjectID)
		if h.metrics != nil {
			h.metrics.RoomOccupancy.Add(ctx, -1)
		}
		h.router.SyncRoom(ctx, p.ProjectID)

	case service.EventEditingStart:
		var p editingPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.TaskID == "" || p.Field == "" {
			return
		}
		// Only members of the room may announce focus into it. The join
		// path already ran the access check, so room membership is the gate.
		if !h.presence.InRoom(c, p.ProjectID) {
			slog.Debug("editing start outside room", "conn_id", c.id, "project_id", p.ProjectID)
			return
		}
		if h.presence.StartEditing(c, p.ProjectID, p.TaskID, p.Field) {
			h.router.EditingStarted(ctx, p.ProjectID, p.TaskID, p.Field,
				service.RoomUser{ID: c.UserID(), Name: c.UserName()})
		}

	case service.EventEditingStop:
		var p editingPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.TaskID == "" || p.Field == "" {
			return
		}
		if projectID, ok := h.presence.StopEditing(c, p.TaskID, p.Field); ok {
			h.router.EditingStopped(ctx, projectID, p.TaskID, p.Field, c.UserID())
		}

	default:
		slog.Debug("websocket unknown message type", "conn_id", c.id, "type", msg.Type)
	}
}

// disconnect tears the connection down: editing focus is released as if the
// client had stopped each field itself, then every room it was in gets a
// fresh presence sync.
func (h *Hub) disconnect(c *conn) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()

	c.close(websocket.StatusNormalClosure, "")

	// The request context is gone at this point; announcements still have
	// to reach the remaining room members.
	ctx := context.Background()

	stops, rooms := h.presence.Disconnect(c)
	for _, s := range stops {
		h.router.EditingStopped(ctx, s.ProjectID, s.TaskID, s.Field, c.UserID())
	}
	for _, projectID := range rooms {
		if h.metrics != nil {
			h.metrics.RoomOccupancy.Add(ctx, -1)
		}
		h.router.SyncRoom(ctx, projectID)
	}

	slog.Info("websocket disconnected", "conn_id", c.id, "user_id", c.UserID())
}

func (h *Hub) writeLoop(ctx context.Context, c *conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case frame := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				c.close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Shutdown kicks every remaining connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.close(websocket.StatusGoingAway, "server shutting down")
	}
}
