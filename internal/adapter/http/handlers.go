package http

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corkboard/corkboard/internal/adapter/ws"
	"github.com/corkboard/corkboard/internal/domain/user"
	"github.com/corkboard/corkboard/internal/port/database"
	"github.com/corkboard/corkboard/internal/port/messagequeue"
	"github.com/corkboard/corkboard/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth        *service.AuthService
	Projects    *service.ProjectService
	Board       *service.BoardService
	Comments    *service.CommentService
	Attachments *service.AttachmentService
	Activities  *service.ActivityLog
	Hub         *ws.Hub
	Store       database.Store
	Pool        *pgxpool.Pool
	Queue       messagequeue.Queue
}

// Health is the liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady is the readiness probe: it checks the database and reports
// the event relay's state without failing on it.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}

	if err := h.Pool.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["postgres"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	status["postgres"] = "ok"

	if h.Queue != nil {
		if h.Queue.IsConnected() {
			status["nats"] = "ok"
		} else {
			// The relay is best-effort; a down relay does not make the
			// service unready.
			status["nats"] = "disconnected"
		}
	}

	status["connections"] = h.Hub.ConnectionCount()
	writeJSON(w, http.StatusOK, status)
}

// ListUsers returns all users as their broadcast-safe public views.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	public := make([]user.Public, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	writeJSON(w, http.StatusOK, public)
}
