package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)
	r.Get("/health/ready", h.HealthReady)

	// Live connection. Auth middleware accepts ?token= here.
	r.Get("/ws", h.Hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Auth
		r.Post("/auth/register", h.HandleRegister)
		r.Post("/auth/login", h.HandleLogin)
		r.Get("/auth/me", h.HandleMe)

		// Users
		r.Get("/users", h.ListUsers)

		// Projects
		r.Get("/projects", h.ListProjects)
		r.Post("/projects", h.CreateProject)
		r.Get("/projects/{id}", handleGet(h.Projects.Get, "project not found"))
		r.Put("/projects/{id}", handleUpdate(h.Projects.Update, "project not found"))
		r.Delete("/projects/{id}", handleDelete(h.Projects.Delete, "project not found"))
		r.Get("/projects/{id}/stats", h.ProjectStats)

		// Members (nested under projects)
		r.Get("/projects/{id}/members", h.ListProjectMembers)
		r.Post("/projects/{id}/members", h.AddProjectMember)
		r.Delete("/projects/{id}/members/{userId}", h.RemoveProjectMember)

		// Columns (nested under projects)
		r.Get("/projects/{id}/columns", handleListByParam("id", h.Board.ListColumns, "project not found"))
		r.Post("/projects/{id}/columns", handleCreateIn("id", h.Board.CreateColumn))

		// Columns (direct access)
		r.Put("/columns/{id}", handleUpdate(h.Board.UpdateColumn, "column not found"))
		r.Delete("/columns/{id}", handleDelete(h.Board.DeleteColumn, "column not found"))
		r.Post("/columns/{id}/reorder", h.ReorderColumn)

		// Tasks (nested under columns and projects)
		r.Get("/columns/{id}/tasks", handleListByParam("id", h.Board.ListTasks, "column not found"))
		r.Post("/columns/{id}/tasks", handleCreateIn("id", h.Board.CreateTask))
		r.Get("/projects/{id}/tasks", handleListByParam("id", h.Board.ListProjectTasks, "project not found"))

		// Tasks (direct access)
		r.Get("/tasks/{id}", handleGet(h.Board.GetTask, "task not found"))
		r.Put("/tasks/{id}", handleUpdate(h.Board.UpdateTask, "task not found"))
		r.Delete("/tasks/{id}", handleDelete(h.Board.DeleteTask, "task not found"))
		r.Post("/tasks/{id}/move", h.MoveTask)
		r.Post("/tasks/{id}/reorder", h.ReorderTask)

		// Comments
		r.Get("/tasks/{id}/comments", handleListByParam("id", h.Comments.List, "task not found"))
		r.Post("/tasks/{id}/comments", handleCreateIn("id", h.Comments.Create))
		r.Put("/comments/{id}", handleUpdate(h.Comments.Update, "comment not found"))
		r.Delete("/comments/{id}", handleDelete(h.Comments.Delete, "comment not found"))

		// Attachments
		r.Get("/tasks/{id}/attachments", handleListByParam("id", h.Attachments.List, "task not found"))
		r.Post("/tasks/{id}/attachments", handleCreateIn("id", h.Attachments.Register))
		r.Delete("/attachments/{id}", handleDelete(h.Attachments.Delete, "attachment not found"))

		// Activity feeds
		r.Get("/projects/{id}/activities", h.ListProjectActivities)
		r.Get("/tasks/{id}/activities", h.ListTaskActivities)
		r.Get("/activities/mine", h.ListMyActivities)
	})
}
