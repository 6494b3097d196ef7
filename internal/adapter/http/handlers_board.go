package http

import (
	"net/http"

	"github.com/corkboard/corkboard/internal/domain/column"
	"github.com/corkboard/corkboard/internal/domain/project"
	"github.com/corkboard/corkboard/internal/domain/task"
)

// CreateProject creates a project owned by the caller.
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[project.CreateRequest](w, r)
	if !ok {
		return
	}
	p, err := h.Projects.Create(r.Context(), actorID(r), req)
	if err != nil {
		writeDomainError(w, err, "creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListProjects lists the caller's projects.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Projects.List(r.Context(), actorID(r))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// ProjectStats returns per-column task counts for the project.
func (h *Handlers) ProjectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Projects.Stats(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type memberRequest struct {
	UserID string `json:"user_id"`
}

// AddProjectMember grants a user access to the project.
func (h *Handlers) AddProjectMember(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[memberRequest](w, r)
	if !ok {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if err := h.Projects.AddMember(r.Context(), urlParam(r, "id"), req.UserID, actorID(r)); err != nil {
		writeDomainError(w, err, "project or user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveProjectMember revokes a user's access to the project.
func (h *Handlers) RemoveProjectMember(w http.ResponseWriter, r *http.Request) {
	if err := h.Projects.RemoveMember(r.Context(), urlParam(r, "id"), urlParam(r, "userId"), actorID(r)); err != nil {
		writeDomainError(w, err, "project or member not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProjectMembers lists the project's members.
func (h *Handlers) ListProjectMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Projects.Members(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// ReorderColumn moves a column to a new index within its project.
func (h *Handlers) ReorderColumn(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[column.ReorderRequest](w, r)
	if !ok {
		return
	}
	c, err := h.Board.ReorderColumn(r.Context(), urlParam(r, "id"), req.Order, actorID(r), connID(r))
	if err != nil {
		writeDomainError(w, err, "column not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// MoveTask relocates a task to a target column and index.
func (h *Handlers) MoveTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.MoveRequest](w, r)
	if !ok {
		return
	}
	t, err := h.Board.MoveTask(r.Context(), urlParam(r, "id"), req, actorID(r), connID(r))
	if err != nil {
		writeDomainError(w, err, "task or column not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ReorderTask moves a task to a new index within its current column.
func (h *Handlers) ReorderTask(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[task.ReorderRequest](w, r)
	if !ok {
		return
	}
	t, err := h.Board.ReorderTask(r.Context(), urlParam(r, "id"), req.Order, actorID(r), connID(r))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}
