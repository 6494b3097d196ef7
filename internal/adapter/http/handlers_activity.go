package http

import (
	"net/http"
)

// ListProjectActivities returns a project's activity feed, newest first.
// An optional ?actor_id= query narrows it to one user's actions.
func (h *Handlers) ListProjectActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Activities.ListForProject(r.Context(),
		urlParam(r, "id"), actorID(r), r.URL.Query().Get("actor_id"), pageFrom(r))
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// ListTaskActivities returns a task's activity feed, newest first.
func (h *Handlers) ListTaskActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Activities.ListForTask(r.Context(),
		urlParam(r, "id"), actorID(r), pageFrom(r))
	if err != nil {
		writeDomainError(w, err, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// ListMyActivities returns the caller's own activity trail.
func (h *Handlers) ListMyActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Activities.ListForActor(r.Context(),
		actorID(r), actorID(r), pageFrom(r))
	if err != nil {
		writeDomainError(w, err, "activities not found")
		return
	}
	writeJSON(w, http.StatusOK, activities)
}
