package http

import (
	"net/http"

	"github.com/corkboard/corkboard/internal/domain/user"
	"github.com/corkboard/corkboard/internal/middleware"
)

// HandleRegister creates a new user account.
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r)
	if !ok {
		return
	}
	// Self-registration never grants admin.
	req.Admin = false

	u, err := h.Auth.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// HandleLogin authenticates a user and returns a session token.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}

	res, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleMe returns the authenticated user.
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
