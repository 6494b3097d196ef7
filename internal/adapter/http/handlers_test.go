package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	cbhttp "github.com/corkboard/corkboard/internal/adapter/http"
	"github.com/corkboard/corkboard/internal/adapter/ws"
	"github.com/corkboard/corkboard/internal/config"
	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/domain/activity"
	"github.com/corkboard/corkboard/internal/domain/project"
	"github.com/corkboard/corkboard/internal/domain/task"
	"github.com/corkboard/corkboard/internal/domain/user"
	"github.com/corkboard/corkboard/internal/middleware"
	"github.com/corkboard/corkboard/internal/port/database"
	"github.com/corkboard/corkboard/internal/service"
)

var errNotFound = fmt.Errorf("stub: %w", domain.ErrNotFound)

// stubStore backs the handlers with in-memory state. It embeds the Store
// interface and implements only the methods the routes under test reach.
type stubStore struct {
	database.Store

	mu       sync.Mutex // activity writes arrive from detached goroutines
	seq      int
	projects []project.Project
	users    []user.User
	members  map[string]bool // "projectID:userID"
}

func newStubStore() *stubStore {
	return &stubStore{members: make(map[string]bool)}
}

func (s *stubStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *stubStore) ListProjects(_ context.Context, userID string) ([]project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []project.Project
	for _, p := range s.projects {
		if p.DeletedAt == nil && s.members[p.ID+":"+userID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) GetProject(_ context.Context, id string) (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id && s.projects[i].DeletedAt == nil {
			p := s.projects[i]
			return &p, nil
		}
	}
	return nil, errNotFound
}

func (s *stubStore) CreateProject(_ context.Context, ownerID string, req project.CreateRequest) (*project.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := project.Project{
		ID:      s.nextID("proj"),
		OwnerID: ownerID,
		Name:    req.Name,
		Version: 1,
	}
	s.projects = append(s.projects, p)
	s.members[p.ID+":"+ownerID] = true
	return &p, nil
}

func (s *stubStore) SoftDeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id && s.projects[i].DeletedAt == nil {
			now := time.Now()
			s.projects[i].DeletedAt = &now
			return nil
		}
	}
	return errNotFound
}

func (s *stubStore) HasProjectAccess(_ context.Context, projectID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[projectID+":"+userID], nil
}

func (s *stubStore) ListProjectActivities(_ context.Context, _, _ string, _ activity.Page) ([]activity.Activity, error) {
	return []activity.Activity{}, nil
}

func (s *stubStore) CreateActivity(_ context.Context, _ *activity.Activity) error {
	return nil
}

func (s *stubStore) FindRecentActivity(_ context.Context, _ activity.Action, _, _, _ string, _ time.Time) (*activity.Activity, error) {
	return nil, errNotFound
}

func (s *stubStore) GetTask(_ context.Context, _ string) (*task.Task, error) {
	return nil, errNotFound
}

func (s *stubStore) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users, nil
}

func (s *stubStore) GetUser(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, errNotFound
}

func (s *stubStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].Email == email {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, errNotFound
}

func (s *stubStore) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, *u)
	return nil
}

func newTestRouter(store *stubStore) chi.Router {
	presence := service.NewPresence()
	router := service.NewBroadcastRouter(presence, nil, nil)
	log := service.NewActivityLog(store, nil, 5*time.Minute, time.Minute)
	engine := service.NewOrderingEngine(store)
	authCfg := &config.Auth{
		Enabled:     true,
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		BcryptCost:  bcrypt.MinCost,
	}

	handlers := &cbhttp.Handlers{
		Auth:        service.NewAuthService(store, authCfg),
		Projects:    service.NewProjectService(store, log, router),
		Board:       service.NewBoardService(store, engine, log, router, nil),
		Comments:    service.NewCommentService(store, log, router),
		Attachments: service.NewAttachmentService(store, log, router),
		Activities:  log,
		Hub:         ws.NewHub(presence, router, store, nil, 16),
		Store:       store,
	}

	r := chi.NewRouter()
	cbhttp.MountRoutes(r, handlers)
	return r
}

// asUser injects an authenticated user the way the auth middleware does.
func asUser(r *http.Request, id string) *http.Request {
	u := &user.User{ID: id, Name: "User " + id, Email: id + "@example.com", Enabled: true}
	return r.WithContext(middleware.WithUser(r.Context(), u))
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(newStubStore())
	req := httptest.NewRequest("GET", "/health", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %q", body["status"])
	}
}

func TestVersionEndpoint(t *testing.T) {
	r := newTestRouter(newStubStore())
	req := httptest.NewRequest("GET", "/api/v1/", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result["version"] != "0.1.0" {
		t.Fatalf("expected version 0.1.0, got %q", result["version"])
	}
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestRouter(newStubStore())

	body, _ := json.Marshal(user.CreateRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "hunter2hunter2",
	})
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var u user.User
	if err := json.NewDecoder(w.Body).Decode(&u); err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || u.Email != "alice@example.com" {
		t.Fatalf("unexpected registered user: %+v", u)
	}

	body, _ = json.Marshal(user.LoginRequest{Email: "alice@example.com", Password: "hunter2hunter2"})
	req = httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res user.LoginResponse
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Token == "" {
		t.Fatal("expected a session token")
	}
	if res.User.ID != u.ID {
		t.Fatalf("expected user %s in login response, got %s", u.ID, res.User.ID)
	}
}

func TestRegisterShortPassword(t *testing.T) {
	r := newTestRouter(newStubStore())

	body, _ := json.Marshal(user.CreateRequest{
		Email:    "bob@example.com",
		Name:     "Bob",
		Password: "short",
	})
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRegisterInvalidBody(t *testing.T) {
	r := newTestRouter(newStubStore())

	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	r := newTestRouter(newStubStore())

	body, _ := json.Marshal(user.LoginRequest{Email: "ghost@example.com", Password: "hunter2hunter2"})
	req := httptest.NewRequest("POST", "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMeRequiresUser(t *testing.T) {
	r := newTestRouter(newStubStore())

	req := httptest.NewRequest("GET", "/api/v1/auth/me", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	req = asUser(httptest.NewRequest("GET", "/api/v1/auth/me", http.NoBody), "u-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var u user.User
	if err := json.NewDecoder(w.Body).Decode(&u); err != nil {
		t.Fatal(err)
	}
	if u.ID != "u-1" {
		t.Fatalf("expected u-1, got %q", u.ID)
	}
}

func TestCreateAndGetProject(t *testing.T) {
	r := newTestRouter(newStubStore())

	body, _ := json.Marshal(project.CreateRequest{Name: "Launch Plan"})
	req := asUser(httptest.NewRequest("POST", "/api/v1/projects", bytes.NewReader(body)), "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var p project.Project
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.Name != "Launch Plan" || p.OwnerID != "alice" {
		t.Fatalf("unexpected project: %+v", p)
	}

	req = asUser(httptest.NewRequest("GET", "/api/v1/projects/"+p.ID, http.NoBody), "alice")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCreateProjectMissingName(t *testing.T) {
	r := newTestRouter(newStubStore())

	req := asUser(httptest.NewRequest("POST", "/api/v1/projects", bytes.NewReader([]byte(`{}`))), "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	r := newTestRouter(newStubStore())

	req := asUser(httptest.NewRequest("GET", "/api/v1/projects/nonexistent", http.NoBody), "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListProjectsScopedToMember(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	body, _ := json.Marshal(project.CreateRequest{Name: "Private Board"})
	req := asUser(httptest.NewRequest("POST", "/api/v1/projects", bytes.NewReader(body)), "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", w.Code)
	}

	for _, tc := range []struct {
		userID string
		want   int
	}{
		{"alice", 1},
		{"bob", 0},
	} {
		req = asUser(httptest.NewRequest("GET", "/api/v1/projects", http.NoBody), tc.userID)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.userID, w.Code)
		}
		var projects []project.Project
		if err := json.NewDecoder(w.Body).Decode(&projects); err != nil {
			t.Fatal(err)
		}
		if len(projects) != tc.want {
			t.Fatalf("%s: expected %d projects, got %d", tc.userID, tc.want, len(projects))
		}
	}
}

func TestDeleteProject(t *testing.T) {
	r := newTestRouter(newStubStore())

	body, _ := json.Marshal(project.CreateRequest{Name: "Doomed"})
	req := asUser(httptest.NewRequest("POST", "/api/v1/projects", bytes.NewReader(body)), "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var p project.Project
	_ = json.NewDecoder(w.Body).Decode(&p)

	req = asUser(httptest.NewRequest("DELETE", "/api/v1/projects/"+p.ID, http.NoBody), "alice")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	req = asUser(httptest.NewRequest("GET", "/api/v1/projects/"+p.ID, http.NoBody), "alice")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestAddMemberMissingUserID(t *testing.T) {
	r := newTestRouter(newStubStore())

	req := asUser(httptest.NewRequest("POST", "/api/v1/projects/proj-1/members", bytes.NewReader([]byte(`{}`))), "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

// Non-members get the same 404 as a missing project so the activity feed
// cannot be probed for project existence.
func TestProjectActivitiesHiddenFromNonMember(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	body, _ := json.Marshal(project.CreateRequest{Name: "Board"})
	req := asUser(httptest.NewRequest("POST", "/api/v1/projects", bytes.NewReader(body)), "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var p project.Project
	_ = json.NewDecoder(w.Body).Decode(&p)

	req = asUser(httptest.NewRequest("GET", "/api/v1/projects/"+p.ID+"/activities", http.NoBody), "bob")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("non-member: expected 404, got %d", w.Code)
	}

	req = asUser(httptest.NewRequest("GET", "/api/v1/projects/"+p.ID+"/activities", http.NoBody), "alice")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("member: expected 200, got %d", w.Code)
	}
}

func TestMoveTaskInvalidBody(t *testing.T) {
	r := newTestRouter(newStubStore())

	req := asUser(httptest.NewRequest("POST", "/api/v1/tasks/task-1/move", bytes.NewReader([]byte("{bad"))), "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateCommentUnknownTask(t *testing.T) {
	r := newTestRouter(newStubStore())

	body, _ := json.Marshal(map[string]string{"body": "hello"})
	req := asUser(httptest.NewRequest("POST", "/api/v1/tasks/ghost/comments", bytes.NewReader(body)), "alice")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListUsersPublicView(t *testing.T) {
	store := newStubStore()
	r := newTestRouter(store)

	body, _ := json.Marshal(user.CreateRequest{
		Email:    "carol@example.com",
		Name:     "Carol",
		Password: "correcthorse",
	})
	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", w.Code)
	}

	req = asUser(httptest.NewRequest("GET", "/api/v1/users", http.NoBody), "carol")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Fatal("user listing must not expose password material")
	}
	var users []user.Public
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].Name != "Carol" {
		t.Fatalf("unexpected user listing: %+v", users)
	}
}
