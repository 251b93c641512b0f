package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evently-app/server/internal/auth"
	"github.com/evently-app/server/internal/config"
	"github.com/evently-app/server/internal/domain/events"
	"github.com/evently-app/server/internal/domain/users"
	"github.com/rs/zerolog"
)

func TestMethodMux(t *testing.T) {
	getHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("GET response"))
	})

	postHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("POST response"))
	})

	handlers := map[string]http.Handler{
		http.MethodGet:  getHandler,
		http.MethodPost: postHandler,
	}

	mux := methodMux(handlers)

	tests := []struct {
		name         string
		method       string
		expectStatus int
		expectBody   string
		expectAllow  string
	}{
		{
			name:         "GET allowed",
			method:       http.MethodGet,
			expectStatus: http.StatusOK,
			expectBody:   "GET response",
		},
		{
			name:         "POST allowed",
			method:       http.MethodPost,
			expectStatus: http.StatusCreated,
			expectBody:   "POST response",
		},
		{
			name:         "PUT not allowed",
			method:       http.MethodPut,
			expectStatus: http.StatusMethodNotAllowed,
			expectAllow:  "GET, POST",
		},
		{
			name:         "DELETE not allowed",
			method:       http.MethodDelete,
			expectStatus: http.StatusMethodNotAllowed,
			expectAllow:  "GET, POST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.expectStatus {
				t.Errorf("expected status %d, got %d", tt.expectStatus, w.Code)
			}

			if tt.expectBody != "" && w.Body.String() != tt.expectBody {
				t.Errorf("expected body %q, got %q", tt.expectBody, w.Body.String())
			}

			if tt.expectAllow != "" && w.Header().Get("Allow") != tt.expectAllow {
				t.Errorf("expected Allow %q, got %q", tt.expectAllow, w.Header().Get("Allow"))
			}
		})
	}
}

// memUserRepo and memEventRepo are minimal in-memory repositories for
// exercising the full router stack.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*users.User
}

func (r *memUserRepo) Create(_ context.Context, user *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, users.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, users.ErrNotFound
}

func (r *memUserRepo) GetProfiles(_ context.Context, ids []string) (map[string]users.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]users.Profile{}
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			out[id] = user.Profile()
		}
	}
	return out, nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events map[string]*events.Event
}

func (r *memEventRepo) Create(_ context.Context, event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *event
	clone.RegisteredUserIDs = append([]string(nil), event.RegisteredUserIDs...)
	r.events[event.ID] = &clone
	return nil
}

func (r *memEventRepo) GetByID(_ context.Context, id string) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	clone := *event
	clone.RegisteredUserIDs = append([]string(nil), event.RegisteredUserIDs...)
	return &clone, nil
}

func (r *memEventRepo) ListByOwner(_ context.Context, ownerID string) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, event := range r.events {
		if event.OwnerID == ownerID {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (r *memEventRepo) ListExcludingOwner(_ context.Context, ownerID string) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, event := range r.events {
		if event.OwnerID != ownerID {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (r *memEventRepo) ListByAttendee(_ context.Context, userID string) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, event := range r.events {
		if event.IsRegistered(userID) {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (r *memEventRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return events.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *memEventRepo) UpdateRegistration(_ context.Context, event *events.Event, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[event.ID]
	if !ok {
		return events.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return events.ErrVersionConflict
	}
	clone := *event
	clone.RegisteredUserIDs = append([]string(nil), event.RegisteredUserIDs...)
	clone.Version = expectedVersion + 1
	r.events[event.ID] = &clone
	event.Version = clone.Version
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Schedule(events.Event, string) {}
func (noopNotifier) Cancel(string)                 {}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Config{
		Environment: "test",
		RateLimit:   config.RateLimitConfig{RegistrationWindow: 24 * time.Hour},
	}

	var n int
	var mu sync.Mutex
	newID := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n), nil
	}

	userRepo := &memUserRepo{users: map[string]*users.User{}}
	eventRepo := &memEventRepo{events: map[string]*events.Event{}}
	logger := zerolog.Nop()

	userService := users.NewService(userRepo, newID, logger)
	eventService := events.NewService(eventRepo, userRepo, noopNotifier{}, newID, logger)

	return NewRouter(cfg, logger, Deps{
		Users:       userService,
		Events:      eventService,
		JWT:         auth.NewJWTManager("test-secret", time.Hour, "evently"),
		Revocations: auth.NewMemoryRevocationStore(),
		Version:     "test",
	})
}

func TestRouterHealthz(t *testing.T) {
	router := testRouter(t)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestRouterProtectedRouteWithoutToken(t *testing.T) {
	router := testRouter(t)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/v1/events/mine", nil))

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestRouterSignupLoginRegisterFlow(t *testing.T) {
	router := testRouter(t)

	do := func(method, target, body, token string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, target, nil)
		} else {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		return res
	}

	login := func(email string) string {
		signup := fmt.Sprintf(`{"email":%q,"phone":"+14155552671","password":"hunter2secret"}`, email)
		if res := do(http.MethodPost, "/api/v1/auth/signup", signup, ""); res.Code != http.StatusCreated {
			t.Fatalf("signup: expected 201, got %d: %s", res.Code, res.Body.String())
		}
		res := do(http.MethodPost, "/api/v1/auth/login", fmt.Sprintf(`{"email":%q,"password":"hunter2secret"}`, email), "")
		if res.Code != http.StatusOK {
			t.Fatalf("login: expected 200, got %d: %s", res.Code, res.Body.String())
		}
		var payload struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode login response: %v", err)
		}
		return payload.Token
	}

	ownerToken := login("owner@example.com")
	attendeeToken := login("attendee@example.com")

	start := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(75 * time.Hour).UTC().Format(time.RFC3339)
	createBody := fmt.Sprintf(`{"name":"meetup","price":100,"capacity":2,"start_time":%q,"end_time":%q}`, start, end)
	res := do(http.MethodPost, "/api/v1/events", createBody, ownerToken)
	if res.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	res = do(http.MethodPost, "/api/v1/events/"+created.ID+"/register", "", attendeeToken)
	if res.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if !strings.Contains(res.Body.String(), `"price":110`) {
		t.Fatalf("expected bumped price in response, got %s", res.Body.String())
	}

	// Second registration inside the window hits the rate limit before
	// the duplicate check.
	res = do(http.MethodPost, "/api/v1/events/"+created.ID+"/register", "", attendeeToken)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", res.Code, res.Body.String())
	}
	if res.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRouterLogoutRevokesToken(t *testing.T) {
	router := testRouter(t)

	do := func(method, target, body, token string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, target, nil)
		} else {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		return res
	}

	signup := `{"email":"alice@example.com","phone":"+14155552671","password":"hunter2secret"}`
	if res := do(http.MethodPost, "/api/v1/auth/signup", signup, ""); res.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", res.Code)
	}
	res := do(http.MethodPost, "/api/v1/auth/login", `{"email":"alice@example.com","password":"hunter2secret"}`, "")
	if res.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", res.Code)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	if res := do(http.MethodGet, "/api/v1/events/mine", "", payload.Token); res.Code != http.StatusOK {
		t.Fatalf("list before logout: expected 200, got %d", res.Code)
	}
	if res := do(http.MethodPost, "/api/v1/auth/logout", "", payload.Token); res.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", res.Code)
	}
	if res := do(http.MethodGet, "/api/v1/events/mine", "", payload.Token); res.Code != http.StatusForbidden {
		t.Fatalf("list after logout: expected 403, got %d", res.Code)
	}
}
