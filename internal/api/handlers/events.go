package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/evently-app/server/internal/api/middleware"
	"github.com/evently-app/server/internal/api/problem"
	"github.com/evently-app/server/internal/domain/events"
	"github.com/evently-app/server/internal/domain/users"
)

type EventsHandler struct {
	Events *events.Service
	Env    string
}

func NewEventsHandler(eventService *events.Service, env string) *EventsHandler {
	return &EventsHandler{Events: eventService, Env: env}
}

type eventRequest struct {
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Capacity  int       `json:"capacity"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type eventResponse struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Price             float64       `json:"price"`
	Capacity          int           `json:"capacity"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time"`
	RemainingCapacity int           `json:"remaining_capacity"`
	RegisteredUserIDs []string      `json:"registered_users"`
	Owner             users.Profile `json:"owner"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func toEventResponse(event events.AnnotatedEvent) eventResponse {
	registered := event.RegisteredUserIDs
	if registered == nil {
		registered = []string{}
	}
	return eventResponse{
		ID:                event.ID,
		Name:              event.Name,
		Price:             event.Price,
		Capacity:          event.Capacity,
		StartTime:         event.StartTime,
		EndTime:           event.EndTime,
		RemainingCapacity: event.RemainingSeats,
		RegisteredUserIDs: registered,
		Owner:             event.Owner,
		CreatedAt:         event.CreatedAt,
		UpdatedAt:         event.UpdatedAt,
	}
}

func toEventResponses(items []events.AnnotatedEvent) []eventResponse {
	out := make([]eventResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toEventResponse(item))
	}
	return out
}

// Create stores a new event owned by the requester.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	var input eventRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, h.Env)
		return
	}

	event, err := h.Events.Create(r.Context(), user, events.CreateParams{
		Name:      input.Name,
		Price:     input.Price,
		Capacity:  input.Capacity,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(*event))
}

// ListMine returns the requester's own events.
func (h *EventsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	items, err := h.Events.ListOwned(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(items))
}

// ListOthers returns every event not owned by the requester.
func (h *EventsHandler) ListOthers(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	items, err := h.Events.ListOthers(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(items))
}

// Delete removes an event. Only the owner may delete.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	eventID := r.PathValue("id")
	if err := h.Events.Delete(r.Context(), user, eventID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}

// Register adds the requester to the event's attendee list and returns
// the full set of events they are registered for.
func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, h.Env)
		return
	}

	eventID := r.PathValue("id")
	items, err := h.Events.Register(r.Context(), user, eventID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(items))
}

func (h *EventsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs events.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithErrors(verrs.Fields()))
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
	case errors.Is(err, events.ErrForbidden):
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Only the owner may delete an event", err, h.Env)
	case errors.Is(err, events.ErrAlreadyRegistered):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeConflict, "Already registered for this event", err, h.Env)
	case errors.Is(err, events.ErrCapacityExceeded):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeConflict, "Event is at capacity", err, h.Env)
	case errors.Is(err, events.ErrVersionConflict):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Event was modified concurrently, try again", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, h.Env)
	}
}
