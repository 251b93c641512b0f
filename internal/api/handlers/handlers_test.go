package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/evently-app/server/internal/domain/events"
	"github.com/evently-app/server/internal/domain/users"
)

// fakeUserRepo is an in-memory users.Repository.
type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*users.User
	byEmail map[string]*users.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    map[string]*users.User{},
		byEmail: map[string]*users.User{},
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return users.ErrEmailTaken
	}
	clone := *user
	r.byID[user.ID] = &clone
	r.byEmail[user.Email] = &clone
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetProfiles(_ context.Context, ids []string) (map[string]users.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]users.Profile, len(ids))
	for _, id := range ids {
		if user, ok := r.byID[id]; ok {
			out[id] = user.Profile()
		}
	}
	return out, nil
}

// fakeEventRepo is an in-memory events.Repository with compare-and-swap
// semantics matching the postgres implementation.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*events.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]*events.Event{}}
}

func cloneEvent(event *events.Event) *events.Event {
	clone := *event
	clone.RegisteredUserIDs = append([]string(nil), event.RegisteredUserIDs...)
	return &clone
}

func (r *fakeEventRepo) Create(_ context.Context, event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.ID] = cloneEvent(event)
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return cloneEvent(event), nil
}

func (r *fakeEventRepo) ListByOwner(_ context.Context, ownerID string) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, event := range r.events {
		if event.OwnerID == ownerID {
			out = append(out, *cloneEvent(event))
		}
	}
	return out, nil
}

func (r *fakeEventRepo) ListExcludingOwner(_ context.Context, ownerID string) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, event := range r.events {
		if event.OwnerID != ownerID {
			out = append(out, *cloneEvent(event))
		}
	}
	return out, nil
}

func (r *fakeEventRepo) ListByAttendee(_ context.Context, userID string) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, event := range r.events {
		if event.IsRegistered(userID) {
			out = append(out, *cloneEvent(event))
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return events.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) UpdateRegistration(_ context.Context, event *events.Event, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[event.ID]
	if !ok {
		return events.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return events.ErrVersionConflict
	}
	updated := cloneEvent(event)
	updated.Version = expectedVersion + 1
	r.events[event.ID] = updated
	event.Version = updated.Version
	return nil
}

// noopNotifier discards scheduling calls.
type noopNotifier struct{}

func (noopNotifier) Schedule(events.Event, string) {}
func (noopNotifier) Cancel(string)                 {}

func sequentialIDs(prefix string) func() (string, error) {
	var n int
	var mu sync.Mutex
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}
