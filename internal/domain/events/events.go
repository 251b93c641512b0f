package events

import (
	"context"
	"slices"
	"time"

	"github.com/evently-app/server/internal/domain/users"
)

type Event struct {
	ID        string
	Name      string
	Price     float64
	Capacity  int
	StartTime time.Time
	EndTime   time.Time
	OwnerID   string
	// RegisteredUserIDs is ordered, duplicate-free, and append-only:
	// mutation happens only through Register.
	RegisteredUserIDs []string
	// Version is the optimistic-concurrency revision; every persisted
	// mutation bumps it.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RemainingCapacity never goes below zero.
func (e *Event) RemainingCapacity() int {
	remaining := e.Capacity - len(e.RegisteredUserIDs)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (e *Event) IsRegistered(userID string) bool {
	return slices.Contains(e.RegisteredUserIDs, userID)
}

// AnnotatedEvent is an event joined with its owner's public profile,
// as returned by the list operations.
type AnnotatedEvent struct {
	Event
	Owner          users.Profile
	RemainingSeats int
}

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Event, error)
	ListExcludingOwner(ctx context.Context, ownerID string) ([]Event, error)
	ListByAttendee(ctx context.Context, userID string) ([]Event, error)
	Delete(ctx context.Context, id string) error
	// UpdateRegistration persists the attendee list and price only if the
	// stored version still equals expectedVersion; otherwise it returns
	// ErrVersionConflict and leaves the row untouched.
	UpdateRegistration(ctx context.Context, event *Event, expectedVersion int64) error
}
