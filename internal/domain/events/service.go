// Package events implements the event registry: create, list, delete,
// and the registration workflow with capacity limits and dynamic pricing.
package events

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/evently-app/server/internal/domain/users"
	"github.com/evently-app/server/internal/metrics"
	"github.com/rs/zerolog"
)

// registerMaxAttempts bounds the compare-and-swap retry loop under
// concurrent registrations.
const registerMaxAttempts = 5

// Notifier receives successful registrations for reminder and feedback
// scheduling. Implementations must not block.
type Notifier interface {
	Schedule(event Event, recipient string)
	Cancel(eventID string)
}

type IDGenerator func() (string, error)

// Service is the event registry.
type Service struct {
	repo     Repository
	users    users.Repository
	notifier Notifier
	newID    IDGenerator
	logger   zerolog.Logger
}

func NewService(repo Repository, userRepo users.Repository, notifier Notifier, newID IDGenerator, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		users:    userRepo,
		notifier: notifier,
		newID:    newID,
		logger:   logger.With().Str("component", "events").Logger(),
	}
}

type CreateParams struct {
	Name      string
	Price     float64
	Capacity  int
	StartTime time.Time
	EndTime   time.Time
}

// Create validates the parameters and stores a new event with an empty
// attendee list, owned by the requester.
func (s *Service) Create(ctx context.Context, owner *users.User, params CreateParams) (*AnnotatedEvent, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("mint event id: %w", err)
	}

	event := &Event{
		ID:                id,
		Name:              params.Name,
		Price:             params.Price,
		Capacity:          params.Capacity,
		StartTime:         params.StartTime,
		EndTime:           params.EndTime,
		OwnerID:           owner.ID,
		RegisteredUserIDs: []string{},
		Version:           1,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	metrics.EventsCreated.Inc()
	s.logger.Info().
		Str("event_id", event.ID).
		Str("owner_id", owner.ID).
		Int("capacity", event.Capacity).
		Msg("event created")

	return &AnnotatedEvent{
		Event:          *event,
		Owner:          owner.Profile(),
		RemainingSeats: event.RemainingCapacity(),
	}, nil
}

// ListOwned returns the requester's own events, owner-annotated.
func (s *Service) ListOwned(ctx context.Context, requester *users.User) ([]AnnotatedEvent, error) {
	items, err := s.repo.ListByOwner(ctx, requester.ID)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, items)
}

// ListOthers returns every event not owned by the requester.
func (s *Service) ListOthers(ctx context.Context, requester *users.User) ([]AnnotatedEvent, error) {
	items, err := s.repo.ListExcludingOwner(ctx, requester.ID)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, items)
}

// ListRegistered returns every event the user appears in as an attendee.
func (s *Service) ListRegistered(ctx context.Context, userID string) ([]AnnotatedEvent, error) {
	items, err := s.repo.ListByAttendee(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, items)
}

// Delete removes an event permanently. Only the owner may delete; pending
// notification triggers for the event are cancelled.
func (s *Service) Delete(ctx context.Context, requester *users.User, eventID string) error {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OwnerID != requester.ID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.Cancel(eventID)
	}

	s.logger.Info().
		Str("event_id", eventID).
		Str("owner_id", requester.ID).
		Msg("event deleted")
	return nil
}

// Register appends the requester to the event's attendee list, bumps the
// price by 10% (rounded up to the next whole unit), and persists the
// mutation atomically via compare-and-swap. Capacity and duplicate checks
// run against each fresh snapshot, so two concurrent registrations for
// the last seat yield exactly one success and one ErrCapacityExceeded.
//
// On success the notification scheduler is handed the event and the
// requester's email; scheduling never delays or fails the response.
// Returns the requester's full set of registered events, annotated.
func (s *Service) Register(ctx context.Context, requester *users.User, eventID string) ([]AnnotatedEvent, error) {
	for attempt := 0; attempt < registerMaxAttempts; attempt++ {
		event, err := s.repo.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				metrics.Registrations.WithLabelValues("not_found").Inc()
			}
			return nil, err
		}

		if event.IsRegistered(requester.ID) {
			metrics.Registrations.WithLabelValues("conflict").Inc()
			return nil, ErrAlreadyRegistered
		}
		if len(event.RegisteredUserIDs) >= event.Capacity {
			metrics.Registrations.WithLabelValues("capacity_exceeded").Inc()
			return nil, ErrCapacityExceeded
		}

		expected := event.Version
		event.RegisteredUserIDs = append(event.RegisteredUserIDs, requester.ID)
		event.Price = math.Ceil(event.Price * 1.1)

		err = s.repo.UpdateRegistration(ctx, event, expected)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			metrics.Registrations.WithLabelValues("error").Inc()
			return nil, err
		}

		metrics.Registrations.WithLabelValues("success").Inc()
		s.logger.Info().
			Str("event_id", event.ID).
			Str("user_id", requester.ID).
			Float64("price", event.Price).
			Int("remaining", event.RemainingCapacity()).
			Msg("registration accepted")

		if s.notifier != nil {
			s.notifier.Schedule(*event, requester.Email)
		}

		return s.ListRegistered(ctx, requester.ID)
	}

	metrics.Registrations.WithLabelValues("contention").Inc()
	return nil, fmt.Errorf("register event %s: %w after %d attempts", eventID, ErrVersionConflict, registerMaxAttempts)
}

// annotate joins owner public profiles onto events with one batched
// profile lookup (explicit read-side join).
func (s *Service) annotate(ctx context.Context, items []Event) ([]AnnotatedEvent, error) {
	ownerIDs := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, event := range items {
		if !seen[event.OwnerID] {
			seen[event.OwnerID] = true
			ownerIDs = append(ownerIDs, event.OwnerID)
		}
	}

	profiles := map[string]users.Profile{}
	if len(ownerIDs) > 0 {
		var err error
		profiles, err = s.users.GetProfiles(ctx, ownerIDs)
		if err != nil {
			return nil, fmt.Errorf("join owner profiles: %w", err)
		}
	}

	annotated := make([]AnnotatedEvent, 0, len(items))
	for _, event := range items {
		annotated = append(annotated, AnnotatedEvent{
			Event:          event,
			Owner:          profiles[event.OwnerID],
			RemainingSeats: event.RemainingCapacity(),
		})
	}
	return annotated, nil
}
