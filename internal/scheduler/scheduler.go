// Package scheduler keeps the in-process timeline of reminder and
// feedback triggers. Triggers are ephemeral: they live only in this
// process and are gone after a restart.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/evently-app/server/internal/domain/events"
	"github.com/evently-app/server/internal/email"
	"github.com/evently-app/server/internal/metrics"
	"github.com/rs/zerolog"
)

type Kind string

const (
	KindReminder Kind = "reminder"
	KindFeedback Kind = "feedback"
)

// leadTime separates a trigger from its event boundary: reminders fire
// 24h before start, feedback requests 24h after end.
const leadTime = 24 * time.Hour

// lookupTimeout bounds the store read performed when a trigger fires.
const lookupTimeout = 10 * time.Second

// EventSource looks up current event state at fire time, so a trigger
// never acts on a stale snapshot.
type EventSource interface {
	GetByID(ctx context.Context, id string) (*events.Event, error)
}

type triggerKey struct {
	eventID   string
	kind      Kind
	recipient string
}

// Scheduler satisfies events.Notifier. All methods are safe for
// concurrent use and none of them block.
type Scheduler struct {
	mu     sync.Mutex
	timers map[triggerKey]*time.Timer

	source EventSource
	sender email.Sender
	logger zerolog.Logger
	now    func() time.Time
}

func New(source EventSource, sender email.Sender, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		timers: make(map[triggerKey]*time.Timer),
		source: source,
		sender: sender,
		logger: logger.With().Str("component", "scheduler").Logger(),
		now:    time.Now,
	}
}

// Schedule places both triggers for a successful registration. Fire
// times already in the past are skipped with a log line only: no
// backfill, no immediate send.
func (s *Scheduler) Schedule(event events.Event, recipient string) {
	s.scheduleTrigger(event.ID, recipient, KindReminder, event.StartTime.Add(-leadTime))
	s.scheduleTrigger(event.ID, recipient, KindFeedback, event.EndTime.Add(leadTime))
}

func (s *Scheduler) scheduleTrigger(eventID, recipient string, kind Kind, fireAt time.Time) {
	delay := fireAt.Sub(s.now())
	if delay <= 0 {
		metrics.TriggersSkipped.WithLabelValues(string(kind), "past_due").Inc()
		s.logger.Warn().
			Str("event_id", eventID).
			Str("kind", string(kind)).
			Time("fire_at", fireAt).
			Msg("trigger fire time already passed, skipping")
		return
	}

	key := triggerKey{eventID: eventID, kind: kind, recipient: recipient}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[key]; ok {
		return
	}
	s.timers[key] = time.AfterFunc(delay, func() { s.fire(key) })

	metrics.TriggersScheduled.WithLabelValues(string(kind)).Inc()
	s.logger.Info().
		Str("event_id", eventID).
		Str("kind", string(kind)).
		Time("fire_at", fireAt).
		Msg("trigger scheduled")
}

// fire runs off the request path. It re-loads the event so a deletion
// after scheduling is honored, sends the email, and logs the outcome.
// Failures are never retried and never propagate anywhere.
func (s *Scheduler) fire(key triggerKey) {
	s.mu.Lock()
	delete(s.timers, key)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	event, err := s.source.GetByID(ctx, key.eventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			metrics.TriggersSkipped.WithLabelValues(string(key.kind), "deleted").Inc()
			s.logger.Info().
				Str("event_id", key.eventID).
				Str("kind", string(key.kind)).
				Msg("event deleted before trigger fired, skipping")
			return
		}
		metrics.EmailsSent.WithLabelValues(string(key.kind), "error").Inc()
		s.logger.Error().
			Err(err).
			Str("event_id", key.eventID).
			Str("kind", string(key.kind)).
			Msg("event lookup failed at fire time")
		return
	}

	subject, body := composeMessage(key.kind, event)
	if err := s.sender.Send(ctx, key.recipient, subject, body); err != nil {
		metrics.EmailsSent.WithLabelValues(string(key.kind), "error").Inc()
		s.logger.Error().
			Err(err).
			Str("event_id", key.eventID).
			Str("kind", string(key.kind)).
			Str("to", key.recipient).
			Msg("trigger email failed")
		return
	}

	metrics.EmailsSent.WithLabelValues(string(key.kind), "ok").Inc()
	s.logger.Info().
		Str("event_id", key.eventID).
		Str("kind", string(key.kind)).
		Str("to", key.recipient).
		Msg("trigger email sent")
}

func composeMessage(kind Kind, event *events.Event) (subject, body string) {
	switch kind {
	case KindReminder:
		subject = fmt.Sprintf("Reminder: %s is starting soon!", event.Name)
		body = fmt.Sprintf("Dear attendee, just a reminder that the event %q will start on %s.",
			event.Name, event.StartTime.Format(time.RFC1123))
	default:
		subject = fmt.Sprintf("We'd love your feedback on %s", event.Name)
		body = fmt.Sprintf("Dear attendee, thank you for attending %q. We would appreciate your feedback to help us improve.",
			event.Name)
	}
	return subject, body
}

// Cancel drops every pending trigger for an event, typically after the
// event is deleted.
func (s *Scheduler) Cancel(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, timer := range s.timers {
		if key.eventID == eventID {
			timer.Stop()
			delete(s.timers, key)
		}
	}
}

// Stop cancels all pending triggers; used during shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

// Pending reports the number of triggers on the timeline.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
