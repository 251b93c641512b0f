package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/evently-app/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, name, price, capacity, start_time, end_time, owner_id, registered_users, version, created_at, updated_at`

func (r *EventRepository) Create(ctx context.Context, event *events.Event) error {
	err := r.pool.QueryRow(ctx, `
INSERT INTO events (id, name, price, capacity, start_time, end_time, owner_id, registered_users, version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at`,
		event.ID, event.Name, event.Price, event.Capacity, event.StartTime, event.EndTime,
		event.OwnerID, event.RegisteredUserIDs, event.Version,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+eventColumns+`
FROM events
WHERE id = $1`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("select event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID string) ([]events.Event, error) {
	return r.list(ctx, `
SELECT `+eventColumns+`
FROM events
WHERE owner_id = $1
ORDER BY start_time, id`, ownerID)
}

func (r *EventRepository) ListExcludingOwner(ctx context.Context, ownerID string) ([]events.Event, error) {
	return r.list(ctx, `
SELECT `+eventColumns+`
FROM events
WHERE owner_id <> $1
ORDER BY start_time, id`, ownerID)
}

func (r *EventRepository) ListByAttendee(ctx context.Context, userID string) ([]events.Event, error) {
	return r.list(ctx, `
SELECT `+eventColumns+`
FROM events
WHERE $1 = ANY(registered_users)
ORDER BY start_time, id`, userID)
}

func (r *EventRepository) list(ctx context.Context, query string, arg any) ([]events.Event, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

// UpdateRegistration persists the attendee list and price guarded by the
// version column: the row is written only if the stored version still
// matches, and the write bumps it. A zero-row update against an existing
// event is a concurrent-modification conflict.
func (r *EventRepository) UpdateRegistration(ctx context.Context, event *events.Event, expectedVersion int64) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE events
SET registered_users = $1, price = $2, version = version + 1, updated_at = now()
WHERE id = $3 AND version = $4`,
		event.RegisteredUserIDs, event.Price, event.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, event.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check event existence: %w", err)
		}
		if !exists {
			return events.ErrNotFound
		}
		return events.ErrVersionConflict
	}

	event.Version = expectedVersion + 1
	return nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var event events.Event
	err := row.Scan(
		&event.ID, &event.Name, &event.Price, &event.Capacity,
		&event.StartTime, &event.EndTime, &event.OwnerID,
		&event.RegisteredUserIDs, &event.Version,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if event.RegisteredUserIDs == nil {
		event.RegisteredUserIDs = []string{}
	}
	return &event, nil
}
