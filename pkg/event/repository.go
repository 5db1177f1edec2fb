package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	StoreEvent(ctx context.Context, e Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	GetOwnedEvents(ctx context.Context, ownerId string) ([]Event, error)
	GetParticipantEvents(ctx context.Context, userId string) ([]Event, error)
	UpdateEvent(ctx context.Context, ownerId string, e Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	GetOwner(ctx context.Context, id string) (string, error)
	AddParticipants(ctx context.Context, eventId string, userIds []string) error
	SetParticipationStatus(ctx context.Context, eventId, userId string, status ParticipationStatus) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const eventColumns = "id, title, description, start_time, end_time, is_all_day, created_by, reminder_minutes"

// scanEvent is the single normalization boundary between raw store rows and
// the Event model. A null end_time normalizes to EndTime == StartTime.
func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var e Event
	var startTime string
	var endTime sql.NullString
	var reminder sql.NullInt64

	err := row.Scan(&e.ID, &e.Title, &e.Description, &startTime, &endTime, &e.IsAllDay, &e.OwnerID, &reminder)
	if err != nil {
		return Event{}, err
	}

	e.StartTime, err = time.Parse(time.RFC3339, startTime)
	if err != nil {
		return Event{}, fmt.Errorf("could not parse start_time: %w", err)
	}
	if endTime.Valid {
		e.EndTime, err = time.Parse(time.RFC3339, endTime.String)
		if err != nil {
			return Event{}, fmt.Errorf("could not parse end_time: %w", err)
		}
	} else {
		e.EndTime = e.StartTime
	}
	if reminder.Valid {
		minutes := int(reminder.Int64)
		e.ReminderMinutes = &minutes
	}
	return e, nil
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, e Event) (Event, error) {
	e.ID = uuid.NewString()

	query := `INSERT INTO events (id, title, description, start_time, end_time, is_all_day, created_by, reminder_minutes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.Title,
		e.Description,
		e.StartTime.Format(time.RFC3339),
		e.EndTime.Format(time.RFC3339),
		e.IsAllDay,
		e.OwnerID,
		reminderArg(e.ReminderMinutes),
	)
	if err != nil {
		log.Errorf("could not store event: %v", err)
		return Event{}, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	return e, nil
}

func (r *RepositoryImpl) GetEvent(ctx context.Context, id string) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	} else if err != nil {
		log.Errorf("could not get event: %v", err)
		return Event{}, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	return e, nil
}

func (r *RepositoryImpl) GetOwnedEvents(ctx context.Context, ownerId string) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE created_by = $1 ORDER BY start_time`
	return r.queryEvents(ctx, query, ownerId)
}

// GetParticipantEvents returns events the user was invited to and accepted.
func (r *RepositoryImpl) GetParticipantEvents(ctx context.Context, userId string) ([]Event, error) {
	query := `SELECT e.id, e.title, e.description, e.start_time, e.end_time, e.is_all_day, e.created_by, e.reminder_minutes
				FROM events e
				JOIN event_participants p ON p.event_id = e.id
				WHERE p.user_id = $1 AND p.status = $2
				ORDER BY e.start_time`
	return r.queryEvents(ctx, query, userId, string(ParticipationAccepted))
}

func (r *RepositoryImpl) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Errorf("could not query events: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	defer rows.Close()

	events := make([]Event, 0, 10)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			log.Errorf("could not scan event row: %v", err)
			return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	return events, nil
}

// UpdateEvent writes the full row, scoped to the owner. Zero rows affected
// means the id does not match an event owned by ownerId.
func (r *RepositoryImpl) UpdateEvent(ctx context.Context, ownerId string, e Event) (Event, error) {
	query := `UPDATE events SET title = $1, description = $2, start_time = $3, end_time = $4, is_all_day = $5,
				reminder_minutes = $6 WHERE id = $7 AND created_by = $8`
	result, err := r.db.ExecContext(ctx, query,
		e.Title,
		e.Description,
		e.StartTime.Format(time.RFC3339),
		e.EndTime.Format(time.RFC3339),
		e.IsAllDay,
		reminderArg(e.ReminderMinutes),
		e.ID,
		ownerId,
	)
	if err != nil {
		log.Errorf("could not update event: %v", err)
		return Event{}, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	if rowsAffected == 0 {
		return Event{}, ErrNotFound
	}
	return r.GetEvent(ctx, e.ID)
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Errorf("could not delete event: %v", err)
		return fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOwner re-fetches the owner server-side so permission checks never trust
// client state.
func (r *RepositoryImpl) GetOwner(ctx context.Context, id string) (string, error) {
	query := `SELECT created_by FROM events WHERE id = $1`
	var owner string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	} else if err != nil {
		log.Errorf("could not get event owner: %v", err)
		return "", fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	return owner, nil
}

func (r *RepositoryImpl) AddParticipants(ctx context.Context, eventId string, userIds []string) error {
	if len(userIds) == 0 {
		return nil
	}
	query := `INSERT INTO event_participants (event_id, user_id, status) VALUES ($1, $2, $3)`
	for _, userId := range userIds {
		if _, err := r.db.ExecContext(ctx, query, eventId, userId, string(ParticipationPending)); err != nil {
			log.Errorf("could not add participant %s to event %s: %v", userId, eventId, err)
			return fmt.Errorf("%w: %v", ErrRemoteFetch, err)
		}
	}
	return nil
}

func (r *RepositoryImpl) SetParticipationStatus(ctx context.Context, eventId, userId string, status ParticipationStatus) error {
	query := `UPDATE event_participants SET status = $1 WHERE event_id = $2 AND user_id = $3`
	result, err := r.db.ExecContext(ctx, query, string(status), eventId, userId)
	if err != nil {
		log.Errorf("could not set participation status: %v", err)
		return fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func reminderArg(minutes *int) any {
	if minutes == nil {
		return nil
	}
	return *minutes
}
