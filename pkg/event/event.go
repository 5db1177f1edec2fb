package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is a calendar event. ID is assigned by the store on creation; OwnerID
// is the principal who created it and is immutable afterwards.
//
// For all-day events StartTime/EndTime carry the local-midnight and
// local-23:59:59 boundaries of the selected dates.
type Event struct {
	ID              string
	Title           string
	Description     string
	StartTime       time.Time
	EndTime         time.Time
	IsAllDay        bool
	OwnerID         string
	ReminderMinutes *int
}

// Change is a partial update. Nil fields are left unchanged, except
// ReminderMinutes: the reminder is a snapshot field, so nil clears it and
// clients resend the value when they want it kept.
type Change struct {
	Title           *string
	Description     *string
	StartTime       *time.Time
	EndTime         *time.Time
	IsAllDay        *bool
	ReminderMinutes *int
}

// ParticipationStatus tracks an invited user's answer.
type ParticipationStatus string

const (
	ParticipationPending  ParticipationStatus = "pending"
	ParticipationAccepted ParticipationStatus = "accepted"
	ParticipationDeclined ParticipationStatus = "declined"
)

type Participant struct {
	EventID string
	UserID  string
	Status  ParticipationStatus
}

var (
	// ErrNotFound signals that the referenced event no longer exists or is
	// not owned by the requester. Callers should refresh their snapshot.
	ErrNotFound = errors.New("event not found")

	// ErrPermissionDenied signals a mutation by a non-owner. Never retried.
	ErrPermissionDenied = errors.New("only creators can delete or modify this event")

	// ErrValidation signals locally rejected input that never reached the store.
	ErrValidation = errors.New("invalid event")

	// ErrRemoteFetch signals a transient store failure; the caller may retry.
	ErrRemoteFetch = errors.New("event store unavailable")
)

// validate enforces the client-side submission invariants: non-empty title and
// end not before start.
func validate(e Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrValidation)
	}
	if e.EndTime.Before(e.StartTime) {
		return fmt.Errorf("%w: end time must not be before start time", ErrValidation)
	}
	return nil
}
