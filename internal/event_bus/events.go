package event_bus

import "time"

const (
	EventCreatedType EventType = "event.created"
	EventUpdatedType EventType = "event.updated"
	EventDeletedType EventType = "event.deleted"
)

// EventCreated is published after a calendar event is persisted. InviteeIds
// holds the resolved user ids of invited participants so the notification
// layer can fan out invitation notifications.
type EventCreated struct {
	EventId         string
	Title           string
	StartTime       time.Time
	EndTime         time.Time
	IsAllDay        bool
	OwnerId         string
	OwnerName       string
	ReminderMinutes *int
	InviteeIds      []string
}

// EventUpdated is published after an event mutation is persisted.
type EventUpdated struct {
	EventId         string
	Title           string
	StartTime       time.Time
	OwnerId         string
	ReminderMinutes *int
}

// EventDeleted is published after a hard delete.
type EventDeleted struct {
	EventId string
	OwnerId string
}
