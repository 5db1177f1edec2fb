package notification

import (
	"errors"
	"time"
)

type Type string

const (
	TypeGeneral    Type = "general"
	TypeInvitation Type = "invitation"
	TypeReminder   Type = "event_reminder"
)

const relatedEntityEvent = "event"

// Notification is an in-app message for one user. Reminder notifications are
// created ahead of time with ScheduledAt set and stay invisible until the
// scheduler marks them sent.
type Notification struct {
	Id                string
	UserId            string
	Title             string
	Message           string
	Type              Type
	RelatedEntityType string
	RelatedEntityId   string
	IsRead            bool
	ScheduledAt       *time.Time
	SentAt            *time.Time
	CreatedAt         time.Time
}

var ErrNotificationNotFound = errors.New("notification not found")
