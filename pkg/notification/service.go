package notification

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dayplan-app/dayplan/internal/event_bus"
	"github.com/dayplan-app/dayplan/pkg/user"
)

const defaultListLimit = 50

type Service interface {
	List(ctx context.Context, onlyUnread bool, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

type ServiceImpl struct {
	repo Repo
}

func NewService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) List(ctx context.Context, onlyUnread bool, limit, offset int) ([]Notification, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListForUser(ctx, userId, onlyUnread, limit, offset)
}

func (s *ServiceImpl) MarkRead(ctx context.Context, id string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.MarkRead(ctx, userId, id)
}

func (s *ServiceImpl) MarkAllRead(ctx context.Context) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.MarkAllRead(ctx, userId)
}

// SubscribeToEvents wires the notification fan-out to the domain event bus:
// invitations go out when an event is created, reminder rows follow the
// event's reminder setting, and everything tied to a deleted event goes away.
func (s *ServiceImpl) SubscribeToEvents(bus *event_bus.EventBus) {
	bus.Subscribe(event_bus.EventCreatedType, func(e event_bus.Event) error {
		payload, ok := e.Data.(event_bus.EventCreated)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e.Data, e.Type)
		}
		return s.onEventCreated(e.Context(), payload)
	})
	bus.Subscribe(event_bus.EventUpdatedType, func(e event_bus.Event) error {
		payload, ok := e.Data.(event_bus.EventUpdated)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e.Data, e.Type)
		}
		return s.onEventUpdated(e.Context(), payload)
	})
	bus.Subscribe(event_bus.EventDeletedType, func(e event_bus.Event) error {
		payload, ok := e.Data.(event_bus.EventDeleted)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e.Data, e.Type)
		}
		return s.repo.DeleteForEvent(e.Context(), payload.EventId)
	})
}

func (s *ServiceImpl) onEventCreated(ctx context.Context, payload event_bus.EventCreated) error {
	for _, inviteeId := range payload.InviteeIds {
		_, err := s.repo.Create(ctx, Notification{
			UserId:            inviteeId,
			Title:             "New invitation",
			Message:           fmt.Sprintf("%s invited you to %q", payload.OwnerName, payload.Title),
			Type:              TypeInvitation,
			RelatedEntityType: relatedEntityEvent,
			RelatedEntityId:   payload.EventId,
		})
		if err != nil {
			log.Errorf("could not create invitation notification for user %s: %v", inviteeId, err)
			return err
		}
	}

	if payload.ReminderMinutes != nil {
		return s.scheduleReminder(ctx, payload.EventId, payload.Title, payload.StartTime, *payload.ReminderMinutes, payload.OwnerId)
	}
	return nil
}

// onEventUpdated rebuilds the reminder row so it tracks the event's current
// start time and reminder offset.
func (s *ServiceImpl) onEventUpdated(ctx context.Context, payload event_bus.EventUpdated) error {
	if err := s.repo.DeleteForEvent(ctx, payload.EventId, TypeReminder); err != nil {
		return err
	}
	if payload.ReminderMinutes == nil {
		return nil
	}
	return s.scheduleReminder(ctx, payload.EventId, payload.Title, payload.StartTime, *payload.ReminderMinutes, payload.OwnerId)
}

func (s *ServiceImpl) scheduleReminder(ctx context.Context, eventId, title string, startTime time.Time, minutes int, ownerId string) error {
	scheduledAt := startTime.Add(-time.Duration(minutes) * time.Minute).UTC()
	_, err := s.repo.Create(ctx, Notification{
		UserId:            ownerId,
		Title:             "Upcoming event",
		Message:           fmt.Sprintf("%q starts in %d minutes", title, minutes),
		Type:              TypeReminder,
		RelatedEntityType: relatedEntityEvent,
		RelatedEntityId:   eventId,
		ScheduledAt:       &scheduledAt,
	})
	if err != nil {
		log.Errorf("could not schedule reminder for event %s: %v", eventId, err)
	}
	return err
}
