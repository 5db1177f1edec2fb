package event

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dayplan-app/dayplan/internal/event_bus"
	"github.com/dayplan-app/dayplan/pkg/invitation"
	"github.com/dayplan-app/dayplan/pkg/user"
)

type Service interface {
	List(ctx context.Context) ([]Event, error)
	Get(ctx context.Context, id string) (Event, error)
	Create(ctx context.Context, e Event, inviteeEmails []string) (Event, []string, error)
	Update(ctx context.Context, id string, change Change) (Event, error)
	Delete(ctx context.Context, id string) error
	RespondToInvitation(ctx context.Context, eventId string, status ParticipationStatus) error
}

type ServiceImpl struct {
	repo        Repository
	sender      invitation.Sender
	userService user.Service
	bus         *event_bus.EventBus
}

func NewService(repo Repository, sender invitation.Sender, userService user.Service, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, sender: sender, userService: userService, bus: bus}
}

// List returns the principal's snapshot: owned events plus events accepted as
// a participant, de-duplicated by id and sorted ascending by start time.
// An empty calendar is an empty slice, not an error.
func (s *ServiceImpl) List(ctx context.Context) ([]Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	owned, err := s.repo.GetOwnedEvents(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned events: %w", err)
	}
	participating, err := s.repo.GetParticipantEvents(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list participant events: %w", err)
	}

	seen := make(map[string]struct{}, len(owned))
	merged := make([]Event, 0, len(owned)+len(participating))
	for _, e := range owned {
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range participating {
		if _, dup := seen[e.ID]; !dup {
			merged = append(merged, e)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].StartTime.Equal(merged[j].StartTime) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].StartTime.Before(merged[j].StartTime)
	})
	return merged, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Event, error) {
	return s.repo.GetEvent(ctx, id)
}

// Create validates and persists a new event. Invitations are delivered best
// effort afterwards: a failed delivery is returned as a warning, never as an
// error, and does not roll the event back.
func (s *ServiceImpl) Create(ctx context.Context, e Event, inviteeEmails []string) (Event, []string, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Event{}, nil, fmt.Errorf("failed to get current user: %w", err)
	}
	e.OwnerID = currentUser.Id

	if e.EndTime.IsZero() {
		e.EndTime = e.StartTime
	}
	if err := validate(e); err != nil {
		return Event{}, nil, err
	}

	stored, err := s.repo.StoreEvent(ctx, e)
	if err != nil {
		return Event{}, nil, fmt.Errorf("failed to store event: %w", err)
	}

	var warnings []string
	inviteeIds := s.registerParticipants(ctx, stored, inviteeEmails, &warnings)
	s.deliverInvitations(ctx, stored, inviteeEmails, &warnings)

	s.publish(ctx, event_bus.EventCreatedType, event_bus.EventCreated{
		EventId:         stored.ID,
		Title:           stored.Title,
		StartTime:       stored.StartTime,
		EndTime:         stored.EndTime,
		IsAllDay:        stored.IsAllDay,
		OwnerId:         stored.OwnerID,
		OwnerName:       currentUser.DisplayName,
		ReminderMinutes: stored.ReminderMinutes,
		InviteeIds:      inviteeIds,
	})

	return stored, warnings, nil
}

func (s *ServiceImpl) registerParticipants(ctx context.Context, e Event, inviteeEmails []string, warnings *[]string) []string {
	if len(inviteeEmails) == 0 {
		return nil
	}

	resolved, err := s.userService.ResolveInvitees(ctx, inviteeEmails)
	if err != nil {
		log.Warnf("could not resolve invitees for event %s: %v", e.ID, err)
		*warnings = append(*warnings, "invitees could not be resolved to registered users")
		return nil
	}

	inviteeIds := make([]string, 0, len(resolved))
	for _, id := range resolved {
		if id != e.OwnerID {
			inviteeIds = append(inviteeIds, id)
		}
	}
	sort.Strings(inviteeIds)

	if err := s.repo.AddParticipants(ctx, e.ID, inviteeIds); err != nil {
		log.Warnf("could not register participants for event %s: %v", e.ID, err)
		*warnings = append(*warnings, "participants could not be registered")
		return nil
	}
	return inviteeIds
}

func (s *ServiceImpl) deliverInvitations(ctx context.Context, e Event, inviteeEmails []string, warnings *[]string) {
	if len(inviteeEmails) == 0 {
		return
	}

	invitees := make([]invitation.Invitee, 0, len(inviteeEmails))
	for _, email := range inviteeEmails {
		invitees = append(invitees, invitation.Invitee{Email: email})
	}
	details := invitation.EventDetails{
		Title:       e.Title,
		StartTime:   e.StartTime.Format(time.RFC3339),
		EndTime:     e.EndTime.Format(time.RFC3339),
		Description: e.Description,
	}

	if err := s.sender.Send(ctx, details, invitees); err != nil {
		log.Warnf("invitation delivery failed for event %s: %v", e.ID, err)
		*warnings = append(*warnings, "event was created but invitations could not be sent")
	}
}

// Update applies a partial change to an owned event. An id that does not
// match one of the principal's events answers ErrNotFound.
func (s *ServiceImpl) Update(ctx context.Context, id string, change Change) (Event, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("failed to get current user: %w", err)
	}

	existing, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if existing.OwnerID != userId {
		return Event{}, ErrNotFound
	}

	if change.Title != nil {
		existing.Title = *change.Title
	}
	if change.Description != nil {
		existing.Description = *change.Description
	}
	if change.StartTime != nil {
		existing.StartTime = *change.StartTime
	}
	if change.EndTime != nil {
		existing.EndTime = *change.EndTime
	}
	if change.IsAllDay != nil {
		existing.IsAllDay = *change.IsAllDay
	}
	// The reminder is snapshot-style: an update that omits it clears it.
	existing.ReminderMinutes = change.ReminderMinutes

	if err := validate(existing); err != nil {
		return Event{}, err
	}

	updated, err := s.repo.UpdateEvent(ctx, userId, existing)
	if err != nil {
		return Event{}, err
	}

	s.publish(ctx, event_bus.EventUpdatedType, event_bus.EventUpdated{
		EventId:         updated.ID,
		Title:           updated.Title,
		StartTime:       updated.StartTime,
		OwnerId:         updated.OwnerID,
		ReminderMinutes: updated.ReminderMinutes,
	})
	return updated, nil
}

// Delete hard-deletes an event after re-checking ownership server-side.
func (s *ServiceImpl) Delete(ctx context.Context, id string) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	owner, err := s.repo.GetOwner(ctx, id)
	if err != nil {
		return err
	}
	if owner != userId {
		return ErrPermissionDenied
	}

	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, event_bus.EventDeletedType, event_bus.EventDeleted{EventId: id, OwnerId: userId})
	return nil
}

func (s *ServiceImpl) RespondToInvitation(ctx context.Context, eventId string, status ParticipationStatus) error {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	if status != ParticipationAccepted && status != ParticipationDeclined {
		return fmt.Errorf("%w: participation status must be accepted or declined", ErrValidation)
	}
	return s.repo.SetParticipationStatus(ctx, eventId, userId, status)
}

func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("could not publish %s: %v", eventType, err)
	}
}
