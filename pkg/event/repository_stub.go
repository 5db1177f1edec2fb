package event

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

type RepoStub struct {
	events       map[string]Event
	participants map[string]map[string]ParticipationStatus
	StoreErr     error
}

func NewRepoStub() *RepoStub {
	return &RepoStub{
		events:       map[string]Event{},
		participants: map[string]map[string]ParticipationStatus{},
	}
}

func (r *RepoStub) StoreEvent(_ context.Context, e Event) (Event, error) {
	if r.StoreErr != nil {
		return Event{}, r.StoreErr
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.events[e.ID] = e
	return e, nil
}

func (r *RepoStub) GetEvent(_ context.Context, id string) (Event, error) {
	e, ok := r.events[id]
	if !ok {
		return Event{}, fmt.Errorf("%w: event %s", ErrNotFound, id)
	}
	return e, nil
}

func (r *RepoStub) GetOwnedEvents(_ context.Context, ownerId string) ([]Event, error) {
	var out []Event
	for _, e := range r.events {
		if e.OwnerID == ownerId {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *RepoStub) GetParticipantEvents(_ context.Context, userId string) ([]Event, error) {
	var out []Event
	for eventId, byUser := range r.participants {
		if byUser[userId] != ParticipationAccepted {
			continue
		}
		if e, ok := r.events[eventId]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *RepoStub) UpdateEvent(_ context.Context, ownerId string, e Event) (Event, error) {
	existing, ok := r.events[e.ID]
	if !ok || existing.OwnerID != ownerId {
		return Event{}, fmt.Errorf("%w: event %s", ErrNotFound, e.ID)
	}
	e.OwnerID = existing.OwnerID
	r.events[e.ID] = e
	return e, nil
}

func (r *RepoStub) DeleteEvent(_ context.Context, id string) error {
	if _, ok := r.events[id]; !ok {
		return fmt.Errorf("%w: event %s", ErrNotFound, id)
	}
	delete(r.events, id)
	delete(r.participants, id)
	return nil
}

func (r *RepoStub) GetOwner(_ context.Context, id string) (string, error) {
	e, ok := r.events[id]
	if !ok {
		return "", fmt.Errorf("%w: event %s", ErrNotFound, id)
	}
	return e.OwnerID, nil
}

func (r *RepoStub) AddParticipants(_ context.Context, eventId string, userIds []string) error {
	byUser, ok := r.participants[eventId]
	if !ok {
		byUser = map[string]ParticipationStatus{}
		r.participants[eventId] = byUser
	}
	for _, userId := range userIds {
		byUser[userId] = ParticipationPending
	}
	return nil
}

func (r *RepoStub) SetParticipationStatus(_ context.Context, eventId, userId string, status ParticipationStatus) error {
	byUser, ok := r.participants[eventId]
	if !ok {
		return fmt.Errorf("%w: no invitation for event %s", ErrNotFound, eventId)
	}
	if _, ok := byUser[userId]; !ok {
		return fmt.Errorf("%w: no invitation for user %s", ErrNotFound, userId)
	}
	byUser[userId] = status
	return nil
}

// Participants lists invited user ids in stable order, for assertions.
func (r *RepoStub) Participants(eventId string) []string {
	var ids []string
	for userId := range r.participants[eventId] {
		ids = append(ids, userId)
	}
	slices.Sort(ids)
	return ids
}
