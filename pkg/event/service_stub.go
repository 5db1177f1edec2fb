package event

import "context"

// ServiceStub serves a fixed event list, for handler tests in other packages.
type ServiceStub struct {
	Events  []Event
	ListErr error
}

func (s *ServiceStub) List(_ context.Context) ([]Event, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.Events, nil
}

func (s *ServiceStub) Get(_ context.Context, id string) (Event, error) {
	for _, e := range s.Events {
		if e.ID == id {
			return e, nil
		}
	}
	return Event{}, ErrNotFound
}

func (s *ServiceStub) Create(_ context.Context, e Event, _ []string) (Event, []string, error) {
	s.Events = append(s.Events, e)
	return e, nil, nil
}

func (s *ServiceStub) Update(_ context.Context, id string, _ Change) (Event, error) {
	return s.Get(context.Background(), id)
}

func (s *ServiceStub) Delete(_ context.Context, _ string) error {
	return nil
}

func (s *ServiceStub) RespondToInvitation(_ context.Context, _ string, _ ParticipationStatus) error {
	return nil
}
