package invitation

import (
	"context"
	"sync"
)

// SenderStub records sent invitations for tests.
type SenderStub struct {
	mu sync.Mutex
	// Err, when set, is returned by every Send call.
	Err   error
	Calls []SentInvitation
}

type SentInvitation struct {
	Details  EventDetails
	Invitees []Invitee
}

func NewSenderStub() *SenderStub {
	return &SenderStub{}
}

func (s *SenderStub) Send(_ context.Context, details EventDetails, invitees []Invitee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	s.Calls = append(s.Calls, SentInvitation{Details: details, Invitees: invitees})
	return nil
}
