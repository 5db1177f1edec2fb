package invitation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dayplan-app/dayplan/internal/retry"
)

// EventDetails is the wire shape the external invitation-send function expects.
type EventDetails struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description,omitempty"`
}

type Invitee struct {
	Email string `json:"email"`
}

// Sender delivers event invitations. Delivery is best effort and
// non-transactional with event creation: a failed send never rolls the
// event back.
type Sender interface {
	Send(ctx context.Context, details EventDetails, invitees []Invitee) error
}

// transientError marks a failure that may succeed on retry.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

type HTTPSender struct {
	url    string
	client *http.Client
	policy retry.Policy
}

func NewHTTPSender(url string) *HTTPSender {
	return &HTTPSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		policy: retry.DefaultPolicy,
	}
}

func (s *HTTPSender) Send(ctx context.Context, details EventDetails, invitees []Invitee) error {
	if s.url == "" {
		log.Debug("invitation sender not configured, skipping delivery")
		return nil
	}
	if len(invitees) == 0 {
		return nil
	}

	body, err := json.Marshal(struct {
		EventDetails EventDetails `json:"eventDetails"`
		Invitees     []Invitee    `json:"invitees"`
	}{details, invitees})
	if err != nil {
		return fmt.Errorf("could not encode invitation request: %w", err)
	}

	return retry.Do(ctx, s.policy, isTransient, func(ctx context.Context) error {
		return s.post(ctx, body)
	})
}

func (s *HTTPSender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &transientError{fmt.Errorf("invitation request failed: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode >= 500:
		// 401 may clear after the auth layer refreshes the session; 5xx is
		// assumed transient.
		return &transientError{fmt.Errorf("invitation sender answered %d", resp.StatusCode)}
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("invitation sender rejected request (%d): %s", resp.StatusCode, detail)
	}
}
