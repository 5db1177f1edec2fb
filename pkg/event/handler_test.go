package event

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayplan-app/dayplan/pkg/user"
)

func newHandlerFixture(t *testing.T) (*serviceFixture, *mux.Router) {
	t.Helper()
	f := newServiceFixture(t)
	handler := NewHandler(f.service)

	router := mux.NewRouter()
	router.HandleFunc("/api/event", handler.ListEvents).Methods("GET")
	router.HandleFunc("/api/event", handler.CreateEvent).Methods("POST")
	router.HandleFunc("/api/event/{eventId}", handler.UpdateEvent).Methods("PUT")
	router.HandleFunc("/api/event/{eventId}", handler.DeleteEvent).Methods("DELETE")
	router.HandleFunc("/api/event/{eventId}/participation", handler.RespondToInvitation).Methods("PATCH")
	return f, router
}

func (f *serviceFixture) doRequest(router *mux.Router, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body)).WithContext(f.ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateEventEndpoint(t *testing.T) {
	f, router := newHandlerFixture(t)

	w := f.doRequest(router, http.MethodPost, "/api/event", `{
		"title": "Standup",
		"start": "2025-06-10T09:00:00Z",
		"end": "2025-06-10T09:15:00Z"
	}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var created CreatedEventDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Event.ID)
	assert.Equal(t, "Standup", created.Event.Title)
	assert.Equal(t, f.owner.Id, created.Event.CreatedBy)
	assert.Empty(t, created.Warnings)
}

func TestCreateAllDayEventUsesLocalBounds(t *testing.T) {
	f, router := newHandlerFixture(t)

	w := f.doRequest(router, http.MethodPost, "/api/event", `{
		"title": "Birthday",
		"start": "2025-01-15",
		"end": "2025-01-16",
		"isAllDay": true,
		"timezone": "Pacific/Auckland"
	}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var created CreatedEventDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	loc, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	assert.True(t, created.Event.StartTime.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, loc)))
	assert.True(t, created.Event.EndTime.Equal(time.Date(2025, 1, 16, 23, 59, 59, 0, loc)))
	assert.True(t, created.Event.IsAllDay)
}

func TestCreateEventValidation(t *testing.T) {
	f, router := newHandlerFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"title": `},
		{"blank title", `{"title": "  ", "start": "2025-06-10T09:00:00Z"}`},
		{"bad start", `{"title": "X", "start": "tomorrow"}`},
		{"bad timezone", `{"title": "X", "start": "2025-06-10", "isAllDay": true, "timezone": "Nowhere"}`},
		{"end before start", `{"title": "X", "start": "2025-06-10T09:00:00Z", "end": "2025-06-10T08:00:00Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.doRequest(router, http.MethodPost, "/api/event", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateEventReportsInvitationWarnings(t *testing.T) {
	f, router := newHandlerFixture(t)
	f.addUser(t, "bob", "bob@example.com")
	f.sender.Err = errors.New("sender down")

	w := f.doRequest(router, http.MethodPost, "/api/event", `{
		"title": "Planning",
		"start": "2025-06-10T09:00:00Z",
		"invitees": ["bob@example.com"]
	}`)

	require.Equal(t, http.StatusCreated, w.Code, "invitation failure must not fail creation")
	var created CreatedEventDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Warnings, 1)
	assert.Contains(t, created.Warnings[0], "invitations could not be sent")
}

func TestListEventsEndpoint(t *testing.T) {
	f, router := newHandlerFixture(t)
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	_, _, err := f.service.Create(f.ctx, timedEvent("Mine", start), nil)
	require.NoError(t, err)

	w := f.doRequest(router, http.MethodGet, "/api/event", "")

	require.Equal(t, http.StatusOK, w.Code)
	var events []EventDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Mine", events[0].Title)
}

func TestUpdateEventEndpoint(t *testing.T) {
	f, router := newHandlerFixture(t)
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	created, _, err := f.service.Create(f.ctx, timedEvent("Before", start), nil)
	require.NoError(t, err)

	w := f.doRequest(router, http.MethodPut, "/api/event/"+created.ID, `{"title": "After"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var updated EventDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "After", updated.Title)
	assert.True(t, updated.StartTime.Equal(start), "omitted fields stay unchanged")
}

func TestUpdateAllDayEventEndDateWithoutFlag(t *testing.T) {
	f, router := newHandlerFixture(t)

	w := f.doRequest(router, http.MethodPost, "/api/event", `{
		"title": "Conference",
		"start": "2025-06-09",
		"end": "2025-06-10",
		"isAllDay": true,
		"timezone": "UTC"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created CreatedEventDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.doRequest(router, http.MethodPut, "/api/event/"+created.Event.ID, `{
		"end": "2025-06-11",
		"timezone": "UTC"
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	var updated EventDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.True(t, updated.IsAllDay, "the stored all-day mode carries over")
	assert.True(t, updated.EndTime.Equal(time.Date(2025, 6, 11, 23, 59, 59, 0, time.UTC)))
}

func TestUpdateEventOmittingReminderClearsIt(t *testing.T) {
	f, router := newHandlerFixture(t)
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	reminder := 30
	e := timedEvent("Checkup", start)
	e.ReminderMinutes = &reminder
	created, _, err := f.service.Create(f.ctx, e, nil)
	require.NoError(t, err)

	w := f.doRequest(router, http.MethodPut, "/api/event/"+created.ID, `{"title": "Checkup (late)"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var updated EventDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Nil(t, updated.ReminderMinutes)
}

func TestUpdateMissingEventAnswers404(t *testing.T) {
	f, router := newHandlerFixture(t)

	w := f.doRequest(router, http.MethodPut, "/api/event/missing", `{"title": "X"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEventEndpoint(t *testing.T) {
	f, router := newHandlerFixture(t)
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	created, _, err := f.service.Create(f.ctx, timedEvent("Gone", start), nil)
	require.NoError(t, err)

	w := f.doRequest(router, http.MethodDelete, "/api/event/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.doRequest(router, http.MethodDelete, "/api/event/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteForeignEventAnswers403(t *testing.T) {
	f, router := newHandlerFixture(t)
	bob := f.addUser(t, "bob", "bob@example.com")
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	created, _, err := f.service.Create(f.ctx, timedEvent("Protected", start), nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/event/"+created.ID, nil).
		WithContext(user.WithUser(context.Background(), bob))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRespondToInvitationEndpoint(t *testing.T) {
	f, router := newHandlerFixture(t)
	bob := f.addUser(t, "bob", "bob@example.com")
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	created, _, err := f.service.Create(f.ctx, timedEvent("Party", start), []string{"bob@example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/event/"+created.ID+"/participation",
		strings.NewReader(`{"status": "accepted"}`)).WithContext(user.WithUser(context.Background(), bob))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.doRequest(router, http.MethodPatch, "/api/event/"+created.ID+"/participation", `{"status": "maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
