package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/dayplan-app/dayplan/internal/rest"
)

type Handler struct {
	events Service
}

func NewHandler(events Service) *Handler {
	return &Handler{events: events}
}

type EventDTO struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"start"`
	EndTime         time.Time `json:"end"`
	IsAllDay        bool      `json:"isAllDay"`
	CreatedBy       string    `json:"createdBy"`
	ReminderMinutes *int      `json:"reminderMinutes,omitempty"`
}

// CreateEventDTO carries start/end either as RFC3339 instants (timed events)
// or as plain YYYY-MM-DD dates (all-day events). All-day boundaries are built
// from the date components in the submitted timezone, never by parsing the
// date string as a UTC instant.
type CreateEventDTO struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	IsAllDay        bool     `json:"isAllDay"`
	Timezone        string   `json:"timezone"`
	ReminderMinutes *int     `json:"reminderMinutes"`
	Invitees        []string `json:"invitees"`
}

// UpdateEventDTO carries a partial update. Omitted fields keep their stored
// value, except reminderMinutes, which is cleared when left out.
type UpdateEventDTO struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Start           *string `json:"start"`
	End             *string `json:"end"`
	IsAllDay        *bool   `json:"isAllDay"`
	Timezone        string  `json:"timezone"`
	ReminderMinutes *int    `json:"reminderMinutes"`
}

type CreatedEventDTO struct {
	Event    EventDTO `json:"event"`
	Warnings []string `json:"warnings,omitempty"`
}

type ParticipationDTO struct {
	Status string `json:"status"`
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeEventError(w, err)
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventToDTO(e))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var dto CreateEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	loc, err := locationOf(dto.Timezone)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Unknown timezone", dto.Timezone)
		return
	}

	e := Event{
		Title:           dto.Title,
		Description:     dto.Description,
		IsAllDay:        dto.IsAllDay,
		ReminderMinutes: dto.ReminderMinutes,
	}
	e.StartTime, e.EndTime, err = parseBounds(dto.Start, dto.End, dto.IsAllDay, loc)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event dates", err.Error())
		return
	}

	created, warnings, err := h.events.Create(r.Context(), e, dto.Invitees)
	if err != nil {
		writeEventError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, CreatedEventDTO{Event: eventToDTO(created), Warnings: warnings})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]

	var dto UpdateEventDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	loc, err := locationOf(dto.Timezone)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Unknown timezone", dto.Timezone)
		return
	}

	change := Change{
		Title:           dto.Title,
		Description:     dto.Description,
		IsAllDay:        dto.IsAllDay,
		ReminderMinutes: dto.ReminderMinutes,
	}
	allDay := false
	if dto.IsAllDay != nil {
		allDay = *dto.IsAllDay
	} else if dto.Start != nil || dto.End != nil {
		// Date strings are parsed per the event's current mode when the
		// flag is not resent.
		current, err := h.events.Get(r.Context(), eventId)
		if err != nil {
			writeEventError(w, err)
			return
		}
		allDay = current.IsAllDay
	}
	if dto.Start != nil {
		start, err := parseInstant(*dto.Start, allDay, loc, false)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid start date", err.Error())
			return
		}
		change.StartTime = &start
	}
	if dto.End != nil {
		end, err := parseInstant(*dto.End, allDay, loc, true)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid end date", err.Error())
			return
		}
		change.EndTime = &end
	}

	updated, err := h.events.Update(r.Context(), eventId, change)
	if err != nil {
		writeEventError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, eventToDTO(updated))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]

	if err := h.events.Delete(r.Context(), eventId); err != nil {
		writeEventError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RespondToInvitation(w http.ResponseWriter, r *http.Request) {
	eventId := mux.Vars(r)["eventId"]

	var dto ParticipationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	err := h.events.RespondToInvitation(r.Context(), eventId, ParticipationStatus(dto.Status))
	if err != nil {
		writeEventError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseBounds builds the event boundaries for create requests. All-day events
// submit date-only strings and get local-midnight..23:59:59 bounds.
func parseBounds(start, end string, allDay bool, loc *time.Location) (time.Time, time.Time, error) {
	if end == "" {
		end = start
	}
	startTime, err := parseInstant(start, allDay, loc, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endTime, err := parseInstant(end, allDay, loc, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startTime, endTime, nil
}

func parseInstant(value string, allDay bool, loc *time.Location, isEnd bool) (time.Time, error) {
	if allDay {
		// Build the boundary from the date components in the submitted
		// timezone. Parsing the string as a UTC instant would shift the
		// event onto the wrong date for anyone east of Greenwich.
		parsed, err := time.Parse("2006-01-02", value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
		}
		y, m, d := parsed.Date()
		if isEnd {
			return time.Date(y, m, d, 23, 59, 59, 0, loc), nil
		}
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	return time.Parse(time.RFC3339, value)
}

func locationOf(tz string) (*time.Location, error) {
	if tz == "" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

func writeEventError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
	case errors.Is(err, ErrNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", "")
	case errors.Is(err, ErrPermissionDenied):
		rest.WriteError(w, http.StatusForbidden, "Only creators can delete or modify this event", "")
	case errors.Is(err, ErrRemoteFetch):
		rest.WriteError(w, http.StatusBadGateway, "Event store unavailable", "Please try again.")
	default:
		log.Errorf("unexpected event error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func eventToDTO(e Event) EventDTO {
	return EventDTO{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		IsAllDay:        e.IsAllDay,
		CreatedBy:       e.OwnerID,
		ReminderMinutes: e.ReminderMinutes,
	}
}
