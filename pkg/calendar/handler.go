package calendar

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/dayplan-app/dayplan/internal/rest"
	"github.com/dayplan-app/dayplan/pkg/event"
)

type Handler struct {
	events event.Service
}

func NewHandler(events event.Service) *Handler {
	return &Handler{events: events}
}

type EntryDTO struct {
	EventId  string `json:"eventId"`
	Title    string `json:"title"`
	Role     string `json:"role"`
	Label    string `json:"label"`
	IsAllDay bool   `json:"isAllDay"`
}

type DayDTO struct {
	Date     string     `json:"date"`
	Visible  []EntryDTO `json:"visible"`
	Overflow int        `json:"overflow"`
}

type GridDTO struct {
	Month string   `json:"month"`
	Days  []DayDTO `json:"days"`
}

// GetGrid answers the six-week month grid. Every present event gets a role
// and a label; entries past the display cap collapse into an overflow count.
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	year, month, err := ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid month", err.Error())
		return
	}
	loc, err := queryLocation(r)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Unknown timezone", err.Error())
		return
	}
	limit := DefaultDisplayCap
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			rest.WriteError(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
			return
		}
	}

	events, err := h.events.List(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusBadGateway, "Could not load events", "Please try again.")
		return
	}

	window := MonthWindow(year, month)
	buckets := Materialize(events, window[0], len(window), loc)

	days := make([]DayDTO, 0, len(buckets))
	for _, b := range buckets {
		days = append(days, dayToDTO(b, limit))
	}
	rest.WriteJSON(w, http.StatusOK, GridDTO{
		Month: fmt.Sprintf("%04d-%02d", year, month),
		Days:  days,
	})
}

// GetDay answers the uncapped detail for a single date.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	d, err := ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}
	loc, err := queryLocation(r)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Unknown timezone", err.Error())
		return
	}

	events, err := h.events.List(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusBadGateway, "Could not load events", "Please try again.")
		return
	}

	buckets := Materialize(events, d, 1, loc)
	rest.WriteJSON(w, http.StatusOK, dayToDTO(buckets[0], 0))
}

// Export streams the principal's events in the inclusive from/to date range
// as an iCalendar file. All-day events carry date values, not instants, so
// they stay on their calendar dates in every client timezone.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	from, err := ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from date", err.Error())
		return
	}
	to, err := ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to date", err.Error())
		return
	}
	if to.Before(from) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid range", "to must not be before from")
		return
	}
	loc, err := queryLocation(r)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Unknown timezone", err.Error())
		return
	}

	events, err := h.events.List(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusBadGateway, "Could not load events", "Please try again.")
		return
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//dayplan//calendar//EN")

	for _, e := range events {
		start, end := Span(e, loc)
		if end.Before(from) || start.After(to) {
			continue
		}
		ev := cal.AddEvent(e.ID)
		ev.SetSummary(e.Title)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
		if e.IsAllDay {
			ev.SetAllDayStartAt(start.StartOfDay(loc))
			// DTEND is exclusive in iCalendar, so the day after the last date.
			ev.SetAllDayEndAt(end.AddDays(1).StartOfDay(loc))
		} else {
			ev.SetStartAt(e.StartTime.UTC())
			ev.SetEndAt(e.EndTime.UTC())
		}
	}

	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", `attachment; filename="export.ics"`)
	w.WriteHeader(http.StatusOK)
	_ = cal.SerializeTo(w)
}

func dayToDTO(b DayBucket, limit int) DayDTO {
	visible := b.Visible(limit)
	entries := make([]EntryDTO, 0, len(visible))
	for _, entry := range visible {
		entries = append(entries, EntryDTO{
			EventId:  entry.Event.ID,
			Title:    entry.Event.Title,
			Role:     string(entry.Role),
			Label:    entry.Label,
			IsAllDay: entry.Event.IsAllDay,
		})
	}
	return DayDTO{Date: b.Date.String(), Visible: entries, Overflow: b.Overflow(limit)}
}

func queryLocation(r *http.Request) (*time.Location, error) {
	tz := r.URL.Query().Get("tz")
	if tz == "" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}
