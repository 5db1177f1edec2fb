package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/dayplan-app/dayplan/pkg/event"
)

// DefaultDisplayCap is how many entries a day cell shows before collapsing
// the rest behind a "+N more" overflow.
const DefaultDisplayCap = 4

// WindowDays is the size of a month grid: six full weeks.
const WindowDays = 42

// Role says how an event renders on one particular day of its span.
type Role string

const (
	RoleSingle Role = "single"
	RoleStart  Role = "start"
	RoleMiddle Role = "middle"
	RoleEnd    Role = "end"
)

// Entry is one event placed on one day.
type Entry struct {
	Event event.Event
	Role  Role
	Label string
}

// DayBucket holds everything present on a single date, sorted by start time.
// The full list is always kept; the display cap is presentation only.
type DayBucket struct {
	Date    Date
	Entries []Entry
}

// Visible returns at most limit entries. A non-positive limit shows everything.
func (b DayBucket) Visible(limit int) []Entry {
	if limit <= 0 || len(b.Entries) <= limit {
		return b.Entries
	}
	return b.Entries[:limit]
}

// Overflow is the count hidden behind the cap, for the "+N more" label.
func (b DayBucket) Overflow(limit int) int {
	if limit <= 0 || len(b.Entries) <= limit {
		return 0
	}
	return len(b.Entries) - limit
}

// Span reduces an event to the inclusive date range it occupies in loc. The
// same truncation applies to timed events, so one ending 00:30 the next day
// occupies both dates.
func Span(e event.Event, loc *time.Location) (Date, Date) {
	start := DateOf(e.StartTime, loc)
	end := DateOf(e.EndTime, loc)
	if end.Before(start) {
		end = start
	}
	return start, end
}

// PresentOn reports whether the event occupies date d: startDate <= d <= endDate.
// This single inclusive rule covers single-day, multi-day and all-day events.
func PresentOn(e event.Event, d Date, loc *time.Location) bool {
	start, end := Span(e, loc)
	return !d.Before(start) && !d.After(end)
}

// RoleOn classifies how the event renders on date d. Exactly one role applies
// to every day the event is present on: single when the span is one day,
// otherwise start, end, or middle.
func RoleOn(e event.Event, d Date, loc *time.Location) Role {
	start, end := Span(e, loc)
	switch {
	case start.Equal(end):
		return RoleSingle
	case d.Equal(start):
		return RoleStart
	case d.Equal(end):
		return RoleEnd
	default:
		return RoleMiddle
	}
}

// TimeLabel is the cell caption: "All day" for all-day events, otherwise the
// zero-padded 24h local start time.
func TimeLabel(e event.Event, loc *time.Location) string {
	if e.IsAllDay {
		return "All day"
	}
	return e.StartTime.In(loc).Format("15:04")
}

// MonthWindow returns the 42-day grid for a month: six weeks starting on the
// Sunday on or before the 1st. The window is independent of the events in it.
func MonthWindow(year int, month time.Month) []Date {
	first := Date{Year: year, Month: month, Day: 1}
	start := first.AddDays(-int(first.Weekday()))

	window := make([]Date, WindowDays)
	for i := range window {
		window[i] = start.AddDays(i)
	}
	return window
}

// Materialize buckets the events onto consecutive dates starting at
// windowStart. Each bucket is sorted ascending by start time, with the event
// id breaking ties, so repeated materialization of the same inputs yields the
// same grid.
func Materialize(events []event.Event, windowStart Date, days int, loc *time.Location) []DayBucket {
	buckets := make([]DayBucket, days)
	for i := range buckets {
		d := windowStart.AddDays(i)
		bucket := DayBucket{Date: d, Entries: []Entry{}}
		for _, e := range events {
			if !PresentOn(e, d, loc) {
				continue
			}
			bucket.Entries = append(bucket.Entries, Entry{
				Event: e,
				Role:  RoleOn(e, d, loc),
				Label: TimeLabel(e, loc),
			})
		}
		sort.SliceStable(bucket.Entries, func(a, b int) bool {
			ea, eb := bucket.Entries[a].Event, bucket.Entries[b].Event
			if ea.StartTime.Equal(eb.StartTime) {
				return ea.ID < eb.ID
			}
			return ea.StartTime.Before(eb.StartTime)
		})
		buckets[i] = bucket
	}
	return buckets
}

// ParseMonth reads a YYYY-MM grid selector.
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return t.Year(), t.Month(), nil
}
