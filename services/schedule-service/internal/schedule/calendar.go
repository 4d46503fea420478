package schedule

import (
	"sort"
	"time"

	"github.com/slotboard/slotboard/services/schedule-service/internal/model"
	"github.com/slotboard/slotboard/services/schedule-service/internal/validate"
)

type EventStatus string

const (
	StatusBlocked   EventStatus = "blocked"
	StatusAvailable EventStatus = "available"
	StatusBooked    EventStatus = "booked"
)

// Presentation colors are fixed per status. Hard blocks render gray,
// override blocks red-ish, so providers can tell them apart at a glance.
const (
	colorBlockedBg       = "#e5e7eb"
	colorBlockedBorder   = "#9ca3af"
	colorOverrideBg      = "#fee2e2"
	colorOverrideBorder  = "#f87171"
	colorAvailableBg     = "#d1fae5"
	colorAvailableBorder = "#10b981"
	colorBookedBg        = "#dbeafe"
	colorBookedBorder    = "#3b82f6"
)

// Event is one calendar entry. All-day events carry no end instant.
type Event struct {
	Title           string      `json:"title"`
	Start           time.Time   `json:"start"`
	End             *time.Time  `json:"end,omitempty"`
	AllDay          bool        `json:"allDay"`
	Status          EventStatus `json:"status"`
	BackgroundColor string      `json:"backgroundColor"`
	BorderColor     string      `json:"borderColor"`
}

// MinCalendarYear bounds how far back a calendar may be requested.
const MinCalendarYear = 2025

type interval struct {
	start time.Time
	end   time.Time
}

// BuildMonth produces the full month's events for one provider snapshot,
// sorted ascending by start instant. Days resolve independently:
// blocked days emit a single all-day event, open days emit an alternating
// available/booked breakdown of the working window, and days without
// availability emit nothing.
func BuildMonth(year int, month time.Month, snap Snapshot) []Event {
	resolver := NewResolver(snap)
	bookingsByDate := groupConfirmedByDate(snap.Bookings)

	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	var events []Event
	for day := 1; day <= daysInMonth; day++ {
		midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		date := midnight.Format(validate.DateLayout)

		decision := resolver.Resolve(date)
		switch decision.Kind {
		case Blocked:
			title := "Blocked"
			if decision.Reason != "" {
				title = "Blocked: " + decision.Reason
			}
			events = append(events, Event{
				Title:           title,
				Start:           midnight,
				AllDay:          true,
				Status:          StatusBlocked,
				BackgroundColor: colorBlockedBg,
				BorderColor:     colorBlockedBorder,
			})
		case OverrideBlocked:
			events = append(events, Event{
				Title:           "Unavailable (Override)",
				Start:           midnight,
				AllDay:          true,
				Status:          StatusBlocked,
				BackgroundColor: colorOverrideBg,
				BorderColor:     colorOverrideBorder,
			})
		case Window:
			events = append(events, dayEvents(decision, bookingsByDate[date])...)
		case NoAvailability:
			// nothing to show
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}

// dayEvents walks the merged busy intervals across the working window,
// emitting an available event for every non-empty gap and a booked event
// for every busy interval.
func dayEvents(decision Decision, booked []model.Booking) []Event {
	busy := mergeBusy(clipToWindow(booked, decision.WorkStart, decision.WorkEnd))

	var events []Event
	cursor := decision.WorkStart
	for _, b := range busy {
		if b.start.After(cursor) {
			events = append(events, availableEvent(cursor, b.start))
		}
		events = append(events, bookedEvent(b.start, b.end))
		cursor = b.end
	}
	if decision.WorkEnd.After(cursor) {
		events = append(events, availableEvent(cursor, decision.WorkEnd))
	}
	return events
}

// clipToWindow truncates bookings to the working window and drops the ones
// that fall entirely outside it. Result is sorted by start.
func clipToWindow(bookings []model.Booking, workStart, workEnd time.Time) []interval {
	clipped := make([]interval, 0, len(bookings))
	for _, b := range bookings {
		s, e := b.StartTime, b.EndTime
		if s.Before(workStart) {
			s = workStart
		}
		if e.After(workEnd) {
			e = workEnd
		}
		if e.After(s) {
			clipped = append(clipped, interval{start: s, end: e})
		}
	}
	sort.Slice(clipped, func(i, j int) bool { return clipped[i].start.Before(clipped[j].start) })
	return clipped
}

// mergeBusy coalesces overlapping or touching intervals; the result is
// pairwise disjoint, sorted, and gap-separated.
func mergeBusy(sorted []interval) []interval {
	var merged []interval
	for _, iv := range sorted {
		if len(merged) > 0 && !iv.start.After(merged[len(merged)-1].end) {
			if iv.end.After(merged[len(merged)-1].end) {
				merged[len(merged)-1].end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

func groupConfirmedByDate(bookings []model.Booking) map[string][]model.Booking {
	byDate := make(map[string][]model.Booking)
	for _, b := range bookings {
		if b.Status != model.BookingStatusConfirmed {
			continue
		}
		key := b.StartTime.UTC().Format(validate.DateLayout)
		byDate[key] = append(byDate[key], b)
	}
	return byDate
}

func availableEvent(start, end time.Time) Event {
	e := end
	return Event{
		Title:           "Available",
		Start:           start,
		End:             &e,
		Status:          StatusAvailable,
		BackgroundColor: colorAvailableBg,
		BorderColor:     colorAvailableBorder,
	}
}

func bookedEvent(start, end time.Time) Event {
	e := end
	return Event{
		Title:           "Booked",
		Start:           start,
		End:             &e,
		Status:          StatusBooked,
		BackgroundColor: colorBookedBg,
		BorderColor:     colorBookedBorder,
	}
}
