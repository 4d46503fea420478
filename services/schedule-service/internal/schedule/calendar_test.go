package schedule

import (
	"testing"
	"time"

	"github.com/slotboard/slotboard/services/schedule-service/internal/model"
)

func booking(status model.BookingStatus, start, end time.Time) model.Booking {
	return model.Booking{
		ID:         "bk-" + start.Format("150405"),
		ProviderID: "prov-1",
		StartTime:  start,
		EndTime:    end,
		Status:     status,
	}
}

func at(d time.Time, hour, min int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, time.UTC)
}

func TestBuildMonthSingleOpenDay(t *testing.T) {
	day := date(2025, 6, 10)
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", day),
		},
	}

	events := BuildMonth(2025, time.June, snap)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(events), events)
	}
	e := events[0]
	if e.Title != "Available" || e.Status != StatusAvailable {
		t.Errorf("event = %+v", e)
	}
	if !e.Start.Equal(at(day, 9, 0)) || e.End == nil || !e.End.Equal(at(day, 17, 0)) {
		t.Errorf("window = %v..%v", e.Start, e.End)
	}
	if e.AllDay {
		t.Error("window event must not be all-day")
	}
}

func TestBuildMonthSplitsAroundBooking(t *testing.T) {
	day := date(2025, 6, 10)
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", day),
		},
		Bookings: []model.Booking{
			booking(model.BookingStatusConfirmed, at(day, 10, 0), at(day, 11, 0)),
		},
	}

	events := BuildMonth(2025, time.June, snap)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	wantTitles := []string{"Available", "Booked", "Available"}
	for i, want := range wantTitles {
		if events[i].Title != want {
			t.Errorf("event %d title = %q, want %q", i, events[i].Title, want)
		}
	}
	if !events[0].End.Equal(at(day, 10, 0)) {
		t.Errorf("first gap ends at %v", *events[0].End)
	}
	if !events[2].Start.Equal(at(day, 11, 0)) || !events[2].End.Equal(at(day, 17, 0)) {
		t.Errorf("second gap = %v..%v", events[2].Start, *events[2].End)
	}
}

func TestBuildMonthBlockedDayIsExclusive(t *testing.T) {
	day := date(2025, 6, 10)
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", day),
		},
		Blocked: []model.BlockedDate{
			{ProviderID: "prov-1", BlockedDate: day, Reason: "Holiday"},
		},
		Bookings: []model.Booking{
			booking(model.BookingStatusConfirmed, at(day, 10, 0), at(day, 11, 0)),
		},
	}

	events := BuildMonth(2025, time.June, snap)
	if len(events) != 1 {
		t.Fatalf("blocked day must emit exactly one event, got %d: %+v", len(events), events)
	}
	e := events[0]
	if e.Title != "Blocked: Holiday" || e.Status != StatusBlocked {
		t.Errorf("event = %+v", e)
	}
	if !e.AllDay || e.End != nil {
		t.Errorf("blocked event must be all-day without end, got allDay=%v end=%v", e.AllDay, e.End)
	}
}

func TestBuildMonthBlockedWithoutReason(t *testing.T) {
	snap := Snapshot{
		Blocked: []model.BlockedDate{
			{ProviderID: "prov-1", BlockedDate: date(2025, 6, 10)},
		},
	}

	events := BuildMonth(2025, time.June, snap)
	if len(events) != 1 || events[0].Title != "Blocked" {
		t.Fatalf("events = %+v", events)
	}
}

func TestBuildMonthOverrideBlockedDay(t *testing.T) {
	day := date(2025, 6, 10)
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", day),
		},
		Overrides: []model.AvailabilityOverride{
			{ProviderID: "prov-1", OverrideDate: day, IsAvailable: false},
		},
	}

	events := BuildMonth(2025, time.June, snap)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(events), events)
	}
	e := events[0]
	if e.Title != "Unavailable (Override)" || !e.AllDay || e.Status != StatusBlocked {
		t.Errorf("event = %+v", e)
	}
	if e.BackgroundColor != "#fee2e2" {
		t.Errorf("override block color = %q", e.BackgroundColor)
	}
}

func TestBuildMonthMergesOverlappingBookings(t *testing.T) {
	day := date(2025, 6, 10)
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", day),
		},
		Bookings: []model.Booking{
			booking(model.BookingStatusConfirmed, at(day, 10, 0), at(day, 11, 30)),
			booking(model.BookingStatusConfirmed, at(day, 11, 0), at(day, 12, 0)),
			booking(model.BookingStatusConfirmed, at(day, 12, 0), at(day, 13, 0)),
		},
	}

	events := BuildMonth(2025, time.June, snap)
	// One merged booked block 10:00..13:00 with gaps either side.
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	b := events[1]
	if b.Title != "Booked" || !b.Start.Equal(at(day, 10, 0)) || !b.End.Equal(at(day, 13, 0)) {
		t.Errorf("merged booked block = %+v", b)
	}
}

func TestBuildMonthClipsBookingsToWindow(t *testing.T) {
	day := date(2025, 6, 10)
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", day),
		},
		Bookings: []model.Booking{
			booking(model.BookingStatusConfirmed, at(day, 8, 0), at(day, 9, 30)),
			booking(model.BookingStatusConfirmed, at(day, 18, 0), at(day, 19, 0)),
		},
	}

	events := BuildMonth(2025, time.June, snap)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Title != "Booked" || !events[0].Start.Equal(at(day, 9, 0)) || !events[0].End.Equal(at(day, 9, 30)) {
		t.Errorf("clipped booking = %+v", events[0])
	}
	if events[1].Title != "Available" || !events[1].Start.Equal(at(day, 9, 30)) {
		t.Errorf("remainder = %+v", events[1])
	}
}

func TestBuildMonthFullyBookedDay(t *testing.T) {
	day := date(2025, 6, 10)
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", day),
		},
		Bookings: []model.Booking{
			booking(model.BookingStatusConfirmed, at(day, 9, 0), at(day, 17, 0)),
		},
	}

	events := BuildMonth(2025, time.June, snap)
	if len(events) != 1 || events[0].Title != "Booked" {
		t.Fatalf("fully booked day must emit only the booked block, got %+v", events)
	}
}

func TestBuildMonthIgnoresNonConfirmedBookings(t *testing.T) {
	day := date(2025, 6, 10)
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", day),
		},
		Bookings: []model.Booking{
			booking(model.BookingStatusPending, at(day, 10, 0), at(day, 11, 0)),
			booking(model.BookingStatusCancelled, at(day, 12, 0), at(day, 13, 0)),
		},
	}

	events := BuildMonth(2025, time.June, snap)
	if len(events) != 1 || events[0].Title != "Available" {
		t.Fatalf("pending/cancelled bookings must not split the window, got %+v", events)
	}
}

func TestBuildMonthSortedAscending(t *testing.T) {
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00",
				date(2025, 6, 20), date(2025, 6, 5), date(2025, 6, 12)),
		},
		Blocked: []model.BlockedDate{
			{ProviderID: "prov-1", BlockedDate: date(2025, 6, 8), Reason: "Holiday"},
		},
	}

	events := BuildMonth(2025, time.June, snap)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Start.Before(events[i-1].Start) {
			t.Fatalf("events out of order at %d: %v before %v", i, events[i].Start, events[i-1].Start)
		}
	}
}

func TestBuildMonthIdempotent(t *testing.T) {
	day := date(2025, 6, 10)
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", day, date(2025, 6, 11)),
		},
		Bookings: []model.Booking{
			booking(model.BookingStatusConfirmed, at(day, 10, 0), at(day, 11, 0)),
		},
	}

	first := BuildMonth(2025, time.June, snap)
	second := BuildMonth(2025, time.June, snap)
	if len(first) != len(second) {
		t.Fatalf("event counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title || !first[i].Start.Equal(second[i].Start) {
			t.Fatalf("event %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestBuildMonthIgnoresOtherMonthsDates(t *testing.T) {
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", date(2025, 7, 1), date(2025, 5, 31)),
		},
	}

	if events := BuildMonth(2025, time.June, snap); len(events) != 0 {
		t.Fatalf("expected no events for June, got %+v", events)
	}
}
