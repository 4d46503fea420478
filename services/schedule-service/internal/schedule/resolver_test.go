package schedule

import (
	"testing"
	"time"

	"github.com/slotboard/slotboard/services/schedule-service/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rule(created time.Time, start, end string, dates ...time.Time) model.AvailabilityRule {
	return model.AvailabilityRule{
		ID:            "rule-" + created.Format("150405"),
		ProviderID:    "prov-1",
		SelectedDates: dates,
		StartTime:     start,
		EndTime:       end,
		CreatedAt:     created,
	}
}

func TestResolveBlockedDateWins(t *testing.T) {
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", date(2025, 6, 10)),
		},
		Overrides: []model.AvailabilityOverride{
			{ProviderID: "prov-1", OverrideDate: date(2025, 6, 10), IsAvailable: true, StartTime: "10:00:00", EndTime: "12:00:00"},
		},
		Blocked: []model.BlockedDate{
			{ProviderID: "prov-1", BlockedDate: date(2025, 6, 10), Reason: "Holiday"},
		},
	}

	d := NewResolver(snap).Resolve("2025-06-10")
	if d.Kind != Blocked {
		t.Fatalf("expected Blocked, got %v", d.Kind)
	}
	if d.Reason != "Holiday" {
		t.Fatalf("expected reason Holiday, got %q", d.Reason)
	}
}

func TestResolveOverrideBlocks(t *testing.T) {
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", date(2025, 6, 10)),
		},
		Overrides: []model.AvailabilityOverride{
			{ProviderID: "prov-1", OverrideDate: date(2025, 6, 10), IsAvailable: false},
		},
	}

	if d := NewResolver(snap).Resolve("2025-06-10"); d.Kind != OverrideBlocked {
		t.Fatalf("expected OverrideBlocked, got %v", d.Kind)
	}
}

func TestResolveOverrideOpensWithOwnWindow(t *testing.T) {
	snap := Snapshot{
		Overrides: []model.AvailabilityOverride{
			{ProviderID: "prov-1", OverrideDate: date(2025, 6, 10), IsAvailable: true, StartTime: "10:00:00", EndTime: "14:00:00"},
		},
	}

	d := NewResolver(snap).Resolve("2025-06-10")
	if d.Kind != Window {
		t.Fatalf("expected Window, got %v", d.Kind)
	}
	if !d.WorkStart.Equal(time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("work start = %v", d.WorkStart)
	}
	if !d.WorkEnd.Equal(time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("work end = %v", d.WorkEnd)
	}
}

func TestResolveOverrideMalformedTimesFallBack(t *testing.T) {
	snap := Snapshot{
		Overrides: []model.AvailabilityOverride{
			{ProviderID: "prov-1", OverrideDate: date(2025, 6, 10), IsAvailable: true, StartTime: "10am", EndTime: ""},
		},
	}

	d := NewResolver(snap).Resolve("2025-06-10")
	if d.Kind != Window {
		t.Fatalf("expected Window, got %v", d.Kind)
	}
	if !d.WorkStart.Equal(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("expected 09:00 fallback, got %v", d.WorkStart)
	}
	if !d.WorkEnd.Equal(time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("expected 17:00 fallback, got %v", d.WorkEnd)
	}
}

func TestResolveNewestRuleWinsOnDuplicateDate(t *testing.T) {
	// Rules arrive newest-first; the first one claiming a date wins.
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 2), "08:00:00", "12:00:00", date(2025, 6, 10)),
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", date(2025, 6, 10)),
		},
	}

	d := NewResolver(snap).Resolve("2025-06-10")
	if d.Kind != Window {
		t.Fatalf("expected Window, got %v", d.Kind)
	}
	if !d.WorkStart.Equal(time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("expected the newer rule's 08:00 start, got %v", d.WorkStart)
	}
}

func TestResolveOvernightWindowRollsToNextDay(t *testing.T) {
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "22:00:00", "06:00:00", date(2025, 6, 10)),
		},
	}

	d := NewResolver(snap).Resolve("2025-06-10")
	if d.Kind != Window {
		t.Fatalf("expected Window, got %v", d.Kind)
	}
	if !d.WorkEnd.Equal(time.Date(2025, 6, 11, 6, 0, 0, 0, time.UTC)) {
		t.Errorf("expected end on the next day, got %v", d.WorkEnd)
	}
}

func TestResolveNoAvailability(t *testing.T) {
	snap := Snapshot{
		Rules: []model.AvailabilityRule{
			rule(date(2025, 5, 1), "09:00:00", "17:00:00", date(2025, 6, 11)),
		},
	}

	if d := NewResolver(snap).Resolve("2025-06-10"); d.Kind != NoAvailability {
		t.Fatalf("expected NoAvailability, got %v", d.Kind)
	}
}

func TestResolveDuplicateOverridesLastWins(t *testing.T) {
	// Storage does not enforce one override per date; the index keeps the
	// last row seen.
	snap := Snapshot{
		Overrides: []model.AvailabilityOverride{
			{ProviderID: "prov-1", OverrideDate: date(2025, 6, 10), IsAvailable: true, StartTime: "10:00:00", EndTime: "12:00:00"},
			{ProviderID: "prov-1", OverrideDate: date(2025, 6, 10), IsAvailable: false},
		},
	}

	if d := NewResolver(snap).Resolve("2025-06-10"); d.Kind != OverrideBlocked {
		t.Fatalf("expected OverrideBlocked from the last override, got %v", d.Kind)
	}
}
