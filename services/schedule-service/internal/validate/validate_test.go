package validate

import (
	"errors"
	"testing"
	"time"
)

func TestIsValidDate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"2025-06-10", true},
		{"2025-12-31", true},
		{"2025-02-30", false}, // not a real date
		{"2025-13-01", false},
		{"2025-6-1", false}, // not zero-padded
		{"10-06-2025", false},
		{"2025-06-10T00:00:00Z", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsValidDate(c.in); got != c.want {
			t.Errorf("IsValidDate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIsValidTime(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"09:00:00", true},
		{"23:59:59", true},
		{"00:00:00", true},
		{"24:00:00", false},
		{"09:60:00", false},
		{"09:00", false},
		{"9:00:00", false},
		{"banana", false},
	}
	for _, c := range cases {
		if got := IsValidTime(c.in); got != c.want {
			t.Errorf("IsValidTime(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIsStartBeforeEnd(t *testing.T) {
	if !IsStartBeforeEnd("09:00:00", "17:00:00") {
		t.Error("expected 09:00:00 < 17:00:00")
	}
	if IsStartBeforeEnd("17:00:00", "09:00:00") {
		t.Error("expected 17:00:00 not before 09:00:00")
	}
	if IsStartBeforeEnd("09:00:00", "09:00:00") {
		t.Error("equal times are not ordered")
	}
	if IsStartBeforeEnd("nope", "17:00:00") {
		t.Error("malformed start must not compare")
	}
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)
	if !IsPastDate("2025-06-14", now) {
		t.Error("yesterday should be past")
	}
	if IsPastDate("2025-06-15", now) {
		t.Error("today is not past")
	}
	if IsPastDate("2025-06-16", now) {
		t.Error("tomorrow is not past")
	}
	if IsPastDate("not-a-date", now) {
		t.Error("malformed dates are not past")
	}
}

func TestValidateSlot(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)

	cases := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
	}{
		{"valid hour slot", future, future.Add(time.Hour), nil},
		{"exactly 30 minutes", future, future.Add(30 * time.Minute), nil},
		{"in the past", now.Add(-time.Hour), now.Add(time.Hour), ErrSlotNotInFuture},
		{"start equals now", now, now.Add(time.Hour), ErrSlotNotInFuture},
		{"start after end", future.Add(time.Hour), future, ErrSlotOrder},
		{"start equals end", future, future, ErrSlotOrder},
		{"too short", future, future.Add(29 * time.Minute), ErrSlotTooShort},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateSlot(c.start, c.end, now)
			if !errors.Is(err, c.wantErr) {
				t.Fatalf("ValidateSlot() = %v, want %v", err, c.wantErr)
			}
		})
	}
}
