package validate

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidWeeklySelection(t *testing.T) {
	cases := []struct {
		name  string
		dates []time.Time
		want  bool
	}{
		{
			name: "four dates in one week is allowed",
			// 2025-06-09 is a Monday.
			dates: []time.Time{day(2025, 6, 9), day(2025, 6, 10), day(2025, 6, 11), day(2025, 6, 12)},
			want:  true,
		},
		{
			name:  "five dates in one week is rejected",
			dates: []time.Time{day(2025, 6, 9), day(2025, 6, 10), day(2025, 6, 11), day(2025, 6, 12), day(2025, 6, 13)},
			want:  false,
		},
		{
			name: "spread across two weeks",
			dates: []time.Time{
				day(2025, 6, 9), day(2025, 6, 10), day(2025, 6, 11), day(2025, 6, 12),
				day(2025, 6, 16), day(2025, 6, 17), day(2025, 6, 18), day(2025, 6, 19),
			},
			want: true,
		},
		{
			name: "sunday belongs to the monday-start week",
			// 2025-06-09 (Mon) .. 2025-06-15 (Sun) are all ISO week 24.
			dates: []time.Time{day(2025, 6, 9), day(2025, 6, 13), day(2025, 6, 14), day(2025, 6, 15), day(2025, 6, 10)},
			want:  false,
		},
		{
			name: "year boundary groups by iso week-year",
			// 2024-12-30 and 2025-01-02 share ISO week 1 of 2025.
			dates: []time.Time{
				day(2024, 12, 30), day(2024, 12, 31), day(2025, 1, 1), day(2025, 1, 2), day(2025, 1, 3),
			},
			want: false,
		},
		{
			name:  "empty selection",
			dates: nil,
			want:  true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ValidWeeklySelection(c.dates); got != c.want {
				t.Fatalf("ValidWeeklySelection() = %v, want %v", got, c.want)
			}
		})
	}
}
