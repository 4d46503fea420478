package validate

import "time"

// MaxDatesPerWeek caps how many dates a provider may select within one
// ISO week across a single availability rule.
const MaxDatesPerWeek = 4

// ValidWeeklySelection groups the dates by (ISO week-year, ISO week number)
// and reports false if any week holds more than MaxDatesPerWeek dates.
// ISO weeks start on Monday; week 1 contains the year's first Thursday.
func ValidWeeklySelection(dates []time.Time) bool {
	type week struct {
		year int
		num  int
	}
	counts := make(map[week]int, len(dates))
	for _, d := range dates {
		y, w := d.ISOWeek()
		counts[week{y, w}]++
		if counts[week{y, w}] > MaxDatesPerWeek {
			return false
		}
	}
	return true
}
