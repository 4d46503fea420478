// Package validate holds the pure date/time validation primitives shared by
// the schedule handlers and the calendar engine. Every function takes its
// reference time as an argument so callers control the clock.
package validate

import (
	"errors"
	"regexp"
	"time"
)

// DateLayout is the canonical calendar-date format.
const DateLayout = "2006-01-02"

// MinSlotDuration is the shortest bookable interval.
const MinSlotDuration = 30 * time.Minute

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9]$`)

var (
	ErrSlotNotInFuture = errors.New("Time slot must be in the future.")
	ErrSlotOrder       = errors.New("Start time must be before end time.")
	ErrSlotTooShort    = errors.New("Time slot must be at least 30 minutes long.")
)

// IsValidDate reports whether s is a YYYY-MM-DD string naming a real
// calendar date ("2025-02-30" fails the parse).
func IsValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsValidTime reports whether s is a 24-hour HH:MM:SS string.
func IsValidTime(s string) bool {
	return timeOfDayRe.MatchString(s)
}

// IsStartBeforeEnd compares two HH:MM:SS strings as instants on the same day.
// Valid HH:MM:SS strings order lexicographically.
func IsStartBeforeEnd(startTime, endTime string) bool {
	return IsValidTime(startTime) && IsValidTime(endTime) && startTime < endTime
}

// IsPastDate reports whether the date (ignoring time of day) is strictly
// before the day containing now.
func IsPastDate(s string, now time.Time) bool {
	if !IsValidDate(s) {
		return false
	}
	return s < now.Format(DateLayout)
}

// IsFutureInstant reports whether t is strictly after now.
func IsFutureInstant(t, now time.Time) bool {
	return t.After(now)
}

// ValidateSlot checks a proposed [start, end) interval: it must lie in the
// future, be correctly ordered, and span at least MinSlotDuration.
func ValidateSlot(start, end, now time.Time) error {
	if !IsFutureInstant(start, now) {
		return ErrSlotNotInFuture
	}
	if !start.Before(end) {
		return ErrSlotOrder
	}
	if end.Sub(start) < MinSlotDuration {
		return ErrSlotTooShort
	}
	return nil
}
