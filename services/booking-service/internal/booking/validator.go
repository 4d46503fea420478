// Package booking validates booking requests. The interval checks are pure;
// the acceptance decision runs over rows the caller fetched inside its
// transaction.
package booking

import (
	"errors"
	"time"
)

const MinDuration = 30 * time.Minute

var (
	ErrSlotOrder     = errors.New("Start time must be before end time.")
	ErrSlotNotFuture = errors.New("Time slot must be in the future.")
	ErrSlotTooShort  = errors.New("Time slot must be at least 30 minutes long.")
)

const (
	ReasonUnavailable = "Provider is unavailable at this time."
	ReasonOverlap     = "Provider already has a booking at this time."
)

// ValidateInterval applies the structural and domain checks to a requested
// slot. now is injected so callers can pin the clock.
func ValidateInterval(start, end, now time.Time) error {
	if !start.Before(end) {
		return ErrSlotOrder
	}
	if !start.After(now) {
		return ErrSlotNotFuture
	}
	if end.Sub(start) < MinDuration {
		return ErrSlotTooShort
	}
	return nil
}

// Decide is the acceptance rule over the provider's schedule rows. The slot
// is accepted when a rule's window fully contains it, or when an override
// for the date is marked available. The override's own time bounds are not
// consulted here; only the calendar display bounds to them.
func Decide(ruleCovers, overrideAvailable, hasOverlap bool) (bool, string) {
	if !ruleCovers && !overrideAvailable {
		return false, ReasonUnavailable
	}
	if hasOverlap {
		return false, ReasonOverlap
	}
	return true, ""
}

// SlotStrings re-derives the calendar date and HH:MM:SS bounds the schedule
// rows are keyed by.
func SlotStrings(start, end time.Time) (date time.Time, startHMS, endHMS string) {
	s := start.UTC()
	date = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	return date, s.Format("15:04:05"), end.UTC().Format("15:04:05")
}
