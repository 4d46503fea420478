// Package schedule is the availability resolution and calendar engine.
// It is a pure computation over an immutable snapshot of a provider's
// rules, overrides, blocked dates, and confirmed bookings.
package schedule

import (
	"time"

	"github.com/slotboard/slotboard/services/schedule-service/internal/model"
	"github.com/slotboard/slotboard/services/schedule-service/internal/validate"
)

// Default working window used when a persisted override or rule carries a
// malformed time value. Display-path leniency only; the booking validator
// stays strict.
const (
	DefaultStartTime = "09:00:00"
	DefaultEndTime   = "17:00:00"
)

type DecisionKind int

const (
	// NoAvailability: no rule or override opens the date.
	NoAvailability DecisionKind = iota
	// Blocked: a hard blocked-date entry closes the date.
	Blocked
	// OverrideBlocked: an override with is_available=false closes the date.
	OverrideBlocked
	// Window: the date is open for the [WorkStart, WorkEnd) window.
	Window
)

// Decision is the resolver's verdict for one calendar date.
type Decision struct {
	Kind      DecisionKind
	Reason    string    // blocking reason, Blocked only
	WorkStart time.Time // Window only
	WorkEnd   time.Time // Window only; may fall on the next calendar day
}

// Snapshot is everything the engine reads for one provider and month.
// Overrides, blocked dates and bookings are pre-filtered to the month;
// rules are the provider's full set ordered newest-first.
type Snapshot struct {
	Rules     []model.AvailabilityRule
	Overrides []model.AvailabilityOverride
	Blocked   []model.BlockedDate
	Bookings  []model.Booking
}

type window struct {
	start string
	end   string
}

// Resolver answers per-date availability questions against one snapshot.
type Resolver struct {
	windows   map[string]window
	overrides map[string]model.AvailabilityOverride
	blocked   map[string]model.BlockedDate
}

// NewResolver indexes the snapshot. Rules are walked newest-first and the
// first rule claiming a date wins; duplicate dates across rules are rejected
// at write time, so this is a defensive tie-break. Duplicate overrides for a
// date collapse to the last one seen.
func NewResolver(snap Snapshot) *Resolver {
	r := &Resolver{
		windows:   make(map[string]window),
		overrides: make(map[string]model.AvailabilityOverride, len(snap.Overrides)),
		blocked:   make(map[string]model.BlockedDate, len(snap.Blocked)),
	}
	for _, rule := range snap.Rules {
		for _, d := range rule.SelectedDates {
			key := d.UTC().Format(validate.DateLayout)
			if _, ok := r.windows[key]; !ok {
				r.windows[key] = window{start: rule.StartTime, end: rule.EndTime}
			}
		}
	}
	for _, o := range snap.Overrides {
		r.overrides[o.OverrideDate.UTC().Format(validate.DateLayout)] = o
	}
	for _, b := range snap.Blocked {
		r.blocked[b.BlockedDate.UTC().Format(validate.DateLayout)] = b
	}
	return r
}

// Resolve decides availability for one date (YYYY-MM-DD, UTC calendar).
// Precedence: blocked date > closing override > opening override or rule
// window > nothing.
func (r *Resolver) Resolve(date string) Decision {
	if b, ok := r.blocked[date]; ok {
		return Decision{Kind: Blocked, Reason: b.Reason}
	}

	override, hasOverride := r.overrides[date]
	if hasOverride && !override.IsAvailable {
		return Decision{Kind: OverrideBlocked}
	}

	var start, end string
	switch {
	case hasOverride:
		start, end = override.StartTime, override.EndTime
	default:
		win, ok := r.windows[date]
		if !ok {
			return Decision{Kind: NoAvailability}
		}
		start, end = win.start, win.end
	}

	if !validate.IsValidTime(start) {
		start = DefaultStartTime
	}
	if !validate.IsValidTime(end) {
		end = DefaultEndTime
	}

	workStart := atTimeOfDay(date, start)
	workEnd := atTimeOfDay(date, end)
	if !workEnd.After(workStart) {
		// Overnight window: the end time belongs to the next calendar day.
		workEnd = workEnd.AddDate(0, 0, 1)
	}
	return Decision{Kind: Window, WorkStart: workStart, WorkEnd: workEnd}
}

func atTimeOfDay(date, hms string) time.Time {
	t, _ := time.Parse(validate.DateLayout+" 15:04:05", date+" "+hms)
	return t.UTC()
}
