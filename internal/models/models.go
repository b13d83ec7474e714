package models

import (
	"fmt"
	"time"
)

// Event represents a calendar event as returned by the backing calendar
// service. It is an internal representation, independent of any specific
// calendar provider, and is never mutated after conversion.
type Event struct {
	ID          string     // Identifier assigned by the source calendar
	Title       string     // Summary or title of the event
	Description string     // Detailed description of the event
	StartTime   time.Time  // Start time of the event
	EndTime     time.Time  // End time of the event
	Location    string     // Location of the event
	Organizer   string     // Organizer's email
	Attendees   []Attendee // Invited participants
	HTMLLink    string     // Link to the event in the provider's UI
	UID         string     // The iCalendar UID, used when mirroring
}

// Attendee is a single invited participant of an event.
type Attendee struct {
	Email          string
	ResponseStatus string // "accepted", "declined", "tentative", "needsAction"
}

// Duration returns the event length.
func (e *Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// BusyInterval is a time range during which the calendar reports the user
// unavailable. Intervals are treated as half-open: [Start, End).
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the half-open interval [start, end) intersects
// this busy interval. Touching endpoints do not count as overlap.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// CandidateSlot is a proposed meeting time not yet booked, carrying a
// heuristic desirability score.
type CandidateSlot struct {
	Start time.Time
	End   time.Time
	Score int
}

// Preferences holds the scheduling habits derived from historical meetings.
// A Preferences value is computed once per agent session and never updated
// afterward.
type Preferences struct {
	// PreferredDays are the up-to-3 most frequent meeting weekdays,
	// most frequent first. Empty when there is not enough history.
	PreferredDays []time.Weekday
	// PreferredHours are the up-to-3 most frequent meeting start hours.
	PreferredHours []int
	// AverageDurationMinutes is the truncated mean meeting length.
	AverageDurationMinutes int
	// BlackoutHours are work hours (9-17) outside the preferred set,
	// i.e. hours history shows are rarely used for meetings.
	BlackoutHours []int
	// FrequentContacts are the up-to-10 most frequent contact identifiers.
	FrequentContacts []string
}

// DefaultPreferences returns the preferences used when no meeting history is
// available: no day/hour preference, one-hour meetings, no blackout.
func DefaultPreferences() Preferences {
	return Preferences{AverageDurationMinutes: 60}
}

// PrefersDay reports whether d is among the preferred weekdays.
func (p Preferences) PrefersDay(d time.Weekday) bool {
	for _, pd := range p.PreferredDays {
		if pd == d {
			return true
		}
	}
	return false
}

// PrefersHour reports whether h is among the preferred start hours.
func (p Preferences) PrefersHour(h int) bool {
	for _, ph := range p.PreferredHours {
		if ph == h {
			return true
		}
	}
	return false
}

// IsBlackout reports whether h is a blackout hour.
func (p Preferences) IsBlackout(h int) bool {
	for _, bh := range p.BlackoutHours {
		if bh == h {
			return true
		}
	}
	return false
}

// Status classifies the outcome of a scheduling operation.
type Status string

const (
	StatusCreated      Status = "created"      // event inserted at the requested or optimal time
	StatusRescheduled  Status = "rescheduled"  // requested time busy, alternative booked
	StatusSuggestions  Status = "suggestions"  // candidates only, nothing booked
	StatusNoSlot       Status = "no_slot"      // no available slot in the search window
	StatusError        Status = "error"        // backend failure, unparseable input, etc.
	StatusMeetings     Status = "meetings"     // result of a find-meetings query
	StatusDay          Status = "day"          // result of a view-day query
	StatusAvailability Status = "availability" // result of a check-availability query
	StatusCancelled    Status = "cancelled"    // event deleted
)

// HourStatus is one row of a per-hour availability report.
type HourStatus struct {
	Hour int
	Busy bool
}

// Result is the caller-facing outcome of every agent operation: a status, a
// human-readable message, and whichever payload applies to the operation.
type Result struct {
	Status       Status
	Message      string
	EventLink    string          // link to the created/modified event, if any
	ScheduledAt  time.Time       // start of the booked slot, if any
	Alternatives []CandidateSlot // other viable slots (created via optimizer)
	Slots        []CandidateSlot // suggested slots (suggestions status)
	Meetings     []Event         // matched events (meetings / day statuses)
	Hours        []HourStatus    // availability rows (availability status)
}

// Errorf builds an error Result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, args...)}
}
