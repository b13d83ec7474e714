package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"calagent/internal/metrics"
	"calagent/internal/models"
)

// Calendar is the set of operations the agent needs from the backing
// calendar service. Implementations talk to a single configured calendar.
type Calendar interface {
	// Events lists events overlapping [from, to], ordered by start time.
	// A non-empty query restricts the listing to full-text matches.
	Events(ctx context.Context, from, to time.Time, query string) ([]models.Event, error)
	// FreeBusy returns the busy intervals within [from, to].
	FreeBusy(ctx context.Context, from, to time.Time) ([]models.BusyInterval, error)
	// Insert creates a new event and returns it as stored by the service.
	Insert(ctx context.Context, title, description string, start, end time.Time) (*models.Event, error)
	// Move changes an existing event's start and end times.
	Move(ctx context.Context, eventID string, start, end time.Time) (*models.Event, error)
	// Delete removes an event by identifier.
	Delete(ctx context.Context, eventID string) error
}

// Mirror receives a copy of every event the agent books. Used to keep a
// secondary (CalDAV) calendar in sync with booked meetings.
type Mirror interface {
	MirrorEvent(ctx context.Context, event *models.Event) error
}

const (
	// sameDayAttempts bounds the hourly fallback search when a requested
	// time is busy. The search never leaves the requested day.
	sameDayAttempts = 8

	displayTimeLayout = "2006-01-02 at 03:04 PM"
)

// Agent answers scheduling requests against a calendar backend, using
// preferences learned from the user's meeting history. Preferences are
// computed once, when the agent is created, and are immutable afterward.
type Agent struct {
	logger *slog.Logger
	cal    Calendar
	mirror Mirror // optional
	loc    *time.Location
	prefs  models.Preferences
	now    func() time.Time
}

// Option configures an Agent.
type Option func(*Agent)

// WithMirror makes the agent copy every booked event to m.
func WithMirror(m Mirror) Option {
	return func(a *Agent) { a.mirror = m }
}

// WithClock overrides the agent's time source.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// New creates an Agent and learns the user's preferences from the last 90
// days of events. Learning is fail-open: if history cannot be fetched the
// agent falls back to default preferences instead of failing, since missing
// personalization should never block scheduling.
func New(ctx context.Context, logger *slog.Logger, cal Calendar, loc *time.Location, opts ...Option) *Agent {
	a := &Agent{
		logger: logger,
		cal:    cal,
		loc:    loc,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	prefs, err := a.learnFromHistory(ctx)
	if err != nil {
		logger.Warn("Could not analyze meeting history, using default preferences.", "error", err)
		prefs = models.DefaultPreferences()
	}
	a.prefs = prefs
	return a
}

// Preferences returns the preferences learned at construction time.
func (a *Agent) Preferences() models.Preferences {
	return a.prefs
}

// learnFromHistory fetches the recent event history and derives preferences.
func (a *Agent) learnFromHistory(ctx context.Context) (models.Preferences, error) {
	now := a.now().In(a.loc)
	events, err := a.cal.Events(ctx, now.AddDate(0, 0, -historyWindowDays), now, "")
	if err != nil {
		return models.Preferences{}, fmt.Errorf("failed to fetch meeting history: %w", err)
	}
	prefs := LearnPreferences(events)
	metrics.MeetingsAnalyzed.Set(float64(len(events)))
	a.logger.Info("Learned scheduling preferences.",
		"meetingsAnalyzed", len(events),
		"preferredDays", prefs.PreferredDays,
		"preferredHours", prefs.PreferredHours,
		"averageDuration", prefs.AverageDurationMinutes)
	return prefs, nil
}

// ScheduleMeeting books a meeting with the named person. When a start time is
// given, the requested slot is probed first; if it is busy the agent searches
// for the next free slot later the same day (bounded hourly search) and books
// that instead. Without a start time the agent books the top-ranked optimal
// slot within the next two weeks.
func (a *Agent) ScheduleMeeting(ctx context.Context, person string, when *time.Time, durationMinutes int) models.Result {
	if durationMinutes <= 0 {
		durationMinutes = a.prefs.AverageDurationMinutes
	}
	duration := time.Duration(durationMinutes) * time.Minute

	if when != nil {
		return a.scheduleAt(ctx, person, when.In(a.loc), duration)
	}
	return a.scheduleOptimal(ctx, person, durationMinutes)
}

// scheduleAt books at the requested time, falling back to the next free slot
// on the same day when the requested slot is busy.
func (a *Agent) scheduleAt(ctx context.Context, person string, start time.Time, duration time.Duration) models.Result {
	end := start.Add(duration)

	busy, err := a.cal.FreeBusy(ctx, start, end)
	if err != nil {
		return models.Errorf("Error checking availability: %v", err)
	}

	title := fmt.Sprintf("Meeting with %s", person)
	if !overlapsAny(busy, start, end) {
		event, err := a.cal.Insert(ctx, title, "", start, end)
		if err != nil {
			return models.Errorf("Error creating event: %v", err)
		}
		a.mirrorBooked(ctx, event)
		return models.Result{
			Status:      models.StatusCreated,
			Message:     fmt.Sprintf("Meeting scheduled for %s", start.Format(displayTimeLayout)),
			EventLink:   event.HTMLLink,
			ScheduledAt: start,
		}
	}

	// Requested slot is busy: walk later hours of the same day.
	altStart, altEnd, err := NextSameDaySlot(start, duration, sameDayAttempts, func(s, e time.Time) (bool, error) {
		b, err := a.cal.FreeBusy(ctx, s, e)
		if err != nil {
			return false, err
		}
		return !overlapsAny(b, s, e), nil
	})
	if err != nil {
		return models.Errorf("Error finding an alternative slot: %v", err)
	}
	if altStart.IsZero() {
		return models.Result{
			Status:  models.StatusNoSlot,
			Message: fmt.Sprintf("No available slots found on %s for the day.", start.Format(displayTimeLayout)),
		}
	}

	event, err := a.cal.Insert(ctx, title+" (Rescheduled)",
		fmt.Sprintf("Originally requested for %s", start.Format(displayTimeLayout)), altStart, altEnd)
	if err != nil {
		return models.Errorf("Error creating event: %v", err)
	}
	a.mirrorBooked(ctx, event)
	return models.Result{
		Status:      models.StatusRescheduled,
		Message:     fmt.Sprintf("Requested time was unavailable. Meeting rescheduled to %s", altStart.Format(displayTimeLayout)),
		EventLink:   event.HTMLLink,
		ScheduledAt: altStart,
	}
}

// scheduleOptimal books the best-scored slot over the next two weeks.
func (a *Agent) scheduleOptimal(ctx context.Context, person string, durationMinutes int) models.Result {
	now := a.now().In(a.loc)
	slots := a.optimalSlots(ctx, now.AddDate(0, 0, 1), now.AddDate(0, 0, 14), durationMinutes)
	if len(slots) == 0 {
		return models.Errorf("No suitable meeting times found in the next 2 weeks.")
	}

	best := slots[0]
	event, err := a.cal.Insert(ctx,
		fmt.Sprintf("Meeting with %s", person),
		"Automatically scheduled by the calendar agent", best.Start, best.End)
	if err != nil {
		return models.Errorf("Error creating event: %v", err)
	}
	a.mirrorBooked(ctx, event)
	return models.Result{
		Status:       models.StatusCreated,
		Message:      fmt.Sprintf("Optimal meeting time found and scheduled: %s", best.Start.Format(displayTimeLayout)),
		EventLink:    event.HTMLLink,
		ScheduledAt:  best.Start,
		Alternatives: slots[1:],
	}
}

// SuggestTimes ranks candidate slots for a meeting with the named person over
// the next week without booking anything.
func (a *Agent) SuggestTimes(ctx context.Context, person string) models.Result {
	now := a.now().In(a.loc)
	start := startOfDay(now).AddDate(0, 0, 1)
	slots := a.optimalSlots(ctx, start, start.AddDate(0, 0, 7), a.prefs.AverageDurationMinutes)
	if len(slots) == 0 {
		return models.Errorf("No suitable meeting times found in the next week.")
	}
	return models.Result{
		Status:  models.StatusSuggestions,
		Message: fmt.Sprintf("Here are the best times to meet with %s:", person),
		Slots:   slots,
	}
}

// optimalSlots fetches busy intervals for the range and runs the scorer.
// A free/busy failure degrades to an empty busy set rather than aborting.
func (a *Agent) optimalSlots(ctx context.Context, rangeStart, rangeEnd time.Time, durationMinutes int) []models.CandidateSlot {
	busy, err := a.cal.FreeBusy(ctx, rangeStart, rangeEnd)
	if err != nil {
		a.logger.Warn("Could not fetch busy times, scoring without them.", "error", err)
		busy = nil
	}
	slots := FindOptimalSlots(a.prefs, rangeStart, rangeEnd, durationMinutes, busy, a.now().In(a.loc))
	metrics.SlotsReturned.Observe(float64(len(slots)))
	return slots
}

// FindMeetings returns events within [from, to] whose title mentions the
// named person.
func (a *Agent) FindMeetings(ctx context.Context, person string, from, to time.Time) models.Result {
	events, err := a.cal.Events(ctx, from, to, person)
	if err != nil {
		return models.Errorf("Error finding meetings: %v", err)
	}

	var matched []models.Event
	for _, ev := range events {
		if containsFold(ev.Title, person) {
			matched = append(matched, ev)
		}
	}
	if len(matched) == 0 {
		return models.Result{
			Status:  models.StatusMeetings,
			Message: fmt.Sprintf("I couldn't find any meetings with %s in the specified time range.", person),
		}
	}
	return models.Result{
		Status:   models.StatusMeetings,
		Message:  fmt.Sprintf("I found %d meetings with %s", len(matched), person),
		Meetings: matched,
	}
}

// ViewDay returns the events of a single calendar day.
func (a *Agent) ViewDay(ctx context.Context, day time.Time) models.Result {
	day = day.In(a.loc)
	from := startOfDay(day)
	to := from.AddDate(0, 0, 1).Add(-time.Second)

	events, err := a.cal.Events(ctx, from, to, "")
	if err != nil {
		return models.Errorf("Error fetching events: %v", err)
	}
	if len(events) == 0 {
		return models.Result{
			Status:  models.StatusDay,
			Message: fmt.Sprintf("You have no events scheduled for %s.", day.Format("Monday, January 02")),
		}
	}
	return models.Result{
		Status:   models.StatusDay,
		Message:  fmt.Sprintf("Here's your schedule for %s:", day.Format("Monday, January 02")),
		Meetings: events,
	}
}

// CheckAvailability reports, hour by hour across the work day, whether the
// calendar shows the user busy on the given day.
func (a *Agent) CheckAvailability(ctx context.Context, day time.Time) models.Result {
	day = startOfDay(day.In(a.loc))
	from := day.Add(workDayStartHour * time.Hour)
	to := day.Add(workDayEndHour * time.Hour)

	busy, err := a.cal.FreeBusy(ctx, from, to)
	if err != nil {
		return models.Errorf("Error checking availability: %v", err)
	}

	var hours []models.HourStatus
	for h := workDayStartHour; h <= workDayEndHour; h++ {
		slotStart := day.Add(time.Duration(h) * time.Hour)
		slotEnd := slotStart.Add(time.Hour)
		hours = append(hours, models.HourStatus{
			Hour: h,
			Busy: overlapsAny(busy, slotStart, slotEnd),
		})
	}
	return models.Result{
		Status:  models.StatusAvailability,
		Message: fmt.Sprintf("Here's your availability for %s:", day.Format("Monday, January 02")),
		Hours:   hours,
	}
}

// CancelEvent deletes an event by identifier.
func (a *Agent) CancelEvent(ctx context.Context, eventID string) models.Result {
	if err := a.cal.Delete(ctx, eventID); err != nil {
		return models.Errorf("Error removing event: %v", err)
	}
	return models.Result{Status: models.StatusCancelled, Message: "Event removed successfully."}
}

// RescheduleEvent moves an existing event to a new start time.
func (a *Agent) RescheduleEvent(ctx context.Context, eventID string, newStart time.Time, durationMinutes int) models.Result {
	if durationMinutes <= 0 {
		durationMinutes = a.prefs.AverageDurationMinutes
	}
	newStart = newStart.In(a.loc)
	newEnd := newStart.Add(time.Duration(durationMinutes) * time.Minute)

	event, err := a.cal.Move(ctx, eventID, newStart, newEnd)
	if err != nil {
		return models.Errorf("Error rescheduling event: %v", err)
	}
	return models.Result{
		Status:      models.StatusRescheduled,
		Message:     fmt.Sprintf("Event rescheduled to %s", newStart.Format(displayTimeLayout)),
		EventLink:   event.HTMLLink,
		ScheduledAt: newStart,
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// mirrorBooked copies a booked event to the mirror calendar, if one is
// configured. Mirror failures are logged and do not affect the result.
func (a *Agent) mirrorBooked(ctx context.Context, event *models.Event) {
	if a.mirror == nil || event == nil {
		return
	}
	if err := a.mirror.MirrorEvent(ctx, event); err != nil {
		a.logger.Error("Failed to mirror event", "title", event.Title, "error", err)
	}
}
