package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calagent/internal/models"
)

// meetingAt builds a qualifying historical meeting on the given day.
func meetingAt(t *testing.T, day time.Time, hour, durationMin int, attendees ...string) models.Event {
	t.Helper()
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	ev := models.Event{
		Title:     "Team meeting",
		StartTime: start,
		EndTime:   start.Add(time.Duration(durationMin) * time.Minute),
	}
	for _, a := range attendees {
		ev.Attendees = append(ev.Attendees, models.Attendee{Email: a, ResponseStatus: "accepted"})
	}
	return ev
}

func TestLearnPreferencesDefaults(t *testing.T) {
	prefs := LearnPreferences(nil)
	assert.Equal(t, models.DefaultPreferences(), prefs)

	// Events that never qualify as meetings leave the defaults untouched.
	start := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	prefs = LearnPreferences([]models.Event{
		{Title: "Dentist", StartTime: start, EndTime: start.Add(time.Hour)},
		{Title: "Focus block", StartTime: start.Add(24 * time.Hour), EndTime: start.Add(25 * time.Hour)},
	})
	assert.Equal(t, models.DefaultPreferences(), prefs)
	assert.Equal(t, 60, prefs.AverageDurationMinutes)
	assert.Empty(t, prefs.BlackoutHours)
}

func TestLearnPreferencesAggregates(t *testing.T) {
	// 2025-06-02 is a Monday.
	mon := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	tue := mon.AddDate(0, 0, 1)
	wed := mon.AddDate(0, 0, 2)
	thu := mon.AddDate(0, 0, 3)

	events := []models.Event{
		meetingAt(t, tue, 10, 30, "alex@example.com"),
		meetingAt(t, tue, 10, 60, "alex@example.com"),
		meetingAt(t, wed, 14, 60, "morgan@example.com"),
		meetingAt(t, wed, 10, 90, "alex@example.com"),
		meetingAt(t, thu, 15, 60, "sam@example.com"),
		meetingAt(t, mon, 9, 30, "morgan@example.com"),
	}

	prefs := LearnPreferences(events)

	// Tuesday and Wednesday both have 2 meetings; Tuesday was seen first.
	require.Len(t, prefs.PreferredDays, 3)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday}, prefs.PreferredDays)

	// Hour 10 dominates; 14 and 15 tie and keep first-encounter order.
	assert.Equal(t, []int{10, 14, 15}, prefs.PreferredHours)

	// (30+60+60+90+60+30)/6 = 55
	assert.Equal(t, 55, prefs.AverageDurationMinutes)

	// Work hours minus the preferred set.
	assert.Equal(t, []int{9, 11, 12, 13, 16, 17}, prefs.BlackoutHours)

	assert.Equal(t, []string{"alex@example.com", "morgan@example.com", "sam@example.com"}, prefs.FrequentContacts)
}

func TestLearnPreferencesContacts(t *testing.T) {
	start := time.Date(2025, 6, 3, 11, 0, 0, 0, time.UTC)
	events := []models.Event{
		{
			Title:     "Planning",
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Attendees: []models.Attendee{
				{Email: "alex@example.com", ResponseStatus: "accepted"},
				{Email: "kim@example.com", ResponseStatus: "declined"},
			},
		},
		{
			// Qualifies through the title; contact extracted after "with".
			Title:     "Coffee with Taylor",
			StartTime: start.Add(2 * time.Hour),
			EndTime:   start.Add(3 * time.Hour),
		},
	}

	prefs := LearnPreferences(events)
	assert.Contains(t, prefs.FrequentContacts, "alex@example.com")
	assert.Contains(t, prefs.FrequentContacts, "taylor")
	assert.NotContains(t, prefs.FrequentContacts, "kim@example.com")
}

func TestLearnPreferencesTruncatesAverage(t *testing.T) {
	start := time.Date(2025, 6, 3, 11, 0, 0, 0, time.UTC)
	events := []models.Event{
		meetingAt(t, start, 11, 50, "a@example.com"),
		meetingAt(t, start, 12, 25, "a@example.com"),
	}
	prefs := LearnPreferences(events)
	assert.Equal(t, 37, prefs.AverageDurationMinutes) // 75/2 truncated
}

func TestLearnPreferencesHistoryCap(t *testing.T) {
	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	events := make([]models.Event, 0, historyCap+50)
	for i := 0; i < historyCap+50; i++ {
		events = append(events, meetingAt(t, start.AddDate(0, 0, i%60), 10, 60, "a@example.com"))
	}
	// Beyond the cap the extra events must not change the outcome of an
	// identical capped slice.
	assert.Equal(t, LearnPreferences(events[:historyCap]), LearnPreferences(events))
}
