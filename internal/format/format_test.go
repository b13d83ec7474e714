package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"calagent/internal/models"
)

func TestResultCreatedWithLink(t *testing.T) {
	out := Result(models.Result{
		Status:    models.StatusCreated,
		Message:   "Meeting with alex scheduled for 2025-06-11 at 02:00 PM.",
		EventLink: "https://calendar.example/event/abc",
	})
	assert.Equal(t,
		"Meeting with alex scheduled for 2025-06-11 at 02:00 PM.\n"+
			"View in calendar: https://calendar.example/event/abc",
		out)
}

func TestResultCreatedWithAlternatives(t *testing.T) {
	out := Result(models.Result{
		Status:  models.StatusCreated,
		Message: "Booked.",
		Alternatives: []models.CandidateSlot{
			{Start: time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)},
			{Start: time.Date(2025, 6, 13, 14, 0, 0, 0, time.UTC)},
		},
	})
	assert.Contains(t, out, "Alternative times that would also work:")
	assert.Contains(t, out, "1. Thursday, Jun 12 at 10:00 AM")
	assert.Contains(t, out, "2. Friday, Jun 13 at 02:00 PM")
}

func TestResultSuggestions(t *testing.T) {
	out := Result(models.Result{
		Status:  models.StatusSuggestions,
		Message: "Here are the best times to meet with taylor:",
		Slots: []models.CandidateSlot{
			{Start: time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)},
		},
	})
	assert.Equal(t,
		"Here are the best times to meet with taylor:\n"+
			"1. Wednesday, Jun 11 at 09:00 AM",
		out)
}

func TestResultMeetings(t *testing.T) {
	out := Result(models.Result{
		Status:  models.StatusMeetings,
		Message: "I found 1 meetings with alex",
		Meetings: []models.Event{
			{
				Title:     "1:1 Alex",
				StartTime: time.Date(2025, 6, 11, 14, 0, 0, 0, time.UTC),
				HTMLLink:  "https://calendar.example/event/xyz",
			},
		},
	})
	assert.Equal(t,
		"I found 1 meetings with alex\n"+
			"1. 1:1 Alex - Wednesday, Jun 11, 2025 at 02:00 PM\n"+
			"   https://calendar.example/event/xyz",
		out)
}

func TestResultAvailability(t *testing.T) {
	out := Result(models.Result{
		Status:  models.StatusAvailability,
		Message: "Availability for 2025-06-11:",
		Hours: []models.HourStatus{
			{Hour: 9, Busy: false},
			{Hour: 10, Busy: true},
		},
	})
	assert.Equal(t,
		"Availability for 2025-06-11:\n"+
			"09:00  Available\n"+
			"10:00  Busy",
		out)
}

func TestResultErrorIsMessageOnly(t *testing.T) {
	res := models.Errorf("something broke")
	assert.Equal(t, "something broke", Result(res))
}

func TestPreferences(t *testing.T) {
	out := Preferences(models.Preferences{
		PreferredDays:          []time.Weekday{time.Tuesday, time.Thursday},
		PreferredHours:         []int{10, 14},
		AverageDurationMinutes: 45,
		FrequentContacts:       []string{"alex", "taylor", "jo", "sam", "morgan", "kim"},
	})
	assert.Contains(t, out, "Preferred meeting days: Tuesday, Thursday\n")
	assert.Contains(t, out, "Preferred meeting times: 10:00, 14:00\n")
	assert.Contains(t, out, "Typical meeting duration: 45 minutes\n")
	assert.Contains(t, out, "- morgan\n")
	assert.NotContains(t, out, "kim")
}

func TestPreferencesDefaults(t *testing.T) {
	out := Preferences(models.DefaultPreferences())
	assert.Contains(t, out, "Preferred meeting days: not enough data\n")
	assert.Contains(t, out, "Preferred meeting times: not enough data\n")
	assert.Contains(t, out, "Typical meeting duration: 60 minutes\n")
	assert.NotContains(t, out, "People you meet with frequently")
}

func TestAgenda(t *testing.T) {
	day := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	empty := Agenda(day, models.Result{Status: models.StatusDay})
	assert.Equal(t, "Good morning! No events scheduled for Wednesday, Jun 11.", empty)

	busy := Agenda(day, models.Result{
		Status: models.StatusDay,
		Meetings: []models.Event{
			{Title: "Standup", StartTime: time.Date(2025, 6, 11, 9, 30, 0, 0, time.UTC)},
		},
	})
	assert.Equal(t, "Good morning! Your schedule for Wednesday, Jun 11:\n09:30 AM  Standup", busy)
}
