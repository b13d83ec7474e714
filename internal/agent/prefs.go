package agent

import (
	"sort"
	"strings"
	"time"

	"calagent/internal/models"
)

const (
	// historyWindowDays is how far back meeting history is analyzed.
	historyWindowDays = 90
	// historyCap bounds how many historical events are considered.
	historyCap = 1000

	workDayStartHour = 9
	workDayEndHour   = 17 // inclusive; candidate start hours are 9..17
)

// counter accumulates frequency counts while preserving the order in which
// keys were first seen, so that ties rank by first encounter.
type counter[K comparable] struct {
	counts map[K]int
	order  []K
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]int)}
}

func (c *counter[K]) add(k K) {
	if _, seen := c.counts[k]; !seen {
		c.order = append(c.order, k)
	}
	c.counts[k]++
}

// top returns the n most frequent keys, most frequent first. Ties keep
// first-encounter order.
func (c *counter[K]) top(n int) []K {
	ranked := make([]K, len(c.order))
	copy(ranked, c.order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return c.counts[ranked[i]] > c.counts[ranked[j]]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// isMeeting reports whether an event counts as a meeting for preference
// learning: it has at least one attendee, or its title mentions a meeting.
func isMeeting(ev *models.Event) bool {
	if len(ev.Attendees) > 0 {
		return true
	}
	return strings.Contains(strings.ToLower(ev.Title), "meeting")
}

// LearnPreferences derives scheduling preferences from historical events.
// Only events that qualify as meetings contribute. The input order does not
// affect the output beyond tie-breaking, which follows first encounter.
func LearnPreferences(events []models.Event) models.Preferences {
	days := newCounter[time.Weekday]()
	hours := newCounter[int]()
	contacts := newCounter[string]()
	var totalMinutes float64
	var meetings int

	if len(events) > historyCap {
		events = events[:historyCap]
	}

	for i := range events {
		ev := &events[i]
		if !isMeeting(ev) {
			continue
		}
		meetings++

		days.add(ev.StartTime.Weekday())
		hours.add(ev.StartTime.Hour())
		totalMinutes += ev.Duration().Minutes()

		for _, a := range ev.Attendees {
			if a.Email != "" && a.ResponseStatus != "declined" {
				contacts.add(a.Email)
			}
		}
		// "Sync with alex" style titles name a contact directly.
		title := strings.ToLower(ev.Title)
		if idx := strings.LastIndex(title, "with"); idx >= 0 {
			if name := strings.TrimSpace(title[idx+len("with"):]); name != "" {
				contacts.add(name)
			}
		}
	}

	if meetings == 0 {
		return models.DefaultPreferences()
	}

	prefs := models.Preferences{
		PreferredDays:          days.top(3),
		PreferredHours:         hours.top(3),
		AverageDurationMinutes: int(totalMinutes / float64(meetings)),
		FrequentContacts:       contacts.top(10),
	}
	for h := workDayStartHour; h <= workDayEndHour; h++ {
		if !prefs.PrefersHour(h) {
			prefs.BlackoutHours = append(prefs.BlackoutHours, h)
		}
	}
	return prefs
}
