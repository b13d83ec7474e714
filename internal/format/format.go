// Package format renders agent results and preferences as plain text for the
// interactive CLI and the Telegram front end.
package format

import (
	"fmt"
	"strings"
	"time"

	"calagent/internal/models"
)

const (
	slotLayout    = "Monday, Jan 02 at 03:04 PM"
	meetingLayout = "Monday, Jan 02, 2006 at 03:04 PM"
)

// Result renders a Result for display.
func Result(res models.Result) string {
	var b strings.Builder
	b.WriteString(res.Message)

	switch res.Status {
	case models.StatusCreated, models.StatusRescheduled:
		if res.EventLink != "" {
			fmt.Fprintf(&b, "\nView in calendar: %s", res.EventLink)
		}
		if len(res.Alternatives) > 0 {
			b.WriteString("\n\nAlternative times that would also work:")
			writeSlots(&b, res.Alternatives)
		}
	case models.StatusSuggestions:
		writeSlots(&b, res.Slots)
	case models.StatusMeetings, models.StatusDay:
		for i, m := range res.Meetings {
			fmt.Fprintf(&b, "\n%d. %s - %s", i+1, m.Title, m.StartTime.Format(meetingLayout))
			if m.HTMLLink != "" {
				fmt.Fprintf(&b, "\n   %s", m.HTMLLink)
			}
		}
	case models.StatusAvailability:
		for _, h := range res.Hours {
			status := "Available"
			if h.Busy {
				status = "Busy"
			}
			fmt.Fprintf(&b, "\n%02d:00  %s", h.Hour, status)
		}
	}
	return b.String()
}

func writeSlots(b *strings.Builder, slots []models.CandidateSlot) {
	for i, s := range slots {
		fmt.Fprintf(b, "\n%d. %s", i+1, s.Start.Format(slotLayout))
	}
}

// Preferences renders the learned scheduling preferences.
func Preferences(p models.Preferences) string {
	var b strings.Builder
	b.WriteString("Your scheduling preferences:\n")

	if len(p.PreferredDays) > 0 {
		names := make([]string, len(p.PreferredDays))
		for i, d := range p.PreferredDays {
			names[i] = d.String()
		}
		fmt.Fprintf(&b, "Preferred meeting days: %s\n", strings.Join(names, ", "))
	} else {
		b.WriteString("Preferred meeting days: not enough data\n")
	}

	if len(p.PreferredHours) > 0 {
		hours := make([]string, len(p.PreferredHours))
		for i, h := range p.PreferredHours {
			hours[i] = fmt.Sprintf("%d:00", h)
		}
		fmt.Fprintf(&b, "Preferred meeting times: %s\n", strings.Join(hours, ", "))
	} else {
		b.WriteString("Preferred meeting times: not enough data\n")
	}

	fmt.Fprintf(&b, "Typical meeting duration: %d minutes\n", p.AverageDurationMinutes)

	if len(p.FrequentContacts) > 0 {
		b.WriteString("People you meet with frequently:\n")
		max := len(p.FrequentContacts)
		if max > 5 {
			max = 5
		}
		for _, contact := range p.FrequentContacts[:max] {
			fmt.Fprintf(&b, "- %s\n", contact)
		}
	}
	return b.String()
}

// Agenda renders a day's events as a briefing message.
func Agenda(day time.Time, res models.Result) string {
	if len(res.Meetings) == 0 {
		return fmt.Sprintf("Good morning! No events scheduled for %s.", day.Format("Monday, Jan 02"))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Good morning! Your schedule for %s:", day.Format("Monday, Jan 02"))
	for _, m := range res.Meetings {
		fmt.Fprintf(&b, "\n%s  %s", m.StartTime.Format("03:04 PM"), m.Title)
	}
	return b.String()
}
