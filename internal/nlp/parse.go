// Package nlp maps free-text calendar commands to a fixed set of intents
// using ordered pattern rules. The first matching rule wins, so rule order is
// part of the observable behavior.
package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Intent identifies what the user asked the agent to do.
type Intent string

const (
	IntentSchedule          Intent = "schedule"
	IntentSuggest           Intent = "suggest"
	IntentFindMeetings      Intent = "find_meetings"
	IntentViewDay           Intent = "view_day"
	IntentCheckAvailability Intent = "check_availability"
	IntentUnknown           Intent = "unknown"
)

// Command is the structured form of a free-text request.
type Command struct {
	Intent Intent
	Person string
	// When is the explicit date/time of a schedule request, nil when the
	// caller left the time to the agent.
	When *time.Time
	// Day is the target day of a view-day or check-availability request.
	Day time.Time
	// RangeStart/RangeEnd bound a find-meetings query.
	RangeStart time.Time
	RangeEnd   time.Time
	// DurationMinutes is 0 when no duration was given.
	DurationMinutes int
}

var (
	reFind      = regexp.MustCompile(`(?:find|show).*(?:meeting|appointment).*with\s+\w+`)
	rePersonRef = regexp.MustCompile(`\b(?:with|and)\s+(\w+(?:\s+\w+)?)`)
	reViewDay   = regexp.MustCompile(`(?:show|view|display|what).*(?:calendar|schedule|meeting).*(?:for|on)\s+\w+`)
	reFree      = regexp.MustCompile(`(?:when|what time).*(?:free|available)|check.*availability|am i free`)
	reSchedule  = regexp.MustCompile(`(?:schedule|find a time for|set up|arrange)\s+(?:a\s+)?(?:meeting\s+)?with\s+([\w\s]+)`)
	reSuggest   = regexp.MustCompile(`(?:suggest|recommend|what are good times).*with\s+([\w\s]+)`)
	reAtClause  = regexp.MustCompile(`\b(?:on|at)\s+([\w\s,:-]+(?:am|pm)?)`)
	reClockTime = regexp.MustCompile(`(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
	reDuration  = regexp.MustCompile(`\bfor\s+(\d+)\s+(minute|min|hour|hr)s?`)
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// weekdayOrder fixes the resolution order when a command names more than one
// weekday: the first name in this list that appears in the text wins.
var weekdayOrder = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// cueWords end a person name inside a schedule phrase; everything from the
// first cue word on belongs to the date/time or duration clauses.
var cueWords = map[string]bool{
	"on": true, "at": true, "for": true, "today": true, "tomorrow": true,
	"next": true, "this": true,
}

// Parse interprets a free-text command. The returned error is non-nil only
// when the intent was recognized but a required date/time could not be
// understood; the caller should surface it verbatim.
func Parse(text string, now time.Time, loc *time.Location) (Command, error) {
	cmd := strings.ToLower(strings.TrimSpace(text))
	now = now.In(loc)

	switch {
	case reFind.MatchString(cmd):
		return parseFind(cmd, now, loc)
	case reViewDay.MatchString(cmd):
		return parseViewDay(cmd, now, loc)
	case reFree.MatchString(cmd):
		return parseAvailability(cmd, now, loc)
	case reSchedule.MatchString(cmd):
		return parseSchedule(cmd, now, loc)
	case reSuggest.MatchString(cmd):
		m := reSuggest.FindStringSubmatch(cmd)
		return Command{Intent: IntentSuggest, Person: trimPersonName(m[1])}, nil
	}
	return Command{Intent: IntentUnknown}, nil
}

func parseFind(cmd string, now time.Time, loc *time.Location) (Command, error) {
	c := Command{Intent: IntentFindMeetings}
	if m := rePersonRef.FindStringSubmatch(cmd); m != nil {
		c.Person = trimPersonName(m[1])
	}

	today := startOfDay(now)
	switch {
	case strings.Contains(cmd, "today"):
		c.RangeStart, c.RangeEnd = today, endOfDay(today)
	case strings.Contains(cmd, "tomorrow"):
		t := today.AddDate(0, 0, 1)
		c.RangeStart, c.RangeEnd = t, endOfDay(t)
	case strings.Contains(cmd, "this week"):
		// Week starts on Monday.
		offset := (int(now.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		c.RangeStart, c.RangeEnd = start, endOfDay(start.AddDate(0, 0, 6))
	case strings.Contains(cmd, "this month"):
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		c.RangeStart, c.RangeEnd = first, endOfDay(first.AddDate(0, 1, -1))
	default:
		c.RangeStart, c.RangeEnd = now, now.AddDate(0, 0, 30)
	}
	return c, nil
}

func parseViewDay(cmd string, now time.Time, loc *time.Location) (Command, error) {
	day, ok := extractDay(cmd, now)
	if !ok {
		return Command{Intent: IntentViewDay},
			fmt.Errorf("could not understand the date in the request")
	}
	return Command{Intent: IntentViewDay, Day: day}, nil
}

func parseAvailability(cmd string, now time.Time, loc *time.Location) (Command, error) {
	day, ok := extractDay(cmd, now)
	if !ok {
		// No date mentioned: availability checks default to tomorrow.
		day = startOfDay(now).AddDate(0, 0, 1)
	}
	return Command{Intent: IntentCheckAvailability, Day: day}, nil
}

func parseSchedule(cmd string, now time.Time, loc *time.Location) (Command, error) {
	m := reSchedule.FindStringSubmatch(cmd)
	c := Command{Intent: IntentSchedule, Person: trimPersonName(m[1])}

	if dm := reDuration.FindStringSubmatch(cmd); dm != nil {
		n, _ := strconv.Atoi(dm[1])
		if strings.HasPrefix(dm[2], "hour") || strings.HasPrefix(dm[2], "hr") {
			n *= 60
		}
		c.DurationMinutes = n
	}

	at := reAtClause.FindStringSubmatch(cmd)
	if at == nil {
		// No explicit time: the agent picks the optimal slot.
		return c, nil
	}

	tm := reClockTime.FindStringSubmatch(cmd)
	if tm == nil {
		return c, fmt.Errorf("could not understand the date/time: %s", strings.TrimSpace(at[1]))
	}
	hour, _ := strconv.Atoi(tm[1])
	minute := 0
	if tm[2] != "" {
		minute, _ = strconv.Atoi(tm[2])
	}
	if hour < 1 || hour > 12 || minute > 59 {
		return c, fmt.Errorf("could not understand the date/time: %s", strings.TrimSpace(at[1]))
	}
	switch tm[3] {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	day, ok := extractDay(cmd, now)
	if !ok {
		day = startOfDay(now)
	}
	when := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	c.When = &when
	return c, nil
}

// extractDay resolves "today", "tomorrow" and weekday names (with an
// optional "next") against now's calendar day. Weekday names are checked
// monday through sunday, so that order decides when several are present.
func extractDay(cmd string, now time.Time) (time.Time, bool) {
	today := startOfDay(now)
	if strings.Contains(cmd, "today") {
		return today, true
	}
	if strings.Contains(cmd, "tomorrow") {
		return today.AddDate(0, 0, 1), true
	}
	for _, name := range weekdayOrder {
		if !strings.Contains(cmd, name) {
			continue
		}
		wd := weekdayNames[name]
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 && strings.Contains(cmd, "next") {
			ahead = 7
		}
		return today.AddDate(0, 0, ahead), true
	}
	return time.Time{}, false
}

// trimPersonName cuts a greedy person match at the first date/duration cue
// word, e.g. "alex tomorrow at 2pm" -> "alex".
func trimPersonName(s string) string {
	words := strings.Fields(s)
	var kept []string
	for _, w := range words {
		_, isDay := weekdayNames[w]
		if cueWords[w] || isDay {
			break
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Second)
}
