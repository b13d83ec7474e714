package agent

import (
	"math"
	"sort"
	"time"

	"calagent/internal/models"
)

const (
	preferredHourBonus = 10
	preferredDayBonus  = 5
	maxCandidates      = 3
)

// FindOptimalSlots enumerates hourly candidate slots between rangeStart and
// rangeEnd (inclusive, by calendar day), filters out slots that are in the
// past, in a blackout hour, or overlapping a busy interval, and scores the
// rest against the learned preferences. It returns at most the 3 best slots,
// best first. Ties keep enumeration order (earlier day, then earlier hour).
//
// The function is pure: identical inputs always produce identical output.
func FindOptimalSlots(prefs models.Preferences, rangeStart, rangeEnd time.Time, durationMinutes int, busy []models.BusyInterval, now time.Time) []models.CandidateSlot {
	duration := time.Duration(durationMinutes) * time.Minute
	var candidates []models.CandidateSlot

	for day := startOfDay(rangeStart); !day.After(startOfDay(rangeEnd)); day = day.AddDate(0, 0, 1) {
		if len(prefs.PreferredDays) > 0 && !prefs.PrefersDay(day.Weekday()) {
			continue
		}
		for hour := workDayStartHour; hour <= workDayEndHour; hour++ {
			if prefs.IsBlackout(hour) {
				continue
			}
			start := day.Add(time.Duration(hour) * time.Hour)
			end := start.Add(duration)
			if !start.After(now) {
				continue
			}
			if overlapsAny(busy, start, end) {
				continue
			}

			score := 0
			if prefs.PrefersHour(hour) {
				score += preferredHourBonus
			}
			if prefs.PrefersDay(start.Weekday()) {
				score += preferredDayBonus
			}
			// Sooner is better, all else equal.
			score -= daysBetween(now, start)

			candidates = append(candidates, models.CandidateSlot{Start: start, End: end, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}

// NextSameDaySlot looks for the first free slot at or after start, stepping
// one hour at a time, and gives up after maxAttempts tries. The search never
// crosses into the next calendar day; a candidate that would end past
// midnight stops the search. The returned slot is zero if none was found.
func NextSameDaySlot(start time.Time, duration time.Duration, maxAttempts int, isFree func(start, end time.Time) (bool, error)) (time.Time, time.Time, error) {
	dayEnd := startOfDay(start).AddDate(0, 0, 1)
	for i := 0; i < maxAttempts; i++ {
		candStart := start.Add(time.Duration(i) * time.Hour)
		candEnd := candStart.Add(duration)
		if !candStart.Before(dayEnd) || candEnd.After(dayEnd) {
			break
		}
		free, err := isFree(candStart, candEnd)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if free {
			return candStart, candEnd, nil
		}
	}
	return time.Time{}, time.Time{}, nil
}

func overlapsAny(busy []models.BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a's date to b's date. Rounding
// absorbs DST transitions, which make some days 23 or 25 hours long.
func daysBetween(a, b time.Time) int {
	return int(math.Round(startOfDay(b.In(a.Location())).Sub(startOfDay(a)).Hours() / 24))
}
