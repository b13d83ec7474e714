package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calagent/internal/models"
)

func TestFindOptimalSlotsNeverOverlapsBusy(t *testing.T) {
	now := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC) // Monday morning
	rangeStart := now
	rangeEnd := now.AddDate(0, 0, 6)
	busy := []models.BusyInterval{
		{Start: time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC), End: time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)},
		{Start: time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC), End: time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)},
		{Start: time.Date(2025, 6, 11, 16, 0, 0, 0, time.UTC), End: time.Date(2025, 6, 11, 18, 0, 0, 0, time.UTC)},
	}

	for _, durationMin := range []int{30, 60, 120, 540} {
		slots := FindOptimalSlots(models.DefaultPreferences(), rangeStart, rangeEnd, durationMin, busy, now)
		for _, s := range slots {
			for _, b := range busy {
				assert.False(t, b.Overlaps(s.Start, s.End),
					"slot %v-%v overlaps busy %v-%v (duration %d)", s.Start, s.End, b.Start, b.End, durationMin)
			}
		}
	}
}

func TestFindOptimalSlotsTouchingBusyEndIsNotConflict(t *testing.T) {
	now := time.Date(2025, 6, 9, 7, 0, 0, 0, time.UTC)
	day := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	// Busy 10:00-11:00. A 60-minute slot at 09:00 ends exactly at the busy
	// start and must survive; so must the 11:00 slot.
	busy := []models.BusyInterval{
		{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
	}

	slots := FindOptimalSlots(models.DefaultPreferences(), day, day, 60, busy, now)
	starts := make([]int, len(slots))
	for i, s := range slots {
		starts[i] = s.Start.Hour()
	}
	assert.Equal(t, []int{9, 11, 12}, starts)
}

func TestFindOptimalSlotsSortedAndCapped(t *testing.T) {
	now := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	prefs := models.Preferences{
		PreferredHours:         []int{14},
		AverageDurationMinutes: 60,
	}

	slots := FindOptimalSlots(prefs, now, now.AddDate(0, 0, 6), 60, nil, now)
	require.Len(t, slots, 3)
	for i := 1; i < len(slots); i++ {
		assert.GreaterOrEqual(t, slots[i-1].Score, slots[i].Score)
	}
	// The preferred hour today outranks everything else.
	assert.Equal(t, 14, slots[0].Start.Hour())
}

func TestFindOptimalSlotsPreferredWeekdaysOnly(t *testing.T) {
	now := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC) // Monday
	prefs := models.Preferences{
		PreferredDays:          []time.Weekday{time.Tuesday, time.Thursday},
		AverageDurationMinutes: 60,
	}

	slots := FindOptimalSlots(prefs, now, now.AddDate(0, 0, 6), 60, nil, now)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.Contains(t, []time.Weekday{time.Tuesday, time.Thursday}, s.Start.Weekday())
	}
}

func TestFindOptimalSlotsDefaultsPickSoonest(t *testing.T) {
	// No preferences: every slot scores -daysFromNow, so the earliest free
	// hours of the earliest day win.
	now := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	busy := []models.BusyInterval{
		{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)},
	}

	slots := FindOptimalSlots(models.DefaultPreferences(), day, day.AddDate(0, 0, 3), 60, busy, now)
	require.Len(t, slots, 3)
	assert.Equal(t, day.Add(10*time.Hour), slots[0].Start)
	assert.Equal(t, day.Add(11*time.Hour), slots[1].Start)
	assert.Equal(t, day.Add(12*time.Hour), slots[2].Start)
}

func TestFindOptimalSlotsSkipsPastAndBlackout(t *testing.T) {
	now := time.Date(2025, 6, 9, 11, 0, 0, 0, time.UTC)
	day := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	prefs := models.Preferences{
		BlackoutHours:          []int{12, 13},
		AverageDurationMinutes: 60,
	}

	slots := FindOptimalSlots(prefs, day, day, 60, nil, now)
	require.Len(t, slots, 3)
	// 9..11 are in the past (start <= now), 12 and 13 are blacked out.
	assert.Equal(t, 14, slots[0].Start.Hour())
	assert.Equal(t, 15, slots[1].Start.Hour())
	assert.Equal(t, 16, slots[2].Start.Hour())
}

func TestFindOptimalSlotsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	prefs := models.Preferences{
		PreferredDays:          []time.Weekday{time.Wednesday},
		PreferredHours:         []int{10, 11},
		AverageDurationMinutes: 45,
	}
	busy := []models.BusyInterval{
		{Start: time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC), End: time.Date(2025, 6, 11, 11, 0, 0, 0, time.UTC)},
	}

	first := FindOptimalSlots(prefs, now, now.AddDate(0, 0, 8), 45, busy, now)
	second := FindOptimalSlots(prefs, now, now.AddDate(0, 0, 8), 45, busy, now)
	assert.Equal(t, first, second)
}

func TestNextSameDaySlot(t *testing.T) {
	start := time.Date(2025, 6, 11, 14, 0, 0, 0, time.UTC)

	t.Run("finds first free hour", func(t *testing.T) {
		busyUntil := start.Add(2 * time.Hour)
		gotStart, gotEnd, err := NextSameDaySlot(start, time.Hour, sameDayAttempts, func(s, e time.Time) (bool, error) {
			return !s.Before(busyUntil), nil
		})
		require.NoError(t, err)
		assert.Equal(t, busyUntil, gotStart)
		assert.Equal(t, busyUntil.Add(time.Hour), gotEnd)
	})

	t.Run("never crosses midnight", func(t *testing.T) {
		late := time.Date(2025, 6, 11, 22, 0, 0, 0, time.UTC)
		gotStart, _, err := NextSameDaySlot(late, 90*time.Minute, sameDayAttempts, func(s, e time.Time) (bool, error) {
			return false, nil
		})
		require.NoError(t, err)
		assert.True(t, gotStart.IsZero())
	})

	t.Run("gives up after exhausting attempts", func(t *testing.T) {
		var probes int
		gotStart, _, err := NextSameDaySlot(start.Add(-5*time.Hour), time.Hour, sameDayAttempts, func(s, e time.Time) (bool, error) {
			probes++
			return false, nil
		})
		require.NoError(t, err)
		assert.True(t, gotStart.IsZero())
		assert.Equal(t, sameDayAttempts, probes)
	})
}
