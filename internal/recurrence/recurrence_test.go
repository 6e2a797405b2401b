package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohsched/office-hours-api/internal/models"
)

func nanos(year int, month time.Month, day, hour, min int) int64 {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC).UnixNano()
}

func weeklySeries() *models.EventSeries {
	return &models.EventSeries{
		ID:              "ser-weekly",
		Title:           "Office Hours",
		Frequency:       models.FrequencyWeekly,
		Weekday:         models.Wednesday,
		StartDateUTC:    nanos(2026, time.February, 4, 14, 0),
		DurationMinutes: 60,
	}
}

func TestExpandWeeklyFebruaryWindow(t *testing.T) {
	series := weeklySeries()

	got := Expand(series, nanos(2026, time.February, 1, 0, 0), nanos(2026, time.March, 1, 0, 0))

	want := []int64{
		nanos(2026, time.February, 4, 14, 0),
		nanos(2026, time.February, 11, 14, 0),
		nanos(2026, time.February, 18, 14, 0),
		nanos(2026, time.February, 25, 14, 0),
	}
	assert.Equal(t, want, got)
}

func TestExpandIsDeterministic(t *testing.T) {
	series := weeklySeries()
	windowStart := nanos(2026, time.February, 1, 0, 0)
	windowEnd := nanos(2026, time.March, 1, 0, 0)

	first := Expand(series, windowStart, windowEnd)
	second := Expand(series, windowStart, windowEnd)

	assert.Equal(t, first, second)
}

func TestExpandWeeklyNeverPrecedesSeriesStart(t *testing.T) {
	series := weeklySeries()

	got := Expand(series, nanos(2026, time.January, 1, 0, 0), nanos(2026, time.February, 12, 0, 0))

	require.Len(t, got, 2)
	assert.Equal(t, nanos(2026, time.February, 4, 14, 0), got[0])
	assert.Equal(t, nanos(2026, time.February, 11, 14, 0), got[1])
}

func TestExpandBiweeklyKeepsPhaseWithSeriesStart(t *testing.T) {
	series := weeklySeries()
	series.Frequency = models.FrequencyBiweekly

	// Window opens one week into the cycle; the occurrence on 02-11 must be
	// skipped because it is off-phase with the 02-04 anchor.
	got := Expand(series, nanos(2026, time.February, 8, 0, 0), nanos(2026, time.March, 20, 0, 0))

	want := []int64{
		nanos(2026, time.February, 18, 14, 0),
		nanos(2026, time.March, 4, 14, 0),
		nanos(2026, time.March, 18, 14, 0),
	}
	assert.Equal(t, want, got)
}

func TestExpandRespectsSeriesEndDate(t *testing.T) {
	series := weeklySeries()
	end := nanos(2026, time.February, 18, 0, 0)
	series.EndDateUTC = &end

	got := Expand(series, nanos(2026, time.February, 1, 0, 0), nanos(2026, time.March, 1, 0, 0))

	want := []int64{
		nanos(2026, time.February, 4, 14, 0),
		nanos(2026, time.February, 11, 14, 0),
	}
	assert.Equal(t, want, got)
}

func TestExpandMonthlySecondTuesday(t *testing.T) {
	ordinal := models.OrdinalSecond
	series := &models.EventSeries{
		ID:             "ser-monthly",
		Frequency:      models.FrequencyMonthly,
		Weekday:        models.Tuesday,
		WeekdayOrdinal: &ordinal,
		StartDateUTC:   nanos(2026, time.January, 1, 9, 30),
	}

	got := Expand(series, nanos(2026, time.January, 1, 0, 0), nanos(2027, time.January, 1, 0, 0))

	require.Len(t, got, 12)
	for _, occ := range got {
		ts := time.Unix(0, occ).UTC()
		assert.Equal(t, time.Tuesday, ts.Weekday())
		assert.GreaterOrEqual(t, ts.Day(), 8)
		assert.LessOrEqual(t, ts.Day(), 14)
		assert.Equal(t, 9, ts.Hour())
		assert.Equal(t, 30, ts.Minute())
	}
}

func TestExpandMonthlyLastFridayAlwaysResolves(t *testing.T) {
	ordinal := models.OrdinalLast
	series := &models.EventSeries{
		ID:             "ser-last-friday",
		Frequency:      models.FrequencyMonthly,
		Weekday:        models.Friday,
		WeekdayOrdinal: &ordinal,
		StartDateUTC:   nanos(2026, time.January, 1, 16, 0),
	}

	got := Expand(series, nanos(2026, time.January, 1, 0, 0), nanos(2026, time.July, 1, 0, 0))

	require.Len(t, got, 6)
	// February 2026: last Friday is the 27th.
	assert.Equal(t, nanos(2026, time.February, 27, 16, 0), got[1])
	for _, occ := range got {
		ts := time.Unix(0, occ).UTC()
		assert.Equal(t, time.Friday, ts.Weekday())
		assert.Greater(t, ts.AddDate(0, 0, 7).Month(), ts.Month())
	}
}

func TestExpandEmptyAndInvertedWindows(t *testing.T) {
	series := weeklySeries()

	assert.Empty(t, Expand(series, nanos(2026, time.March, 1, 0, 0), nanos(2026, time.March, 1, 0, 0)))
	assert.Empty(t, Expand(series, nanos(2026, time.March, 1, 0, 0), nanos(2026, time.February, 1, 0, 0)))
	assert.Empty(t, Expand(series, nanos(2025, time.January, 1, 0, 0), nanos(2025, time.February, 1, 0, 0)))
}

func TestInstanceIDStableAndDistinct(t *testing.T) {
	start := nanos(2026, time.February, 4, 14, 0)

	first := InstanceID("ser-weekly", start)
	second := InstanceID("ser-weekly", start)

	assert.Equal(t, first, second)
	assert.Len(t, first, 32)
	assert.NotEqual(t, first, InstanceID("ser-weekly", start+int64(time.Hour)))
	assert.NotEqual(t, first, InstanceID("ser-other", start))
}

func TestWindowEndAdvancesToEndOfMonth(t *testing.T) {
	from := nanos(2026, time.January, 15, 10, 0)

	got := WindowEnd(from, 2)

	assert.Equal(t, nanos(2026, time.April, 1, 0, 0)-1, got)
}

func TestWindowEndCrossesYearBoundary(t *testing.T) {
	from := nanos(2026, time.November, 20, 0, 0)

	got := WindowEnd(from, 2)

	assert.Equal(t, nanos(2027, time.February, 1, 0, 0)-1, got)
}
