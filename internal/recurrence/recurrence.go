// Package recurrence materializes occurrence timestamps for event series.
// It is pure and clock-free: callers supply the window, the engine returns
// ordered UTC-nanosecond starts plus deterministic instance identifiers.
package recurrence

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/ohsched/office-hours-api/internal/models"
)

const day = 24 * time.Hour

// Expand returns the ordered occurrence start timestamps of a series that
// fall inside [windowStart, windowEnd). Occurrences never precede the series
// start date and are truncated by the series end date when one is set.
// Weekly and biweekly series keep phase with the series start date, so a
// biweekly series always lands on start + k*14d regardless of the window.
func Expand(series *models.EventSeries, windowStart, windowEnd int64) []int64 {
	if series == nil || windowStart >= windowEnd {
		return nil
	}

	effStart := windowStart
	if series.StartDateUTC > effStart {
		effStart = series.StartDateUTC
	}
	effEnd := windowEnd
	if series.EndDateUTC != nil && *series.EndDateUTC < effEnd {
		effEnd = *series.EndDateUTC
	}
	if effStart >= effEnd {
		return nil
	}

	switch series.Frequency {
	case models.FrequencyMonthly:
		return expandMonthly(series, effStart, effEnd)
	case models.FrequencyBiweekly:
		return expandStepped(series, effStart, effEnd, 14)
	default:
		return expandStepped(series, effStart, effEnd, 7)
	}
}

// expandStepped handles weekly and biweekly series. The anchor is the first
// occurrence of the series weekday on or after the series start date, with
// the start date's time of day preserved.
func expandStepped(series *models.EventSeries, effStart, effEnd int64, stepDays int) []int64 {
	anchor := firstOnOrAfter(series.StartDateUTC, series.Weekday)
	interval := int64(stepDays) * int64(day)

	occ := anchor
	if effStart > anchor {
		steps := (effStart - anchor + interval - 1) / interval
		occ = anchor + steps*interval
	}

	var out []int64
	for ; occ < effEnd; occ += interval {
		out = append(out, occ)
	}
	return out
}

// expandMonthly emits the Nth weekday of each calendar month touched by the
// window, carrying the series start date's time of day onto each occurrence.
func expandMonthly(series *models.EventSeries, effStart, effEnd int64) []int64 {
	ordinal := models.OrdinalFirst
	if series.WeekdayOrdinal != nil {
		ordinal = *series.WeekdayOrdinal
	}
	timeOfDay := nanosIntoDay(series.StartDateUTC)

	cursor := time.Unix(0, effStart).UTC()
	last := time.Unix(0, effEnd-1).UTC()

	var out []int64
	for year, month := cursor.Year(), cursor.Month(); ; {
		if dayStart, ok := nthWeekdayOfMonth(year, month, series.Weekday, ordinal); ok {
			occ := dayStart + timeOfDay
			if occ >= effStart && occ < effEnd {
				out = append(out, occ)
			}
		}
		if year > last.Year() || (year == last.Year() && month >= last.Month()) {
			break
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return out
}

// InstanceID derives the stable identifier of an occurrence from its series
// id and start timestamp. The id is independent of window boundaries, so a
// given occurrence resolves to the same instance across projections.
func InstanceID(seriesID string, startUTC int64) string {
	h := sha256.New()
	h.Write([]byte(seriesID))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(startUTC))
	h.Write(ts[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// WindowEnd advances from the given timestamp by the configured number of
// calendar months and returns the final nanosecond of that month.
func WindowEnd(from int64, months int) int64 {
	t := time.Unix(0, from).UTC()
	firstOfNext := time.Date(t.Year(), t.Month()+time.Month(months)+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.UnixNano() - 1
}

// firstOnOrAfter returns the first timestamp on or after ts whose UTC date
// falls on the requested weekday, preserving the time of day of ts.
func firstOnOrAfter(ts int64, weekday models.Weekday) int64 {
	t := time.Unix(0, ts).UTC()
	diff := (int(toTimeWeekday(weekday)) - int(t.Weekday()) + 7) % 7
	return ts + int64(diff)*int64(day)
}

// nthWeekdayOfMonth resolves the requested ordinal weekday to the start of
// that day in UTC nanoseconds. OrdinalLast always resolves; the counted
// ordinals are guarded against months too short to contain them.
func nthWeekdayOfMonth(year int, month time.Month, weekday models.Weekday, ordinal models.WeekdayOrdinal) (int64, bool) {
	target := toTimeWeekday(weekday)
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	if ordinal == models.OrdinalLast {
		lastOfMonth := time.Date(year, month, daysInMonth, 0, 0, 0, 0, time.UTC)
		back := (int(lastOfMonth.Weekday()) - int(target) + 7) % 7
		return time.Date(year, month, daysInMonth-back, 0, 0, 0, 0, time.UTC).UnixNano(), true
	}

	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(target) - int(firstOfMonth.Weekday()) + 7) % 7
	dayOfMonth := 1 + offset + (int(ordinal)-1)*7
	if dayOfMonth > daysInMonth {
		return 0, false
	}
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC).UnixNano(), true
}

// toTimeWeekday maps the Monday-based domain weekday onto time.Weekday.
func toTimeWeekday(w models.Weekday) time.Weekday {
	return time.Weekday((int(w) + 1) % 7)
}

func nanosIntoDay(ts int64) int64 {
	t := time.Unix(0, ts).UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return ts - midnight.UnixNano()
}
