package interval

import (
	"fmt"
	"time"
)

// LocationFor resolves an IANA timezone id. An unparseable id falls back to
// UTC; degraded=true signals the caller to log the defect. Requests still
// proceed against the fallback zone.
func LocationFor(tzID string) (loc *time.Location, degraded bool) {
	if tzID == "" {
		return time.UTC, true
	}
	loc, err := time.LoadLocation(tzID)
	if err != nil {
		return time.UTC, true
	}
	return loc, false
}

// ToLocal converts an absolute instant to the business's wall clock.
func ToLocal(utc time.Time, loc *time.Location) time.Time {
	return utc.In(loc)
}

// ToUTC interprets a wall-clock value (date + minutes since midnight) in the
// given zone and returns the absolute instant. Wall-clock values that fall in
// a DST gap are normalized forward by the zone library; ambiguous values take
// the zone's first offset.
func ToUTC(year int, month time.Month, day, minuteOfDay int, loc *time.Location) time.Time {
	return time.Date(year, month, day, 0, minuteOfDay, 0, 0, loc).UTC()
}

// DayStart returns local midnight of the given local time's calendar date.
func DayStart(local time.Time) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// AtMinute returns the wall-clock instant minuteOfDay minutes after local
// midnight of date's calendar day, in date's location.
func AtMinute(date time.Time, minuteOfDay int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, minuteOfDay, 0, 0, date.Location())
}

// MinuteLabel formats minutes since midnight as "HH:MM".
func MinuteLabel(minuteOfDay int) string {
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}
