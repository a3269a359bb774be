package model

import "time"

// Tokyo is the zone every day boundary is computed in. Japan has no daylight
// saving, so a fixed offset matches Asia/Tokyo without a tz database.
var Tokyo = time.FixedZone("Asia/Tokyo", 9*60*60)

// DayLayout is the calendar day format used for Timestamp values.
const DayLayout = "2006-01-02"

// DayBounds is the half-open interval [Start, End) of one JST calendar day.
type DayBounds struct {
	Start time.Time
	End   time.Time
}

func BoundsFor(t time.Time) DayBounds {
	start := StartOfDay(t)
	return DayBounds{Start: start, End: start.AddDate(0, 0, 1)}
}

func (b DayBounds) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// ContainsPtr reports false for a nil time.
func (b DayBounds) ContainsPtr(t *time.Time) bool {
	return t != nil && b.Contains(*t)
}

// StartOfDay returns midnight JST of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(Tokyo).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Tokyo)
}

// DayString formats the JST calendar day containing t.
func DayString(t time.Time) string {
	return t.In(Tokyo).Format(DayLayout)
}

// ParseDay parses a yyyy-MM-dd string as midnight JST.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, Tokyo)
}

// SameDay reports whether t falls on the JST day containing target.
func SameDay(t *time.Time, target time.Time) bool {
	return BoundsFor(target).ContainsPtr(t)
}
