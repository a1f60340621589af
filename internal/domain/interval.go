package domain

import (
	"fmt"
	"time"
)

// dateLayouts are the accepted wire formats for reservation dates.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate parses a reservation date from its wire representation.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", s)
}

// DateInterval is a closed date range [Start, End]. Both endpoints are
// inclusive: an interval ending on a given instant still occupies it, so a
// booking that starts exactly when another ends conflicts with it.
type DateInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateInterval builds a DateInterval, rejecting ranges whose start is
// strictly after their end. Equal endpoints are permitted: a zero-length
// interval is a valid single-instant booking.
func NewDateInterval(start, end time.Time) (DateInterval, error) {
	if start.After(end) {
		return DateInterval{}, fmt.Errorf("interval start %s is after end %s", start, end)
	}
	return DateInterval{Start: start.UTC(), End: end.UTC()}, nil
}

// Overlaps reports whether the two closed intervals intersect. Touching
// endpoints count as an overlap.
func (i DateInterval) Overlaps(other DateInterval) bool {
	return !i.Start.After(other.End) && !i.End.Before(other.Start)
}

// IsZeroLength reports whether the interval covers a single instant.
func (i DateInterval) IsZeroLength() bool {
	return i.Start.Equal(i.End)
}

func (i DateInterval) String() string {
	return fmt.Sprintf("[%s, %s]", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}
