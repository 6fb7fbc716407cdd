// Package timeofday handles the wall-clock values stored on availability rules and bookings:
// "HH:MM" times of day, "YYYY-MM-DD" calendar dates, and minute intervals that may wrap
// past midnight.
package timeofday

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	MinutesPerDay   = 24 * 60
	DateLayout      = "2006-01-02"
	PlaceholderTime = "00:00"
)

var reHHMM = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Parse converts "HH:MM" to minutes since midnight.
func Parse(hhmm string) (int, error) {
	if !reHHMM.MatchString(hhmm) {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", hhmm)
	}
	h, _ := strconv.Atoi(hhmm[:2])
	m, _ := strconv.Atoi(hhmm[3:])
	return h*60 + m, nil
}

func IsValid(hhmm string) bool {
	return reHHMM.MatchString(hhmm)
}

// Format renders minutes as "HH:MM", normalising into a single day.
func Format(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Interval is a half-open minute range on an unwrapped line: Start in [0,1440), End may
// exceed 1440 when the range crosses midnight.
type Interval struct {
	Start int
	End   int
}

func NewInterval(start, end int) Interval {
	if end <= start {
		end += MinutesPerDay
	}
	return Interval{Start: start, End: end}
}

// ParseInterval parses "HH:MM" bounds into an Interval.
func ParseInterval(start, end string) (Interval, error) {
	s, err := Parse(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := Parse(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e), nil
}

func (i Interval) Len() int {
	return i.End - i.Start
}

func (i Interval) Shift(minutes int) Interval {
	return Interval{Start: i.Start + minutes, End: i.End + minutes}
}

// Overlaps reports half-open overlap on the unwrapped line.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// Touches is Overlaps with inclusive bounds: 09:00-10:00 touches 10:00-11:00.
func (i Interval) Touches(o Interval) bool {
	return i.Start <= o.End && o.Start <= i.End
}

func (i Interval) Contains(o Interval) bool {
	return i.Start <= o.Start && o.End <= i.End
}

// ConflictsWithin reports whether two intervals on the same day key collide, also comparing
// the next-day tail of either one against the other.
func ConflictsWithin(a, b Interval, inclusive bool) bool {
	cmp := Interval.Overlaps
	if inclusive {
		cmp = Interval.Touches
	}
	return cmp(a, b) || cmp(a, b.Shift(MinutesPerDay)) || cmp(a.Shift(MinutesPerDay), b)
}

func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return t, nil
}

func IsValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// Weekday returns 0 (Sunday) through 6 (Saturday).
func Weekday(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

func AddDays(date string, days int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(DateLayout), nil
}

// Today is the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}

// At returns the instant of minutes-after-midnight on date in loc. Minutes may exceed a day.
func At(date string, minutes int, loc *time.Location) (time.Time, error) {
	t, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return midnight.Add(time.Duration(minutes) * time.Minute), nil
}

// StartOf is At for a "HH:MM" value.
func StartOf(date, hhmm string, loc *time.Location) (time.Time, error) {
	m, err := Parse(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return At(date, m, loc)
}

// DatesBetween expands an inclusive range into calendar dates. The range may not exceed max days.
func DatesBetween(from, to string, max int) ([]string, error) {
	start, err := ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s is before start %s", to, from)
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > max {
		return nil, fmt.Errorf("range of %d days exceeds the limit of %d", days, max)
	}

	out := make([]string, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out, nil
}

// LoadLocation resolves an IANA name, falling back when the name is empty or unknown.
func LoadLocation(name string, fallback *time.Location) *time.Location {
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}
