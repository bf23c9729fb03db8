package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Stored time-of-day values always look like "HH:mm:00+00".
const timeSuffix = "+00"

var (
	canonicalTime = regexp.MustCompile(`^(\d{2}):(\d{2}):00\+00$`)
	clockTime     = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)
)

// NormalizeTimeOfDay converts clock input to the stored representation.
// "14:45" and "14:45:30" and "14:45:30+05" all become "14:45:00+00": any offset
// suffix is dropped, seconds are truncated and the fixed +00 marker appended.
// Empty input returns "" so callers can store NULL.
func NormalizeTimeOfDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if canonicalTime.MatchString(s) {
		return s, checkClock(s[:2], s[3:5])
	}

	if i := strings.IndexAny(s, "+-"); i >= 0 {
		s = s[:i]
	}
	m := clockTime.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("invalid time of day %q", s)
	}
	if err := checkClock(m[1], m[2]); err != nil {
		return "", err
	}
	return m[1] + ":" + m[2] + ":00" + timeSuffix, nil
}

func checkClock(hh, mm string) error {
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h > 23 || m > 59 {
		return fmt.Errorf("invalid time of day %s:%s", hh, mm)
	}
	return nil
}

// TimeInputValue renders a stored value as "HH:mm" for form inputs.
func TimeInputValue(stored string) string {
	parts := strings.SplitN(strings.SplitN(stored, "+", 2)[0], ":", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + ":" + parts[1]
}

// ClockOn places a stored time of day on the given anchor date in loc.
func ClockOn(stored string, anchor time.Time, loc *time.Location) (time.Time, error) {
	norm, err := NormalizeTimeOfDay(stored)
	if err != nil {
		return time.Time{}, err
	}
	if norm == "" {
		return time.Time{}, fmt.Errorf("empty time of day")
	}
	h, _ := strconv.Atoi(norm[:2])
	m, _ := strconv.Atoi(norm[3:5])
	if loc == nil {
		loc = time.UTC
	}
	y, mo, d := anchor.In(loc).Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc), nil
}

// VisitMinutes is the length of a visit in minutes. A time out earlier than
// the time in is taken to be on the next day.
func VisitMinutes(timeIn, timeOut string) (int, error) {
	anchor := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	start, err := ClockOn(timeIn, anchor, time.UTC)
	if err != nil {
		return 0, err
	}
	end, err := ClockOn(timeOut, anchor, time.UTC)
	if err != nil {
		return 0, err
	}
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	return int(end.Sub(start) / time.Minute), nil
}

// DisplayTimeOfDay renders a stored value as a 12-hour clock reading such as
// "3:04 PM". Values that do not parse are returned unchanged.
func DisplayTimeOfDay(stored string) string {
	t, err := ClockOn(stored, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	if err != nil {
		return stored
	}
	return t.Format("3:04 PM")
}
