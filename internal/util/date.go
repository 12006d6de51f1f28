package util

import (
	"fmt"
	"time"
)

// loc is the location all occurrence dates are normalized in. Defaults to
// the process-local zone; SetLocation overrides it at startup.
var loc = time.Local

func SetLocation(l *time.Location) {
	if l != nil {
		loc = l
	}
}

func Location() *time.Location {
	return loc
}

// StartOfDay truncates t to midnight in the schedule location.
func StartOfDay(t time.Time) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// RebindDate reinterprets t's calendar date as midnight in the schedule
// location. Used when scanning DATE columns, which arrive as UTC midnights
// regardless of the schedule zone.
func RebindDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDateLocal parses a YYYY-MM-DD string as midnight in the schedule location.
func ParseDateLocal(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.In(loc).Format("2006-01-02")
}

// ValidTimeOfDay reports whether s is a zero-padded HH:MM clock time.
// Zero padding matters: every comparison on times of day is lexical.
func ValidTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// CombineDateTime merges an occurrence date with an HH:MM time of day.
func CombineDateTime(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	date = date.In(loc)
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// NextWeekday returns the first date on or after from that falls on wd.
func NextWeekday(from time.Time, wd time.Weekday) time.Time {
	from = StartOfDay(from)
	diff := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, diff)
}
