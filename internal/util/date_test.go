package util

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	in := time.Date(2025, 3, 10, 15, 42, 7, 123, loc)
	got := StartOfDay(in)
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("StartOfDay(%v) = %v, want %v", in, got, want)
	}
}

func TestParseDateLocal(t *testing.T) {
	got, err := ParseDateLocal("2025-03-10")
	if err != nil {
		t.Fatalf("ParseDateLocal returned error: %v", err)
	}
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("ParseDateLocal = %v, want %v", got, want)
	}

	if _, err := ParseDateLocal("10/03/2025"); err == nil {
		t.Error("expected error for slash-formatted date")
	}
	if _, err := ParseDateLocal(""); err == nil {
		t.Error("expected error for empty date")
	}
}

func TestRebindDate(t *testing.T) {
	utc := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	got := RebindDate(utc)
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("RebindDate(%v) = %v, want %v", utc, got, want)
	}
}

func TestValidTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"09:00", true},
		{"00:00", true},
		{"23:59", true},
		{"9:00", false},
		{"24:00", false},
		{"09:60", false},
		{"0900", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidTimeOfDay(tt.in); got != tt.want {
			t.Errorf("ValidTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCombineDateTime(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	got, err := CombineDateTime(date, "14:30")
	if err != nil {
		t.Fatalf("CombineDateTime returned error: %v", err)
	}
	want := time.Date(2025, 3, 10, 14, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("CombineDateTime = %v, want %v", got, want)
	}

	if _, err := CombineDateTime(date, "25:00"); err == nil {
		t.Error("expected error for out-of-range hour")
	}
}

func TestNextWeekday(t *testing.T) {
	// 2025-03-10 is a Monday.
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	tests := []struct {
		name string
		from time.Time
		wd   time.Weekday
		want time.Time
	}{
		{"same day", monday, time.Monday, monday},
		{"later in week", monday, time.Thursday, monday.AddDate(0, 0, 3)},
		{"wraps to next week", monday, time.Sunday, monday.AddDate(0, 0, 6)},
		{"midday input truncated", monday.Add(13 * time.Hour), time.Monday, monday},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextWeekday(tt.from, tt.wd)
			if !got.Equal(tt.want) {
				t.Errorf("NextWeekday(%v, %v) = %v, want %v", tt.from, tt.wd, got, tt.want)
			}
		})
	}
}
