package utils

import (
	"testing"
	"time"
)

func TestRollWeekend(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2025-04-05", "2025-04-07"}, // Saturday
		{"2025-04-06", "2025-04-07"}, // Sunday
		{"2025-04-07", "2025-04-07"},
		{"2025-04-09", "2025-04-09"},
		{"2025-04-11", "2025-04-11"}, // Friday
		{"2025-05-31", "2025-06-02"}, // Saturday across a month boundary
	}
	for _, tt := range tests {
		in, _ := time.Parse(DefaultDateFormat, tt.in)
		got := RollWeekend(in).Format(DefaultDateFormat)
		if got != tt.want {
			t.Errorf("RollWeekend(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2025, 4, 5, 23, 30, 0, 0, time.UTC) // already the 6th in CET
	got := Today(now, loc)
	if got.Format(DefaultDateFormat) != "2025-04-06" || got.Hour() != 0 {
		t.Fatalf("Today = %v", got)
	}
}

func TestSameWeekdayBack(t *testing.T) {
	d, _ := time.Parse(DefaultDateFormat, "2025-04-07")
	got := SameWeekdayBack(d, 3)
	want := []string{"2025-03-31", "2025-03-24", "2025-03-17"}
	for i := range want {
		if got[i].Format(DefaultDateFormat) != want[i] {
			t.Errorf("week %d: got %s want %s", i+1, got[i].Format(DefaultDateFormat), want[i])
		}
		if got[i].Weekday() != d.Weekday() {
			t.Errorf("week %d: weekday changed", i+1)
		}
	}
}

func TestPreviousBusinessDay(t *testing.T) {
	tests := map[string]string{
		"2025-04-07": "2025-04-04", // Monday -> Friday
		"2025-04-08": "2025-04-07",
		"2025-04-06": "2025-04-04", // Sunday -> Friday
	}
	for in, want := range tests {
		d, _ := time.Parse(DefaultDateFormat, in)
		if got := PreviousBusinessDay(d).Format(DefaultDateFormat); got != want {
			t.Errorf("PreviousBusinessDay(%s) = %s, want %s", in, got, want)
		}
	}
}
