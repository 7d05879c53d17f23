package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// The simulation clock counts integer seconds on a day scale. Instance data
// and configuration express instants as HH:MM:SS wall-clock strings; these
// helpers convert between the two.

// FormatClock renders a simulated timestamp as HH:MM:SS. Timestamps past
// midnight keep counting hours (25:10:00) so a spilled-over shift stays
// readable in the trace.
func FormatClock(sec int64) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// ParseClock parses an HH:MM:SS string into seconds since midnight.
func ParseClock(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock value %q: want HH:MM:SS", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid hour in clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in clock value %q", s)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid second in clock value %q", s)
	}

	return int64(h)*3600 + int64(m)*60 + int64(sec), nil
}

// HourOf returns the hour-of-day index (0..23) for a simulated timestamp.
func HourOf(sec int64) int {
	h := (sec / 3600) % 24
	if h < 0 {
		h += 24
	}
	return int(h)
}

// Hours converts simulated seconds into fractional hours.
func Hours(sec int64) float64 {
	return float64(sec) / 3600.0
}
