package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // reference zone must resolve on minimal images
)

const (
	DefaultTimezone  = "Asia/Kolkata"
	DefaultStartHour = 20
	DefaultEndHour   = 24
)

var ErrInvalidCommitTime = errors.New("invalid commit time")

// Window decides whether a user's track may fire at a given moment. It keeps
// no memory between evaluations; the daily quota stops repeat firing.
type Window struct {
	Location         *time.Location
	DefaultStartHour int
	DefaultEndHour   int
}

func NewWindow(timezone string, startHour, endHour int) (Window, error) {
	if strings.TrimSpace(timezone) == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Window{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return Window{}, fmt.Errorf("invalid default window %d-%d", startHour, endHour)
	}
	return Window{Location: loc, DefaultStartHour: startHour, DefaultEndHour: endHour}, nil
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

func (w Window) Local(now time.Time) time.Time {
	return now.In(w.location())
}

// StartOfDay returns local midnight of now in the reference zone.
func (w Window) StartOfDay(now time.Time) time.Time {
	local := w.Local(now)
	year, month, day := local.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, w.location())
}

// ShouldRunNow reports whether now falls inside the firing window. With a
// preference the window opens at today's HH:MM and stays open until local
// midnight; without one the default hour range applies.
func (w Window) ShouldRunNow(now time.Time, commitTime *string) (bool, error) {
	local := w.Local(now)

	if commitTime != nil && strings.TrimSpace(*commitTime) != "" {
		hour, minute, err := ParseCommitTime(*commitTime)
		if err != nil {
			return false, err
		}
		year, month, day := local.Date()
		target := time.Date(year, month, day, hour, minute, 0, 0, w.location())
		return !local.Before(target), nil
	}

	hour := local.Hour()
	return hour >= w.DefaultStartHour && hour < w.DefaultEndHour, nil
}

// ParseCommitTime accepts "HH:MM" and "HH:MM:SS". Seconds are validated and
// then dropped.
func ParseCommitTime(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, fmt.Errorf("%w %q", ErrInvalidCommitTime, value)
	}

	limits := []int{23, 59, 59}
	fields := make([]int, len(parts))
	for i, part := range parts {
		if len(part) == 0 || len(part) > 2 || !isDigits(part) {
			return 0, 0, fmt.Errorf("%w %q", ErrInvalidCommitTime, value)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n > limits[i] {
			return 0, 0, fmt.Errorf("%w %q", ErrInvalidCommitTime, value)
		}
		fields[i] = n
	}
	return fields[0], fields[1], nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
