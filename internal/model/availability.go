package model

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day, independent of any date.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (ClockTime, error) {
	var c ClockTime
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
	}
	return c, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// On anchors the clock time to a calendar date, in that date's
// location.
func (c ClockTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

// DaySchedule is the working window for one day: open/close plus an
// optional break that must lie inside the window.
type DaySchedule struct {
	Working    bool       `json:"working"`
	Start      ClockTime  `json:"start"`
	End        ClockTime  `json:"end"`
	BreakStart *ClockTime `json:"break_start,omitempty"`
	BreakEnd   *ClockTime `json:"break_end,omitempty"`
}

// Validate enforces start < end and break-within-window.
func (d DaySchedule) Validate() error {
	if !d.Working {
		return nil
	}
	if d.Start.Minutes() >= d.End.Minutes() {
		return fmt.Errorf("working window start %s is not before end %s", d.Start, d.End)
	}
	if (d.BreakStart == nil) != (d.BreakEnd == nil) {
		return fmt.Errorf("break start and end must be set together")
	}
	if d.BreakStart != nil {
		if d.BreakStart.Minutes() >= d.BreakEnd.Minutes() {
			return fmt.Errorf("break start %s is not before end %s", d.BreakStart, d.BreakEnd)
		}
		if d.BreakStart.Minutes() < d.Start.Minutes() || d.BreakEnd.Minutes() > d.End.Minutes() {
			return fmt.Errorf("break %s-%s lies outside the working window %s-%s", d.BreakStart, d.BreakEnd, d.Start, d.End)
		}
	}
	return nil
}

const overrideDateLayout = "2006-01-02"

// WeeklyAvailability is the therapist's working-hours rule set: a
// default schedule per weekday plus date-specific overrides (holidays,
// one-off closures) that supersede the weekday default. It is
// configured externally and read-only from the scheduler's
// perspective, so slot search stays a pure function of
// (date, duration, snapshot).
type WeeklyAvailability struct {
	Days      map[time.Weekday]DaySchedule `json:"days"`
	Overrides map[string]DaySchedule       `json:"overrides,omitempty"`
}

// Validate checks every configured day and override.
func (w *WeeklyAvailability) Validate() error {
	for day, sched := range w.Days {
		if err := sched.Validate(); err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
	}
	for date, sched := range w.Overrides {
		if _, err := time.Parse(overrideDateLayout, date); err != nil {
			return fmt.Errorf("override date %q: %w", date, err)
		}
		if err := sched.Validate(); err != nil {
			return fmt.Errorf("override %s: %w", date, err)
		}
	}
	return nil
}

// ScheduleFor resolves the effective schedule for a date, preferring a
// date override over the weekday default.
func (w *WeeklyAvailability) ScheduleFor(date time.Time) DaySchedule {
	if sched, ok := w.Overrides[date.Format(overrideDateLayout)]; ok {
		return sched
	}
	return w.Days[date.Weekday()]
}

// IsAvailable reports whether a booking of the given duration starting
// at start fits the working window and stays clear of the break.
func (w *WeeklyAvailability) IsAvailable(start time.Time, duration time.Duration) bool {
	sched := w.ScheduleFor(start)
	if !sched.Working {
		return false
	}
	end := start.Add(duration)
	open := sched.Start.On(start)
	close := sched.End.On(start)
	if start.Before(open) || end.After(close) {
		return false
	}
	if sched.BreakStart != nil && Overlaps(start, end, sched.BreakStart.On(start), sched.BreakEnd.On(start)) {
		return false
	}
	return true
}

// SlotsOn enumerates candidate start times of the given duration on a
// date, stepping by the duration itself so candidates are back to
// back. Slots overlapping the break are dropped. Returns nil when the
// therapist does not work that day.
func (w *WeeklyAvailability) SlotsOn(date time.Time, duration time.Duration) []TimeSlot {
	sched := w.ScheduleFor(date)
	if !sched.Working || duration <= 0 {
		return nil
	}

	var slots []TimeSlot
	close := sched.End.On(date)
	for start := sched.Start.On(date); !start.Add(duration).After(close); start = start.Add(duration) {
		end := start.Add(duration)
		if sched.BreakStart != nil && Overlaps(start, end, sched.BreakStart.On(date), sched.BreakEnd.On(date)) {
			continue
		}
		slots = append(slots, TimeSlot{Start: start, End: end})
	}
	return slots
}
