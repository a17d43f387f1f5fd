package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(h, m int) ClockTime { return ClockTime{Hour: h, Minute: m} }

func clockPtr(h, m int) *ClockTime {
	c := clock(h, m)
	return &c
}

// Monday through Friday 9-17 with a 12-13 break.
func testAvailability() *WeeklyAvailability {
	day := DaySchedule{
		Working:    true,
		Start:      clock(9, 0),
		End:        clock(17, 0),
		BreakStart: clockPtr(12, 0),
		BreakEnd:   clockPtr(13, 0),
	}
	return &WeeklyAvailability{
		Days: map[time.Weekday]DaySchedule{
			time.Monday:    day,
			time.Tuesday:   day,
			time.Wednesday: day,
			time.Thursday:  day,
			time.Friday:    day,
		},
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, clock(9, 30), c)
	assert.Equal(t, "09:30", c.String())

	for _, bad := range []string{"24:00", "12:60", "-1:00", "noon"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestDayScheduleValidate(t *testing.T) {
	t.Run("non-working day needs nothing", func(t *testing.T) {
		assert.NoError(t, DaySchedule{}.Validate())
	})

	t.Run("start must precede end", func(t *testing.T) {
		d := DaySchedule{Working: true, Start: clock(17, 0), End: clock(9, 0)}
		assert.Error(t, d.Validate())
	})

	t.Run("break must sit inside the window", func(t *testing.T) {
		d := DaySchedule{
			Working:    true,
			Start:      clock(9, 0),
			End:        clock(17, 0),
			BreakStart: clockPtr(8, 0),
			BreakEnd:   clockPtr(10, 0),
		}
		assert.Error(t, d.Validate())
	})

	t.Run("break bounds come together", func(t *testing.T) {
		d := DaySchedule{
			Working:    true,
			Start:      clock(9, 0),
			End:        clock(17, 0),
			BreakStart: clockPtr(12, 0),
		}
		assert.Error(t, d.Validate())
	})
}

func TestScheduleForPrefersOverride(t *testing.T) {
	avail := testAvailability()
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	avail.Overrides = map[string]DaySchedule{
		"2026-03-02": {Working: false},
	}

	assert.False(t, avail.ScheduleFor(monday).Working)
	// The following Monday falls back to the weekday default.
	assert.True(t, avail.ScheduleFor(monday.AddDate(0, 0, 7)).Working)
}

func TestIsAvailable(t *testing.T) {
	avail := testAvailability()
	monday := func(h, m int) time.Time {
		return time.Date(2026, time.March, 2, h, m, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		start time.Time
		dur   time.Duration
		want  bool
	}{
		{"inside working hours", monday(9, 0), time.Hour, true},
		{"ends exactly at close", monday(16, 0), time.Hour, true},
		{"starts before open", monday(8, 30), time.Hour, false},
		{"runs past close", monday(16, 30), time.Hour, false},
		{"overlaps the break", monday(11, 30), time.Hour, false},
		{"ends exactly at break start", monday(11, 0), time.Hour, true},
		{"starts exactly at break end", monday(13, 0), time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, avail.IsAvailable(tt.start, tt.dur))
		})
	}

	sunday := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	assert.False(t, avail.IsAvailable(sunday, time.Hour), "non-working day")
}

func TestSlotsOn(t *testing.T) {
	avail := testAvailability()
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	slots := avail.SlotsOn(monday, time.Hour)
	// 9-17 hourly minus the 12-13 break slot.
	require.Len(t, slots, 7)
	assert.Equal(t, 9, slots[0].Start.Hour())
	for _, slot := range slots {
		assert.NotEqual(t, 12, slot.Start.Hour(), "break slot must be dropped")
		assert.Equal(t, slot.Start.Add(time.Hour), slot.End)
	}

	sunday := monday.AddDate(0, 0, -1)
	assert.Nil(t, avail.SlotsOn(sunday, time.Hour))
	assert.Nil(t, avail.SlotsOn(monday, 0))
}

func TestSlotsOnStepsByDuration(t *testing.T) {
	avail := testAvailability()
	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	slots := avail.SlotsOn(monday, 90*time.Minute)
	require.NotEmpty(t, slots)
	for i := 1; i < len(slots); i++ {
		step := slots[i].Start.Sub(slots[i-1].Start)
		assert.True(t, step >= 90*time.Minute)
	}
}
