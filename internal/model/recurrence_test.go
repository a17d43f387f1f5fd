package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodyworks/scheduler-api/pkg/errors"
)

func newClientID() uuid.UUID {
	return uuid.New()
}

func TestNewRecurrencePattern(t *testing.T) {
	endDate := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid weekly after count", func(t *testing.T) {
		p, err := NewRecurrencePattern(FrequencyWeekly, RecurrenceEndAfterCount, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, 10, p.Occurrences)
		assert.Equal(t, 10, p.CandidateCeiling())
	})

	t.Run("custom frequency rejected", func(t *testing.T) {
		_, err := NewRecurrencePattern(FrequencyCustom, RecurrenceEndNever, 0, nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrUnsupportedRecurrence, errors.CodeOf(err))
	})

	t.Run("unknown frequency rejected", func(t *testing.T) {
		_, err := NewRecurrencePattern("hourly", RecurrenceEndNever, 0, nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrUnsupportedRecurrence, errors.CodeOf(err))
	})

	t.Run("after count requires positive count", func(t *testing.T) {
		_, err := NewRecurrencePattern(FrequencyDaily, RecurrenceEndAfterCount, 0, nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrBadRequest, errors.CodeOf(err))
	})

	t.Run("on date requires end date", func(t *testing.T) {
		_, err := NewRecurrencePattern(FrequencyDaily, RecurrenceEndOnDate, 0, nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrBadRequest, errors.CodeOf(err))
	})

	t.Run("on date accepted", func(t *testing.T) {
		p, err := NewRecurrencePattern(FrequencyMonthly, RecurrenceEndOnDate, 0, &endDate)
		require.NoError(t, err)
		require.NotNil(t, p.EndDate)
		assert.True(t, p.EndDate.Equal(endDate))
	})
}

func TestNextAfter(t *testing.T) {
	start := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		frequency RecurrenceFrequency
		want      time.Time
	}{
		{FrequencyDaily, start.AddDate(0, 0, 1)},
		{FrequencyWeekly, start.AddDate(0, 0, 7)},
		{FrequencyBiweekly, start.AddDate(0, 0, 14)},
		{FrequencyMonthly, time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			p := &RecurrencePattern{Frequency: tt.frequency}
			next, err := p.NextAfter(start)
			require.NoError(t, err)
			assert.True(t, next.Equal(tt.want))
		})
	}
}

func TestNextAfterPreservesTimeOfDay(t *testing.T) {
	p := &RecurrencePattern{Frequency: FrequencyWeekly}
	start := time.Date(2026, time.March, 2, 14, 30, 0, 0, time.UTC)

	next, err := p.NextAfter(start)
	require.NoError(t, err)
	assert.Equal(t, 14, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.Equal(t, start.Weekday(), next.Weekday())
}

func TestCandidateCeiling(t *testing.T) {
	endDate := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)

	never, err := NewRecurrencePattern(FrequencyWeekly, RecurrenceEndNever, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 52, never.CandidateCeiling())

	counted, err := NewRecurrencePattern(FrequencyWeekly, RecurrenceEndAfterCount, 8, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, counted.CandidateCeiling())

	dated, err := NewRecurrencePattern(FrequencyWeekly, RecurrenceEndOnDate, 0, &endDate)
	require.NoError(t, err)
	assert.Equal(t, 100, dated.CandidateCeiling())
}

func TestExpired(t *testing.T) {
	endDate := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	dated, err := NewRecurrencePattern(FrequencyDaily, RecurrenceEndOnDate, 0, &endDate)
	require.NoError(t, err)

	assert.False(t, dated.Expired(endDate))
	assert.False(t, dated.Expired(endDate.AddDate(0, 0, -1)))
	assert.True(t, dated.Expired(endDate.Add(time.Second)))

	never, err := NewRecurrencePattern(FrequencyDaily, RecurrenceEndNever, 0, nil)
	require.NoError(t, err)
	assert.False(t, never.Expired(endDate.AddDate(10, 0, 0)))
}

func TestRecurrencePatternScanRoundTrip(t *testing.T) {
	p, err := NewRecurrencePattern(FrequencyBiweekly, RecurrenceEndAfterCount, 6, nil)
	require.NoError(t, err)

	v, err := p.Value()
	require.NoError(t, err)

	var got RecurrencePattern
	require.NoError(t, got.Scan(v))
	assert.Equal(t, *p, got)
}
