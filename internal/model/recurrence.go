package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bodyworks/scheduler-api/pkg/errors"
)

type RecurrenceFrequency string

const (
	FrequencyDaily    RecurrenceFrequency = "daily"
	FrequencyWeekly   RecurrenceFrequency = "weekly"
	FrequencyBiweekly RecurrenceFrequency = "biweekly"
	FrequencyMonthly  RecurrenceFrequency = "monthly"

	// FrequencyCustom is accepted on the wire but rejected at pattern
	// construction rather than silently mishandled during expansion.
	FrequencyCustom RecurrenceFrequency = "custom"
)

type RecurrenceEnd string

const (
	RecurrenceEndNever      RecurrenceEnd = "never"
	RecurrenceEndAfterCount RecurrenceEnd = "after_count"
	RecurrenceEndOnDate     RecurrenceEnd = "on_date"
)

// Candidate ceilings per end condition. A never-ending series is
// bounded to a year of weekly-equivalent occurrences; a date-bounded
// one terminates early once a candidate passes the end date.
const (
	maxOccurrencesNever  = 52
	maxOccurrencesOnDate = 100
)

// RecurrencePattern describes how a series repeats. It is validated
// once at construction and immutable afterwards; only the series
// parent embeds it.
type RecurrencePattern struct {
	Frequency   RecurrenceFrequency `json:"frequency"`
	End         RecurrenceEnd       `json:"end"`
	Occurrences int                 `json:"occurrences,omitempty"`
	EndDate     *time.Time          `json:"end_date,omitempty"`
}

// NewRecurrencePattern validates and builds a pattern. An internally
// inconsistent pattern is rejected here, never deep inside expansion.
func NewRecurrencePattern(frequency RecurrenceFrequency, end RecurrenceEnd, occurrences int, endDate *time.Time) (*RecurrencePattern, error) {
	switch frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
	default:
		return nil, errors.UnsupportedRecurrence(string(frequency))
	}

	p := &RecurrencePattern{Frequency: frequency, End: end}
	switch end {
	case RecurrenceEndNever:
	case RecurrenceEndAfterCount:
		if occurrences < 1 {
			return nil, errors.BadRequest("occurrence count must be at least 1", nil)
		}
		p.Occurrences = occurrences
	case RecurrenceEndOnDate:
		if endDate == nil {
			return nil, errors.BadRequest("end date is required for a date-bounded series", nil)
		}
		d := *endDate
		p.EndDate = &d
	default:
		return nil, errors.BadRequest(fmt.Sprintf("unknown end condition: %s", end), nil)
	}
	return p, nil
}

// NextAfter returns the next occurrence date following current. The
// unsupported-frequency guard stays here for patterns loaded from
// storage that bypassed construction.
func (p *RecurrencePattern) NextAfter(current time.Time) (time.Time, error) {
	switch p.Frequency {
	case FrequencyDaily:
		return current.AddDate(0, 0, 1), nil
	case FrequencyWeekly:
		return current.AddDate(0, 0, 7), nil
	case FrequencyBiweekly:
		return current.AddDate(0, 0, 14), nil
	case FrequencyMonthly:
		return current.AddDate(0, 1, 0), nil
	}
	return time.Time{}, errors.UnsupportedRecurrence(string(p.Frequency))
}

// CandidateCeiling returns the hard iteration bound for series
// expansion, counting candidate dates including the first occurrence.
func (p *RecurrencePattern) CandidateCeiling() int {
	switch p.End {
	case RecurrenceEndAfterCount:
		return p.Occurrences
	case RecurrenceEndOnDate:
		return maxOccurrencesOnDate
	default:
		return maxOccurrencesNever
	}
}

// Expired reports whether a candidate date lies past the pattern's
// end date. Always false for non date-bounded patterns.
func (p *RecurrencePattern) Expired(candidate time.Time) bool {
	return p.End == RecurrenceEndOnDate && p.EndDate != nil && candidate.After(*p.EndDate)
}

// Value implements driver.Valuer so the pattern persists as JSONB.
func (p RecurrencePattern) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *RecurrencePattern) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		return nil
	}
	return fmt.Errorf("cannot scan %T into RecurrencePattern", src)
}
