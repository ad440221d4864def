// Package recurrence implements the recurring-event expansion engine behind
// the dashboard calendar: the persisted pattern model, its validation limits,
// and the occurrence generator that turns an anchor date plus a pattern into
// the bounded sequence of dates the calendar shows.
package recurrence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearthhub/homecal/internal/dateutil"
)

// Frequency selects the stepping rule of a pattern.
type Frequency string

const (
	FreqDaily    Frequency = "daily"
	FreqWeekly   Frequency = "weekly"
	FreqBiweekly Frequency = "biweekly" // shorthand for weekly with interval 2
	FreqMonthly  Frequency = "monthly"
	FreqYearly   Frequency = "yearly"
	FreqCustom   Frequency = "custom" // weekly rule with an arbitrary weekday set
)

// EndType selects how a pattern stops producing occurrences.
type EndType string

const (
	EndNever EndType = "never"
	EndDate  EndType = "date"
	EndCount EndType = "count"
)

// Pattern is the recurrence rule persisted alongside a base event document.
// A nil/absent Pattern means the event is non-recurring.
//
// All date fields are calendar dates at midnight UTC; the engine never does
// time-zone or sub-day arithmetic.
type Pattern struct {
	Frequency Frequency
	// Interval is the step multiplier: every N days, weeks, months or years.
	// Zero is treated as 1 by the generator; Validate rejects it.
	Interval int
	// DaysOfWeek is required for weekly/custom patterns (0 = Sunday) and
	// ignored otherwise.
	DaysOfWeek []time.Weekday
	// DayOfMonth is used by monthly patterns; zero defaults to the anchor
	// date's day.
	DayOfMonth int
	EndType    EndType
	// EndDate bounds the series when EndType is EndDate (inclusive).
	EndDate *time.Time
	// EndCount bounds the series to N visible occurrences when EndType is
	// EndCount. Exception dates never consume a slot.
	EndCount int
	// Exceptions lists dates suppressed from the generated sequence.
	Exceptions []time.Time
}

// patternRecord is the flat JSON shape stored in the document store.
type patternRecord struct {
	Frequency  Frequency `json:"frequency"`
	Interval   int       `json:"interval"`
	DaysOfWeek []int     `json:"daysOfWeek,omitempty"`
	DayOfMonth int       `json:"dayOfMonth,omitempty"`
	EndType    EndType   `json:"endType"`
	EndDate    string    `json:"endDate,omitempty"`
	EndCount   int       `json:"endCount,omitempty"`
	Exceptions []string  `json:"exceptions,omitempty"`
}

// MarshalJSON renders the pattern as the flat record used by the document
// store, with all dates as "YYYY-MM-DD" strings.
func (p Pattern) MarshalJSON() ([]byte, error) {
	rec := patternRecord{
		Frequency:  p.Frequency,
		Interval:   p.Interval,
		DayOfMonth: p.DayOfMonth,
		EndType:    p.EndType,
		EndCount:   p.EndCount,
	}
	for _, wd := range p.DaysOfWeek {
		rec.DaysOfWeek = append(rec.DaysOfWeek, int(wd))
	}
	if p.EndDate != nil {
		rec.EndDate = dateutil.FormatISO(*p.EndDate)
	}
	for _, ex := range p.Exceptions {
		rec.Exceptions = append(rec.Exceptions, dateutil.FormatISO(ex))
	}
	return json.Marshal(rec)
}

// UnmarshalJSON parses the flat persisted record. Malformed dates are
// reported; unknown frequency strings are kept as-is so forward-compatible
// data survives a round trip (validation applies the default cap to them).
func (p *Pattern) UnmarshalJSON(data []byte) error {
	var rec patternRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	out := Pattern{
		Frequency:  rec.Frequency,
		Interval:   rec.Interval,
		DayOfMonth: rec.DayOfMonth,
		EndType:    rec.EndType,
		EndCount:   rec.EndCount,
	}
	for _, wd := range rec.DaysOfWeek {
		out.DaysOfWeek = append(out.DaysOfWeek, time.Weekday(wd))
	}
	if rec.EndDate != "" {
		d, err := dateutil.ParseISO(rec.EndDate)
		if err != nil {
			return fmt.Errorf("parse endDate %q: %w", rec.EndDate, err)
		}
		out.EndDate = &d
	}
	for _, s := range rec.Exceptions {
		d, err := dateutil.ParseISO(s)
		if err != nil {
			return fmt.Errorf("parse exception date %q: %w", s, err)
		}
		out.Exceptions = append(out.Exceptions, d)
	}

	*p = out
	return nil
}

// Clone returns a deep copy. The series editor works on copies so that a
// changeset never aliases the caller's pattern.
func (p Pattern) Clone() Pattern {
	out := p
	if p.DaysOfWeek != nil {
		out.DaysOfWeek = append([]time.Weekday(nil), p.DaysOfWeek...)
	}
	if p.EndDate != nil {
		d := *p.EndDate
		out.EndDate = &d
	}
	if p.Exceptions != nil {
		out.Exceptions = append([]time.Time(nil), p.Exceptions...)
	}
	return out
}

// AddException marks date as suppressed. Adding a date twice is a no-op.
func (p *Pattern) AddException(date time.Time) {
	date = dateutil.MidnightUTC(date)
	for _, ex := range p.Exceptions {
		if dateutil.MidnightUTC(ex).Equal(date) {
			return
		}
	}
	p.Exceptions = append(p.Exceptions, date)
}

// normalPattern is the resolved form the generator steps over.
type normalPattern struct {
	frequency  Frequency
	interval   int
	daysOfWeek map[time.Weekday]bool
	dayOfMonth int
	endType    EndType
	endDate    time.Time
	endCount   int
	exceptions map[time.Time]bool
}

// normalized resolves shorthand and defaults: biweekly becomes
// weekly/interval-2 on the anchor's weekday, zero interval becomes 1, monthly
// gets the anchor's day of month, and all dates are pinned to midnight UTC.
func (p Pattern) normalized(anchor time.Time) normalPattern {
	anchor = dateutil.MidnightUTC(anchor)
	np := normalPattern{
		frequency:  p.Frequency,
		interval:   p.Interval,
		dayOfMonth: p.DayOfMonth,
		endType:    p.EndType,
		endCount:   p.EndCount,
		exceptions: make(map[time.Time]bool, len(p.Exceptions)),
	}
	if np.interval < 1 {
		np.interval = 1
	}
	if np.frequency == FreqBiweekly {
		np.frequency = FreqWeekly
		np.interval = 2
		np.daysOfWeek = map[time.Weekday]bool{anchor.Weekday(): true}
	}
	if np.frequency == FreqWeekly || np.frequency == FreqCustom {
		if np.daysOfWeek == nil {
			np.daysOfWeek = make(map[time.Weekday]bool, len(p.DaysOfWeek))
			for _, wd := range p.DaysOfWeek {
				np.daysOfWeek[wd] = true
			}
		}
	}
	if np.frequency == FreqMonthly && np.dayOfMonth == 0 {
		np.dayOfMonth = anchor.Day()
	}
	if p.EndDate != nil {
		np.endDate = dateutil.MidnightUTC(*p.EndDate)
	}
	for _, ex := range p.Exceptions {
		np.exceptions[dateutil.MidnightUTC(ex)] = true
	}
	return np
}
