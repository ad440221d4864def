package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/hearthhub/homecal/internal/dateutil"
)

var (
	// ErrInvalidPattern is returned for structural problems: a weekly rule
	// with no weekdays, an end date before the anchor, a bad interval.
	ErrInvalidPattern = errors.New("invalid recurrence pattern")
	// ErrLimitExceeded is returned when a pattern would produce more
	// occurrences than its frequency cap allows. It is advisory at input
	// time; the generator hard-caps regardless.
	ErrLimitExceeded = errors.New("recurrence instance limit exceeded")
)

// ValidationError carries which field failed and why, wrapping one of the
// sentinel errors above for errors.Is checks.
type ValidationError struct {
	Field  string
	Reason string
	kind   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.kind, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.kind }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), kind: ErrInvalidPattern}
}

func overLimit(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...), kind: ErrLimitExceeded}
}

// Validate checks p against DefaultLimits. See ValidateWithLimits.
func Validate(p Pattern, anchor time.Time) error {
	return ValidateWithLimits(p, anchor, DefaultLimits)
}

// ValidateWithLimits checks the pattern's structure and its estimated
// instance count against the given limits. An unrecognized frequency is not
// an error: it falls under the default cap so forward-compatible records
// stay loadable.
//
// The date-bounded estimate is deliberately an integer-division
// approximation over nominal period lengths, not an exact enumeration;
// validation has to stay cheap enough to run on every keystroke of the event
// form.
func ValidateWithLimits(p Pattern, anchor time.Time, limits Limits) error {
	anchor = dateutil.MidnightUTC(anchor)

	if p.Interval < 1 {
		return invalid("interval", "must be at least 1, got %d", p.Interval)
	}

	switch p.Frequency {
	case FreqWeekly, FreqCustom:
		if len(p.DaysOfWeek) == 0 {
			return invalid("daysOfWeek", "at least one weekday is required for %s patterns", p.Frequency)
		}
		for _, wd := range p.DaysOfWeek {
			if wd < time.Sunday || wd > time.Saturday {
				return invalid("daysOfWeek", "weekday %d out of range 0-6", int(wd))
			}
		}
	case FreqMonthly:
		if p.DayOfMonth < 0 || p.DayOfMonth > 31 {
			return invalid("dayOfMonth", "must be 1-31, got %d", p.DayOfMonth)
		}
	}

	limit := limits.cap(p.Frequency)

	switch p.EndType {
	case EndNever:
		// Bounded only by the caps.
	case EndCount:
		if p.EndCount < 1 {
			return invalid("endCount", "must be at least 1, got %d", p.EndCount)
		}
		if p.EndCount > limit {
			return overLimit("endCount", "%d exceeds the %s limit of %d", p.EndCount, p.Frequency, limit)
		}
	case EndDate:
		if p.EndDate == nil {
			return invalid("endDate", "required when endType is %q", EndDate)
		}
		end := dateutil.MidnightUTC(*p.EndDate)
		if end.Before(anchor) {
			return invalid("endDate", "%s is before the first occurrence %s",
				dateutil.FormatISO(end), dateutil.FormatISO(anchor))
		}
		estimate := estimateInstances(p, anchor, end)
		if estimate > limit {
			return overLimit("endDate", "span holds an estimated %d occurrences, %s limit is %d",
				estimate, p.Frequency, limit)
		}
	default:
		return invalid("endType", "unknown end type %q", p.EndType)
	}

	return nil
}

// estimateInstances approximates how many occurrences fit between anchor and
// end as the whole-period count of the span: span in days divided by the
// nominal period length. Months count as 30 days and years as 365;
// weekly-family patterns ignore how many weekdays are selected, and the
// anchor occurrence itself is not counted. Good enough for a limit check,
// never used for generation.
func estimateInstances(p Pattern, anchor, end time.Time) int {
	span := dateutil.DaysBetween(anchor, end)
	interval := p.Interval
	if interval < 1 {
		interval = 1
	}

	var period int
	switch p.Frequency {
	case FreqDaily:
		period = interval
	case FreqWeekly, FreqCustom:
		period = 7 * interval
	case FreqBiweekly:
		period = 14
	case FreqMonthly:
		period = 30 * interval
	case FreqYearly:
		period = 365 * interval
	default:
		period = interval
	}

	return span / period
}
