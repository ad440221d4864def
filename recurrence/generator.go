package recurrence

import (
	"iter"
	"time"

	"github.com/hearthhub/homecal/internal/dateutil"
)

// Occurrences returns the ordered sequence of occurrence dates for the
// pattern starting at anchor, under DefaultLimits. The sequence is lazy,
// finite and restartable: ranging over it twice yields identical dates.
//
// The anchor date is the first candidate; exception dates are skipped
// without consuming a slot of a count-bounded series. Emission stops at the
// configured end condition or at the frequency cap, and a hard raw-candidate
// cap (cap + SafetyMargin) bounds the walk even for patterns that validation
// would have rejected.
func (p Pattern) Occurrences(anchor time.Time) iter.Seq[time.Time] {
	return p.OccurrencesWithLimits(anchor, DefaultLimits)
}

// OccurrencesWithLimits is Occurrences with explicit limits.
func (p Pattern) OccurrencesWithLimits(anchor time.Time, limits Limits) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		np := p.normalized(anchor)
		start := dateutil.MidnightUTC(anchor)

		// Caps are keyed by the declared frequency: biweekly keeps its own
		// cap even though it steps like weekly/interval-2.
		visibleCap := limits.cap(p.Frequency)
		hardCap := limits.hardCap(p.Frequency)

		raw, visible := 0, 0
		// emit gates one candidate date and reports whether the walk should
		// continue.
		emit := func(d time.Time) bool {
			if raw >= hardCap {
				return false
			}
			raw++
			if np.endType == EndDate && d.After(np.endDate) {
				return false
			}
			if np.exceptions[d] {
				return true
			}
			if !yield(d) {
				return false
			}
			visible++
			if np.endType == EndCount && visible >= np.endCount {
				return false
			}
			return visible < visibleCap
		}

		switch np.frequency {
		case FreqDaily:
			for d := start; emit(d); d = d.AddDate(0, 0, np.interval) {
			}

		case FreqWeekly, FreqCustom:
			if len(np.daysOfWeek) == 0 {
				return
			}
			// Day scan: a date fires when its weekday is selected and a
			// whole multiple of interval weeks has elapsed since the
			// anchor's week.
			for d := start; ; d = d.AddDate(0, 0, 1) {
				if !np.daysOfWeek[d.Weekday()] {
					continue
				}
				if dateutil.WeeksBetween(start, d)%np.interval != 0 {
					continue
				}
				if !emit(d) {
					return
				}
			}

		case FreqMonthly:
			// Month-index arithmetic so that stepping never depends on the
			// (possibly clamped) previous date.
			base := start.Year()*12 + int(start.Month()) - 1
			for k := 0; ; k++ {
				mi := base + k*np.interval
				d := dateutil.ClampedDate(mi/12, time.Month(mi%12+1), np.dayOfMonth)
				if d.Before(start) {
					// A dayOfMonth earlier in the anchor's own month.
					continue
				}
				if !emit(d) {
					return
				}
			}

		case FreqYearly:
			for k := 0; ; k++ {
				d := dateutil.ClampedDate(start.Year()+k*np.interval, start.Month(), start.Day())
				if !emit(d) {
					return
				}
			}

		default:
			// Unrecognized frequency: the anchor is the only occurrence we
			// can produce without guessing at stepping semantics.
			emit(start)
		}
	}
}

// ExpandRange materializes the pattern's occurrences that fall inside
// [from, to], inclusive on both ends.
func ExpandRange(p Pattern, anchor, from, to time.Time) []time.Time {
	return ExpandRangeWithLimits(p, anchor, from, to, DefaultLimits)
}

// ExpandRangeWithLimits is ExpandRange with explicit limits.
func ExpandRangeWithLimits(p Pattern, anchor, from, to time.Time, limits Limits) []time.Time {
	from = dateutil.MidnightUTC(from)
	to = dateutil.MidnightUTC(to)

	var out []time.Time
	for d := range p.OccurrencesWithLimits(anchor, limits) {
		if d.After(to) {
			break
		}
		if d.Before(from) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// IsOccurrence reports whether date is a visible occurrence of the pattern.
// Exception dates and dates past the end condition or caps are not.
func IsOccurrence(p Pattern, anchor, date time.Time) bool {
	date = dateutil.MidnightUTC(date)
	for d := range p.Occurrences(anchor) {
		if d.Equal(date) {
			return true
		}
		if d.After(date) {
			break
		}
	}
	return false
}

// CountBefore returns how many visible occurrences fall strictly before
// date. The series editor uses it to carry the remaining endCount across a
// series split.
func CountBefore(p Pattern, anchor, date time.Time) int {
	date = dateutil.MidnightUTC(date)
	n := 0
	for d := range p.Occurrences(anchor) {
		if !d.Before(date) {
			break
		}
		n++
	}
	return n
}
