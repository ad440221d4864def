package calendar

import (
	"io"
	"log/slog"
	"time"

	"github.com/hearthhub/homecal/internal/dateutil"
	"github.com/hearthhub/homecal/recurrence"
)

// Query materializes the occurrences a calendar window shows. It is safe for
// concurrent use; it never mutates the series it is given.
//
// Callers are expected to issue one OccurrencesInRange per visible window
// (month or week), not one per day cell, and look cells up in the returned
// Buckets.
type Query struct {
	logger *slog.Logger
	cache  *ExpansionCache
	limits recurrence.Limits
}

// NewQuery creates a Query. logger and cache may be nil: a nil logger
// discards, a nil cache disables memoization.
func NewQuery(logger *slog.Logger, cache *ExpansionCache) *Query {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Query{
		logger: logger,
		cache:  cache,
		limits: recurrence.DefaultLimits,
	}
}

// OccurrencesInRange expands every series into the occurrences that fall
// inside [from, to] and buckets them by date. Non-recurring events contribute
// their single date when it is in range.
//
// A series whose pattern fails validation is logged and still expanded: the
// generator's hard caps bound the output, and one bad pattern must not hide
// the rest of the calendar.
func (q *Query) OccurrencesInRange(series []Series, from, to time.Time) Buckets {
	from = dateutil.MidnightUTC(from)
	to = dateutil.MidnightUTC(to)

	buckets := make(Buckets)
	if to.Before(from) {
		return buckets
	}

	for _, s := range series {
		for _, occ := range q.expand(s, from, to) {
			key := dateutil.FormatISO(occ.Date)
			buckets[key] = append(buckets[key], occ)
		}
	}
	return buckets
}

// HasOccurrenceInRange reports whether the series has at least one visible
// occurrence inside [from, to]. Used for day-dot indicators, where the full
// expansion of a distant window would be wasted work.
func (q *Query) HasOccurrenceInRange(s Series, from, to time.Time) bool {
	from = dateutil.MidnightUTC(from)
	to = dateutil.MidnightUTC(to)

	if !s.Recurring() {
		a := dateutil.MidnightUTC(s.Anchor)
		return !a.Before(from) && !a.After(to)
	}

	for d := range s.Pattern.OccurrencesWithLimits(s.Anchor, q.limits) {
		if d.After(to) {
			return false
		}
		if !d.Before(from) {
			return true
		}
	}
	return false
}

// expand produces the series' occurrences inside the window, consulting the
// cache when one is configured.
func (q *Query) expand(s Series, from, to time.Time) []Occurrence {
	if !s.Recurring() {
		a := dateutil.MidnightUTC(s.Anchor)
		if a.Before(from) || a.After(to) {
			return nil
		}
		return []Occurrence{{
			Date:     a,
			SeriesID: s.ID,
			Fields:   s.Fields,
			OriginID: s.OriginID,
		}}
	}

	if q.cache != nil {
		if occs, ok := q.cache.Get(s, from, to); ok {
			return occs
		}
	}

	if err := recurrence.ValidateWithLimits(*s.Pattern, s.Anchor, q.limits); err != nil {
		q.logger.Warn("expanding series with invalid pattern",
			"series", s.ID,
			"error", err)
	}

	dates := recurrence.ExpandRangeWithLimits(*s.Pattern, s.Anchor, from, to, q.limits)
	occs := make([]Occurrence, 0, len(dates))
	for _, d := range dates {
		occs = append(occs, Occurrence{
			Date:      d,
			SeriesID:  s.ID,
			Fields:    s.Fields,
			Generated: true,
			OriginID:  s.OriginID,
		})
	}

	if q.cache != nil {
		q.cache.Set(s, from, to, occs)
	}
	return occs
}
