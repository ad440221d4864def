// Package calendar sits between the recurrence engine and the dashboard's
// collaborators: it materializes the occurrences a calendar window shows and
// turns this/future/all edits into changesets the document store applies.
package calendar

import (
	"sort"
	"time"

	"github.com/hearthhub/homecal/internal/dateutil"
	"github.com/hearthhub/homecal/recurrence"
)

// EventFields is the displayable payload of an event. The engine carries it
// opaquely; only the editor ever replaces it. Clock strings are informational
// ("HH:MM"), recurrence arithmetic is date-only.
type EventFields struct {
	Title      string `json:"title"`
	Location   string `json:"location,omitempty"`
	Notes      string `json:"notes,omitempty"`
	StartClock string `json:"startClock,omitempty"`
	EndClock   string `json:"endClock,omitempty"`
}

// Series is a base event document plus its recurrence pattern. A nil Pattern
// means the event happens exactly once, on Anchor.
type Series struct {
	// ID is the document identity in the store.
	ID string
	// Anchor is the first occurrence and the reference point for all
	// stepping arithmetic, as a midnight-UTC date.
	Anchor  time.Time
	Fields  EventFields
	Pattern *recurrence.Pattern
	// OriginID links a series created by a this/future split back to the
	// series it was carved from. Empty for ordinary events.
	OriginID string
}

// Recurring reports whether the series expands to more than its anchor.
func (s Series) Recurring() bool { return s.Pattern != nil }

// Occurrence is one derived calendar entry. It is never persisted; the range
// query produces it fresh on every call.
type Occurrence struct {
	Date     time.Time
	SeriesID string
	Fields   EventFields
	// Generated is true for dates expanded from a pattern and false for
	// standalone single events.
	Generated bool
	// OriginID carries the owning series' split back-reference, when set.
	OriginID string
}

// Buckets groups a window's occurrences by ISO date so a grid render can do
// one range query and then O(1) lookups per day cell.
type Buckets map[string][]Occurrence

// On returns the occurrences for the given date, in stable order.
func (b Buckets) On(date time.Time) []Occurrence {
	return b[dateutil.FormatISO(date)]
}

// All flattens the buckets into a single slice ordered by date, then by
// series ID within a date.
func (b Buckets) All() []Occurrence {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Occurrence
	for _, k := range keys {
		day := append([]Occurrence(nil), b[k]...)
		sort.SliceStable(day, func(i, j int) bool {
			return day[i].SeriesID < day[j].SeriesID
		})
		out = append(out, day...)
	}
	return out
}

// Len returns the total number of occurrences across all dates.
func (b Buckets) Len() int {
	n := 0
	for _, occs := range b {
		n += len(occs)
	}
	return n
}
