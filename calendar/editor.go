package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/hearthhub/homecal/internal/dateutil"
	"github.com/hearthhub/homecal/recurrence"
)

// ErrOccurrenceNotFound is returned when the target date is not a visible
// occurrence of the series: a stale reference after a concurrent edit, an
// exception date, or a date past the series' end.
var ErrOccurrenceNotFound = errors.New("occurrence not found in series")

// Action selects which slice of a series an edit or delete applies to.
type Action int

const (
	// ActionCancel leaves the series untouched.
	ActionCancel Action = iota
	// ActionThis targets the single occurrence on the given date.
	ActionThis
	// ActionFuture targets the occurrence and everything after it.
	ActionFuture
	// ActionAll targets every occurrence of the series.
	ActionAll
)

func (a Action) String() string {
	switch a {
	case ActionCancel:
		return "cancel"
	case ActionThis:
		return "this"
	case ActionFuture:
		return "future"
	case ActionAll:
		return "all"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Edit carries the replacement values of an edit. A nil field keeps the
// current value. Pattern replacement is honored by ActionAll only; splits
// copy the existing rule.
type Edit struct {
	Fields  *EventFields
	Pattern *recurrence.Pattern
}

// ChangeSet lists the document writes an edit resolves to. The persistence
// collaborator must apply all of them as one unit: a half-applied split
// (truncated original without the fork) is corruption, not partial progress.
type ChangeSet struct {
	// Updated is the original series with its pattern or fields rewritten.
	Updated mo.Option[Series]
	// Forked is the new series created by a future split, anchored at the
	// split date.
	Forked mo.Option[Series]
	// Standalone is the non-recurring replacement event created by a
	// this-edit, back-referencing the original series.
	Standalone mo.Option[Series]
	// Removed is the ID of a series to delete outright.
	Removed mo.Option[string]
}

// Empty reports whether the changeset requires no writes at all.
func (cs ChangeSet) Empty() bool {
	return cs.Updated.IsAbsent() && cs.Forked.IsAbsent() &&
		cs.Standalone.IsAbsent() && cs.Removed.IsAbsent()
}

// ApplyEdit resolves an edit of the series at target into a changeset.
// ActionThis and ActionFuture require target to be a visible occurrence;
// ActionAll and ActionCancel ignore target. The input series is never
// mutated.
func ApplyEdit(s Series, target time.Time, action Action, edit Edit) (ChangeSet, error) {
	target = dateutil.MidnightUTC(target)

	switch action {
	case ActionCancel:
		return ChangeSet{}, nil

	case ActionThis:
		updated, err := withException(s, target)
		if err != nil {
			return ChangeSet{}, err
		}
		standalone := Series{
			ID:       uuid.New().String(),
			Anchor:   target,
			Fields:   mergedFields(s, edit),
			OriginID: s.ID,
		}
		return ChangeSet{
			Updated:    mo.Some(updated),
			Standalone: mo.Some(standalone),
		}, nil

	case ActionFuture:
		updated, forked, err := split(s, target)
		if err != nil {
			return ChangeSet{}, err
		}
		forked.Fields = mergedFields(s, edit)
		return ChangeSet{
			Updated: mo.Some(updated),
			Forked:  mo.Some(forked),
		}, nil

	case ActionAll:
		updated := s
		updated.Fields = mergedFields(s, edit)
		if edit.Pattern != nil {
			p := edit.Pattern.Clone()
			updated.Pattern = &p
		} else if s.Pattern != nil {
			p := s.Pattern.Clone()
			updated.Pattern = &p
		}
		return ChangeSet{Updated: mo.Some(updated)}, nil

	default:
		return ChangeSet{}, fmt.Errorf("unknown edit action %d", int(action))
	}
}

// ApplyDelete resolves a delete of the series at target into a changeset.
// ActionThis suppresses one occurrence, ActionFuture truncates the series at
// target with no replacement, ActionAll removes the whole series.
func ApplyDelete(s Series, target time.Time, action Action) (ChangeSet, error) {
	target = dateutil.MidnightUTC(target)

	switch action {
	case ActionCancel:
		return ChangeSet{}, nil

	case ActionThis:
		updated, err := withException(s, target)
		if err != nil {
			return ChangeSet{}, err
		}
		return ChangeSet{Updated: mo.Some(updated)}, nil

	case ActionFuture:
		updated, _, err := split(s, target)
		if err != nil {
			return ChangeSet{}, err
		}
		return ChangeSet{Updated: mo.Some(updated)}, nil

	case ActionAll:
		return ChangeSet{Removed: mo.Some(s.ID)}, nil

	default:
		return ChangeSet{}, fmt.Errorf("unknown delete action %d", int(action))
	}
}

// withException returns a copy of the series with target suppressed. For
// non-recurring series the only targetable occurrence is the anchor, and
// suppressing it means deleting the event, which is the caller's call to
// make via ActionAll.
func withException(s Series, target time.Time) (Series, error) {
	if err := requireOccurrence(s, target); err != nil {
		return Series{}, err
	}
	if s.Pattern == nil {
		return Series{}, fmt.Errorf("%w: %s has no pattern to add exceptions to",
			ErrOccurrenceNotFound, s.ID)
	}

	updated := s
	p := s.Pattern.Clone()
	p.AddException(target)
	updated.Pattern = &p
	return updated, nil
}

// split cuts the series in two at target: the returned original ends the day
// before target, the returned fork starts at target and carries the
// remaining rule. Count-bounded series transfer endCount minus the visible
// occurrences the original has already consumed.
func split(s Series, target time.Time) (updated, forked Series, err error) {
	if err := requireOccurrence(s, target); err != nil {
		return Series{}, Series{}, err
	}
	if s.Pattern == nil {
		return Series{}, Series{}, fmt.Errorf("%w: %s has no pattern to split",
			ErrOccurrenceNotFound, s.ID)
	}

	cutoff := target.AddDate(0, 0, -1)

	updated = s
	origPattern := s.Pattern.Clone()
	origPattern.EndType = recurrence.EndDate
	origPattern.EndDate = &cutoff
	origPattern.EndCount = 0
	updated.Pattern = &origPattern

	forkPattern := s.Pattern.Clone()
	// A defaulted day-of-month means "the anchor's day". The fork's anchor is
	// the split target, which may be a clamped date (Jan 31 monthly fires on
	// Feb 29), so the effective day has to be pinned before it re-derives.
	if forkPattern.Frequency == recurrence.FreqMonthly && forkPattern.DayOfMonth == 0 {
		forkPattern.DayOfMonth = dateutil.MidnightUTC(s.Anchor).Day()
	}
	forkPattern.Exceptions = nil
	for _, ex := range s.Pattern.Exceptions {
		if !dateutil.MidnightUTC(ex).Before(target) {
			forkPattern.Exceptions = append(forkPattern.Exceptions, ex)
		}
	}
	if forkPattern.EndType == recurrence.EndCount {
		consumed := recurrence.CountBefore(*s.Pattern, s.Anchor, target)
		forkPattern.EndCount = s.Pattern.EndCount - consumed
		if forkPattern.EndCount < 1 {
			forkPattern.EndCount = 1
		}
	}

	forked = Series{
		ID:       uuid.New().String(),
		Anchor:   target,
		Fields:   s.Fields,
		Pattern:  &forkPattern,
		OriginID: s.ID,
	}
	return updated, forked, nil
}

func requireOccurrence(s Series, target time.Time) error {
	if s.Pattern == nil {
		if dateutil.MidnightUTC(s.Anchor).Equal(target) {
			return nil
		}
		return fmt.Errorf("%w: %s is not the date of event %s",
			ErrOccurrenceNotFound, dateutil.FormatISO(target), s.ID)
	}
	if !recurrence.IsOccurrence(*s.Pattern, s.Anchor, target) {
		return fmt.Errorf("%w: %s is not a visible occurrence of series %s",
			ErrOccurrenceNotFound, dateutil.FormatISO(target), s.ID)
	}
	return nil
}

func mergedFields(s Series, edit Edit) EventFields {
	if edit.Fields != nil {
		return *edit.Fields
	}
	return s.Fields
}
