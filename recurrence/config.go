package recurrence

// Limits bounds how many occurrences a single pattern may produce. The caps
// double as validation thresholds and as the generator's hard stop, so a
// pattern that slips past validation still cannot produce an unbounded
// sequence.
type Limits struct {
	// MaxInstances caps visible occurrences per frequency.
	MaxInstances map[Frequency]int
	// DefaultMaxInstances applies to frequencies not present in MaxInstances,
	// including unrecognized ones from forward-compatible data.
	DefaultMaxInstances int
	// SafetyMargin is how many raw candidates past the cap the generator may
	// step through before bailing out unconditionally. It absorbs exception
	// dates, which are skipped without consuming a visible slot.
	SafetyMargin int
}

// DefaultLimits matches the dashboard's per-frequency bounds: roughly a year
// of daily events, two years of weekly ones, four years of monthly/yearly.
var DefaultLimits = Limits{
	MaxInstances: map[Frequency]int{
		FreqDaily:    365,
		FreqWeekly:   104,
		FreqBiweekly: 52,
		FreqMonthly:  48,
		FreqYearly:   4,
		FreqCustom:   104,
	},
	DefaultMaxInstances: 100,
	SafetyMargin:        100,
}

// UnboundedTestLimits is useful in tests that need long expansions without
// tripping the production caps.
var UnboundedTestLimits = Limits{
	MaxInstances:        map[Frequency]int{},
	DefaultMaxInstances: 10000,
	SafetyMargin:        100,
}

// cap returns the visible-occurrence cap for the given frequency.
func (l Limits) cap(freq Frequency) int {
	if max, ok := l.MaxInstances[freq]; ok {
		return max
	}
	return l.DefaultMaxInstances
}

// hardCap is the absolute bound on raw candidate dates per expansion.
func (l Limits) hardCap(freq Frequency) int {
	return l.cap(freq) + l.SafetyMargin
}
