package session

// Stats holds the clamped relationship attributes for a session. The
// key set is fixed at session creation: applying effects never adds
// keys, so authored content with misspelled or future attribute names
// is absorbed instead of rejected.
type Stats map[string]int

const (
	StatMin     = 0
	StatMax     = 100
	StatNeutral = 50
)

// defaultAttributes is the attribute whitelist seeded into every new
// session. Stories may override the starting values (not the clamp).
var defaultAttributes = []string{"affection", "trust", "respect", "friendship"}

// NewStats returns the default attribute set at the neutral midpoint,
// with overrides merged on top. Override keys outside the default set
// become part of this session's whitelist, so stories can introduce
// their own attributes at creation time.
func NewStats(overrides map[string]int) Stats {
	s := make(Stats, len(defaultAttributes)+len(overrides))
	for _, attr := range defaultAttributes {
		s[attr] = StatNeutral
	}
	for attr, v := range overrides {
		s[attr] = clampStat(v)
	}
	return s
}

// Apply returns a new Stats with the effect deltas applied. Every
// result value is clamped to [StatMin, StatMax]. Effect keys that are
// not already attributes of s are dropped silently.
func (s Stats) Apply(effects map[string]int) Stats {
	out := make(Stats, len(s))
	for attr, v := range s {
		out[attr] = v
	}
	for attr, delta := range effects {
		current, known := out[attr]
		if !known {
			continue
		}
		out[attr] = clampStat(current + delta)
	}
	return out
}

func clampStat(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}
