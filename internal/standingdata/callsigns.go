package standingdata

import "strings"

// CallsignAlternates expands a callsign into the set of equivalent forms. The
// returned set always includes the original callsign unless it is empty.
type CallsignAlternates interface {
	GetAllAlternateCallsigns(callsign string) []string
}

// ZeroPadAlternates treats callsigns differing only in the zero padding of
// their numeric suffix as equivalent: BAW1, BAW01, BAW001 and BAW0001 all
// name the same flight.
type ZeroPadAlternates struct{}

// GetAllAlternateCallsigns returns the padding variants of callsign, original
// first, deduplicated.
func (ZeroPadAlternates) GetAllAlternateCallsigns(callsign string) []string {
	callsign = strings.ToUpper(strings.TrimSpace(callsign))
	if callsign == "" {
		return nil
	}

	prefix, digits := splitNumericSuffix(callsign)
	out := []string{callsign}
	if digits == "" {
		return out
	}

	seen := map[string]bool{callsign: true}
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	for width := len(trimmed); width <= 4; width++ {
		v := prefix + strings.Repeat("0", width-len(trimmed)) + trimmed
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// splitNumericSuffix splits a callsign into its leading portion and trailing
// run of digits.
func splitNumericSuffix(callsign string) (prefix, digits string) {
	i := len(callsign)
	for i > 0 && callsign[i-1] >= '0' && callsign[i-1] <= '9' {
		i--
	}
	return callsign[:i], callsign[i:]
}
