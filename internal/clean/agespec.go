package clean

import (
	"fmt"
	"time"
)

// unitDurations maps age-spec unit letters to durations.
var unitDurations = map[byte]time.Duration{
	'w': 7 * 24 * time.Hour,
	'd': 24 * time.Hour,
	'h': time.Hour,
	'm': time.Minute,
	's': time.Second,
}

// ParseAge parses an age threshold spec such as "2w3d5h": a sequence of
// <number><unit> terms with units w, d, h, m, s. Terms may appear in any
// order and accumulate.
func ParseAge(spec string) (time.Duration, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty age spec")
	}
	var total time.Duration
	n := -1
	for i := 0; i < len(spec); i++ {
		c := spec[i]
		switch {
		case c >= '0' && c <= '9':
			if n < 0 {
				n = 0
			}
			n = n*10 + int(c-'0')
		default:
			unit, ok := unitDurations[c]
			if !ok {
				return 0, fmt.Errorf("invalid age spec %q: unknown unit %q", spec, string(c))
			}
			if n < 0 {
				return 0, fmt.Errorf("invalid age spec %q: unit %q without a number", spec, string(c))
			}
			total += time.Duration(n) * unit
			n = -1
		}
	}
	if n >= 0 {
		return 0, fmt.Errorf("invalid age spec %q: trailing number without a unit", spec)
	}
	return total, nil
}
