// Package timeutil parses the short duration strings accepted by snooze and
// retention flags.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var (
	segment = regexp.MustCompile(`^\s*(\d+)\s*([a-z]+)`)
	units   = map[string]time.Duration{
		"m":       time.Minute,
		"min":     time.Minute,
		"mins":    time.Minute,
		"minute":  time.Minute,
		"minutes": time.Minute,
		"h":       time.Hour,
		"hr":      time.Hour,
		"hrs":     time.Hour,
		"hour":    time.Hour,
		"hours":   time.Hour,
		"d":       day,
		"day":     day,
		"days":    day,
		"w":       7 * day,
		"week":    7 * day,
		"weeks":   7 * day,
	}
)

// Parse reads strings such as "10m", "2h30m" or "3d". A bare number is taken
// as minutes. Empty input yields fallback, which is parsed the same way.
func Parse(input, fallback string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		s = strings.ToLower(strings.TrimSpace(fallback))
	}
	if n, err := strconv.Atoi(s); err == nil {
		s = fmt.Sprintf("%dm", n)
	}

	var total time.Duration
	for rest := s; rest != ""; {
		m := segment.FindStringSubmatch(rest)
		if m == nil {
			return 0, fmt.Errorf("invalid duration %q", input)
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", input, err)
		}
		unit, ok := units[m[2]]
		if !ok {
			return 0, fmt.Errorf("unsupported duration unit %q", m[2])
		}
		total += time.Duration(n) * unit
		rest = strings.TrimSpace(rest[len(m[0]):])
	}
	if total <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", input)
	}
	return total, nil
}

// Days parses input and rounds it up to whole days.
func Days(input string) (int, error) {
	d, err := Parse(input, "")
	if err != nil {
		return 0, err
	}
	return int((d + day - 1) / day), nil
}

// Format renders d with d/h/m tokens, dropping zero parts.
func Format(d time.Duration) string {
	if d < time.Minute {
		return "0m"
	}
	var b strings.Builder
	for _, u := range []struct {
		label string
		size  time.Duration
	}{{"d", day}, {"h", time.Hour}, {"m", time.Minute}} {
		if n := d / u.size; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.label)
			d -= n * u.size
		}
	}
	return b.String()
}
