// Package status derives traffic-light statuses for clients and the roadmap
// lifecycle of backlog items. Every function here is pure: callers pass the
// records already loaded from storage together with the current instant and
// the business timezone.
package status

import (
	"fmt"
	"strings"
)

// Light is the four-valued severity signal. The zero value is Gray, meaning
// there was not enough data to classify.
type Light int

const (
	Gray Light = iota
	Green
	Yellow
	Red
)

// Priority orders lights from Gray (0) to Red (3).
func (l Light) Priority() int {
	return int(l)
}

func (l Light) String() string {
	switch l {
	case Gray:
		return "gray"
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	case Red:
		return "red"
	default:
		return fmt.Sprintf("Light(%d)", int(l))
	}
}

func ParseLight(s string) (Light, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gray", "grey":
		return Gray, nil
	case "green":
		return Green, nil
	case "yellow":
		return Yellow, nil
	case "red":
		return Red, nil
	default:
		return Gray, fmt.Errorf("unknown traffic light %q", s)
	}
}

func (l Light) MarshalText() ([]byte, error) {
	if l < Gray || l > Red {
		return nil, fmt.Errorf("invalid traffic light %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Light) UnmarshalText(b []byte) error {
	parsed, err := ParseLight(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Worst returns the more severe of a and b.
func Worst(a, b Light) Light {
	if b.Priority() > a.Priority() {
		return b
	}
	return a
}

// WorstOf folds Worst over ls. An empty list is Gray.
func WorstOf(ls ...Light) Light {
	out := Gray
	for _, l := range ls {
		out = Worst(out, l)
	}
	return out
}
