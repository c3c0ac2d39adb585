// Package bytesize provides human-readable byte size parsing and formatting
// using binary (1024-based) units.
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Size represents a number of bytes.
type Size int64

// Binary (1024-based) unit constants.
const (
	B  Size = 1
	KB      = B * 1024
	MB      = KB * 1024
	GB      = MB * 1024
	TB      = GB * 1024
	PB      = TB * 1024
)

var unitMultipliers = map[string]Size{
	"b":     B,
	"byte":  B,
	"bytes": B,

	"k":   KB,
	"kb":  KB,
	"kib": KB,

	"m":   MB,
	"mb":  MB,
	"mib": MB,

	"g":   GB,
	"gb":  GB,
	"gib": GB,

	"t":   TB,
	"tb":  TB,
	"tib": TB,

	"p":   PB,
	"pb":  PB,
	"pib": PB,
}

var sizePattern = regexp.MustCompile(`(?i)^\s*(-?\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

// Parse parses a human-readable byte size string such as "1.5GB" or "512kib".
// A bare number with no unit is interpreted as bytes.
func Parse(s string) (Size, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("bytesize: empty string")
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("bytesize: invalid format %q", s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: invalid number %q: %w", matches[1], err)
	}

	unit := strings.ToLower(strings.TrimSpace(matches[2]))
	if unit == "" {
		return Size(int64(value)), nil
	}

	multiplier, ok := unitMultipliers[unit]
	if !ok {
		return 0, fmt.Errorf("bytesize: unknown unit %q", matches[2])
	}

	return Size(int64(value * float64(multiplier))), nil
}

// MustParse is like Parse but panics if the string cannot be parsed.
// Use only for compile-time constants.
func MustParse(s string) Size {
	sz, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return sz
}

// Format converts a byte size to a human-readable string using the largest
// binary unit that keeps the mantissa above 1.
func Format(s Size) string {
	abs := s
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= PB:
		return formatFloat(float64(s)/float64(PB)) + "PB"
	case abs >= TB:
		return formatFloat(float64(s)/float64(TB)) + "TB"
	case abs >= GB:
		return formatFloat(float64(s)/float64(GB)) + "GB"
	case abs >= MB:
		return formatFloat(float64(s)/float64(MB)) + "MB"
	case abs >= KB:
		return formatFloat(float64(s)/float64(KB)) + "KB"
	default:
		return fmt.Sprintf("%dB", int64(s))
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}

// Bytes returns the size in bytes.
func (s Size) Bytes() int64 {
	return int64(s)
}

// Int64 returns the size as an int64.
func (s Size) Int64() int64 {
	return int64(s)
}

// String implements fmt.Stringer.
func (s Size) String() string {
	return Format(s)
}
