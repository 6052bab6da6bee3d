package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitList splits a comma or newline separated list, dropping blanks.
func SplitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// isSpecialBreakpoint reports whether v names a bucket outside the numeric
// sequence, such as null, <0 or =0.
func isSpecialBreakpoint(v string) bool {
	if strings.EqualFold(v, "null") {
		return true
	}
	return strings.HasPrefix(v, "<") || strings.HasPrefix(v, ">") || strings.HasPrefix(v, "=")
}

// IsBreakpointList reports whether every item is either a special bucket or
// a plain number, i.e. the list is breakpoints rather than explicit ranges.
func IsBreakpointList(items []string) bool {
	if len(items) == 0 {
		return false
	}
	for _, v := range items {
		if isSpecialBreakpoint(v) {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
	}
	return true
}

// ValidateBreakpoints checks a breakpoint list such as "null, <0, 0, 6, 13".
// Leading special buckets are skipped; every remaining value must be a number
// strictly greater than the one before it.
func ValidateBreakpoints(s string) ([]string, error) {
	items := SplitList(s)
	if len(items) == 0 {
		return nil, invalid("bins", s, "breakpoints must not be empty")
	}

	i := 0
	for i < len(items) && isSpecialBreakpoint(items[i]) {
		i++
	}

	var prev float64
	for j, v := range items[i:] {
		current, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, invalid("bins", v, fmt.Sprintf("%q is not a valid number", v))
		}
		if j > 0 && current <= prev {
			return nil, invalid("bins", v, fmt.Sprintf("values must strictly increase (%s -> %s)", formatNumber(prev), v))
		}
		prev = current
	}
	return items, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
