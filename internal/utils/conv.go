package utils

import (
	"strconv"
)

// StringToUint parses a positive id, returning 0 on error.
func StringToUint(s string) uint {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}

// StringToInt parses s, returning def when s is empty and ok=false when s is
// not a number.
func StringToInt(s string, def int) (int, bool) {
	if s == "" {
		return def, true
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return i, true
}
