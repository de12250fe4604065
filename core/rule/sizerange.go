package rule

import (
	"fmt"
	"strconv"
	"strings"
)

const mb = 1024 * 1024

// ParseSizeRange parses the size filter grammar into byte bounds.
//
//	"0"     unrestricted (0, 0)
//	"10"    at least 10 MB, no upper bound
//	"10-50" between 10 and 50 MB inclusive
//	"-50"   up to 50 MB (empty minimum defaults to 0)
//
// A max of 0 means no upper bound.
func ParseSizeRange(s string) (minBytes, maxBytes int64, err error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, 0, nil
	}

	if lo, hi, ok := strings.Cut(s, "-"); ok {
		var minMB, maxMB float64
		if strings.TrimSpace(lo) != "" {
			minMB, err = strconv.ParseFloat(strings.TrimSpace(lo), 64)
			if err != nil || minMB < 0 {
				return 0, 0, fmt.Errorf("invalid size range %q", s)
			}
		}
		maxMB, err = strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil || maxMB <= 0 {
			return 0, 0, fmt.Errorf("invalid size range %q", s)
		}
		if minMB > maxMB {
			return 0, 0, fmt.Errorf("invalid size range %q: min exceeds max", s)
		}
		return int64(minMB * mb), int64(maxMB * mb), nil
	}

	minMB, err := strconv.ParseFloat(s, 64)
	if err != nil || minMB < 0 {
		return 0, 0, fmt.Errorf("invalid size range %q", s)
	}
	return int64(minMB * mb), 0, nil
}

// matchSize checks byte bounds; 0 disables the respective bound, and
// the upper bound is inclusive.
func matchSize(minBytes, maxBytes, size int64) bool {
	if minBytes > 0 && size < minBytes {
		return false
	}
	if maxBytes > 0 && size > maxBytes {
		return false
	}
	return true
}
