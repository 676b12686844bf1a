package presencesvc

import (
	"strconv"
	"strings"
)

// FormatPrice renders price per the magnitude table in spec.md §4.4:
// 0 decimals at or above 1000 (comma-grouped), 2 from 100 to 1000, 3
// from 1 to 100, 4 below 1. No trailing zeros are stripped, per the
// testable property in spec.md §8.
func FormatPrice(price float64) string {
	var decimals int
	switch {
	case price >= 1000:
		decimals = 0
	case price >= 100:
		decimals = 2
	case price >= 1:
		decimals = 3
	default:
		decimals = 4
	}

	formatted := strconv.FormatFloat(price, 'f', decimals, 64)
	if decimals == 0 {
		return groupThousands(formatted)
	}

	intPart, fracPart, _ := strings.Cut(formatted, ".")
	return groupThousands(intPart) + "." + fracPart
}

// groupThousands inserts comma separators into the integer-part digit
// string digits, preserving a leading minus sign if present.
func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	n := len(digits)
	if n <= 3 {
		if neg {
			return "-" + digits
		}
		return digits
	}

	var b strings.Builder
	lead := n % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
