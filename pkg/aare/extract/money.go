package extract

import (
	"strconv"
	"strings"
)

// parseMoney parses a decimal amount with an optional trailing scale
// suffix (k/K thousand, m/M million, b/B billion) immediately following
// the matched digits, per the money extractor contract.
func parseMoney(raw string, suffix byte) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	switch suffix {
	case 'k', 'K':
		amount *= 1e3
	case 'm', 'M':
		amount *= 1e6
	case 'b', 'B':
		amount *= 1e9
	}
	return amount, true
}
