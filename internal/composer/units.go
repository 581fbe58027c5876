package composer

import (
	"math"
	"strconv"
	"strings"
)

var lengthUnits = []string{"rem", "em", "px", "pt", "ms", "s", "%"}

// splitLength splits "1.25rem" into 1.25 and "rem". Unitless numbers are accepted.
func splitLength(value string) (float64, string, bool) {
	value = strings.TrimSpace(value)
	unit := ""
	for _, u := range lengthUnits {
		if strings.HasSuffix(value, u) {
			unit = u
			break
		}
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(value, unit), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, "", false
	}
	return n, unit, true
}

func formatLength(n float64, unit string) string {
	n = math.Round(n*10000) / 10000
	if n == 0 {
		if unit == "ms" || unit == "s" {
			return "0" + unit
		}
		return "0"
	}
	return strconv.FormatFloat(n, 'f', -1, 64) + unit
}

// scaleLength multiplies a length by factor. Values that are not plain
// lengths (calc(), var()) are returned unchanged.
func scaleLength(value string, factor float64) string {
	if factor == 1 {
		return value
	}
	n, unit, ok := splitLength(value)
	if !ok {
		return value
	}
	return formatLength(n*factor, unit)
}
