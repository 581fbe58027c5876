package composer

import (
	"github.com/lucasb-eyer/go-colorful"
)

// MinContrast is the WCAG AAA ratio enforced by the high-contrast override.
const MinContrast = 7.0

var (
	white = colorful.Color{R: 1, G: 1, B: 1}
	black = colorful.Color{}
)

func parseColor(value string) (colorful.Color, bool) {
	c, err := colorful.Hex(value)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio returns the WCAG contrast ratio between two colours.
func ContrastRatio(a, b colorful.Color) float64 {
	la, lb := luminance(a), luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// ensureContrast blends fg toward the extreme opposite of bg until the pair
// reaches min. Candidates are measured after hex rounding. The returned colour
// is fg itself when it already complies.
func ensureContrast(fg, bg colorful.Color, min float64) colorful.Color {
	if ContrastRatio(fg, bg) >= min {
		return fg
	}
	target := white
	if ContrastRatio(black, bg) > ContrastRatio(white, bg) {
		target = black
	}
	for step := 1; step <= 10; step++ {
		candidate, _ := parseColor(fg.BlendRgb(target, float64(step)/10).Clamped().Hex())
		if ContrastRatio(candidate, bg) >= min {
			return candidate
		}
	}
	return target
}
