package components

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Confidence renders a recommendation confidence as a percentage and a bar.
type Confidence struct {
	bar progress.Model
}

// NewConfidence creates a confidence bar of the given width.
func NewConfidence(width int) Confidence {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	if width > 0 {
		bar.Width = width
	}
	return Confidence{bar: bar}
}

// View renders ratio, clamped to [0, 1].
func (c Confidence) View(ratio float64) string {
	ratio = math.Max(0, math.Min(1, ratio))
	label := lipgloss.NewStyle().Bold(true).Width(4).Align(lipgloss.Right).
		Render(fmt.Sprintf("%d%%", int(math.Round(ratio*100))))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", c.bar.ViewAs(ratio))
}
