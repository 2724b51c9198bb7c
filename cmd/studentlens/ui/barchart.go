package ui

import (
	"math"
	"strings"
)

// Bar renders value against max as a filled horizontal bar of width
// cells. Used for class probabilities and importance scores.
func Bar(value, max float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if max > 0 && value > 0 {
		filled = int(math.Round(value / max * float64(width)))
		if filled > width {
			filled = width
		}
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// SignedBar renders value against ±max as a bar growing from a center
// axis: negative values fill leftward, positive rightward. The result
// is always 2*half+1 cells wide, so rows align in a column.
func SignedBar(value, max float64, half int) string {
	if half <= 0 {
		return "│"
	}
	cells := 0
	if max > 0 && value != 0 {
		cells = int(math.Round(math.Abs(value) / max * float64(half)))
		if cells > half {
			cells = half
		}
	}
	if value >= 0 {
		return strings.Repeat(" ", half) + "│" +
			strings.Repeat("█", cells) + strings.Repeat(" ", half-cells)
	}
	return strings.Repeat(" ", half-cells) + strings.Repeat("█", cells) +
		"│" + strings.Repeat(" ", half)
}
