package main

import "fmt"

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	if max <= 3 {
		max = 3
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// formatHours renders a duration in hours with one decimal, or a dash
// when the value was never measured.
func formatHours(value float64, valid bool) string {
	if !valid {
		return "-"
	}
	return fmt.Sprintf("%.1fh", value)
}
