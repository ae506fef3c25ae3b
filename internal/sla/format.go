package sla

import "fmt"

// FormatMinutesRemaining renders a minutes-remaining value for display.
// Negative values are overdue magnitudes; nil means no clock is running.
func FormatMinutesRemaining(minutes *int) string {
	if minutes == nil {
		return "N/A"
	}
	m := *minutes
	if m < 0 {
		return formatSpan(-m) + " overdue"
	}
	return formatSpan(m)
}

func formatSpan(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm", minutes)
	case minutes < 1440:
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	default:
		return fmt.Sprintf("%dd %dh", minutes/1440, (minutes%1440)/60)
	}
}
