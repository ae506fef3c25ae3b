package sla

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMinutesRemaining(t *testing.T) {
	tests := []struct {
		name    string
		minutes *int
		want    string
	}{
		{"nil", nil, "N/A"},
		{"minutes only", intPtr(45), "45m"},
		{"hours and minutes", intPtr(135), "2h 15m"},
		{"days and hours", intPtr(3000), "2d 2h"},
		{"overdue minutes", intPtr(-30), "30m overdue"},
		{"overdue hours", intPtr(-90), "1h 30m overdue"},
		{"overdue days", intPtr(-2880), "2d 0h overdue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMinutesRemaining(tt.minutes))
		})
	}
}
