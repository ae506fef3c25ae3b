package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func pendingTracking(created time.Time, window time.Duration) *domain.SLATracking {
	return &domain.SLATracking{
		TicketID:        "t-1",
		PolicyID:        "p-1",
		CreatedAt:       created,
		ResponseDueAt:   created.Add(window),
		ResolutionDueAt: created.Add(4 * window),
	}
}

func TestClassifyPendingProgress(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracking := pendingTracking(created, 100*time.Minute)

	tests := []struct {
		name         string
		now          time.Time
		wantStatus   AxisStatus
		wantProgress int
	}{
		{"fresh", created, AxisPending, 0},
		{"halfway", created.Add(50 * time.Minute), AxisPending, 50},
		{"just below threshold", created.Add(79*time.Minute + 59*time.Second), AxisPending, 79},
		{"exactly at threshold", created.Add(80 * time.Minute), AxisAtRisk, 80},
		{"above threshold", created.Add(95 * time.Minute), AxisAtRisk, 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tracking, tt.now)
			assert.Equal(t, tt.wantStatus, got.Response.Status)
			assert.Equal(t, tt.wantProgress, got.Response.Progress)
			require.NotNil(t, got.Response.MinutesRemaining)
			assert.GreaterOrEqual(t, *got.Response.MinutesRemaining, 0)
		})
	}
}

func TestClassifyBreachedPastDue(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracking := pendingTracking(created, 100*time.Minute)

	got := Classify(tracking, created.Add(101*time.Minute))
	assert.Equal(t, AxisBreached, got.Response.Status)
	assert.Equal(t, 100, got.Response.Progress)
	require.NotNil(t, got.Response.MinutesRemaining)
	assert.Equal(t, -1, *got.Response.MinutesRemaining)
}

func TestClassifyTerminalTimestamps(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	responded := created.Add(10 * time.Minute)
	met := true
	missed := false

	tracking := pendingTracking(created, 100*time.Minute)
	tracking.FirstResponseAt = &responded
	tracking.ResponseSLAMet = &met

	got := Classify(tracking, created.Add(3*time.Hour))
	assert.Equal(t, AxisMet, got.Response.Status)
	assert.Equal(t, 100, got.Response.Progress)
	assert.Nil(t, got.Response.MinutesRemaining)

	tracking.ResponseSLAMet = &missed
	got = Classify(tracking, created.Add(3*time.Hour))
	assert.Equal(t, AxisBreached, got.Response.Status)
	assert.Nil(t, got.Response.MinutesRemaining)
}

func TestClassifyZeroWindow(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracking := &domain.SLATracking{
		CreatedAt:       created,
		ResponseDueAt:   created,
		ResolutionDueAt: created,
	}
	got := Classify(tracking, created)
	assert.Equal(t, AxisBreached, got.Response.Status)
	assert.Equal(t, 100, got.Response.Progress)
}

func TestClassifyDeterministic(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracking := pendingTracking(created, 90*time.Minute)
	now := created.Add(42 * time.Minute)

	first := Classify(tracking, now)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(tracking, now))
	}
}

func TestClassifyProgressMonotonic(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tracking := pendingTracking(created, 137*time.Minute)

	prev := -1
	for step := 0; step <= 150; step++ {
		got := Classify(tracking, created.Add(time.Duration(step)*time.Minute))
		require.GreaterOrEqual(t, got.Response.Progress, prev, "progress went backwards at minute %d", step)
		prev = got.Response.Progress
	}
}
