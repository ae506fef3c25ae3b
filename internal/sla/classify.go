package sla

import (
	"math"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// AxisStatus is the live compliance state of one SLA axis.
type AxisStatus string

const (
	AxisMet      AxisStatus = "met"
	AxisBreached AxisStatus = "breached"
	AxisPending  AxisStatus = "pending"
	AxisAtRisk   AxisStatus = "at_risk"
)

// atRiskThreshold is the inclusive progress percentage at which a pending
// axis becomes at-risk.
const atRiskThreshold = 80

// AxisCompliance reports one axis of a classification.
type AxisCompliance struct {
	Status           AxisStatus `json:"status"`
	Progress         int        `json:"progress"`
	MinutesRemaining *int       `json:"minutes_remaining,omitempty"`
}

// Status is the full classification of a tracking row at an instant.
type Status struct {
	Response   AxisCompliance `json:"response"`
	Resolution AxisCompliance `json:"resolution"`
}

// Classify maps a tracking snapshot and an explicit now to compliance
// states. It is a pure function: it never reads the wall clock, so
// repeated calls with the same inputs return identical output.
func Classify(tracking *domain.SLATracking, now time.Time) Status {
	return Status{
		Response:   classifyAxis(tracking.CreatedAt, tracking.ResponseDueAt, tracking.FirstResponseAt, tracking.ResponseSLAMet, now),
		Resolution: classifyAxis(tracking.CreatedAt, tracking.ResolutionDueAt, tracking.ResolvedAt, tracking.ResolutionSLAMet, now),
	}
}

func classifyAxis(createdAt, dueAt time.Time, terminalAt *time.Time, met *bool, now time.Time) AxisCompliance {
	if terminalAt != nil {
		status := AxisBreached
		if met != nil && *met {
			status = AxisMet
		}
		return AxisCompliance{Status: status, Progress: 100}
	}

	remaining := minutesFloor(dueAt.Sub(now))
	totalWindow := dueAt.Sub(createdAt)
	if totalWindow <= 0 || now.After(dueAt) {
		return AxisCompliance{Status: AxisBreached, Progress: 100, MinutesRemaining: &remaining}
	}

	elapsed := now.Sub(createdAt)
	progress := int(math.Floor(float64(elapsed) / float64(totalWindow) * 100))
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	status := AxisPending
	if progress >= atRiskThreshold {
		status = AxisAtRisk
	}
	return AxisCompliance{Status: status, Progress: progress, MinutesRemaining: &remaining}
}

// minutesFloor converts a duration to whole minutes, rounding toward
// negative infinity so overdue magnitudes do not shrink to zero.
func minutesFloor(d time.Duration) int {
	return int(math.Floor(d.Minutes()))
}
