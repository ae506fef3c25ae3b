package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// SLAHandler exposes compliance metrics and attention listings.
type SLAHandler struct {
	metrics *service.MetricsService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(metrics *service.MetricsService) *SLAHandler {
	return &SLAHandler{metrics: metrics}
}

// Metrics GET /sla/metrics?from&to.
func (h *SLAHandler) Metrics(c *fiber.Ctx) error {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return err
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return err
	}
	if from != nil && to != nil && !from.Before(*to) {
		return apperrors.NewValidationError("from must be before to", nil)
	}

	metrics, err := h.metrics.Metrics(c.UserContext(), from, to, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": metrics})
}

// Breached GET /sla/breached.
func (h *SLAHandler) Breached(c *fiber.Ctx) error {
	views, err := h.metrics.ListBreached(c.UserContext(), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": views})
}

// AtRisk GET /sla/at-risk.
func (h *SLAHandler) AtRisk(c *fiber.Ctx) error {
	views, err := h.metrics.ListAtRisk(c.UserContext(), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": views})
}

func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, apperrors.NewValidationError("invalid time parameter", map[string]any{name: raw})
}
