package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// PolicyAdminHandler exposes the admin surface for SLA policies and the
// business calendar.
type PolicyAdminHandler struct {
	policies *service.PolicyService
}

// NewPolicyAdminHandler constructs handler.
func NewPolicyAdminHandler(policies *service.PolicyService) *PolicyAdminHandler {
	return &PolicyAdminHandler{policies: policies}
}

// ListPolicies GET /admin/sla/policies.
func (h *PolicyAdminHandler) ListPolicies(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	policies, err := h.policies.ListPolicies(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policies})
}

// CreatePolicy POST /admin/sla/policies.
func (h *PolicyAdminHandler) CreatePolicy(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	var req dto.PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	policy, err := h.policies.CreatePolicy(c.UserContext(), actor, policyInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": policy})
}

// UpdatePolicy PUT /admin/sla/policies/:id.
func (h *PolicyAdminHandler) UpdatePolicy(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	var req dto.PolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	policy, err := h.policies.UpdatePolicy(c.UserContext(), actor, c.Params("id"), policyInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policy})
}

// SetPolicyActive PATCH /admin/sla/policies/:id/active.
func (h *PolicyAdminHandler) SetPolicyActive(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.policies.SetPolicyActive(c.UserContext(), actor, c.Params("id"), req.IsActive); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeletePolicy DELETE /admin/sla/policies/:id.
func (h *PolicyAdminHandler) DeletePolicy(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	if err := h.policies.DeletePolicy(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// BusinessHours GET /admin/sla/business-hours.
func (h *PolicyAdminHandler) BusinessHours(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	rules, err := h.policies.BusinessHours(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.DayRuleResponse, 0, len(rules))
	for _, rule := range rules {
		items = append(items, dto.DayRuleResponse{
			DayOfWeek:    rule.DayOfWeek,
			IsWorkingDay: rule.IsWorkingDay,
			StartTime:    minutesToClock(rule.StartMinute),
			EndTime:      minutesToClock(rule.EndMinute),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateBusinessHours PUT /admin/sla/business-hours.
func (h *PolicyAdminHandler) UpdateBusinessHours(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	var req dto.BusinessHoursRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	rules := make([]domain.DayRule, 0, len(req.Rules))
	for _, raw := range req.Rules {
		start, err := clockToMinutes(raw.StartTime)
		if err != nil && raw.IsWorkingDay {
			return apperrors.NewValidationError("invalid start_time", map[string]any{"day_of_week": raw.DayOfWeek})
		}
		end, err := clockToMinutes(raw.EndTime)
		if err != nil && raw.IsWorkingDay {
			return apperrors.NewValidationError("invalid end_time", map[string]any{"day_of_week": raw.DayOfWeek})
		}
		rules = append(rules, domain.DayRule{
			DayOfWeek:    raw.DayOfWeek,
			IsWorkingDay: raw.IsWorkingDay,
			StartMinute:  start,
			EndMinute:    end,
		})
	}
	if err := h.policies.UpdateBusinessHours(c.UserContext(), actor, rules); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListHolidays GET /admin/sla/holidays.
func (h *PolicyAdminHandler) ListHolidays(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	holidays, err := h.policies.Holidays(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.HolidayResponse, 0, len(holidays))
	for _, holiday := range holidays {
		items = append(items, dto.HolidayResponse{
			ID:          holiday.ID,
			Name:        holiday.Name,
			Date:        holiday.Date.Format("2006-01-02"),
			IsRecurring: holiday.IsRecurring,
			CreatedAt:   holiday.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddHoliday POST /admin/sla/holidays.
func (h *PolicyAdminHandler) AddHoliday(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	var req dto.HolidayRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return apperrors.NewValidationError("invalid date, expected YYYY-MM-DD", map[string]any{"date": req.Date})
	}
	holiday := &domain.Holiday{Name: req.Name, Date: date, IsRecurring: req.IsRecurring}
	if err := h.policies.AddHoliday(c.UserContext(), actor, holiday); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.HolidayResponse{
		ID:          holiday.ID,
		Name:        holiday.Name,
		Date:        holiday.Date.Format("2006-01-02"),
		IsRecurring: holiday.IsRecurring,
		CreatedAt:   holiday.CreatedAt,
	}})
}

// DeleteHoliday DELETE /admin/sla/holidays/:id.
func (h *PolicyAdminHandler) DeleteHoliday(c *fiber.Ctx) error {
	actor, _ := auth.UserFromContext(c)
	if err := h.policies.DeleteHoliday(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func policyInput(req dto.PolicyRequest) service.PolicyInput {
	return service.PolicyInput{
		Name:                  req.Name,
		Description:           req.Description,
		Priority:              req.Priority,
		ResponseTimeMinutes:   req.ResponseTimeMinutes,
		ResolutionTimeMinutes: req.ResolutionTimeMinutes,
		EscalationTimeMinutes: req.EscalationTimeMinutes,
		BusinessHoursOnly:     req.BusinessHoursOnly,
		IsActive:              req.IsActive,
	}
}

func minutesToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func clockToMinutes(clock string) (int, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
