package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// TicketActionsHandler exposes lifecycle mutations and the per-ticket
// history/SLA endpoints.
type TicketActionsHandler struct {
	lifecycle  *service.LifecycleService
	assignment *service.AssignmentService
	tracker    *service.TrackerService
}

// NewTicketActionsHandler constructs handler.
func NewTicketActionsHandler(lifecycle *service.LifecycleService, assignment *service.AssignmentService, tracker *service.TrackerService) *TicketActionsHandler {
	return &TicketActionsHandler{lifecycle: lifecycle, assignment: assignment, tracker: tracker}
}

// UpdateStatus POST /tickets/:id/status.
func (h *TicketActionsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.lifecycle.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Assign POST /tickets/:id/assign.
func (h *TicketActionsHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.assignment.Assign(c.UserContext(), actor, c.Params("id"), req.AssignedTo, req.Note, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketActionsHandler) AddComment(c *fiber.Ctx) error {
	actor, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.lifecycle.AddComment(c.UserContext(), actor, c.Params("id"), req.Content, time.Now().UTC())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}})
}

// History GET /tickets/:id/history.
func (h *TicketActionsHandler) History(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	entries, err := h.lifecycle.History(c.UserContext(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewAuditEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SLAStatus GET /tickets/:id/sla-status. Untracked tickets return a null
// indicator rather than an error.
func (h *TicketActionsHandler) SLAStatus(c *fiber.Ctx) error {
	tracking, status, err := h.tracker.Status(c.UserContext(), c.Params("id"), time.Now().UTC())
	if err != nil {
		return err
	}
	if tracking == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.NewSLAStatusResponse(tracking, status)})
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	limit = 50
	offset = 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
