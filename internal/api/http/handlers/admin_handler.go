package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/secureleak/report-service/internal/api/dto"
	"github.com/secureleak/report-service/internal/auth"
	"github.com/secureleak/report-service/internal/domain"
	"github.com/secureleak/report-service/internal/service"
	apperrors "github.com/secureleak/report-service/pkg/util"
)

// AdminHandler exposes the administrative endpoints. Every route behind
// it carries the admin role guard, which re-verifies the role against
// the credential store per request.
type AdminHandler struct {
	reports *service.ReportService
	users   *service.AuthService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(reports *service.ReportService, users *service.AuthService) *AdminHandler {
	return &AdminHandler{reports: reports, users: users}
}

// ListReports handles GET /admin/reports.
func (h *AdminHandler) ListReports(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 200)
	offset := c.QueryInt("offset", 0)

	reports, err := h.reports.ListAllReports(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toReportResponses(reports)})
}

// SetReportStatus handles POST /admin/reports/:id/status. This is the
// only route that can close a report.
func (h *AdminHandler) SetReportStatus(c *fiber.Ctx) error {
	reportID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	var req dto.AdminStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.reports.AdminSetStatus(c.UserContext(), identity, reportID, domain.ReportStatus(req.Status), c.IP()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": reportID, "status": req.Status}})
}

// DeleteReport handles DELETE /admin/reports/:id.
func (h *AdminHandler) DeleteReport(c *fiber.Ctx) error {
	reportID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	if err := h.reports.DeleteReport(c.UserContext(), identity, reportID, c.IP()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteComment handles DELETE /admin/comments/:id.
func (h *AdminHandler) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	if err := h.reports.DeleteComment(c.UserContext(), identity, commentID, c.IP()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteUser handles DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	if err := h.users.DeleteUser(c.UserContext(), identity, userID, c.IP()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
