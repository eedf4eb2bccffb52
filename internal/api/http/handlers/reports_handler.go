package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/secureleak/report-service/internal/api/dto"
	"github.com/secureleak/report-service/internal/auth"
	"github.com/secureleak/report-service/internal/domain"
	"github.com/secureleak/report-service/internal/service"
	apperrors "github.com/secureleak/report-service/pkg/util"
)

// ReportsHandler exposes report, comment and image endpoints.
type ReportsHandler struct {
	reports *service.ReportService
	uploads *service.UploadService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService, uploads *service.UploadService) *ReportsHandler {
	return &ReportsHandler{reports: reports, uploads: uploads}
}

// List handles GET /reports.
func (h *ReportsHandler) List(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)
	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)

	reports, err := h.reports.ListReports(c.UserContext(), identity, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toReportResponses(reports)})
}

// Create handles POST /reports.
func (h *ReportsHandler) Create(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)

	var req dto.ReportCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	report, err := h.reports.CreateReport(c.UserContext(), identity, service.ReportCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Severity:    domain.ReportSeverity(req.Severity),
		Status:      domain.ReportStatus(req.Status),
	}, c.IP())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// Get handles GET /reports/:id. Public reports are readable without a
// session; private ones answer "not found" to anyone but their owner.
func (h *ReportsHandler) Get(c *fiber.Ctx) error {
	reportID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	report, err := h.reports.GetReport(c.UserContext(), identity, reportID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// Update handles PATCH /reports/:id.
func (h *ReportsHandler) Update(c *fiber.Ctx) error {
	reportID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	var req dto.ReportUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ReportUpdateInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Severity != nil {
		severity := domain.ReportSeverity(*req.Severity)
		input.Severity = &severity
	}
	if req.Status != nil {
		status := domain.ReportStatus(*req.Status)
		input.Status = &status
	}

	report, err := h.reports.UpdateReport(c.UserContext(), identity, reportID, input, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewReportResponse(report)})
}

// Delete handles DELETE /reports/:id.
func (h *ReportsHandler) Delete(c *fiber.Ctx) error {
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

// ListComments handles GET /reports/:id/comments.
func (h *ReportsHandler) ListComments(c *fiber.Ctx) error {
	reportID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	comments, err := h.reports.ListComments(c.UserContext(), identity, reportID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toCommentResponses(comments)})
}

// AddComment handles POST /reports/:id/comments.
func (h *ReportsHandler) AddComment(c *fiber.Ctx) error {
	reportID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	var req dto.CommentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.reports.AddComment(c.UserContext(), identity, reportID, req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// UploadImage handles POST /reports/:id/image.
func (h *ReportsHandler) UploadImage(c *fiber.Ctx) error {
	reportID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	file, err := c.FormFile("image")
	if err != nil {
		return apperrors.NewValidationError("image file is required", map[string]any{"field": "image"})
	}

	name, err := h.uploads.StoreReportImage(c.UserContext(), identity, reportID, file, c.IP())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"image_name": name}})
}

// GetImage handles GET /reports/:id/image/:name. Only the filename
// recorded against the report is ever served.
func (h *ReportsHandler) GetImage(c *fiber.Ctx) error {
	reportID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	identity, _ := auth.IdentityFromContext(c)

	path, err := h.uploads.ResolveReportImage(c.UserContext(), identity, reportID, c.Params("name"))
	if err != nil {
		return err
	}
	return c.SendFile(path)
}

func parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("resource", nil)
	}
	return id, nil
}

func toReportResponses(reports []domain.Report) []dto.ReportResponse {
	result := make([]dto.ReportResponse, 0, len(reports))
	for i := range reports {
		result = append(result, dto.NewReportResponse(&reports[i]))
	}
	return result
}

func toCommentResponses(comments []domain.Comment) []dto.CommentResponse {
	result := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		result = append(result, dto.NewCommentResponse(&comments[i]))
	}
	return result
}
