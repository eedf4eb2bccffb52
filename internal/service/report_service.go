package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/secureleak/report-service/internal/auth"
	"github.com/secureleak/report-service/internal/domain"
	"github.com/secureleak/report-service/internal/events"
	"github.com/secureleak/report-service/internal/repository"
	apperrors "github.com/secureleak/report-service/pkg/util"
)

// ReportService coordinates report and comment workflows. Authorization
// denials are reported as "not found" throughout, so a denied report is
// indistinguishable from a missing one.
type ReportService struct {
	reports    repository.ReportRepository
	comments   repository.CommentRepository
	guards     *auth.Guards
	dispatcher events.Dispatcher
}

// NewReportService builds the service.
func NewReportService(reports repository.ReportRepository, comments repository.CommentRepository, guards *auth.Guards, dispatcher events.Dispatcher) *ReportService {
	return &ReportService{
		reports:    reports,
		comments:   comments,
		guards:     guards,
		dispatcher: dispatcher,
	}
}

// IsVisible is the resource visibility policy: public reports are
// readable by anyone, private reports only by their owner, and any other
// or unknown status denies by default. Report detail and image serving
// both go through this single predicate.
func IsVisible(report *domain.Report, identity *domain.Identity) bool {
	if report == nil {
		return false
	}
	switch report.Status {
	case domain.StatusPublic:
		return true
	case domain.StatusPrivate:
		return identity != nil && identity.UserID == report.OwnerID
	default:
		return false
	}
}

// ReportCreateInput describes report creation payload.
type ReportCreateInput struct {
	Title       string
	Description string
	Severity    domain.ReportSeverity
	Status      domain.ReportStatus
}

// CreateReport submits a new report owned by the caller. Creation only
// permits public or private status; closed is an administrative state.
func (s *ReportService) CreateReport(ctx context.Context, identity *domain.Identity, input ReportCreateInput, clientIP string) (*domain.Report, error) {
	if identity == nil {
		return nil, apperrors.NewUnauthorized("sign in required")
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if !input.Severity.Valid() {
		return nil, apperrors.NewValidationError("invalid severity", map[string]any{
			"field":    "severity",
			"accepted": []string{"low", "medium", "high"},
		})
	}
	if !input.Status.AllowedAtCreation() {
		return nil, apperrors.NewValidationError("invalid status, choose public or private", map[string]any{
			"field":    "status",
			"accepted": []string{"public", "private"},
		})
	}

	report := &domain.Report{
		OwnerID:     identity.UserID,
		Title:       title,
		Description: description,
		Severity:    input.Severity,
		Status:      input.Status,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.emit(ctx, events.EventReportCreated, &identity.UserID, formatID(report.ID), clientIP)
	return report, nil
}

// GetReport returns the report when the visibility policy allows the
// caller to read it.
func (s *ReportService) GetReport(ctx context.Context, identity *domain.Identity, reportID int64) (*domain.Report, error) {
	report, err := s.fetch(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !IsVisible(report, identity) {
		return nil, apperrors.NewNotFound("report", nil)
	}
	return report, nil
}

// ListReports returns public reports together with the caller's own
// private ones, newest first.
func (s *ReportService) ListReports(ctx context.Context, identity *domain.Identity, limit, offset int) ([]domain.Report, error) {
	if identity == nil {
		return nil, apperrors.NewUnauthorized("sign in required")
	}
	reports, err := s.reports.ListVisibleTo(ctx, identity.UserID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reports, nil
}

// ReportUpdateInput describes a whitelisted partial update. Nil fields
// are left untouched.
type ReportUpdateInput struct {
	Title       *string
	Description *string
	Severity    *domain.ReportSeverity
	Status      *domain.ReportStatus
}

// UpdateReport applies a partial update. Only the owner or an admin may
// update a report; owners may only move status between public and
// private.
func (s *ReportService) UpdateReport(ctx context.Context, identity *domain.Identity, reportID int64, input ReportUpdateInput, clientIP string) (*domain.Report, error) {
	report, err := s.fetch(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !s.guards.OwnsOrIsAdmin(ctx, identity, report.OwnerID) {
		return nil, apperrors.NewNotFound("report", nil)
	}

	fields := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title must not be empty", map[string]any{"field": "title"})
		}
		fields["title"] = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description must not be empty", map[string]any{"field": "description"})
		}
		fields["description"] = description
	}
	if input.Severity != nil {
		if !input.Severity.Valid() {
			return nil, apperrors.NewValidationError("invalid severity", map[string]any{"field": "severity"})
		}
		fields["severity"] = *input.Severity
	}
	if input.Status != nil {
		if !input.Status.AllowedAtCreation() {
			return nil, apperrors.NewValidationError("invalid status, choose public or private", map[string]any{"field": "status"})
		}
		fields["status"] = *input.Status
	}
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}

	if err := s.reports.UpdateFields(ctx, reportID, fields); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("report", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.emit(ctx, events.EventReportUpdated, actorID(identity), formatID(reportID), clientIP)
	return s.fetch(ctx, reportID)
}

// AdminSetStatus performs the administrative status transition; it is the
// only path that may close a report.
func (s *ReportService) AdminSetStatus(ctx context.Context, identity *domain.Identity, reportID int64, status domain.ReportStatus, clientIP string) error {
	if !status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{
			"field":    "status",
			"accepted": []string{"public", "private", "closed"},
		})
	}
	if err := s.reports.UpdateFields(ctx, reportID, map[string]any{"status": status}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("report", nil)
		}
		return apperrors.MapError(err)
	}
	s.emit(ctx, events.EventReportStatusAdmin, actorID(identity), formatID(reportID), clientIP)
	return nil
}

// ListAllReports returns every report, newest first. Admin dashboards
// only; the route guard enforces the role.
func (s *ReportService) ListAllReports(ctx context.Context, limit, offset int) ([]domain.Report, error) {
	reports, err := s.reports.ListAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reports, nil
}

// DeleteReport removes a report. Owner or admin only.
func (s *ReportService) DeleteReport(ctx context.Context, identity *domain.Identity, reportID int64, clientIP string) error {
	report, err := s.fetch(ctx, reportID)
	if err != nil {
		return err
	}
	if !s.guards.OwnsOrIsAdmin(ctx, identity, report.OwnerID) {
		return apperrors.NewNotFound("report", nil)
	}
	if err := s.reports.Delete(ctx, reportID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("report", nil)
		}
		return apperrors.MapError(err)
	}
	s.emit(ctx, events.EventReportDeleted, actorID(identity), formatID(reportID), clientIP)
	return nil
}

// AddComment creates a comment on a report the caller can read. The
// visibility policy applies to writes as well: commenting on someone
// else's private report is denied the same way reading it is.
func (s *ReportService) AddComment(ctx context.Context, identity *domain.Identity, reportID int64, content string) (*domain.Comment, error) {
	if identity == nil {
		return nil, apperrors.NewUnauthorized("sign in required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", map[string]any{"field": "content"})
	}

	report, err := s.fetch(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !IsVisible(report, identity) && !s.guards.OwnsOrIsAdmin(ctx, identity, report.OwnerID) {
		return nil, apperrors.NewNotFound("report", nil)
	}

	comment := &domain.Comment{
		ReportID: reportID,
		UserID:   identity.UserID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// ListComments returns a report's comments in insertion order, gated by
// the same visibility policy as the report itself.
func (s *ReportService) ListComments(ctx context.Context, identity *domain.Identity, reportID int64) ([]domain.Comment, error) {
	report, err := s.fetch(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !IsVisible(report, identity) {
		return nil, apperrors.NewNotFound("report", nil)
	}
	comments, err := s.comments.ListByReport(ctx, reportID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// DeleteComment removes a comment. Author or admin only.
func (s *ReportService) DeleteComment(ctx context.Context, identity *domain.Identity, commentID int64, clientIP string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("comment", nil)
		}
		return apperrors.MapError(err)
	}
	if !s.guards.OwnsOrIsAdmin(ctx, identity, comment.UserID) {
		return apperrors.NewNotFound("comment", nil)
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("comment", nil)
		}
		return apperrors.MapError(err)
	}
	s.emit(ctx, events.EventCommentDeleted, actorID(identity), formatID(commentID), clientIP)
	return nil
}

func (s *ReportService) fetch(ctx context.Context, reportID int64) (*domain.Report, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("report", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return report, nil
}

func (s *ReportService) emit(ctx context.Context, eventType events.EventType, userID *int64, target, clientIP string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		UserID:    userID,
		Target:    target,
		ClientIP:  clientIP,
		Timestamp: time.Now(),
	})
}

func actorID(identity *domain.Identity) *int64 {
	if identity == nil {
		return nil
	}
	return &identity.UserID
}
