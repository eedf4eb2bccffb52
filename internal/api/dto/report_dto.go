package dto

import (
	"time"

	"github.com/secureleak/report-service/internal/domain"
)

// ReportCreateRequest payload for submitting a report.
type ReportCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
}

// ReportUpdateRequest payload for partial report updates. Absent fields
// are left unchanged.
type ReportUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Severity    *string `json:"severity"`
	Status      *string `json:"status"`
}

// CommentCreateRequest payload for adding a comment.
type CommentCreateRequest struct {
	Content string `json:"content"`
}

// AdminStatusRequest payload for the administrative status transition.
type AdminStatusRequest struct {
	Status string `json:"status"`
}

// ReportResponse is the public view of a report.
type ReportResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	ImageName   *string   `json:"image_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CommentResponse is the public view of a comment.
type CommentResponse struct {
	ID        int64     `json:"id"`
	ReportID  int64     `json:"report_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReportResponse maps a domain report to its transport shape.
func NewReportResponse(report *domain.Report) ReportResponse {
	return ReportResponse{
		ID:          report.ID,
		OwnerID:     report.OwnerID,
		Title:       report.Title,
		Description: report.Description,
		Severity:    string(report.Severity),
		Status:      string(report.Status),
		ImageName:   report.ImageName,
		CreatedAt:   report.CreatedAt,
		UpdatedAt:   report.UpdatedAt,
	}
}

// NewCommentResponse maps a domain comment to its transport shape.
func NewCommentResponse(comment *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		ReportID:  comment.ReportID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}
