package domain

import "time"

// ReportSeverity enumerates report severity levels.
type ReportSeverity string

const (
	SeverityLow    ReportSeverity = "low"
	SeverityMedium ReportSeverity = "medium"
	SeverityHigh   ReportSeverity = "high"
)

// Valid reports whether the severity is one of the known values.
func (s ReportSeverity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// ReportStatus enumerates report lifecycle states. StatusClosed is
// reachable only through an administrative transition, never at creation.
type ReportStatus string

const (
	StatusPublic  ReportStatus = "public"
	StatusPrivate ReportStatus = "private"
	StatusClosed  ReportStatus = "closed"
)

// Valid reports whether the status is one of the known values.
func (s ReportStatus) Valid() bool {
	return s == StatusPublic || s == StatusPrivate || s == StatusClosed
}

// AllowedAtCreation reports whether a report may be created with this status.
func (s ReportStatus) AllowedAtCreation() bool {
	return s == StatusPublic || s == StatusPrivate
}

// Report is the aggregate for submitted vulnerability reports.
type Report struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	Severity    ReportSeverity
	Status      ReportStatus
	ImageName   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
