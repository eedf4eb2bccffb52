package events

import "time"

// EventType enumerates security-relevant event identifiers.
type EventType string

const (
	EventUserRegistered    EventType = "USER_REGISTERED"
	EventLoginSuccess      EventType = "LOGIN_SUCCESS"
	EventLoginFailure      EventType = "LOGIN_FAILURE"
	EventLogout            EventType = "LOGOUT"
	EventReportCreated     EventType = "REPORT_CREATED"
	EventReportUpdated     EventType = "REPORT_UPDATED"
	EventReportDeleted     EventType = "REPORT_DELETED"
	EventReportStatusAdmin EventType = "ADMIN_STATUS_CHANGE"
	EventImageStored       EventType = "IMAGE_STORED"
	EventCommentDeleted    EventType = "COMMENT_DELETED"
	EventUserDeleted       EventType = "USER_DELETED"
)

// Event represents a security event emitted by services. UserID is nil
// for anonymous actors (for example a failed login). Target identifies
// the object acted upon: an attempted email, a report id, a filename.
// Events never carry submitted passwords.
type Event struct {
	Type      EventType
	UserID    *int64
	Target    string
	ClientIP  string
	Timestamp time.Time
}
