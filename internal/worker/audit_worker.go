package worker

import (
	"context"

	"github.com/secureleak/report-service/internal/events"
	"github.com/secureleak/report-service/internal/observability"
)

// auditedEvents lists every event type the audit log records.
var auditedEvents = []events.EventType{
	events.EventUserRegistered,
	events.EventLoginSuccess,
	events.EventLoginFailure,
	events.EventLogout,
	events.EventReportCreated,
	events.EventReportUpdated,
	events.EventReportDeleted,
	events.EventReportStatusAdmin,
	events.EventImageStored,
	events.EventCommentDeleted,
	events.EventUserDeleted,
}

// StartAuditWorker subscribes the audit log sink to all security events.
// The dispatcher already discards handler errors, so a broken sink can
// never fail the operation being audited.
func StartAuditWorker(dispatcher events.Dispatcher, audit *observability.AuditLogger) {
	if dispatcher == nil || audit == nil {
		return
	}
	handler := func(_ context.Context, event events.Event) error {
		return audit.Event(string(event.Type), event.UserID, event.Target, event.ClientIP)
	}
	for _, eventType := range auditedEvents {
		dispatcher.Subscribe(eventType, handler)
	}
}
