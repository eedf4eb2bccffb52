package domain

import "time"

// Comment is a remark left on a report by a registered user.
type Comment struct {
	ID        int64
	ReportID  int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}
