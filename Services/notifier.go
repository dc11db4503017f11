package Services

import (
	"context"

	"Attendance/Models"
)

// Notifier is told about leave requests as they move through approval.
type Notifier interface {
	LeaveApplied(ctx context.Context, leave Models.Leave) error
	LeaveApproved(ctx context.Context, leave Models.Leave) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) LeaveApplied(context.Context, Models.Leave) error  { return nil }
func (NopNotifier) LeaveApproved(context.Context, Models.Leave) error { return nil }
