package Notifications

import (
	"context"
	"errors"
	"fmt"

	"Attendance/Models"
	"Attendance/Services"
)

// Multi fans every notification out to all of its notifiers and joins
// their errors.
type Multi []Services.Notifier

func (m Multi) LeaveApplied(ctx context.Context, leave Models.Leave) error {
	var errs []error
	for _, n := range m {
		if err := n.LeaveApplied(ctx, leave); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) LeaveApproved(ctx context.Context, leave Models.Leave) error {
	var errs []error
	for _, n := range m {
		if err := n.LeaveApproved(ctx, leave); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AppliedText is the title and body announcing a new leave request.
func AppliedText(leave Models.Leave) (title, body string) {
	title = "Leave request submitted"
	body = fmt.Sprintf("%s leave applied on %s", leave.LeaveType.Name, leave.AppliedAt.Format("Jan 2, 2006 15:04"))
	if leave.Remark != "" {
		body += ": " + leave.Remark
	}
	return title, body
}

// ApprovedText is the title and body announcing an approval.
func ApprovedText(leave Models.Leave) (title, body string) {
	title = "Leave approved"
	body = fmt.Sprintf("%s leave applied on %s was approved", leave.LeaveType.Name, leave.AppliedAt.Format("Jan 2, 2006"))
	if leave.ApprovedBy != "" {
		body += " by " + leave.ApprovedBy
	}
	return title, body
}
