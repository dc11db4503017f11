package Notifications

import (
	"context"
	"fmt"
	"html"

	"Attendance/Models"
	"Attendance/email"
)

// EmailNotifier mails leave updates to a fixed list of recipients, usually
// the approver and the employee.
type EmailNotifier struct {
	Config Models.EmailConfig
	To     []string
	send   func(context.Context, Models.EmailConfig, Models.EmailMessage) error
}

func NewEmailNotifier(config Models.EmailConfig, to []string) *EmailNotifier {
	return &EmailNotifier{Config: config, To: to, send: email.SendEmail}
}

func (e *EmailNotifier) LeaveApplied(ctx context.Context, leave Models.Leave) error {
	title, body := AppliedText(leave)
	return e.mail(ctx, title, body)
}

func (e *EmailNotifier) LeaveApproved(ctx context.Context, leave Models.Leave) error {
	title, body := ApprovedText(leave)
	return e.mail(ctx, title, body)
}

func (e *EmailNotifier) mail(ctx context.Context, subject, body string) error {
	if len(e.To) == 0 {
		return nil
	}

	msg := Models.EmailMessage{
		To:      e.To,
		Subject: subject,
		Body:    fmt.Sprintf("<p>%s</p>", html.EscapeString(body)),
		IsHTML:  true,
	}
	if err := e.send(ctx, e.Config, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
