package Slack

import (
	"context"
	"fmt"

	"Attendance/Models"
	"Attendance/Notifications"

	"github.com/slack-go/slack"
)

// SlackNotifier posts leave updates to a Slack incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	Channel    string
}

func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{WebhookURL: webhookURL, Channel: channel}
}

func (s *SlackNotifier) LeaveApplied(ctx context.Context, leave Models.Leave) error {
	title, body := Notifications.AppliedText(leave)
	return s.post(ctx, leave, title, body, "#f2c744")
}

func (s *SlackNotifier) LeaveApproved(ctx context.Context, leave Models.Leave) error {
	title, body := Notifications.ApprovedText(leave)
	return s.post(ctx, leave, title, body, "#2eb886")
}

func (s *SlackNotifier) post(ctx context.Context, leave Models.Leave, title, body, color string) error {
	fields := []slack.AttachmentField{
		{Title: "Type", Value: leave.LeaveType.Name, Short: true},
		{Title: "Status", Value: string(leave.Status), Short: true},
	}
	if leave.Remark != "" {
		fields = append(fields, slack.AttachmentField{Title: "Remark", Value: leave.Remark})
	}

	msg := &slack.WebhookMessage{
		Channel: s.Channel,
		Text:    title,
		Attachments: []slack.Attachment{{
			Color:  color,
			Text:   body,
			Fields: fields,
			Footer: "leave " + leave.ID,
		}},
	}
	if err := slack.PostWebhookContext(ctx, s.WebhookURL, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}
