package Notifications

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"Attendance/Models"
	"Attendance/Services"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// MessageSender is the part of the FCM client the notifier uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenSource returns the device registration token to push to.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

// SettingsToken reads the token the app registered under the FCM token
// setting and falls back to fallback when none was stored.
func SettingsToken(settings *Services.SettingsService, fallback string) TokenSource {
	return func(ctx context.Context) (string, error) {
		var token string
		err := settings.Get(ctx, Models.SettingFCMToken, &token)
		if errors.Is(err, Services.ErrNotFound) || (err == nil && token == "") {
			return fallback, nil
		}
		if err != nil {
			return "", err
		}
		return token, nil
	}
}

// PushNotifier sends leave updates as Firebase Cloud Messaging pushes.
type PushNotifier struct {
	client MessageSender
	token  TokenSource
}

func NewPushNotifier(client MessageSender, token TokenSource) *PushNotifier {
	return &PushNotifier{client: client, token: token}
}

// InitFirebase creates an FCM client from a service account key file.
func InitFirebase(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	opt := option.WithCredentialsFile(credentialsFile)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Messaging client: %v", err)
	}

	log.Println("Firebase initialized successfully")
	return client, nil
}

func (p *PushNotifier) LeaveApplied(ctx context.Context, leave Models.Leave) error {
	title, body := AppliedText(leave)
	return p.send(ctx, leave, title, body)
}

func (p *PushNotifier) LeaveApproved(ctx context.Context, leave Models.Leave) error {
	title, body := ApprovedText(leave)
	return p.send(ctx, leave, title, body)
}

func (p *PushNotifier) send(ctx context.Context, leave Models.Leave, title, body string) error {
	token, err := p.token(ctx)
	if err != nil {
		return fmt.Errorf("fcm token: %w", err)
	}
	if token == "" {
		// no device registered yet
		return nil
	}

	message := &messaging.Message{
		Token: token,
		Data: map[string]string{
			"leave_id":   leave.ID,
			"leave_type": leave.LeaveType.Name,
			"status":     string(leave.Status),
			"applied_at": leave.AppliedAt.Format(time.RFC3339),
		},
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Icon:  "leave_icon",
				Sound: "default",
			},
			Priority: "high",
		},
	}

	response, err := p.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending FCM message: %v", err)
	}
	log.Printf("FCM message sent for leave %s: %s\n", leave.ID, response)
	return nil
}
