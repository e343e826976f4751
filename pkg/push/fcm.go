package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/shikshalink/attendance-api/pkg/config"
)

// FCMSender delivers messages through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
	dryRun bool
}

// NewFCMSender initialises the Firebase app and messaging client.
func NewFCMSender(ctx context.Context, cfg config.FCMConfig) (*FCMSender, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}

	return &FCMSender{client: client, dryRun: cfg.DryRun}, nil
}

// Send delivers one message. High priority maps to Android priority "high"
// and APNs priority "10".
func (s *FCMSender) Send(ctx context.Context, msg Message) error {
	fcmMsg := &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	}

	if msg.HighPriority {
		fcmMsg.Android = &messaging.AndroidConfig{Priority: "high"}
		fcmMsg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
		}
	}

	var err error
	if s.dryRun {
		_, err = s.client.SendDryRun(ctx, fcmMsg)
	} else {
		_, err = s.client.Send(ctx, fcmMsg)
	}
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}

	return nil
}
