package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"chirp/internal/middleware"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Pusher delivers a short device notification to an account. Delivery is
// best effort; callers log and drop errors.
type Pusher interface {
	Push(ctx context.Context, recipientID uint, title, body string) error
}

// TokenSource looks up an account's registered device token.
type TokenSource interface {
	GetPushToken(ctx context.Context, accountID uint) (string, error)
}

// MessageSender is the subset of *messaging.Client used for delivery.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPusher sends through Firebase Cloud Messaging.
type FCMPusher struct {
	sender MessageSender
	tokens TokenSource
}

// NewFCMPusher initializes a Firebase app from a service-account file.
func NewFCMPusher(ctx context.Context, credentialsFile string, tokens TokenSource) (*FCMPusher, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("firebase credentials file not provided")
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("firebase credentials file: %w", err)
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}
	return NewFCMPusherWithSender(client, tokens), nil
}

func NewFCMPusherWithSender(sender MessageSender, tokens TokenSource) *FCMPusher {
	return &FCMPusher{sender: sender, tokens: tokens}
}

// Push sends to the recipient's device. Accounts without a token are skipped.
func (p *FCMPusher) Push(ctx context.Context, recipientID uint, title, body string) error {
	token, err := p.tokens.GetPushToken(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("lookup push token: %w", err)
	}
	if token == "" {
		return nil
	}

	_, err = p.sender.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{"recipient_id": strconv.FormatUint(uint64(recipientID), 10)},
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

// LogPusher records pushes in the log. Used when no credentials are configured.
type LogPusher struct{}

func (LogPusher) Push(ctx context.Context, recipientID uint, title, body string) error {
	middleware.Logger.DebugContext(ctx, "push notification",
		slog.Uint64("recipient_id", uint64(recipientID)),
		slog.String("title", title),
		slog.String("body", body),
	)
	return nil
}

// NewPusher returns an FCMPusher when credentials are configured and a
// LogPusher otherwise, or when Firebase fails to initialize.
func NewPusher(ctx context.Context, credentialsFile string, tokens TokenSource) Pusher {
	if credentialsFile == "" {
		return LogPusher{}
	}
	p, err := NewFCMPusher(ctx, credentialsFile, tokens)
	if err != nil {
		middleware.Logger.Warn("push disabled, falling back to log pusher", slog.String("error", err.Error()))
		return LogPusher{}
	}
	return p
}
