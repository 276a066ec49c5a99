package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chirp/internal/cache"
	"chirp/internal/featureflags"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/notifications"
	"chirp/internal/observability"
	"chirp/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// NotificationEvent describes one interaction worth telling the recipient about.
type NotificationEvent struct {
	Kind        models.NotificationKind
	ActorID     uint
	RecipientID uint
	PostID      *uint
	Snippet     string
}

// NotificationEmitter is the fanout entry point used by mutating services
// after their transaction commits. It never fails the caller.
type NotificationEmitter interface {
	Emit(ctx context.Context, ev NotificationEvent)
}

// RealtimePublisher pushes a persisted notification to connected clients.
type RealtimePublisher interface {
	PublishNotification(ctx context.Context, n *models.Notification) error
}

// NotificationServiceConfig carries the optional collaborators of NotificationService.
type NotificationServiceConfig struct {
	Publisher   RealtimePublisher
	Pusher      notifications.Pusher
	Flags       featureflags.Checker
	Redis       *redis.Client
	DedupWindow time.Duration
}

// NotificationService persists notifications and fans them out to realtime
// and push channels.
type NotificationService struct {
	repo        repository.NotificationRepository
	accounts    repository.AccountRepository
	publisher   RealtimePublisher
	pusher      notifications.Pusher
	flags       featureflags.Checker
	rdb         *redis.Client
	dedupWindow time.Duration
}

func NewNotificationService(
	repo repository.NotificationRepository,
	accounts repository.AccountRepository,
	cfg NotificationServiceConfig,
) *NotificationService {
	pusher := cfg.Pusher
	if pusher == nil {
		pusher = notifications.LogPusher{}
	}
	return &NotificationService{
		repo:        repo,
		accounts:    accounts,
		publisher:   cfg.Publisher,
		pusher:      pusher,
		flags:       cfg.Flags,
		rdb:         cfg.Redis,
		dedupWindow: cfg.DedupWindow,
	}
}

// Emit persists and delivers one notification. Self-interactions produce
// nothing. Every failure past validation is logged and counted, never returned.
func (s *NotificationService) Emit(ctx context.Context, ev NotificationEvent) {
	if ev.ActorID == ev.RecipientID {
		observability.NotificationsSkipped.WithLabelValues("self").Inc()
		return
	}

	ctx, span := observability.StartSpan(ctx, "notifications", "emit",
		attribute.String("kind", string(ev.Kind)),
		attribute.Int64("recipient_id", int64(ev.RecipientID)),
	)
	defer span.End()

	if s.isDuplicate(ctx, ev) {
		observability.NotificationsSkipped.WithLabelValues("duplicate").Inc()
		return
	}

	n := &models.Notification{
		RecipientID: ev.RecipientID,
		ActorID:     ev.ActorID,
		Kind:        ev.Kind,
		PostID:      ev.PostID,
		Snippet:     truncateRunes(ev.Snippet, models.MaxPostLength),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		observability.DeliveryFailures.WithLabelValues("store").Inc()
		middleware.Logger.ErrorContext(ctx, "failed to persist notification",
			slog.String("kind", string(ev.Kind)),
			slog.Uint64("recipient_id", uint64(ev.RecipientID)),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.NotificationsEmitted.WithLabelValues(string(ev.Kind)).Inc()
	cache.InvalidateUnreadCount(ctx, ev.RecipientID)

	if actor, err := s.accounts.GetByID(ctx, ev.ActorID); err == nil {
		n.Actor = actor
	}

	if s.publisher != nil {
		if err := s.publisher.PublishNotification(ctx, n); err != nil {
			observability.DeliveryFailures.WithLabelValues("realtime").Inc()
			middleware.Logger.WarnContext(ctx, "realtime publish failed", slog.String("error", err.Error()))
		}
	}

	if s.flags != nil && s.flags.Enabled(featureflags.PushNotifications, ev.RecipientID) {
		title, body := pushText(n)
		if err := s.pusher.Push(ctx, ev.RecipientID, title, body); err != nil {
			observability.DeliveryFailures.WithLabelValues("push").Inc()
			middleware.Logger.WarnContext(ctx, "push delivery failed",
				slog.Uint64("recipient_id", uint64(ev.RecipientID)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// isDuplicate claims the dedup key for ev. Redis errors fail open.
func (s *NotificationService) isDuplicate(ctx context.Context, ev NotificationEvent) bool {
	if s.dedupWindow <= 0 || s.rdb == nil {
		return false
	}
	var postID uint
	if ev.PostID != nil {
		postID = *ev.PostID
	}
	key := cache.DedupKey(string(ev.Kind), ev.ActorID, ev.RecipientID, postID)
	claimed, err := s.rdb.SetNX(ctx, key, 1, s.dedupWindow).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "notification dedup check failed", slog.String("error", err.Error()))
		return false
	}
	return !claimed
}

func pushText(n *models.Notification) (title, body string) {
	who := "Someone"
	if n.Actor != nil {
		who = "@" + n.Actor.Handle
	}
	switch n.Kind {
	case models.NotificationFollow:
		return "New follower", who + " followed you"
	case models.NotificationLike:
		return "New like", who + " liked your post"
	case models.NotificationRepost:
		return "New repost", who + " reposted your post"
	case models.NotificationReply:
		return "New reply", fmt.Sprintf("%s replied: %s", who, truncateRunes(n.Snippet, 100))
	default:
		return "Notification", who + " interacted with you"
	}
}

// List returns the recipient's notifications newest first.
func (s *NotificationService) List(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error) {
	return s.repo.List(ctx, recipientID, limit, offset)
}

// UnreadCount is served from cache; every write path invalidates it.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := cache.Aside(ctx, cache.UnreadCountKey(recipientID), &count, cache.UnreadCountTTL, func() error {
		n, err := s.repo.CountUnread(ctx, recipientID)
		count = n
		return err
	})
	return count, err
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uint) error {
	if err := s.repo.MarkRead(ctx, id, recipientID); err != nil {
		return err
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, id, recipientID uint) error {
	if err := s.repo.Delete(ctx, id, recipientID); err != nil {
		return err
	}
	cache.InvalidateUnreadCount(ctx, recipientID)
	return nil
}
