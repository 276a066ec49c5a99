package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	AccountKeyPrefix     = "account:%d"
	UnreadCountKeyPrefix = "account:%d:unread"
	WSTicketKeyPrefix    = "ws_ticket:%s"
	DedupKeyPrefix       = "notif:dedup:%s:%d:%d:%d"
)

const (
	AccountTTL     = 5 * time.Minute
	UnreadCountTTL = 1 * time.Minute
	WSTicketTTL    = 30 * time.Second
)

func AccountKey(accountID uint) string {
	return fmt.Sprintf(AccountKeyPrefix, accountID)
}

func UnreadCountKey(accountID uint) string {
	return fmt.Sprintf(UnreadCountKeyPrefix, accountID)
}

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKeyPrefix, ticket)
}

// DedupKey identifies one (kind, actor, recipient, post) notification; post 0
// stands for notifications without a post.
func DedupKey(kind string, actorID, recipientID, postID uint) string {
	return fmt.Sprintf(DedupKeyPrefix, kind, actorID, recipientID, postID)
}

// Invalidate deletes keys, ignoring errors and a missing client.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateAccount(ctx context.Context, accountIDs ...uint) {
	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		keys = append(keys, AccountKey(id))
	}
	Invalidate(ctx, keys...)
}

func InvalidateUnreadCount(ctx context.Context, accountID uint) {
	Invalidate(ctx, UnreadCountKey(accountID))
}
