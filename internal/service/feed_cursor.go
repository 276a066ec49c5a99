package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chirp/internal/models"
	"chirp/internal/repository"
)

// EncodeFeedCursor turns a sort tuple into the opaque token handed to clients.
func EncodeFeedCursor(c repository.FeedCursor) string {
	raw := fmt.Sprintf("%d:%d:%d", c.SortAt.UnixNano(), c.ReposterID, c.PostID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeFeedCursor parses a token produced by EncodeFeedCursor.
func DecodeFeedCursor(token string) (*repository.FeedCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, models.NewValidationError("invalid feed cursor")
	}
	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return nil, models.NewValidationError("invalid feed cursor")
	}
	nanos, err1 := strconv.ParseInt(parts[0], 10, 64)
	reposter, err2 := strconv.ParseUint(parts[1], 10, 64)
	post, err3 := strconv.ParseUint(parts[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || post == 0 {
		return nil, models.NewValidationError("invalid feed cursor")
	}
	return &repository.FeedCursor{
		SortAt:     time.Unix(0, nanos).UTC(),
		ReposterID: uint(reposter),
		PostID:     uint(post),
	}, nil
}

func cursorOf(item models.FeedItem) repository.FeedCursor {
	c := repository.FeedCursor{SortAt: item.SortAt, PostID: item.Post.ID}
	if item.RepostedBy != nil {
		c.ReposterID = item.RepostedBy.ID
	}
	return c
}
