package models

import "time"

// FeedItem is one entry of a home timeline. RepostedBy is set only when the
// entry comes from a repost.
type FeedItem struct {
	Post       *Post     `json:"post"`
	RepostedBy *Account  `json:"reposted_by"`
	SortAt     time.Time `json:"sort_at"`
}

// FeedPage is a page of the merged timeline.
type FeedPage struct {
	Items       []FeedItem `json:"items"`
	Total       int64      `json:"total"`
	NextCursor  string     `json:"next_cursor,omitempty"`
	CurrentPage int        `json:"current_page,omitempty"`
	TotalPages  int        `json:"total_pages"`
	HasNextPage bool       `json:"has_next_page"`
}
