package models

import "time"

// EdgeKind identifies one of the directed relationship tables.
type EdgeKind string

const (
	EdgeFollow EdgeKind = "FOLLOW"
	EdgeLike   EdgeKind = "LIKE"
	EdgeRepost EdgeKind = "REPOST"
)

// Valid reports whether k names a known edge kind.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeFollow, EdgeLike, EdgeRepost:
		return true
	}
	return false
}

// Edge is the kind-agnostic view of a relationship row.
type Edge struct {
	Kind      EdgeKind  `json:"kind"`
	ActorID   uint      `json:"actor_id"`
	TargetID  uint      `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow is a directed edge from follower to followed account.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// Like records that an account likes a post.
type Like struct {
	AccountID uint      `gorm:"primaryKey;autoIncrement:false" json:"account_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Like) TableName() string {
	return "likes"
}

// Repost records that an account reposted a post. CreatedAt positions the
// repost in followers' feeds.
type Repost struct {
	AccountID uint      `gorm:"primaryKey;autoIncrement:false;index:idx_reposts_account_created,priority:1" json:"account_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	CreatedAt time.Time `gorm:"index:idx_reposts_account_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Repost) TableName() string {
	return "reposts"
}
