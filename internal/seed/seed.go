package seed

import (
	"context"
	"fmt"
	"log"

	"chirp/internal/models"
	"chirp/internal/repository"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	// RandSeed makes fake content reproducible; zero uses the clock.
	RandSeed          int64
	DryRun            bool
	MaxDays           int
	FollowsPerAccount int
	MaxLikesPerPost   int
	// ReplyChance is the 1-in-N chance that a post gets a reply thread.
	ReplyChance int
}

// Stats counts what one seeding run created.
type Stats struct {
	Accounts int
	Follows  int
	Posts    int
	Replies  int
	Likes    int
	Reposts  int
}

func (s Stats) String() string {
	return fmt.Sprintf("accounts=%d follows=%d posts=%d replies=%d likes=%d reposts=%d",
		s.Accounts, s.Follows, s.Posts, s.Replies, s.Likes, s.Reposts)
}

// Seeder populates the database with a social graph and engagement.
// Seeded edges do not emit notifications.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
	stats   Stats
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.FollowsPerAccount <= 0 {
		opts.FollowsPerAccount = 8
	}
	if opts.MaxLikesPerPost <= 0 {
		opts.MaxLikesPerPost = 6
	}
	if opts.ReplyChance <= 0 {
		opts.ReplyChance = 3
	}
	return &Seeder{
		db: db,
		factory: NewFactory(
			repository.NewAccountRepository(db),
			repository.NewPostRepository(db),
			repository.NewRelationshipRepository(db),
			opts,
		),
		opts: opts,
	}
}

// Stats returns the running totals.
func (s *Seeder) Stats() Stats {
	return s.stats
}

// seededTables lists tables in dependency order, children first.
var seededTables = []string{
	"notifications", "reposts", "likes", "follows", "post_attachments", "posts", "accounts",
}

// ClearAll removes every seeded row.
func (s *Seeder) ClearAll(ctx context.Context) error {
	if s.opts.DryRun {
		log.Println("[dry-run] ClearAll skipped")
		return nil
	}
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		sql := "TRUNCATE TABLE notifications, reposts, likes, follows, post_attachments, posts, accounts RESTART IDENTITY CASCADE"
		return db.Exec(sql).Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range seededTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedSocialMesh creates n accounts and a random follow graph between them.
func (s *Seeder) SeedSocialMesh(ctx context.Context, n int) ([]*models.Account, error) {
	accounts := make([]*models.Account, 0, n)
	for i := 0; i < n; i++ {
		a, err := s.factory.CreateAccount(ctx)
		if err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
		accounts = append(accounts, a)
	}
	s.stats.Accounts += len(accounts)

	for _, a := range accounts {
		for k := 0; k < s.opts.FollowsPerAccount && len(accounts) > 1; k++ {
			target := accounts[s.factory.Intn(len(accounts))]
			if target.ID == a.ID {
				continue
			}
			created, err := s.factory.Connect(ctx, models.EdgeFollow, a.ID, target.ID)
			if err != nil {
				return nil, fmt.Errorf("follow %d->%d: %w", a.ID, target.ID, err)
			}
			if created {
				s.stats.Follows++
			}
		}
	}
	log.Printf("seeded %d accounts, %d follows", len(accounts), s.stats.Follows)
	return accounts, nil
}

// SeedEngagement creates numPosts top-level posts by random authors, then
// replies, likes and reposts on them.
func (s *Seeder) SeedEngagement(ctx context.Context, accounts []*models.Account, numPosts int) ([]*models.Post, error) {
	if len(accounts) == 0 {
		return nil, nil
	}
	pick := func() *models.Account { return accounts[s.factory.Intn(len(accounts))] }

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		p, err := s.factory.CreatePost(ctx, pick())
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, p)
	}
	s.stats.Posts += len(posts)

	for _, p := range posts {
		if s.factory.Intn(s.opts.ReplyChance) == 0 {
			replies := 1 + s.factory.Intn(3)
			for r := 0; r < replies; r++ {
				if _, err := s.factory.CreateReply(ctx, pick(), p); err != nil {
					return nil, fmt.Errorf("create reply: %w", err)
				}
				s.stats.Replies++
			}
		}

		likes := s.factory.Intn(s.opts.MaxLikesPerPost + 1)
		for l := 0; l < likes; l++ {
			created, err := s.factory.Connect(ctx, models.EdgeLike, pick().ID, p.ID)
			if err != nil {
				return nil, fmt.Errorf("like post %d: %w", p.ID, err)
			}
			if created {
				s.stats.Likes++
			}
		}

		if s.factory.Intn(5) == 0 {
			created, err := s.factory.Connect(ctx, models.EdgeRepost, pick().ID, p.ID)
			if err != nil {
				return nil, fmt.Errorf("repost post %d: %w", p.ID, err)
			}
			if created {
				s.stats.Reposts++
			}
		}
	}
	log.Printf("seeded %s", s.stats)
	return posts, nil
}
