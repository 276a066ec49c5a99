// Package seed creates demo and test data. Writes go through the
// repositories so denormalized counters match the edge tables.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"chirp/internal/models"
	"chirp/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
)

const maxHandleBase = 24

// Factory builds accounts, posts and edges with fake content.
type Factory struct {
	accounts repository.AccountRepository
	posts    repository.PostRepository
	rels     repository.RelationshipRepository
	opts     Options
	faker    *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
	seq    int
}

// NewFactory creates a Factory writing through the given repositories.
func NewFactory(accounts repository.AccountRepository, posts repository.PostRepository, rels repository.RelationshipRepository, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		accounts: accounts,
		posts:    posts,
		rels:     rels,
		opts:     opts,
		faker:    gofakeit.New(seed),
		nextID:   1000,
	}
}

// Intn returns a pseudo-random int in [0, n) from the factory's source.
func (f *Factory) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// BuildAccount returns an unsaved account with a unique, valid handle.
func (f *Factory) BuildAccount(overrides ...func(*models.Account)) *models.Account {
	f.seq++
	account := &models.Account{
		Handle:      fmt.Sprintf("%s_%d", sanitizeHandle(f.faker.Username()), f.seq),
		DisplayName: truncate(f.faker.Name(), 50),
		Bio:         truncate(f.faker.HipsterSentence(8), 160),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		City:        f.faker.City(),
		Country:     f.faker.Country(),
	}
	for _, override := range overrides {
		override(account)
	}
	return account
}

// CreateAccount persists a built account.
func (f *Factory) CreateAccount(ctx context.Context, overrides ...func(*models.Account)) (*models.Account, error) {
	account := f.BuildAccount(overrides...)
	if f.opts.DryRun {
		f.nextID++
		account.ID = f.nextID
		log.Printf("[dry-run] CreateAccount: @%s", account.Handle)
		return account, nil
	}
	if err := f.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// BuildPost returns an unsaved post backdated up to MaxDays.
func (f *Factory) BuildPost(author *models.Account, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.Intn(maxDays))*24*time.Hour +
		time.Duration(f.Intn(24))*time.Hour +
		time.Duration(f.Intn(60))*time.Minute

	post := &models.Post{
		AuthorID:  author.ID,
		Content:   truncate(f.faker.Sentence(f.faker.Number(4, 18)), models.MaxPostLength),
		CreatedAt: time.Now().UTC().Add(-back),
	}
	if f.Intn(5) == 0 {
		post.Attachments = []models.PostAttachment{{Ref: "media/" + f.faker.UUID()}}
	}
	if f.Intn(4) == 0 {
		lat, lng := f.faker.Latitude(), f.faker.Longitude()
		post.Latitude, post.Longitude = &lat, &lng
		post.City = author.City
		post.Country = author.Country
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a built post. Replies bump the parent's replies_count.
func (f *Factory) CreatePost(ctx context.Context, author *models.Account, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: author=%d reply=%t", post.AuthorID, post.IsReply())
		return post, nil
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateReply persists a reply to parent, dated after it.
func (f *Factory) CreateReply(ctx context.Context, author *models.Account, parent *models.Post) (*models.Post, error) {
	return f.CreatePost(ctx, author, func(p *models.Post) {
		parentID := parent.ID
		p.ParentID = &parentID
		p.Attachments = nil
		p.CreatedAt = parent.CreatedAt.Add(time.Duration(f.faker.Number(1, 180)) * time.Minute)
	})
}

// Connect creates an edge and reports whether it was new. Duplicate edges
// are not errors while seeding.
func (f *Factory) Connect(ctx context.Context, kind models.EdgeKind, actorID, targetID uint) (bool, error) {
	if f.opts.DryRun {
		return true, nil
	}
	if _, err := f.rels.CreateEdge(ctx, kind, actorID, targetID); err != nil {
		if models.IsCode(err, models.CodeAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func sanitizeHandle(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > maxHandleBase {
		out = out[:maxHandleBase]
	}
	if len(out) < 2 {
		out = "user"
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}
