package seed

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"chirp/internal/models"
	"chirp/internal/validation"

	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// Scenario is a hand-written data set: named accounts, their follows and a
// set of posts addressed by key.
type Scenario struct {
	Accounts []ScenarioAccount `yaml:"accounts"`
	Follows  []ScenarioFollow  `yaml:"follows"`
	Posts    []ScenarioPost    `yaml:"posts"`
	Likes    []ScenarioEdge    `yaml:"likes"`
	Reposts  []ScenarioEdge    `yaml:"reposts"`
}

type ScenarioAccount struct {
	Handle      string `yaml:"handle"`
	DisplayName string `yaml:"display_name"`
	Bio         string `yaml:"bio"`
	City        string `yaml:"city"`
	Country     string `yaml:"country"`
}

type ScenarioFollow struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ScenarioPost references its author by handle and its parent by key.
// Parents must be listed before their replies.
type ScenarioPost struct {
	Key         string   `yaml:"key"`
	Author      string   `yaml:"author"`
	Content     string   `yaml:"content"`
	ReplyTo     string   `yaml:"reply_to"`
	Attachments []string `yaml:"attachments"`
}

type ScenarioEdge struct {
	Account string `yaml:"account"`
	Post    string `yaml:"post"`
}

// ScenarioResult maps scenario names to the IDs they were stored under.
type ScenarioResult struct {
	Accounts map[string]uint
	Posts    map[string]uint
}

// ParseScenario decodes and checks a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenario reads a scenario file from disk.
func LoadScenario(file string) (*Scenario, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return ParseScenario(raw)
}

// Preset returns a built-in scenario by name.
func Preset(name string) (*Scenario, error) {
	raw, err := presetFS.ReadFile(path.Join("presets", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return ParseScenario(raw)
}

// PresetNames lists the built-in scenarios.
func PresetNames() []string {
	entries, _ := presetFS.ReadDir("presets")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Validate checks handles, post lengths and that every reference resolves.
func (sc *Scenario) Validate() error {
	handles := make(map[string]bool, len(sc.Accounts))
	for _, a := range sc.Accounts {
		if err := validation.ValidateHandle(a.Handle); err != nil {
			return fmt.Errorf("account %q: %w", a.Handle, err)
		}
		key := strings.ToLower(a.Handle)
		if handles[key] {
			return fmt.Errorf("account %q listed twice", a.Handle)
		}
		handles[key] = true
	}
	knownAccount := func(h string) bool { return handles[strings.ToLower(h)] }

	for _, f := range sc.Follows {
		if !knownAccount(f.From) || !knownAccount(f.To) {
			return fmt.Errorf("follow %s->%s references an unknown account", f.From, f.To)
		}
		if strings.EqualFold(f.From, f.To) {
			return fmt.Errorf("account %q cannot follow itself", f.From)
		}
	}

	keys := make(map[string]bool, len(sc.Posts))
	for i, p := range sc.Posts {
		if p.Key == "" {
			return fmt.Errorf("post #%d has no key", i+1)
		}
		if keys[p.Key] {
			return fmt.Errorf("post key %q listed twice", p.Key)
		}
		if !knownAccount(p.Author) {
			return fmt.Errorf("post %q: unknown author %q", p.Key, p.Author)
		}
		if n := len([]rune(strings.TrimSpace(p.Content))); n == 0 || n > models.MaxPostLength {
			return fmt.Errorf("post %q: content must be 1-%d characters", p.Key, models.MaxPostLength)
		}
		if len(p.Attachments) > models.MaxAttachments {
			return fmt.Errorf("post %q: at most %d attachments", p.Key, models.MaxAttachments)
		}
		if p.ReplyTo != "" && !keys[p.ReplyTo] {
			return fmt.Errorf("post %q replies to %q which is not listed before it", p.Key, p.ReplyTo)
		}
		keys[p.Key] = true
	}

	for _, edges := range [][]ScenarioEdge{sc.Likes, sc.Reposts} {
		for _, e := range edges {
			if !knownAccount(e.Account) || !keys[e.Post] {
				return fmt.Errorf("edge %s->%s references an unknown account or post", e.Account, e.Post)
			}
		}
	}
	return nil
}

// ApplyScenario writes sc. Accounts that already exist are reused, so
// applying the same scenario twice only adds posts.
func (s *Seeder) ApplyScenario(ctx context.Context, sc *Scenario) (*ScenarioResult, error) {
	res := &ScenarioResult{
		Accounts: make(map[string]uint, len(sc.Accounts)),
		Posts:    make(map[string]uint, len(sc.Posts)),
	}
	byHandle := make(map[string]*models.Account, len(sc.Accounts))
	accountID := func(h string) uint { return byHandle[strings.ToLower(h)].ID }

	for _, a := range sc.Accounts {
		acct, err := s.ensureAccount(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", a.Handle, err)
		}
		byHandle[strings.ToLower(a.Handle)] = acct
		res.Accounts[a.Handle] = acct.ID
	}

	for _, f := range sc.Follows {
		created, err := s.factory.Connect(ctx, models.EdgeFollow, accountID(f.From), accountID(f.To))
		if err != nil {
			return nil, fmt.Errorf("follow %s->%s: %w", f.From, f.To, err)
		}
		if created {
			s.stats.Follows++
		}
	}

	// Scenario posts are dated a minute apart in listing order.
	base := time.Now().UTC().Add(-time.Duration(len(sc.Posts)) * time.Minute)
	for i, p := range sc.Posts {
		author := byHandle[strings.ToLower(p.Author)]
		content, refs := p.Content, p.Attachments
		createdAt := base.Add(time.Duration(i) * time.Minute)
		var parentID *uint
		if p.ReplyTo != "" {
			id := res.Posts[p.ReplyTo]
			parentID = &id
		}
		post, err := s.factory.CreatePost(ctx, author, func(m *models.Post) {
			m.Content = content
			m.ParentID = parentID
			m.Attachments = nil
			for _, ref := range refs {
				m.Attachments = append(m.Attachments, models.PostAttachment{Ref: ref})
			}
			m.Latitude, m.Longitude = nil, nil
			m.CreatedAt = createdAt
		})
		if err != nil {
			return nil, fmt.Errorf("post %q: %w", p.Key, err)
		}
		res.Posts[p.Key] = post.ID
		if parentID != nil {
			s.stats.Replies++
		} else {
			s.stats.Posts++
		}
	}

	for _, e := range sc.Likes {
		created, err := s.factory.Connect(ctx, models.EdgeLike, accountID(e.Account), res.Posts[e.Post])
		if err != nil {
			return nil, fmt.Errorf("like %s->%s: %w", e.Account, e.Post, err)
		}
		if created {
			s.stats.Likes++
		}
	}
	for _, e := range sc.Reposts {
		created, err := s.factory.Connect(ctx, models.EdgeRepost, accountID(e.Account), res.Posts[e.Post])
		if err != nil {
			return nil, fmt.Errorf("repost %s->%s: %w", e.Account, e.Post, err)
		}
		if created {
			s.stats.Reposts++
		}
	}
	return res, nil
}

func (s *Seeder) ensureAccount(ctx context.Context, a ScenarioAccount) (*models.Account, error) {
	if !s.opts.DryRun {
		existing, err := s.factory.accounts.GetByHandle(ctx, a.Handle)
		if err == nil {
			return existing, nil
		}
		if !models.IsCode(err, models.CodeNotFound) {
			return nil, err
		}
	}
	acct, err := s.factory.CreateAccount(ctx, func(m *models.Account) {
		m.Handle = a.Handle
		m.DisplayName = a.DisplayName
		if m.DisplayName == "" {
			m.DisplayName = a.Handle
		}
		m.Bio = a.Bio
		m.City = a.City
		m.Country = a.Country
	})
	if err != nil {
		return nil, err
	}
	s.stats.Accounts++
	return acct, nil
}
