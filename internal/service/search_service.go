package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"chirp/internal/models"
	"chirp/internal/repository"
)

const (
	searchResultLimit = 10
	maxSearchQuery    = 100
)

type SearchResult struct {
	Accounts []models.Account `json:"accounts"`
	Posts    []*models.Post   `json:"posts"`
}

type SearchService struct {
	accounts repository.AccountRepository
	posts    repository.PostRepository
	viewer   repository.ViewerStateRepository
}

func NewSearchService(accounts repository.AccountRepository, posts repository.PostRepository, viewer repository.ViewerStateRepository) *SearchService {
	return &SearchService{accounts: accounts, posts: posts, viewer: viewer}
}

// Search matches accounts and posts by case-insensitive substring.
func (s *SearchService) Search(ctx context.Context, query string, viewerID uint) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("search query is required")
	}
	if utf8.RuneCountInString(query) > maxSearchQuery {
		return nil, models.NewValidationError("search query is too long")
	}

	accounts, err := s.accounts.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, err
	}
	if err := resolveViewer(ctx, s.viewer, viewerID, posts); err != nil {
		return nil, err
	}
	return &SearchResult{Accounts: accounts, Posts: posts}, nil
}
