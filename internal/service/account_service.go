package service

import (
	"context"
	"strings"

	"chirp/internal/cache"
	"chirp/internal/models"
	"chirp/internal/observability"
	"chirp/internal/repository"
	"chirp/internal/validation"
)

type RegisterInput struct {
	Handle      string `json:"handle" validate:"required,handle"`
	DisplayName string `json:"display_name" validate:"max=50"`
	Bio         string `json:"bio" validate:"max=160"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
	City        string `json:"city" validate:"max=100"`
	Country     string `json:"country" validate:"max=100"`
}

type UpdateProfileInput struct {
	AccountID   uint   `json:"-"`
	DisplayName string `json:"display_name" validate:"max=50"`
	Bio         string `json:"bio" validate:"max=160"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
	City        string `json:"city" validate:"max=100"`
	Country     string `json:"country" validate:"max=100"`
}

type AccountService struct {
	accounts repository.AccountRepository
	rels     repository.RelationshipRepository
}

func NewAccountService(accounts repository.AccountRepository, rels repository.RelationshipRepository) *AccountService {
	return &AccountService{accounts: accounts, rels: rels}
}

// Register creates an account. Handles are unique regardless of case.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (account *models.Account, err error) {
	in.Handle = strings.TrimSpace(in.Handle)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err = validation.Struct(in); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "accounts", "register")
	defer func() { observability.EndSpan(span, err) }()

	account = &models.Account{
		Handle:      in.Handle,
		DisplayName: in.DisplayName,
		Bio:         in.Bio,
		AvatarURL:   in.AvatarURL,
		City:        in.City,
		Country:     in.Country,
	}
	if account.DisplayName == "" {
		account.DisplayName = in.Handle
	}
	if err = s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetProfile reads through the account cache. Counter and profile writes
// invalidate the entry.
func (s *AccountService) GetProfile(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := cache.Aside(ctx, cache.AccountKey(id), &account, cache.AccountTTL, func() error {
		a, err := s.accounts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		account = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *AccountService) GetProfileByHandle(ctx context.Context, handle string) (*models.Account, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, models.NewValidationError("handle is required")
	}
	return s.accounts.GetByHandle(ctx, handle)
}

func (s *AccountService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Account, error) {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	account.DisplayName = in.DisplayName
	account.Bio = in.Bio
	account.AvatarURL = in.AvatarURL
	account.City = in.City
	account.Country = in.Country

	if err := s.accounts.UpdateProfile(ctx, account); err != nil {
		return nil, err
	}
	cache.InvalidateAccount(ctx, account.ID)
	return account, nil
}

// SetPushToken registers (or with "" clears) the device token used for push.
func (s *AccountService) SetPushToken(ctx context.Context, accountID uint, token string) error {
	token = strings.TrimSpace(token)
	if len(token) > 4096 {
		return models.NewValidationError("push token is too long")
	}
	return s.accounts.SetPushToken(ctx, accountID, token)
}

func (s *AccountService) ListFollowers(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.rels.ListFollowers(ctx, accountID, limit, offset)
}

func (s *AccountService) ListFollowing(ctx context.Context, accountID uint, limit, offset int) ([]models.Account, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return s.rels.ListFollowing(ctx, accountID, limit, offset)
}
