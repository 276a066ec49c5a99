package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chirp/internal/models"

	"gorm.io/gorm"
)

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByHandle(ctx context.Context, handle string) (*models.Account, error)
	GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Account, error)
	UpdateProfile(ctx context.Context, account *models.Account) error
	SetPushToken(ctx context.Context, id uint, token string) error
	GetPushToken(ctx context.Context, id uint) (string, error)
	Search(ctx context.Context, query string, limit int) ([]models.Account, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	account.FollowersCount, account.FollowingCount = 0, 0
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewAlreadyExistsError(fmt.Sprintf("handle %q is already taken", account.Handle))
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := readDB(r.db).WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, translateErr(err, "Account", id)
	}
	return &account, nil
}

func (r *accountRepository) GetByHandle(ctx context.Context, handle string) (*models.Account, error) {
	var account models.Account
	err := readDB(r.db).WithContext(ctx).
		Where("handle_lower = ?", strings.ToLower(handle)).
		First(&account).Error
	if err != nil {
		return nil, translateErr(err, "Account", handle)
	}
	return &account, nil
}

// GetByIDs loads accounts keyed by ID; missing IDs are simply absent.
func (r *accountRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*models.Account, error) {
	out := make(map[uint]*models.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var accounts []*models.Account
	if err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, a := range accounts {
		out[a.ID] = a
	}
	return out, nil
}

// UpdateProfile writes the editable profile columns only; counters and the
// handle are never touched here.
func (r *accountRepository) UpdateProfile(ctx context.Context, account *models.Account) error {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", account.ID).
		UpdateColumns(map[string]any{
			"display_name": account.DisplayName,
			"bio":          account.Bio,
			"avatar_url":   account.AvatarURL,
			"city":         account.City,
			"country":      account.Country,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Account", account.ID)
	}
	return nil
}

func (r *accountRepository) SetPushToken(ctx context.Context, id uint, token string) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).UpdateColumn("push_token", token)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Account", id)
	}
	return nil
}

func (r *accountRepository) GetPushToken(ctx context.Context, id uint) (string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Pluck("push_token", &tokens).Error
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if len(tokens) == 0 {
		return "", models.NewNotFoundError("Account", id)
	}
	return tokens[0], nil
}

// Search matches handle or display name by case-insensitive substring.
func (r *accountRepository) Search(ctx context.Context, query string, limit int) ([]models.Account, error) {
	limit, _ = clampPage(limit, 0)
	pattern := containsPattern(query)
	accounts := []models.Account{}
	err := readDB(r.db).WithContext(ctx).
		Where(`handle_lower LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("followers_count DESC").
		Order("id ASC").
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}
