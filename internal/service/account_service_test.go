package service

import (
	"context"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountServiceRegister(t *testing.T) {
	accounts := noopAccountRepo()
	var stored *models.Account
	accounts.createFn = func(_ context.Context, a *models.Account) error {
		a.ID = 4
		stored = a
		return nil
	}
	svc := NewAccountService(accounts, noopRelRepo())

	a, err := svc.Register(context.Background(), RegisterInput{Handle: "  Ada_L  "})
	require.NoError(t, err)
	assert.Equal(t, uint(4), a.ID)
	assert.Equal(t, "Ada_L", stored.Handle)
	assert.Equal(t, "Ada_L", stored.DisplayName)
}

func TestAccountServiceRegisterValidation(t *testing.T) {
	svc := NewAccountService(noopAccountRepo(), noopRelRepo())

	for _, in := range []RegisterInput{
		{Handle: "ab"},
		{Handle: "has space"},
		{Handle: "admin"},
		{Handle: "valid_one", AvatarURL: "not a url"},
	} {
		_, err := svc.Register(context.Background(), in)
		require.Error(t, err, "input %+v", in)
		assert.True(t, models.IsCode(err, models.CodeValidation))
	}
}

func TestAccountServiceRegisterDuplicate(t *testing.T) {
	accounts := noopAccountRepo()
	accounts.createFn = func(context.Context, *models.Account) error {
		return models.NewAlreadyExistsError("handle is already taken")
	}
	svc := NewAccountService(accounts, noopRelRepo())

	_, err := svc.Register(context.Background(), RegisterInput{Handle: "taken"})
	assert.True(t, models.IsCode(err, models.CodeAlreadyExists))
}

func TestAccountServiceUpdateProfile(t *testing.T) {
	accounts := noopAccountRepo()
	var updated *models.Account
	accounts.updateProfileFn = func(_ context.Context, a *models.Account) error {
		updated = a
		return nil
	}
	svc := NewAccountService(accounts, noopRelRepo())

	a, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{AccountID: 3, DisplayName: " Ada ", Bio: "math"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", a.DisplayName)
	assert.Equal(t, "math", updated.Bio)
	assert.Equal(t, uint(3), updated.ID)
}

func TestAccountServiceListFollowersMissingAccount(t *testing.T) {
	accounts := noopAccountRepo()
	accounts.getByIDFn = func(_ context.Context, id uint) (*models.Account, error) {
		return nil, models.NewNotFoundError("Account", id)
	}
	svc := NewAccountService(accounts, noopRelRepo())

	_, err := svc.ListFollowers(context.Background(), 99, 20, 0)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
