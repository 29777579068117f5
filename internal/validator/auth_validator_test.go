package validator_test

import (
	"context"
	"testing"

	"vending/internal/domain/model"
	repo "vending/internal/repository"
	"vending/internal/usecase"
	"vending/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
	repo.UserRepository
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func TestValidateRegister(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, repo.ErrUserNotFound)
	users.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{ID: 1}, nil)

	v := validator.NewAuthValidator(users)
	ctx := context.Background()

	assert.NoError(t, v.ValidateRegister(ctx, "New", "new@example.com", "password123", "password123"))

	assert.ErrorIs(t, v.ValidateRegister(ctx, "", "new@example.com", "password123", "password123"), usecase.ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateRegister(ctx, "New", "not-an-email", "password123", "password123"), usecase.ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateRegister(ctx, "New", "new@example.com", "short", "short"), usecase.ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateRegister(ctx, "New", "new@example.com", "password123", "password124"), usecase.ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateRegister(ctx, "Taken", "taken@example.com", "password123", "password123"), usecase.ErrConflict)
}

func TestValidateLogin(t *testing.T) {
	v := validator.NewAuthValidator(new(MockUserRepository))
	ctx := context.Background()

	assert.NoError(t, v.ValidateLogin(ctx, "admin@example.com", "x"))
	assert.ErrorIs(t, v.ValidateLogin(ctx, "", "x"), usecase.ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "admin", "x"), usecase.ErrInvalidInput)
}

func TestValidateRefresh(t *testing.T) {
	v := validator.NewAuthValidator(new(MockUserRepository))

	assert.NoError(t, v.ValidateRefresh(context.Background(), "abc"))
	assert.ErrorIs(t, v.ValidateRefresh(context.Background(), " "), usecase.ErrUnauthorized)
}
