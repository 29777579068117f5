package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	repo "vending/internal/repository"
	"vending/internal/usecase"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct {
	users repo.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repo.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// 登録の入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, name string, email string, password string, confPassword string) error {
	// 必須チェック
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return usecase.NewHTTPError(usecase.ErrInvalidInput, "Missing required fields")
	}
	if !isEmailLike(email) {
		return usecase.NewHTTPError(usecase.ErrInvalidInput, "Invalid email format")
	}
	// パスワード最低文字数（8）
	if len(password) < 8 {
		return usecase.NewHTTPError(usecase.ErrInvalidInput, "Password must be at least 8 characters")
	}
	if password != confPassword {
		return usecase.NewHTTPError(usecase.ErrInvalidInput, "Password and Confirm Password do not match")
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err == nil && u != nil {
		return usecase.NewHTTPError(usecase.ErrConflict, "Email already registered")
	}
	if err != nil && !errors.Is(err, repo.ErrUserNotFound) {
		return usecase.NewHTTPError(usecase.ErrInternal, "Error creating user")
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return usecase.NewHTTPError(usecase.ErrInvalidInput, "Missing required fields")
	}
	if !isEmailLike(email) {
		return usecase.NewHTTPError(usecase.ErrInvalidInput, "Invalid email format")
	}
	return nil
}

// cookieがなければ401
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return usecase.NewHTTPError(usecase.ErrUnauthorized, "Missing refresh token")
	}
	return nil
}

// 簡易メール形式チェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}
