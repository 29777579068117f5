package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"vending/internal/config"
	"vending/internal/domain/model"
	repo "vending/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, name string, email string, password string, confPassword string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateRefresh(ctx context.Context, refreshToken string) error
}

type UserDTO struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	ConfPassword string
}

type LoginResult struct {
	AccessToken       string
	RefreshTokenPlain string
	User              UserDTO
}

type RefreshResult struct {
	AccessToken       string
	RefreshTokenPlain string
}

type AuthUsecase struct {
	cfg       config.Config
	users     repo.UserRepository
	rtRepo    repo.RefreshTokenRepository
	auditLogs repo.AuditLogRepository
	validator AuthValidator
}

func NewAuthUsecase(
	cfg config.Config,
	users repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	auditLogs repo.AuditLogRepository,
	validator AuthValidator,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		rtRepo:    rtRepo,
		auditLogs: auditLogs,
		validator: validator,
	}
}

// オペレーター登録。actorIDは管理者が作ったときだけ（0なら自己登録）
func (u *AuthUsecase) Register(ctx context.Context, actorID int64, in RegisterInput) (*UserDTO, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if err := u.validator.ValidateRegister(ctx, in.Name, in.Email, in.Password, in.ConfPassword); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewHTTPError(ErrInternal, "Error creating user")
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(pwHash),
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, NewHTTPError(ErrConflict, "Email already registered")
		}
		zap.L().Error("create user failed", zap.Error(err))
		return nil, NewHTTPError(ErrInternal, "Error creating user")
	}

	if actorID > 0 && u.auditLogs != nil {
		dto := toUserDTO(user)
		if err := u.auditLogs.Create(ctx, auditLog(actorID, model.AuditActionCreateUser, model.AuditResourceUser, user.ID, nil, dto)); err != nil {
			zap.L().Warn("audit log for user create failed", zap.Error(err))
		}
	}

	zap.L().Info("user registered", zap.Int64("user_id", user.ID), zap.Int64("actor_user_id", actorID))
	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AuthUsecase) Login(ctx context.Context, email string, password string, userAgent string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if err := u.validator.ValidateLogin(ctx, email, password); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, NewHTTPError(ErrUnauthorized, "Wrong email or password")
	}
	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, NewHTTPError(ErrForbidden, "User is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, NewHTTPError(ErrUnauthorized, "Wrong email or password")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		zap.L().Warn("update last login failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	accessToken, err := u.issueAccessToken(user, now)
	if err != nil {
		return nil, NewHTTPError(ErrInternal, "Error issuing token")
	}
	refreshPlain, err := u.issueRefreshToken(ctx, user.ID, userAgent, now)
	if err != nil {
		return nil, NewHTTPError(ErrInternal, "Error issuing token")
	}

	zap.L().Info("user logged in", zap.Int64("user_id", user.ID))
	return &LoginResult{
		AccessToken:       accessToken,
		RefreshTokenPlain: refreshPlain,
		User:              toUserDTO(user),
	}, nil
}

// refresh tokenを使い捨てでローテーションしてaccess tokenを再発行
func (u *AuthUsecase) Refresh(ctx context.Context, refreshTokenPlain string, userAgent string) (*RefreshResult, error) {
	if err := u.validator.ValidateRefresh(ctx, refreshTokenPlain); err != nil {
		return nil, err
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if err != nil || rt == nil {
		return nil, NewHTTPError(ErrForbidden, "Invalid refresh token")
	}

	now := time.Now()

	//期限切れ
	if rt.ExpiresAt.Before(now) {
		_ = u.rtRepo.DeleteByID(ctx, rt.ID)
		return nil, NewHTTPError(ErrForbidden, "Refresh token expired")
	}
	if rt.RevokedAt != nil {
		return nil, NewHTTPError(ErrForbidden, "Invalid refresh token")
	}

	//used済みが来たら replay → 全削除
	if rt.UsedAt != nil {
		zap.L().Warn("refresh token replay detected", zap.Int64("user_id", rt.UserID))
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, NewHTTPError(ErrForbidden, "Invalid refresh token")
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil || user == nil {
		return nil, NewHTTPError(ErrForbidden, "Invalid refresh token")
	}
	if !user.IsActive {
		return nil, NewHTTPError(ErrForbidden, "User is inactive")
	}

	//旧tokenをusedにする。0件なら同時に使われた
	if err := u.rtRepo.MarkUsed(ctx, rt.ID, now); err != nil {
		_ = u.rtRepo.DeleteAllByUserID(ctx, rt.UserID)
		return nil, NewHTTPError(ErrForbidden, "Invalid refresh token")
	}

	newPlain, err := u.issueRefreshToken(ctx, user.ID, userAgent, now)
	if err != nil {
		return nil, NewHTTPError(ErrInternal, "Error issuing token")
	}
	accessToken, err := u.issueAccessToken(user, now)
	if err != nil {
		return nil, NewHTTPError(ErrInternal, "Error issuing token")
	}

	return &RefreshResult{
		AccessToken:       accessToken,
		RefreshTokenPlain: newPlain,
	}, nil
}

// refresh tokenを消してtoken_versionを上げる（発行済みaccess tokenも無効）。
// cookieがない・見つからない場合は何もしない
func (u *AuthUsecase) Logout(ctx context.Context, refreshTokenPlain string) error {
	if strings.TrimSpace(refreshTokenPlain) == "" {
		return nil
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(refreshTokenPlain))
	if errors.Is(err, repo.ErrRefreshTokenNotFound) {
		return nil
	}
	if err != nil {
		return NewHTTPError(ErrInternal, "Error logging out")
	}

	if err := u.rtRepo.DeleteByID(ctx, rt.ID); err != nil && !errors.Is(err, repo.ErrRefreshTokenNotFound) {
		return NewHTTPError(ErrInternal, "Error logging out")
	}
	if err := u.users.IncrementTokenVersion(ctx, rt.UserID); err != nil {
		zap.L().Error("increment token version failed", zap.Int64("user_id", rt.UserID), zap.Error(err))
		return NewHTTPError(ErrInternal, "Error logging out")
	}

	zap.L().Info("user logged out", zap.Int64("user_id", rt.UserID))
	return nil
}

// パスワードハッシュは返さない
func (u *AuthUsecase) ListUsers(ctx context.Context) ([]UserDTO, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, NewHTTPError(ErrInternal, "Error fetching users")
	}
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, toUserDTO(&users[i]))
	}
	return out, nil
}

// ユーザーが1人もいなければ初期管理者を作る
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, email string, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	n, err := u.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	name := email
	if i := strings.Index(email, "@"); i > 0 {
		name = email[:i]
	}
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(pwHash),
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  string(user.Role),
		"tv":    user.TokenVersion,
		"iat":   now.Unix(),
		"exp":   now.Add(u.cfg.AccessTokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(u.cfg.JWTSecret))
}

// DBにはhashだけ保存して平文を返す
func (u *AuthUsecase) issueRefreshToken(ctx context.Context, userID int64, userAgent string, now time.Time) (string, error) {
	plain, hash, err := newRandomTokenAndHash()
	if err != nil {
		return "", err
	}
	rt := &model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(u.cfg.RefreshTokenTTL),
	}
	if err := u.rtRepo.Create(ctx, rt); err != nil {
		return "", err
	}
	return plain, nil
}

// refresh token生成（平文 + DB保存hash）
func newRandomTokenAndHash() (plain string, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plain = base64.RawURLEncoding.EncodeToString(b)
	return plain, hashToken(plain), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
