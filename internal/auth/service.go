// Package auth はユーザー登録・ログイン・セッション照会のドメインロジックを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/kakeibo/internal/model"
	"github.com/hitoshi/kakeibo/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// TokenIssuer はセッショントークンの発行インターフェース。
// token.Serviceの部分集合として定義する。
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// TokenVerifier はセッショントークンの検証インターフェース。
type TokenVerifier interface {
	Verify(tokenString string) (*model.Identity, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo   repository.UserRepository
	issuer     TokenIssuer
	verifier   TokenVerifier
	bcryptCost int
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, issuer TokenIssuer, verifier TokenVerifier, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		issuer:     issuer,
		verifier:   verifier,
		bcryptCost: bcryptCost,
	}
}

// Register は新規ユーザーを登録する。
// ユーザー名は3文字以上、パスワードは6文字以上。
// ユーザー名の重複は事前チェックに加えてDBの一意制約でも検出する
// （同時登録の競合に対する防御）。
func (s *Service) Register(ctx context.Context, username, password string) (*model.User, error) {
	if len(username) < minUsernameLength || len(password) < minPasswordLength {
		return nil, model.NewInvalidPayloadError("ユーザー名は3文字以上、パスワードは6文字以上で指定してください")
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewUsernameTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, username, string(hash))
	if errors.Is(err, repository.ErrUsernameTaken) {
		return nil, model.NewUsernameTakenError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login は認証情報を検証し、セッショントークンを発行する。
// ユーザー不存在とパスワード不一致は同一のエラーを返す。
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", model.NewInvalidCredentialsError()
	}

	tok, err := s.issuer.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))

	return user, tok, nil
}

// CurrentUser はトークンから現在のユーザーを解決する。
// トークンが無効な場合、またはsubjectのユーザーが既に削除されている場合は
// いずれも同一の認証エラーを返す。
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (*model.User, error) {
	identity, err := s.verifier.Verify(tokenString)
	if err != nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// トークンは暗号学的に有効だがユーザーが存在しない。クラッシュではなく認証エラー。
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}
