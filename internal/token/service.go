// Package token は署名付きセッショントークンの発行と検証を提供する。
// トークンは自己完結型であり、サーバー側の状態を参照せずに検証できる。
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/kakeibo/internal/model"
)

// ErrInvalidToken は検証に失敗したトークンを表す。
// 構造不正・署名不一致・期限切れのいずれでもこのエラーを返し、
// 失敗理由を呼び出し側に区別させない（秘密鍵やトークン構造の探索を防ぐ）。
var ErrInvalidToken = errors.New("invalid token")

// Claims はトークンに埋め込むデータを表す。
// subjectにはユーザーIDの10進文字列表現が入る。
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service はHMAC署名によるトークンの発行と検証を行う。
// 秘密鍵は起動時に1回だけ注入され、以後変更されない。
// ローテーションすると発行済みの全トークンが無効になる。
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService はServiceを生成する。ttlは発行するトークンの有効期間。
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue はユーザーに紐づくセッショントークンを発行する。
func (s *Service) Issue(user *model.User) (string, error) {
	now := s.now()
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、埋め込まれた認証主体を返す。
// いかなる検証失敗もErrInvalidTokenに集約する（fail closed）。
// subjectが正の整数としてパースできないトークンも無効として扱う。
func (s *Service) Verify(tokenString string) (*model.Identity, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrInvalidToken
	}

	return &model.Identity{
		UserID:   userID,
		Username: claims.Username,
	}, nil
}
