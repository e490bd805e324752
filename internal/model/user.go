// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、APIレスポンスには含めない。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity は検証済みセッショントークンから復元した認証主体を表す。
// サーバー側には保存されず、リクエストのライフサイクル内でのみ有効。
type Identity struct {
	UserID   int64
	Username string
}
