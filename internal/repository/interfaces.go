// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/kakeibo/internal/model"
)

// ErrUsernameTaken はユーザー名の一意制約違反を表す。
var ErrUsernameTaken = errors.New("username already taken")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDを含むレコードを返す。
	// ユーザー名が既に存在する場合はErrUsernameTakenを返す。
	Create(ctx context.Context, username, passwordHash string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// ExpenseRepository は経費データの永続化インターフェース。
// 読み取り・更新・削除はすべて(id, ownerID)の組で単一の述語としてスコープされる。
// 他ユーザー所有のレコードは存在しないレコードと区別できない（nil/falseを返す）。
type ExpenseRepository interface {
	// Create は経費を作成し、採番されたIDと作成日時を含むレコードを返す。
	Create(ctx context.Context, e *model.Expense) (*model.Expense, error)

	// FindOne は所有者スコープで経費を1件取得する。見つからない場合はnilを返す。
	FindOne(ctx context.Context, id, ownerID int64) (*model.Expense, error)

	// FindMany は所有者の経費をQuerySpecに従いフィルタ・ソート・ページネーションして返す。
	// 2番目の戻り値はページネーション適用前のフィルタ一致総数。
	FindMany(ctx context.Context, ownerID int64, spec model.QuerySpec) ([]*model.Expense, int, error)

	// Update は所有者スコープで経費を上書き更新する。見つからない場合はnilを返す。
	// 部分更新のマージはサービス層で行い、ここでは全フィールドを書き込む。
	Update(ctx context.Context, e *model.Expense) (*model.Expense, error)

	// Delete は所有者スコープで経費を削除する。削除できた場合はtrueを返す。
	Delete(ctx context.Context, id, ownerID int64) (bool, error)
}
