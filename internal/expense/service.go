// Package expense は経費管理のドメインロジックを提供する。
package expense

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/hitoshi/kakeibo/internal/model"
	"github.com/hitoshi/kakeibo/internal/repository"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

// Params は経費の作成・更新で受け取るフィールド群を表す。
// nilのフィールドは「未指定またはパース不能」を意味する。
// 作成時は必須フィールドの欠落がエラーになるが、更新時は既存値を維持する。
type Params struct {
	Description  *string
	Category     *string
	Reimbursable *bool
	Amount       *decimal.Decimal
	TaxRate      *decimal.Decimal
}

// Service は経費管理のサービス層。
// すべての操作は呼び出し側の所有者IDでスコープされる。
type Service struct {
	repo      repository.ExpenseRepository
	sanitizer *bluemonday.Policy
}

// NewService はServiceを生成する。
func NewService(repo repository.ExpenseRepository) *Service {
	return &Service{
		repo: repo,
		// 説明文は平文として扱う。保存前にHTMLタグを全て除去する。
		sanitizer: bluemonday.StrictPolicy(),
	}
}

var (
	taxRateMax = decimal.NewFromInt(100)
)

// Create は経費を作成する。
// 必須フィールドの欠落や不正値はInvalidPayloadエラーになる
// （更新と異なり、作成では黙殺しない）。
func (s *Service) Create(ctx context.Context, ownerID int64, p Params) (*model.Expense, error) {
	description := ""
	if p.Description != nil {
		description = s.sanitizeDescription(*p.Description)
	}
	if description == "" {
		return nil, model.NewInvalidPayloadError("説明を入力してください")
	}

	var category model.Category
	if p.Category != nil {
		if c, ok := model.ParseCategory(*p.Category); ok {
			category = c
		}
	}
	if category == "" {
		return nil, model.NewInvalidPayloadError("カテゴリはTRAVEL, FOOD, OFFICE, OTHERのいずれかを指定してください")
	}

	if p.Reimbursable == nil {
		return nil, model.NewInvalidPayloadError("reimbursableはboolean値で指定してください")
	}

	if p.Amount == nil || !validAmount(*p.Amount) {
		return nil, model.NewInvalidPayloadError("金額は0より大きい数値で指定してください")
	}
	if p.TaxRate == nil || !validTaxRate(*p.TaxRate) {
		return nil, model.NewInvalidPayloadError("税率は0〜100の数値で指定してください")
	}

	created, err := s.repo.Create(ctx, &model.Expense{
		Description:  description,
		Category:     category,
		Reimbursable: *p.Reimbursable,
		Amount:       *p.Amount,
		TaxRate:      *p.TaxRate,
		OwnerID:      ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	slog.Info("expense created",
		slog.Int64("expense_id", created.ID),
		slog.Int64("user_id", ownerID),
		slog.String("category", string(created.Category)),
	)

	return created, nil
}

// Get は所有者スコープで経費を1件取得する。
func (s *Service) Get(ctx context.Context, id, ownerID int64) (*model.Expense, error) {
	e, err := s.repo.FindOne(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}
	if e == nil {
		return nil, model.NewExpenseNotFoundError()
	}
	return e, nil
}

// List は所有者の経費一覧とフィルタ一致総数を返す。
func (s *Service) List(ctx context.Context, ownerID int64, spec model.QuerySpec) ([]*model.Expense, int, error) {
	expenses, total, err := s.repo.FindMany(ctx, ownerID, spec)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, total, nil
}

// Update は経費を部分更新する。
// 未指定のフィールドや型として不正な値は、リクエストを拒否せず
// 既存の保存値を維持する（寛容マージ）。
// 所有者が異なる場合は存在しない場合と同じNotFoundになる。
func (s *Service) Update(ctx context.Context, id, ownerID int64, p Params) (*model.Expense, error) {
	existing, err := s.repo.FindOne(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}
	if existing == nil {
		return nil, model.NewExpenseNotFoundError()
	}

	merged := *existing
	if p.Description != nil {
		if d := s.sanitizeDescription(*p.Description); d != "" {
			merged.Description = d
		}
	}
	if p.Category != nil {
		if c, ok := model.ParseCategory(*p.Category); ok {
			merged.Category = c
		}
	}
	if p.Reimbursable != nil {
		merged.Reimbursable = *p.Reimbursable
	}
	if p.Amount != nil && validAmount(*p.Amount) {
		merged.Amount = *p.Amount
	}
	if p.TaxRate != nil && validTaxRate(*p.TaxRate) {
		merged.TaxRate = *p.TaxRate
	}

	updated, err := s.repo.Update(ctx, &merged)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	if updated == nil {
		// FindOneとUpdateの間に削除された場合
		return nil, model.NewExpenseNotFoundError()
	}

	return updated, nil
}

// Delete は所有者スコープで経費を削除する。
func (s *Service) Delete(ctx context.Context, id, ownerID int64) error {
	deleted, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if !deleted {
		return model.NewExpenseNotFoundError()
	}

	slog.Info("expense deleted",
		slog.Int64("expense_id", id),
		slog.Int64("user_id", ownerID),
	)

	return nil
}

// sanitizeDescription は説明文からHTMLタグを除去し、前後の空白を取り除く。
// サニタイザはタグ除去と同時に残りのテキストをHTMLエスケープするため、
// エスケープを戻して平文（& や < を含む）をそのまま保存できるようにする。
func (s *Service) sanitizeDescription(d string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(d)))
}

func validAmount(d decimal.Decimal) bool {
	return d.IsPositive()
}

func validTaxRate(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(taxRateMax)
}
