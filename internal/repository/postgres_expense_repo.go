package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/kakeibo/internal/model"
	"golang.org/x/sync/errgroup"
)

// PostgresExpenseRepo はPostgreSQLを使用した経費リポジトリ。
type PostgresExpenseRepo struct {
	db *sql.DB
}

// NewPostgresExpenseRepo はPostgresExpenseRepoを生成する。
func NewPostgresExpenseRepo(db *sql.DB) *PostgresExpenseRepo {
	return &PostgresExpenseRepo{db: db}
}

const expenseColumns = `id, description, category, reimbursable, amount, tax_rate, owner_id, created_at`

func scanExpense(row interface{ Scan(...interface{}) error }) (*model.Expense, error) {
	e := &model.Expense{}
	err := row.Scan(
		&e.ID, &e.Description, &e.Category, &e.Reimbursable,
		&e.Amount, &e.TaxRate, &e.OwnerID, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create は経費を作成し、採番されたIDと作成日時を含むレコードを返す。
func (r *PostgresExpenseRepo) Create(ctx context.Context, e *model.Expense) (*model.Expense, error) {
	created, err := scanExpense(r.db.QueryRowContext(ctx,
		`INSERT INTO expenses (description, category, reimbursable, amount, tax_rate, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+expenseColumns,
		e.Description, e.Category, e.Reimbursable, e.Amount, e.TaxRate, e.OwnerID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}
	return created, nil
}

// FindOne は所有者スコープで経費を1件取得する。見つからない場合はnilを返す。
// (id, owner_id)を単一の述語にすることで、他ユーザー所有のレコードも
// 存在しないレコードと同じ結果になる。
func (r *PostgresExpenseRepo) FindOne(ctx context.Context, id, ownerID int64) (*model.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}
	return e, nil
}

// FindMany は所有者の経費をQuerySpecに従い取得する。
// 総数取得とページ取得は同一フィルタに対する独立した読み取りのため並行実行する。
func (r *PostgresExpenseRepo) FindMany(ctx context.Context, ownerID int64, spec model.QuerySpec) ([]*model.Expense, int, error) {
	where, args := buildWhere(ownerID, spec)

	var (
		expenses []*model.Expense
		total    int
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := r.db.QueryRowContext(ctx,
			`SELECT count(*) FROM expenses `+where, args...,
		).Scan(&total)
		if err != nil {
			return fmt.Errorf("failed to count expenses: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// LIMIT/OFFSETのプレースホルダはfilter引数の後ろに続ける
		query := fmt.Sprintf(
			`SELECT %s FROM expenses %s ORDER BY %s LIMIT $%d OFFSET $%d`,
			expenseColumns, where, orderBy(spec), len(args)+1, len(args)+2,
		)
		pageArgs := append(append([]interface{}{}, args...), spec.PageSize, spec.Offset())

		rows, err := r.db.QueryContext(ctx, query, pageArgs...)
		if err != nil {
			return fmt.Errorf("failed to query expenses: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanExpense(rows)
			if err != nil {
				return fmt.Errorf("failed to scan expense: %w", err)
			}
			expenses = append(expenses, e)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate expenses: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if expenses == nil {
		expenses = []*model.Expense{}
	}
	return expenses, total, nil
}

// buildWhere はownerスコープとQuerySpecのフィルタからWHERE句を構築する。
// 値はすべてプレースホルダ経由で渡す。
func buildWhere(ownerID int64, spec model.QuerySpec) (string, []interface{}) {
	conds := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	if spec.CategoryFilter != nil {
		args = append(args, *spec.CategoryFilter)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if spec.Reimbursable != model.TriUnset {
		args = append(args, spec.Reimbursable == model.TriTrue)
		conds = append(conds, fmt.Sprintf("reimbursable = $%d", len(args)))
	}
	if spec.SearchText != "" {
		args = append(args, "%"+escapeLike(spec.SearchText)+"%")
		conds = append(conds, fmt.Sprintf("description ILIKE $%d", len(args)))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// orderBy はQuerySpecのソート指定をSQLに変換する。
// カラム名・方向ともホワイトリストからのみ選ぶため、文字列連結でも注入の余地はない。
func orderBy(spec model.QuerySpec) string {
	col := "created_at"
	if spec.SortField == model.SortByAmount {
		col = "amount"
	}
	dir := "DESC"
	if spec.SortDirection == model.SortAsc {
		dir = "ASC"
	}
	// 同値時の並びを安定させるためidを第2キーにする
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// Update は所有者スコープで経費を上書き更新する。見つからない場合はnilを返す。
func (r *PostgresExpenseRepo) Update(ctx context.Context, e *model.Expense) (*model.Expense, error) {
	updated, err := scanExpense(r.db.QueryRowContext(ctx,
		`UPDATE expenses
		 SET description = $1, category = $2, reimbursable = $3, amount = $4, tax_rate = $5
		 WHERE id = $6 AND owner_id = $7
		 RETURNING `+expenseColumns,
		e.Description, e.Category, e.Reimbursable, e.Amount, e.TaxRate, e.ID, e.OwnerID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return updated, nil
}

// Delete は所有者スコープで経費を削除する。削除できた場合はtrueを返す。
func (r *PostgresExpenseRepo) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete expense: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ExpenseRepository = (*PostgresExpenseRepo)(nil)
