// Package model はドメインモデルを定義する。
package model

// TriState は真偽フィルタの三値（未指定/真/偽）を表す。
// 文字列パラメータの「空文字=未指定」規約の曖昧さを避けるため、
// 明示的なタグ付きの型として扱う。
type TriState int

const (
	// TriUnset はフィルタ未指定を表す。
	TriUnset TriState = iota
	// TriTrue は真でのフィルタを表す。
	TriTrue
	// TriFalse は偽でのフィルタを表す。
	TriFalse
)

// SortField は経費一覧のソート対象カラムを表す。
type SortField string

const (
	// SortByCreatedAt は作成日時でのソート。
	SortByCreatedAt SortField = "createdAt"
	// SortByAmount は金額でのソート。
	SortByAmount SortField = "amount"
)

// SortDirection はソート方向を表す。
type SortDirection string

const (
	// SortAsc は昇順。
	SortAsc SortDirection = "asc"
	// SortDesc は降順。
	SortDesc SortDirection = "desc"
)

// QuerySpec は信頼できないリクエストパラメータから正規化された、
// 安全な範囲に収まるフィルタ・ソート・ページネーション指定を表す。
// query.Planが生成し、ExpenseRepository.FindManyが消費する。
type QuerySpec struct {
	Page           int // 1以上
	PageSize       int // 1〜10
	CategoryFilter *Category
	Reimbursable   TriState
	SearchText     string // 空の場合はフィルタなし。説明文への部分一致（大文字小文字を区別しない）
	SortField      SortField
	SortDirection  SortDirection
}

// Offset はページネーションのOFFSET値を返す。
func (s QuerySpec) Offset() int {
	return (s.Page - 1) * s.PageSize
}
