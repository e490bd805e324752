// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category は経費のカテゴリを表す。
type Category string

const (
	// CategoryTravel は交通・出張費。
	CategoryTravel Category = "TRAVEL"
	// CategoryFood は飲食費。
	CategoryFood Category = "FOOD"
	// CategoryOffice は事務用品費。
	CategoryOffice Category = "OFFICE"
	// CategoryOther はその他の経費。
	CategoryOther Category = "OTHER"
)

// ParseCategory は文字列をCategoryに変換する。
// 定義外の値の場合はfalseを返す。
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryTravel, CategoryFood, CategoryOffice, CategoryOther:
		return Category(s), true
	default:
		return "", false
	}
}

// Expense は経費レコードを表す。
// OwnerIDとCreatedAtは作成後に変更されない。
// 金額は通貨計算での浮動小数点誤差を避けるためdecimalで保持する。
type Expense struct {
	ID           int64
	Description  string
	Category     Category
	Reimbursable bool
	Amount       decimal.Decimal // 常に正
	TaxRate      decimal.Decimal // 0〜100
	OwnerID      int64
	CreatedAt    time.Time
}
