// Package query は信頼できないリクエストパラメータを安全なQuerySpecへ正規化する。
// どんな入力に対してもエラーを返さず、決定的にクランプ・デフォルト適用する。
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/kakeibo/internal/model"
)

const (
	// DefaultPageSize はpageSize未指定時の1ページ件数。
	DefaultPageSize = 5
	// MaxPageSize はpageSizeの上限。
	MaxPageSize = 10
)

// Plan はクエリパラメータからQuerySpecを構築する。
// 不正な値は例外にせず、すべて安全なデフォルトへ正規化する:
//   - page: 整数、下限1
//   - pageSize: 整数、1〜10にクランプ、デフォルト5
//   - sort: "field:direction"形式。fieldがcreatedAt/amount以外なら
//     createdAt降順へフォールバック（directionも無視する）
//   - category: 定義済みenum以外はフィルタなし
//   - reimbursable: 未指定・空はフィルタなし、それ以外は"true"のみ真
//   - search: 空ならフィルタなし。説明文への部分一致（大文字小文字を区別しない）
func Plan(params url.Values) model.QuerySpec {
	spec := model.QuerySpec{
		Page:          parsePage(params.Get("page")),
		PageSize:      parsePageSize(params.Get("pageSize")),
		Reimbursable:  parseTriState(params.Get("reimbursable")),
		SearchText:    params.Get("search"),
		SortField:     model.SortByCreatedAt,
		SortDirection: model.SortDesc,
	}

	if c, ok := model.ParseCategory(params.Get("category")); ok {
		spec.CategoryFilter = &c
	}

	field, direction, _ := strings.Cut(params.Get("sort"), ":")
	switch model.SortField(field) {
	case model.SortByCreatedAt, model.SortByAmount:
		spec.SortField = model.SortField(field)
		if direction == "asc" {
			spec.SortDirection = model.SortAsc
		}
	}

	return spec
}

func parsePage(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parsePageSize(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultPageSize
	}
	if n < 1 {
		return 1
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

func parseTriState(s string) model.TriState {
	if s == "" {
		return model.TriUnset
	}
	if s == "true" {
		return model.TriTrue
	}
	return model.TriFalse
}
