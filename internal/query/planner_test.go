package query

import (
	"net/url"
	"testing"

	"github.com/hitoshi/kakeibo/internal/model"
)

func params(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

// パラメータ未指定時のデフォルト値を検証
func TestPlan_Defaults(t *testing.T) {
	spec := Plan(url.Values{})

	if spec.Page != 1 {
		t.Errorf("Page = %d, want 1", spec.Page)
	}
	if spec.PageSize != 5 {
		t.Errorf("PageSize = %d, want 5", spec.PageSize)
	}
	if spec.CategoryFilter != nil {
		t.Errorf("CategoryFilter = %v, want nil", *spec.CategoryFilter)
	}
	if spec.Reimbursable != model.TriUnset {
		t.Errorf("Reimbursable = %v, want TriUnset", spec.Reimbursable)
	}
	if spec.SearchText != "" {
		t.Errorf("SearchText = %q, want empty", spec.SearchText)
	}
	if spec.SortField != model.SortByCreatedAt {
		t.Errorf("SortField = %q, want createdAt", spec.SortField)
	}
	if spec.SortDirection != model.SortDesc {
		t.Errorf("SortDirection = %q, want desc", spec.SortDirection)
	}
}

// ページ番号のクランプを検証
func TestPlan_PageClamps(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1", 1},
		{"7", 7},
		{"0", 1},
		{"-5", 1},
		{"abc", 1},
		{"", 1},
	}
	for _, tt := range tests {
		spec := Plan(params("page", tt.in))
		if spec.Page != tt.want {
			t.Errorf("Plan(page=%q).Page = %d, want %d", tt.in, spec.Page, tt.want)
		}
	}
}

// ページサイズのクランプを検証
func TestPlan_PageSizeClamps(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{"10", 10},
		{"0", 1},
		{"999", 10},
		{"-1", 1},
		{"xyz", 5},
		{"", 5},
	}
	for _, tt := range tests {
		spec := Plan(params("pageSize", tt.in))
		if spec.PageSize != tt.want {
			t.Errorf("Plan(pageSize=%q).PageSize = %d, want %d", tt.in, spec.PageSize, tt.want)
		}
	}
}

// ソート指定のホワイトリスト検証
func TestPlan_Sort(t *testing.T) {
	tests := []struct {
		in        string
		field     model.SortField
		direction model.SortDirection
	}{
		{"createdAt:asc", model.SortByCreatedAt, model.SortAsc},
		{"createdAt:desc", model.SortByCreatedAt, model.SortDesc},
		{"amount:asc", model.SortByAmount, model.SortAsc},
		{"amount:desc", model.SortByAmount, model.SortDesc},
		// 方向がasc以外はすべてdesc
		{"amount:ASC", model.SortByAmount, model.SortDesc},
		{"amount:up", model.SortByAmount, model.SortDesc},
		{"amount", model.SortByAmount, model.SortDesc},
		// 未知のフィールドはcreatedAt descへフォールバック（方向も無視）
		{"unknown:asc", model.SortByCreatedAt, model.SortDesc},
		{"id:asc", model.SortByCreatedAt, model.SortDesc},
		{"", model.SortByCreatedAt, model.SortDesc},
	}
	for _, tt := range tests {
		spec := Plan(params("sort", tt.in))
		if spec.SortField != tt.field || spec.SortDirection != tt.direction {
			t.Errorf("Plan(sort=%q) = (%s, %s), want (%s, %s)",
				tt.in, spec.SortField, spec.SortDirection, tt.field, tt.direction)
		}
	}
}

// カテゴリフィルタのenum検証
func TestPlan_CategoryFilter(t *testing.T) {
	for _, valid := range []string{"TRAVEL", "FOOD", "OFFICE", "OTHER"} {
		spec := Plan(params("category", valid))
		if spec.CategoryFilter == nil || string(*spec.CategoryFilter) != valid {
			t.Errorf("Plan(category=%q).CategoryFilter = %v, want %q", valid, spec.CategoryFilter, valid)
		}
	}

	// 定義外の値はフィルタなしとして扱う
	for _, invalid := range []string{"travel", "ENTERTAINMENT", "'; DROP TABLE expenses;--", ""} {
		spec := Plan(params("category", invalid))
		if spec.CategoryFilter != nil {
			t.Errorf("Plan(category=%q).CategoryFilter = %v, want nil", invalid, *spec.CategoryFilter)
		}
	}
}

// 三値の真偽フィルタを検証
func TestPlan_ReimbursableTriState(t *testing.T) {
	tests := []struct {
		in   string
		want model.TriState
	}{
		{"", model.TriUnset},
		{"true", model.TriTrue},
		{"false", model.TriFalse},
		// "true"以外の非空文字列はfalseに倒す
		{"TRUE", model.TriFalse},
		{"1", model.TriFalse},
		{"yes", model.TriFalse},
	}
	for _, tt := range tests {
		spec := Plan(params("reimbursable", tt.in))
		if spec.Reimbursable != tt.want {
			t.Errorf("Plan(reimbursable=%q).Reimbursable = %v, want %v", tt.in, spec.Reimbursable, tt.want)
		}
	}
}

// 検索文字列はそのまま保持される（SQL化はリポジトリ側で行う）
func TestPlan_SearchText(t *testing.T) {
	spec := Plan(params("search", "taxi ride"))
	if spec.SearchText != "taxi ride" {
		t.Errorf("SearchText = %q, want %q", spec.SearchText, "taxi ride")
	}
}

// Offsetの計算を検証
func TestQuerySpec_Offset(t *testing.T) {
	spec := Plan(params("page", "3", "pageSize", "10"))
	if got := spec.Offset(); got != 20 {
		t.Errorf("Offset() = %d, want 20", got)
	}
}
