package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/kakeibo/internal/expense"
	"github.com/hitoshi/kakeibo/internal/middleware"
	"github.com/hitoshi/kakeibo/internal/model"
	"github.com/hitoshi/kakeibo/internal/money"
	"github.com/hitoshi/kakeibo/internal/query"
	"github.com/shopspring/decimal"
)

// ExpenseServiceInterface は経費ハンドラーが必要とするサービスインターフェース。
type ExpenseServiceInterface interface {
	Create(ctx context.Context, ownerID int64, p expense.Params) (*model.Expense, error)
	Get(ctx context.Context, id, ownerID int64) (*model.Expense, error)
	List(ctx context.Context, ownerID int64, spec model.QuerySpec) ([]*model.Expense, int, error)
	Update(ctx context.Context, id, ownerID int64, p expense.Params) (*model.Expense, error)
	Delete(ctx context.Context, id, ownerID int64) error
}

// ExpenseMetrics は経費ハンドラーが記録するメトリクスのインターフェース。
type ExpenseMetrics interface {
	RecordExpenseCreated(category string)
	RecordExpenseDeleted()
}

// ExpenseHandler は経費管理のHTTPハンドラー。
type ExpenseHandler struct {
	service ExpenseServiceInterface
	metrics ExpenseMetrics
}

// NewExpenseHandler はExpenseHandlerを生成する。metricsはnilを許容する。
func NewExpenseHandler(service ExpenseServiceInterface, metrics ExpenseMetrics) *ExpenseHandler {
	return &ExpenseHandler{
		service: service,
		metrics: metrics,
	}
}

// expensePayload は経費の作成・更新リクエストのボディ。
// 各フィールドを生のJSONとして受け取り、型として解釈できない値は
// 未指定と同様に扱う。
type expensePayload struct {
	Description  json.RawMessage `json:"description"`
	Category     json.RawMessage `json:"category"`
	Reimbursable json.RawMessage `json:"reimbursable"`
	Amount       json.RawMessage `json:"amount"`
	TaxRate      json.RawMessage `json:"taxRate"`
}

// toParams はリクエストボディをサービス層のパラメータに変換する。
// 型が一致しないフィールドはnil（未指定）になる。
func (p expensePayload) toParams() expense.Params {
	var params expense.Params

	var description string
	if len(p.Description) > 0 && json.Unmarshal(p.Description, &description) == nil {
		params.Description = &description
	}

	var category string
	if len(p.Category) > 0 && json.Unmarshal(p.Category, &category) == nil {
		params.Category = &category
	}

	var reimbursable bool
	if len(p.Reimbursable) > 0 && json.Unmarshal(p.Reimbursable, &reimbursable) == nil {
		params.Reimbursable = &reimbursable
	}

	var amount decimal.Decimal
	if len(p.Amount) > 0 && json.Unmarshal(p.Amount, &amount) == nil {
		params.Amount = &amount
	}

	var taxRate decimal.Decimal
	if len(p.TaxRate) > 0 && json.Unmarshal(p.TaxRate, &taxRate) == nil {
		params.TaxRate = &taxRate
	}

	return params
}

// expenseResponse は経費情報のAPIレスポンス。
// grandTotalは保存されず、読み出しのたびに税込額として導出される。
type expenseResponse struct {
	ID           int64   `json:"id"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Reimbursable bool    `json:"reimbursable"`
	Amount       float64 `json:"amount"`
	TaxRate      float64 `json:"taxRate"`
	GrandTotal   float64 `json:"grandTotal"`
	CreatedAt    string  `json:"createdAt"`
}

// listExpensesResponse は経費一覧のAPIレスポンス。
// totalはページングに関係なくフィルタに一致した総件数。
type listExpensesResponse struct {
	Items []expenseResponse `json:"items"`
	Total int               `json:"total"`
}

// List は経費一覧を取得する。
// GET /expenses?page=&pageSize=&category=&reimbursable=&search=&sort=
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	spec := query.Plan(r.URL.Query())

	expenses, total, err := h.service.List(r.Context(), identity.UserID, spec)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, toExpenseResponse(e))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listExpensesResponse{
		Items: items,
		Total: total,
	})
}

// Create は経費を作成する。
// POST /expenses
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidPayloadError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.service.Create(r.Context(), identity.UserID, payload.toParams())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordExpenseCreated(string(created.Category))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toExpenseResponse(created))
}

// Get は経費を1件取得する。
// GET /expenses/{id}
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseExpenseID(chi.URLParam(r, "id"))
	if !ok {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewExpenseNotFoundError())
		return
	}

	e, err := h.service.Get(r.Context(), id, identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toExpenseResponse(e))
}

// Update は経費を部分更新する。
// PUT /expenses/{id}
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseExpenseID(chi.URLParam(r, "id"))
	if !ok {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewExpenseNotFoundError())
		return
	}

	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidPayloadError("リクエストボディの解析に失敗しました"))
		return
	}

	updated, err := h.service.Update(r.Context(), id, identity.UserID, payload.toParams())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toExpenseResponse(updated))
}

// Delete は経費を削除する。
// DELETE /expenses/{id}
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, ok := parseExpenseID(chi.URLParam(r, "id"))
	if !ok {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewExpenseNotFoundError())
		return
	}

	if err := h.service.Delete(r.Context(), id, identity.UserID); err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordExpenseDeleted()
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// parseExpenseID はパスパラメータを経費IDとして解釈する。
// 数値として解釈できないIDは存在しないレコードと同様に扱う。
func parseExpenseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// toExpenseResponse はmodel.ExpenseからAPIレスポンスに変換する。
// 税込総額はここで導出し、小数第2位に丸めて返す。
func toExpenseResponse(e *model.Expense) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		Description:  e.Description,
		Category:     string(e.Category),
		Reimbursable: e.Reimbursable,
		Amount:       money.Round2(e.Amount).InexactFloat64(),
		TaxRate:      money.Round2(e.TaxRate).InexactFloat64(),
		GrandTotal:   money.Round2(money.GrandTotal(e.Amount, e.TaxRate)).InexactFloat64(),
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
