// Package money は通貨金額の導出計算を提供する。
// 計算はすべて固定小数点のdecimalで行い、浮動小数点の誤差を持ち込まない。
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// GrandTotal は税込合計（amount + amount × taxRate / 100）を返す。
// 導出値であり保存はしない。読み出しのたびに計算することで、
// 税率の訂正が過去レコードにもマイグレーションなしで一貫して反映される。
func GrandTotal(amount, taxRate decimal.Decimal) decimal.Decimal {
	return amount.Add(amount.Mul(taxRate).Div(hundred))
}

// Round2 は表示境界用に小数第2位へ丸める。
// 保存値には適用しないこと。
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
