package pricing

import (
	"sort"

	"github.com/warunglabs/kasirpos-backend/pkg/enums"
)

// Quote derives the payable amounts for a cart total, an optional
// fixed-amount reward discount, and the chosen payment method.
type Quote struct {
	Subtotal     int64               `json:"subtotal"`
	Discount     int64               `json:"discount"`
	FinalTotal   int64               `json:"final_total"`
	CashReceived int64               `json:"cash_received"`
	Change       int64               `json:"change"`
	Payable      bool                `json:"payable"`
	Method       enums.PaymentMethod `json:"payment_method"`
}

// Compute applies the discount and change rules. QR payments are always
// payable for the exact final total; cash requires cashReceived to cover it.
func Compute(subtotal, discount int64, method enums.PaymentMethod, cashReceived int64) Quote {
	if discount < 0 {
		discount = 0
	}
	finalTotal := subtotal - discount
	if finalTotal < 0 {
		finalTotal = 0
	}

	q := Quote{
		Subtotal:   subtotal,
		Discount:   discount,
		FinalTotal: finalTotal,
		Method:     method,
	}

	switch method {
	case enums.PaymentMethodQR:
		q.Payable = true
	case enums.PaymentMethodCash:
		q.CashReceived = cashReceived
		q.Payable = cashReceived >= finalTotal
		q.Change = cashReceived - finalTotal
	}
	return q
}

// QuickAmounts suggests cash denominations for the final total: the exact
// amount, the next 10k and 50k round-ups, and common large notes. Values
// below the total are dropped, duplicates collapse, at most six remain,
// ascending.
func QuickAmounts(finalTotal int64) []int64 {
	if finalTotal < 0 {
		finalTotal = 0
	}
	candidates := []int64{
		finalTotal,
		ceilTo(finalTotal, 10000),
		ceilTo(finalTotal, 50000),
		100000,
		200000,
		500000,
	}

	seen := make(map[int64]struct{}, len(candidates))
	out := make([]int64, 0, len(candidates))
	for _, amount := range candidates {
		if amount < finalTotal {
			continue
		}
		if _, dup := seen[amount]; dup {
			continue
		}
		seen[amount] = struct{}{}
		out = append(out, amount)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if len(out) > 6 {
		out = out[:6]
	}
	return out
}

func ceilTo(value, unit int64) int64 {
	if unit <= 0 {
		return value
	}
	return ((value + unit - 1) / unit) * unit
}
