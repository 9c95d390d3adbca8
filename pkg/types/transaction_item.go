package types

import "github.com/google/uuid"

// TransactionItem is the immutable per-line snapshot serialized into a
// transaction's items column. Field names are part of the reporting wire
// format and must not change.
type TransactionItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Qty       int64     `json:"qty"`
	SellPrice int64     `json:"sell_price"`
	CostPrice int64     `json:"cost_price"`
	Modifiers Modifiers `json:"modifiers"`
	TotalSell int64     `json:"total_sell"`
	TotalCost int64     `json:"total_cost"`
	Profit    int64     `json:"profit"`
}

type TransactionItems []TransactionItem

// Subtotal sums the sell totals of all items.
func (t TransactionItems) Subtotal() int64 {
	var total int64
	for _, item := range t {
		total += item.TotalSell
	}
	return total
}

// TotalCost sums the cost totals of all items.
func (t TransactionItems) TotalCost() int64 {
	var total int64
	for _, item := range t {
		total += item.TotalCost
	}
	return total
}
