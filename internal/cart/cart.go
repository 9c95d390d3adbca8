package cart

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	pkgerrors "github.com/warunglabs/kasirpos-backend/pkg/errors"
	"github.com/warunglabs/kasirpos-backend/pkg/types"
)

// Line is one aggregated cart entry. SellPrice and CostPrice already
// include the selected modifier deltas.
type Line struct {
	Key       string          `json:"key"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Qty       int64           `json:"qty"`
	SellPrice int64           `json:"sell_price"`
	CostPrice int64           `json:"cost_price"`
	Modifiers types.Modifiers `json:"modifiers,omitempty"`
}

// Totals is the derived view of a cart. Always recomputed, never cached.
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	TotalCost   int64 `json:"total_cost"`
	TotalProfit int64 `json:"total_profit"`
	ItemCount   int64 `json:"item_count"`
}

// Cart holds the mutable line set for one cashier. Lines keep insertion
// order; adding a product with an identical modifier set increments the
// existing line instead of appending a duplicate.
type Cart struct {
	mu    sync.Mutex
	lines []*Line
}

func New() *Cart {
	return &Cart{}
}

// LineKey builds the dedup key from product id + modifier names,
// order-independent.
func LineKey(productID uuid.UUID, modifierNames []string) string {
	if len(modifierNames) == 0 {
		return productID.String()
	}
	names := make([]string, len(modifierNames))
	copy(names, modifierNames)
	sort.Strings(names)
	return productID.String() + "|" + strings.Join(names, ",")
}

// AddLine adds one unit of the product with the selected modifiers.
func (c *Cart) AddLine(product models.Product, modifierNames []string) (*Line, error) {
	selected, err := resolveModifiers(product, modifierNames)
	if err != nil {
		return nil, err
	}

	key := LineKey(product.ID, modifierNames)

	c.mu.Lock()
	defer c.mu.Unlock()

	if line := c.findLocked(key); line != nil {
		line.Qty++
		return copyLine(line), nil
	}

	line := &Line{
		Key:       key,
		ProductID: product.ID,
		Name:      displayName(product.Name, selected),
		Qty:       1,
		SellPrice: product.SellPrice + selected.PriceDelta(),
		CostPrice: product.CostPrice + selected.CostDelta(),
		Modifiers: selected,
	}
	c.lines = append(c.lines, line)
	return copyLine(line), nil
}

// ChangeQuantity adds delta to the line's quantity. A resulting quantity
// of zero or below removes the line.
func (c *Cart) ChangeQuantity(key string, delta int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.findLocked(key)
	if line == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	line.Qty += delta
	if line.Qty <= 0 {
		c.removeLocked(key)
	}
	return nil
}

// RemoveLine drops the line regardless of quantity.
func (c *Cart) RemoveLine(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.findLocked(key) == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	c.removeLocked(key)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// ReplaceAll swaps the cart contents, used by held-order recall.
func (c *Cart) ReplaceAll(lines []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = make([]*Line, 0, len(lines))
	for i := range lines {
		line := lines[i]
		if line.Qty <= 0 {
			continue
		}
		if line.Key == "" {
			line.Key = LineKey(line.ProductID, line.Modifiers.Names())
		}
		c.lines = append(c.lines, &line)
	}
}

// Lines returns a copy of the current lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, *copyLine(line))
	}
	return out
}

// Totals recomputes the derived values from the current lines.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()

	var t Totals
	for _, line := range c.lines {
		t.Subtotal += line.SellPrice * line.Qty
		t.TotalCost += line.CostPrice * line.Qty
		t.ItemCount += line.Qty
	}
	t.TotalProfit = t.Subtotal - t.TotalCost
	return t
}

// Snapshot freezes the lines into immutable transaction items, each
// carrying its own totals.
func (c *Cart) Snapshot() types.TransactionItems {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make(types.TransactionItems, 0, len(c.lines))
	for _, line := range c.lines {
		totalSell := line.SellPrice * line.Qty
		totalCost := line.CostPrice * line.Qty
		items = append(items, types.TransactionItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Qty:       line.Qty,
			SellPrice: line.SellPrice,
			CostPrice: line.CostPrice,
			Modifiers: line.Modifiers,
			TotalSell: totalSell,
			TotalCost: totalCost,
			Profit:    totalSell - totalCost,
		})
	}
	return items
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

func (c *Cart) findLocked(key string) *Line {
	for _, line := range c.lines {
		if line.Key == key {
			return line
		}
	}
	return nil
}

func (c *Cart) removeLocked(key string) {
	for i, line := range c.lines {
		if line.Key == key {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func resolveModifiers(product models.Product, names []string) (types.Modifiers, error) {
	if len(names) == 0 {
		return nil, nil
	}
	byName := make(map[string]types.Modifier, len(product.Modifiers))
	for _, mod := range product.Modifiers {
		byName[mod.Name] = mod
	}
	selected := make(types.Modifiers, 0, len(names))
	for _, name := range names {
		mod, ok := byName[name]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %q has no modifier %q", product.Name, name))
		}
		selected = append(selected, mod)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Name < selected[j].Name })
	return selected, nil
}

func displayName(base string, selected types.Modifiers) string {
	if len(selected) == 0 {
		return base
	}
	return base + " (" + strings.Join(selected.Names(), ", ") + ")"
}

func copyLine(line *Line) *Line {
	dup := *line
	if len(line.Modifiers) > 0 {
		dup.Modifiers = make(types.Modifiers, len(line.Modifiers))
		copy(dup.Modifiers, line.Modifiers)
	}
	return &dup
}
