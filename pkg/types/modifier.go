package types

import "sort"

// Modifier is a product add-on selected at sale time. Price and Cost are
// deltas applied on top of a product's unit sell and cost price.
type Modifier struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Cost  int64  `json:"cost"`
}

// Modifiers is the jsonb-serialized modifier list carried by products and
// cart lines.
type Modifiers []Modifier

// Names returns the modifier names sorted ascending. Used to build
// order-independent cart dedup keys.
func (m Modifiers) Names() []string {
	names := make([]string, len(m))
	for i, mod := range m {
		names[i] = mod.Name
	}
	sort.Strings(names)
	return names
}

// PriceDelta sums the sell price contributions of all modifiers.
func (m Modifiers) PriceDelta() int64 {
	var total int64
	for _, mod := range m {
		total += mod.Price
	}
	return total
}

// CostDelta sums the cost price contributions of all modifiers.
func (m Modifiers) CostDelta() int64 {
	var total int64
	for _, mod := range m {
		total += mod.Cost
	}
	return total
}
