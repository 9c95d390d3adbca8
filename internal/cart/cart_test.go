package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warunglabs/kasirpos-backend/pkg/db/models"
	"github.com/warunglabs/kasirpos-backend/pkg/types"
)

func kopiSusu() models.Product {
	return models.Product{
		ID:        uuid.New(),
		Name:      "Kopi Susu",
		SellPrice: 18000,
		CostPrice: 8000,
		Modifiers: types.Modifiers{
			{Name: "Extra Shot", Price: 5000, Cost: 2000},
			{Name: "Less Sugar", Price: 0, Cost: 0},
		},
	}
}

func TestAddLineDeduplicatesOnModifierSet(t *testing.T) {
	c := New()
	product := kopiSusu()

	_, err := c.AddLine(product, []string{"Extra Shot", "Less Sugar"})
	require.NoError(t, err)

	// Selection order must not matter.
	line, err := c.AddLine(product, []string{"Less Sugar", "Extra Shot"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), line.Qty)

	// Different modifier set is a new line.
	_, err = c.AddLine(product, nil)
	require.NoError(t, err)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, int64(2), lines[0].Qty)
	assert.Equal(t, int64(23000), lines[0].SellPrice)
	assert.Equal(t, int64(10000), lines[0].CostPrice)
	assert.Equal(t, "Kopi Susu (Extra Shot, Less Sugar)", lines[0].Name)
	assert.Equal(t, int64(18000), lines[1].SellPrice)
}

func TestAddLineUnknownModifier(t *testing.T) {
	c := New()
	_, err := c.AddLine(kopiSusu(), []string{"Oat Milk"})
	assert.Error(t, err)
	assert.True(t, c.Empty())
}

func TestChangeQuantityToZeroRemovesLine(t *testing.T) {
	c := New()
	product := kopiSusu()
	line, err := c.AddLine(product, nil)
	require.NoError(t, err)
	require.NoError(t, c.ChangeQuantity(line.Key, 2))

	require.NoError(t, c.ChangeQuantity(line.Key, -3))
	assert.True(t, c.Empty())
	assert.Equal(t, int64(0), c.Totals().Subtotal)

	err = c.ChangeQuantity(line.Key, 1)
	assert.Error(t, err, "removed line must not be addressable")
}

func TestTotalsRecomputedFromLines(t *testing.T) {
	c := New()
	product := kopiSusu()

	line, err := c.AddLine(product, nil)
	require.NoError(t, err)
	require.NoError(t, c.ChangeQuantity(line.Key, 1))

	_, err = c.AddLine(product, []string{"Extra Shot"})
	require.NoError(t, err)

	totals := c.Totals()
	assert.Equal(t, int64(2*18000+23000), totals.Subtotal)
	assert.Equal(t, int64(2*8000+10000), totals.TotalCost)
	assert.Equal(t, totals.Subtotal-totals.TotalCost, totals.TotalProfit)
	assert.Equal(t, int64(3), totals.ItemCount)
}

func TestSnapshotCarriesPerLineTotals(t *testing.T) {
	c := New()
	product := kopiSusu()
	line, err := c.AddLine(product, nil)
	require.NoError(t, err)
	require.NoError(t, c.ChangeQuantity(line.Key, 2))

	items := c.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, int64(3), items[0].Qty)
	assert.Equal(t, int64(54000), items[0].TotalSell)
	assert.Equal(t, int64(24000), items[0].TotalCost)
	assert.Equal(t, int64(30000), items[0].Profit)

	// Snapshot is a copy; mutating the cart afterwards must not change it.
	c.Clear()
	assert.Equal(t, int64(3), items[0].Qty)
}

func TestReplaceAllRestoresLines(t *testing.T) {
	c := New()
	product := kopiSusu()
	_, err := c.AddLine(product, []string{"Extra Shot"})
	require.NoError(t, err)
	saved := c.Lines()

	c.Clear()
	require.True(t, c.Empty())

	c.ReplaceAll(saved)
	restored := c.Lines()
	require.Len(t, restored, 1)
	assert.Equal(t, saved[0], restored[0])

	// Incrementing after restore still dedups against the restored line.
	_, err = c.AddLine(product, []string{"Extra Shot"})
	require.NoError(t, err)
	assert.Len(t, c.Lines(), 1)
	assert.Equal(t, int64(2), c.Lines()[0].Qty)
}

func TestRegistryIsolatesCashiers(t *testing.T) {
	reg := NewRegistry()
	alice := uuid.New()
	bob := uuid.New()

	_, err := reg.Get(alice).AddLine(kopiSusu(), nil)
	require.NoError(t, err)

	assert.False(t, reg.Get(alice).Empty())
	assert.True(t, reg.Get(bob).Empty())

	reg.Drop(alice)
	assert.True(t, reg.Get(alice).Empty())
}
