package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByCategory_TwoCategories(t *testing.T) {
	order := mixedOrder()

	split := SplitByCategory(order)

	require.Len(t, split, 2)
	require.Contains(t, split, "Food")
	require.Contains(t, split, "Drinks")
	assert.True(t, split["Food"].Total.Equal(decimal.NewFromInt(200)))
	assert.True(t, split["Drinks"].Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "20261018-0007-FOOD", split["Food"].OrderNumber)
	assert.Equal(t, []string{"Drinks", "Food"}, CategoryOrder(split))
}

func TestSplitByCategory_PreservesItemsAndTotals(t *testing.T) {
	order := mixedOrder()
	order.Items = append(order.Items, item("Dal", "Food", 60, 1), item("Lassi", "Drinks", 40, 1))
	order.Total = order.ItemsTotal()

	split := SplitByCategory(order)

	sum := decimal.Zero
	var names []string
	for _, c := range CategoryOrder(split) {
		sum = sum.Add(split[c].Total)
		for _, it := range split[c].Items {
			names = append(names, it.Name)
		}
	}
	assert.True(t, sum.Equal(order.Total))
	assert.ElementsMatch(t, []string{"Thali", "Chai", "Dal", "Lassi"}, names)

	// Relative order inside a bucket is kept.
	assert.Equal(t, "Thali", split["Food"].Items[0].Name)
	assert.Equal(t, "Dal", split["Food"].Items[1].Name)
}

func TestSplitByCategory_DoesNotMutateOrder(t *testing.T) {
	order := mixedOrder()
	phone := "98450 12345"
	order.PhoneNumber = &phone

	split := SplitByCategory(order)
	*split["Food"].PhoneNumber = "changed"

	assert.Equal(t, "20261018-0007", order.OrderNumber)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "98450 12345", phone)
}

func TestSplitByCategory_SingleCategory(t *testing.T) {
	order := mixedOrder()
	order.Items[1].Category = "Food"

	split := SplitByCategory(order)

	require.Len(t, split, 1)
	assert.True(t, split["Food"].Total.Equal(order.ItemsTotal()))
	assert.Equal(t, 1, DistinctCategories(order))
}

func TestSplitByCategory_MissingCategory(t *testing.T) {
	order := mixedOrder()
	order.Items[1].Category = "  "

	split := SplitByCategory(order)

	require.Contains(t, split, UncategorizedCategory)
	assert.Equal(t, "Chai", split[UncategorizedCategory].Items[0].Name)
}

func TestSplitByCategory_Deterministic(t *testing.T) {
	a := SplitByCategory(mixedOrder())
	b := SplitByCategory(mixedOrder())

	assert.Equal(t, CategoryOrder(a), CategoryOrder(b))
	for _, c := range CategoryOrder(a) {
		assert.True(t, a[c].Total.Equal(b[c].Total))
		assert.Equal(t, a[c].Items, b[c].Items)
	}
}

func TestSplitByCategory_CaseOnlyLabelsGetDistinctNumbers(t *testing.T) {
	order := mixedOrder()
	order.Items[1].Category = "food"
	order.Items = append(order.Items, item("Dal", "FOOD", 60, 1))

	split := SplitByCategory(order)

	require.Len(t, split, 3)
	assert.Equal(t, "20261018-0007-FOOD", split["FOOD"].OrderNumber)
	assert.Equal(t, "20261018-0007-FOOD-2", split["Food"].OrderNumber)
	assert.Equal(t, "20261018-0007-FOOD-3", split["food"].OrderNumber)
	assert.Equal(t, "Chai", split["food"].Items[0].Name)
}
