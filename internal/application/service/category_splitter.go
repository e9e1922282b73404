package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sangkips/kitchen-pos/internal/domain/entity"
)

// UncategorizedCategory collects items without a category label.
const UncategorizedCategory = "Uncategorized"

// CategoryOf returns the routing category of an item.
func CategoryOf(item entity.OrderLineItem) string {
	if strings.TrimSpace(item.Category) == "" {
		return UncategorizedCategory
	}
	return item.Category
}

// SplitByCategory partitions the order's items by category. Items keep their
// relative order inside a bucket and every bucket gets its own total. The
// parent order is not modified.
func SplitByCategory(order *entity.Order) map[string]entity.CategoryReceipt {
	buckets := make(map[string][]entity.OrderLineItem)
	for _, it := range order.Items {
		c := CategoryOf(it)
		buckets[c] = append(buckets[c], it)
	}

	categories := make([]string, 0, len(buckets))
	for c := range buckets {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	out := make(map[string]entity.CategoryReceipt, len(buckets))
	used := make(map[string]bool, len(buckets))
	for _, category := range categories {
		items := buckets[category]
		sub := *order
		sub.Items = items
		sub.Total = entity.SumLineTotals(items)
		sub.OrderNumber = ticketNumber(order.OrderNumber, category, used)
		if order.PhoneNumber != nil {
			phone := *order.PhoneNumber
			sub.PhoneNumber = &phone
		}
		out[category] = entity.CategoryReceipt{Order: sub, Category: category}
	}
	return out
}

// ticketNumber suffixes the parent number with the upper-cased category.
// Labels that differ only in case get -2, -3... so every ticket is distinct.
func ticketNumber(parent, category string, used map[string]bool) string {
	base := parent + "-" + strings.ToUpper(category)
	number := base
	for n := 2; used[number]; n++ {
		number = fmt.Sprintf("%s-%d", base, n)
	}
	used[number] = true
	return number
}

// CategoryOrder returns the split's categories in print order.
func CategoryOrder(split map[string]entity.CategoryReceipt) []string {
	keys := make([]string, 0, len(split))
	for k := range split {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DistinctCategories counts the categories an order spans.
func DistinctCategories(order *entity.Order) int {
	seen := make(map[string]struct{})
	for _, it := range order.Items {
		seen[CategoryOf(it)] = struct{}{}
	}
	return len(seen)
}
