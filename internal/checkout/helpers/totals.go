package helpers

import "sort"

// PricedLine is one repriced cart line before the discount is spread across lines.
type PricedLine struct {
	UnitPriceCents int
	Quantity       int
}

// SubtotalCents is the undiscounted line amount.
func (l PricedLine) SubtotalCents() int {
	return l.UnitPriceCents * l.Quantity
}

// Totals are the order-level amounts stored on an order.
type Totals struct {
	SubtotalCents    int
	DiscountCents    int
	ShippingFeeCents int
	FinalCents       int
}

// ComputeSubtotal sums the undiscounted amount of every line.
func ComputeSubtotal(lines []PricedLine) int {
	total := 0
	for _, line := range lines {
		total += line.SubtotalCents()
	}
	return total
}

// ComputeTotals derives the final amount. The discount is clamped to the subtotal.
func ComputeTotals(subtotal, discount, shipping int) Totals {
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	return Totals{
		SubtotalCents:    subtotal,
		DiscountCents:    discount,
		ShippingFeeCents: shipping,
		FinalCents:       subtotal - discount + shipping,
	}
}

// AllocateDiscount spreads discount across lines proportionally to their subtotal.
// Cents lost to truncation go to the lines with the largest remainders, so the
// result always sums to min(discount, subtotal).
func AllocateDiscount(lines []PricedLine, discount int) []int {
	out := make([]int, len(lines))
	subtotal := ComputeSubtotal(lines)
	if discount <= 0 || subtotal <= 0 {
		return out
	}
	if discount > subtotal {
		discount = subtotal
	}

	type remainder struct {
		index int
		value int
	}
	remainders := make([]remainder, 0, len(lines))
	allocated := 0
	for i, line := range lines {
		share := line.SubtotalCents() * discount
		out[i] = share / subtotal
		allocated += out[i]
		remainders = append(remainders, remainder{index: i, value: share % subtotal})
	}

	sort.SliceStable(remainders, func(a, b int) bool {
		return remainders[a].value > remainders[b].value
	})
	for i := 0; allocated < discount; i++ {
		out[remainders[i%len(remainders)].index]++
		allocated++
	}
	return out
}
