package helpers

import (
	"testing"

	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

func TestComputeTotals(t *testing.T) {
	t.Parallel()
	lines := []PricedLine{{UnitPriceCents: 1000, Quantity: 2}}
	totals := ComputeTotals(ComputeSubtotal(lines), 0, 500)
	if totals.SubtotalCents != 2000 || totals.FinalCents != 2500 {
		t.Fatalf("unexpected totals %+v", totals)
	}

	clamped := ComputeTotals(1000, 5000, 300)
	if clamped.DiscountCents != 1000 || clamped.FinalCents != 300 {
		t.Fatalf("expected discount clamped to subtotal, got %+v", clamped)
	}
}

func TestAllocateDiscount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		lines    []PricedLine
		discount int
		want     []int
	}{
		{
			name:     "single line takes everything",
			lines:    []PricedLine{{UnitPriceCents: 1000, Quantity: 2}},
			discount: 200,
			want:     []int{200},
		},
		{
			name:     "proportional split",
			lines:    []PricedLine{{UnitPriceCents: 1000, Quantity: 3}, {UnitPriceCents: 1000, Quantity: 1}},
			discount: 400,
			want:     []int{300, 100},
		},
		{
			name:     "remainder goes to largest fraction",
			lines:    []PricedLine{{UnitPriceCents: 100, Quantity: 1}, {UnitPriceCents: 100, Quantity: 1}, {UnitPriceCents: 100, Quantity: 1}},
			discount: 100,
			want:     []int{34, 33, 33},
		},
		{
			name:     "no discount",
			lines:    []PricedLine{{UnitPriceCents: 100, Quantity: 1}},
			discount: 0,
			want:     []int{0},
		},
		{
			name:     "discount above subtotal is clamped",
			lines:    []PricedLine{{UnitPriceCents: 100, Quantity: 1}, {UnitPriceCents: 300, Quantity: 1}},
			discount: 1000,
			want:     []int{100, 300},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AllocateDiscount(tt.lines, tt.discount)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d allocations, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("allocation %d = %d, want %d (all %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestValidateGuestContact(t *testing.T) {
	t.Parallel()
	if err := ValidateGuestContact(Contact{Name: " Ana ", Email: "ANA@example.com "}); err != nil {
		t.Fatalf("expected valid contact, got %v", err)
	}

	invalid := []Contact{
		{},
		{Name: "Ana"},
		{Name: "Ana", Email: "not-an-email"},
		{Email: "ana@example.com"},
		{Name: "Ana", Email: "ana@example.com", Phone: "12"},
	}
	for _, c := range invalid {
		err := ValidateGuestContact(c)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", c, err)
		}
	}
}
