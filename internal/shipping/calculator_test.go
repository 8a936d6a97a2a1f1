package shipping

import (
	"testing"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/config"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

func TestComputeFee(t *testing.T) {
	calc := NewCalculator(config.ShippingConfig{
		StandardFeeCents:     500,
		ExpressFeeCents:      1500,
		PickupFeeCents:       0,
		FreeThresholdCents:   10000,
		RemoteSurchargeCents: 700,
		RemoteRegionsCSV:     "ak, hi",
	})
	mainland := types.ShippingAddress{Region: "CA"}
	remote := types.ShippingAddress{Region: "hi"}

	cases := []struct {
		name     string
		address  types.ShippingAddress
		method   enums.ShippingMethod
		subtotal int
		want     int
	}{
		{"standard", mainland, enums.ShippingMethodStandard, 2000, 500},
		{"standard free over threshold", mainland, enums.ShippingMethodStandard, 10000, 0},
		{"express never free", mainland, enums.ShippingMethodExpress, 20000, 1500},
		{"pickup", remote, enums.ShippingMethodPickup, 100, 0},
		{"remote surcharge", remote, enums.ShippingMethodStandard, 2000, 1200},
		{"remote surcharge on free shipping", remote, enums.ShippingMethodStandard, 50000, 700},
	}
	for _, tc := range cases {
		got, err := calc.ComputeFee(tc.address, tc.method, tc.subtotal)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}

func TestComputeFeeRejectsUnknownMethod(t *testing.T) {
	calc := NewCalculator(config.ShippingConfig{StandardFeeCents: 500})
	_, err := calc.ComputeFee(types.ShippingAddress{}, enums.ShippingMethod("drone"), 100)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
