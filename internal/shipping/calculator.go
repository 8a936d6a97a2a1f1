package shipping

import (
	"fmt"
	"strings"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/config"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/enums"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/types"
)

// Calculator prices a shipment from a static fee table.
type Calculator struct {
	fees            map[enums.ShippingMethod]int
	freeThreshold   int
	remoteSurcharge int
	remoteRegions   map[string]struct{}
}

// NewCalculator builds a calculator from shipping configuration.
func NewCalculator(cfg config.ShippingConfig) *Calculator {
	regions := make(map[string]struct{})
	for _, r := range cfg.RemoteRegions() {
		regions[r] = struct{}{}
	}
	return &Calculator{
		fees: map[enums.ShippingMethod]int{
			enums.ShippingMethodStandard: cfg.StandardFeeCents,
			enums.ShippingMethodExpress:  cfg.ExpressFeeCents,
			enums.ShippingMethodPickup:   cfg.PickupFeeCents,
		},
		freeThreshold:   cfg.FreeThresholdCents,
		remoteSurcharge: cfg.RemoteSurchargeCents,
		remoteRegions:   regions,
	}
}

// ComputeFee returns the shipping fee in cents. subtotalCents is the discounted
// merchandise amount; when it reaches the free-shipping threshold standard shipping
// is free. Pickup never carries the remote surcharge.
func (c *Calculator) ComputeFee(address types.ShippingAddress, method enums.ShippingMethod, subtotalCents int) (int, error) {
	fee, ok := c.fees[method]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported shipping method %q", method))
	}
	if method == enums.ShippingMethodPickup {
		return fee, nil
	}
	if method == enums.ShippingMethodStandard && c.freeThreshold > 0 && subtotalCents >= c.freeThreshold {
		fee = 0
	}
	if _, remote := c.remoteRegions[strings.ToUpper(strings.TrimSpace(address.Region))]; remote {
		fee += c.remoteSurcharge
	}
	if fee < 0 {
		fee = 0
	}
	return fee, nil
}
