package enums

import "fmt"

// OrderEvent names a lifecycle trigger applied to an order.
type OrderEvent string

const (
	OrderEventPaymentCompleted OrderEvent = "payment_completed"
	OrderEventProcess          OrderEvent = "process"
	OrderEventShip             OrderEvent = "ship"
	OrderEventDeliver          OrderEvent = "deliver"
	OrderEventConfirmDelivery  OrderEvent = "confirm_delivery"
	OrderEventCancel           OrderEvent = "cancel"
	OrderEventRefund           OrderEvent = "refund"
)

var validOrderEvents = []OrderEvent{
	OrderEventPaymentCompleted,
	OrderEventProcess,
	OrderEventShip,
	OrderEventDeliver,
	OrderEventConfirmDelivery,
	OrderEventCancel,
	OrderEventRefund,
}

// String implements fmt.Stringer.
func (o OrderEvent) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderEvent.
func (o OrderEvent) IsValid() bool {
	for _, candidate := range validOrderEvents {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderEvent converts raw input into a OrderEvent.
func ParseOrderEvent(value string) (OrderEvent, error) {
	for _, candidate := range validOrderEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order event %q", value)
}
