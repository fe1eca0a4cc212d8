package enums

import "fmt"

// OrderState tracks the lifecycle of an order.
type OrderState string

const (
	OrderStateNew          OrderState = "new"
	OrderStatePaid         OrderState = "paid"
	OrderStateInProcessing OrderState = "in_processing"
	OrderStateCancelled    OrderState = "cancelled"
	OrderStateSent         OrderState = "sent"
	OrderStateDelivered    OrderState = "delivered"
	OrderStateComplete     OrderState = "complete"
)

var validOrderStates = []OrderState{
	OrderStateNew,
	OrderStatePaid,
	OrderStateInProcessing,
	OrderStateCancelled,
	OrderStateSent,
	OrderStateDelivered,
	OrderStateComplete,
}

// String implements fmt.Stringer.
func (o OrderState) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderState.
func (o OrderState) IsValid() bool {
	for _, candidate := range validOrderStates {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave the state.
func (o OrderState) IsTerminal() bool {
	return o == OrderStateComplete || o == OrderStateCancelled
}

// ParseOrderState converts raw input into an OrderState.
func ParseOrderState(value string) (OrderState, error) {
	for _, candidate := range validOrderStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order state %q", value)
}
