package orders

import "github.com/storiqateam/stq-orders/pkg/enums"

// nextStates lists the outgoing edges of the order lifecycle. cancelled is
// reachable from every non-terminal state; complete and cancelled have no
// outgoing edges.
var nextStates = map[enums.OrderState][]enums.OrderState{
	enums.OrderStateNew:          {enums.OrderStatePaid, enums.OrderStateCancelled},
	enums.OrderStatePaid:         {enums.OrderStateInProcessing, enums.OrderStateCancelled},
	enums.OrderStateInProcessing: {enums.OrderStateSent, enums.OrderStateCancelled},
	enums.OrderStateSent:         {enums.OrderStateDelivered, enums.OrderStateCancelled},
	enums.OrderStateDelivered:    {enums.OrderStateComplete, enums.OrderStateCancelled},
	enums.OrderStateComplete:     nil,
	enums.OrderStateCancelled:    nil,
}

// CanTransition reports whether the lifecycle allows moving from one state
// to another. Staying in the same state is not a transition.
func CanTransition(from, to enums.OrderState) bool {
	for _, candidate := range nextStates[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
