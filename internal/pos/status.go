package pos

import "fmt"

// OrderStatus is the business lifecycle of an order, independent of sync state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

var validOrderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderCompleted: true, OrderCancelled: true},
	OrderCompleted: {OrderRefunded: true},
	OrderCancelled: {},
	OrderRefunded:  {},
}

func CanTransitionOrder(from, to OrderStatus) bool {
	return validOrderNext[from][to]
}

func TransitionOrder(from, to OrderStatus) (OrderStatus, error) {
	if !CanTransitionOrder(from, to) {
		return from, fmt.Errorf("illegal order transition %s -> %s", from, to)
	}
	return to, nil
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderPending, OrderCompleted, OrderCancelled, OrderRefunded:
		return OrderStatus(s), true
	}
	return "", false
}
