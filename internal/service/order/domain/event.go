// internal/service/order/domain/event.go
package domain

import "time"

// OrderLifecycleEvent 是订单到达终态时发布的事件，
// 投递到订单事件主题供下游（通知、报表）消费。
type OrderLifecycleEvent struct {
	EventID    string    `json:"eventId"`
	OrderID    string    `json:"orderId"`
	CustomerID int       `json:"customerId"`
	ProductID  int       `json:"productId"`
	Quantity   int       `json:"quantity"`
	State      State     `json:"state"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
