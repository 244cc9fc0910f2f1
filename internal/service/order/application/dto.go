// internal/service/order/application/dto.go
package application

import "time"

// CreateOrderRequest 是下单请求。CustomerID 为 0 时由序列签发。
type CreateOrderRequest struct {
	ProductID  int `json:"productId"`
	Quantity   int `json:"quantity"`
	CustomerID int `json:"customerId,omitempty"`
}

// OrderResult 是下单应答。
type OrderResult struct {
	OrderID    string    `json:"orderId"`
	CustomerID int       `json:"customerId"`
	ProductID  int       `json:"productId"`
	Quantity   int       `json:"quantity"`
	Status     string    `json:"status"`
	Date       time.Time `json:"date"`
}

// DateRangeRequest 是按日期范围拉取订单报表的请求。
type DateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
