// internal/service/order/domain/order.go
package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRequest 表示请求参数非法，任何 I/O 之前就被拒绝。
	ErrInvalidRequest = errors.New("invalid order request")
	// ErrProductNotFound 表示商品在目录中不存在。
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientQuantity 表示可用数量不足，业务上的明确拒绝。
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	// ErrUpstreamUnavailable 表示探测调用在重试耗尽后仍不可达。
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	// ErrReservationIndeterminate 表示预占调用超时重试耗尽，
	// 远端是否已扣减未知。订单不得提交，歧义必须向调用方暴露。
	ErrReservationIndeterminate = errors.New("stock reservation outcome indeterminate")
	// ErrOrderNotFound 表示查询的订单不存在。
	ErrOrderNotFound = errors.New("order not found")
	// ErrDateNotFound 表示报表日期范围落在已有数据之外。
	ErrDateNotFound = errors.New("no orders in the given date range")
	// ErrInvalidTransition 表示非法的状态迁移。
	ErrInvalidTransition = errors.New("invalid order state transition")
)

// Order 是订单聚合的根实体。
// OrderID 在创建时即分配，同时充当 Saga 的幂等令牌前缀。
type Order struct {
	OrderID    string
	CustomerID int
	ProductID  int
	Quantity   int
	Date       time.Time
	State      State
	// FailureReason 记录终态为 REJECTED / FAILED 时的原因码
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder 创建一个处于 PENDING 状态的订单实体。
func NewOrder(orderID string, customerID, productID, quantity int) (*Order, error) {
	if orderID == "" || productID == 0 || quantity <= 0 {
		return nil, ErrInvalidRequest
	}
	now := time.Now()
	return &Order{
		OrderID:    orderID,
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
		Date:       now,
		State:      StatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// transition 执行一次受迁移表保护的状态变更。
func (o *Order) transition(to State) error {
	if !CanTransition(o.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.State, to)
	}
	o.State = to
	o.UpdatedAt = time.Now()
	return nil
}

// BeginReservation 进入预占阶段。
func (o *Order) BeginReservation() error { return o.transition(StateReserving) }

// MarkReserved 记录库存预占成功。
func (o *Order) MarkReserved() error { return o.transition(StateReserved) }

// Accept 是唯一的成功终态入口，只能从 RESERVED 进入。
func (o *Order) Accept() error {
	if err := o.transition(StateAccepted); err != nil {
		return err
	}
	o.FailureReason = ""
	return nil
}

// Reject 记录一次业务拒绝。
func (o *Order) Reject(reason string) error {
	if err := o.transition(StateRejected); err != nil {
		return err
	}
	o.FailureReason = reason
	return nil
}

// Fail 记录一次流程失败。
func (o *Order) Fail(reason string) error {
	if err := o.transition(StateFailed); err != nil {
		return err
	}
	o.FailureReason = reason
	return nil
}

// BeginCompensation 在预占成功后提交失败时进入补偿阶段。
func (o *Order) BeginCompensation() error { return o.transition(StateCompensating) }

// AbortCommit 在 ACCEPTED 状态尚未成功落库时回退到补偿阶段。
// 持久化的 ACCEPTED 订单绝不会走这条路。
func (o *Order) AbortCommit() error {
	if o.State != StateAccepted {
		return fmt.Errorf("%w: abort commit from %s", ErrInvalidTransition, o.State)
	}
	o.State = StateCompensating
	o.UpdatedAt = time.Now()
	return nil
}

// MarkReleased 记录补偿完成，库存已归还。
func (o *Order) MarkReleased(reason string) error {
	if err := o.transition(StateReleased); err != nil {
		return err
	}
	o.FailureReason = reason
	return nil
}
