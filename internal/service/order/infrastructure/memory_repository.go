// internal/service/order/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// MemoryOrderRepository 是 OrderRepository 的内存实现，测试与本地运行使用。
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]domain.Order)}
}

func (r *MemoryOrderRepository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.OrderID] = *order
	return nil
}

func (r *MemoryOrderRepository) FindByOrderID(_ context.Context, orderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (r *MemoryOrderRepository) FindByCustomerID(_ context.Context, customerID int) ([]*domain.Order, error) {
	return r.filter(func(o domain.Order) bool { return o.CustomerID == customerID }), nil
}

func (r *MemoryOrderRepository) FindAll(_ context.Context) ([]*domain.Order, error) {
	return r.filter(func(domain.Order) bool { return true }), nil
}

func (r *MemoryOrderRepository) FindByDateRange(_ context.Context, start, end time.Time) ([]*domain.Order, error) {
	return r.filter(func(o domain.Order) bool {
		return !o.Date.Before(start) && !o.Date.After(end)
	}), nil
}

func (r *MemoryOrderRepository) UpdateState(_ context.Context, orderID string, state domain.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.State = state
	o.UpdatedAt = time.Now()
	r.orders[orderID] = o
	return nil
}

func (r *MemoryOrderRepository) DateBounds(_ context.Context) (time.Time, time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.orders) == 0 {
		return time.Time{}, time.Time{}, domain.ErrDateNotFound
	}
	var min, max time.Time
	first := true
	for _, o := range r.orders {
		if first || o.Date.Before(min) {
			min = o.Date
		}
		if first || o.Date.After(max) {
			max = o.Date
		}
		first = false
	}
	return min, max, nil
}

func (r *MemoryOrderRepository) filter(keep func(domain.Order) bool) []*domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			cp := o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
