// internal/service/stock/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain"
)

// MemoryStockRepository 是 StockRepository 的内存实现，同时也提供
// ReservationRepository：账本行和幂等记录在同一把锁下一起写入，
// 与 GORM 实现的事务语义一致。并发测试直接跑在它上面。
type MemoryStockRepository struct {
	mu      sync.RWMutex
	stocks  map[int]domain.Stock
	records map[string]domain.ReservationRecord
}

func NewMemoryStockRepository() *MemoryStockRepository {
	return &MemoryStockRepository{
		stocks:  make(map[int]domain.Stock),
		records: make(map[string]domain.ReservationRecord),
	}
}

func (r *MemoryStockRepository) FindByProductID(_ context.Context, productID int) (*domain.Stock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stocks[productID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	return &s, nil
}

func (r *MemoryStockRepository) Save(_ context.Context, stock *domain.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[stock.ProductID] = *stock
	return nil
}

func (r *MemoryStockRepository) UpdateWithVersion(_ context.Context, stock *domain.Stock, expectedVersion uint64, record *domain.ReservationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.stocks[stock.ProductID]
	if !ok || existing.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	stock.Version = expectedVersion + 1
	r.stocks[stock.ProductID] = *stock
	if record != nil {
		r.records[record.Token] = *record
	}
	return nil
}

func (r *MemoryStockRepository) FindByToken(_ context.Context, token string) (*domain.ReservationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[token]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return &rec, nil
}

func (r *MemoryStockRepository) FindAll(_ context.Context) ([]*domain.Stock, error) {
	return r.filter(func(domain.Stock) bool { return true }), nil
}

func (r *MemoryStockRepository) MarkSyncPending(_ context.Context, productID int, pending bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stocks[productID]
	if !ok {
		return domain.ErrStockNotFound
	}
	s.SyncPending = pending
	r.stocks[productID] = s
	return nil
}

func (r *MemoryStockRepository) FindSyncPending(_ context.Context) ([]*domain.Stock, error) {
	return r.filter(func(s domain.Stock) bool { return s.SyncPending }), nil
}

func (r *MemoryStockRepository) filter(keep func(domain.Stock) bool) []*domain.Stock {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Stock, 0, len(r.stocks))
	for _, s := range r.stocks {
		if keep(s) {
			cp := s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

