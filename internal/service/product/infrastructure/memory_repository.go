// internal/service/product/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/domain"
)

// MemoryProductRepository 是 ProductRepository 的内存实现，用于测试和本地运行。
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[int]domain.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[int]domain.Product)}
}

func (r *MemoryProductRepository) Save(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ProductID] = *product
	return nil
}

func (r *MemoryProductRepository) FindByID(_ context.Context, productID int) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (r *MemoryProductRepository) ExistsByID(_ context.Context, productID int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.products[productID]
	return ok, nil
}

func (r *MemoryProductRepository) DeleteByID(_ context.Context, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, productID)
	return nil
}

func (r *MemoryProductRepository) FindAll(_ context.Context) ([]*domain.Product, error) {
	return r.filter(func(domain.Product) bool { return true }), nil
}

func (r *MemoryProductRepository) FindAvailable(_ context.Context) ([]*domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.StockLevel > 0 }), nil
}

func (r *MemoryProductRepository) FindByPriceRange(_ context.Context, low, high float64) ([]*domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.Price >= low && p.Price <= high }), nil
}

func (r *MemoryProductRepository) UpdateStockLevel(_ context.Context, productID, stockLevel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.StockLevel = stockLevel
	r.products[productID] = p
	return nil
}

func (r *MemoryProductRepository) filter(keep func(domain.Product) bool) []*domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
