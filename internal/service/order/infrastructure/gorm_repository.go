// internal/service/order/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// AutoMigrate 建表，服务启动时调用。
func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&OrderModel{})
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	err := r.db.WithContext(ctx).Save(toModel(order)).Error
	return pkgerrors.Wrap(err, "save order")
}

func (r *GormOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, pkgerrors.Wrap(err, "find order")
	}
	return toDomain(&model), nil
}

func (r *GormOrderRepository) FindByCustomerID(ctx context.Context, customerID int) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list orders by customer")
	}
	return toDomainSlice(models), nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list orders")
	}
	return toDomainSlice(models), nil
}

func (r *GormOrderRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).Where("order_date BETWEEN ? AND ?", start, end).Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list orders by date range")
	}
	return toDomainSlice(models), nil
}

func (r *GormOrderRepository) UpdateState(ctx context.Context, orderID string, state domain.State) error {
	result := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("order_id = ?", orderID).
		Update("status", string(state))
	if result.Error != nil {
		return pkgerrors.Wrap(result.Error, "update order state")
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *GormOrderRepository) DateBounds(ctx context.Context) (time.Time, time.Time, error) {
	var bounds struct {
		Min *time.Time
		Max *time.Time
	}
	err := r.db.WithContext(ctx).Model(&OrderModel{}).
		Select("MIN(order_date) AS min, MAX(order_date) AS max").
		Scan(&bounds).Error
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Wrap(err, "query order date bounds")
	}
	if bounds.Min == nil || bounds.Max == nil {
		return time.Time{}, time.Time{}, domain.ErrDateNotFound
	}
	return *bounds.Min, *bounds.Max, nil
}

func toDomainSlice(models []OrderModel) []*domain.Order {
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		out = append(out, toDomain(&models[i]))
	}
	return out
}
