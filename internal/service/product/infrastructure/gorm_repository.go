// internal/service/product/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/domain"
)

// GormProductRepository 是 ProductRepository 的 GORM 实现。
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// AutoMigrate 建表，服务启动时调用。
func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&ProductModel{})
}

func (r *GormProductRepository) Save(ctx context.Context, product *domain.Product) error {
	err := r.db.WithContext(ctx).Save(toModel(product)).Error
	return pkgerrors.Wrap(err, "save product")
}

func (r *GormProductRepository) FindByID(ctx context.Context, productID int) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&model).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(err, "find product")
	}
	return toDomain(&model), nil
}

func (r *GormProductRepository) ExistsByID(ctx context.Context, productID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ProductModel{}).Where("product_id = ?", productID).Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(err, "count product")
	}
	return count > 0, nil
}

func (r *GormProductRepository) DeleteByID(ctx context.Context, productID int) error {
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&ProductModel{}).Error
	return pkgerrors.Wrap(err, "delete product")
}

func (r *GormProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list products")
	}
	return toDomainSlice(models), nil
}

func (r *GormProductRepository) FindAvailable(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	if err := r.db.WithContext(ctx).Where("stock_level > ?", 0).Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list available products")
	}
	return toDomainSlice(models), nil
}

func (r *GormProductRepository) FindByPriceRange(ctx context.Context, low, high float64) ([]*domain.Product, error) {
	var models []ProductModel
	err := r.db.WithContext(ctx).Where("price BETWEEN ? AND ?", low, high).Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list products by price range")
	}
	return toDomainSlice(models), nil
}

func (r *GormProductRepository) UpdateStockLevel(ctx context.Context, productID, stockLevel int) error {
	err := r.db.WithContext(ctx).Model(&ProductModel{}).
		Where("product_id = ?", productID).
		Update("stock_level", stockLevel).Error
	return pkgerrors.Wrap(err, "update stock level")
}

func toDomainSlice(models []ProductModel) []*domain.Product {
	out := make([]*domain.Product, 0, len(models))
	for i := range models {
		out = append(out, toDomain(&models[i]))
	}
	return out
}
