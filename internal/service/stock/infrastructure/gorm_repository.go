// internal/service/stock/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain"
)

// GormStockRepository 是 StockRepository 的 GORM 实现。
// 乐观锁通过 WHERE version = ? 的条件更新实现，不依赖数据库行锁。
type GormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&StockModel{}, &ReservationModel{})
}

func (r *GormStockRepository) FindByProductID(ctx context.Context, productID int) (*domain.Stock, error) {
	var model StockModel
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&model).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStockNotFound
		}
		return nil, pkgerrors.Wrap(err, "find stock")
	}
	return stockToDomain(&model), nil
}

func (r *GormStockRepository) Save(ctx context.Context, stock *domain.Stock) error {
	err := r.db.WithContext(ctx).Save(stockToModel(stock)).Error
	return pkgerrors.Wrap(err, "save stock")
}

func (r *GormStockRepository) UpdateWithVersion(ctx context.Context, stock *domain.Stock, expectedVersion uint64, record *domain.ReservationRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&StockModel{}).
			Where("product_id = ? AND version = ?", stock.ProductID, expectedVersion).
			Updates(map[string]interface{}{
				"quantity":     stock.Quantity,
				"sync_pending": stock.SyncPending,
				"version":      expectedVersion + 1,
			})
		if res.Error != nil {
			return pkgerrors.Wrap(res.Error, "update stock")
		}
		// 没有命中行：要么版本被并发推进，要么行不存在
		if res.RowsAffected == 0 {
			return domain.ErrVersionConflict
		}
		// 幂等记录与账本变更同事务落库。令牌唯一索引冲突会回滚整个
		// 事务，账本不会被同一令牌扣减两次。
		if record != nil {
			if err := tx.Create(reservationToModel(record)).Error; err != nil {
				return pkgerrors.Wrap(err, "save reservation")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	stock.Version = expectedVersion + 1
	return nil
}

func (r *GormStockRepository) FindAll(ctx context.Context) ([]*domain.Stock, error) {
	var models []StockModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list stocks")
	}
	out := make([]*domain.Stock, 0, len(models))
	for i := range models {
		out = append(out, stockToDomain(&models[i]))
	}
	return out, nil
}

func (r *GormStockRepository) MarkSyncPending(ctx context.Context, productID int, pending bool) error {
	err := r.db.WithContext(ctx).Model(&StockModel{}).
		Where("product_id = ?", productID).
		Update("sync_pending", pending).Error
	return pkgerrors.Wrap(err, "mark sync pending")
}

func (r *GormStockRepository) FindSyncPending(ctx context.Context) ([]*domain.Stock, error) {
	var models []StockModel
	if err := r.db.WithContext(ctx).Where("sync_pending = ?", true).Find(&models).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list sync-pending stocks")
	}
	out := make([]*domain.Stock, 0, len(models))
	for i := range models {
		out = append(out, stockToDomain(&models[i]))
	}
	return out, nil
}

// GormReservationRepository 是 ReservationRepository 的 GORM 实现。
// 只负责读取：记录的写入在 GormStockRepository.UpdateWithVersion 的事务里。
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) FindByToken(ctx context.Context, token string) (*domain.ReservationRecord, error) {
	var model ReservationModel
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&model).Error
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, pkgerrors.Wrap(err, "find reservation")
	}
	return &domain.ReservationRecord{
		Token:       model.Token,
		ProductID:   model.ProductID,
		Op:          domain.OpKind(model.Op),
		Amount:      model.Amount,
		NewQuantity: model.NewQuantity,
		AppliedAt:   model.AppliedAt,
	}, nil
}

func reservationToModel(record *domain.ReservationRecord) *ReservationModel {
	return &ReservationModel{
		Token:       record.Token,
		ProductID:   record.ProductID,
		Op:          string(record.Op),
		Amount:      record.Amount,
		NewQuantity: record.NewQuantity,
		AppliedAt:   record.AppliedAt,
	}
}
