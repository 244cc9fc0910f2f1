// internal/service/product/application/service.go
package application

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/port"
)

// ProductApplicationService 承载商品目录的业务用例。
type ProductApplicationService struct {
	repo     domain.ProductRepository
	importer port.StockImporter
	tracer   trace.Tracer
}

func NewProductApplicationService(repo domain.ProductRepository, importer port.StockImporter, tracer trace.Tracer) *ProductApplicationService {
	return &ProductApplicationService{repo: repo, importer: importer, tracer: tracer}
}

// SaveProduct 新建商品，并向库存服务播种对应的影子库存行。
func (s *ProductApplicationService) SaveProduct(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "product.SaveProduct")
	defer span.End()

	if err := product.Validate(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, product); err != nil {
		span.RecordError(err)
		return err
	}

	// 库存行播种失败不回滚商品本身：库存服务可以随后通过 /import 批量补齐。
	if err := s.importer.SaveStock(ctx, product.ProductID, product.Name, product.StockLevel); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock seeding failed")
		logger.Ctx(ctx).Warn().Err(err).Int("productId", product.ProductID).
			Msg("product saved but stock row seeding failed")
	}
	return nil
}

// UpdateProduct 更新已存在的商品，不允许借更新接口创建新商品。
func (s *ProductApplicationService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "product.UpdateProduct")
	defer span.End()

	if err := product.Validate(); err != nil {
		return err
	}
	exists, err := s.repo.ExistsByID(ctx, product.ProductID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrProductNotFound
	}
	return s.repo.Save(ctx, product)
}

// DeleteProduct 删除商品。
func (s *ProductApplicationService) DeleteProduct(ctx context.Context, productID int) error {
	ctx, span := s.tracer.Start(ctx, "product.DeleteProduct")
	defer span.End()

	exists, err := s.repo.ExistsByID(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrProductNotFound
	}
	return s.repo.DeleteByID(ctx, productID)
}

// GetAllProducts 返回全部商品。
func (s *ProductApplicationService) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.FindAll(ctx)
}

// GetAvailableProducts 返回库存大于零的商品。
func (s *ProductApplicationService) GetAvailableProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.FindAvailable(ctx)
}

// GetProductName 返回商品名。
func (s *ProductApplicationService) GetProductName(ctx context.Context, productID int) (string, error) {
	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// GetProductsByPriceRange 返回价格区间内的商品。
func (s *ProductApplicationService) GetProductsByPriceRange(ctx context.Context, low, high float64) ([]*domain.Product, error) {
	return s.repo.FindByPriceRange(ctx, low, high)
}

// CheckAvailability 是订单编排的存在性 + 数量探测。
// 商品不存在时返回 Exists=false 而不是错误，让调用方自行区分失败原因。
func (s *ProductApplicationService) CheckAvailability(ctx context.Context, productID int) (*domain.Availability, error) {
	ctx, span := s.tracer.Start(ctx, "product.CheckAvailability")
	defer span.End()

	p, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return &domain.Availability{ProductID: productID, Exists: false}, nil
		}
		span.RecordError(err)
		return nil, err
	}
	return &domain.Availability{ProductID: productID, Exists: true, Quantity: p.StockLevel}, nil
}

// UpdateQuantity 是库存服务同步数量的落点，把账本数量写回目录读模型。
func (s *ProductApplicationService) UpdateQuantity(ctx context.Context, productID, quantity int) error {
	ctx, span := s.tracer.Start(ctx, "product.UpdateQuantity")
	defer span.End()

	if quantity < 0 {
		return domain.ErrInvalidProduct
	}
	exists, err := s.repo.ExistsByID(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrProductNotFound
	}
	return s.repo.UpdateStockLevel(ctx, productID, quantity)
}

// GetOverallStocks 返回所有商品的 {id, name, quantity} 视图，供库存服务批量导入。
func (s *ProductApplicationService) GetOverallStocks(ctx context.Context) ([]OverallStock, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]OverallStock, 0, len(products))
	for _, p := range products {
		out = append(out, OverallStock{ProductID: p.ProductID, Name: p.Name, Quantity: p.StockLevel})
	}
	return out, nil
}

// GetAllProductQuantities 返回所有商品的数量视图。
func (s *ProductApplicationService) GetAllProductQuantities(ctx context.Context) ([]ProductQuantity, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductQuantity, 0, len(products))
	for _, p := range products {
		out = append(out, ProductQuantity{ProductID: p.ProductID, Quantity: p.StockLevel})
	}
	return out, nil
}
