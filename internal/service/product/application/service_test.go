// internal/service/product/application/service_test.go
package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/infrastructure"
)

// fakeImporter 记录库存播种调用，可注入失败。
type fakeImporter struct {
	seeded map[int]int
	err    error
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{seeded: make(map[int]int)}
}

func (f *fakeImporter) SaveStock(_ context.Context, productID int, _ string, quantity int) error {
	if f.err != nil {
		return f.err
	}
	f.seeded[productID] = quantity
	return nil
}

func newService() (*application.ProductApplicationService, *infrastructure.MemoryProductRepository, *fakeImporter) {
	repo := infrastructure.NewMemoryProductRepository()
	importer := newFakeImporter()
	svc := application.NewProductApplicationService(repo, importer, otel.Tracer("product-test"))
	return svc, repo, importer
}

func seed(t *testing.T, repo *infrastructure.MemoryProductRepository, id int, name string, price float64, stock int) {
	t.Helper()
	err := repo.Save(context.Background(), &domain.Product{ProductID: id, Name: name, Price: price, StockLevel: stock})
	require.NoError(t, err)
}

func TestSaveProductSeedsStockRow(t *testing.T) {
	svc, _, importer := newService()

	p := &domain.Product{ProductID: 5, Name: "widget", Price: 9.5, StockLevel: 100}
	require.NoError(t, svc.SaveProduct(context.Background(), p))
	assert.Equal(t, 100, importer.seeded[5])
}

func TestSaveProductSurvivesSeedingFailure(t *testing.T) {
	svc, repo, importer := newService()
	importer.err = errors.New("stock service down")

	p := &domain.Product{ProductID: 5, Name: "widget", Price: 9.5, StockLevel: 100}
	require.NoError(t, svc.SaveProduct(context.Background(), p))

	// 商品本身已保存，库存行留待批量导入补齐
	stored, err := repo.FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "widget", stored.Name)
}

func TestSaveProductValidates(t *testing.T) {
	svc, _, _ := newService()
	err := svc.SaveProduct(context.Background(), &domain.Product{ProductID: 0, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestUpdateProductRequiresExisting(t *testing.T) {
	svc, repo, _ := newService()
	seed(t, repo, 5, "widget", 9.5, 100)

	err := svc.UpdateProduct(context.Background(), &domain.Product{ProductID: 6, Name: "ghost", Price: 1, StockLevel: 1})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	require.NoError(t, svc.UpdateProduct(context.Background(), &domain.Product{ProductID: 5, Name: "widget-2", Price: 8, StockLevel: 90}))
	stored, err := repo.FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "widget-2", stored.Name)
}

func TestDeleteProduct(t *testing.T) {
	svc, repo, _ := newService()
	seed(t, repo, 5, "widget", 9.5, 100)

	require.NoError(t, svc.DeleteProduct(context.Background(), 5))
	_, err := repo.FindByID(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), 5), domain.ErrProductNotFound)
}

func TestCheckAvailability(t *testing.T) {
	svc, repo, _ := newService()
	seed(t, repo, 5, "widget", 9.5, 100)

	avail, err := svc.CheckAvailability(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, avail.Exists)
	assert.Equal(t, 100, avail.Quantity)

	// 不存在返回 Exists=false，不是错误
	avail, err = svc.CheckAvailability(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, avail.Exists)
}

func TestUpdateQuantity(t *testing.T) {
	svc, repo, _ := newService()
	seed(t, repo, 5, "widget", 9.5, 100)

	require.NoError(t, svc.UpdateQuantity(context.Background(), 5, 70))
	stored, err := repo.FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 70, stored.StockLevel)

	assert.ErrorIs(t, svc.UpdateQuantity(context.Background(), 5, -1), domain.ErrInvalidProduct)
	assert.ErrorIs(t, svc.UpdateQuantity(context.Background(), 42, 10), domain.ErrProductNotFound)
}

func TestQueries(t *testing.T) {
	svc, repo, _ := newService()
	seed(t, repo, 1, "cheap", 2.0, 10)
	seed(t, repo, 2, "mid", 20.0, 0)
	seed(t, repo, 3, "dear", 200.0, 5)

	all, err := svc.GetAllProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// 只有库存大于零的商品可售
	available, err := svc.GetAvailableProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, available, 2)

	inRange, err := svc.GetProductsByPriceRange(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Len(t, inRange, 2)

	name, err := svc.GetProductName(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "dear", name)

	stocks, err := svc.GetOverallStocks(context.Background())
	require.NoError(t, err)
	require.Len(t, stocks, 3)
	assert.Equal(t, 1, stocks[0].ProductID)
	assert.Equal(t, 10, stocks[0].Quantity)

	quantities, err := svc.GetAllProductQuantities(context.Background())
	require.NoError(t, err)
	assert.Len(t, quantities, 3)
}
