// internal/service/reporting/application/service.go
package application

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/reporting/port"
)

// InventoryOverview 是一次跨三个服务的汇总视图。
type InventoryOverview struct {
	AllStocks []port.StockRow    `json:"allStocks"`
	LowStocks []port.LowStockRow `json:"lowStocks"`
}

// ReportingApplicationService 是纯读的聚合层：对三个服务做扇出查询，
// 不落任何状态，编排逻辑之外没有一致性要求。
type ReportingApplicationService struct {
	orders   port.OrderReportSource
	stocks   port.StockReportSource
	products port.ProductReportSource
	tracer   trace.Tracer
}

func NewReportingApplicationService(
	orders port.OrderReportSource,
	stocks port.StockReportSource,
	products port.ProductReportSource,
	tracer trace.Tracer,
) *ReportingApplicationService {
	return &ReportingApplicationService{orders: orders, stocks: stocks, products: products, tracer: tracer}
}

// GetOrderReport 透传订单服务的日期范围报表。
func (s *ReportingApplicationService) GetOrderReport(ctx context.Context, start, end string) ([]port.OrderRow, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.GetOrderReport")
	defer span.End()
	return s.orders.FetchOrdersByDate(ctx, start, end)
}

// GetLowStocks 透传库存服务的低库存报表。
func (s *ReportingApplicationService) GetLowStocks(ctx context.Context) ([]port.LowStockRow, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.GetLowStocks")
	defer span.End()
	return s.stocks.FetchLowStocks(ctx)
}

// GetAllStocks 透传商品服务的全量库存视图。
func (s *ReportingApplicationService) GetAllStocks(ctx context.Context) ([]port.StockRow, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.GetAllStocks")
	defer span.End()
	return s.products.FetchOverallStocks(ctx)
}

// GetInventoryOverview 并发拉取全量库存与低库存两路视图。
// 任何一路失败整体失败，errgroup 会取消另一路。
func (s *ReportingApplicationService) GetInventoryOverview(ctx context.Context) (*InventoryOverview, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.GetInventoryOverview")
	defer span.End()

	var overview InventoryOverview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.products.FetchOverallStocks(gctx)
		if err != nil {
			return err
		}
		overview.AllStocks = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.stocks.FetchLowStocks(gctx)
		if err != nil {
			return err
		}
		overview.LowStocks = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
