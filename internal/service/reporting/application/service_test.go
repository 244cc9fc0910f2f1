// internal/service/reporting/application/service_test.go
package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/reporting/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/reporting/port"
)

type fakeOrders struct {
	rows []port.OrderRow
	err  error
}

func (f *fakeOrders) FetchOrdersByDate(context.Context, string, string) ([]port.OrderRow, error) {
	return f.rows, f.err
}

type fakeStocks struct {
	rows []port.LowStockRow
	err  error
}

func (f *fakeStocks) FetchLowStocks(context.Context) ([]port.LowStockRow, error) {
	return f.rows, f.err
}

type fakeProducts struct {
	rows []port.StockRow
	err  error
}

func (f *fakeProducts) FetchOverallStocks(context.Context) ([]port.StockRow, error) {
	return f.rows, f.err
}

func newService(orders *fakeOrders, stocks *fakeStocks, products *fakeProducts) *application.ReportingApplicationService {
	return application.NewReportingApplicationService(orders, stocks, products, otel.Tracer("reporting-test"))
}

func TestGetOrderReport(t *testing.T) {
	orders := &fakeOrders{rows: []port.OrderRow{{OrderID: "o-1", ProductID: 5, Quantity: 10}}}
	svc := newService(orders, &fakeStocks{}, &fakeProducts{})

	rows, err := svc.GetOrderReport(context.Background(), "2026-01-01", "2026-01-31")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "o-1", rows[0].OrderID)
}

func TestGetInventoryOverviewFansOut(t *testing.T) {
	stocks := &fakeStocks{rows: []port.LowStockRow{{ProductID: 1, Quantity: 3}}}
	products := &fakeProducts{rows: []port.StockRow{
		{ProductID: 1, Quantity: 3},
		{ProductID: 2, Quantity: 80},
	}}
	svc := newService(&fakeOrders{}, stocks, products)

	overview, err := svc.GetInventoryOverview(context.Background())
	require.NoError(t, err)
	assert.Len(t, overview.AllStocks, 2)
	assert.Len(t, overview.LowStocks, 1)
}

func TestGetInventoryOverviewFailsWhenAnyBranchFails(t *testing.T) {
	stocks := &fakeStocks{err: errors.New("stock service down")}
	products := &fakeProducts{rows: []port.StockRow{{ProductID: 1}}}
	svc := newService(&fakeOrders{}, stocks, products)

	_, err := svc.GetInventoryOverview(context.Background())
	assert.Error(t, err)
}
