// internal/pkg/constants/constants.go
package constants

// 逻辑服务名，同时也是 Nacos 中的注册名。
const (
	ProductService   = "product-service"
	StockService     = "stock-service"
	OrderService     = "order-service"
	ReportingService = "reporting-service"
)

// 库存服务的调用路径。
const (
	StockReservePath  = "/api/stock/reserve"
	StockReleasePath  = "/api/stock/release"
	StockSavePath     = "/api/stock/save"
	StockLowStockPath = "/api/stock/low-stock-report"
)

// 商品服务的调用路径。
const (
	ProductAvailabilityPath   = "/api/product/checkAvailability"
	ProductUpdateQuantityPath = "/api/product/updateQuantity"
	ProductOverallStocksPath  = "/api/product/getAll"
)

// 订单服务的调用路径。
const (
	OrderReportPath = "/api/order/getByDate"
)
