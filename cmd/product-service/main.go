// cmd/product-service/main.go
package main

import (
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/bootstrap"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/constants"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/infrastructure"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/infrastructure/adapter"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/interfaces"
)

// main 是商品服务的组装根：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.ProductService,
		Port:        8082,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.ProductService)

			// 未配置 MySQL 时退回内存仓储，本地联调不需要数据库
			var repo domain.ProductRepository
			if dsn := appCtx.Config.Infra.Mysql.DSN; dsn != "" {
				db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
				if err != nil {
					logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
				}
				gormRepo := infrastructure.NewGormProductRepository(db)
				if err := gormRepo.AutoMigrate(); err != nil {
					logger.Logger.Fatal().Err(err).Msg("failed to migrate product schema")
				}
				repo = gormRepo
			} else {
				logger.Logger.Warn().Msg("MySQL is not configured, using in-memory product repository")
				repo = infrastructure.NewMemoryProductRepository()
			}

			rpcClient := httpclient.NewClient(tracer, appCtx.Resolver())
			importer := adapter.NewStockHTTPAdapter(rpcClient)

			service := application.NewProductApplicationService(repo, importer, tracer)
			interfaces.NewProductHandler(service).RegisterRoutes(appCtx.Mux)
		},
	})
}
