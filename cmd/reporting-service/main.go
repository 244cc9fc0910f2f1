// cmd/reporting-service/main.go
package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/bootstrap"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/constants"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/reporting/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/reporting/infrastructure/adapter"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/reporting/interfaces"
)

// lowStockFeedInterval 是低库存实时推送的轮询间隔。
const lowStockFeedInterval = 30 * time.Second

var cancelBackground context.CancelFunc

// main 是报表服务的组装根：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.ReportingService,
		Port:        8084,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.ReportingService)
			rpcClient := httpclient.NewClient(tracer, appCtx.Resolver())

			service := application.NewReportingApplicationService(
				adapter.NewOrderHTTPAdapter(rpcClient),
				adapter.NewStockHTTPAdapter(rpcClient),
				adapter.NewProductHTTPAdapter(rpcClient),
				tracer,
			)

			ctx, cancel := context.WithCancel(context.Background())
			cancelBackground = cancel

			hub := interfaces.NewHub()
			go hub.Run(ctx)
			go interfaces.NewLowStockFeed(service, hub, lowStockFeedInterval).Run(ctx)

			interfaces.NewReportHandler(service, hub).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(context.Context) {
			if cancelBackground != nil {
				cancelBackground()
			}
		},
	})
}
