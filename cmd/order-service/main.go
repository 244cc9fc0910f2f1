// cmd/order-service/main.go
package main

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/bootstrap"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/constants"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/mq"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/redis"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain/port"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/infrastructure"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/infrastructure/adapter"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/interfaces"
)

// orderProcessingTimeout 是单个订单履约流程的超时上限。
const orderProcessingTimeout = 30 * time.Second

var cleanup []func()

// main 是订单服务的组装根：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      constants.OrderService,
		Port:             8081,
		RegisterHandlers: registerOrderService,
		OnShutdown: func(context.Context) {
			for _, fn := range cleanup {
				fn()
			}
		},
	})
}

func registerOrderService(appCtx bootstrap.AppCtx) {
	cfg := appCtx.Config
	tracer := otel.Tracer(constants.OrderService)

	var repo domain.OrderRepository
	if dsn := cfg.Infra.Mysql.DSN; dsn != "" {
		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
		}
		gormRepo := infrastructure.NewGormOrderRepository(db)
		if err := gormRepo.AutoMigrate(); err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to migrate order schema")
		}
		repo = gormRepo
	} else {
		logger.Logger.Warn().Msg("MySQL is not configured, using in-memory order repository")
		repo = infrastructure.NewMemoryOrderRepository()
	}

	rpcClient := httpclient.NewClient(tracer, appCtx.Resolver())
	products := adapter.NewProductHTTPAdapter(rpcClient)
	stocks := adapter.NewStockHTTPAdapter(rpcClient)

	// 生命周期事件：没有 Kafka 时静默丢弃
	var notifier port.NotificationProducer = nopNotifier{}
	if brokers := cfg.Infra.Kafka.Brokers; len(brokers) > 0 {
		writer := mq.NewWriter(brokers, cfg.Infra.Kafka.OrderEventsTopic)
		kafkaNotifier := adapter.NewNotificationKafkaAdapter(writer)
		notifier = kafkaNotifier
		cleanup = append(cleanup, func() { kafkaNotifier.Close() })
	} else {
		logger.Logger.Warn().Msg("Kafka is not configured, order lifecycle events will be dropped")
	}

	// 客户编号：Redis 序列保证多实例不重号；
	// 没有 Redis 时退回进程内计数器，只适合单实例本地联调
	var idgen port.CustomerIDGenerator = &localIDGenerator{}
	if addr := cfg.Infra.Redis.Addr; addr != "" {
		client, err := redis.NewClient(context.Background(), addr)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		idgen = adapter.NewRedisCustomerIDAdapter(client)
		cleanup = append(cleanup, func() { client.Close() })
	} else {
		logger.Logger.Warn().Msg("Redis is not configured, customer ids are process-local")
	}

	service := application.NewOrderApplicationService(
		repo, products, stocks, notifier, idgen, tracer, orderProcessingTimeout,
	)
	interfaces.NewOrderHandler(service).RegisterRoutes(appCtx.Mux)
}

type nopNotifier struct{}

func (nopNotifier) PublishLifecycleEvent(context.Context, *domain.OrderLifecycleEvent) error {
	return nil
}

type localIDGenerator struct{ counter int64 }

func (g *localIDGenerator) NextCustomerID(context.Context) (int, error) {
	return int(atomic.AddInt64(&g.counter, 1)), nil
}
