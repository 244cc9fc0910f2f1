// cmd/stock-service/main.go
package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/bootstrap"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/constants"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/mq"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/zookeeper"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain/port"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/infrastructure"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/infrastructure/adapter"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/infrastructure/locking"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/infrastructure/rule"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/interfaces"
)

// cleanup 收集启动过程中注册的资源释放函数。
var cleanup []func()

// main 是库存服务的组装根：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      constants.StockService,
		Port:             8083,
		RegisterHandlers: registerStockService,
		OnShutdown: func(context.Context) {
			for _, fn := range cleanup {
				fn()
			}
		},
	})
}

func registerStockService(appCtx bootstrap.AppCtx) {
	cfg := appCtx.Config
	tracer := otel.Tracer(constants.StockService)

	// 仓储：未配置 MySQL 时退回内存实现，本地联调不需要数据库
	var stockRepo domain.StockRepository
	var reservationRepo domain.ReservationRepository
	if dsn := cfg.Infra.Mysql.DSN; dsn != "" {
		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
		}
		gormRepo := infrastructure.NewGormStockRepository(db)
		if err := gormRepo.AutoMigrate(); err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to migrate stock schema")
		}
		stockRepo = gormRepo
		reservationRepo = infrastructure.NewGormReservationRepository(db)
	} else {
		logger.Logger.Warn().Msg("MySQL is not configured, using in-memory stock repository")
		// 内存实现同时承担账本与幂等记录：两者在同一把锁下一起写入
		memRepo := infrastructure.NewMemoryStockRepository()
		stockRepo = memRepo
		reservationRepo = memRepo
	}

	// 锁：多实例部署配置 Zookeeper，单实例走进程内按键互斥锁
	var locker port.Locker
	if servers := cfg.Infra.Zookeeper.Servers; len(servers) > 0 {
		conn, err := zookeeper.Connect(servers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		locker = locking.NewZkLocker(conn)
	} else {
		locker = locking.NewKeyedMutex()
	}

	lowRule, err := rule.NewCELReorderRule(cfg.App.LowStockRule)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("invalid low-stock rule expression")
	}

	rpcClient := httpclient.NewClient(tracer, appCtx.Resolver())
	products := adapter.NewProductHTTPAdapter(rpcClient)

	// 同步修复通道：传播失败的行进 Kafka
	var repair port.RepairQueue = adapter.NopRepairQueue{}
	brokers := cfg.Infra.Kafka.Brokers
	if len(brokers) > 0 {
		writer := mq.NewWriter(brokers, cfg.Infra.Kafka.StockRepairTopic)
		repair = adapter.NewRepairKafkaAdapter(writer)
		cleanup = append(cleanup, func() { writer.Close() })
	} else {
		logger.Logger.Warn().Msg("Kafka is not configured, sync repair events will not be queued")
	}

	service := application.NewStockApplicationService(
		stockRepo, reservationRepo, products, repair, locker, lowRule,
		tracer, cfg.App.DefaultReorderLevel,
	)

	// 修复消费者：重推传播失败的行
	if len(brokers) > 0 {
		reader := mq.NewReader(brokers, cfg.Infra.Kafka.StockRepairTopic, cfg.Infra.Kafka.StockRepairGroup)
		consumer := interfaces.NewRepairConsumer(reader, service)
		consumerCtx, cancel := context.WithCancel(context.Background())
		go consumer.Start(consumerCtx)
		cleanup = append(cleanup, func() {
			cancel()
			consumer.Close()
		})
	}

	interfaces.NewStockHandler(service).RegisterRoutes(appCtx.Mux)
}
