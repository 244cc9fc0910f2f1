// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 全平台共用的业务指标。各服务通过 /metrics 暴露，注册在默认 Registry 上。
var (
	// OrdersCreated 按终态统计订单创建结果（accepted / rejected / failed / indeterminate）。
	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Number of order creation requests by terminal status.",
	}, []string{"status"})

	// ReservationConflicts 统计库存乐观锁的版本冲突重试次数。
	ReservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_reservation_conflicts_total",
		Help: "Number of optimistic-lock conflicts while mutating stock quantity.",
	})

	// RPCRetries 按目标服务统计 RPC 信封的重试次数。
	RPCRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_retries_total",
		Help: "Number of retried outbound calls by target service.",
	}, []string{"service"})

	// StockSyncFailures 统计本地账本已落库、但向商品服务传播失败的次数。
	// 每次失败都会留下 SyncPending 标记等待修复。
	StockSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_sync_failures_total",
		Help: "Number of failed quantity propagations to the product registry.",
	})

	// Compensations 统计订单 Saga 触发补偿（释放库存）的次数。
	Compensations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_saga_compensations_total",
		Help: "Number of compensating stock releases issued by the order saga.",
	})
)
