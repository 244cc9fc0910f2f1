// internal/service/stock/infrastructure/adapter/repair_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/mq"
)

// SyncRepairEvent 是双账本修复事件：某行库存已在本地生效，
// 但向商品服务的传播失败，需要后台重推。
type SyncRepairEvent struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// RepairKafkaAdapter 实现 port.RepairQueue，把修复事件写进 Kafka。
// 以 productId 为 key，同一商品的事件落在同一分区、按序消费。
type RepairKafkaAdapter struct {
	writer *kafka.Writer
}

func NewRepairKafkaAdapter(writer *kafka.Writer) *RepairKafkaAdapter {
	return &RepairKafkaAdapter{writer: writer}
}

func (a *RepairKafkaAdapter) EnqueueRepair(ctx context.Context, productID, quantity int) error {
	event := SyncRepairEvent{ProductID: productID, Quantity: quantity}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(strconv.Itoa(productID)), value)
}

// NopRepairQueue 在没有 Kafka 的环境下占位。
// SyncPending 标记仍会落库，修复只能依赖扫表任务。
type NopRepairQueue struct{}

func (NopRepairQueue) EnqueueRepair(context.Context, int, int) error { return nil }
