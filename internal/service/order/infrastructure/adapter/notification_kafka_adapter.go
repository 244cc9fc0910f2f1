// internal/service/order/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/mq"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// NotificationKafkaAdapter 把订单生命周期事件投递到 Kafka，
// 实现 port.NotificationProducer。消息按 orderId 分区，
// 同一订单的事件保持有序。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

func (a *NotificationKafkaAdapter) PublishLifecycleEvent(ctx context.Context, event *domain.OrderLifecycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(event.OrderID), payload)
}

func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
