// internal/service/stock/interfaces/repair_consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/mq"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/infrastructure/adapter"
)

// RepairConsumer 消费双账本修复事件，重推 SyncPending 的库存行。
// 这是传播失败后的异步修补通道；仍然失败的行保留标记，等待下一次事件
// 或扫表任务再次驱动。
type RepairConsumer struct {
	reader *kafka.Reader
	appSvc *application.StockApplicationService
	wg     sync.WaitGroup
}

func NewRepairConsumer(reader *kafka.Reader, appSvc *application.StockApplicationService) *RepairConsumer {
	return &RepairConsumer{reader: reader, appSvc: appSvc}
}

// Start 启动消费循环，ctx 取消后退出。
func (c *RepairConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Logger.Info().Str("topic", c.reader.Config().Topic).Msg("sync repair consumer started")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Logger.Info().Msg("sync repair consumer shutting down")
					return
				}
				logger.Logger.Error().Err(err).Msg("failed to fetch repair message")
				continue
			}

			msgCtx := mq.ExtractContext(ctx, &msg)
			var event adapter.SyncRepairEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Ctx(msgCtx).Error().Err(err).Msg("malformed repair event, skipping")
				c.commit(ctx, msg)
				continue
			}

			if err := c.appSvc.RepairSync(msgCtx, event.ProductID); err != nil {
				// 不提交位移，消息会被重新投递
				logger.Ctx(msgCtx).Warn().Err(err).Int("productId", event.ProductID).
					Msg("sync repair attempt failed, will retry")
				continue
			}
			c.commit(ctx, msg)
		}
	}()
}

func (c *RepairConsumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		logger.Logger.Error().Err(err).Msg("failed to commit repair message offset")
	}
}

// Close 等待消费循环退出并关闭 reader。
func (c *RepairConsumer) Close() error {
	c.wg.Wait()
	return c.reader.Close()
}
