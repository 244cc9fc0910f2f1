// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是全局的 zerolog 实例，所有服务共用同一份配置。
var Logger zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
}

// Init 在服务启动时设置服务名等全局字段。
func Init(serviceName string) {
	Logger = Logger.With().Str("service", serviceName).Logger()
}

// Ctx 返回一个带上了链路追踪信息的 logger。
// 如果 ctx 中存在有效的 Span，会自动附加 trace_id / span_id 字段，
// 方便在日志系统中与 Jaeger 的链路进行关联。
func Ctx(ctx context.Context) *zerolog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return &Logger
	}
	l := Logger.With().
		Str("trace_id", spanCtx.TraceID().String()).
		Str("span_id", spanCtx.SpanID().String()).
		Logger()
	return &l
}
