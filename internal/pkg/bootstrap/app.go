// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/config"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/nacos"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/tracing"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/utils"
)

// AppCtx 是交给各服务注册路由时的上下文。
type AppCtx struct {
	Mux    *http.ServeMux
	Config *config.Config
	Nacos  *nacos.Client // 未配置 Nacos 时为 nil
}

// Resolver 返回当前环境可用的服务发现器：
// 配置了 Nacos 时走注册中心，否则退回到配置文件里的静态地址表。
func (a AppCtx) Resolver() httpclient.Resolver {
	if a.Nacos != nil {
		return nacosResolver{a.Nacos}
	}
	return httpclient.StaticResolver(a.Config.Services)
}

type nacosResolver struct {
	client *nacos.Client
}

func (r nacosResolver) Resolve(serviceName string) (string, error) {
	ip, port, err := r.client.DiscoverServiceInstance(serviceName)
	if err != nil {
		return "", err
	}
	return ip + ":" + strconv.Itoa(port), nil
}

// AppInfo 描述启动一个微服务所需的信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在 HTTP 服务器关闭后执行，用于释放服务自己的资源（LIFO 之后）。
	OnShutdown func(ctx context.Context)
}

// StartService 封装所有微服务共同的启动与优雅关停流程。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)
	cfg := config.MustLoad("")

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. 服务注册（可选）
	var namingClient *nacos.Client
	var ip string
	if cfg.Infra.Nacos.ServerAddrs != "" {
		namingClient, err = nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		ip, err = utils.GetOutboundIP()
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := namingClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to register service with nacos")
		}
	} else {
		logger.Logger.Warn().Msg("Nacos is not configured, falling back to static service addresses")
	}

	// 3. HTTP Server
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg, Nacos: namingClient})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Logger.Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	// 4. 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger.Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 5. 清理顺序：先摘流量，再停服务器，最后刷掉追踪缓冲
	if namingClient != nil {
		if err := namingClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			logger.Logger.Error().Err(err).Msg("Error deregistering from Nacos")
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Error shutting down http server")
	}

	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}

	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Error shutting down tracer provider")
	}

	logger.Logger.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}
