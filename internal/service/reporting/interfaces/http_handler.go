// internal/service/reporting/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/reporting/application"
)

// ReportHandler 封装报表服务的 HTTP 处理器。
type ReportHandler struct {
	service *application.ReportingApplicationService
	hub     *Hub
}

func NewReportHandler(service *application.ReportingApplicationService, hub *Hub) *ReportHandler {
	return &ReportHandler{service: service, hub: hub}
}

// RegisterRoutes 在 ServeMux 上注册业务路由。
// /healthz 与 /metrics 由 bootstrap 统一注册，这里不能重复占用。
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/report/getByDate/order/", h.orderReport)
	mux.HandleFunc("/api/report/getTheLowerStocks", h.lowStocks)
	mux.HandleFunc("/api/report/getAllStocks", h.allStocks)
	mux.HandleFunc("/api/report/overview", h.overview)
	mux.HandleFunc("/api/report/ws/lowStock", h.hub.ServeWS)
}

// orderReport 处理 GET /api/report/getByDate/order/{start}/{end}。
func (h *ReportHandler) orderReport(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/report/getByDate/order/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "expected /getByDate/order/{start}/{end}")
		return
	}
	rows, err := h.service.GetOrderReport(ctx, parts[0], parts[1])
	if err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ReportHandler) lowStocks(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	rows, err := h.service.GetLowStocks(ctx)
	if err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ReportHandler) allStocks(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	rows, err := h.service.GetAllStocks(ctx)
	if err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ReportHandler) overview(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	overview, err := h.service.GetInventoryOverview(ctx)
	if err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// writeUpstreamError 把上游调用失败透传为 502，保留对端的错误码。
func writeUpstreamError(ctx context.Context, w http.ResponseWriter, err error) {
	logger.Ctx(ctx).Warn().Err(err).Msg("upstream report query failed")
	writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
}
