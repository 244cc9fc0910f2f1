// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// dateLayout 是报表接口的日期格式。
const dateLayout = "2006-01-02"

// OrderHandler 封装订单服务的 HTTP 处理器。
type OrderHandler struct {
	service *application.OrderApplicationService
}

func NewOrderHandler(service *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册业务路由。
// /healthz 与 /metrics 由 bootstrap 统一注册，这里不能重复占用。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/order/save", h.save)
	mux.HandleFunc("/api/order/getByOrderId/", h.getByOrderID)
	mux.HandleFunc("/api/order/getByCustomerId/", h.getByCustomerID)
	mux.HandleFunc("/api/order/getAll", h.getAll)
	mux.HandleFunc("/api/order/getByDate", h.getByDate)
	mux.HandleFunc("/api/order/updateStatus/", h.updateStatus)
}

// save 驱动一笔订单走完整个履约流程。
// 失败订单也带着终态与原因返回，调用方能看到被拒绝的订单号。
func (h *OrderHandler) save(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST")
		return
	}

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}

	result, err := h.service.CreateOrder(ctx, req)
	if err != nil {
		writeCreateError(ctx, w, result, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *OrderHandler) getByOrderID(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	orderID := trailing(r.URL.Path, "/api/order/getByOrderId/")
	result, err := h.service.GetByOrderID(ctx, orderID)
	if err != nil {
		writeQueryError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) getByCustomerID(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	customerID, err := strconv.Atoi(trailing(r.URL.Path, "/api/order/getByCustomerId/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "customerId must be an integer")
		return
	}
	results, err := h.service.GetByCustomerID(ctx, customerID)
	if err != nil {
		writeQueryError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *OrderHandler) getAll(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	results, err := h.service.GetAll(ctx)
	if err != nil {
		writeQueryError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// getByDate 返回下单日期落在给定范围内的订单报表。
func (h *OrderHandler) getByDate(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	var req application.DateRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "startDate must be yyyy-MM-dd")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "endDate must be yyyy-MM-dd")
		return
	}
	// 终点取当日末尾，范围闭合到整天
	end = end.Add(24*time.Hour - time.Nanosecond)

	results, err := h.service.GetOrderReportByDate(ctx, start, end)
	if err != nil {
		writeQueryError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// updateStatus 处理 POST /api/order/updateStatus/{orderId}/{status}。
func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	parts := strings.Split(trailing(r.URL.Path, "/api/order/updateStatus/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "expected /updateStatus/{orderId}/{status}")
		return
	}
	if err := h.service.UpdateStatus(ctx, parts[0], parts[1]); err != nil {
		writeQueryError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func trailing(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// writeCreateError 把下单失败映射到响应，附带订单的终态信息。
func writeCreateError(ctx context.Context, w http.ResponseWriter, result *application.OrderResult, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, domain.ErrProductNotFound):
		status, code = http.StatusNotFound, "PRODUCT_NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientQuantity):
		status, code = http.StatusConflict, "INSUFFICIENT_QUANTITY"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status, code = http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrReservationIndeterminate):
		status, code = http.StatusServiceUnavailable, "RESERVATION_INDETERMINATE"
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("unhandled error in order creation")
	}

	payload := map[string]interface{}{"error": code, "message": err.Error()}
	if result != nil {
		payload["order"] = result
	}
	writeJSON(w, status, payload)
}

func writeQueryError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrDateNotFound):
		writeError(w, http.StatusNotFound, "DATE_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("unhandled error in order query")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
