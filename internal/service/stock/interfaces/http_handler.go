// internal/service/stock/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain"
)

const serviceName = "stock-service"

// StockHandler 封装库存服务的 HTTP 处理器。
type StockHandler struct {
	service *application.StockApplicationService
}

func NewStockHandler(service *application.StockApplicationService) *StockHandler {
	return &StockHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册业务路由。
// /healthz 与 /metrics 由 bootstrap 统一注册，这里不能重复占用。
func (h *StockHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stock/reserve", h.reserve)
	mux.HandleFunc("/api/stock/release", h.release)
	mux.HandleFunc("/api/stock/save", h.saveStock)
	mux.HandleFunc("/api/stock/import", h.importFromProducts)
	mux.HandleFunc("/api/stock/low-stock-report", h.lowStockReport)
	mux.HandleFunc("/api/stock/send-stock-report", h.sendLowStockReport)
	mux.HandleFunc("/api/stock/", h.stockByID) // GET /{productId}, PUT /{productId}/increase
}

// mutationRequest 是 Reserve / Release 的请求体。
// 幂等令牌既可以放在请求体里，也可以放在 X-Idempotency-Token 头里。
type mutationRequest struct {
	ProductID        int    `json:"productId"`
	Quantity         int    `json:"quantity"`
	IdempotencyToken string `json:"idempotencyToken,omitempty"`
}

type mutationResponse struct {
	ProductID   int `json:"productId"`
	NewQuantity int `json:"newQuantity"`
}

func (h *StockHandler) reserve(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "stock-service.Reserve", h.service.Reserve)
}

func (h *StockHandler) release(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, "stock-service.Release", h.service.Release)
}

func (h *StockHandler) mutation(w http.ResponseWriter, r *http.Request, spanName string,
	apply func(ctx context.Context, productID, amount int, token string) (int, error)) {
	ctx := extract(r)
	ctx, span := otel.Tracer(serviceName).Start(ctx, spanName)
	defer span.End()

	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}
	token := req.IdempotencyToken
	if token == "" {
		token = r.Header.Get(httpclient.IdempotencyHeader)
	}

	newQuantity, err := apply(ctx, req.ProductID, req.Quantity, token)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{ProductID: req.ProductID, NewQuantity: newQuantity})
}

// stockByID 处理 GET /api/stock/{productId} 与 PUT /api/stock/{productId}/increase。
func (h *StockHandler) stockByID(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	rest := strings.TrimPrefix(r.URL.Path, "/api/stock/")
	parts := strings.Split(rest, "/")

	productID, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "productId must be an integer")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		stock, err := h.service.GetStockByProductID(ctx, productID)
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStockDTO(stock))

	case len(parts) == 2 && parts[1] == "increase" && r.Method == http.MethodPut:
		ctx, span := otel.Tracer(serviceName).Start(ctx, "stock-service.Restock")
		defer span.End()

		var body struct {
			Amount int `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
			return
		}
		newQuantity, err := h.service.Restock(ctx, productID, body.Amount, r.Header.Get(httpclient.IdempotencyHeader))
		if err != nil {
			writeDomainError(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, mutationResponse{ProductID: productID, NewQuantity: newQuantity})

	default:
		http.NotFound(w, r)
	}
}

func (h *StockHandler) saveStock(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	var row domain.ImportRow
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}
	if err := h.service.SaveStock(ctx, row); err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "saved successfully"})
}

func (h *StockHandler) importFromProducts(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	count, err := h.service.ImportFromProducts(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

type stockDTO struct {
	ProductID    int    `json:"productId"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorderLevel"`
	SyncPending  bool   `json:"syncPending"`
}

func (h *StockHandler) lowStockReport(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	stocks, err := h.service.GetLowStockItems(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	out := make([]stockDTO, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, toStockDTO(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// sendLowStockReport 返回报表服务使用的精简视图。
func (h *StockHandler) sendLowStockReport(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	stocks, err := h.service.GetLowStockItems(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	type lowStockDTO struct {
		ProductID int    `json:"productId"`
		Name      string `json:"name"`
		Quantity  int    `json:"quantity"`
	}
	out := make([]lowStockDTO, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, lowStockDTO{ProductID: s.ProductID, Name: s.Name, Quantity: s.Quantity})
	}
	writeJSON(w, http.StatusOK, out)
}

func toStockDTO(s *domain.Stock) stockDTO {
	return stockDTO{
		ProductID:    s.ProductID,
		Name:         s.Name,
		Quantity:     s.Quantity,
		ReorderLevel: s.ReorderLevel,
		SyncPending:  s.SyncPending,
	}
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

// writeDomainError 把领域错误映射到响应。409 表示业务上的明确拒绝，
// 调用方不应重试；422 表示参数不合法。
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrStockNotFound):
		writeError(w, http.StatusNotFound, "STOCK_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, domain.ErrTokenReused):
		writeError(w, http.StatusConflict, "TOKEN_REUSED", err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		// 乐观锁重试耗尽，对调用方而言是暂时性失败
		writeError(w, http.StatusServiceUnavailable, "CONFLICT_RETRY_EXHAUSTED", err.Error())
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("unhandled error in stock handler")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
