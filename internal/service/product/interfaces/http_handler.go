// internal/service/product/interfaces/http_handler.go
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

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/domain"
)

const serviceName = "product-service"

// ProductHandler 封装商品服务的 HTTP 处理器。
type ProductHandler struct {
	service *application.ProductApplicationService
}

func NewProductHandler(service *application.ProductApplicationService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册业务路由。
// /healthz 与 /metrics 由 bootstrap 统一注册，这里不能重复占用。
func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/product/add", h.saveProduct)
	mux.HandleFunc("/api/product/update", h.updateProduct)
	mux.HandleFunc("/api/product/deleteById/", h.deleteProduct)
	mux.HandleFunc("/api/product/viewAll", h.viewAll)
	mux.HandleFunc("/api/product/viewAllAvailable", h.viewAllAvailable)
	mux.HandleFunc("/api/product/getProductName/", h.getProductName)
	mux.HandleFunc("/api/product/viewBasedOnPriceRange/", h.viewByPriceRange)
	mux.HandleFunc("/api/product/getProductQuantity", h.getProductQuantities)
	mux.HandleFunc("/api/product/checkAvailability", h.checkAvailability)
	mux.HandleFunc("/api/product/updateQuantity", h.updateQuantity)
	mux.HandleFunc("/api/product/getAll", h.getOverallStocks)
}

type productDTO struct {
	ProductID  int     `json:"productId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	StockLevel int     `json:"stockLevel"`
}

func (h *ProductHandler) saveProduct(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	ctx, span := otel.Tracer(serviceName).Start(ctx, "product-service.SaveProduct")
	defer span.End()

	var dto productDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}
	product := &domain.Product{ProductID: dto.ProductID, Name: dto.Name, Price: dto.Price, StockLevel: dto.StockLevel}
	if err := h.service.SaveProduct(ctx, product); err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto)
}

func (h *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	ctx, span := otel.Tracer(serviceName).Start(ctx, "product-service.UpdateProduct")
	defer span.End()

	var dto productDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}
	product := &domain.Product{ProductID: dto.ProductID, Name: dto.Name, Price: dto.Price, StockLevel: dto.StockLevel}
	if err := h.service.UpdateProduct(ctx, product); err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product Updated Successfully"})
}

func (h *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	id, ok := trailingID(w, r, "/api/product/deleteById/")
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(ctx, id); err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted Successfully"})
}

func (h *ProductHandler) viewAll(w http.ResponseWriter, r *http.Request) {
	h.writeProducts(w, r, h.service.GetAllProducts)
}

func (h *ProductHandler) viewAllAvailable(w http.ResponseWriter, r *http.Request) {
	h.writeProducts(w, r, h.service.GetAvailableProducts)
}

func (h *ProductHandler) getProductName(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	id, ok := trailingID(w, r, "/api/product/getProductName/")
	if !ok {
		return
	}
	name, err := h.service.GetProductName(ctx, id)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (h *ProductHandler) viewByPriceRange(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	rest := strings.TrimPrefix(r.URL.Path, "/api/product/viewBasedOnPriceRange/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "expected /viewBasedOnPriceRange/{low}/{high}")
		return
	}
	low, err1 := strconv.ParseFloat(parts[0], 64)
	high, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "price bounds must be numeric")
		return
	}
	products, err := h.service.GetProductsByPriceRange(ctx, low, high)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(products))
}

func (h *ProductHandler) getProductQuantities(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	quantities, err := h.service.GetAllProductQuantities(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, quantities)
}

// checkAvailability 是订单服务的存在性 + 数量探测入口。
func (h *ProductHandler) checkAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	ctx, span := otel.Tracer(serviceName).Start(ctx, "product-service.CheckAvailability")
	defer span.End()

	id, err := strconv.Atoi(r.URL.Query().Get("productId"))
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "productId is required")
		return
	}
	availability, err := h.service.CheckAvailability(ctx, id)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

type quantityDTO struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// updateQuantity 是库存服务数量同步的落点。
func (h *ProductHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	ctx, span := otel.Tracer(serviceName).Start(ctx, "product-service.UpdateQuantity")
	defer span.End()

	var dto quantityDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return
	}
	if err := h.service.UpdateQuantity(ctx, dto.ProductID, dto.Quantity); err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "quantity updated"})
}

func (h *ProductHandler) getOverallStocks(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	stocks, err := h.service.GetOverallStocks(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, stocks)
}

func (h *ProductHandler) writeProducts(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]*domain.Product, error)) {
	ctx := extract(r)
	products, err := fetch(ctx)
	if err != nil {
		writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(products))
}

func toDTOs(products []*domain.Product) []productDTO {
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, productDTO{ProductID: p.ProductID, Name: p.Name, Price: p.Price, StockLevel: p.StockLevel})
	}
	return out
}

func trailingID(w http.ResponseWriter, r *http.Request, prefix string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, prefix))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be an integer")
		return 0, false
	}
	return id, true
}

// extract 从请求头恢复链路上下文。
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

// writeDomainError 把领域错误映射到统一的错误响应。
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrInvalidProduct):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_REQUEST", err.Error())
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("unhandled error in product handler")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
