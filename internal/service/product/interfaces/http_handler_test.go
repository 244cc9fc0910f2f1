// internal/service/product/interfaces/http_handler_test.go
package interfaces_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/interfaces"
)

// TestRegisterRoutesSharesMuxWithBootstrap 按启动流程的顺序先占用公共端点，
// 再注册业务路由：两者必须能共存于同一个 ServeMux。
func TestRegisterRoutesSharesMuxWithBootstrap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	assert.NotPanics(t, func() {
		interfaces.NewProductHandler(nil).RegisterRoutes(mux)
	})

	_, pattern := mux.Handler(httptest.NewRequest(http.MethodPost, "/api/product/add", nil))
	assert.Equal(t, "/api/product/add", pattern)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
