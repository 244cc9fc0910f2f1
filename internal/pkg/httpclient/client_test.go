// internal/pkg/httpclient/client_test.go
package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func testClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	t.Helper()
	addr := strings.TrimPrefix(server.URL, "http://")
	base := []Option{
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}),
	}
	return NewClient(otel.Tracer("envelope-test"), StaticResolver{"svc": addr}, append(base, opts...)...)
}

func TestGetJSONDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value": 42}`))
	}))
	defer server.Close()

	var out struct {
		Value int `json:"value"`
	}
	q := url.Values{}
	q.Set("id", "7")
	err := testClient(t, server).GetJSON(context.Background(), "svc", "/thing", &out, WithQuery(q))
	require.NoError(t, err)
	assert.Equal(t, 42, out.Value)
}

func TestRetriesOn5xxThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := testClient(t, server).GetJSON(context.Background(), "svc", "/flaky", &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetriesExhaustedReturnsUnavailable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := testClient(t, server).GetJSON(context.Background(), "svc", "/down", nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindUnavailable, kind)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRejectedIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "INSUFFICIENT_STOCK", "message": "only 2 left"}`))
	}))
	defer server.Close()

	err := testClient(t, server).PostJSON(context.Background(), "svc", "/reserve", map[string]int{"q": 5}, nil,
		WithIdempotencyToken("tok-1"))
	require.Error(t, err)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindRejected, kind)
	assert.Equal(t, "INSUFFICIENT_STOCK", ReasonOf(err))

	// 业务拒绝是终态，绝不重试
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestMutatingCallWithoutTokenIsNotRetried 校验信封的安全约束：
// 没有幂等令牌的变更调用超时后无法判断远端效果，只允许单次尝试。
func TestMutatingCallWithoutTokenIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := testClient(t, server).PostJSON(context.Background(), "svc", "/mutate", map[string]int{"q": 1}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMutatingCallWithTokenIsRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-99", r.Header.Get(IdempotencyHeader))
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	err := testClient(t, server).PostJSON(context.Background(), "svc", "/mutate", map[string]int{"q": 1}, nil,
		WithIdempotencyToken("tok-99"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTimeoutClassification(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := testClient(t, server,
		WithRetryPolicy(RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}),
		WithCallTimeout(20*time.Millisecond))

	err := client.GetJSON(context.Background(), "svc", "/slow", nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, kind)
}

func TestConnectionRefusedClassifiedUnavailable(t *testing.T) {
	client := NewClient(otel.Tracer("envelope-test"), StaticResolver{"svc": "127.0.0.1:1"},
		WithRetryPolicy(RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}))

	err := client.GetJSON(context.Background(), "svc", "/nowhere", nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindUnavailable, kind)
}

func TestInvalidResponseClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	var out struct{ Value int }
	err := testClient(t, server).GetJSON(context.Background(), "svc", "/garbage", &out)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidResponse, kind)
}

func TestUnknownServiceIsUnavailable(t *testing.T) {
	client := NewClient(otel.Tracer("envelope-test"), StaticResolver{},
		WithRetryPolicy(RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}))

	err := client.GetJSON(context.Background(), "nope", "/x", nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindUnavailable, kind)
}
