// internal/pkg/httpclient/client.go
//
// 所有跨服务调用共用的 RPC 信封：统一的超时、有界指数退避重试、
// 错误分类以及幂等令牌透传。订单编排与库存同步走的是同一套语义。
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/metrics"
)

// IdempotencyHeader 是携带幂等令牌的 HTTP 头。
// 被调方必须把重复出现的令牌当作已生效的 no-op 成功处理。
const IdempotencyHeader = "X-Idempotency-Token"

// Kind 是出站调用失败的分类结果。
type Kind string

const (
	KindTimeout         Kind = "TIMEOUT"          // 超时，可重试
	KindUnavailable     Kind = "UNAVAILABLE"      // 连接拒绝 / 5xx，可重试
	KindRejected        Kind = "REJECTED"         // 对端明确拒绝（业务错误），不可重试
	KindInvalidResponse Kind = "INVALID_RESPONSE" // 响应无法解析，不可重试
)

// CallError 携带被分类后的调用失败信息。
type CallError struct {
	Kind    Kind
	Service string
	Status  int    // HTTP 状态码，连接级错误时为 0
	Reason  string // 对端返回的错误码，例如 INSUFFICIENT_STOCK
	Message string
	Err     error
}

func (e *CallError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("call %s failed: %s (%s): %s", e.Service, e.Kind, e.Reason, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("call %s failed: %s: %v", e.Service, e.Kind, e.Err)
	}
	return fmt.Sprintf("call %s failed: %s", e.Service, e.Kind)
}

func (e *CallError) Unwrap() error { return e.Err }

// Retryable 报告该类错误是否允许进入退避重试。
func (e *CallError) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindUnavailable
}

// KindOf 提取错误的分类，非 CallError 时返回 false。
func KindOf(err error) (Kind, bool) {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// ReasonOf 提取对端返回的业务错误码，不存在时返回空串。
func ReasonOf(err error) string {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}

// errorPayload 是各服务错误响应的统一 JSON 形态。
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Resolver 把逻辑服务名解析为 host:port。
// 生产环境由 Nacos 实现，本地与测试用静态表兜底。
type Resolver interface {
	Resolve(serviceName string) (string, error)
}

// StaticResolver 是基于静态映射表的 Resolver 实现。
type StaticResolver map[string]string

func (r StaticResolver) Resolve(serviceName string) (string, error) {
	addr, ok := r[serviceName]
	if !ok {
		return "", fmt.Errorf("no static address configured for service '%s'", serviceName)
	}
	return addr, nil
}

// RetryPolicy 是有界指数退避策略。只有被分类为可重试的错误才会触发重试。
type RetryPolicy struct {
	MaxAttempts int           // 含首次调用的总次数
	BaseDelay   time.Duration // 第一次重试前的等待
	MaxDelay    time.Duration // 退避上限
}

// DefaultRetryPolicy 返回默认策略：最多 3 次，100ms 起步指数退避。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Client 是可追踪、可注入的跨服务 HTTP 客户端。
type Client struct {
	tracer     trace.Tracer
	httpClient *http.Client
	resolver   Resolver
	retry      RetryPolicy
	// callTimeout 是单次尝试的兜底超时；调用方 ctx 上更紧的 deadline 优先。
	callTimeout time.Duration
}

// Option 配置 Client。
type Option func(*Client)

// WithRetryPolicy 覆盖默认重试策略。
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithCallTimeout 覆盖单次尝试的兜底超时。
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// WithHTTPClient 注入自定义的底层 http.Client，测试时指向 httptest server。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient 创建一个新的客户端实例。
// 底层 http.Client 不设置 Timeout 字段，完全受每次请求传入的 context 控制。
func NewClient(tracer trace.Tracer, resolver Resolver, opts ...Option) *Client {
	c := &Client{
		tracer: tracer,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		resolver:    resolver,
		retry:       DefaultRetryPolicy(),
		callTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// callOptions 是单次调用的可选参数。
type callOptions struct {
	token string
	query url.Values
}

// CallOption 配置单次调用。
type CallOption func(*callOptions)

// WithIdempotencyToken 为状态变更类调用附加幂等令牌。
// 没有令牌的变更调用不会被重试：超时后无法判断远端效果是否已发生。
func WithIdempotencyToken(token string) CallOption {
	return func(o *callOptions) { o.token = token }
}

// WithQuery 附加查询参数。
func WithQuery(q url.Values) CallOption {
	return func(o *callOptions) { o.query = q }
}

// GetJSON 对目标服务发起 GET 并把响应解码进 out。out 可以为 nil。
func (c *Client) GetJSON(ctx context.Context, service, path string, out interface{}, opts ...CallOption) error {
	return c.call(ctx, http.MethodGet, service, path, nil, out, opts...)
}

// PostJSON 对目标服务发起 POST。body 会被编码为 JSON，out 可以为 nil。
func (c *Client) PostJSON(ctx context.Context, service, path string, body, out interface{}, opts ...CallOption) error {
	return c.call(ctx, http.MethodPost, service, path, body, out, opts...)
}

// PutJSON 对目标服务发起 PUT。
func (c *Client) PutJSON(ctx context.Context, service, path string, body, out interface{}, opts ...CallOption) error {
	return c.call(ctx, http.MethodPut, service, path, body, out, opts...)
}

func (c *Client) call(ctx context.Context, method, service, path string, body, out interface{}, opts ...CallOption) error {
	var options callOptions
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("call-%s", service), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("rpc.service", service),
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &CallError{Kind: KindInvalidResponse, Service: service, Err: err}
		}
	}

	// 变更类调用只有在携带幂等令牌时才允许重试
	mutating := method != http.MethodGet
	maxAttempts := c.retry.MaxAttempts
	if mutating && options.token == "" {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RPCRetries.WithLabelValues(service).Inc()
			select {
			case <-time.After(c.retry.backoff(attempt - 1)):
			case <-ctx.Done():
				span.RecordError(ctx.Err())
				return c.classifyTransport(service, ctx.Err())
			}
		}

		err := c.doOnce(ctx, method, service, path, payload, out, &options)
		if err == nil {
			span.SetAttributes(attribute.Int("rpc.attempts", attempt+1))
			return nil
		}
		lastErr = err

		var ce *CallError
		if errors.As(err, &ce) && !ce.Retryable() {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(ce.Kind))
			return err
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "retries exhausted")
	return lastErr
}

// doOnce 执行单次请求，失败时返回分类后的 CallError。
func (c *Client) doOnce(ctx context.Context, method, service, path string, payload []byte, out interface{}, options *callOptions) error {
	addr, err := c.resolver.Resolve(service)
	if err != nil {
		return &CallError{Kind: KindUnavailable, Service: service, Err: err}
	}

	target := url.URL{Scheme: "http", Host: addr, Path: path}
	if options.query != nil {
		target.RawQuery = options.query.Encode()
	}

	attemptCtx := ctx
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, target.String(), reader)
	if err != nil {
		return &CallError{Kind: KindInvalidResponse, Service: service, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if options.token != "" {
		req.Header.Set(IdempotencyHeader, options.token)
	}
	otel.GetTextMapPropagator().Inject(attemptCtx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransport(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &CallError{Kind: KindInvalidResponse, Service: service, Status: resp.StatusCode, Err: err}
		}
		return nil
	}

	return c.classifyStatus(service, resp)
}

// classifyTransport 把连接层错误归类为 Timeout / Unavailable。
func (c *Client) classifyTransport(service string, err error) *CallError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &CallError{Kind: KindTimeout, Service: service, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &CallError{Kind: KindTimeout, Service: service, Err: err}
	default:
		return &CallError{Kind: KindUnavailable, Service: service, Err: err}
	}
}

// classifyStatus 把非 2xx 响应归类。5xx 视为对端不可用，可重试；
// 4xx 是对端的明确拒绝，携带其错误码原样上抛。
func (c *Client) classifyStatus(service string, resp *http.Response) *CallError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusRequestTimeout:
		return &CallError{Kind: KindTimeout, Service: service, Status: resp.StatusCode}
	case resp.StatusCode >= 500:
		return &CallError{Kind: KindUnavailable, Service: service, Status: resp.StatusCode, Message: string(body)}
	}

	ce := &CallError{Kind: KindRejected, Service: service, Status: resp.StatusCode}
	var ep errorPayload
	if err := json.Unmarshal(body, &ep); err == nil && ep.Error != "" {
		ce.Reason = ep.Error
		ce.Message = ep.Message
	} else {
		ce.Message = string(body)
	}
	return ce
}
