package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
	"time"

	retry "github.com/appleboy/go-httpretry"
	"go.uber.org/zap"

	"github.com/bechamine/autocare/internal/token"
)

const (
	contentTypeJSON = "application/json"

	// 上传图片使用固定文件名和类型，与后端约定一致
	imageFieldName = "image"
	imageFileName  = "car.jpg"
	imageMIMEType  = "image/jpeg"
)

// Client AutoCare API 客户端
type Client struct {
	httpClient *retry.Client
	baseURL    string
	store      *token.Store
	logger     *zap.Logger

	// 刷新串行化：并发 401 只允许一次真正的刷新请求
	refreshMu sync.Mutex
}

// Option 客户端可选配置
type Option func(*http.Client)

// WithTimeout 设置 HTTP 超时
func WithTimeout(d time.Duration) Option {
	return func(hc *http.Client) {
		hc.Timeout = d
	}
}

// NewClient 创建 AutoCare API 客户端
func NewClient(baseURL string, store *token.Store, logger *zap.Logger, opts ...Option) (*Client, error) {
	base := &http.Client{
		Timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(base)
	}

	// 关闭库自带的状态码/网络错误重试：同一请求最多发送一次，
	// 唯一的重发路径是 401 后的刷新流程（见 refresh.go）
	retryClient, err := retry.NewClient(
		retry.WithHTTPClient(base),
		retry.WithRetryableChecker(func(err error, resp *http.Response) bool {
			return false
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create retry client: %w", err)
	}

	return &Client{
		httpClient: retryClient,
		baseURL:    baseURL,
		store:      store,
		logger:     logger,
	}, nil
}

// Store 返回底层凭证存储
func (c *Client) Store() *token.Store {
	return c.store
}

// request 一次待发送的操作请求
// body 保留为字节切片，刷新后重放时原样重发
type request struct {
	method        string
	path          string
	body          []byte
	contentType   string
	authenticated bool
}

func jsonRequest(method, path string, payload any, authenticated bool) (request, error) {
	r := request{
		method:        method,
		path:          path,
		contentType:   contentTypeJSON,
		authenticated: authenticated,
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return request{}, fmt.Errorf("encode request body: %w", err)
		}
		r.body = body
	}
	return r, nil
}

// do 执行请求并返回响应体
// 认证请求遇到 401 时交给刷新协调器处理（见 refresh.go）；
// 其余失败立即返回，客户端本身从不重试
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	accessToken := ""
	if r.authenticated {
		t, ok := c.store.Get(token.SlotAccess)
		if !ok {
			return nil, ErrNoToken
		}
		accessToken = t
	}

	lc := c.newLifecycle(r)

	status, body, err := c.send(ctx, r, accessToken)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if status == http.StatusUnauthorized && r.authenticated {
		lc.event(ctx, eventUnauthorized)
		return c.refreshAndRetry(ctx, lc, r, accessToken)
	}

	if status < 200 || status > 299 {
		return nil, &ServerError{Status: status, Body: body}
	}

	lc.event(ctx, eventCompleted)
	return body, nil
}

// doJSON 执行请求并把 2xx 响应体解码到 out（out 为 nil 时丢弃响应体）
func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Debug("Failed to decode response",
			zap.String("path", r.path), zap.ByteString("body", body))
		return &DecodingError{Body: body, Err: err}
	}
	return nil
}

// send 发送一次请求，读完响应体后返回
func (c *Client) send(ctx context.Context, r request, accessToken string) (int, []byte, error) {
	var reader io.Reader
	if r.body != nil {
		reader = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.authenticated {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

// multipartBody 构造 multipart 请求体
// data 部分为 JSON 编码的记录（可选），image 部分为 JPEG 原始字节
func multipartBody(data, image []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if data != nil {
		part, err := w.CreateFormField("data")
		if err != nil {
			return nil, "", fmt.Errorf("create data part: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", fmt.Errorf("write data part: %w", err)
		}
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, imageFieldName, imageFileName))
	header.Set("Content-Type", imageMIMEType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
