package api

import (
	"errors"
	"fmt"
)

// 错误定义
var (
	// ErrSessionExpired 刷新令牌缺失或失效，调用方应引导用户重新登录
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrNoToken 认证接口调用时没有可用的 access token
	ErrNoToken = errors.New("no access token found, please login")

	// ErrInvalidRequest 请求构造前置条件不满足（例如缺少资源 id）
	ErrInvalidRequest = errors.New("invalid request")
)

// TransportError 网络层错误（不可达、DNS、超时）
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError 非 2xx 且非 401 的响应，原样携带状态码和响应体
type ServerError struct {
	Status int
	Body   []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: status=%d body=%s", e.Status, string(e.Body))
}

// DecodingError 2xx 但响应体无法解析，保留原始响应体用于诊断
type DecodingError struct {
	Body []byte
	Err  error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding error: %v (body: %s)", e.Err, string(e.Body))
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}
