package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/bechamine/autocare/internal/token"
)

// 请求生命周期状态
const (
	stateSending        = "sending"
	stateRefreshing     = "refreshing"
	stateRetrying       = "retrying"
	stateDone           = "done"
	stateSessionExpired = "session_expired"
)

// 生命周期事件
const (
	eventUnauthorized  = "unauthorized"
	eventRefreshed     = "refreshed"
	eventRefreshFailed = "refresh_failed"
	eventCompleted     = "completed"
)

// lifecycle 单个请求的状态机
// 每个请求独立一个实例，约束刷新流程：最多刷新一次、重放一次
type lifecycle struct {
	fsm    *fsm.FSM
	path   string
	logger *zap.Logger
}

// newLifecycle 创建请求状态机
func (c *Client) newLifecycle(r request) *lifecycle {
	lc := &lifecycle{
		path:   r.path,
		logger: c.logger,
	}

	lc.fsm = fsm.NewFSM(
		stateSending,
		fsm.Events{
			{Name: eventUnauthorized, Src: []string{stateSending}, Dst: stateRefreshing},
			{Name: eventRefreshed, Src: []string{stateRefreshing}, Dst: stateRetrying},
			{Name: eventRefreshFailed, Src: []string{stateRefreshing}, Dst: stateSessionExpired},
			{Name: eventCompleted, Src: []string{stateSending, stateRetrying}, Dst: stateDone},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if e.Src != e.Dst {
					lc.logger.Debug("Request state changed",
						zap.String("path", lc.path),
						zap.String("from", e.Src),
						zap.String("to", e.Dst))
				}
			},
		},
	)

	return lc
}

// event 触发事件，非法转换说明流程已经终止，忽略即可
func (lc *lifecycle) event(ctx context.Context, name string) {
	_ = lc.fsm.Event(ctx, name)
}

// refreshAndRetry 401 后的刷新与重放
// 刷新成功后用新令牌原样重发一次请求，重放的结果无论成败都是最终结果，
// 绝不触发第二次刷新，避免刷新令牌失效时无限循环
func (c *Client) refreshAndRetry(ctx context.Context, lc *lifecycle, r request, staleToken string) ([]byte, error) {
	newToken, err := c.refreshAccessToken(ctx, staleToken)
	if err != nil {
		lc.event(ctx, eventRefreshFailed)
		return nil, err
	}
	lc.event(ctx, eventRefreshed)

	status, body, err := c.send(ctx, r, newToken)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &ServerError{Status: status, Body: body}
	}

	lc.event(ctx, eventCompleted)
	return body, nil
}

// refreshAccessToken 用 refresh token 换取新的 access token
// 互斥锁串行化刷新；排队等锁期间其他请求已完成刷新时，直接复用轮换后的
// 令牌，不再发起重复的刷新请求。刷新失败视为会话终止，清空全部凭证
func (c *Client) refreshAccessToken(ctx context.Context, staleToken string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current, ok := c.store.Get(token.SlotAccess); ok && current != staleToken {
		return current, nil
	}

	refreshToken, ok := c.store.Get(token.SlotRefresh)
	if !ok {
		c.logger.Warn("No refresh token stored, session expired")
		if err := c.store.Clear(); err != nil {
			c.logger.Error("Failed to clear tokens", zap.Error(err))
		}
		return "", ErrSessionExpired
	}

	// 刷新接口的请求和响应键为 snake_case，按线上格式原样保留
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return "", err
	}

	status, body, err := c.send(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/refresh",
		body:        payload,
		contentType: contentTypeJSON,
	}, "")
	if err != nil || status < 200 || status > 299 {
		c.logger.Warn("Token refresh failed",
			zap.Int("status", status), zap.Error(err))
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Error("Failed to clear tokens", zap.Error(clearErr))
		}
		return "", ErrSessionExpired
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.AccessToken == "" {
		c.logger.Warn("Token refresh returned unexpected body", zap.ByteString("body", body))
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Error("Failed to clear tokens", zap.Error(clearErr))
		}
		return "", ErrSessionExpired
	}

	// 只轮换 access token，refresh token 保持不变
	if err := c.store.Save(token.SlotAccess, resp.AccessToken); err != nil {
		return "", err
	}

	return resp.AccessToken, nil
}
