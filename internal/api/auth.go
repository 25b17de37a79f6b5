package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/bechamine/autocare/internal/models"
	"github.com/bechamine/autocare/internal/token"
)

// SignUp 注册新用户
// 部分后端版本注册成功会直接返回 access_token，存在时顺便保存
func (c *Client) SignUp(ctx context.Context, name, email, password, confirmPassword string) (string, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/signup", map[string]string{
		"name":            name,
		"email":           email,
		"password":        password,
		"confirmPassword": confirmPassword,
	}, false)
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, r)
	if err != nil {
		return "", err
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		Message     string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &DecodingError{Body: body, Err: err}
	}

	if resp.AccessToken != "" {
		if err := c.store.Save(token.SlotAccess, resp.AccessToken); err != nil {
			return "", err
		}
		return "signup successful and token saved", nil
	}

	if resp.Message == "" {
		return "signup successful", nil
	}
	return resp.Message, nil
}

// SignIn 登录
// 两个令牌都保存成功后才返回结果
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.AuthResult, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, false)
	if err != nil {
		return nil, err
	}

	var result models.AuthResult
	if err := c.doJSON(ctx, r, &result); err != nil {
		return nil, err
	}

	if err := c.store.SavePair(result.AccessToken, result.RefreshToken); err != nil {
		return nil, err
	}

	c.logger.Debug("Signed in", zap.String("email", result.User.Email))
	return &result, nil
}

// SocialSignIn Google 登录，用 id token 换取会话
func (c *Client) SocialSignIn(ctx context.Context, idToken string) (*models.AuthResult, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/google/token", map[string]string{
		"idToken": idToken,
	}, false)
	if err != nil {
		return nil, err
	}

	var result models.AuthResult
	if err := c.doJSON(ctx, r, &result); err != nil {
		return nil, err
	}

	if err := c.store.SavePair(result.AccessToken, result.RefreshToken); err != nil {
		return nil, err
	}

	return &result, nil
}

// SignUpWithGoogle Google 注册
func (c *Client) SignUpWithGoogle(ctx context.Context, idToken string) (string, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/google-signup", map[string]string{
		"idToken": idToken,
	}, false)
	if err != nil {
		return "", err
	}

	var resp models.Message
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ForgotPassword 发起找回密码，后端向邮箱发送 OTP
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	r, err := jsonRequest(http.MethodPost, "/auth/forgot-password", map[string]string{
		"email": email,
	}, false)
	if err != nil {
		return "", err
	}

	var resp models.Message
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifyOTP 校验 OTP，成功后保存返回的临时 access token
// 注意这里的响应键是 accessToken（camelCase），与登录接口不同
func (c *Client) VerifyOTP(ctx context.Context, otp string) error {
	r, err := jsonRequest(http.MethodPut, "/auth/verify-otp", map[string]string{
		"otp": otp,
	}, false)
	if err != nil {
		return err
	}

	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return &DecodingError{Body: body, Err: err}
	}
	if resp.AccessToken == "" {
		return &DecodingError{Body: body, Err: fmt.Errorf("accessToken missing in response")}
	}

	return c.store.Save(token.SlotAccess, resp.AccessToken)
}

// ResetPassword 重置密码（需要 verify-otp 颁发的令牌）
func (c *Client) ResetPassword(ctx context.Context, newPassword, confirmPassword string) error {
	r, err := jsonRequest(http.MethodPost, "/auth/reset-password", map[string]string{
		"newPassword":     newPassword,
		"confirmPassword": confirmPassword,
	}, true)
	if err != nil {
		return err
	}

	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.AccessToken != "" {
		return c.store.Save(token.SlotAccess, resp.AccessToken)
	}
	return nil
}

// ChangePassword 修改密码
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmNewPassword string) error {
	r, err := jsonRequest(http.MethodPut, "/users/change-password", map[string]string{
		"oldPassword":        oldPassword,
		"newPassword":        newPassword,
		"confirmNewPassword": confirmNewPassword,
	}, true)
	if err != nil {
		return err
	}

	_, err = c.do(ctx, r)
	return err
}

// UpdateProfileName 修改用户名
func (c *Client) UpdateProfileName(ctx context.Context, name string) (string, error) {
	r, err := jsonRequest(http.MethodPut, "/auth/profile", map[string]string{
		"name": name,
	}, true)
	if err != nil {
		return "", err
	}

	var resp models.Message
	if err := c.doJSON(ctx, r, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout 登出，清空本地凭证
func (c *Client) Logout() error {
	return c.store.Clear()
}
