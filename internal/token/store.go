package token

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Slot 令牌槽位
type Slot string

const (
	SlotAccess  Slot = "access_token"
	SlotRefresh Slot = "refresh_token"
)

// fileFormat 磁盘存储格式
type fileFormat struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store 凭证存储
// 两个槽位（access / refresh），落盘到 JSON 文件，进程重启后仍然可用
// 多个在途请求可能并发读写（例如同时触发刷新），因此所有访问都由互斥锁保护
type Store struct {
	mu     sync.Mutex
	path   string
	tokens map[Slot]string
	logger *zap.Logger
}

// NewStore 创建凭证存储并加载已有令牌
// 磁盘文件损坏时按空存储处理，不报错
func NewStore(path string, logger *zap.Logger) *Store {
	s := &Store{
		path:   path,
		tokens: make(map[Slot]string),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		logger.Warn("Token file is malformed, starting with empty store",
			zap.String("path", path), zap.Error(err))
		return s
	}

	if f.AccessToken != "" {
		s.tokens[SlotAccess] = f.AccessToken
	}
	if f.RefreshToken != "" {
		s.tokens[SlotRefresh] = f.RefreshToken
	}

	return s
}

// Save 保存令牌到指定槽位并落盘
func (s *Store) Save(slot Slot, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[slot] = token
	return s.persist()
}

// SavePair 同时保存 access 和 refresh 令牌（登录成功后调用）
func (s *Store) SavePair(accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[SlotAccess] = accessToken
	s.tokens[SlotRefresh] = refreshToken
	return s.persist()
}

// Get 读取指定槽位的令牌
func (s *Store) Get(slot Slot) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[slot]
	return token, ok && token != ""
}

// Clear 删除全部令牌（登出或刷新失败时调用）
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = make(map[Slot]string)
	return s.persist()
}

// CurrentUserID 从 access token 中提取用户 id
// 不验证签名，只解析 JWT 的 claims；令牌缺失或格式错误时返回 false，从不报错
func (s *Store) CurrentUserID() (string, bool) {
	s.mu.Lock()
	accessToken := s.tokens[SlotAccess]
	s.mu.Unlock()

	if accessToken == "" {
		return "", false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return "", false
	}

	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// persist 落盘，先写临时文件再原子重命名
// 调用方必须已持有锁
func (s *Store) persist() error {
	f := fileFormat{
		AccessToken:  s.tokens[SlotAccess],
		RefreshToken: s.tokens[SlotRefresh],
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename token file: %w", err)
	}

	return nil
}
