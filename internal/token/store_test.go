package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// makeJWT 构造一个只用于解析的未签名 JWT
func makeJWT(t *testing.T, claims map[string]any) string {
	t.Helper()

	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	return fmt.Sprintf("%s.%s.%s",
		enc.EncodeToString(header), enc.EncodeToString(payload), enc.EncodeToString([]byte("sig")))
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	return NewStore(path, zap.NewNop()), path
}

func TestSaveAndGet(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Save(SlotAccess, "access-1"))
	require.NoError(t, s.Save(SlotRefresh, "refresh-1"))

	access, ok := s.Get(SlotAccess)
	require.True(t, ok)
	assert.Equal(t, "access-1", access)

	refresh, ok := s.Get(SlotRefresh)
	require.True(t, ok)
	assert.Equal(t, "refresh-1", refresh)
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok := s.Get(SlotAccess)
	assert.False(t, ok)
}

func TestPersistAcrossRestart(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.SavePair("access-1", "refresh-1"))

	// 重新打开同一个文件，令牌仍然可用
	reopened := NewStore(path, zap.NewNop())
	access, ok := reopened.Get(SlotAccess)
	require.True(t, ok)
	assert.Equal(t, "access-1", access)

	refresh, ok := reopened.Get(SlotRefresh)
	require.True(t, ok)
	assert.Equal(t, "refresh-1", refresh)
}

func TestClearRemovesBothTokens(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.SavePair("access-1", "refresh-1"))

	require.NoError(t, s.Clear())

	_, ok := s.Get(SlotAccess)
	assert.False(t, ok)
	_, ok = s.Get(SlotRefresh)
	assert.False(t, ok)

	// 落盘后的文件也应该是空的
	reopened := NewStore(path, zap.NewNop())
	_, ok = reopened.Get(SlotAccess)
	assert.False(t, ok)
}

func TestMalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all{"), 0o600))

	s := NewStore(path, zap.NewNop())
	_, ok := s.Get(SlotAccess)
	assert.False(t, ok)
}

func TestCurrentUserID(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Save(SlotAccess, makeJWT(t, map[string]any{"id": "user-42"})))

	id, ok := s.CurrentUserID()
	require.True(t, ok)
	assert.Equal(t, "user-42", id)
}

func TestCurrentUserIDFailsSoft(t *testing.T) {
	cases := map[string]string{
		"garbage token":    "not-a-jwt",
		"two parts only":   "aaaa.bbbb",
		"invalid payload":  "aaaa.!!!!.cccc",
		"missing id claim": makeJWTNoHelper(),
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestStore(t)
			require.NoError(t, s.Save(SlotAccess, tok))

			_, ok := s.CurrentUserID()
			assert.False(t, ok)
		})
	}
}

func TestCurrentUserIDWithoutToken(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok := s.CurrentUserID()
	assert.False(t, ok)
}

// makeJWTNoHelper 构造 claims 中没有 id 的令牌
func makeJWTNoHelper() string {
	enc := base64.RawURLEncoding
	header, _ := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	payload, _ := json.Marshal(map[string]any{"email": "a@b.com"})
	return fmt.Sprintf("%s.%s.%s",
		enc.EncodeToString(header), enc.EncodeToString(payload), enc.EncodeToString([]byte("sig")))
}

func TestConcurrentAccess(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = s.SavePair(fmt.Sprintf("access-%d", n), fmt.Sprintf("refresh-%d", n))
		}(i)
		go func() {
			defer wg.Done()
			s.Get(SlotAccess)
			s.CurrentUserID()
		}()
	}
	wg.Wait()

	// 最终状态必须是某一次完整写入的结果
	access, ok := s.Get(SlotAccess)
	require.True(t, ok)
	refresh, ok := s.Get(SlotRefresh)
	require.True(t, ok)
	assert.Equal(t, access[len("access-"):], refresh[len("refresh-"):])
}
