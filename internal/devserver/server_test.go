package devserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bechamine/autocare/internal/api"
	"github.com/bechamine/autocare/internal/models"
	"github.com/bechamine/autocare/internal/token"
)

// testEnv 把开发服务器和客户端接到一起，走真实的 HTTP 往返
type testEnv struct {
	client *api.Client
	store  *token.Store
	logs   *observer.ObservedLogs
	srv    *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zap.InfoLevel)
	server := NewServer(zap.New(core), Options{
		JWTSecret:  "test-secret",
		BcryptCost: 4,
	})

	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)

	store := token.NewStore(filepath.Join(t.TempDir(), "tokens.json"), zap.NewNop())
	client, err := api.NewClient(srv.URL, store, zap.NewNop(), api.WithTimeout(5*time.Second))
	require.NoError(t, err)

	return &testEnv{client: client, store: store, logs: logs, srv: srv}
}

func (e *testEnv) signUpAndLogin(t *testing.T, name, email, password string) *models.AuthResult {
	t.Helper()
	ctx := context.Background()

	_, err := e.client.SignUp(ctx, name, email, password, password)
	require.NoError(t, err)

	result, err := e.client.SignIn(ctx, email, password)
	require.NoError(t, err)
	return result
}

// 最小的合法 JPEG 头，开发服务器只看文件存在不校验内容
var tinyJPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func TestEndToEndVehicleAndMaintenanceFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUpAndLogin(t, "Alice", "alice@example.com", "secret123")

	// 登录后双令牌已落盘
	_, ok := env.store.Get(token.SlotAccess)
	require.True(t, ok)
	_, ok = env.store.Get(token.SlotRefresh)
	require.True(t, ok)

	// 上传照片创建车辆
	car, err := env.client.UploadVehicleImage(ctx, tinyJPEG)
	require.NoError(t, err)
	require.NotEmpty(t, car.ID)

	vehicles, err := env.client.ListMyVehicles(ctx)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, car.ID, vehicles[0].ID)

	// 修改车辆资料
	car.Make = "Honda"
	car.CarModel = "Civic"
	car.Year = 2021
	car.Mileage = 42000
	updated, err := env.client.UpdateVehicle(ctx, *car, nil)
	require.NoError(t, err)
	assert.Equal(t, "Honda", updated.Make)
	assert.Equal(t, 42000, updated.Mileage)

	// 首次拉取保养任务会按模板生成预测
	tasks, err := env.client.ListMaintenanceTasks(ctx, car.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		assert.Equal(t, car.ID, task.CarID)
		assert.Equal(t, models.StatusPending, task.Status)
		require.NotNil(t, task.NextMileage)
		assert.Greater(t, *task.NextMileage, 42000)
	}

	// 手动加一条任务
	created, err := env.client.AddTask(ctx, models.MaintenanceTask{
		CarID:  car.ID,
		Task:   "Air Filter",
		Status: models.StatusPending,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// 完成任务
	done, err := env.client.CompleteTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.NotEmpty(t, done.DueDate)

	// 更新任务里程
	err = env.client.UpdateTaskMileage(ctx, tasks[0].ID, car.ID, 55000, models.StatusPending)
	require.NoError(t, err)

	after, err := env.client.ListMaintenanceTasks(ctx, car.ID)
	require.NoError(t, err)
	require.Len(t, after, 4)
}

func TestRefreshFlowAgainstDevServer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUpAndLogin(t, "Bob", "bob@example.com", "secret123")

	// 把 access token 换成无效值，强制走一次刷新
	require.NoError(t, env.store.Save(token.SlotAccess, "garbage-token"))

	_, err := env.client.ListMyVehicles(ctx)
	require.NoError(t, err)

	access, ok := env.store.Get(token.SlotAccess)
	require.True(t, ok)
	assert.NotEqual(t, "garbage-token", access)

	// 刷新后可以继续正常调用
	_, err = env.client.ListMyVehicles(ctx)
	require.NoError(t, err)
}

func TestSessionExpiredWhenRefreshTokenInvalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUpAndLogin(t, "Carol", "carol@example.com", "secret123")

	require.NoError(t, env.store.SavePair("garbage-access", "garbage-refresh"))

	_, err := env.client.ListMyVehicles(ctx)
	require.ErrorIs(t, err, api.ErrSessionExpired)

	_, ok := env.store.Get(token.SlotAccess)
	assert.False(t, ok)
	_, ok = env.store.Get(token.SlotRefresh)
	assert.False(t, ok)
}

func TestPasswordResetWithOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUpAndLogin(t, "Dave", "dave@example.com", "oldpass123")
	require.NoError(t, env.client.Logout())

	_, err := env.client.ForgotPassword(ctx, "dave@example.com")
	require.NoError(t, err)

	// 开发服务器把 OTP 打到日志里
	var otp string
	for _, entry := range env.logs.All() {
		for _, field := range entry.Context {
			if field.Key == "otp" {
				otp = field.String
			}
		}
	}
	require.NotEmpty(t, otp)

	require.NoError(t, env.client.VerifyOTP(ctx, otp))
	require.NoError(t, env.client.ResetPassword(ctx, "newpass456", "newpass456"))

	// 旧密码失效，新密码可登录
	_, err = env.client.SignIn(ctx, "dave@example.com", "oldpass123")
	var serverErr *api.ServerError
	require.ErrorAs(t, err, &serverErr)

	_, err = env.client.SignIn(ctx, "dave@example.com", "newpass456")
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUpAndLogin(t, "Eve", "eve@example.com", "first-pass")

	err := env.client.ChangePassword(ctx, "first-pass", "second-pass", "second-pass")
	require.NoError(t, err)

	_, err = env.client.SignIn(ctx, "eve@example.com", "second-pass")
	require.NoError(t, err)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.client.SignUp(ctx, "Frank", "frank@example.com", "pass123", "pass123")
	require.NoError(t, err)

	_, err = env.client.SignUp(ctx, "Frank", "frank@example.com", "pass123", "pass123")
	var serverErr *api.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, 409, serverErr.Status)
}

func TestGoogleSignInCreatesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 开发环境把 idToken 当邮箱用
	result, err := env.client.SocialSignIn(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", result.User.Email)

	_, ok := env.store.Get(token.SlotAccess)
	assert.True(t, ok)
	_, ok = env.store.Get(token.SlotRefresh)
	assert.True(t, ok)
}

func TestUpdateProfileName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUpAndLogin(t, "Heidi", "heidi@example.com", "pass1234")

	_, err := env.client.UpdateProfileName(ctx, "Heidi Updated")
	require.NoError(t, err)

	result, err := env.client.SignIn(ctx, "heidi@example.com", "pass1234")
	require.NoError(t, err)
	assert.Equal(t, "Heidi Updated", result.User.Name)
}

func TestConcurrentLoginAndProfileUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUpAndLogin(t, "Mallory", "mallory@example.com", "pass1234")

	// 登录读用户记录，改名和改密码写用户记录，并发下不允许数据竞争
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				body := strings.NewReader(`{"email":"mallory@example.com","password":"pass1234"}`)
				resp, err := http.Post(env.srv.URL+"/auth/login", "application/json", body)
				if err == nil {
					io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 10; j++ {
			_, _ = env.client.UpdateProfileName(ctx, fmt.Sprintf("Mallory %d", j))
		}
	}()
	wg.Wait()

	result, err := env.client.SignIn(ctx, "mallory@example.com", "pass1234")
	require.NoError(t, err)
	assert.Equal(t, "Mallory 9", result.User.Name)
}

func TestVehicleOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.signUpAndLogin(t, "Ivan", "ivan@example.com", "pass1234")
	car, err := env.client.UploadVehicleImage(ctx, tinyJPEG)
	require.NoError(t, err)

	// 换个用户登录后不能改别人的车
	env.signUpAndLogin(t, "Judy", "judy@example.com", "pass1234")

	car.Mileage = 1
	_, err = env.client.UpdateVehicle(ctx, *car, nil)
	var serverErr *api.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, 403, serverErr.Status)
}
